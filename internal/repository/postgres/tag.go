package postgres

import (
	"context"
	"fmt"

	"github.com/shawnhank/nomnomlog-sub000/pkg/database"
)

// TagRepository implements repository.TagRepository using PostgreSQL.
type TagRepository struct {
	db database.DBTX
}

// NewTagRepository creates a new PostgreSQL-backed tag repository.
func NewTagRepository(db database.DBTX) *TagRepository {
	return &TagRepository{db: db}
}

// ListByUser returns the distinct tags on the user's restaurants and meals.
func (r *TagRepository) ListByUser(ctx context.Context, userID string) (_ []string, err error) {
	query := `
		SELECT DISTINCT tag FROM (
			SELECT unnest(tags) AS tag FROM restaurants WHERE user_id = $1
			UNION
			SELECT unnest(tags) AS tag FROM meals WHERE user_id = $1
		) t
		ORDER BY tag`

	ctx, end := database.TraceQuery(ctx, "ListTags", query)
	defer func() { end(err) }()

	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("list tags: %w", err)
	}
	defer rows.Close()

	tags := []string{}
	for rows.Next() {
		var tag string
		if err := rows.Scan(&tag); err != nil {
			return nil, fmt.Errorf("scan tag: %w", err)
		}
		tags = append(tags, tag)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tags: %w", err)
	}
	return tags, nil
}
