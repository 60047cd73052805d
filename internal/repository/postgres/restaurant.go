package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/shawnhank/nomnomlog-sub000/internal/domain"
	"github.com/shawnhank/nomnomlog-sub000/pkg/database"
	apperrors "github.com/shawnhank/nomnomlog-sub000/pkg/errors"
)

const restaurantColumns = `id, user_id, name, address, phone, website, rating, notes, is_favorite, external_id, tags, created_at, updated_at`

// RestaurantRepository implements repository.RestaurantRepository using PostgreSQL.
type RestaurantRepository struct {
	db database.DBTX
}

// NewRestaurantRepository creates a new PostgreSQL-backed restaurant repository.
func NewRestaurantRepository(db database.DBTX) *RestaurantRepository {
	return &RestaurantRepository{db: db}
}

// Create inserts a new restaurant.
func (r *RestaurantRepository) Create(ctx context.Context, rest *domain.Restaurant) (err error) {
	query := `
		INSERT INTO restaurants (` + restaurantColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`

	ctx, end := database.TraceQuery(ctx, "CreateRestaurant", query)
	defer func() { end(err) }()

	rest.Tags = nonNil(rest.Tags)
	_, err = r.db.Exec(ctx, query,
		rest.ID,
		rest.UserID,
		rest.Name,
		rest.Address,
		rest.Phone,
		rest.Website,
		rest.Rating,
		rest.Notes,
		rest.IsFavorite,
		rest.ExternalID,
		rest.Tags,
		rest.CreatedAt,
		rest.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert restaurant: %w", err)
	}
	return nil
}

// GetByID returns the user's restaurant with the given id.
func (r *RestaurantRepository) GetByID(ctx context.Context, userID, id string) (_ *domain.Restaurant, err error) {
	query := `SELECT ` + restaurantColumns + ` FROM restaurants WHERE id = $1 AND user_id = $2`

	ctx, end := database.TraceQuery(ctx, "GetRestaurant", query)
	defer func() { end(err) }()

	rest, err := scanRestaurant(r.db.QueryRow(ctx, query, id, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("restaurant", id)
		}
		return nil, fmt.Errorf("get restaurant: %w", err)
	}
	return rest, nil
}

// List returns a filtered page of the user's restaurants, newest first.
func (r *RestaurantRepository) List(ctx context.Context, userID string, filter domain.RestaurantFilter, offset, limit int) (_ []domain.Restaurant, _ int, err error) {
	var (
		conditions = []string{"user_id = $1"}
		args       = []any{userID}
		argIndex   = 2
	)

	if filter.Query != "" {
		conditions = append(conditions, fmt.Sprintf("name ILIKE $%d", argIndex))
		args = append(args, "%"+escapeLike(filter.Query)+"%")
		argIndex++
	}

	if filter.Tag != "" {
		conditions = append(conditions, fmt.Sprintf("$%d = ANY(tags)", argIndex))
		args = append(args, filter.Tag)
		argIndex++
	}

	if filter.FavoriteOnly {
		conditions = append(conditions, "is_favorite")
	}

	query := fmt.Sprintf(`
		SELECT %s, count(*) OVER() AS total_count
		FROM restaurants
		WHERE %s
		ORDER BY created_at DESC, id
		LIMIT $%d OFFSET $%d`,
		restaurantColumns, strings.Join(conditions, " AND "), argIndex, argIndex+1,
	)
	args = append(args, limit, offset)

	ctx, end := database.TraceQuery(ctx, "ListRestaurants", query)
	defer func() { end(err) }()

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list restaurants: %w", err)
	}
	defer rows.Close()

	restaurants := []domain.Restaurant{}
	total := 0
	for rows.Next() {
		rest, err := scanRestaurant(rows, &total)
		if err != nil {
			return nil, 0, fmt.Errorf("scan restaurant row: %w", err)
		}
		restaurants = append(restaurants, *rest)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate restaurant rows: %w", err)
	}

	return restaurants, total, nil
}

// Update writes every mutable field of rest, scoped to its owner.
func (r *RestaurantRepository) Update(ctx context.Context, rest *domain.Restaurant) (err error) {
	rest.UpdatedAt = time.Now().UTC()
	rest.Tags = nonNil(rest.Tags)

	query := `
		UPDATE restaurants
		SET name = $1, address = $2, phone = $3, website = $4, rating = $5, notes = $6,
		    is_favorite = $7, external_id = $8, tags = $9, updated_at = $10
		WHERE id = $11 AND user_id = $12`

	ctx, end := database.TraceQuery(ctx, "UpdateRestaurant", query)
	defer func() { end(err) }()

	ct, err := r.db.Exec(ctx, query,
		rest.Name,
		rest.Address,
		rest.Phone,
		rest.Website,
		rest.Rating,
		rest.Notes,
		rest.IsFavorite,
		rest.ExternalID,
		rest.Tags,
		rest.UpdatedAt,
		rest.ID,
		rest.UserID,
	)
	if err != nil {
		return fmt.Errorf("update restaurant: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("restaurant", rest.ID)
	}
	return nil
}

// Delete removes the user's restaurant. Its meals go with it.
func (r *RestaurantRepository) Delete(ctx context.Context, userID, id string) (err error) {
	query := `DELETE FROM restaurants WHERE id = $1 AND user_id = $2`

	ctx, end := database.TraceQuery(ctx, "DeleteRestaurant", query)
	defer func() { end(err) }()

	ct, err := r.db.Exec(ctx, query, id, userID)
	if err != nil {
		return fmt.Errorf("delete restaurant: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("restaurant", id)
	}
	return nil
}

// scanRestaurant reads one row; extra receives trailing columns such as a
// window count.
func scanRestaurant(row pgx.Row, extra ...any) (*domain.Restaurant, error) {
	var rest domain.Restaurant
	dest := append([]any{
		&rest.ID,
		&rest.UserID,
		&rest.Name,
		&rest.Address,
		&rest.Phone,
		&rest.Website,
		&rest.Rating,
		&rest.Notes,
		&rest.IsFavorite,
		&rest.ExternalID,
		&rest.Tags,
		&rest.CreatedAt,
		&rest.UpdatedAt,
	}, extra...)
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}
	rest.Tags = nonNil(rest.Tags)
	return &rest, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// escapeLike makes s match literally inside an ILIKE pattern.
func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
