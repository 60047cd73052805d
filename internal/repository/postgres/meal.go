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

const mealColumns = `id, user_id, restaurant_id, name, description, rating, would_order_again, notes, photo_keys, tags, visited_at, created_at, updated_at`

// MealRepository implements repository.MealRepository using PostgreSQL.
type MealRepository struct {
	db database.DBTX
}

// NewMealRepository creates a new PostgreSQL-backed meal repository.
func NewMealRepository(db database.DBTX) *MealRepository {
	return &MealRepository{db: db}
}

// Create inserts a meal. The insert only happens when the restaurant belongs
// to the same user; otherwise the restaurant is reported as not found.
func (r *MealRepository) Create(ctx context.Context, m *domain.Meal) (err error) {
	query := `
		INSERT INTO meals (` + mealColumns + `)
		SELECT $1::uuid, $2::uuid, $3::uuid, $4::text, $5::text, $6::int, $7::boolean, $8::text,
		       $9::text[], $10::text[], $11::timestamptz, $12::timestamptz, $13::timestamptz
		WHERE EXISTS (SELECT 1 FROM restaurants WHERE id = $3 AND user_id = $2)`

	ctx, end := database.TraceQuery(ctx, "CreateMeal", query)
	defer func() { end(err) }()

	m.PhotoKeys = nonNil(m.PhotoKeys)
	m.Tags = nonNil(m.Tags)
	ct, err := r.db.Exec(ctx, query,
		m.ID,
		m.UserID,
		m.RestaurantID,
		m.Name,
		m.Description,
		m.Rating,
		m.WouldOrderAgain,
		m.Notes,
		m.PhotoKeys,
		m.Tags,
		m.VisitedAt,
		m.CreatedAt,
		m.UpdatedAt,
	)
	if err != nil {
		if isForeignKeyViolation(err) {
			return apperrors.NotFound("restaurant", m.RestaurantID)
		}
		return fmt.Errorf("insert meal: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("restaurant", m.RestaurantID)
	}
	return nil
}

// GetByID returns the user's meal with the given id.
func (r *MealRepository) GetByID(ctx context.Context, userID, id string) (_ *domain.Meal, err error) {
	query := `SELECT ` + mealColumns + ` FROM meals WHERE id = $1 AND user_id = $2`

	ctx, end := database.TraceQuery(ctx, "GetMeal", query)
	defer func() { end(err) }()

	m, err := scanMeal(r.db.QueryRow(ctx, query, id, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("meal", id)
		}
		return nil, fmt.Errorf("get meal: %w", err)
	}
	return m, nil
}

// List returns a filtered page of the user's meals, most recently visited first.
func (r *MealRepository) List(ctx context.Context, userID string, filter domain.MealFilter, offset, limit int) (_ []domain.Meal, _ int, err error) {
	var (
		conditions = []string{"user_id = $1"}
		args       = []any{userID}
		argIndex   = 2
	)

	if filter.RestaurantID != "" {
		conditions = append(conditions, fmt.Sprintf("restaurant_id = $%d", argIndex))
		args = append(args, filter.RestaurantID)
		argIndex++
	}

	if filter.Tag != "" {
		conditions = append(conditions, fmt.Sprintf("$%d = ANY(tags)", argIndex))
		args = append(args, filter.Tag)
		argIndex++
	}

	query := fmt.Sprintf(`
		SELECT %s, count(*) OVER() AS total_count
		FROM meals
		WHERE %s
		ORDER BY COALESCE(visited_at, created_at) DESC, id
		LIMIT $%d OFFSET $%d`,
		mealColumns, strings.Join(conditions, " AND "), argIndex, argIndex+1,
	)
	args = append(args, limit, offset)

	ctx, end := database.TraceQuery(ctx, "ListMeals", query)
	defer func() { end(err) }()

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list meals: %w", err)
	}
	defer rows.Close()

	meals := []domain.Meal{}
	total := 0
	for rows.Next() {
		m, err := scanMeal(rows, &total)
		if err != nil {
			return nil, 0, fmt.Errorf("scan meal row: %w", err)
		}
		meals = append(meals, *m)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate meal rows: %w", err)
	}

	return meals, total, nil
}

// Update writes every mutable field of m. Moving a meal to another
// restaurant requires that restaurant to belong to the same user.
func (r *MealRepository) Update(ctx context.Context, m *domain.Meal) (err error) {
	m.UpdatedAt = time.Now().UTC()
	m.PhotoKeys = nonNil(m.PhotoKeys)
	m.Tags = nonNil(m.Tags)

	query := `
		UPDATE meals
		SET restaurant_id = $1, name = $2, description = $3, rating = $4, would_order_again = $5,
		    notes = $6, photo_keys = $7, tags = $8, visited_at = $9, updated_at = $10
		WHERE id = $11 AND user_id = $12
		  AND EXISTS (SELECT 1 FROM restaurants WHERE id = $1 AND user_id = $12)`

	ctx, end := database.TraceQuery(ctx, "UpdateMeal", query)
	defer func() { end(err) }()

	ct, err := r.db.Exec(ctx, query,
		m.RestaurantID,
		m.Name,
		m.Description,
		m.Rating,
		m.WouldOrderAgain,
		m.Notes,
		m.PhotoKeys,
		m.Tags,
		m.VisitedAt,
		m.UpdatedAt,
		m.ID,
		m.UserID,
	)
	if err != nil {
		return fmt.Errorf("update meal: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("meal", m.ID)
	}
	return nil
}

// Delete removes the user's meal.
func (r *MealRepository) Delete(ctx context.Context, userID, id string) (err error) {
	query := `DELETE FROM meals WHERE id = $1 AND user_id = $2`

	ctx, end := database.TraceQuery(ctx, "DeleteMeal", query)
	defer func() { end(err) }()

	ct, err := r.db.Exec(ctx, query, id, userID)
	if err != nil {
		return fmt.Errorf("delete meal: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("meal", id)
	}
	return nil
}

func scanMeal(row pgx.Row, extra ...any) (*domain.Meal, error) {
	var m domain.Meal
	dest := append([]any{
		&m.ID,
		&m.UserID,
		&m.RestaurantID,
		&m.Name,
		&m.Description,
		&m.Rating,
		&m.WouldOrderAgain,
		&m.Notes,
		&m.PhotoKeys,
		&m.Tags,
		&m.VisitedAt,
		&m.CreatedAt,
		&m.UpdatedAt,
	}, extra...)
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}
	m.PhotoKeys = nonNil(m.PhotoKeys)
	m.Tags = nonNil(m.Tags)
	return &m, nil
}
