package repository

import (
	"context"

	"github.com/shawnhank/nomnomlog-sub000/internal/domain"
)

// UserRepository defines the interface for user persistence operations.
type UserRepository interface {
	// Create inserts a new user. A taken email yields ErrAlreadyExists.
	Create(ctx context.Context, user *domain.User) error

	// GetByID retrieves a user by their unique identifier.
	GetByID(ctx context.Context, id string) (*domain.User, error)

	// GetByEmail retrieves a user by normalized email address.
	GetByEmail(ctx context.Context, email string) (*domain.User, error)

	// Update modifies an existing user. A taken email yields ErrAlreadyExists.
	Update(ctx context.Context, user *domain.User) error

	// List returns a page of users ordered by creation time and the total count.
	List(ctx context.Context, offset, limit int) ([]domain.User, int, error)
}

// RevocationLedger stores tokens refused before their natural expiry.
type RevocationLedger interface {
	// Revoke records a token. It succeeds if the token is already revoked
	// or already expired.
	Revoke(ctx context.Context, token *domain.RevokedToken) error

	// IsRevoked reports whether the raw token string has been revoked.
	IsRevoked(ctx context.Context, token string) (bool, error)
}

// RestaurantRepository persists restaurants. Every method is scoped to the
// owning user; rows of other users are reported as not found.
type RestaurantRepository interface {
	Create(ctx context.Context, r *domain.Restaurant) error
	GetByID(ctx context.Context, userID, id string) (*domain.Restaurant, error)
	List(ctx context.Context, userID string, filter domain.RestaurantFilter, offset, limit int) ([]domain.Restaurant, int, error)
	Update(ctx context.Context, r *domain.Restaurant) error
	Delete(ctx context.Context, userID, id string) error
}

// MealRepository persists meals, scoped to the owning user.
type MealRepository interface {
	Create(ctx context.Context, m *domain.Meal) error
	GetByID(ctx context.Context, userID, id string) (*domain.Meal, error)
	List(ctx context.Context, userID string, filter domain.MealFilter, offset, limit int) ([]domain.Meal, int, error)
	Update(ctx context.Context, m *domain.Meal) error
	Delete(ctx context.Context, userID, id string) error
}

// TagRepository reads the tags a user has applied.
type TagRepository interface {
	// ListByUser returns the distinct tags across the user's restaurants and
	// meals, sorted.
	ListByUser(ctx context.Context, userID string) ([]string, error)
}
