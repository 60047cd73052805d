package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/shawnhank/nomnomlog-sub000/internal/domain"
	"github.com/shawnhank/nomnomlog-sub000/internal/repository"
	apperrors "github.com/shawnhank/nomnomlog-sub000/pkg/errors"
	"github.com/shawnhank/nomnomlog-sub000/pkg/pagination"
	"github.com/shawnhank/nomnomlog-sub000/pkg/slug"
)

// MealEvents publishes meal events.
type MealEvents interface {
	PublishMealLogged(ctx context.Context, m *domain.Meal) error
}

// MealService manages the meals in a user's journal.
type MealService struct {
	repo   repository.MealRepository
	events MealEvents
	logger *slog.Logger
}

// NewMealService creates a new meal service.
func NewMealService(repo repository.MealRepository, events MealEvents, logger *slog.Logger) *MealService {
	return &MealService{repo: repo, events: events, logger: logger}
}

// CreateMealInput holds the fields of a new meal.
type CreateMealInput struct {
	RestaurantID    string
	Name            string
	Description     string
	Rating          int
	WouldOrderAgain bool
	Notes           string
	PhotoKeys       []string
	Tags            []string
	VisitedAt       *time.Time
}

// UpdateMealInput holds a partial update; nil fields are left alone.
type UpdateMealInput struct {
	RestaurantID    *string
	Name            *string
	Description     *string
	Rating          *int
	WouldOrderAgain *bool
	Notes           *string
	PhotoKeys       *[]string
	Tags            *[]string
	VisitedAt       *time.Time
}

// Create logs a meal at one of the user's restaurants and publishes
// meal.logged.
func (s *MealService) Create(ctx context.Context, userID string, input CreateMealInput) (*domain.Meal, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, apperrors.InvalidInput("name is required")
	}
	if input.RestaurantID == "" {
		return nil, apperrors.InvalidInput("restaurant_id is required")
	}
	if err := validateRating(input.Rating); err != nil {
		return nil, err
	}
	if err := validatePhotoKeys(userID, input.PhotoKeys); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	m := &domain.Meal{
		ID:              uuid.NewString(),
		UserID:          userID,
		RestaurantID:    input.RestaurantID,
		Name:            name,
		Description:     input.Description,
		Rating:          input.Rating,
		WouldOrderAgain: input.WouldOrderAgain,
		Notes:           input.Notes,
		PhotoKeys:       dedupe(input.PhotoKeys),
		Tags:            slug.Set(input.Tags),
		VisitedAt:       utcPtr(input.VisitedAt),
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	if err := s.repo.Create(ctx, m); err != nil {
		return nil, fmt.Errorf("create meal: %w", err)
	}

	if err := s.events.PublishMealLogged(ctx, m); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish meal.logged event",
			slog.String("meal_id", m.ID),
			slog.String("error", err.Error()),
		)
	}
	return m, nil
}

// Get returns one of the user's meals.
func (s *MealService) Get(ctx context.Context, userID, id string) (*domain.Meal, error) {
	return s.repo.GetByID(ctx, userID, id)
}

// List returns a filtered page of the user's meals.
func (s *MealService) List(ctx context.Context, userID string, filter domain.MealFilter, p pagination.Params) (pagination.Result[domain.Meal], error) {
	if filter.Tag != "" {
		filter.Tag = slug.Generate(filter.Tag)
	}

	ms, total, err := s.repo.List(ctx, userID, filter, p.Offset(), p.PerPage)
	if err != nil {
		return pagination.Result[domain.Meal]{}, fmt.Errorf("list meals: %w", err)
	}
	return pagination.NewResult(ms, total, p), nil
}

// Update applies a partial update to one of the user's meals.
func (s *MealService) Update(ctx context.Context, userID, id string, input UpdateMealInput) (*domain.Meal, error) {
	m, err := s.repo.GetByID(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	if input.RestaurantID != nil {
		if *input.RestaurantID == "" {
			return nil, apperrors.InvalidInput("restaurant_id must not be empty")
		}
		m.RestaurantID = *input.RestaurantID
	}
	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, apperrors.InvalidInput("name must not be empty")
		}
		m.Name = name
	}
	if input.Description != nil {
		m.Description = *input.Description
	}
	if input.Rating != nil {
		if err := validateRating(*input.Rating); err != nil {
			return nil, err
		}
		m.Rating = *input.Rating
	}
	if input.WouldOrderAgain != nil {
		m.WouldOrderAgain = *input.WouldOrderAgain
	}
	if input.Notes != nil {
		m.Notes = *input.Notes
	}
	if input.PhotoKeys != nil {
		if err := validatePhotoKeys(userID, *input.PhotoKeys); err != nil {
			return nil, err
		}
		m.PhotoKeys = dedupe(*input.PhotoKeys)
	}
	if input.Tags != nil {
		m.Tags = slug.Set(*input.Tags)
	}
	if input.VisitedAt != nil {
		m.VisitedAt = utcPtr(input.VisitedAt)
	}

	if err := s.repo.Update(ctx, m); err != nil {
		return nil, fmt.Errorf("update meal: %w", err)
	}
	return m, nil
}

// Delete removes one of the user's meals.
func (s *MealService) Delete(ctx context.Context, userID, id string) error {
	return s.repo.Delete(ctx, userID, id)
}

// validatePhotoKeys only admits keys under the user's own upload prefix.
func validatePhotoKeys(userID string, keys []string) error {
	prefix := photoPrefix(userID)
	for _, k := range keys {
		if !strings.HasPrefix(k, prefix) || strings.Contains(k, "..") {
			return apperrors.InvalidInput(fmt.Sprintf("photo key %q does not belong to this account", k))
		}
	}
	return nil
}

func dedupe(in []string) []string {
	out := make([]string, 0, len(in))
	seen := make(map[string]struct{}, len(in))
	for _, s := range in {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}
