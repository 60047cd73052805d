package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/shawnhank/nomnomlog-sub000/internal/domain"
	"github.com/shawnhank/nomnomlog-sub000/internal/repository"
	apperrors "github.com/shawnhank/nomnomlog-sub000/pkg/errors"
	"github.com/shawnhank/nomnomlog-sub000/pkg/pagination"
	"github.com/shawnhank/nomnomlog-sub000/pkg/slug"
)

// RestaurantService manages the restaurants in a user's journal.
type RestaurantService struct {
	repo repository.RestaurantRepository
}

// NewRestaurantService creates a new restaurant service.
func NewRestaurantService(repo repository.RestaurantRepository) *RestaurantService {
	return &RestaurantService{repo: repo}
}

// CreateRestaurantInput holds the fields of a new restaurant.
type CreateRestaurantInput struct {
	Name       string
	Address    string
	Phone      string
	Website    string
	Rating     int
	Notes      string
	IsFavorite bool
	ExternalID string
	Tags       []string
}

// UpdateRestaurantInput holds a partial update; nil fields are left alone.
type UpdateRestaurantInput struct {
	Name       *string
	Address    *string
	Phone      *string
	Website    *string
	Rating     *int
	Notes      *string
	IsFavorite *bool
	ExternalID *string
	Tags       *[]string
}

// Create adds a restaurant owned by userID.
func (s *RestaurantService) Create(ctx context.Context, userID string, input CreateRestaurantInput) (*domain.Restaurant, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, apperrors.InvalidInput("name is required")
	}
	if err := validateRating(input.Rating); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	r := &domain.Restaurant{
		ID:         uuid.NewString(),
		UserID:     userID,
		Name:       name,
		Address:    strings.TrimSpace(input.Address),
		Phone:      strings.TrimSpace(input.Phone),
		Website:    strings.TrimSpace(input.Website),
		Rating:     input.Rating,
		Notes:      input.Notes,
		IsFavorite: input.IsFavorite,
		ExternalID: strings.TrimSpace(input.ExternalID),
		Tags:       slug.Set(input.Tags),
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if err := s.repo.Create(ctx, r); err != nil {
		return nil, fmt.Errorf("create restaurant: %w", err)
	}
	return r, nil
}

// Get returns one of the user's restaurants.
func (s *RestaurantService) Get(ctx context.Context, userID, id string) (*domain.Restaurant, error) {
	return s.repo.GetByID(ctx, userID, id)
}

// List returns a filtered page of the user's restaurants.
func (s *RestaurantService) List(ctx context.Context, userID string, filter domain.RestaurantFilter, p pagination.Params) (pagination.Result[domain.Restaurant], error) {
	filter.Query = strings.TrimSpace(filter.Query)
	if filter.Tag != "" {
		filter.Tag = slug.Generate(filter.Tag)
	}

	rs, total, err := s.repo.List(ctx, userID, filter, p.Offset(), p.PerPage)
	if err != nil {
		return pagination.Result[domain.Restaurant]{}, fmt.Errorf("list restaurants: %w", err)
	}
	return pagination.NewResult(rs, total, p), nil
}

// Update applies a partial update to one of the user's restaurants.
func (s *RestaurantService) Update(ctx context.Context, userID, id string, input UpdateRestaurantInput) (*domain.Restaurant, error) {
	r, err := s.repo.GetByID(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, apperrors.InvalidInput("name must not be empty")
		}
		r.Name = name
	}
	if input.Address != nil {
		r.Address = strings.TrimSpace(*input.Address)
	}
	if input.Phone != nil {
		r.Phone = strings.TrimSpace(*input.Phone)
	}
	if input.Website != nil {
		r.Website = strings.TrimSpace(*input.Website)
	}
	if input.Rating != nil {
		if err := validateRating(*input.Rating); err != nil {
			return nil, err
		}
		r.Rating = *input.Rating
	}
	if input.Notes != nil {
		r.Notes = *input.Notes
	}
	if input.IsFavorite != nil {
		r.IsFavorite = *input.IsFavorite
	}
	if input.ExternalID != nil {
		r.ExternalID = strings.TrimSpace(*input.ExternalID)
	}
	if input.Tags != nil {
		r.Tags = slug.Set(*input.Tags)
	}

	if err := s.repo.Update(ctx, r); err != nil {
		return nil, fmt.Errorf("update restaurant: %w", err)
	}
	return r, nil
}

// Delete removes one of the user's restaurants and its meals.
func (s *RestaurantService) Delete(ctx context.Context, userID, id string) error {
	return s.repo.Delete(ctx, userID, id)
}

func validateRating(rating int) error {
	if rating < 0 || rating > domain.MaxRating {
		return apperrors.InvalidInput(fmt.Sprintf("rating must be between 0 and %d", domain.MaxRating))
	}
	return nil
}
