package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/shawnhank/nomnomlog-sub000/internal/domain"
	apperrors "github.com/shawnhank/nomnomlog-sub000/pkg/errors"
	"github.com/shawnhank/nomnomlog-sub000/pkg/logger"
	"github.com/shawnhank/nomnomlog-sub000/pkg/pagination"
)

func TestMealCreate_PublishesMealLogged(t *testing.T) {
	repo := new(mockMealRepository)
	events := &recordingEvents{}
	svc := NewMealService(repo, events, logger.Discard())
	repo.On("Create", mock.Anything, mock.Anything).Return(nil)

	visited := time.Date(2026, 3, 1, 19, 0, 0, 0, time.FixedZone("PST", -8*3600))
	photo := "users/" + testOwner + "/2026/03/abc"
	m, err := svc.Create(context.Background(), testOwner, CreateMealInput{
		RestaurantID: "r-1",
		Name:         "Bun bo hue",
		Rating:       5,
		PhotoKeys:    []string{photo, photo},
		Tags:         []string{"Spicy"},
		VisitedAt:    &visited,
	})

	require.NoError(t, err)
	assert.Equal(t, []string{photo}, m.PhotoKeys)
	assert.Equal(t, []string{"spicy"}, m.Tags)
	require.NotNil(t, m.VisitedAt)
	assert.Equal(t, time.UTC, m.VisitedAt.Location())
	assert.True(t, m.VisitedAt.Equal(visited))
	assert.Equal(t, []string{m.ID}, events.meals)
}

func TestMealCreate_EventFailureIsLoggedOnly(t *testing.T) {
	repo := new(mockMealRepository)
	events := &recordingEvents{err: errors.New("broker down")}
	repo.On("Create", mock.Anything, mock.Anything).Return(nil)

	_, err := NewMealService(repo, events, logger.Discard()).Create(context.Background(), testOwner,
		CreateMealInput{RestaurantID: "r-1", Name: "Toast"})

	require.NoError(t, err)
}

func TestMealCreate_ForeignRestaurant(t *testing.T) {
	repo := new(mockMealRepository)
	events := &recordingEvents{}
	repo.On("Create", mock.Anything, mock.Anything).Return(apperrors.NotFound("restaurant", "r-9"))

	_, err := NewMealService(repo, events, logger.Discard()).Create(context.Background(), testOwner,
		CreateMealInput{RestaurantID: "r-9", Name: "Toast"})

	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	assert.Empty(t, events.meals)
}

func TestMealCreate_Validation(t *testing.T) {
	tests := []struct {
		name  string
		input CreateMealInput
	}{
		{"missing name", CreateMealInput{RestaurantID: "r-1"}},
		{"missing restaurant", CreateMealInput{Name: "Toast"}},
		{"bad rating", CreateMealInput{RestaurantID: "r-1", Name: "Toast", Rating: 9}},
		{"foreign photo", CreateMealInput{RestaurantID: "r-1", Name: "Toast", PhotoKeys: []string{"users/" + testOther + "/2026/01/x"}}},
		{"traversal photo", CreateMealInput{RestaurantID: "r-1", Name: "Toast", PhotoKeys: []string{"users/" + testOwner + "/../" + testOther + "/x"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(mockMealRepository)
			_, err := NewMealService(repo, &recordingEvents{}, logger.Discard()).Create(context.Background(), testOwner, tt.input)
			assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
			repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
		})
	}
}

func TestMealList_SlugsTagFilter(t *testing.T) {
	repo := new(mockMealRepository)
	repo.On("List", mock.Anything, testOwner, domain.MealFilter{RestaurantID: "r-1", Tag: "date-night"}, 20, 20).
		Return([]domain.Meal(nil), 20, nil)

	res, err := NewMealService(repo, &recordingEvents{}, logger.Discard()).List(context.Background(), testOwner,
		domain.MealFilter{RestaurantID: "r-1", Tag: "Date Night"}, pagination.Params{Page: 2, PerPage: 20})

	require.NoError(t, err)
	assert.NotNil(t, res.Data)
	assert.Empty(t, res.Data)
	assert.Equal(t, 1, res.TotalPages)
}

func TestMealUpdate_Partial(t *testing.T) {
	repo := new(mockMealRepository)
	existing := &domain.Meal{ID: "m-1", UserID: testOwner, RestaurantID: "r-1", Name: "Toast", Rating: 3}
	repo.On("GetByID", mock.Anything, testOwner, "m-1").Return(existing, nil)
	repo.On("Update", mock.Anything, mock.Anything).Return(nil)

	m, err := NewMealService(repo, &recordingEvents{}, logger.Discard()).Update(context.Background(), testOwner, "m-1",
		UpdateMealInput{WouldOrderAgain: ptr(true), Notes: ptr("extra butter")})

	require.NoError(t, err)
	assert.Equal(t, "Toast", m.Name)
	assert.Equal(t, 3, m.Rating)
	assert.True(t, m.WouldOrderAgain)
	assert.Equal(t, "extra butter", m.Notes)
}

func TestMealUpdate_MoveToForeignRestaurant(t *testing.T) {
	repo := new(mockMealRepository)
	repo.On("GetByID", mock.Anything, testOwner, "m-1").Return(&domain.Meal{ID: "m-1", Name: "Toast"}, nil)
	repo.On("Update", mock.Anything, mock.Anything).Return(apperrors.NotFound("restaurant", "r-9"))

	_, err := NewMealService(repo, &recordingEvents{}, logger.Discard()).Update(context.Background(), testOwner, "m-1",
		UpdateMealInput{RestaurantID: ptr("r-9")})

	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestMealDelete_NotOwned(t *testing.T) {
	repo := new(mockMealRepository)
	repo.On("Delete", mock.Anything, testOther, "m-1").Return(apperrors.NotFound("meal", "m-1"))

	err := NewMealService(repo, &recordingEvents{}, logger.Discard()).Delete(context.Background(), testOther, "m-1")

	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}
