package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/shawnhank/nomnomlog-sub000/internal/domain"
	apperrors "github.com/shawnhank/nomnomlog-sub000/pkg/errors"
	"github.com/shawnhank/nomnomlog-sub000/pkg/pagination"
)

const (
	testOwner = "11111111-1111-1111-1111-111111111111"
	testOther = "22222222-2222-2222-2222-222222222222"
)

func ptr[T any](v T) *T { return &v }

func TestRestaurantCreate_NormalizesTags(t *testing.T) {
	repo := new(mockRestaurantRepository)
	svc := NewRestaurantService(repo)
	repo.On("Create", mock.Anything, mock.Anything).Return(nil)

	r, err := svc.Create(context.Background(), testOwner, CreateRestaurantInput{
		Name:   "  Pho 79 ",
		Rating: 4,
		Tags:   []string{"Vietnamese", "  noodle soup", "vietnamese", ""},
	})

	require.NoError(t, err)
	assert.Equal(t, "Pho 79", r.Name)
	assert.Equal(t, testOwner, r.UserID)
	assert.Equal(t, []string{"noodle-soup", "vietnamese"}, r.Tags)
	assert.NotEmpty(t, r.ID)
}

func TestRestaurantCreate_Validation(t *testing.T) {
	tests := []struct {
		name  string
		input CreateRestaurantInput
	}{
		{"missing name", CreateRestaurantInput{Name: "   "}},
		{"rating too high", CreateRestaurantInput{Name: "x", Rating: 6}},
		{"negative rating", CreateRestaurantInput{Name: "x", Rating: -1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(mockRestaurantRepository)
			_, err := NewRestaurantService(repo).Create(context.Background(), testOwner, tt.input)
			assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
			repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
		})
	}
}

func TestRestaurantGet_OtherUsersRowIsNotFound(t *testing.T) {
	repo := new(mockRestaurantRepository)
	repo.On("GetByID", mock.Anything, testOther, "r-1").Return(nil, apperrors.NotFound("restaurant", "r-1"))

	_, err := NewRestaurantService(repo).Get(context.Background(), testOther, "r-1")

	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	assert.Equal(t, 404, apperrors.HTTPStatus(err))
}

func TestRestaurantList_SlugsTagFilter(t *testing.T) {
	repo := new(mockRestaurantRepository)
	want := domain.RestaurantFilter{Query: "pho", Tag: "noodle-soup", FavoriteOnly: true}
	repo.On("List", mock.Anything, testOwner, want, 0, 20).
		Return([]domain.Restaurant{{ID: "r-1"}}, 1, nil)

	res, err := NewRestaurantService(repo).List(context.Background(), testOwner,
		domain.RestaurantFilter{Query: " pho ", Tag: "Noodle Soup", FavoriteOnly: true},
		pagination.Params{Page: 1, PerPage: 20})

	require.NoError(t, err)
	assert.Len(t, res.Data, 1)
	assert.Equal(t, 1, res.TotalCount)
	repo.AssertExpectations(t)
}

func TestRestaurantUpdate_Partial(t *testing.T) {
	repo := new(mockRestaurantRepository)
	existing := &domain.Restaurant{ID: "r-1", UserID: testOwner, Name: "Old", Address: "1 Main St", Rating: 2}
	repo.On("GetByID", mock.Anything, testOwner, "r-1").Return(existing, nil)
	repo.On("Update", mock.Anything, mock.Anything).Return(nil)

	r, err := NewRestaurantService(repo).Update(context.Background(), testOwner, "r-1", UpdateRestaurantInput{
		Rating:     ptr(5),
		IsFavorite: ptr(true),
		Tags:       ptr([]string{"Date Night"}),
	})

	require.NoError(t, err)
	assert.Equal(t, "Old", r.Name)
	assert.Equal(t, "1 Main St", r.Address)
	assert.Equal(t, 5, r.Rating)
	assert.True(t, r.IsFavorite)
	assert.Equal(t, []string{"date-night"}, r.Tags)
}

func TestRestaurantUpdate_RejectsEmptyName(t *testing.T) {
	repo := new(mockRestaurantRepository)
	repo.On("GetByID", mock.Anything, testOwner, "r-1").Return(&domain.Restaurant{ID: "r-1", Name: "Old"}, nil)

	_, err := NewRestaurantService(repo).Update(context.Background(), testOwner, "r-1", UpdateRestaurantInput{Name: ptr(" ")})

	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
	repo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
}

func TestRestaurantDelete(t *testing.T) {
	repo := new(mockRestaurantRepository)
	repo.On("Delete", mock.Anything, testOwner, "r-1").Return(nil)
	repo.On("Delete", mock.Anything, testOther, "r-1").Return(apperrors.NotFound("restaurant", "r-1"))
	svc := NewRestaurantService(repo)

	require.NoError(t, svc.Delete(context.Background(), testOwner, "r-1"))
	assert.ErrorIs(t, svc.Delete(context.Background(), testOther, "r-1"), apperrors.ErrNotFound)
}
