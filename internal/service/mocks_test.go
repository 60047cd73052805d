package service

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/shawnhank/nomnomlog-sub000/internal/domain"
)

type mockUserRepository struct {
	mock.Mock
}

func (m *mockUserRepository) Create(ctx context.Context, user *domain.User) error {
	return m.Called(ctx, user).Error(0)
}

func (m *mockUserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *mockUserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *mockUserRepository) Update(ctx context.Context, user *domain.User) error {
	return m.Called(ctx, user).Error(0)
}

func (m *mockUserRepository) List(ctx context.Context, offset, limit int) ([]domain.User, int, error) {
	args := m.Called(ctx, offset, limit)
	return args.Get(0).([]domain.User), args.Int(1), args.Error(2)
}

type mockLedger struct {
	mock.Mock
}

func (m *mockLedger) Revoke(ctx context.Context, t *domain.RevokedToken) error {
	return m.Called(ctx, t).Error(0)
}

func (m *mockLedger) IsRevoked(ctx context.Context, token string) (bool, error) {
	args := m.Called(ctx, token)
	return args.Bool(0), args.Error(1)
}

// recordingEvents records published events and never fails unless err is set.
type recordingEvents struct {
	registered []string
	updated    []string
	loggedOut  []string
	meals      []string
	err        error
}

func (e *recordingEvents) PublishUserRegistered(_ context.Context, u *domain.User) error {
	e.registered = append(e.registered, u.ID)
	return e.err
}

func (e *recordingEvents) PublishUserUpdated(_ context.Context, u *domain.User) error {
	e.updated = append(e.updated, u.ID)
	return e.err
}

func (e *recordingEvents) PublishUserLoggedOut(_ context.Context, userID string) error {
	e.loggedOut = append(e.loggedOut, userID)
	return e.err
}

func (e *recordingEvents) PublishMealLogged(_ context.Context, m *domain.Meal) error {
	e.meals = append(e.meals, m.ID)
	return e.err
}

type mockRestaurantRepository struct {
	mock.Mock
}

func (m *mockRestaurantRepository) Create(ctx context.Context, r *domain.Restaurant) error {
	return m.Called(ctx, r).Error(0)
}

func (m *mockRestaurantRepository) GetByID(ctx context.Context, userID, id string) (*domain.Restaurant, error) {
	args := m.Called(ctx, userID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Restaurant), args.Error(1)
}

func (m *mockRestaurantRepository) List(ctx context.Context, userID string, f domain.RestaurantFilter, offset, limit int) ([]domain.Restaurant, int, error) {
	args := m.Called(ctx, userID, f, offset, limit)
	return args.Get(0).([]domain.Restaurant), args.Int(1), args.Error(2)
}

func (m *mockRestaurantRepository) Update(ctx context.Context, r *domain.Restaurant) error {
	return m.Called(ctx, r).Error(0)
}

func (m *mockRestaurantRepository) Delete(ctx context.Context, userID, id string) error {
	return m.Called(ctx, userID, id).Error(0)
}

type mockMealRepository struct {
	mock.Mock
}

func (m *mockMealRepository) Create(ctx context.Context, meal *domain.Meal) error {
	return m.Called(ctx, meal).Error(0)
}

func (m *mockMealRepository) GetByID(ctx context.Context, userID, id string) (*domain.Meal, error) {
	args := m.Called(ctx, userID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Meal), args.Error(1)
}

func (m *mockMealRepository) List(ctx context.Context, userID string, f domain.MealFilter, offset, limit int) ([]domain.Meal, int, error) {
	args := m.Called(ctx, userID, f, offset, limit)
	return args.Get(0).([]domain.Meal), args.Int(1), args.Error(2)
}

func (m *mockMealRepository) Update(ctx context.Context, meal *domain.Meal) error {
	return m.Called(ctx, meal).Error(0)
}

func (m *mockMealRepository) Delete(ctx context.Context, userID, id string) error {
	return m.Called(ctx, userID, id).Error(0)
}

type mockObjectStore struct {
	mock.Mock
}

func (m *mockObjectStore) PresignPut(ctx context.Context, key, contentType string, ttl time.Duration) (string, error) {
	args := m.Called(ctx, key, contentType, ttl)
	return args.String(0), args.Error(1)
}

func (m *mockObjectStore) PresignGet(ctx context.Context, key string, ttl time.Duration) (string, error) {
	args := m.Called(ctx, key, ttl)
	return args.String(0), args.Error(1)
}

type mockDirectory struct {
	mock.Mock
}

func (m *mockDirectory) Search(ctx context.Context, q domain.BusinessQuery) (*domain.BusinessSearch, error) {
	args := m.Called(ctx, q)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.BusinessSearch), args.Error(1)
}

func (m *mockDirectory) Get(ctx context.Context, id string) (*domain.Business, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Business), args.Error(1)
}

type stubTags struct {
	tags []string
	err  error
}

func (s stubTags) ListByUser(context.Context, string) ([]string, error) {
	return s.tags, s.err
}
