package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"slices"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/shawnhank/nomnomlog-sub000/internal/auth"
	"github.com/shawnhank/nomnomlog-sub000/internal/domain"
	"github.com/shawnhank/nomnomlog-sub000/internal/event"
	redisrepo "github.com/shawnhank/nomnomlog-sub000/internal/repository/redis"
	"github.com/shawnhank/nomnomlog-sub000/internal/service"
	apperrors "github.com/shawnhank/nomnomlog-sub000/pkg/errors"
	"github.com/shawnhank/nomnomlog-sub000/pkg/health"
	"github.com/shawnhank/nomnomlog-sub000/pkg/logger"
	"github.com/shawnhank/nomnomlog-sub000/pkg/middleware"
)

// memStore is an in-memory stand-in for the Postgres repositories. It
// enforces the same uniqueness and ownership rules.
type memStore struct {
	mu          sync.Mutex
	users       map[string]domain.User
	restaurants map[string]domain.Restaurant
	meals       map[string]domain.Meal
}

func newMemStore() *memStore {
	return &memStore{
		users:       map[string]domain.User{},
		restaurants: map[string]domain.Restaurant{},
		meals:       map[string]domain.Meal{},
	}
}

type memUsers struct{ *memStore }

func (s memUsers) Create(_ context.Context, u *domain.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.users {
		if existing.Email == u.Email {
			return apperrors.AlreadyExists("user", "email", u.Email)
		}
	}
	s.users[u.ID] = *u
	return nil
}

func (s memUsers) GetByID(_ context.Context, id string) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return &u, nil
}

func (s memUsers) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, apperrors.ErrNotFound
}

func (s memUsers) Update(_ context.Context, u *domain.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, existing := range s.users {
		if id != u.ID && existing.Email == u.Email {
			return apperrors.AlreadyExists("user", "email", u.Email)
		}
	}
	s.users[u.ID] = *u
	return nil
}

func (s memUsers) List(_ context.Context, offset, limit int) ([]domain.User, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	all := make([]domain.User, 0, len(s.users))
	for _, u := range s.users {
		all = append(all, u)
	}
	slices.SortFunc(all, func(a, b domain.User) int { return strings.Compare(a.Email, b.Email) })
	return page(all, offset, limit), len(all), nil
}

type memRestaurants struct{ *memStore }

func (s memRestaurants) Create(_ context.Context, r *domain.Restaurant) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.restaurants[r.ID] = *r
	return nil
}

func (s memRestaurants) GetByID(_ context.Context, userID, id string) (*domain.Restaurant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.restaurants[id]
	if !ok || r.UserID != userID {
		return nil, apperrors.NotFound("restaurant", id)
	}
	return &r, nil
}

func (s memRestaurants) List(_ context.Context, userID string, f domain.RestaurantFilter, offset, limit int) ([]domain.Restaurant, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.Restaurant
	for _, r := range s.restaurants {
		if r.UserID != userID {
			continue
		}
		if f.Query != "" && !strings.Contains(strings.ToLower(r.Name), strings.ToLower(f.Query)) {
			continue
		}
		if f.Tag != "" && !slices.Contains(r.Tags, f.Tag) {
			continue
		}
		if f.FavoriteOnly && !r.IsFavorite {
			continue
		}
		out = append(out, r)
	}
	slices.SortFunc(out, func(a, b domain.Restaurant) int { return strings.Compare(a.Name, b.Name) })
	return page(out, offset, limit), len(out), nil
}

func (s memRestaurants) Update(_ context.Context, r *domain.Restaurant) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.restaurants[r.ID] = *r
	return nil
}

func (s memRestaurants) Delete(_ context.Context, userID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.restaurants[id]
	if !ok || r.UserID != userID {
		return apperrors.NotFound("restaurant", id)
	}
	delete(s.restaurants, id)
	for mid, m := range s.meals {
		if m.RestaurantID == id {
			delete(s.meals, mid)
		}
	}
	return nil
}

type memMeals struct{ *memStore }

func (s memMeals) ownsRestaurant(userID, id string) bool {
	r, ok := s.restaurants[id]
	return ok && r.UserID == userID
}

func (s memMeals) Create(_ context.Context, m *domain.Meal) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.ownsRestaurant(m.UserID, m.RestaurantID) {
		return apperrors.NotFound("restaurant", m.RestaurantID)
	}
	s.meals[m.ID] = *m
	return nil
}

func (s memMeals) GetByID(_ context.Context, userID, id string) (*domain.Meal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.meals[id]
	if !ok || m.UserID != userID {
		return nil, apperrors.NotFound("meal", id)
	}
	return &m, nil
}

func (s memMeals) List(_ context.Context, userID string, f domain.MealFilter, offset, limit int) ([]domain.Meal, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.Meal
	for _, m := range s.meals {
		if m.UserID != userID || (f.RestaurantID != "" && m.RestaurantID != f.RestaurantID) {
			continue
		}
		if f.Tag != "" && !slices.Contains(m.Tags, f.Tag) {
			continue
		}
		out = append(out, m)
	}
	return page(out, offset, limit), len(out), nil
}

func (s memMeals) Update(_ context.Context, m *domain.Meal) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.ownsRestaurant(m.UserID, m.RestaurantID) {
		return apperrors.NotFound("restaurant", m.RestaurantID)
	}
	s.meals[m.ID] = *m
	return nil
}

func (s memMeals) Delete(_ context.Context, userID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.meals[id]
	if !ok || m.UserID != userID {
		return apperrors.NotFound("meal", id)
	}
	delete(s.meals, id)
	return nil
}

type memTags struct{ *memStore }

func (s memTags) ListByUser(_ context.Context, userID string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var tags []string
	for _, r := range s.restaurants {
		if r.UserID == userID {
			tags = append(tags, r.Tags...)
		}
	}
	for _, m := range s.meals {
		if m.UserID == userID {
			tags = append(tags, m.Tags...)
		}
	}
	slices.Sort(tags)
	return slices.Compact(tags), nil
}

func page[T any](all []T, offset, limit int) []T {
	if offset >= len(all) {
		return nil
	}
	return all[offset:min(offset+limit, len(all))]
}

type fakeStore struct{}

func (fakeStore) PresignPut(_ context.Context, key, _ string, _ time.Duration) (string, error) {
	return "https://bucket.example/" + key + "?X-Amz-Signature=put", nil
}

func (fakeStore) PresignGet(_ context.Context, key string, _ time.Duration) (string, error) {
	return "https://bucket.example/" + key + "?X-Amz-Signature=get", nil
}

type fakeDirectory struct{}

func (fakeDirectory) Search(_ context.Context, q domain.BusinessQuery) (*domain.BusinessSearch, error) {
	return &domain.BusinessSearch{
		Businesses: []domain.Business{{ID: "pho-79", Name: "Pho 79", Address: q.Location}},
		Total:      1,
	}, nil
}

func (fakeDirectory) Get(_ context.Context, id string) (*domain.Business, error) {
	if id != "pho-79" {
		return nil, apperrors.NotFound("business", id)
	}
	return &domain.Business{ID: id, Name: "Pho 79"}, nil
}

type testServer struct {
	handler http.Handler
	redis   *miniredis.Miniredis
	store   *memStore
	users   *service.UserService
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	return newLimitedTestServer(t, 1000, 1000)
}

func newLimitedTestServer(t *testing.T, loginRPS float64, loginBurst int) *testServer {
	t.Helper()

	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	log := logger.Discard()
	issuer, err := auth.NewIssuer("handler-test-secret-0123456789abcdef")
	require.NoError(t, err)
	ledger := redisrepo.NewRevocationLedger(client)
	events := event.NewProducer(nil, log)
	store := newMemStore()

	users := service.NewUserService(memUsers{store}, ledger, issuer, events, log).WithPasswordCost(bcrypt.MinCost)
	limiter := middleware.NewRateLimiter(loginRPS, loginBurst, log)
	t.Cleanup(limiter.Stop)

	h := NewRouter(RouterConfig{
		Users:        users,
		Restaurants:  service.NewRestaurantService(memRestaurants{store}),
		Meals:        service.NewMealService(memMeals{store}, events, log),
		Tags:         service.NewTagService(memTags{store}),
		Photos:       service.NewPhotoService(fakeStore{}),
		Search:       service.NewSearchService(fakeDirectory{}),
		Resolver:     auth.NewGate(issuer, ledger, log),
		Health:       health.NewHandler(),
		CORS:         middleware.DefaultCORSConfig(),
		LoginLimiter: limiter,
		PprofCIDRs:   []string{"127.0.0.1/32"},
		Logger:       log,
	})

	return &testServer{handler: h, redis: mr, store: store, users: users}
}

func (s *testServer) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

func (s *testServer) signup(t *testing.T, email, password string) string {
	t.Helper()
	rec := s.do(t, http.MethodPost, "/api/users/signup", "", map[string]string{
		"email": email, "password": password, "full_name": "Test User",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	return decode[TokenResponse](t, rec).Token
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

type errorBody struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields"`
}

type dataBody[T any] struct {
	Data T `json:"data"`
}
