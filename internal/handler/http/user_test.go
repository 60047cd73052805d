package http

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shawnhank/nomnomlog-sub000/internal/domain"
	"github.com/shawnhank/nomnomlog-sub000/pkg/pagination"
)

func TestSignup_ReturnsWorkingToken(t *testing.T) {
	s := newTestServer(t)
	token := s.signup(t, "A@B.com", "secret1")
	require.NotEmpty(t, token)

	rec := s.do(t, http.MethodGet, "/api/users/me", token, nil)

	require.Equal(t, http.StatusOK, rec.Code)
	me := decode[dataBody[map[string]any]](t, rec).Data
	assert.Equal(t, "a@b.com", me["email"])
	assert.Equal(t, false, me["is_admin"])
	assert.NotContains(t, rec.Body.String(), "password")
	assert.Equal(t, "no-store", rec.Header().Get("Cache-Control"))
}

func TestSignup_DuplicateEmail(t *testing.T) {
	s := newTestServer(t)
	s.signup(t, "a@b.com", "secret1")

	rec := s.do(t, http.MethodPost, "/api/users/signup", "", map[string]string{"email": "A@b.com ", "password": "other-pass"})

	require.Equal(t, http.StatusBadRequest, rec.Code)
	body := decode[errorBody](t, rec)
	assert.Equal(t, "DUPLICATE_CREDENTIAL", body.Code)
	assert.Equal(t, "Duplicate Email", body.Message)
	assert.Len(t, s.store.users, 1)
}

func TestSignup_Validation(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodPost, "/api/users/signup", "", map[string]string{"email": "not-an-email", "password": "secret1"})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	body := decode[errorBody](t, rec)
	assert.Equal(t, "VALIDATION_ERROR", body.Code)
	assert.Contains(t, body.Fields, "email")

	rec = s.do(t, http.MethodPost, "/api/users/signup", "", map[string]string{"email": "a@b.com", "password": "abc"})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "INVALID_INPUT", decode[errorBody](t, rec).Code)
}

func TestSignup_TrimsEmail(t *testing.T) {
	s := newTestServer(t)
	token := s.signup(t, "  A@B.COM ", "secret1")

	me := decode[dataBody[map[string]any]](t, s.do(t, http.MethodGet, "/api/users/me", token, nil)).Data
	assert.Equal(t, "a@b.com", me["email"])

	rec := s.do(t, http.MethodPost, "/api/users/signup", "", map[string]string{"email": "a@b.com", "password": "secret1"})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	body := decode[errorBody](t, rec)
	assert.Equal(t, "DUPLICATE_CREDENTIAL", body.Code)
	assert.Equal(t, "Duplicate Email", body.Message)

	rec = s.do(t, http.MethodPost, "/api/users/login", "", map[string]string{"email": " a@b.com", "password": "secret1"})
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestSignup_RejectsNonJSON(t *testing.T) {
	s := newTestServer(t)
	req := httptest.NewRequest(http.MethodPost, "/api/users/signup", strings.NewReader("email=a@b.com"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()

	s.handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnsupportedMediaType, rec.Code)
}

func TestLogin(t *testing.T) {
	s := newTestServer(t)
	s.signup(t, "a@b.com", "secret1")

	rec := s.do(t, http.MethodPost, "/api/users/login", "", map[string]string{"email": "a@b.com", "password": "secret1"})
	require.Equal(t, http.StatusOK, rec.Code)
	token := decode[TokenResponse](t, rec).Token
	assert.Equal(t, http.StatusOK, s.do(t, http.MethodGet, "/api/users/me", token, nil).Code)
}

func TestLogin_BadCredentialsAreIndistinguishable(t *testing.T) {
	s := newTestServer(t)
	s.signup(t, "a@b.com", "secret1")

	cases := []any{
		map[string]string{"email": "a@b.com", "password": "wrong"},
		map[string]string{"email": "nobody@b.com", "password": "secret1"},
		map[string]string{},
		[]int{1, 2, 3},
	}
	for _, body := range cases {
		rec := s.do(t, http.MethodPost, "/api/users/login", "", body)
		require.Equal(t, http.StatusBadRequest, rec.Code)
		got := decode[errorBody](t, rec)
		assert.Equal(t, "INVALID_CREDENTIAL", got.Code)
		assert.Equal(t, "Bad Credentials", got.Message)
	}
}

func TestLogout_RevokesToken(t *testing.T) {
	s := newTestServer(t)
	t1 := s.signup(t, "a@b.com", "secret1")
	require.Equal(t, http.StatusOK, s.do(t, http.MethodGet, "/api/users/me", t1, nil).Code)

	rec := s.do(t, http.MethodPost, "/api/users/logout", t1, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Logged out", decode[map[string]string](t, rec)["message"])

	rec = s.do(t, http.MethodGet, "/api/users/me", t1, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, http.StatusUnauthorized, s.do(t, http.MethodPost, "/api/users/logout", t1, nil).Code)

	// Other sessions of the same user are unaffected.
	rec = s.do(t, http.MethodPost, "/api/users/login", "", map[string]string{"email": "a@b.com", "password": "secret1"})
	t2 := decode[TokenResponse](t, rec).Token
	assert.Equal(t, http.StatusOK, s.do(t, http.MethodGet, "/api/users/me", t2, nil).Code)
}

func TestLogout_RevokedTokenViaQueryParam(t *testing.T) {
	s := newTestServer(t)
	t1 := s.signup(t, "a@b.com", "secret1")
	require.Equal(t, http.StatusOK, s.do(t, http.MethodPost, "/api/users/logout", t1, nil).Code)

	rec := s.do(t, http.MethodGet, "/api/users/me?token="+t1, "", nil)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestLogout_LedgerEntryExpiresWithToken(t *testing.T) {
	s := newTestServer(t)
	t1 := s.signup(t, "a@b.com", "secret1")
	require.Equal(t, http.StatusOK, s.do(t, http.MethodPost, "/api/users/logout", t1, nil).Code)

	keys := s.redis.Keys()
	require.Len(t, keys, 1)
	assert.True(t, strings.HasPrefix(keys[0], "revoked_token:"))
	ttl := s.redis.TTL(keys[0])
	assert.Greater(t, ttl, 23*time.Hour)
	assert.LessOrEqual(t, ttl, 24*time.Hour)

	s.redis.FastForward(24 * time.Hour)
	assert.Empty(t, s.redis.Keys())
}

func TestLedgerOutage_ResolvesAnonymous(t *testing.T) {
	s := newTestServer(t)
	t1 := s.signup(t, "a@b.com", "secret1")
	s.redis.SetError("LOADING redis is loading")

	assert.Equal(t, http.StatusUnauthorized, s.do(t, http.MethodGet, "/api/users/me", t1, nil).Code)
}

func TestAnonymous_GetsUnauthorized(t *testing.T) {
	s := newTestServer(t)
	for _, tok := range []string{"", "garbage", "Bearer", `"still.not.valid"`} {
		rec := s.do(t, http.MethodGet, "/api/users/me", tok, nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code, tok)
		assert.Equal(t, "UNAUTHORIZED", decode[errorBody](t, rec).Code)
	}
}

func TestChangePassword_WrongCurrentPassword(t *testing.T) {
	s := newTestServer(t)
	token := s.signup(t, "a@b.com", "secret1")

	rec := s.do(t, http.MethodPut, "/api/users/password", token, map[string]string{
		"current_password": "nope", "new_password": "secret2",
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "current password is incorrect", decode[errorBody](t, rec).Message)

	rec = s.do(t, http.MethodPost, "/api/users/login", "", map[string]string{"email": "a@b.com", "password": "secret1"})
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestChangePassword_DoesNotRevokeEarlierTokens(t *testing.T) {
	s := newTestServer(t)
	token := s.signup(t, "a@b.com", "secret1")

	rec := s.do(t, http.MethodPut, "/api/users/password", token, map[string]string{
		"current_password": "secret1", "new_password": "secret2",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Password updated", decode[map[string]string](t, rec)["message"])

	assert.Equal(t, http.StatusOK, s.do(t, http.MethodGet, "/api/users/me", token, nil).Code)
	assert.Equal(t, http.StatusBadRequest, s.do(t, http.MethodPost, "/api/users/login", "",
		map[string]string{"email": "a@b.com", "password": "secret1"}).Code)
	assert.Equal(t, http.StatusOK, s.do(t, http.MethodPost, "/api/users/login", "",
		map[string]string{"email": "a@b.com", "password": "secret2"}).Code)
}

func TestUpdateProfile_ReturnsTokenWithNewSnapshot(t *testing.T) {
	s := newTestServer(t)
	token := s.signup(t, "a@b.com", "secret1")

	rec := s.do(t, http.MethodPut, "/api/users/profile", token, map[string]string{"full_name": "Ada Lovelace"})
	require.Equal(t, http.StatusOK, rec.Code)
	newToken := decode[TokenResponse](t, rec).Token
	require.NotEmpty(t, newToken)

	rec = s.do(t, http.MethodGet, "/api/users/me", newToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Ada Lovelace", decode[dataBody[map[string]any]](t, rec).Data["full_name"])

	// The old token still works until it expires.
	assert.Equal(t, http.StatusOK, s.do(t, http.MethodGet, "/api/users/me", token, nil).Code)
}

func TestUpdateProfile_EmailTaken(t *testing.T) {
	s := newTestServer(t)
	s.signup(t, "taken@b.com", "secret1")
	token := s.signup(t, "a@b.com", "secret1")

	rec := s.do(t, http.MethodPut, "/api/users/profile", token, map[string]string{"email": "taken@b.com"})

	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "DUPLICATE_CREDENTIAL", decode[errorBody](t, rec).Code)
}

func TestUpdateProfile_TrimsEmail(t *testing.T) {
	s := newTestServer(t)
	token := s.signup(t, "a@b.com", "secret1")

	rec := s.do(t, http.MethodPut, "/api/users/profile", token, map[string]string{"email": " New@B.com  "})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	next := decode[TokenResponse](t, rec).Token
	me := decode[dataBody[map[string]any]](t, s.do(t, http.MethodGet, "/api/users/me", next, nil)).Data
	assert.Equal(t, "new@b.com", me["email"])
}

func TestQuotedAuthorizationHeader(t *testing.T) {
	s := newTestServer(t)
	token := s.signup(t, "a@b.com", "secret1")

	for _, header := range []string{`"Bearer ` + token + `"`, `Bearer "` + token + `"`, `'` + token + `'`} {
		req := httptest.NewRequest(http.MethodGet, "/api/users/me", nil)
		req.Header.Set("Authorization", header)
		rec := httptest.NewRecorder()
		s.handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code, header)
	}
}

func TestAdminUsers(t *testing.T) {
	s := newTestServer(t)
	userToken := s.signup(t, "a@b.com", "secret1")

	created, err := s.users.EnsureAdmin(context.Background(), "admin@b.com", "adminpass", "Admin")
	require.NoError(t, err)
	require.True(t, created)
	rec := s.do(t, http.MethodPost, "/api/users/login", "", map[string]string{"email": "admin@b.com", "password": "adminpass"})
	adminToken := decode[TokenResponse](t, rec).Token

	assert.Equal(t, http.StatusUnauthorized, s.do(t, http.MethodGet, "/api/admin/users", "", nil).Code)
	assert.Equal(t, http.StatusForbidden, s.do(t, http.MethodGet, "/api/admin/users", userToken, nil).Code)

	rec = s.do(t, http.MethodGet, "/api/admin/users?per_page=1", adminToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	res := decode[pagination.Result[domain.User]](t, rec)
	assert.Equal(t, 2, res.TotalCount)
	assert.Len(t, res.Data, 1)
	assert.True(t, res.HasNext)
	assert.NotContains(t, rec.Body.String(), "$2a$")
}

func TestLoginRateLimit(t *testing.T) {
	s := newLimitedTestServer(t, 0.001, 2)
	body := map[string]string{"email": "a@b.com", "password": "wrong"}

	assert.Equal(t, http.StatusBadRequest, s.do(t, http.MethodPost, "/api/users/login", "", body).Code)
	assert.Equal(t, http.StatusBadRequest, s.do(t, http.MethodPost, "/api/users/login", "", body).Code)

	rec := s.do(t, http.MethodPost, "/api/users/login", "", body)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "RATE_LIMITED", decode[errorBody](t, rec).Code)

	// Authenticated routes are not limited.
	assert.Equal(t, http.StatusUnauthorized, s.do(t, http.MethodGet, "/api/users/me", "", nil).Code)
}
