package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	apperrors "github.com/shawnhank/nomnomlog-sub000/pkg/errors"
	"github.com/shawnhank/nomnomlog-sub000/pkg/httputil"
)

type contextKeyType string

const principalKey contextKeyType = "principal"

// TokenQueryParam is the query parameter consulted when no Authorization
// header is present.
const TokenQueryParam = "token"

// Principal is the authenticated identity attached to a request. Token holds
// the raw bearer token so the session can later be revoked.
type Principal struct {
	UserID    string
	Email     string
	FullName  string
	IsAdmin   bool
	Token     string
	ExpiresAt time.Time
}

// Resolver turns a raw token into a Principal. A nil Principal with a nil
// error means the token does not authenticate anyone.
type Resolver interface {
	Resolve(ctx context.Context, token string) (*Principal, error)
}

// ResolverFunc adapts a function to the Resolver interface.
type ResolverFunc func(ctx context.Context, token string) (*Principal, error)

// Resolve calls f.
func (f ResolverFunc) Resolve(ctx context.Context, token string) (*Principal, error) {
	return f(ctx, token)
}

// BearerToken extracts token material from the Authorization header, falling
// back to the token query parameter. A leading "Bearer " and surrounding
// quotes are stripped. It returns "" when nothing usable is present.
func BearerToken(r *http.Request) string {
	raw := r.Header.Get("Authorization")
	if strings.TrimSpace(raw) == "" {
		raw = r.URL.Query().Get(TokenQueryParam)
	}
	return cleanToken(raw)
}

// cleanToken accepts quotes around the whole value as well as around the
// token alone, so `"Bearer abc"` and `Bearer "abc"` both yield abc.
func cleanToken(raw string) string {
	t := strings.TrimSpace(strings.Trim(strings.TrimSpace(raw), `"'`))
	if strings.EqualFold(t, "bearer") {
		return ""
	}
	if len(t) >= 7 && strings.EqualFold(t[:7], "bearer ") {
		t = strings.TrimSpace(t[7:])
	}
	t = strings.Trim(t, `"'`)
	return strings.TrimSpace(t)
}

// Authenticate resolves the request's bearer token and, on success, attaches
// the Principal to the request context. It never rejects a request: missing,
// malformed, expired or revoked tokens and resolver failures all leave the
// request anonymous. Use RequireLogin and RequireAdmin to enforce access.
func Authenticate(resolver Resolver, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := BearerToken(r)
			if token == "" {
				next.ServeHTTP(w, r)
				return
			}

			p, err := resolver.Resolve(r.Context(), token)
			if err != nil {
				logger.WarnContext(r.Context(), "token resolution failed, continuing anonymous",
					slog.String("error", err.Error()),
					slog.String("path", r.URL.Path),
				)
				next.ServeHTTP(w, r)
				return
			}
			if p == nil {
				next.ServeHTTP(w, r)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), p)))
		})
	}
}

// RequireLogin rejects anonymous requests with 401.
func RequireLogin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if PrincipalFromContext(r.Context()) == nil {
			httputil.WriteError(w, r, apperrors.Unauthorized("authentication required"), nil)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireAdmin rejects anonymous requests with 401 and authenticated
// non-admins with 403.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p := PrincipalFromContext(r.Context())
		switch {
		case p == nil:
			httputil.WriteError(w, r, apperrors.Unauthorized("authentication required"), nil)
		case !p.IsAdmin:
			httputil.WriteError(w, r, apperrors.Forbidden("admin privileges required"), nil)
		default:
			next.ServeHTTP(w, r)
		}
	})
}

// WithPrincipal returns a context carrying p.
func WithPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, principalKey, p)
}

// PrincipalFromContext returns the authenticated Principal, or nil when the
// request is anonymous.
func PrincipalFromContext(ctx context.Context) *Principal {
	p, _ := ctx.Value(principalKey).(*Principal)
	return p
}

// UserIDFromContext returns the authenticated user's ID, or "".
func UserIDFromContext(ctx context.Context) string {
	if p := PrincipalFromContext(ctx); p != nil {
		return p.UserID
	}
	return ""
}
