package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/shawnhank/nomnomlog-sub000/internal/domain"
)

// TokenLifetime is the fixed validity window of every issued token.
const TokenLifetime = 24 * time.Hour

const issuer = "nomnomlog"

// ErrSigningKeyMissing is returned when no signing secret is configured.
// It is a startup failure, never a per-request one.
var ErrSigningKeyMissing = errors.New("auth: signing secret is not configured")

// Claims are the signed contents of a token. The user snapshot lives under
// the "user" claim; iat and exp come from RegisteredClaims.
type Claims struct {
	User domain.UserSnapshot `json:"user"`
	jwt.RegisteredClaims
}

// Issuer signs and verifies HS256 tokens with a server-held secret.
type Issuer struct {
	secret []byte
	now    func() time.Time
}

// NewIssuer returns an Issuer for secret, or ErrSigningKeyMissing when it is
// empty.
func NewIssuer(secret string) (*Issuer, error) {
	if secret == "" {
		return nil, ErrSigningKeyMissing
	}
	return &Issuer{secret: []byte(secret), now: time.Now}, nil
}

// Issue signs a token for a persisted user.
func (i *Issuer) Issue(u *domain.User) (string, error) {
	if u == nil || u.ID == "" {
		return "", errors.New("auth: cannot issue a token for an unsaved user")
	}

	now := i.now().UTC()
	claims := &Claims{
		User: u.Snapshot(),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   u.ID,
			Issuer:    issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(TokenLifetime)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Verify checks the signature and expiry of token and returns its claims.
func (i *Issuer) Verify(token string) (*Claims, error) {
	parsed, err := jwt.ParseWithClaims(token, &Claims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return i.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithIssuer(issuer),
		jwt.WithTimeFunc(i.now),
	)
	if err != nil {
		return nil, fmt.Errorf("parse token: %w", err)
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid || claims.User.ID == "" {
		return nil, errors.New("invalid token claims")
	}
	return claims, nil
}
