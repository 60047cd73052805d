package auth

import (
	"context"
	"log/slog"

	"github.com/shawnhank/nomnomlog-sub000/pkg/middleware"
)

// RevocationChecker reports whether a raw token has been revoked.
type RevocationChecker interface {
	IsRevoked(ctx context.Context, token string) (bool, error)
}

// Gate resolves bearer tokens into principals for middleware.Authenticate.
// Every failure resolves anonymous: revoked, malformed, expired and
// unverifiable tokens all yield a nil principal and a nil error.
type Gate struct {
	issuer *Issuer
	ledger RevocationChecker
	logger *slog.Logger
}

// NewGate returns a Gate that consults ledger before verifying with issuer.
func NewGate(issuer *Issuer, ledger RevocationChecker, logger *slog.Logger) *Gate {
	return &Gate{issuer: issuer, ledger: ledger, logger: logger}
}

var _ middleware.Resolver = (*Gate)(nil)

// Resolve implements middleware.Resolver.
func (g *Gate) Resolve(ctx context.Context, token string) (*middleware.Principal, error) {
	if token == "" {
		return nil, nil
	}

	revoked, err := g.ledger.IsRevoked(ctx, token)
	if err != nil {
		gateResolutions.WithLabelValues(outcomeLedgerError).Inc()
		g.logger.WarnContext(ctx, "revocation ledger lookup failed",
			slog.String("error", err.Error()),
		)
		return nil, nil
	}
	if revoked {
		gateResolutions.WithLabelValues(outcomeRevoked).Inc()
		return nil, nil
	}

	claims, err := g.issuer.Verify(token)
	if err != nil {
		gateResolutions.WithLabelValues(outcomeInvalid).Inc()
		g.logger.DebugContext(ctx, "token rejected", slog.String("error", err.Error()))
		return nil, nil
	}

	gateResolutions.WithLabelValues(outcomeAuthenticated).Inc()
	return &middleware.Principal{
		UserID:    claims.User.ID,
		Email:     claims.User.Email,
		FullName:  claims.User.FullName,
		IsAdmin:   claims.User.IsAdmin,
		Token:     token,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}
