package auth

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Gate resolution outcomes.
const (
	outcomeAuthenticated = "authenticated"
	outcomeRevoked       = "revoked"
	outcomeInvalid       = "invalid"
	outcomeLedgerError   = "ledger_error"
)

var gateResolutions = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "auth_gate_resolutions_total",
		Help: "Bearer token resolutions by outcome.",
	},
	[]string{"outcome"},
)

// TokensRevoked counts successful logouts.
var TokensRevoked = promauto.NewCounter(prometheus.CounterOpts{
	Name: "auth_tokens_revoked_total",
	Help: "Tokens recorded in the revocation ledger.",
})
