package domain

import "time"

// RevokedToken records a token that must be refused before its natural
// expiry. Entries mirror the token's own expiry and disappear after it.
type RevokedToken struct {
	Token     string    `json:"token"`
	UserID    string    `json:"user_id"`
	ExpiresAt time.Time `json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
}

// Expired reports whether the token would be refused anyway because its
// natural expiry has passed.
func (t *RevokedToken) Expired(now time.Time) bool {
	return !now.Before(t.ExpiresAt)
}
