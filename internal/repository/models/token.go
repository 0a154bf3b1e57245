package models

import "time"

// RefreshCredential is the server-side ledger entry for one issued refresh token.
// The signed token itself is never stored; TokenID is the revocation key.
type RefreshCredential struct {
	ID        int64     `db:"id" json:"id"`
	UserID    int64     `db:"user_id" json:"user_id"`
	TokenID   string    `db:"token_id" json:"token_id"`
	ExpiresAt time.Time `db:"expires_at" json:"expires_at"`
	IsRevoked bool      `db:"is_revoked" json:"is_revoked"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// Usable reports whether the record is neither revoked nor expired at now.
func (c *RefreshCredential) Usable(now time.Time) bool {
	return !c.IsRevoked && now.Before(c.ExpiresAt)
}
