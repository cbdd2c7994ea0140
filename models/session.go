package models

import "time"

// Session is one refresh-token session row. Access tokens are stateless
// JWTs; refresh tokens are opaque and revocable by deleting the row.
type Session struct {
	ID           string    `json:"id"`
	UserID       string    `json:"user_id"`
	RefreshToken string    `json:"-"`
	ExpiresAt    time.Time `json:"expires_at"`
	CreatedAt    time.Time `json:"created_at"`
}
