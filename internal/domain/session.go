package domain

import "time"

// Session tracks an issued refresh token. The token itself is never
// stored, only its hash. Sessions are a server-side record and are not
// serialized to clients.
type Session struct {
	ID               string    `json:"id"`
	UserID           string    `json:"user_id"`
	RefreshTokenHash string    `json:"refresh_token_hash"`
	CreatedAt        time.Time `json:"created_at"`
	ExpiresAt        time.Time `json:"expires_at"`
	LastUsedAt       time.Time `json:"last_used_at,omitempty"`
	RevokedAt        time.Time `json:"revoked_at,omitempty"`
}

// IsValid reports whether the session can still mint access tokens.
func (s *Session) IsValid(now time.Time) bool {
	return s.RevokedAt.IsZero() && now.Before(s.ExpiresAt)
}
