package auth

import "time"

// AccessClaims are the claims carried by an access token.
type AccessClaims struct {
	Issuer     string    `json:"iss"`
	Subject    string    `json:"sub"`
	Audience   string    `json:"aud"`
	Expiration time.Time `json:"exp"`
	NotBefore  time.Time `json:"nbf"`
	IssuedAt   time.Time `json:"iat"`
	TokenID    string    `json:"jti"`

	UserID  string `json:"user_id"`
	IsGuest bool   `json:"is_guest"`
}
