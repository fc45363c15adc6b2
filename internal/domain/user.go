package domain

import "time"

// User is an account in the identity layer. Guest users are throwaway
// identities created by the anonymous bootstrap flow; they have no email
// or password and cannot log back in after their session expires.
// Users are a server-side record and are never serialized to clients.
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email,omitempty"`
	PasswordHash string    `json:"password_hash,omitempty"`
	IsGuest      bool      `json:"is_guest,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
	LastLoginAt  time.Time `json:"last_login_at,omitempty"`
}

// Profile holds the user-entered account profile. It is created once
// during onboarding and read-only afterwards.
type Profile struct {
	UserID    string    `json:"user_id"`
	Name      string    `json:"name"`
	State     string    `json:"state"`
	DOB       string    `json:"dob,omitempty"`
	Email     string    `json:"email,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// DisplayName returns the name shown next to public popular entries.
func (p *Profile) DisplayName() string {
	if p == nil || p.Name == "" {
		return "Anonymous"
	}
	return p.Name
}
