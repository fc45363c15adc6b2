package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/terplogapp/terplog-server/internal/domain"
)

// GetProfile retrieves a user's profile.
// Returns ErrProfileNotFound if no profile has been saved yet.
func (s *Store) GetProfile(ctx context.Context, userID string) (*domain.Profile, error) {
	profile, err := s.Profiles.Get(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrProfileNotFound
		}
		return nil, fmt.Errorf("get profile: %w", err)
	}
	return profile, nil
}

// CreateProfile saves a user's profile for the first time. Profiles
// are write-once; a second write for the same user returns
// ErrProfileExists.
func (s *Store) CreateProfile(ctx context.Context, profile *domain.Profile) error {
	if err := s.Profiles.Create(ctx, profile.UserID, profile); err != nil {
		if errors.Is(err, ErrAlreadyExists) {
			return ErrProfileExists
		}
		return fmt.Errorf("create profile: %w", err)
	}
	return nil
}

// DeleteProfile removes a user's profile. Idempotent.
func (s *Store) DeleteProfile(ctx context.Context, userID string) error {
	if err := s.Profiles.Delete(ctx, userID); err != nil {
		return fmt.Errorf("delete profile: %w", err)
	}
	return nil
}
