package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/terplogapp/terplog-server/internal/domain"
	domainerrors "github.com/terplogapp/terplog-server/internal/errors"
	"github.com/terplogapp/terplog-server/internal/store"
)

// ProfileService manages user profiles. Profiles are write-once: the
// first save wins and later saves conflict, matching the client's
// one-time onboarding flow.
type ProfileService struct {
	store  *store.Store
	logger *slog.Logger
}

// NewProfileService creates a new profile service.
func NewProfileService(store *store.Store, logger *slog.Logger) *ProfileService {
	return &ProfileService{store: store, logger: logger}
}

// SaveProfileRequest contains the one-time profile data.
type SaveProfileRequest struct {
	Name  string `json:"name" validate:"required"`
	State string `json:"state" validate:"required,len=2"`
	DOB   string `json:"dob,omitempty"`
	Email string `json:"email,omitempty" validate:"omitempty,email"`
}

// Get returns the user's profile.
func (s *ProfileService) Get(ctx context.Context, userID string) (*domain.Profile, error) {
	profile, err := s.store.GetProfile(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrProfileNotFound) {
			return nil, domainerrors.NotFound("profile not found")
		}
		return nil, fmt.Errorf("get profile: %w", err)
	}
	return profile, nil
}

// Save stores the user's profile. First write wins; a profile that
// already exists returns a conflict.
func (s *ProfileService) Save(ctx context.Context, userID string, req SaveProfileRequest) (*domain.Profile, error) {
	if err := validate.Struct(req); err != nil {
		return nil, formatValidationError(err)
	}

	profile := &domain.Profile{
		UserID:    userID,
		Name:      req.Name,
		State:     req.State,
		DOB:       req.DOB,
		Email:     req.Email,
		CreatedAt: time.Now(),
	}

	if err := s.store.CreateProfile(ctx, profile); err != nil {
		if errors.Is(err, store.ErrProfileExists) {
			return nil, domainerrors.Conflict("profile already saved")
		}
		return nil, fmt.Errorf("save profile: %w", err)
	}

	if s.logger != nil {
		s.logger.Info("Profile saved", "user_id", userID)
	}

	return profile, nil
}

// DisplayName returns the user's display name for public attribution,
// falling back to "Anonymous" when no profile exists.
func (s *ProfileService) DisplayName(ctx context.Context, userID string) string {
	profile, err := s.store.GetProfile(ctx, userID)
	if err != nil {
		return "Anonymous"
	}
	return profile.DisplayName()
}
