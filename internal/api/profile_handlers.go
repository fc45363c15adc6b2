package api

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/terplogapp/terplog-server/internal/domain"
	"github.com/terplogapp/terplog-server/internal/service"
)

func (s *Server) registerProfileRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "get-profile",
		Method:      http.MethodGet,
		Path:        "/api/v1/profile",
		Summary:     "Get profile",
		Description: "Returns the caller's onboarding profile.",
		Tags:        []string{"Profile"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleGetProfile)

	huma.Register(s.api, huma.Operation{
		OperationID: "save-profile",
		Method:      http.MethodPut,
		Path:        "/api/v1/profile",
		Summary:     "Save profile",
		Description: "Stores the one-time onboarding profile. The first save wins; later saves conflict.",
		Tags:        []string{"Profile"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleSaveProfile)
}

// === DTOs ===

// ProfileRequest is the request body for saving a profile.
type ProfileRequest struct {
	Name  string `json:"name" validate:"required,max=100" doc:"Display name"`
	State string `json:"state" validate:"required,len=2" doc:"Two-letter US state code"`
	DOB   string `json:"dob,omitempty" validate:"omitempty,max=10" doc:"Date of birth (YYYY-MM-DD)"`
	Email string `json:"email,omitempty" validate:"omitempty,email,max=254" doc:"Contact email"`
}

// ProfileInput wraps the profile request for Huma.
type ProfileInput struct {
	Body          ProfileRequest
	Authorization string `header:"Authorization" doc:"Bearer access token"`
}

// GetProfileInput carries only the auth header.
type GetProfileInput struct {
	Authorization string `header:"Authorization" doc:"Bearer access token"`
}

// ProfileResponse contains profile data.
type ProfileResponse struct {
	UserID    string    `json:"user_id" doc:"Owning user ID"`
	Name      string    `json:"name" doc:"Display name"`
	State     string    `json:"state" doc:"Two-letter US state code"`
	DOB       string    `json:"dob,omitempty" doc:"Date of birth"`
	Email     string    `json:"email,omitempty" doc:"Contact email"`
	CreatedAt time.Time `json:"created_at" doc:"Creation timestamp"`
}

// ProfileOutput wraps the profile response for Huma.
type ProfileOutput struct {
	Body ProfileResponse
}

// === Handlers ===

func (s *Server) handleGetProfile(ctx context.Context, input *GetProfileInput) (*ProfileOutput, error) {
	userID, err := s.authenticateRequest(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	profile, err := s.services.Profile.Get(ctx, userID)
	if err != nil {
		return nil, err
	}

	return &ProfileOutput{Body: mapProfileResponse(profile)}, nil
}

func (s *Server) handleSaveProfile(ctx context.Context, input *ProfileInput) (*ProfileOutput, error) {
	userID, err := s.authenticateRequest(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	profile, err := s.services.Profile.Save(ctx, userID, service.SaveProfileRequest{
		Name:  input.Body.Name,
		State: input.Body.State,
		DOB:   input.Body.DOB,
		Email: input.Body.Email,
	})
	if err != nil {
		return nil, err
	}

	return &ProfileOutput{Body: mapProfileResponse(profile)}, nil
}

func mapProfileResponse(p *domain.Profile) ProfileResponse {
	return ProfileResponse{
		UserID:    p.UserID,
		Name:      p.Name,
		State:     p.State,
		DOB:       p.DOB,
		Email:     p.Email,
		CreatedAt: p.CreatedAt,
	}
}
