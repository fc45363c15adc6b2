package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/terplogapp/terplog-server/internal/views"
)

func (s *Server) registerViewRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "dashboard",
		Method:      http.MethodGet,
		Path:        "/api/v1/views/dashboard",
		Summary:     "Dashboard",
		Description: "Returns the caller's top highly rated reviews: rating 4 and up, ordered by rating then recency, capped at five.",
		Tags:        []string{"Views"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleDashboard)

	huma.Register(s.api, huma.Operation{
		OperationID: "breakdown",
		Method:      http.MethodGet,
		Path:        "/api/v1/views/breakdown",
		Summary:     "Product type breakdown",
		Description: "Groups the caller's reviews by product type with counts, average rating and total cost.",
		Tags:        []string{"Views"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleBreakdown)
}

// DashboardInput carries only the auth header.
type DashboardInput struct {
	Authorization string `header:"Authorization" doc:"Bearer access token"`
}

// DashboardOutput wraps the dashboard review list for Huma.
type DashboardOutput struct {
	Body ReviewListResponse
}

// BreakdownOutput wraps the product type breakdown for Huma.
type BreakdownOutput struct {
	Body views.BreakdownResult
}

func (s *Server) handleDashboard(ctx context.Context, input *DashboardInput) (*DashboardOutput, error) {
	userID, err := s.authenticateRequest(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	reviews, err := s.services.Review.Dashboard(ctx, userID)
	if err != nil {
		return nil, err
	}

	return &DashboardOutput{Body: mapReviewListResponse(reviews)}, nil
}

func (s *Server) handleBreakdown(ctx context.Context, input *DashboardInput) (*BreakdownOutput, error) {
	userID, err := s.authenticateRequest(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	breakdown, err := s.services.Review.Breakdown(ctx, userID)
	if err != nil {
		return nil, err
	}

	return &BreakdownOutput{Body: breakdown}, nil
}
