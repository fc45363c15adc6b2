package api

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/terplogapp/terplog-server/internal/domain"
	"github.com/terplogapp/terplog-server/internal/service"
	"github.com/terplogapp/terplog-server/internal/views"
)

func (s *Server) registerReviewRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "create-review",
		Method:      http.MethodPost,
		Path:        "/api/v1/reviews",
		Summary:     "Create review",
		Description: "Validates and stores a new private review. Reviews rated 4 or higher are mirrored into the public popular collection.",
		Tags:        []string{"Reviews"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleCreateReview)

	huma.Register(s.api, huma.Operation{
		OperationID: "list-reviews",
		Method:      http.MethodGet,
		Path:        "/api/v1/reviews",
		Summary:     "List reviews",
		Description: "Returns the caller's reviews, newest first, narrowed by the optional query and filters.",
		Tags:        []string{"Reviews"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleListReviews)

	huma.Register(s.api, huma.Operation{
		OperationID: "get-review",
		Method:      http.MethodGet,
		Path:        "/api/v1/reviews/{id}",
		Summary:     "Get review",
		Description: "Returns a single review owned by the caller.",
		Tags:        []string{"Reviews"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleGetReview)

	huma.Register(s.api, huma.Operation{
		OperationID: "delete-review",
		Method:      http.MethodDelete,
		Path:        "/api/v1/reviews/{id}",
		Summary:     "Delete review",
		Description: "Removes a review. A popular entry mirrored from the review stays in the public collection.",
		Tags:        []string{"Reviews"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleDeleteReview)

	huma.Register(s.api, huma.Operation{
		OperationID: "analyze-review",
		Method:      http.MethodPost,
		Path:        "/api/v1/reviews/{id}/analysis",
		Summary:     "Generate effects analysis",
		Description: "Asks the generative backend to summarize the likely effects of the reviewed strain. Only one analysis runs per review at a time.",
		Tags:        []string{"Reviews"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleAnalyzeReview)

	huma.Register(s.api, huma.Operation{
		OperationID: "share-review",
		Method:      http.MethodGet,
		Path:        "/api/v1/reviews/{id}/share",
		Summary:     "Share review",
		Description: "Renders the review as shareable plain text.",
		Tags:        []string{"Reviews"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleShareReview)
}

// === DTOs ===

// CreateReviewRequest is the request body for creating a review.
type CreateReviewRequest struct {
	Strain      string   `json:"strain" doc:"Strain name (required)"`
	Rating      int      `json:"rating" doc:"Star rating, 1-5 (required)"`
	Type        string   `json:"type,omitempty" doc:"Strain type (Indica, Sativa, Hybrid)"`
	ProductType string   `json:"product_type,omitempty" doc:"Product form factor (Flower, Edible, ...)"`
	Terpenes    []string `json:"terpenes,omitempty" doc:"Up to 3 terpenes"`
	Cost        float64  `json:"cost,omitempty" doc:"Purchase cost"`
	Potency     string   `json:"potency,omitempty" doc:"Potency, free text (e.g. 24% THC)"`
	Flavor      string   `json:"flavor,omitempty" doc:"Flavor notes"`
	Brand       string   `json:"brand,omitempty" doc:"Brand or grower"`
	Location    string   `json:"location,omitempty" doc:"Dispensary or purchase location"`
	Effects     string   `json:"effects,omitempty" doc:"Experienced effects, free text"`
}

// CreateReviewInput wraps the create request for Huma.
type CreateReviewInput struct {
	Body          CreateReviewRequest
	Authorization string `header:"Authorization" doc:"Bearer access token"`
}

// ListReviewsInput carries the optional query and filters.
type ListReviewsInput struct {
	Authorization string `header:"Authorization" doc:"Bearer access token"`
	Query         string `query:"q" doc:"Free-text query matched against strain, effects, brand, location and terpenes"`
	Type          string `query:"type" doc:"Filter by strain type"`
	MinRating     int    `query:"min_rating" minimum:"0" maximum:"5" doc:"Filter by minimum rating"`
	Brand         string `query:"brand" doc:"Filter by brand (case-insensitive)"`
	Location      string `query:"location" doc:"Filter by location (case-insensitive)"`
}

// ReviewIDInput identifies a single review.
type ReviewIDInput struct {
	ID            string `path:"id" doc:"Review ID"`
	Authorization string `header:"Authorization" doc:"Bearer access token"`
}

// ReviewResponse contains a single review.
type ReviewResponse struct {
	ID              string    `json:"id" doc:"Review ID"`
	Strain          string    `json:"strain" doc:"Strain name"`
	Rating          int       `json:"rating" doc:"Star rating, 1-5"`
	Type            string    `json:"type,omitempty" doc:"Strain type"`
	ProductType     string    `json:"product_type,omitempty" doc:"Product form factor"`
	Terpenes        []string  `json:"terpenes,omitempty" doc:"Selected terpenes"`
	Cost            float64   `json:"cost,omitempty" doc:"Purchase cost"`
	Potency         string    `json:"potency,omitempty" doc:"Potency"`
	Flavor          string    `json:"flavor,omitempty" doc:"Flavor notes"`
	Brand           string    `json:"brand,omitempty" doc:"Brand or grower"`
	Location        string    `json:"location,omitempty" doc:"Purchase location"`
	Effects         string    `json:"effects,omitempty" doc:"Experienced effects"`
	Analysis        string    `json:"analysis,omitempty" doc:"Generated effects analysis"`
	AnalysisLoading bool      `json:"analysis_loading,omitempty" doc:"Whether an analysis is in flight"`
	CreatedAt       time.Time `json:"created_at" doc:"Creation timestamp"`
}

// ReviewOutput wraps a single review for Huma.
type ReviewOutput struct {
	Body ReviewResponse
}

// ReviewListResponse contains a page of reviews.
type ReviewListResponse struct {
	Reviews []ReviewResponse `json:"reviews" doc:"Matching reviews, newest first"`
	Total   int              `json:"total" doc:"Number of matching reviews"`
}

// ReviewListOutput wraps the review list for Huma.
type ReviewListOutput struct {
	Body ReviewListResponse
}

// AnalysisResponse contains the outcome of an effects analysis request.
type AnalysisResponse struct {
	Analysis  string `json:"analysis" doc:"Generated analysis, or a fixed unavailable message"`
	Persisted bool   `json:"persisted" doc:"Whether the analysis was stored on the review"`
}

// AnalysisOutput wraps the analysis response for Huma.
type AnalysisOutput struct {
	Body AnalysisResponse
}

// ShareResponse contains the shareable text for a review.
type ShareResponse struct {
	Text string `json:"text" doc:"Shareable plain text"`
}

// ShareOutput wraps the share response for Huma.
type ShareOutput struct {
	Body ShareResponse
}

// === Handlers ===

func (s *Server) handleCreateReview(ctx context.Context, input *CreateReviewInput) (*ReviewOutput, error) {
	userID, err := s.authenticateRequest(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	review, err := s.services.Review.Create(ctx, userID, service.CreateReviewRequest{
		Strain:      input.Body.Strain,
		Rating:      input.Body.Rating,
		Type:        input.Body.Type,
		ProductType: input.Body.ProductType,
		Terpenes:    input.Body.Terpenes,
		Cost:        input.Body.Cost,
		Potency:     input.Body.Potency,
		Flavor:      input.Body.Flavor,
		Brand:       input.Body.Brand,
		Location:    input.Body.Location,
		Effects:     input.Body.Effects,
	})
	if err != nil {
		return nil, err
	}

	return &ReviewOutput{Body: mapReviewResponse(review)}, nil
}

func (s *Server) handleListReviews(ctx context.Context, input *ListReviewsInput) (*ReviewListOutput, error) {
	userID, err := s.authenticateRequest(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	filters := views.Filters{
		Type:      domain.StrainType(input.Type),
		MinRating: input.MinRating,
		Brand:     input.Brand,
		Location:  input.Location,
	}

	reviews, err := s.services.Review.List(ctx, userID, input.Query, filters)
	if err != nil {
		return nil, err
	}

	return &ReviewListOutput{Body: mapReviewListResponse(reviews)}, nil
}

func (s *Server) handleGetReview(ctx context.Context, input *ReviewIDInput) (*ReviewOutput, error) {
	userID, err := s.authenticateRequest(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	review, err := s.services.Review.Get(ctx, userID, input.ID)
	if err != nil {
		return nil, err
	}

	return &ReviewOutput{Body: mapReviewResponse(review)}, nil
}

func (s *Server) handleDeleteReview(ctx context.Context, input *ReviewIDInput) (*MessageOutput, error) {
	userID, err := s.authenticateRequest(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	if err := s.services.Review.Delete(ctx, userID, input.ID); err != nil {
		return nil, err
	}

	return &MessageOutput{Body: MessageResponse{Message: "Review deleted"}}, nil
}

func (s *Server) handleAnalyzeReview(ctx context.Context, input *ReviewIDInput) (*AnalysisOutput, error) {
	userID, err := s.authenticateRequest(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	result, err := s.services.Review.Analyze(ctx, userID, input.ID)
	if err != nil {
		return nil, err
	}

	return &AnalysisOutput{Body: AnalysisResponse{
		Analysis:  result.Analysis,
		Persisted: result.Persisted,
	}}, nil
}

func (s *Server) handleShareReview(ctx context.Context, input *ReviewIDInput) (*ShareOutput, error) {
	userID, err := s.authenticateRequest(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	text, err := s.services.Review.ShareText(ctx, userID, input.ID)
	if err != nil {
		return nil, err
	}

	return &ShareOutput{Body: ShareResponse{Text: text}}, nil
}

// === Helpers ===

func mapReviewResponse(r *domain.Review) ReviewResponse {
	return ReviewResponse{
		ID:              r.ID,
		Strain:          r.Strain,
		Rating:          r.Rating,
		Type:            string(r.Type),
		ProductType:     string(r.ProductType),
		Terpenes:        r.Terpenes,
		Cost:            r.Cost,
		Potency:         r.Potency,
		Flavor:          r.Flavor,
		Brand:           r.Brand,
		Location:        r.Location,
		Effects:         r.Effects,
		Analysis:        r.Analysis,
		AnalysisLoading: r.AnalysisLoading,
		CreatedAt:       r.CreatedAt,
	}
}

func mapReviewListResponse(reviews []*domain.Review) ReviewListResponse {
	out := ReviewListResponse{
		Reviews: make([]ReviewResponse, 0, len(reviews)),
		Total:   len(reviews),
	}
	for _, r := range reviews {
		out.Reviews = append(out.Reviews, mapReviewResponse(r))
	}
	return out
}
