package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/terplogapp/terplog-server/internal/search"
)

func (s *Server) registerSearchRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "search-reviews",
		Method:      http.MethodGet,
		Path:        "/api/v1/search",
		Summary:     "Full-text review search",
		Description: "Searches the caller's reviews with relevance ranking and highlighting. Never crosses user boundaries.",
		Tags:        []string{"Search"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleSearchReviews)

	huma.Register(s.api, huma.Operation{
		OperationID: "suggest-strains",
		Method:      http.MethodPost,
		Path:        "/api/v1/strains/suggest",
		Summary:     "Suggest strains",
		Description: "Asks the generative backend for strain suggestions matching free-form preferences.",
		Tags:        []string{"Search"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleSuggestStrains)
}

// SearchInput carries the search query and filters.
type SearchInput struct {
	Authorization string `header:"Authorization" doc:"Bearer access token"`
	Query         string `query:"q" doc:"Free-text query"`
	Type          string `query:"type" doc:"Filter by strain type"`
	MinRating     int    `query:"min_rating" minimum:"0" maximum:"5" doc:"Filter by minimum rating"`
	Limit         int    `query:"limit" minimum:"0" maximum:"100" doc:"Page size (default 20)"`
	Offset        int    `query:"offset" minimum:"0" doc:"Page offset"`
}

// SearchOutput wraps search results for Huma.
type SearchOutput struct {
	Body search.Result
}

// SuggestRequest is the request body for strain suggestions.
type SuggestRequest struct {
	Preferences string `json:"preferences" doc:"Free-form description of desired effects, flavors or use cases"`
}

// SuggestInput wraps the suggestion request for Huma.
type SuggestInput struct {
	Body          SuggestRequest
	Authorization string `header:"Authorization" doc:"Bearer access token"`
}

// SuggestResponse contains generated strain suggestions.
type SuggestResponse struct {
	Suggestions string `json:"suggestions" doc:"Generated suggestions, or a fixed unavailable message"`
}

// SuggestOutput wraps the suggestion response for Huma.
type SuggestOutput struct {
	Body SuggestResponse
}

func (s *Server) handleSearchReviews(ctx context.Context, input *SearchInput) (*SearchOutput, error) {
	userID, err := s.authenticateRequest(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	if s.searchIndex == nil {
		return nil, huma.Error503ServiceUnavailable("search is not available")
	}

	params := search.DefaultParams(userID, input.Query)
	params.Type = input.Type
	params.MinRating = input.MinRating
	if input.Limit > 0 {
		params.Limit = input.Limit
	}
	params.Offset = input.Offset

	result, err := s.searchIndex.Search(ctx, params)
	if err != nil {
		return nil, err
	}

	return &SearchOutput{Body: *result}, nil
}

func (s *Server) handleSuggestStrains(ctx context.Context, input *SuggestInput) (*SuggestOutput, error) {
	userID, err := s.authenticateRequest(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	suggestions, err := s.services.Review.Suggest(ctx, userID, input.Body.Preferences)
	if err != nil {
		return nil, err
	}

	return &SuggestOutput{Body: SuggestResponse{Suggestions: suggestions}}, nil
}
