package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/terplogapp/terplog-server/internal/reference"
)

// Reference endpoints serve static display data and need no auth.
func (s *Server) registerReferenceRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "list-legality",
		Method:      http.MethodGet,
		Path:        "/api/v1/legality",
		Summary:     "State legality table",
		Description: "Returns the per-state legality table. Informational only, not legal advice.",
		Tags:        []string{"Reference"},
	}, s.handleListLegality)

	huma.Register(s.api, huma.Operation{
		OperationID: "get-legality",
		Method:      http.MethodGet,
		Path:        "/api/v1/legality/{state}",
		Summary:     "State legality",
		Description: "Returns the legality entry for one state by its two-letter code.",
		Tags:        []string{"Reference"},
	}, s.handleGetLegality)

	huma.Register(s.api, huma.Operation{
		OperationID: "list-terpenes",
		Method:      http.MethodGet,
		Path:        "/api/v1/reference/terpenes",
		Summary:     "Terpene vocabulary",
		Description: "Returns the closed terpene vocabulary offered by review forms.",
		Tags:        []string{"Reference"},
	}, s.handleListTerpenes)
}

// LegalityListResponse contains the full legality table.
type LegalityListResponse struct {
	States []reference.StateLegality `json:"states" doc:"Legality entries sorted by state code"`
}

// LegalityListOutput wraps the legality table for Huma.
type LegalityListOutput struct {
	Body LegalityListResponse
}

// LegalityStateInput identifies one state.
type LegalityStateInput struct {
	State string `path:"state" minLength:"2" maxLength:"2" doc:"Two-letter US state code"`
}

// LegalityOutput wraps one legality entry for Huma.
type LegalityOutput struct {
	Body reference.StateLegality
}

// TerpeneListResponse contains the terpene vocabulary.
type TerpeneListResponse struct {
	Terpenes []reference.Terpene `json:"terpenes" doc:"Terpenes in display order"`
}

// TerpeneListOutput wraps the terpene vocabulary for Huma.
type TerpeneListOutput struct {
	Body TerpeneListResponse
}

func (s *Server) handleListLegality(_ context.Context, _ *struct{}) (*LegalityListOutput, error) {
	return &LegalityListOutput{Body: LegalityListResponse{States: reference.AllStates()}}, nil
}

func (s *Server) handleGetLegality(_ context.Context, input *LegalityStateInput) (*LegalityOutput, error) {
	state, ok := reference.StateByCode(input.State)
	if !ok {
		return nil, huma.Error404NotFound("unknown state code")
	}
	return &LegalityOutput{Body: state}, nil
}

func (s *Server) handleListTerpenes(_ context.Context, _ *struct{}) (*TerpeneListOutput, error) {
	return &TerpeneListOutput{Body: TerpeneListResponse{Terpenes: reference.Terpenes()}}, nil
}
