package api

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/terplogapp/terplog-server/internal/domain"
)

func (s *Server) registerPopularRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "list-popular",
		Method:      http.MethodGet,
		Path:        "/api/v1/popular",
		Summary:     "Popular strains",
		Description: "Returns the shared popular collection: newest first, one entry per strain, at most five entries.",
		Tags:        []string{"Popular"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleListPopular)
}

// PopularInput carries only the auth header.
type PopularInput struct {
	Authorization string `header:"Authorization" doc:"Bearer access token"`
}

// PopularStrainResponse is one public popular entry.
type PopularStrainResponse struct {
	ID          string    `json:"id" doc:"Entry ID"`
	Strain      string    `json:"strain" doc:"Strain name"`
	Rating      int       `json:"rating" doc:"Star rating from the source review"`
	Type        string    `json:"type,omitempty" doc:"Strain type"`
	ProductType string    `json:"product_type,omitempty" doc:"Product form factor"`
	Potency     string    `json:"potency,omitempty" doc:"Potency"`
	Brand       string    `json:"brand,omitempty" doc:"Brand or grower"`
	Terpenes    []string  `json:"terpenes,omitempty" doc:"Selected terpenes"`
	AddedBy     string    `json:"added_by" doc:"Display name of the reviewer"`
	CreatedAt   time.Time `json:"created_at" doc:"Creation timestamp of the source review"`
}

// PopularListResponse contains the materialized popular collection.
type PopularListResponse struct {
	Strains []PopularStrainResponse `json:"strains" doc:"Popular strains, newest first"`
}

// PopularListOutput wraps the popular list for Huma.
type PopularListOutput struct {
	Body PopularListResponse
}

func (s *Server) handleListPopular(ctx context.Context, input *PopularInput) (*PopularListOutput, error) {
	if _, err := s.authenticateRequest(ctx, input.Authorization); err != nil {
		return nil, err
	}

	strains, err := s.services.Review.Popular(ctx)
	if err != nil {
		return nil, err
	}

	resp := PopularListResponse{Strains: make([]PopularStrainResponse, 0, len(strains))}
	for _, p := range strains {
		resp.Strains = append(resp.Strains, mapPopularStrain(p))
	}

	return &PopularListOutput{Body: resp}, nil
}

func mapPopularStrain(p *domain.PopularStrain) PopularStrainResponse {
	return PopularStrainResponse{
		ID:          p.ID,
		Strain:      p.Strain,
		Rating:      p.Rating,
		Type:        string(p.Type),
		ProductType: string(p.ProductType),
		Potency:     p.Potency,
		Brand:       p.Brand,
		Terpenes:    p.Terpenes,
		AddedBy:     p.AddedBy,
		CreatedAt:   p.CreatedAt,
	}
}
