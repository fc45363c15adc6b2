package search

import (
	"context"
	"fmt"
	"strings"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/search/query"
)

// Params configures a review search. OwnerID is mandatory; review
// search never crosses user boundaries.
type Params struct {
	OwnerID string
	Query   string

	// Filters, combined with AND when set.
	Type      string // exact strain type
	MinRating int    // rating >= MinRating

	// Pagination
	Limit  int
	Offset int
}

// DefaultParams returns sensible defaults for owner searches.
func DefaultParams(ownerID, q string) Params {
	return Params{
		OwnerID: ownerID,
		Query:   q,
		Limit:   20,
	}
}

// Result represents search results.
type Result struct {
	Query  string `json:"query"`
	Total  uint64 `json:"total"`
	TookMs int64  `json:"took_ms"`
	Hits   []Hit  `json:"hits"`
}

// Hit represents a single matching review.
type Hit struct {
	ID          string            `json:"id"`
	Score       float64           `json:"score"`
	Strain      string            `json:"strain"`
	Type        string            `json:"type,omitempty"`
	ProductType string            `json:"product_type,omitempty"`
	Brand       string            `json:"brand,omitempty"`
	Location    string            `json:"location,omitempty"`
	Rating      int               `json:"rating,omitempty"`
	Highlights  map[string]string `json:"highlights,omitempty"`
}

// Search executes an owner-scoped search query.
func (s *SearchIndex) Search(ctx context.Context, params Params) (*Result, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if params.Limit <= 0 {
		params.Limit = 20
	}

	searchQuery := buildSearchQuery(params)

	searchRequest := bleve.NewSearchRequestOptions(searchQuery, params.Limit, params.Offset, false)

	searchRequest.Highlight = bleve.NewHighlight()
	searchRequest.Highlight.AddField("strain")
	searchRequest.Highlight.AddField("effects")

	searchRequest.Fields = []string{
		"strain", "type", "product_type", "brand", "location", "rating",
	}

	searchResult, err := s.index.SearchInContext(ctx, searchRequest)
	if err != nil {
		return nil, fmt.Errorf("execute search: %w", err)
	}

	result := &Result{
		Query:  params.Query,
		Total:  searchResult.Total,
		TookMs: searchResult.Took.Milliseconds(),
		Hits:   make([]Hit, 0, len(searchResult.Hits)),
	}

	for _, hit := range searchResult.Hits {
		h := Hit{
			ID:    hit.ID,
			Score: hit.Score,
		}

		if v, ok := hit.Fields["strain"].(string); ok {
			h.Strain = v
		}
		if v, ok := hit.Fields["type"].(string); ok {
			h.Type = v
		}
		if v, ok := hit.Fields["product_type"].(string); ok {
			h.ProductType = v
		}
		if v, ok := hit.Fields["brand"].(string); ok {
			h.Brand = v
		}
		if v, ok := hit.Fields["location"].(string); ok {
			h.Location = v
		}
		if v, ok := hit.Fields["rating"].(float64); ok {
			h.Rating = int(v)
		}

		if len(hit.Fragments) > 0 {
			h.Highlights = make(map[string]string)
			for field, fragments := range hit.Fragments {
				if len(fragments) > 0 {
					h.Highlights[field] = fragments[0]
				}
			}
		}

		result.Hits = append(result.Hits, h)
	}

	return result, nil
}

// buildSearchQuery combines the owner scope, text query and filters.
func buildSearchQuery(params Params) query.Query {
	conjuncts := []query.Query{ownerQuery(params.OwnerID)}

	q := strings.TrimSpace(params.Query)
	if q != "" {
		// Match across text fields, preferring strain hits.
		textFields := []string{"strain", "effects", "flavor", "brand", "location", "terpenes"}
		disjuncts := make([]query.Query, 0, len(textFields))
		for _, field := range textFields {
			mq := bleve.NewMatchQuery(q)
			mq.SetField(field)
			if field == "strain" {
				mq.SetBoost(2.0)
			}
			disjuncts = append(disjuncts, mq)

			// Prefix query catches partial words highlighting misses.
			pq := bleve.NewPrefixQuery(strings.ToLower(q))
			pq.SetField(field)
			disjuncts = append(disjuncts, pq)
		}
		conjuncts = append(conjuncts, bleve.NewDisjunctionQuery(disjuncts...))
	}

	if params.Type != "" {
		tq := bleve.NewTermQuery(params.Type)
		tq.SetField("type")
		conjuncts = append(conjuncts, tq)
	}

	if params.MinRating > 0 {
		minRating := float64(params.MinRating)
		inclusive := true
		rq := bleve.NewNumericRangeInclusiveQuery(&minRating, nil, &inclusive, nil)
		rq.SetField("rating")
		conjuncts = append(conjuncts, rq)
	}

	return bleve.NewConjunctionQuery(conjuncts...)
}

func ownerQuery(ownerID string) query.Query {
	tq := bleve.NewTermQuery(ownerID)
	tq.SetField("owner_id")
	return tq
}
