// Package search provides full-text review search backed by Bleve.
// The index mirrors the store; writes flow in through the
// store.SearchIndexer interface.
package search

import (
	"github.com/terplogapp/terplog-server/internal/domain"
)

// SearchDocument is the flattened, indexable form of a review.
type SearchDocument struct {
	ID          string   `json:"id"`
	OwnerID     string   `json:"owner_id"`
	Strain      string   `json:"strain"`
	Type        string   `json:"type,omitempty"`
	ProductType string   `json:"product_type,omitempty"`
	Brand       string   `json:"brand,omitempty"`
	Location    string   `json:"location,omitempty"`
	Effects     string   `json:"effects,omitempty"`
	Flavor      string   `json:"flavor,omitempty"`
	Terpenes    []string `json:"terpenes,omitempty"`
	Rating      int      `json:"rating"`
	CreatedAt   int64    `json:"created_at"`
}

// FromReview builds a search document from a review.
func FromReview(r *domain.Review) *SearchDocument {
	return &SearchDocument{
		ID:          r.ID,
		OwnerID:     r.OwnerID,
		Strain:      r.Strain,
		Type:        string(r.Type),
		ProductType: string(r.ProductType),
		Brand:       r.Brand,
		Location:    r.Location,
		Effects:     r.Effects,
		Flavor:      r.Flavor,
		Terpenes:    r.Terpenes,
		Rating:      r.Rating,
		CreatedAt:   r.CreatedAt.UnixMilli(),
	}
}

// ToMap converts the document to a map so field names match the index
// mapping (lowercase) regardless of struct field names.
func (d *SearchDocument) ToMap() map[string]any {
	m := map[string]any{
		"id":         d.ID,
		"owner_id":   d.OwnerID,
		"strain":     d.Strain,
		"rating":     d.Rating,
		"created_at": d.CreatedAt,
	}

	if d.Type != "" {
		m["type"] = d.Type
	}
	if d.ProductType != "" {
		m["product_type"] = d.ProductType
	}
	if d.Brand != "" {
		m["brand"] = d.Brand
	}
	if d.Location != "" {
		m["location"] = d.Location
	}
	if d.Effects != "" {
		m["effects"] = d.Effects
	}
	if d.Flavor != "" {
		m["flavor"] = d.Flavor
	}
	if len(d.Terpenes) > 0 {
		m["terpenes"] = d.Terpenes
	}

	return m
}
