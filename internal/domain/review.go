// Package domain contains the core entities for the TerpLog server.
package domain

import (
	"strings"
	"time"

	"github.com/terplogapp/terplog-server/internal/errors"
)

// ProductType classifies the form factor of a reviewed product.
type ProductType string

// Known product types. The empty string means "not recorded" and is
// grouped under the Unknown bucket in breakdowns.
const (
	ProductFlower      ProductType = "Flower"
	ProductEdible      ProductType = "Edible"
	ProductVape        ProductType = "Vape"
	ProductConcentrate ProductType = "Concentrate"
	ProductPreroll     ProductType = "Pre-roll"
	ProductTincture    ProductType = "Tincture"
	ProductTopical     ProductType = "Topical"
)

// StrainType classifies the strain lineage.
type StrainType string

// Known strain types.
const (
	StrainIndica StrainType = "Indica"
	StrainSativa StrainType = "Sativa"
	StrainHybrid StrainType = "Hybrid"
)

// MaxTerpenes is the most terpenes a single review may carry.
const MaxTerpenes = 3

// MinRating and MaxRating bound the 1-5 star scale. A zero rating means
// "unset" and is rejected by Validate.
const (
	MinRating = 1
	MaxRating = 5
)

// Review is a private strain review owned by a single user.
type Review struct {
	ID          string      `json:"id"`
	OwnerID     string      `json:"owner_id"`
	Strain      string      `json:"strain"`
	Rating      int         `json:"rating"`
	Type        StrainType  `json:"type,omitempty"`
	ProductType ProductType `json:"product_type,omitempty"`
	Terpenes    []string    `json:"terpenes,omitempty"`
	Cost        float64     `json:"cost,omitempty"`
	Potency     string      `json:"potency,omitempty"`
	Flavor      string      `json:"flavor,omitempty"`
	Brand       string      `json:"brand,omitempty"`
	Location    string      `json:"location,omitempty"`
	Effects     string      `json:"effects,omitempty"`
	Analysis    string      `json:"analysis,omitempty"`
	CreatedAt   time.Time   `json:"created_at"`

	// AnalysisLoading is a view-layer overlay, set on snapshot copies
	// while an effects analysis is in flight. Never persisted as true.
	AnalysisLoading bool `json:"analysis_loading,omitempty"`
}

// Validate applies the review submission gate. Checks run in a fixed
// order and the first failure wins; a review that fails here must never
// reach the store.
func (r *Review) Validate() error {
	if strings.TrimSpace(r.Strain) == "" {
		return errors.Validation("strain name is required")
	}
	if r.Rating < MinRating || r.Rating > MaxRating {
		return errors.Validation("rating must be between 1 and 5")
	}
	if len(r.Terpenes) > MaxTerpenes {
		return errors.Validation("select at most 3 terpenes")
	}
	return nil
}

// IsHighlyRated reports whether the review qualifies for the public
// popular strains collection.
func (r *Review) IsHighlyRated() bool {
	return r.Rating >= 4
}

// ToPopularStrain projects the review into its public form. The owner's
// display name is supplied by the caller; private fields (cost, flavor,
// effects, analysis) are not carried over.
func (r *Review) ToPopularStrain(popularID, addedBy string) *PopularStrain {
	terpenes := make([]string, len(r.Terpenes))
	copy(terpenes, r.Terpenes)

	return &PopularStrain{
		ID:          popularID,
		Strain:      r.Strain,
		Rating:      r.Rating,
		Type:        r.Type,
		ProductType: r.ProductType,
		Potency:     r.Potency,
		Brand:       r.Brand,
		Terpenes:    terpenes,
		AddedBy:     addedBy,
		CreatedAt:   r.CreatedAt,
	}
}
