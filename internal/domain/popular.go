package domain

import "time"

// PopularStrain is a public, reduced projection of a highly rated review.
// Records are append-only from the client's perspective; deduplication
// and capping happen in the sync layer, never in storage.
type PopularStrain struct {
	ID          string      `json:"id"`
	Strain      string      `json:"strain"`
	Rating      int         `json:"rating"`
	Type        StrainType  `json:"type,omitempty"`
	ProductType ProductType `json:"product_type,omitempty"`
	Potency     string      `json:"potency,omitempty"`
	Brand       string      `json:"brand,omitempty"`
	Terpenes    []string    `json:"terpenes,omitempty"`
	AddedBy     string      `json:"added_by"`
	CreatedAt   time.Time   `json:"created_at"`
}
