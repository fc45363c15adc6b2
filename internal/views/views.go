// Package views contains pure functions that derive display
// collections from a user's reviews. Nothing here touches storage;
// callers pass in a snapshot and get a new slice back.
package views

import (
	"sort"
	"strings"

	"github.com/terplogapp/terplog-server/internal/domain"
)

// DashboardLimit caps the top-rated dashboard list.
const DashboardLimit = 5

// Search returns reviews matching the query with a case-insensitive
// substring match across strain, effects, terpenes, brand and
// location. An empty query matches everything.
func Search(reviews []*domain.Review, query string) []*domain.Review {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return reviews
	}

	out := make([]*domain.Review, 0, len(reviews))
	for _, r := range reviews {
		if matchesQuery(r, q) {
			out = append(out, r)
		}
	}
	return out
}

func matchesQuery(r *domain.Review, q string) bool {
	if strings.Contains(strings.ToLower(r.Strain), q) ||
		strings.Contains(strings.ToLower(r.Effects), q) ||
		strings.Contains(strings.ToLower(r.Brand), q) ||
		strings.Contains(strings.ToLower(r.Location), q) {
		return true
	}
	for _, t := range r.Terpenes {
		if strings.Contains(strings.ToLower(t), q) {
			return true
		}
	}
	return false
}

// Filters narrow a review list. Zero values mean "no constraint";
// set fields are combined with AND.
type Filters struct {
	Type      domain.StrainType // exact match
	MinRating int               // rating >= MinRating
	Brand     string            // case-insensitive exact match
	Location  string            // case-insensitive exact match
}

// Filter returns the reviews satisfying every set constraint.
func Filter(reviews []*domain.Review, f Filters) []*domain.Review {
	out := make([]*domain.Review, 0, len(reviews))
	for _, r := range reviews {
		if f.Type != "" && r.Type != f.Type {
			continue
		}
		if f.MinRating > 0 && r.Rating < f.MinRating {
			continue
		}
		if f.Brand != "" && !strings.EqualFold(r.Brand, f.Brand) {
			continue
		}
		if f.Location != "" && !strings.EqualFold(r.Location, f.Location) {
			continue
		}
		out = append(out, r)
	}
	return out
}

// Dashboard returns the user's top highly rated reviews: rating 4 and
// up, ordered by rating descending then recency, capped at
// DashboardLimit.
func Dashboard(reviews []*domain.Review) []*domain.Review {
	top := make([]*domain.Review, 0, len(reviews))
	for _, r := range reviews {
		if r.IsHighlyRated() {
			top = append(top, r)
		}
	}

	sort.SliceStable(top, func(i, j int) bool {
		if top[i].Rating != top[j].Rating {
			return top[i].Rating > top[j].Rating
		}
		return top[i].CreatedAt.After(top[j].CreatedAt)
	})

	if len(top) > DashboardLimit {
		top = top[:DashboardLimit]
	}
	return top
}

// BreakdownBucket aggregates reviews of one product type.
type BreakdownBucket struct {
	ProductType string  `json:"product_type"`
	Count       int     `json:"count"`
	AvgRating   float64 `json:"avg_rating"`
	TotalCost   float64 `json:"total_cost"`
}

// BreakdownResult is the product type breakdown for a review
// collection. NoData distinguishes "no reviews at all" from a
// breakdown that happens to be empty.
type BreakdownResult struct {
	Buckets []BreakdownBucket `json:"buckets"`
	NoData  bool              `json:"no_data"`
}

// unknownBucket groups reviews with no recorded product type.
const unknownBucket = "Unknown"

// Breakdown groups reviews by product type. Buckets are ordered by
// count descending, then name for stability.
func Breakdown(reviews []*domain.Review) BreakdownResult {
	if len(reviews) == 0 {
		return BreakdownResult{Buckets: []BreakdownBucket{}, NoData: true}
	}

	type acc struct {
		count       int
		ratingTotal int
		costTotal   float64
	}
	byType := make(map[string]*acc)

	for _, r := range reviews {
		name := string(r.ProductType)
		if name == "" {
			name = unknownBucket
		}
		a, ok := byType[name]
		if !ok {
			a = &acc{}
			byType[name] = a
		}
		a.count++
		a.ratingTotal += r.Rating
		a.costTotal += r.Cost
	}

	buckets := make([]BreakdownBucket, 0, len(byType))
	for name, a := range byType {
		buckets = append(buckets, BreakdownBucket{
			ProductType: name,
			Count:       a.count,
			AvgRating:   float64(a.ratingTotal) / float64(a.count),
			TotalCost:   a.costTotal,
		})
	}

	sort.Slice(buckets, func(i, j int) bool {
		if buckets[i].Count != buckets[j].Count {
			return buckets[i].Count > buckets[j].Count
		}
		return buckets[i].ProductType < buckets[j].ProductType
	})

	return BreakdownResult{Buckets: buckets}
}
