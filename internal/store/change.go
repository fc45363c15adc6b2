package store

// ChangeKind identifies which collection a change touched.
type ChangeKind string

// Collections that downstream consumers can materialize.
const (
	ChangeReviews ChangeKind = "reviews"
	ChangePopular ChangeKind = "popular"
)

// Change is a lightweight notification that a collection changed.
// It deliberately carries no document data; consumers re-read the
// store so they always see a consistent snapshot.
type Change struct {
	Kind    ChangeKind
	OwnerID string // set for per-owner collections, empty for shared ones
}
