// Package sync materializes client-facing snapshots from store change
// notifications. Each user's review collection and the shared popular
// collection are rebuilt by re-reading the store on every change, so
// snapshots are always internally consistent full replacements.
package sync

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	gosync "sync"
	"time"

	"github.com/terplogapp/terplog-server/internal/domain"
	"github.com/terplogapp/terplog-server/internal/errors"
	"github.com/terplogapp/terplog-server/internal/sse"
	"github.com/terplogapp/terplog-server/internal/store"
)

// PopularLimit caps the materialized popular collection.
const PopularLimit = 5

// Reader is the slice of the store the materializer needs.
type Reader interface {
	GetReviewsForOwner(ctx context.Context, ownerID string) ([]*domain.Review, error)
	ListPopularStrains(ctx context.Context) ([]*domain.PopularStrain, error)
}

// Emitter delivers materialized snapshots. Satisfied by *sse.Manager.
type Emitter interface {
	Emit(event any)
}

// subscriptionState tracks a user's review collection lifecycle.
type subscriptionState int

const (
	stateUnsubscribed subscriptionState = iota
	stateSubscribing
	stateLive
)

// ownerCollection is the materialized state for one user.
type ownerCollection struct {
	state   subscriptionState
	reviews []*domain.Review // last good snapshot, already ordered

	// Reviews with an effects analysis in flight. The flag is an
	// overlay: a fresh snapshot that carries analysis text for a
	// review wins and clears it.
	analysisLoading map[string]bool
}

// Materializer turns store changes into ordered, deduplicated
// snapshots and hands them to the emitter. It implements
// store.EventEmitter so it can be wired directly into the store.
type Materializer struct {
	reader  Reader
	emitter Emitter
	logger  *slog.Logger

	mu      gosync.Mutex // guards owners and popular
	owners  map[string]*ownerCollection
	popular []*domain.PopularStrain
}

// NewMaterializer creates a materializer over the given store reader.
// The reader is usually set to the *store.Store after construction to
// break the store -> materializer -> store cycle.
func NewMaterializer(emitter Emitter, logger *slog.Logger) *Materializer {
	return &Materializer{
		emitter: emitter,
		logger:  logger,
		owners:  make(map[string]*ownerCollection),
	}
}

// SetReader wires the store reader. Must be called before Subscribe.
func (m *Materializer) SetReader(r Reader) {
	m.reader = r
}

func (m *Materializer) lock()   { m.mu.Lock() }
func (m *Materializer) unlock() { m.mu.Unlock() }

// Emit implements store.EventEmitter. Change notifications trigger a
// re-read of the affected collection and a snapshot push.
func (m *Materializer) Emit(event any) {
	change, ok := event.(store.Change)
	if !ok {
		return
	}

	ctx := context.Background()

	switch change.Kind {
	case store.ChangeReviews:
		if err := m.refreshOwner(ctx, change.OwnerID); err != nil {
			m.logger.Warn("failed to refresh review snapshot",
				slog.String("owner_id", change.OwnerID),
				slog.String("error", err.Error()))
		}
	case store.ChangePopular:
		if err := m.refreshPopular(ctx); err != nil {
			m.logger.Warn("failed to refresh popular snapshot",
				slog.String("error", err.Error()))
		}
	}
}

// Subscribe materializes a user's review collection and starts pushing
// snapshots for it. Idempotent; re-subscribing a live user just
// refreshes the snapshot.
func (m *Materializer) Subscribe(ctx context.Context, userID string) error {
	m.lock()
	oc, ok := m.owners[userID]
	if !ok {
		oc = &ownerCollection{analysisLoading: make(map[string]bool)}
		m.owners[userID] = oc
	}
	oc.state = stateSubscribing
	m.unlock()

	if err := m.refreshOwnerCtx(ctx, userID); err != nil {
		return err
	}

	m.lock()
	if oc, ok := m.owners[userID]; ok {
		oc.state = stateLive
	}
	m.unlock()

	return nil
}

// Teardown drops a user's materialized state, for sign-out. The shared
// popular collection is unaffected.
func (m *Materializer) Teardown(userID string) {
	m.lock()
	delete(m.owners, userID)
	m.unlock()
}

// ReviewsSnapshot returns a user's current ordered snapshot,
// subscribing them first if needed.
func (m *Materializer) ReviewsSnapshot(ctx context.Context, userID string) ([]*domain.Review, error) {
	m.lock()
	oc, live := m.owners[userID]
	if live && oc.state == stateLive {
		snapshot := m.overlaidReviewsLocked(oc)
		m.unlock()
		return snapshot, nil
	}
	m.unlock()

	if err := m.Subscribe(ctx, userID); err != nil {
		return nil, err
	}

	m.lock()
	defer m.unlock()
	oc, ok := m.owners[userID]
	if !ok {
		return []*domain.Review{}, nil
	}
	return m.overlaidReviewsLocked(oc), nil
}

// PopularSnapshot returns the deduplicated, capped popular collection.
func (m *Materializer) PopularSnapshot(ctx context.Context) ([]*domain.PopularStrain, error) {
	m.lock()
	if m.popular != nil {
		snapshot := make([]*domain.PopularStrain, len(m.popular))
		copy(snapshot, m.popular)
		m.unlock()
		return snapshot, nil
	}
	m.unlock()

	if err := m.refreshPopularCtx(ctx); err != nil {
		return nil, err
	}

	m.lock()
	defer m.unlock()
	snapshot := make([]*domain.PopularStrain, len(m.popular))
	copy(snapshot, m.popular)
	return snapshot, nil
}

// StartAnalysis marks a review's analysis as in flight. Returns a
// conflict error if an analysis for the review is already running.
func (m *Materializer) StartAnalysis(userID, reviewID string) error {
	m.lock()
	defer m.unlock()

	oc, ok := m.owners[userID]
	if !ok {
		oc = &ownerCollection{analysisLoading: make(map[string]bool)}
		m.owners[userID] = oc
	}

	if oc.analysisLoading[reviewID] {
		return errors.Conflict("analysis already in progress for this review")
	}
	oc.analysisLoading[reviewID] = true

	m.pushReviewsLocked(userID, oc)
	return nil
}

// FinishAnalysis clears the in-flight flag after a failed analysis.
// Successful analyses clear it through the snapshot itself.
func (m *Materializer) FinishAnalysis(userID, reviewID string) {
	m.lock()
	defer m.unlock()

	oc, ok := m.owners[userID]
	if !ok {
		return
	}
	if oc.analysisLoading[reviewID] {
		delete(oc.analysisLoading, reviewID)
		m.pushReviewsLocked(userID, oc)
	}
}

// PrimeEvents returns the initial snapshot events for a new SSE
// connection: the user's reviews and the shared popular collection.
func (m *Materializer) PrimeEvents(userID string) []sse.Event {
	ctx := context.Background()
	events := make([]sse.Event, 0, 2)

	if reviews, err := m.ReviewsSnapshot(ctx, userID); err == nil {
		events = append(events, sse.NewReviewsSnapshotEvent(userID, reviews))
	}
	if popular, err := m.PopularSnapshot(ctx); err == nil {
		events = append(events, sse.NewPopularSnapshotEvent(popular))
	}

	return events
}

// refreshOwner re-reads and pushes a user's snapshot if they have
// materialized state. Unsubscribed users are skipped.
func (m *Materializer) refreshOwner(ctx context.Context, userID string) error {
	m.lock()
	_, ok := m.owners[userID]
	m.unlock()
	if !ok {
		return nil
	}
	return m.refreshOwnerCtx(ctx, userID)
}

func (m *Materializer) refreshOwnerCtx(ctx context.Context, userID string) error {
	reviews, err := m.reader.GetReviewsForOwner(ctx, userID)
	if err != nil {
		// Keep the last good snapshot on read failure.
		return fmt.Errorf("read reviews for %s: %w", userID, err)
	}

	ordered := orderReviews(reviews)

	m.lock()
	defer m.unlock()

	oc, ok := m.owners[userID]
	if !ok {
		// Torn down while reading.
		return nil
	}
	oc.reviews = ordered

	// Snapshot wins: analysis text arriving in the snapshot clears
	// the loading overlay for that review.
	for _, r := range ordered {
		if r.Analysis != "" {
			delete(oc.analysisLoading, r.ID)
		}
	}

	m.pushReviewsLocked(userID, oc)
	return nil
}

func (m *Materializer) refreshPopular(ctx context.Context) error {
	return m.refreshPopularCtx(ctx)
}

func (m *Materializer) refreshPopularCtx(ctx context.Context) error {
	strains, err := m.reader.ListPopularStrains(ctx)
	if err != nil {
		return fmt.Errorf("read popular strains: %w", err)
	}

	materialized := materializePopular(strains)

	m.lock()
	m.popular = materialized
	m.unlock()

	m.emitter.Emit(sse.NewPopularSnapshotEvent(materialized))
	return nil
}

// pushReviewsLocked emits the overlaid snapshot for a user.
// Callers must hold the lock.
func (m *Materializer) pushReviewsLocked(userID string, oc *ownerCollection) {
	m.emitter.Emit(sse.NewReviewsSnapshotEvent(userID, m.overlaidReviewsLocked(oc)))
}

// overlaidReviewsLocked applies the analysisLoading overlay to copies
// of the snapshot. Callers must hold the lock.
func (m *Materializer) overlaidReviewsLocked(oc *ownerCollection) []*domain.Review {
	out := make([]*domain.Review, 0, len(oc.reviews))
	for _, r := range oc.reviews {
		if oc.analysisLoading[r.ID] {
			clone := *r
			clone.AnalysisLoading = true
			out = append(out, &clone)
			continue
		}
		out = append(out, r)
	}
	return out
}

// orderReviews sorts reviews newest first. Zero timestamps sort as
// "now" so freshly written documents appear at the top.
func orderReviews(reviews []*domain.Review) []*domain.Review {
	now := time.Now()
	ordered := make([]*domain.Review, len(reviews))
	copy(ordered, reviews)

	ts := func(r *domain.Review) time.Time {
		if r.CreatedAt.IsZero() {
			return now
		}
		return r.CreatedAt
	}

	sort.SliceStable(ordered, func(i, j int) bool {
		return ts(ordered[i]).After(ts(ordered[j]))
	})

	return ordered
}

// materializePopular orders entries newest first, keeps only the most
// recent entry per strain (case-insensitive), and caps the result.
func materializePopular(strains []*domain.PopularStrain) []*domain.PopularStrain {
	now := time.Now()
	ordered := make([]*domain.PopularStrain, len(strains))
	copy(ordered, strains)

	ts := func(p *domain.PopularStrain) time.Time {
		if p.CreatedAt.IsZero() {
			return now
		}
		return p.CreatedAt
	}

	sort.SliceStable(ordered, func(i, j int) bool {
		return ts(ordered[i]).After(ts(ordered[j]))
	})

	seen := make(map[string]bool)
	out := make([]*domain.PopularStrain, 0, PopularLimit)
	for _, p := range ordered {
		key := strings.ToLower(strings.TrimSpace(p.Strain))
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, p)
		if len(out) == PopularLimit {
			break
		}
	}

	return out
}
