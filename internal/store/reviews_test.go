package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/terplogapp/terplog-server/internal/domain"
)

func testReview(id, ownerID string) *domain.Review {
	return &domain.Review{
		ID:          id,
		OwnerID:     ownerID,
		Strain:      "Blue Dream",
		Rating:      4,
		Type:        domain.StrainHybrid,
		ProductType: domain.ProductFlower,
		Terpenes:    []string{"Myrcene", "Pinene"},
		Cost:        45.50,
		Potency:     "24% THC",
		Effects:     "relaxed, creative",
		CreatedAt:   time.Now(),
	}
}

func TestCreateReview(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()

	review := testReview("review_test123", "user_test123")
	err := store.CreateReview(ctx, review)
	require.NoError(t, err)

	retrieved, err := store.GetReview(ctx, review.ID)
	require.NoError(t, err)
	assert.Equal(t, review.Strain, retrieved.Strain)
	assert.Equal(t, review.Rating, retrieved.Rating)
	assert.Equal(t, review.Terpenes, retrieved.Terpenes)
	assert.Equal(t, review.Cost, retrieved.Cost)
}

func TestCreateReview_DuplicateID(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()

	review := testReview("review_test123", "user_test123")
	require.NoError(t, store.CreateReview(ctx, review))

	err := store.CreateReview(ctx, testReview("review_test123", "user_test123"))
	assert.Error(t, err)
	assert.ErrorIs(t, err, ErrAlreadyExists)
}

func TestGetReview_NotFound(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	_, err := store.GetReview(context.Background(), "review_nonexistent")
	assert.Error(t, err)
	assert.ErrorIs(t, err, ErrReviewNotFound)
}

func TestDeleteReview(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()

	review := testReview("review_test123", "user_test123")
	require.NoError(t, store.CreateReview(ctx, review))

	require.NoError(t, store.DeleteReview(ctx, review.ID))

	_, err := store.GetReview(ctx, review.ID)
	assert.ErrorIs(t, err, ErrReviewNotFound)

	// The owner index entry is gone too.
	reviews, err := store.GetReviewsForOwner(ctx, "user_test123")
	require.NoError(t, err)
	assert.Empty(t, reviews)
}

func TestDeleteReview_NotFound(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	err := store.DeleteReview(context.Background(), "review_nonexistent")
	assert.Error(t, err)
	assert.ErrorIs(t, err, ErrReviewNotFound)
}

func TestMergeReviewAnalysis(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()

	review := testReview("review_test123", "user_test123")
	require.NoError(t, store.CreateReview(ctx, review))

	updated, err := store.MergeReviewAnalysis(ctx, review.ID, "smooth cerebral effects")
	require.NoError(t, err)
	assert.Equal(t, "smooth cerebral effects", updated.Analysis)

	// Only the analysis changed.
	retrieved, err := store.GetReview(ctx, review.ID)
	require.NoError(t, err)
	assert.Equal(t, "smooth cerebral effects", retrieved.Analysis)
	assert.Equal(t, review.Strain, retrieved.Strain)
	assert.Equal(t, review.Rating, retrieved.Rating)
	assert.Equal(t, review.Effects, retrieved.Effects)
}

func TestMergeReviewAnalysis_NotFound(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	_, err := store.MergeReviewAnalysis(context.Background(), "review_nonexistent", "text")
	assert.Error(t, err)
	assert.ErrorIs(t, err, ErrReviewNotFound)
}

func TestGetReviewsForOwner_Isolation(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()

	require.NoError(t, store.CreateReview(ctx, testReview("review_a1", "user_a")))
	require.NoError(t, store.CreateReview(ctx, testReview("review_a2", "user_a")))
	require.NoError(t, store.CreateReview(ctx, testReview("review_b1", "user_b")))

	reviewsA, err := store.GetReviewsForOwner(ctx, "user_a")
	require.NoError(t, err)
	assert.Len(t, reviewsA, 2)
	for _, r := range reviewsA {
		assert.Equal(t, "user_a", r.OwnerID)
	}

	reviewsB, err := store.GetReviewsForOwner(ctx, "user_b")
	require.NoError(t, err)
	require.Len(t, reviewsB, 1)
	assert.Equal(t, "review_b1", reviewsB[0].ID)

	none, err := store.GetReviewsForOwner(ctx, "user_c")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestReviewWrites_EmitChanges(t *testing.T) {
	store, recorder, cleanup := setupTestStoreWithRecorder(t)
	defer cleanup()

	ctx := context.Background()

	review := testReview("review_test123", "user_test123")
	require.NoError(t, store.CreateReview(ctx, review))
	_, err := store.MergeReviewAnalysis(ctx, review.ID, "analysis")
	require.NoError(t, err)
	require.NoError(t, store.DeleteReview(ctx, review.ID))

	changes := recorder.all()
	require.Len(t, changes, 3)
	for _, change := range changes {
		assert.Equal(t, ChangeReviews, change.Kind)
		assert.Equal(t, "user_test123", change.OwnerID)
	}
}
