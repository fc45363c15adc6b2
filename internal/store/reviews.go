package store

import (
	"context"
	"encoding/json/v2"
	"errors"
	"fmt"
	"strings"

	"github.com/dgraph-io/badger/v4"
	"github.com/terplogapp/terplog-server/internal/domain"
)

const (
	reviewPrefix        = "review:"
	reviewByOwnerPrefix = "idx:reviews:owner:" // For listing an owner's reviews
)

// CreateReview stores a new review and its owner index entry.
func (s *Store) CreateReview(ctx context.Context, review *domain.Review) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	key := []byte(reviewPrefix + review.ID)
	ownerIndexKey := []byte(reviewByOwnerPrefix + review.OwnerID + ":" + review.ID)

	err := s.db.Update(func(txn *badger.Txn) error {
		_, err := txn.Get(key)
		if err == nil {
			return ErrAlreadyExists
		}
		if !errors.Is(err, badger.ErrKeyNotFound) {
			return fmt.Errorf("check review exists: %w", err)
		}

		data, err := json.Marshal(review)
		if err != nil {
			return fmt.Errorf("marshal review: %w", err)
		}

		if err := txn.Set(key, data); err != nil {
			return err
		}

		return txn.Set(ownerIndexKey, []byte{})
	})
	if err != nil {
		return err
	}

	s.emit(Change{Kind: ChangeReviews, OwnerID: review.OwnerID})

	if s.searchIndexer != nil {
		go func() {
			if err := s.searchIndexer.IndexReview(context.Background(), review); err != nil {
				if s.logger != nil {
					s.logger.Warn("failed to index review for search", "review_id", review.ID, "error", err)
				}
			}
		}()
	}

	return nil
}

// GetReview retrieves a review by ID.
func (s *Store) GetReview(ctx context.Context, id string) (*domain.Review, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	key := []byte(reviewPrefix + id)

	var review domain.Review
	if err := s.get(key, &review); err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, ErrReviewNotFound
		}
		return nil, fmt.Errorf("get review: %w", err)
	}

	return &review, nil
}

// DeleteReview removes a review and its owner index entry.
// Returns ErrReviewNotFound if the review does not exist. Deleting a
// review never touches the popular collection.
func (s *Store) DeleteReview(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	key := []byte(reviewPrefix + id)

	var review domain.Review
	err := s.db.Update(func(txn *badger.Txn) error {
		item, err := txn.Get(key)
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrReviewNotFound
		}
		if err != nil {
			return fmt.Errorf("get review for deletion: %w", err)
		}

		if err := item.Value(func(val []byte) error {
			return json.Unmarshal(val, &review)
		}); err != nil {
			return err
		}

		ownerIndexKey := []byte(reviewByOwnerPrefix + review.OwnerID + ":" + id)
		if err := txn.Delete(ownerIndexKey); err != nil && !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}

		return txn.Delete(key)
	})
	if err != nil {
		return err
	}

	s.emit(Change{Kind: ChangeReviews, OwnerID: review.OwnerID})

	if s.searchIndexer != nil {
		go func() {
			if err := s.searchIndexer.DeleteReview(context.Background(), id); err != nil {
				if s.logger != nil {
					s.logger.Warn("failed to remove review from search index", "review_id", id, "error", err)
				}
			}
		}()
	}

	return nil
}

// MergeReviewAnalysis sets a review's analysis text in a single
// read-modify-write transaction, leaving every other field untouched.
// Returns the updated review.
func (s *Store) MergeReviewAnalysis(ctx context.Context, id, analysis string) (*domain.Review, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	key := []byte(reviewPrefix + id)

	var review domain.Review
	err := s.db.Update(func(txn *badger.Txn) error {
		item, err := txn.Get(key)
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrReviewNotFound
		}
		if err != nil {
			return fmt.Errorf("get review: %w", err)
		}

		if err := item.Value(func(val []byte) error {
			return json.Unmarshal(val, &review)
		}); err != nil {
			return err
		}

		review.Analysis = analysis

		data, err := json.Marshal(&review)
		if err != nil {
			return fmt.Errorf("marshal review: %w", err)
		}

		return txn.Set(key, data)
	})
	if err != nil {
		return nil, err
	}

	s.emit(Change{Kind: ChangeReviews, OwnerID: review.OwnerID})

	return &review, nil
}

// GetReviewsForOwner returns all reviews belonging to a user, in a
// single read transaction so the result is a consistent snapshot.
func (s *Store) GetReviewsForOwner(ctx context.Context, ownerID string) ([]*domain.Review, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	prefix := []byte(reviewByOwnerPrefix + ownerID + ":")
	var reviews []*domain.Review

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		opts.PrefetchValues = false // Only keys are needed on the first pass

		it := txn.NewIterator(opts)

		var ids []string
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			key := string(it.Item().Key())
			id := strings.TrimPrefix(key, string(prefix))
			if id == "" {
				continue
			}
			ids = append(ids, id)
		}
		it.Close()

		for _, id := range ids {
			item, err := txn.Get([]byte(reviewPrefix + id))
			if errors.Is(err, badger.ErrKeyNotFound) {
				// Dangling index entry, skip it
				continue
			}
			if err != nil {
				return fmt.Errorf("get review %s: %w", id, err)
			}

			var review domain.Review
			if err := item.Value(func(val []byte) error {
				return json.Unmarshal(val, &review)
			}); err != nil {
				return err
			}

			reviews = append(reviews, &review)
		}

		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list reviews for owner: %w", err)
	}

	return reviews, nil
}
