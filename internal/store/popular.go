package store

import (
	"context"
	"encoding/json/v2"
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"
	"github.com/terplogapp/terplog-server/internal/domain"
)

const popularPrefix = "popular:"

// CreatePopularStrain adds an entry to the shared popular collection.
// Duplicate strains are allowed here; deduplication happens when the
// collection is materialized for clients.
func (s *Store) CreatePopularStrain(ctx context.Context, p *domain.PopularStrain) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	key := []byte(popularPrefix + p.ID)

	err := s.db.Update(func(txn *badger.Txn) error {
		_, err := txn.Get(key)
		if err == nil {
			return ErrAlreadyExists
		}
		if !errors.Is(err, badger.ErrKeyNotFound) {
			return fmt.Errorf("check popular strain exists: %w", err)
		}

		data, err := json.Marshal(p)
		if err != nil {
			return fmt.Errorf("marshal popular strain: %w", err)
		}

		return txn.Set(key, data)
	})
	if err != nil {
		return err
	}

	s.emit(Change{Kind: ChangePopular})

	return nil
}

// GetPopularStrain retrieves a popular collection entry by ID.
func (s *Store) GetPopularStrain(ctx context.Context, id string) (*domain.PopularStrain, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var p domain.PopularStrain
	if err := s.get([]byte(popularPrefix+id), &p); err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, ErrPopularNotFound
		}
		return nil, fmt.Errorf("get popular strain: %w", err)
	}

	return &p, nil
}

// ListPopularStrains returns every entry in the popular collection.
// Ordering, deduplication and capping are the materializer's job.
func (s *Store) ListPopularStrains(ctx context.Context) ([]*domain.PopularStrain, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	prefix := []byte(popularPrefix)
	var strains []*domain.PopularStrain

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		opts.PrefetchValues = true

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			var p domain.PopularStrain
			err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &p)
			})
			if err != nil {
				return err
			}

			strains = append(strains, &p)
		}

		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list popular strains: %w", err)
	}

	return strains, nil
}
