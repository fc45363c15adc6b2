// Package store implements the Badger-backed document store. Each
// collection lives under its own key prefix with secondary indexes
// stored as separate keys. Writes notify the event emitter so the
// sync layer can rebuild client snapshots.
package store

import (
	"context"
	"encoding/json/v2"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/dgraph-io/badger/v4"
	"github.com/terplogapp/terplog-server/internal/domain"
)

// EventEmitter receives change notifications from the store.
// Store uses this to announce changes without depending on the sync
// or SSE implementation.
type EventEmitter interface {
	Emit(event any)
}

// NoopEmitter is a no-op implementation of EventEmitter for testing.
type NoopEmitter struct{}

// Emit implements EventEmitter.Emit as a no-op.
func (NoopEmitter) Emit(_ any) {}

// NewNoopEmitter creates a new no-op emitter for testing.
func NewNoopEmitter() EventEmitter {
	return NoopEmitter{}
}

// SearchIndexer keeps the search index in sync with review writes.
// Set after store creation to avoid a circular dependency; updates run
// asynchronously so store operations never block on indexing.
type SearchIndexer interface {
	IndexReview(ctx context.Context, review *domain.Review) error
	DeleteReview(ctx context.Context, reviewID string) error
}

// NoopSearchIndexer is a no-op implementation for testing.
type NoopSearchIndexer struct{}

// IndexReview is a no-op.
func (NoopSearchIndexer) IndexReview(context.Context, *domain.Review) error { return nil }

// DeleteReview is a no-op.
func (NoopSearchIndexer) DeleteReview(context.Context, string) error { return nil }

// NewNoopSearchIndexer creates a new no-op search indexer for testing.
func NewNoopSearchIndexer() SearchIndexer {
	return NoopSearchIndexer{}
}

// Store wraps a Badger database instance.
type Store struct {
	db     *badger.DB
	logger *slog.Logger

	// Change notifications for the sync layer.
	eventEmitter EventEmitter

	// Search indexer for keeping search in sync with review changes.
	// Set via SetSearchIndexer after store creation.
	searchIndexer SearchIndexer

	// Generic entities
	Users    *Entity[domain.User]
	Profiles *Entity[domain.Profile]
}

// New creates a Store at the given database path. The emitter is
// required; pass NewNoopEmitter in tests that don't consume changes.
func New(path string, logger *slog.Logger, emitter EventEmitter) (*Store, error) {
	opts := badger.DefaultOptions(path)
	opts.Logger = nil            // Disable Badger's internal logging
	opts.SyncWrites = true       // Sync writes to disk to survive crashes
	opts.CompactL0OnClose = true // Compact L0 tables on close for faster startup

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger db: %w", err)
	}

	store := &Store{
		db:           db,
		logger:       logger,
		eventEmitter: emitter,
	}

	store.initUsers()
	store.initProfiles()

	if logger != nil {
		logger.Info("Badger database opened successfully", "path", path)
	}

	return store, nil
}

// Close gracefully closes the database connection.
func (s *Store) Close() error {
	if s.logger != nil {
		s.logger.Info("Closing database connection")
	}
	return s.db.Close()
}

// SetSearchIndexer sets the search indexer for keeping search in sync.
// Set after store creation because the search service needs the store
// to exist first.
func (s *Store) SetSearchIndexer(indexer SearchIndexer) {
	s.searchIndexer = indexer
}

// emit sends a change notification if an emitter is configured.
func (s *Store) emit(change Change) {
	if s.eventEmitter != nil {
		s.eventEmitter.Emit(change)
	}
}

// Helper methods for database operations.

// get retrieves a value by key.
func (s *Store) get(key []byte, dest any) error {
	return s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key)
		if err != nil {
			return err
		}

		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, dest)
		})
	})
}

// exists checks if a key exists.
func (s *Store) exists(key []byte) (bool, error) {
	err := s.db.View(func(txn *badger.Txn) error {
		_, err := txn.Get(key)
		return err
	})

	if errors.Is(err, badger.ErrKeyNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// normalizeEmail lowercases and trims an email for index storage so
// lookups are case-insensitive.
func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// initUsers initializes the Users entity with a case-insensitive
// email index for login lookups.
func (s *Store) initUsers() {
	s.Users = NewEntity[domain.User](s, "user:").
		WithIndexTransform("email",
			func(u *domain.User) []string {
				if u.Email == "" {
					// Guest accounts have no email and no index entry.
					return nil
				}
				return []string{normalizeEmail(u.Email)}
			},
			normalizeEmail,
		)
}

// initProfiles initializes the Profiles entity, keyed by user ID.
func (s *Store) initProfiles() {
	s.Profiles = NewEntity[domain.Profile](s, "profile:")
}
