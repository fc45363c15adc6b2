package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/terplogapp/terplog-server/internal/domain"
)

func testSession(id, userID, tokenHash string) *domain.Session {
	return &domain.Session{
		ID:               id,
		UserID:           userID,
		RefreshTokenHash: tokenHash,
		CreatedAt:        time.Now(),
		ExpiresAt:        time.Now().Add(24 * time.Hour),
	}
}

func TestCreateSession(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()

	session := testSession("session_test123", "user_test123", "hashed_token")
	err := store.CreateSession(ctx, session)
	require.NoError(t, err)

	retrieved, err := store.GetSession(ctx, session.ID)
	require.NoError(t, err)
	assert.Equal(t, session.ID, retrieved.ID)
	assert.Equal(t, session.UserID, retrieved.UserID)
	assert.Equal(t, session.RefreshTokenHash, retrieved.RefreshTokenHash)
}

func TestCreateSession_DuplicateID(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()

	require.NoError(t, store.CreateSession(ctx, testSession("session_test123", "user_test123", "token1")))

	err := store.CreateSession(ctx, testSession("session_test123", "user_test123", "token2"))
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")
}

func TestGetSession_NotFound(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	_, err := store.GetSession(context.Background(), "session_nonexistent")
	assert.Error(t, err)
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestGetSession_Expired(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()

	session := testSession("session_test123", "user_test123", "hashed_token")
	session.ExpiresAt = time.Now().Add(-1 * time.Hour)
	require.NoError(t, store.CreateSession(ctx, session))

	_, err := store.GetSession(ctx, session.ID)
	assert.Error(t, err)
	assert.ErrorIs(t, err, ErrSessionExpired)
}

func TestGetSession_Revoked(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()

	session := testSession("session_test123", "user_test123", "hashed_token")
	session.RevokedAt = time.Now()
	require.NoError(t, store.CreateSession(ctx, session))

	_, err := store.GetSession(ctx, session.ID)
	assert.ErrorIs(t, err, ErrSessionExpired)
}

func TestGetSessionByRefreshToken(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()

	session := testSession("session_test123", "user_test123", "unique_token_hash")
	require.NoError(t, store.CreateSession(ctx, session))

	retrieved, err := store.GetSessionByRefreshToken(ctx, "unique_token_hash")
	require.NoError(t, err)
	assert.Equal(t, session.ID, retrieved.ID)

	_, err = store.GetSessionByRefreshToken(ctx, "nonexistent_token")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestUpdateSession_TokenRotation(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()

	session := testSession("session_test123", "user_test123", "old_token_hash")
	require.NoError(t, store.CreateSession(ctx, session))

	session.RefreshTokenHash = "new_token_hash"
	session.LastUsedAt = time.Now()
	require.NoError(t, store.UpdateSession(ctx, session))

	// The old token is dead.
	_, err := store.GetSessionByRefreshToken(ctx, "old_token_hash")
	assert.ErrorIs(t, err, ErrSessionNotFound)

	// The new token resolves to the same session.
	retrieved, err := store.GetSessionByRefreshToken(ctx, "new_token_hash")
	require.NoError(t, err)
	assert.Equal(t, session.ID, retrieved.ID)
	assert.False(t, retrieved.LastUsedAt.IsZero())
}

func TestDeleteSession(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()

	session := testSession("session_test123", "user_test123", "hashed_token")
	require.NoError(t, store.CreateSession(ctx, session))

	require.NoError(t, store.DeleteSession(ctx, session.ID))

	_, err := store.GetSession(ctx, session.ID)
	assert.ErrorIs(t, err, ErrSessionNotFound)

	// The token index is cleaned up too.
	_, err = store.GetSessionByRefreshToken(ctx, "hashed_token")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestDeleteSession_NonExistent(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	assert.NoError(t, store.DeleteSession(context.Background(), "session_nonexistent"))
}

func TestListUserSessions(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()

	require.NoError(t, store.CreateSession(ctx, testSession("session_1", "user_a", "token1")))
	require.NoError(t, store.CreateSession(ctx, testSession("session_2", "user_a", "token2")))
	require.NoError(t, store.CreateSession(ctx, testSession("session_3", "user_b", "token3")))

	expired := testSession("session_4", "user_a", "token4")
	expired.ExpiresAt = time.Now().Add(-1 * time.Hour)
	require.NoError(t, store.CreateSession(ctx, expired))

	sessions, err := store.ListUserSessions(ctx, "user_a")
	require.NoError(t, err)
	assert.Len(t, sessions, 2)

	ids := make(map[string]bool)
	for _, s := range sessions {
		ids[s.ID] = true
		assert.Equal(t, "user_a", s.UserID)
	}
	assert.True(t, ids["session_1"])
	assert.True(t, ids["session_2"])
}

func TestDeleteAllUserSessions(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()

	require.NoError(t, store.CreateSession(ctx, testSession("session_1", "user_a", "token1")))
	require.NoError(t, store.CreateSession(ctx, testSession("session_2", "user_a", "token2")))
	require.NoError(t, store.CreateSession(ctx, testSession("session_3", "user_b", "token3")))

	require.NoError(t, store.DeleteAllUserSessions(ctx, "user_a"))

	sessions, err := store.ListUserSessions(ctx, "user_a")
	require.NoError(t, err)
	assert.Empty(t, sessions)

	// Other users are untouched.
	_, err = store.GetSession(ctx, "session_3")
	assert.NoError(t, err)
}

func TestDeleteExpiredSessions(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()

	require.NoError(t, store.CreateSession(ctx, testSession("session_active", "user_a", "token_active")))

	for i, id := range []string{"session_expired1", "session_expired2"} {
		expired := testSession(id, "user_a", "token_expired"+string(rune('1'+i)))
		expired.ExpiresAt = time.Now().Add(-time.Duration(i+1) * time.Hour)
		require.NoError(t, store.CreateSession(ctx, expired))
	}

	count, err := store.DeleteExpiredSessions(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	_, err = store.GetSession(ctx, "session_active")
	assert.NoError(t, err)

	_, err = store.GetSession(ctx, "session_expired1")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}
