package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/terplogapp/terplog-server/internal/domain"
)

func TestCreateUser(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()

	user := &domain.User{
		ID:           "user_test123",
		Email:        "jess@example.com",
		PasswordHash: "hashed_password",
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}

	err := store.CreateUser(ctx, user)
	require.NoError(t, err)

	retrieved, err := store.GetUser(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, user.ID, retrieved.ID)
	assert.Equal(t, user.Email, retrieved.Email)
	assert.Equal(t, user.PasswordHash, retrieved.PasswordHash)
	assert.False(t, retrieved.IsGuest)
}

func TestCreateUser_DuplicateEmail(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()

	user1 := &domain.User{
		ID:        "user_test1",
		Email:     "jess@example.com",
		CreatedAt: time.Now(),
	}
	require.NoError(t, store.CreateUser(ctx, user1))

	user2 := &domain.User{
		ID:        "user_test2",
		Email:     "jess@example.com",
		CreatedAt: time.Now(),
	}
	err := store.CreateUser(ctx, user2)
	assert.Error(t, err)
	assert.ErrorIs(t, err, ErrEmailExists)
}

func TestCreateUser_EmailCaseInsensitive(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()

	user := &domain.User{
		ID:        "user_test1",
		Email:     "Jess@Example.COM",
		CreatedAt: time.Now(),
	}
	require.NoError(t, store.CreateUser(ctx, user))

	// Lookup with different casing finds the same user.
	retrieved, err := store.GetUserByEmail(ctx, "jess@example.com")
	require.NoError(t, err)
	assert.Equal(t, user.ID, retrieved.ID)

	// A second registration with different casing conflicts.
	dup := &domain.User{
		ID:        "user_test2",
		Email:     "JESS@example.com",
		CreatedAt: time.Now(),
	}
	err = store.CreateUser(ctx, dup)
	assert.ErrorIs(t, err, ErrEmailExists)
}

func TestCreateUser_GuestsHaveNoEmailIndex(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()

	// Multiple guests with empty emails must not collide.
	for _, id := range []string{"user_guest1", "user_guest2"} {
		guest := &domain.User{
			ID:        id,
			IsGuest:   true,
			CreatedAt: time.Now(),
		}
		require.NoError(t, store.CreateUser(ctx, guest))
	}

	_, err := store.GetUserByEmail(ctx, "")
	assert.Error(t, err)
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestGetUser_NotFound(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	_, err := store.GetUser(context.Background(), "user_nonexistent")
	assert.Error(t, err)
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestGetUserByEmail_NotFound(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	_, err := store.GetUserByEmail(context.Background(), "nobody@example.com")
	assert.Error(t, err)
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestUpdateUser(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()

	user := &domain.User{
		ID:           "user_test123",
		Email:        "jess@example.com",
		PasswordHash: "old_hash",
		CreatedAt:    time.Now(),
	}
	require.NoError(t, store.CreateUser(ctx, user))

	user.PasswordHash = "new_hash"
	require.NoError(t, store.UpdateUser(ctx, user))

	retrieved, err := store.GetUser(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "new_hash", retrieved.PasswordHash)
	assert.False(t, retrieved.UpdatedAt.IsZero())

	// The email index survives an update with the same email.
	byEmail, err := store.GetUserByEmail(ctx, "jess@example.com")
	require.NoError(t, err)
	assert.Equal(t, user.ID, byEmail.ID)
}

func TestUpdateUser_NotFound(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	err := store.UpdateUser(context.Background(), &domain.User{ID: "user_nonexistent"})
	assert.Error(t, err)
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestTouchLastLogin(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()

	user := &domain.User{
		ID:        "user_test123",
		Email:     "jess@example.com",
		CreatedAt: time.Now(),
	}
	require.NoError(t, store.CreateUser(ctx, user))

	require.NoError(t, store.TouchLastLogin(ctx, user.ID))

	retrieved, err := store.GetUser(ctx, user.ID)
	require.NoError(t, err)
	assert.False(t, retrieved.LastLoginAt.IsZero())
}
