package auth

import (
	"encoding/hex"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/terplogapp/terplog-server/internal/domain"
)

func TestHashPassword_VerifyRoundTrip(t *testing.T) {
	hash, err := HashPassword("SecurePassword123!")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(hash, "$argon2id$"))

	ok, err := VerifyPassword(hash, "SecurePassword123!")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = VerifyPassword(hash, "WrongPassword123!")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestHashPassword_EmptyPassword(t *testing.T) {
	_, err := HashPassword("")
	assert.Error(t, err)
}

func TestHashPassword_UniqueSalts(t *testing.T) {
	first, err := HashPassword("SecurePassword123!")
	require.NoError(t, err)
	second, err := HashPassword("SecurePassword123!")
	require.NoError(t, err)

	// Same password, different salt, different hash.
	assert.NotEqual(t, first, second)
}

func TestVerifyPassword_MalformedHash(t *testing.T) {
	// Malformed hashes verify as false, never as an error.
	ok, err := VerifyPassword("not-a-hash", "password")
	assert.NoError(t, err)
	assert.False(t, ok)

	ok, err = VerifyPassword("$bcrypt$v=19$m=65536,t=3,p=4$salt$hash", "password")
	assert.NoError(t, err)
	assert.False(t, ok)
}

func testTokenService(t *testing.T, accessDuration time.Duration) *TokenService {
	t.Helper()

	key := make([]byte, keyLength)
	for i := range key {
		key[i] = byte(i)
	}

	ts, err := NewTokenService(hex.EncodeToString(key), accessDuration, 30*24*time.Hour)
	require.NoError(t, err)
	return ts
}

func TestNewTokenService_KeyValidation(t *testing.T) {
	_, err := NewTokenService("too-short", time.Minute, time.Hour)
	assert.Error(t, err)

	_, err = NewTokenService(strings.Repeat("zz", keyLength), time.Minute, time.Hour)
	assert.Error(t, err)

	_, err = NewTokenService(strings.Repeat("ab", keyLength), time.Minute, time.Hour)
	assert.NoError(t, err)
}

func TestAccessToken_RoundTrip(t *testing.T) {
	ts := testTokenService(t, 15*time.Minute)

	user := &domain.User{ID: "user-123", IsGuest: false}
	token, err := ts.GenerateAccessToken(user)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(token, "v4.local."))

	claims, err := ts.VerifyAccessToken(token)
	require.NoError(t, err)
	assert.Equal(t, "user-123", claims.UserID)
	assert.False(t, claims.IsGuest)
}

func TestAccessToken_GuestClaim(t *testing.T) {
	ts := testTokenService(t, 15*time.Minute)

	token, err := ts.GenerateAccessToken(&domain.User{ID: "user-guest", IsGuest: true})
	require.NoError(t, err)

	claims, err := ts.VerifyAccessToken(token)
	require.NoError(t, err)
	assert.True(t, claims.IsGuest)
}

func TestAccessToken_Expired(t *testing.T) {
	ts := testTokenService(t, -1*time.Minute)

	token, err := ts.GenerateAccessToken(&domain.User{ID: "user-123"})
	require.NoError(t, err)

	_, err = ts.VerifyAccessToken(token)
	assert.Error(t, err)
}

func TestAccessToken_WrongKey(t *testing.T) {
	ts := testTokenService(t, 15*time.Minute)

	token, err := ts.GenerateAccessToken(&domain.User{ID: "user-123"})
	require.NoError(t, err)

	other, err := NewTokenService(strings.Repeat("cd", keyLength), 15*time.Minute, time.Hour)
	require.NoError(t, err)

	_, err = other.VerifyAccessToken(token)
	assert.Error(t, err)
}

func TestAccessToken_Garbage(t *testing.T) {
	ts := testTokenService(t, 15*time.Minute)

	_, err := ts.VerifyAccessToken("not-a-token")
	assert.Error(t, err)
}

func TestGenerateRefreshToken(t *testing.T) {
	ts := testTokenService(t, 15*time.Minute)

	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		token, err := ts.GenerateRefreshToken()
		require.NoError(t, err)
		assert.NotEmpty(t, token)
		assert.False(t, seen[token], "refresh tokens must be unique")
		seen[token] = true
	}
}

func TestHashRefreshToken_Deterministic(t *testing.T) {
	ts := testTokenService(t, 15*time.Minute)

	token, err := ts.GenerateRefreshToken()
	require.NoError(t, err)

	first := HashRefreshToken(token)
	second := HashRefreshToken(token)
	assert.Equal(t, first, second)
	assert.NotEqual(t, token, first)

	other, err := ts.GenerateRefreshToken()
	require.NoError(t, err)
	assert.NotEqual(t, first, HashRefreshToken(other))
}

func TestLoadOrGenerateKey_GeneratesAndPersists(t *testing.T) {
	tmpDir, err := os.MkdirTemp("", "auth-key-test-*")
	require.NoError(t, err)
	defer os.RemoveAll(tmpDir)

	key, err := LoadOrGenerateKey(tmpDir)
	require.NoError(t, err)
	assert.Len(t, key, keyLength)

	// Loading again returns the same key.
	reloaded, err := LoadOrGenerateKey(tmpDir)
	require.NoError(t, err)
	assert.Equal(t, key, reloaded)
}

func TestLoadOrGenerateKey_RejectsCorruptKeyFile(t *testing.T) {
	tmpDir, err := os.MkdirTemp("", "auth-key-test-*")
	require.NoError(t, err)
	defer os.RemoveAll(tmpDir)

	keyPath := tmpDir + "/auth.key"
	require.NoError(t, os.WriteFile(keyPath, []byte("short"), 0o600))

	_, err = LoadOrGenerateKey(tmpDir)
	assert.Error(t, err)
}
