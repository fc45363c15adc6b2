package api

import (
	"context"
	"encoding/hex"
	"encoding/json/v2"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/danielgtaylor/huma/v2/humatest"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/terplogapp/terplog-server/internal/auth"
	"github.com/terplogapp/terplog-server/internal/ratelimit"
	"github.com/terplogapp/terplog-server/internal/service"
	"github.com/terplogapp/terplog-server/internal/store"
	syncpkg "github.com/terplogapp/terplog-server/internal/sync"
)

// noopEmitter discards materialized snapshots in tests.
type noopEmitter struct{}

func (noopEmitter) Emit(_ any) {}

// fakeGenerator returns a canned response or error.
type fakeGenerator struct {
	response string
	err      error
}

func (f *fakeGenerator) Generate(_ context.Context, _, _ string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return f.response, nil
}

// testServer wraps the API server for handler testing.
type testServer struct {
	*Server
	api       humatest.TestAPI
	generator *fakeGenerator
	cleanup   func()
}

// setupTestServer builds a server over temporary storage with a fake
// generative backend and no search index.
func setupTestServer(t *testing.T) *testServer {
	t.Helper()

	tmpDir, err := os.MkdirTemp("", "terplog-api-test-*")
	require.NoError(t, err)

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

	materializer := syncpkg.NewMaterializer(noopEmitter{}, logger)

	st, err := store.New(filepath.Join(tmpDir, "test.db"), nil, materializer)
	require.NoError(t, err)
	materializer.SetReader(st)

	authKey, err := auth.LoadOrGenerateKey(tmpDir)
	require.NoError(t, err)

	tokenService, err := auth.NewTokenService(
		hex.EncodeToString(authKey),
		15*time.Minute,
		30*24*time.Hour,
	)
	require.NoError(t, err)

	sessionService := service.NewSessionService(st, tokenService, logger)
	authService := service.NewAuthService(st, tokenService, sessionService, materializer, logger)
	profileService := service.NewProfileService(st, logger)
	generator := &fakeGenerator{response: "a mellow, balanced high"}
	reviewService := service.NewReviewService(st, materializer, profileService, generator, nil, logger)

	services := Services{
		Auth:    authService,
		Session: sessionService,
		Profile: profileService,
		Review:  reviewService,
	}

	router := chi.NewRouter()

	humaConfig := huma.DefaultConfig("TerpLog API Test", "1.0.0")
	humaConfig.Components.SecuritySchemes = map[string]*huma.SecurityScheme{
		"bearer": {
			Type:         "http",
			Scheme:       "bearer",
			BearerFormat: "PASETO",
		},
	}

	humaAPI := humachi.New(router, humaConfig)
	RegisterErrorHandler()

	s := &Server{
		store:    st,
		services: services,
		router:   router,
		api:      humaAPI,
		logger:   logger,
		// Generous limit so tests never trip it.
		authLimiter: ratelimit.New(100, 50),
	}

	s.registerHealthRoutes()
	s.registerAuthRoutes()
	s.registerProfileRoutes()
	s.registerReviewRoutes()
	s.registerViewRoutes()
	s.registerPopularRoutes()
	s.registerReferenceRoutes()
	s.registerSearchRoutes()

	cleanup := func() {
		_ = st.Close()
		_ = os.RemoveAll(tmpDir)
	}

	return &testServer{
		Server:    s,
		api:       humatest.Wrap(t, humaAPI),
		generator: generator,
		cleanup:   cleanup,
	}
}

// registerUser registers an account and returns a bearer header value.
func (ts *testServer) registerUser(t *testing.T, email string) (authHeader string, resp AuthResponse) {
	t.Helper()

	r := ts.api.Post("/api/v1/auth/register", map[string]any{
		"email":    email,
		"password": "SecurePassword123!",
	})
	require.Equal(t, http.StatusOK, r.Code, "register failed: %s", r.Body.String())

	require.NoError(t, json.Unmarshal(r.Body.Bytes(), &resp))
	return "Authorization: Bearer " + resp.AccessToken, resp
}

func TestHealth(t *testing.T) {
	ts := setupTestServer(t)
	defer ts.cleanup()

	resp := ts.api.Get("/health")
	assert.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), "ok")
}

func TestAuth_RegisterAndLogin(t *testing.T) {
	ts := setupTestServer(t)
	defer ts.cleanup()

	_, registered := ts.registerUser(t, "jess@example.com")
	assert.NotEmpty(t, registered.AccessToken)
	assert.NotEmpty(t, registered.RefreshToken)
	assert.Equal(t, "Bearer", registered.TokenType)
	assert.Equal(t, "jess@example.com", registered.User.Email)

	// Duplicate email conflicts.
	resp := ts.api.Post("/api/v1/auth/register", map[string]any{
		"email":    "jess@example.com",
		"password": "AnotherPassword123!",
	})
	assert.Equal(t, http.StatusConflict, resp.Code)

	// Weak password is a 400.
	resp = ts.api.Post("/api/v1/auth/register", map[string]any{
		"email":    "other@example.com",
		"password": "short",
	})
	assert.Equal(t, http.StatusBadRequest, resp.Code)

	// Login succeeds with the right password.
	resp = ts.api.Post("/api/v1/auth/login", map[string]any{
		"email":    "jess@example.com",
		"password": "SecurePassword123!",
	})
	assert.Equal(t, http.StatusOK, resp.Code)

	// Wrong password is a 401.
	resp = ts.api.Post("/api/v1/auth/login", map[string]any{
		"email":    "jess@example.com",
		"password": "WrongPassword123!",
	})
	assert.Equal(t, http.StatusUnauthorized, resp.Code)
}

func TestAuth_Guest(t *testing.T) {
	ts := setupTestServer(t)
	defer ts.cleanup()

	resp := ts.api.Post("/api/v1/auth/guest")
	require.Equal(t, http.StatusOK, resp.Code)

	var body AuthResponse
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &body))
	assert.True(t, body.User.IsGuest)
	assert.Empty(t, body.User.Email)
	assert.NotEmpty(t, body.AccessToken)
}

func TestAuth_RefreshRotation(t *testing.T) {
	ts := setupTestServer(t)
	defer ts.cleanup()

	_, registered := ts.registerUser(t, "jess@example.com")

	resp := ts.api.Post("/api/v1/auth/refresh", map[string]any{
		"refresh_token": registered.RefreshToken,
	})
	require.Equal(t, http.StatusOK, resp.Code)

	var refreshed AuthResponse
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &refreshed))
	assert.NotEqual(t, registered.RefreshToken, refreshed.RefreshToken)

	// The rotated-out token is rejected.
	resp = ts.api.Post("/api/v1/auth/refresh", map[string]any{
		"refresh_token": registered.RefreshToken,
	})
	assert.Equal(t, http.StatusUnauthorized, resp.Code)
}

func TestAuth_Logout(t *testing.T) {
	ts := setupTestServer(t)
	defer ts.cleanup()

	header, registered := ts.registerUser(t, "jess@example.com")

	resp := ts.api.Post("/api/v1/auth/logout", header, map[string]any{
		"session_id": registered.SessionID,
	})
	require.Equal(t, http.StatusOK, resp.Code)

	// The session's refresh token no longer works.
	resp = ts.api.Post("/api/v1/auth/refresh", map[string]any{
		"refresh_token": registered.RefreshToken,
	})
	assert.Equal(t, http.StatusUnauthorized, resp.Code)
}

func TestAuth_MissingToken(t *testing.T) {
	ts := setupTestServer(t)
	defer ts.cleanup()

	resp := ts.api.Get("/api/v1/reviews")
	assert.Equal(t, http.StatusUnauthorized, resp.Code)

	resp = ts.api.Get("/api/v1/reviews", "Authorization: Bearer not-a-token")
	assert.Equal(t, http.StatusUnauthorized, resp.Code)
}

func TestReviews_CreateListGetDelete(t *testing.T) {
	ts := setupTestServer(t)
	defer ts.cleanup()

	header, _ := ts.registerUser(t, "jess@example.com")

	resp := ts.api.Post("/api/v1/reviews", header, map[string]any{
		"strain":   "Blue Dream",
		"rating":   4,
		"type":     "Hybrid",
		"terpenes": []string{"Myrcene", "Pinene"},
		"effects":  "relaxed, creative",
	})
	require.Equal(t, http.StatusOK, resp.Code, "create failed: %s", resp.Body.String())

	var created ReviewResponse
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &created))
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, "Blue Dream", created.Strain)

	// List includes the new review.
	resp = ts.api.Get("/api/v1/reviews", header)
	require.Equal(t, http.StatusOK, resp.Code)

	var list ReviewListResponse
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &list))
	require.Equal(t, 1, list.Total)
	assert.Equal(t, created.ID, list.Reviews[0].ID)

	// Query narrowing works through the endpoint.
	resp = ts.api.Get("/api/v1/reviews?q=zkittlez", header)
	require.Equal(t, http.StatusOK, resp.Code)
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &list))
	assert.Equal(t, 0, list.Total)

	// Get by ID.
	resp = ts.api.Get("/api/v1/reviews/"+created.ID, header)
	assert.Equal(t, http.StatusOK, resp.Code)

	// Delete, then the review is gone.
	resp = ts.api.Delete("/api/v1/reviews/"+created.ID, header)
	assert.Equal(t, http.StatusOK, resp.Code)

	resp = ts.api.Get("/api/v1/reviews/"+created.ID, header)
	assert.Equal(t, http.StatusNotFound, resp.Code)
}

func TestReviews_ValidationGate(t *testing.T) {
	ts := setupTestServer(t)
	defer ts.cleanup()

	header, _ := ts.registerUser(t, "jess@example.com")

	// A present-but-blank strain passes the schema and hits the gate.
	resp := ts.api.Post("/api/v1/reviews", header, map[string]any{
		"strain": "   ",
		"rating": 4,
	})
	assert.Equal(t, http.StatusBadRequest, resp.Code)
	assert.Contains(t, resp.Body.String(), "strain name is required")

	resp = ts.api.Post("/api/v1/reviews", header, map[string]any{
		"strain": "OG Kush",
		"rating": 6,
	})
	assert.Equal(t, http.StatusBadRequest, resp.Code)
	assert.Contains(t, resp.Body.String(), "rating must be between 1 and 5")
}

func TestReviews_PrivateAcrossUsers(t *testing.T) {
	ts := setupTestServer(t)
	defer ts.cleanup()

	ownerHeader, _ := ts.registerUser(t, "owner@example.com")
	otherHeader, _ := ts.registerUser(t, "other@example.com")

	resp := ts.api.Post("/api/v1/reviews", ownerHeader, map[string]any{
		"strain": "Blue Dream",
		"rating": 3,
	})
	require.Equal(t, http.StatusOK, resp.Code)

	var created ReviewResponse
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &created))

	// Non-owners see a 404, not a 403.
	resp = ts.api.Get("/api/v1/reviews/"+created.ID, otherHeader)
	assert.Equal(t, http.StatusNotFound, resp.Code)

	resp = ts.api.Get("/api/v1/reviews", otherHeader)
	require.Equal(t, http.StatusOK, resp.Code)

	var list ReviewListResponse
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &list))
	assert.Equal(t, 0, list.Total)
}

func TestPopular_MirrorLifecycle(t *testing.T) {
	ts := setupTestServer(t)
	defer ts.cleanup()

	header, _ := ts.registerUser(t, "jess@example.com")

	// Low rated reviews stay private.
	resp := ts.api.Post("/api/v1/reviews", header, map[string]any{
		"strain": "Sour Diesel",
		"rating": 3,
	})
	require.Equal(t, http.StatusOK, resp.Code)

	resp = ts.api.Get("/api/v1/popular", header)
	require.Equal(t, http.StatusOK, resp.Code)

	var popular PopularListResponse
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &popular))
	assert.Empty(t, popular.Strains)

	// A highly rated review lands in the shared collection.
	resp = ts.api.Post("/api/v1/reviews", header, map[string]any{
		"strain": "Blue Dream",
		"rating": 5,
	})
	require.Equal(t, http.StatusOK, resp.Code)

	var created ReviewResponse
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &created))

	resp = ts.api.Get("/api/v1/popular", header)
	require.Equal(t, http.StatusOK, resp.Code)
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &popular))
	require.Len(t, popular.Strains, 1)
	assert.Equal(t, "Blue Dream", popular.Strains[0].Strain)
	assert.Equal(t, "Anonymous", popular.Strains[0].AddedBy)

	// Deleting the source review leaves the public entry in place.
	resp = ts.api.Delete("/api/v1/reviews/"+created.ID, header)
	require.Equal(t, http.StatusOK, resp.Code)

	resp = ts.api.Get("/api/v1/popular", header)
	require.Equal(t, http.StatusOK, resp.Code)
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &popular))
	assert.Len(t, popular.Strains, 1)
}

func TestProfile_SaveOnce(t *testing.T) {
	ts := setupTestServer(t)
	defer ts.cleanup()

	header, _ := ts.registerUser(t, "jess@example.com")

	// No profile yet.
	resp := ts.api.Get("/api/v1/profile", header)
	assert.Equal(t, http.StatusNotFound, resp.Code)

	resp = ts.api.Put("/api/v1/profile", header, map[string]any{
		"name":  "Jess",
		"state": "CA",
	})
	require.Equal(t, http.StatusOK, resp.Code, "save failed: %s", resp.Body.String())

	resp = ts.api.Get("/api/v1/profile", header)
	require.Equal(t, http.StatusOK, resp.Code)

	var profile ProfileResponse
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &profile))
	assert.Equal(t, "Jess", profile.Name)
	assert.Equal(t, "CA", profile.State)

	// The second save conflicts.
	resp = ts.api.Put("/api/v1/profile", header, map[string]any{
		"name":  "Someone Else",
		"state": "OR",
	})
	assert.Equal(t, http.StatusConflict, resp.Code)
}

func TestViews_DashboardAndBreakdown(t *testing.T) {
	ts := setupTestServer(t)
	defer ts.cleanup()

	header, _ := ts.registerUser(t, "jess@example.com")

	resp := ts.api.Post("/api/v1/reviews", header, map[string]any{
		"strain":       "Blue Dream",
		"rating":       5,
		"product_type": "Flower",
		"cost":         40,
	})
	require.Equal(t, http.StatusOK, resp.Code)
	resp = ts.api.Post("/api/v1/reviews", header, map[string]any{
		"strain":       "Sour Diesel",
		"rating":       2,
		"product_type": "Flower",
		"cost":         30,
	})
	require.Equal(t, http.StatusOK, resp.Code)

	resp = ts.api.Get("/api/v1/views/dashboard", header)
	require.Equal(t, http.StatusOK, resp.Code)

	var dashboard ReviewListResponse
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &dashboard))
	require.Equal(t, 1, dashboard.Total)
	assert.Equal(t, "Blue Dream", dashboard.Reviews[0].Strain)

	resp = ts.api.Get("/api/v1/views/breakdown", header)
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), "Flower")
}

func TestAnalysis_Flow(t *testing.T) {
	ts := setupTestServer(t)
	defer ts.cleanup()

	header, _ := ts.registerUser(t, "jess@example.com")

	resp := ts.api.Post("/api/v1/reviews", header, map[string]any{
		"strain":  "Blue Dream",
		"rating":  4,
		"effects": "relaxed",
	})
	require.Equal(t, http.StatusOK, resp.Code)

	var created ReviewResponse
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &created))

	resp = ts.api.Post("/api/v1/reviews/"+created.ID+"/analysis", header)
	require.Equal(t, http.StatusOK, resp.Code)

	var analysis AnalysisResponse
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &analysis))
	assert.Equal(t, "a mellow, balanced high", analysis.Analysis)
	assert.True(t, analysis.Persisted)

	// The review now carries the analysis.
	resp = ts.api.Get("/api/v1/reviews/"+created.ID, header)
	require.Equal(t, http.StatusOK, resp.Code)

	var review ReviewResponse
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &review))
	assert.Equal(t, "a mellow, balanced high", review.Analysis)
}

func TestAnalysis_ProviderDown(t *testing.T) {
	ts := setupTestServer(t)
	defer ts.cleanup()

	header, _ := ts.registerUser(t, "jess@example.com")

	resp := ts.api.Post("/api/v1/reviews", header, map[string]any{
		"strain": "Blue Dream",
		"rating": 4,
	})
	require.Equal(t, http.StatusOK, resp.Code)

	var created ReviewResponse
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &created))

	ts.generator.err = errors.New("backend unavailable")

	resp = ts.api.Post("/api/v1/reviews/"+created.ID+"/analysis", header)
	require.Equal(t, http.StatusOK, resp.Code)

	var analysis AnalysisResponse
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &analysis))
	assert.Equal(t, service.AnalysisUnavailable, analysis.Analysis)
	assert.False(t, analysis.Persisted)
}

func TestShare(t *testing.T) {
	ts := setupTestServer(t)
	defer ts.cleanup()

	header, _ := ts.registerUser(t, "jess@example.com")

	resp := ts.api.Post("/api/v1/reviews", header, map[string]any{
		"strain": "Blue Dream",
		"rating": 4,
		"type":   "Hybrid",
	})
	require.Equal(t, http.StatusOK, resp.Code)

	var created ReviewResponse
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &created))

	resp = ts.api.Get("/api/v1/reviews/"+created.ID+"/share", header)
	require.Equal(t, http.StatusOK, resp.Code)

	var share ShareResponse
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &share))
	assert.Contains(t, share.Text, "Blue Dream (Hybrid)")
	assert.Contains(t, share.Text, "★★★★☆")
	assert.Contains(t, share.Text, "Logged with TerpLog")
}

func TestReference_Unauthenticated(t *testing.T) {
	ts := setupTestServer(t)
	defer ts.cleanup()

	resp := ts.api.Get("/api/v1/legality")
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), "CA")

	resp = ts.api.Get("/api/v1/legality/CA")
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), "California")

	resp = ts.api.Get("/api/v1/legality/ZZ")
	assert.Equal(t, http.StatusNotFound, resp.Code)

	resp = ts.api.Get("/api/v1/reference/terpenes")
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), "Myrcene")
}

func TestSearch_UnavailableWithoutIndex(t *testing.T) {
	ts := setupTestServer(t)
	defer ts.cleanup()

	header, _ := ts.registerUser(t, "jess@example.com")

	resp := ts.api.Get("/api/v1/search?q=blue", header)
	assert.Equal(t, http.StatusServiceUnavailable, resp.Code)

	resp = ts.api.Get("/api/v1/search?q=blue")
	assert.Equal(t, http.StatusUnauthorized, resp.Code)
}

func TestSuggest(t *testing.T) {
	ts := setupTestServer(t)
	defer ts.cleanup()

	header, _ := ts.registerUser(t, "jess@example.com")

	resp := ts.api.Post("/api/v1/strains/suggest", header, map[string]any{
		"preferences": "something for sleep",
	})
	require.Equal(t, http.StatusOK, resp.Code)

	var suggest SuggestResponse
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &suggest))
	assert.Equal(t, "a mellow, balanced high", suggest.Suggestions)

	// Blank preferences are rejected.
	resp = ts.api.Post("/api/v1/strains/suggest", header, map[string]any{
		"preferences": "   ",
	})
	assert.Equal(t, http.StatusBadRequest, resp.Code)
}
