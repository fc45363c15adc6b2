// Package api implements the HTTP API server for TerpLog.
package api

import (
	"log/slog"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/terplogapp/terplog-server/internal/config"
	"github.com/terplogapp/terplog-server/internal/ratelimit"
	"github.com/terplogapp/terplog-server/internal/search"
	"github.com/terplogapp/terplog-server/internal/store"
)

// Server is the HTTP API server. Routes are registered through huma so
// the OpenAPI document stays in lockstep with the handlers.
type Server struct {
	store       *store.Store
	services    Services
	searchIndex *search.SearchIndex
	sseHandler  http.Handler
	router      chi.Router
	api         huma.API
	logger      *slog.Logger
	authLimiter *ratelimit.KeyedRateLimiter
}

// NewServer creates the API server and registers all routes.
// searchIndex and sseHandler may be nil in tests.
func NewServer(
	cfg *config.Config,
	st *store.Store,
	services Services,
	searchIndex *search.SearchIndex,
	sseHandler http.Handler,
	logger *slog.Logger,
) *Server {
	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middleware.Recoverer)

	origins := []string{"*"}
	if cfg != nil && len(cfg.Server.CORSOrigins) > 0 {
		origins = cfg.Server.CORSOrigins
	}
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	serverName := "TerpLog Server"
	if cfg != nil && cfg.Server.Name != "" {
		serverName = cfg.Server.Name
	}

	humaConfig := huma.DefaultConfig(serverName, "1.0.0")
	humaConfig.Components.SecuritySchemes = map[string]*huma.SecurityScheme{
		"bearer": {
			Type:         "http",
			Scheme:       "bearer",
			BearerFormat: "PASETO",
		},
	}

	api := humachi.New(router, humaConfig)
	RegisterErrorHandler()

	s := &Server{
		store:       st,
		services:    services,
		searchIndex: searchIndex,
		sseHandler:  sseHandler,
		router:      router,
		api:         api,
		logger:      logger,
		// Credential endpoints get 20 attempts per minute per IP.
		authLimiter: ratelimit.New(20.0/60.0, 10),
	}

	s.registerHealthRoutes()
	s.registerAuthRoutes()
	s.registerProfileRoutes()
	s.registerReviewRoutes()
	s.registerViewRoutes()
	s.registerPopularRoutes()
	s.registerReferenceRoutes()
	s.registerSearchRoutes()

	// SSE sits outside huma; streaming responses don't fit its
	// request/response model.
	if sseHandler != nil {
		router.Get("/api/v1/sync/stream", sseHandler.ServeHTTP)
	}

	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Router returns the underlying chi router.
func (s *Server) Router() chi.Router {
	return s.router
}
