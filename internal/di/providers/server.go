package providers

import (
	"context"
	"net/http"

	"github.com/samber/do/v2"

	"github.com/terplogapp/terplog-server/internal/api"
	"github.com/terplogapp/terplog-server/internal/config"
	"github.com/terplogapp/terplog-server/internal/logger"
	"github.com/terplogapp/terplog-server/internal/service"
	"github.com/terplogapp/terplog-server/internal/sse"
	"github.com/terplogapp/terplog-server/internal/sync"
)

// HTTPServerHandle wraps http.Server with Shutdownable.
type HTTPServerHandle struct {
	*http.Server
}

// Shutdown implements do.Shutdownable.
func (h *HTTPServerHandle) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return h.Server.Shutdown(ctx)
}

// ProvideHTTPServer provides the HTTP server.
func ProvideHTTPServer(i do.Injector) (*HTTPServerHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)
	sseHandle := do.MustInvoke[*SSEManagerHandle](i)
	searchHandle := do.MustInvoke[*SearchIndexHandle](i)
	materializer := do.MustInvoke[*sync.Materializer](i)
	log := do.MustInvoke[*logger.Logger](i)

	authService := do.MustInvoke[*service.AuthService](i)
	sessionService := do.MustInvoke[*service.SessionService](i)
	profileService := do.MustInvoke[*service.ProfileService](i)
	reviewService := do.MustInvoke[*service.ReviewService](i)

	verify := func(token string) (string, error) {
		user, _, err := authService.VerifyAccessToken(context.Background(), token)
		if err != nil {
			return "", err
		}
		return user.ID, nil
	}
	sseHandler := sse.NewHandler(sseHandle.Manager, verify, materializer.PrimeEvents, log.Logger)

	services := api.Services{
		Auth:    authService,
		Session: sessionService,
		Profile: profileService,
		Review:  reviewService,
	}

	handler := api.NewServer(cfg, storeHandle.Store, services, searchHandle.SearchIndex, sseHandler, log.Logger)

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Start in background
	go func() {
		log.Info("HTTP server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("HTTP server error", "error", err)
		}
	}()

	log.Info("Server running", "addr", srv.Addr)

	return &HTTPServerHandle{Server: srv}, nil
}
