package providers

import (
	"context"
	"path/filepath"

	"github.com/samber/do/v2"

	"github.com/terplogapp/terplog-server/internal/config"
	"github.com/terplogapp/terplog-server/internal/logger"
	"github.com/terplogapp/terplog-server/internal/sse"
	"github.com/terplogapp/terplog-server/internal/store"
	"github.com/terplogapp/terplog-server/internal/sync"
)

// SSEManagerHandle wraps the SSE manager with its context for lifecycle management.
type SSEManagerHandle struct {
	*sse.Manager
	cancel context.CancelFunc
}

// Shutdown implements do.Shutdownable.
func (h *SSEManagerHandle) Shutdown() error {
	h.cancel()
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return h.Manager.Shutdown(ctx)
}

// ProvideSSEManager provides the server-sent events manager.
func ProvideSSEManager(i do.Injector) (*SSEManagerHandle, error) {
	log := do.MustInvoke[*logger.Logger](i)

	manager := sse.NewManager(log.Logger)

	// Start in background
	ctx, cancel := context.WithCancel(context.Background())
	go manager.Start(ctx)

	log.Info("SSE manager started")

	return &SSEManagerHandle{
		Manager: manager,
		cancel:  cancel,
	}, nil
}

// ProvideMaterializer provides the sync materializer. Its store reader
// is wired by ProvideStore once the store exists.
func ProvideMaterializer(i do.Injector) (*sync.Materializer, error) {
	sseHandle := do.MustInvoke[*SSEManagerHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	return sync.NewMaterializer(sseHandle.Manager, log.Logger), nil
}

// StoreHandle wraps the store with shutdown capability.
type StoreHandle struct {
	*store.Store
}

// Shutdown implements do.Shutdownable.
func (h *StoreHandle) Shutdown() error {
	return h.Close()
}

// ProvideStore provides the database store. Store changes flow into the
// materializer, which re-reads the store and pushes snapshots over SSE.
func ProvideStore(i do.Injector) (*StoreHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)
	materializer := do.MustInvoke[*sync.Materializer](i)

	dbPath := filepath.Join(cfg.Data.BasePath, "db")
	db, err := store.New(dbPath, log.Logger, materializer)
	if err != nil {
		return nil, err
	}

	materializer.SetReader(db)

	log.Info("Database initialized", "path", dbPath)

	return &StoreHandle{Store: db}, nil
}
