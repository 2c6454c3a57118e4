// Package internal provides the main application initialization and runtime logic.
package internal

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	charmlog "github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/starford/vaultkit/internal/api"
	"github.com/starford/vaultkit/internal/entity"
	"github.com/starford/vaultkit/internal/index"
	"github.com/starford/vaultkit/internal/mcpserver"
	"github.com/starford/vaultkit/internal/noteservice"
	"github.com/starford/vaultkit/internal/sse"
	"github.com/starford/vaultkit/internal/storage"
	"github.com/starford/vaultkit/internal/tags"
)

// App holds the components shared by every command. The vault store and
// the ledger are opened on first use so manifest and hook commands run
// without a vault.
type App struct {
	cfg    *Config
	logger *slog.Logger
	out    io.Writer

	store *storage.FS
	db    *index.DB
	norm  *tags.Normalizer
}

// New builds an App from the given options.
func New(opts ...Option) (*App, error) {
	app := &application{}

	for _, opt := range opts {
		opt(app)
	}

	if app.config == nil {
		return nil, fmt.Errorf("config is required")
	}
	if app.out == nil {
		app.out = os.Stdout
	}

	cfg := app.config
	logger := NewLogger(cfg.App)
	slog.SetDefault(logger)

	norm, err := cfg.Tags.Normalizer()
	if err != nil {
		return nil, fmt.Errorf("init tags: %w", err)
	}

	logger.Debug("Configuration loaded",
		slog.String("vault_path", cfg.Vault.Path),
		slog.String("sqlite_path", cfg.SQLite.Path),
		slog.String("log_level", cfg.App.LogLevel.String()))

	return &App{cfg: cfg, logger: logger, out: app.out, norm: norm}, nil
}

// NewLogger returns the process logger: JSON on stderr, or a human
// console handler when log_format is text.
func NewLogger(cfg ApplicationConfig) *slog.Logger {
	if cfg.LogFormat == LogFormatText {
		return slog.New(charmlog.NewWithOptions(os.Stderr, charmlog.Options{
			ReportTimestamp: true,
			Level:           charmlog.Level(cfg.LogLevel),
		}))
	}
	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}))
}

// Close releases the ledger.
func (a *App) Close() error {
	if a.db != nil {
		return a.db.Close()
	}
	return nil
}

// Logger returns the application logger.
func (a *App) Logger() *slog.Logger { return a.logger }

func (a *App) vault() (*storage.FS, error) {
	if a.store != nil {
		return a.store, nil
	}
	store, err := storage.NewFS(a.cfg.Vault.Path, a.cfg.Vault.Skip())
	if err != nil {
		return nil, fmt.Errorf("init storage: %w", err)
	}
	a.store = store
	return store, nil
}

func (a *App) ledger() (*index.DB, error) {
	if a.db != nil {
		return a.db, nil
	}
	if err := os.MkdirAll(filepath.Dir(a.cfg.SQLite.Path), 0o755); err != nil {
		return nil, fmt.Errorf("create ledger dir: %w", err)
	}
	db, err := index.Open(a.cfg.SQLite.Path)
	if err != nil {
		return nil, fmt.Errorf("init index: %w", err)
	}
	a.db = db
	return db, nil
}

// service wires the read-side service over the vault and the ledger,
// bringing the ledger up to date first.
func (a *App) service() (*noteservice.Service, *storage.FS, *index.DB, error) {
	store, err := a.vault()
	if err != nil {
		return nil, nil, nil, err
	}
	db, err := a.ledger()
	if err != nil {
		return nil, nil, nil, err
	}
	if _, _, err := index.Sync(db, store, a.logger); err != nil {
		a.logger.Warn("initial sync failed", slog.String("error", err.Error()))
	}
	svc := noteservice.NewService(store, db, a.norm, entity.NewScanner(entity.DefaultVocabulary()), a.logger)
	return svc, store, db, nil
}

// Serve runs the HTTP surface and the vault watcher until ctx is cancelled
// or a shutdown signal arrives.
func (a *App) Serve(ctx context.Context) error {
	cfg := a.cfg
	logger := a.logger

	svc, store, db, err := a.service()
	if err != nil {
		return err
	}

	// SSE broker.
	broker := sse.NewBroker(2 * time.Second)
	defer broker.Close()

	// Build API handler and router.
	h := api.NewHandler(svc, cfg.Manifest.Output, cfg.Manifest.AgentsOutput)
	apiRouter := api.NewRouter(h, cfg.Auth.AuthEnabled(), cfg.Auth.Token, broker)

	// Build chi router.
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// Health check endpoints (unauthenticated).
	r.Get("/health/live", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Get("/health/ready", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if _, err := db.TagCounts(); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"status":"unavailable"}`))
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	// Mount API routes under /api.
	r.Mount("/api", apiRouter)

	httpServer := &http.Server{
		Addr:              cfg.App.HTTP.Address(),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	logger.Info("Server starting...",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("vault_path", store.Root()))

	g, gCtx := errgroup.WithContext(ctx)
	watchCtx, stopWatch := context.WithCancel(gCtx)
	defer stopWatch()

	// Start file watcher with SSE callback.
	g.Go(func() error {
		if err := index.Watch(watchCtx, db, store, logger, broker.NoteChanged); err != nil {
			logger.Error("watcher stopped", slog.String("error", err.Error()))
		}
		return nil
	})

	// Start HTTP server.
	g.Go(func() error {
		logger.Info("Starting HTTP server", slog.String("address", cfg.App.HTTP.Address()))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

	// Handle shutdown signals.
	g.Go(func() error {
		waitForShutdown(gCtx, logger)
		stopWatch()

		logger.Info("Shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", slog.String("error", err.Error()))
		}

		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Server stopped successfully")
	return nil
}

// ServeMCP runs the MCP server on stdio.
func (a *App) ServeMCP(version string) error {
	svc, _, _, err := a.service()
	if err != nil {
		return err
	}
	return mcpserver.New(svc, a.norm.Categories(), version).ServeStdio()
}

// IndexSync brings the ledger up to date with the vault. With watch set it
// keeps following vault changes until a shutdown signal arrives.
func (a *App) IndexSync(ctx context.Context, watch bool) error {
	store, err := a.vault()
	if err != nil {
		return err
	}
	db, err := a.ledger()
	if err != nil {
		return err
	}

	indexed, removed, err := index.Sync(db, store, a.logger)
	if err != nil {
		return fmt.Errorf("sync: %w", err)
	}
	a.logger.Info("Ledger synced", slog.Int("indexed", indexed), slog.Int("removed", removed))
	if !watch {
		return nil
	}

	g, gCtx := errgroup.WithContext(ctx)
	watchCtx, cancel := context.WithCancel(gCtx)
	g.Go(func() error {
		return index.Watch(watchCtx, db, store, a.logger, func(kind, path string) {
			a.logger.Info("ledger updated", slog.String("kind", kind), slog.String("path", path))
		})
	})
	g.Go(func() error {
		waitForShutdown(gCtx, a.logger)
		cancel()
		return nil
	})
	return g.Wait()
}

func waitForShutdown(ctx context.Context, logger *slog.Logger) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case sig := <-quit:
		logger.Info("Received shutdown signal", slog.String("signal", sig.String()))
	case <-ctx.Done():
		logger.Info("Context cancelled, initiating shutdown")
	}
}
