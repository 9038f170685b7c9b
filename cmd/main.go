package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/tinoosan/pocketledger/internal/config"
	"github.com/tinoosan/pocketledger/internal/httpapi"
	"github.com/tinoosan/pocketledger/internal/service/book"
	"github.com/tinoosan/pocketledger/internal/service/report"
	"github.com/tinoosan/pocketledger/internal/storage/file"
	"github.com/tinoosan/pocketledger/internal/storage/memory"
	pgstore "github.com/tinoosan/pocketledger/internal/storage/postgres"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(2)
	}

	logger := buildLogger(cfg.Log)
	slog.SetDefault(logger)

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("pocketledger stopped", "err", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, logger *slog.Logger) error {
	be, err := openBackend(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer be.close()
	logger.Info("storage backend: "+cfg.Storage.Backend, "dir", cfg.Storage.Dir)

	ledgerSvc := book.New(be.store, book.Options{AllowOverdraft: cfg.Ledger.AllowOverdraft, Logger: logger})
	if err := ledgerSvc.Bootstrap(ctx); err != nil {
		return fmt.Errorf("bootstrap: %w", err)
	}
	reports, err := report.New(ledgerSvc, cfg.Ledger.Currency)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              cfg.HTTP.Addr,
		Handler:           httpapi.New(ledgerSvc, reports, logger, httpapi.WithReadiness(be.ready)).Handler(),
		ReadTimeout:       5 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("pocketledger listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctxShutdown); err != nil {
			logger.Error("server shutdown error", "err", err)
			return err
		}
		return nil
	})
	return g.Wait()
}

// backend bundles the selected store with its readiness probe and cleanup.
type backend struct {
	store book.Store
	ready func(context.Context) error
	close func()
}

func openBackend(ctx context.Context, cfg config.Config, logger *slog.Logger) (backend, error) {
	noop := func() {}
	switch cfg.Storage.Backend {
	case config.BackendMemory:
		return backend{store: memory.New(), close: noop}, nil
	case config.BackendPostgres:
		if cfg.Database.Migrate {
			if err := pgstore.Migrate(cfg.Database.URL); err != nil {
				return backend{}, fmt.Errorf("migrate: %w", err)
			}
			logger.Info("migrations applied")
		}
		pg, err := pgstore.Open(ctx, cfg.Database.URL)
		if err != nil {
			return backend{}, fmt.Errorf("connect to postgres: %w", err)
		}
		return backend{store: pg, ready: pg.Ready, close: pg.Close}, nil
	default:
		fs, err := file.Open(cfg.Storage.Dir, logger)
		if err != nil {
			return backend{}, fmt.Errorf("open data dir: %w", err)
		}
		ready := func(context.Context) error {
			_, err := os.Stat(fs.Dir())
			return err
		}
		return backend{store: fs, ready: ready, close: noop}, nil
	}
}

// parseLogLevel maps config values to slog.Leveler
func parseLogLevel(s string) slog.Leveler {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error", "err":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func buildLogger(c config.LogConfig) *slog.Logger {
	opts := &slog.HandlerOptions{Level: parseLogLevel(c.Level)}
	if strings.EqualFold(strings.TrimSpace(c.Format), "text") {
		return slog.New(slog.NewTextHandler(os.Stdout, opts))
	}
	// default to JSON
	return slog.New(slog.NewJSONHandler(os.Stdout, opts))
}
