package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/webdeskos/vfsd/internal/config"
	"github.com/webdeskos/vfsd/internal/events"
	"github.com/webdeskos/vfsd/internal/handler"
	"github.com/webdeskos/vfsd/internal/middleware"
	"github.com/webdeskos/vfsd/internal/seed"
	"github.com/webdeskos/vfsd/internal/storage"
	"github.com/webdeskos/vfsd/internal/storage/memory"
	"github.com/webdeskos/vfsd/internal/storage/postgres"
	"github.com/webdeskos/vfsd/internal/vfs"
	"github.com/webdeskos/vfsd/pkg/database/postgresql"
	"github.com/webdeskos/vfsd/pkg/logging"
	"github.com/webdeskos/vfsd/pkg/logging/slogext"
	"github.com/webdeskos/vfsd/pkg/logging/slogpretty"
)

const defaultConfigPath = "configs/config.yaml"

func main() {
	_ = godotenv.Load()

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = defaultConfigPath
	}
	cfg := config.MustLoad(configPath)

	logger := setupLogger(cfg.App.Env)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx = logging.MakeContextWithLogger(ctx, logger)

	if err := run(ctx, cfg); err != nil {
		logger.Error("Fatal", slogext.Err(err))
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config) error {
	logger := logging.GetLoggerFromContext(ctx)

	engine, err := buildEngine(ctx, cfg)
	if err != nil {
		return err
	}

	bus := events.NewBus()
	defer bus.Close()

	fs := vfs.New(engine, bus, vfs.WithDrive(cfg.App.Drive))
	if err := fs.Initialize(ctx, seed.DefaultTree); err != nil {
		return err
	}

	mux := http.NewServeMux()
	h := handler.NewHandler(fs)
	h.RegisterRoutes(mux, handler.NewSSEHandler(bus))

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.App.Port),
		Handler:           middleware.RequestIDMiddleware(middleware.MetricsMiddleware(mux)),
		ReadHeaderTimeout: cfg.App.DefaultTimeout,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Listening", slog.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func buildEngine(ctx context.Context, cfg *config.Config) (storage.Engine, error) {
	logger := logging.GetLoggerFromContext(ctx)

	switch cfg.Storage.Backend {
	case "memory":
		logger.Warn("Using in-memory storage, nothing will survive a restart")
		return memory.New(), nil
	case "postgres":
		pool, err := postgresql.NewClient(ctx, cfg.Database)
		if err != nil {
			return nil, err
		}
		return postgres.New(ctx, pool)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
	}
}

func setupLogger(env string) *slog.Logger {
	if env == "dev" {
		opts := slogpretty.PrettyHandlerOptions{
			SlogOpts: &slog.HandlerOptions{
				Level: slog.LevelDebug,
			},
		}
		return slog.New(opts.NewPrettyHandler(os.Stdout))
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
}
