package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/xtding233/encounter-backend/internal/api/grpcapi"
	"github.com/xtding233/encounter-backend/internal/api/httpapi"
	"github.com/xtding233/encounter-backend/internal/bestiary"
	"github.com/xtding233/encounter-backend/internal/bestiary/sqlite"
	"github.com/xtding233/encounter-backend/internal/config"
	"github.com/xtding233/encounter-backend/internal/service"
)

const shutdownTimeout = 5 * time.Second

func main() {
	var cfg config.Server
	if err := config.ParseEnv(&cfg); err != nil {
		config.Exitf("server: %v", err)
	}
	flag.StringVar(&cfg.HTTPAddr, "http", cfg.HTTPAddr, "HTTP listen address")
	flag.StringVar(&cfg.GRPCAddr, "grpc", cfg.GRPCAddr, "gRPC listen address")
	flag.StringVar(&cfg.DataDir, "data-dir", cfg.DataDir, "directory holding bestiaries/*.yaml")
	flag.StringVar(&cfg.DBPath, "db", cfg.DBPath, "SQLite catalog path; empty reads YAML packs directly")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		config.Exitf("server: %v", err)
	}
}

func run(ctx context.Context, cfg config.Server, logger *slog.Logger) error {
	source, closeSource, err := openSource(cfg, logger)
	if err != nil {
		return err
	}
	defer closeSource()

	svc, err := service.New(source,
		service.WithRecipients(cfg.Players()),
		service.WithMaxTrials(cfg.MaxTrials),
		service.WithLogger(logger),
	)
	if err != nil {
		return err
	}

	httpSrv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           httpapi.New(svc, logger),
		ReadHeaderTimeout: 5 * time.Second,
	}
	grpcSrv, health := grpcapi.NewGRPCServer(svc, logger)
	grpcLis, err := net.Listen("tcp", cfg.GRPCAddr)
	if err != nil {
		return fmt.Errorf("listen grpc: %w", err)
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("http listening", "addr", cfg.HTTPAddr)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve http: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		logger.Info("grpc listening", "addr", grpcLis.Addr().String())
		if err := grpcSrv.Serve(grpcLis); err != nil {
			return fmt.Errorf("serve grpc: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		logger.Info("shutting down")
		health.Shutdown()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		grpcSrv.GracefulStop()
		return httpSrv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

// openSource picks the SQLite catalog when a DB path is configured, else
// the YAML packs with hot reload.
func openSource(cfg config.Server, logger *slog.Logger) (bestiary.Source, func(), error) {
	if cfg.DBPath != "" {
		store, err := sqlite.Open(cfg.DBPath)
		if err != nil {
			return nil, nil, err
		}
		logger.Info("using sqlite catalog", "path", cfg.DBPath)
		return store, func() { _ = store.Close() }, nil
	}

	loader := bestiary.NewLoader(cfg.DataDir)
	packs, err := loader.Packs()
	if err != nil {
		return nil, nil, err
	}
	logger.Info("loaded bestiary packs", "dir", loader.Paths().BestiaryDir(), "packs", len(packs))

	watcher := bestiary.NewFileWatcher([]string{loader.Paths().BestiaryDir()}, cfg.ReloadInterval, func(path string) {
		logger.Info("bestiary changed, reloading", "path", path)
		loader.Invalidate()
	})
	watcher.Discover = loader.Files
	watcher.Start()
	return loader, watcher.Stop, nil
}
