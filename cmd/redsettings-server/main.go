// Command redsettings-server serves the sensitivity engine over HTTP.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog"

	"github.com/MJE43/redsettings-go/internal/api"
	"github.com/MJE43/redsettings-go/internal/config"
	"github.com/MJE43/redsettings-go/internal/games"
	"github.com/MJE43/redsettings-go/internal/jitter"
	"github.com/MJE43/redsettings-go/internal/logging"
	"github.com/MJE43/redsettings-go/internal/service"
	"github.com/MJE43/redsettings-go/internal/store"
)

func main() {
	cfg, err := config.ParseServer(flag.CommandLine, os.Args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "redsettings-server: %v\n", err)
		os.Exit(2)
	}
	log, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		fmt.Fprintf(os.Stderr, "redsettings-server: %v\n", err)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Fatal().Err(err).Msg("server stopped")
	}
}

func run(ctx context.Context, cfg config.Server, log zerolog.Logger) error {
	if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0o755); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}
	db, err := store.Open(cfg.DBPath)
	if err != nil {
		return err
	}
	defer db.Close()
	if err := db.Migrate(ctx); err != nil {
		return err
	}

	cache := jitter.New(db, logging.Component(log, "jitter"))
	flushed := make(chan struct{})
	flushCtx, stopFlush := context.WithCancel(context.Background())
	go func() {
		defer close(flushed)
		cache.Run(flushCtx, cfg.FlushInterval)
	}()
	defer func() {
		stopFlush()
		<-flushed
	}()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	svc := service.New(games.Default(), cache, db,
		service.WithLogger(logging.Component(log, "service")),
		service.WithMetrics(service.NewMetrics(reg)),
		service.WithSessionLimit(cfg.SessionLimit))
	srv := api.NewServer(svc,
		api.WithLogger(logging.Component(log, "api")),
		api.WithPing(db.Ping),
		api.WithGatherer(reg),
		api.WithTimeout(cfg.RequestTimeout))

	httpSrv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           srv.Routes(),
		ReadHeaderTimeout: cfg.RequestTimeout,
	}
	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", cfg.Addr).Str("db", cfg.DBPath).Str("version", api.EngineVersion).Msg("listening")
		errCh <- httpSrv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownGrace)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
