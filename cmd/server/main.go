package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mama165/sdk-go/logs"

	"github.com/devaloi/huddle/internal/client"
	"github.com/devaloi/huddle/internal/config"
	"github.com/devaloi/huddle/internal/handler"
	"github.com/devaloi/huddle/internal/hub"
	"github.com/devaloi/huddle/internal/metrics"
	"github.com/devaloi/huddle/internal/registry"
	"github.com/devaloi/huddle/internal/store"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "huddle: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	log := logs.GetLoggerFromString(cfg.LogLevel)

	s, err := store.NewSQLite(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("store: %w", err)
	}
	defer func() {
		log.Info("closing store")
		_ = s.Close()
	}()

	m := metrics.New()
	reg := registry.New(s, cfg.MeetingURLBase, log, m)
	h := hub.New(reg, log, m)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := &http.Server{
		Addr: cfg.Addr(),
		Handler: handler.Routes(ctx, handler.Deps{
			Registry:   reg,
			Hub:        h,
			Metrics:    m,
			ICEServers: cfg.ICEServers,
			Client: client.Options{
				SendBuffer:        cfg.SendBuffer,
				MaxMessageBytes:   int64(cfg.MaxMessageBytes),
				MessagesPerSecond: cfg.MaxMessagesPerSecond,
				Burst:             cfg.Burst(),
				Logger:            log,
				Metrics:           m,
			},
			StaticDir: cfg.StaticDir,
			Logger:    log,
		}),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("huddle listening", "addr", srv.Addr, "ice_servers", len(cfg.ICEServers))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
		log.Info("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("http server shutdown failed", "err", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http server: %w", err)
	}
	log.Info("stopped", "connections", h.ConnectionCount())
	return nil
}
