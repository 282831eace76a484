package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bwise1/snapguide_api/config"
	deps "github.com/bwise1/snapguide_api/internal/debs"
	api "github.com/bwise1/snapguide_api/internal/http/rest"
	"github.com/bwise1/snapguide_api/internal/logging"
)

const (
	allowConnectionsAfterShutdown = 1 * time.Second
)

func main() {
	cfg := config.New()
	logging.Init(logging.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})

	d, err := deps.New(cfg)
	if err != nil {
		logging.Fatal().Err(err).Msg("failed to build dependencies")
	}

	a := &api.API{
		Config: cfg,
		Deps:   d,
	}
	a.NewServer()
	go func() {
		if err := a.Serve(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.Fatal().Err(err).Msg("server stopped")
		}
	}()

	stopChan := make(chan os.Signal, 1)
	signal.Notify(stopChan, os.Interrupt, syscall.SIGTERM, syscall.SIGINT)
	<-stopChan

	logging.Info().Dur("grace", allowConnectionsAfterShutdown).Msg("shutdown requested")
	waitTimer := time.NewTimer(allowConnectionsAfterShutdown)
	<-waitTimer.C

	if err := a.Shutdown(context.Background()); err != nil {
		logging.Error().Err(err).Msg("server shutdown")
	}
	d.Close()
	logging.Info().Msg("server stopped, connections closed")
}
