package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	router "github.com/dkeye/CodeSync/internal/adapters/http"
	wssignal "github.com/dkeye/CodeSync/internal/adapters/signal"
	"github.com/dkeye/CodeSync/internal/app"
	"github.com/dkeye/CodeSync/internal/app/orch"
	"github.com/dkeye/CodeSync/internal/compile"
	"github.com/dkeye/CodeSync/internal/config"
	"github.com/dkeye/CodeSync/internal/protocol"
	"github.com/dkeye/CodeSync/internal/store"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Logger first so config.Load can use it.
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	if lvl, err := zerolog.ParseLevel(cfg.LogLevel); err == nil {
		zerolog.SetGlobalLevel(lvl)
	}

	policy, err := app.ParsePolicy(cfg.Backpressure)
	if err != nil {
		log.Fatal().Err(err).Msg("invalid backpressure policy")
	}

	var (
		snapshots app.SnapshotStore
		archive   router.RoomArchive
	)
	if cfg.StorePath != "" {
		db, err := store.New(cfg.StorePath)
		if err != nil {
			log.Fatal().Err(err).Str("path", cfg.StorePath).Msg("failed to open snapshot store")
		}
		defer db.Close()
		snapshots = db
		archive = db
		log.Info().Str("path", cfg.StorePath).Msg("snapshot store enabled")
	}

	manager := app.NewRoomManager(app.NewDispatcher(policy), snapshots)
	o := &orch.Orchestrator{
		Registry: app.NewRegistry(),
		Rooms:    manager,
	}

	limiter := wssignal.NewRoomRateLimiter(cfg.RateLimit, cfg.RateInterval, cfg.RateEntryTTL)
	ctl := wssignal.NewSignalWSController(o, protocol.NewDecoder(cfg.MaxTextBytes), limiter, wssignal.Options{
		ReadLimit:  cfg.ReadLimit,
		PingPeriod: cfg.PingPeriod,
		PongWait:   cfg.PongWait,
		WriteWait:  10 * time.Second,
		SendBuffer: cfg.SendBuffer,
	}, router.CheckOrigin(cfg.AllowedOrigin))

	janitor := app.NewJanitor(manager, app.JanitorConfig{Interval: cfg.JanitorEvery, RoomTTL: cfg.RoomTTL})
	janitor.Also(limiter)
	janitor.Start(ctx)

	r := router.SetupRouter(ctx, cfg, o, ctl, archive, compile.NewJDoodleClient(cfg.Compile))
	addr := fmt.Sprintf(":%d", cfg.Port)

	srv := &http.Server{
		Addr:    addr,
		Handler: r,
	}

	go func() {
		log.Info().Str("addr", addr).Msg("CodeSync server started")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("server error")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("Shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}
	janitor.Stop()
	log.Info().Msg("Server exited gracefully")
}
