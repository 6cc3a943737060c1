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

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"employee-portal/core"
)

func main() {
	_ = godotenv.Load()
	cfg := core.Load()
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logCloser, err := core.SetupLogging(cfg, "api.log")
	if err != nil {
		log.Fatal().Err(err).Msg("failed to setup logging")
	}
	defer logCloser.Close()

	backends, err := core.NewBackends(ctx, cfg, true, 0)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to build backends")
	}
	defer backends.Close()

	// The gateway API reads notices and profiles from Postgres regardless of
	// which directory backs login.
	pool := backends.Pool
	if pool == nil {
		pool, err = core.Connect(ctx, cfg.DatabaseURL, 0)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect database")
		}
		defer pool.Close()
	}

	router := core.NewRouter(cfg, backends.Login, backends.Verifier, core.NewPgDirectory(pool), core.NewPgNoticeRepository(pool))

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		log.Info().Str("addr", srv.Addr).Msg("starting api server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("shutdown failed")
	}
	log.Info().Msg("server stopped")
}
