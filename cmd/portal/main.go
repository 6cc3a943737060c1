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

	"github.com/gorilla/sessions"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"employee-portal/core"
	"employee-portal/portal"
)

func main() {
	_ = godotenv.Load()
	cfg := core.Load()
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logCloser, err := core.SetupLogging(cfg, "portal.log")
	if err != nil {
		log.Fatal().Err(err).Msg("failed to setup logging")
	}
	defer logCloser.Close()

	apiBase := os.Getenv("API_GATEWAY_URL")
	if apiBase == "" {
		log.Fatal().Msg("API_GATEWAY_URL is required")
	}
	sessionKey := os.Getenv("SESSION_KEY")
	if len(sessionKey) < 32 {
		log.Fatal().Msg("SESSION_KEY must be at least 32 bytes")
	}
	sessionDir := os.Getenv("SESSION_DIR")
	if sessionDir == "" {
		sessionDir = os.TempDir()
	}

	opts := &sessions.Options{
		Path:     "/",
		MaxAge:   18000,
		HttpOnly: true,
		Secure:   os.Getenv("COOKIE_SECURE") == "true",
		SameSite: http.SameSiteStrictMode,
	}
	siteCfg := portal.SiteConfig{APIBaseURL: apiBase}

	// Token bundles outgrow the 4KB cookie limit, so the cookie only carries
	// a session id and the bundle lives in Redis or on disk.
	var store sessions.Store
	if redisURL := os.Getenv("REDIS_URL"); redisURL != "" {
		client, err := portal.NewRedisClient(ctx, redisURL)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect redis")
		}
		defer client.Close()
		siteCfg.Redis = client
		siteCfg.RedisTTL = time.Duration(opts.MaxAge) * time.Second
		cookies := sessions.NewCookieStore([]byte(sessionKey))
		cookies.Options = opts
		store = cookies
	} else {
		fs := sessions.NewFilesystemStore(sessionDir, []byte(sessionKey))
		fs.MaxLength(0)
		fs.Options = opts
		store = fs
	}

	site, err := portal.NewSite(siteCfg, store)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to build site")
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.Port),
		Handler:           site,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		log.Info().Str("addr", srv.Addr).Str("api", apiBase).Msg("starting portal")
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
}
