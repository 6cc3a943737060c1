package main

import (
	"context"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"employee-portal/core"
)

func main() {
	_ = godotenv.Load()
	cfg := core.Load()
	ctx := context.Background()

	logCloser, err := core.SetupLogging(cfg, "dbinit.log")
	if err != nil {
		log.Fatal().Err(err).Msg("failed to setup logging")
	}
	defer logCloser.Close()

	db, err := core.Connect(ctx, cfg.DatabaseURL, 1)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect database")
	}
	defer db.Close()

	if err := core.BootstrapSchema(ctx, db, cfg.BootstrapEnabled); err != nil {
		log.Fatal().Err(err).Msg("schema bootstrap failed")
	}
	if err := core.BootstrapLocalCredential(ctx, core.NewPgCredentialRepository(db), cfg); err != nil {
		log.Fatal().Err(err).Msg("local credential bootstrap failed")
	}
	log.Info().Bool("seeded", cfg.BootstrapEnabled).Msg("database initialized")
}
