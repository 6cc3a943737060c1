package main

import (
	"context"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/rs/zerolog/log"

	"employee-portal/core"
)

func main() {
	cfg := core.Load()
	ctx := context.Background()

	logCloser, err := core.SetupLogging(cfg, "login.log")
	if err != nil {
		log.Fatal().Err(err).Msg("failed to setup logging")
	}
	defer logCloser.Close()

	backends, err := core.NewBackends(ctx, cfg, false, 1)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to build login backends")
	}
	defer backends.Close()

	log.Info().
		Str("directory", cfg.DirectoryBackend).
		Str("provider", cfg.ProviderBackend).
		Msg("login function ready")
	lambda.Start(core.NewLambdaHandler(backends.Login).Handle)
}
