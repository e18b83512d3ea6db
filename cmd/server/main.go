package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"chatform/internal/app"
	"chatform/internal/config"
	"chatform/internal/observability"
)

// @title Chatform Survey API
// @version 1.0
// @description Conversational survey runner: survey lookup, submissions, usage limits and the assistant stream
// @host localhost:8080
// @BasePath /v1
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	cfg, err := config.Load()
	if err != nil {
		boot := observability.Setup("info", "console", os.Stderr)
		boot.Fatal().Err(err).Msg("load config")
	}
	log := observability.Setup(cfg.Log.Level, cfg.Log.Format, os.Stdout)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("start")
	}
	defer a.Close(context.Background())

	if cfg.Auth.JWTSecret == "dev-secret-change-me" {
		log.Warn().Msg("JWT_SECRET not set, using the development secret")
	}
	if !cfg.Assistant.IsEnabled() {
		log.Info().Msg("GEMINI_API_KEY not set, assistant uses template phrasing")
	}

	if err := a.Serve(ctx); err != nil {
		log.Error().Err(err).Msg("server stopped")
		return
	}
	log.Info().Msg("server exited")
}
