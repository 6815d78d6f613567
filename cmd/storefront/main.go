// Package main Fashion Storefront API
//
// @title           Fashion Storefront API
// @version         1.0
// @description     Корзина, избранное, рассылка и сессии витрины поверх удалённого каталога.

// @host      localhost:8080
// @BasePath  /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/magabrotheeeer/fashion-storefront/internal/app/storefront"
	"github.com/magabrotheeeer/fashion-storefront/internal/config"
	"github.com/magabrotheeeer/fashion-storefront/internal/lib/sl"
)

func main() {
	cfg := config.MustLoad()
	logger := sl.New(cfg.Env, os.Stdout)

	logger.Info("starting storefront", slog.String("env", cfg.Env))
	logger.Debug("loaded config", slog.String("config", cfg.String()))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := storefront.New(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to initialize app", sl.Err(err))
		os.Exit(1)
	}

	if err := app.Run(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("app stopped with error", sl.Err(err))
		os.Exit(1)
	}

	logger.Info("storefront stopped gracefully")
}
