// Command seed fills the postgres backend with a deterministic demo catalog,
// class calendar and student dashboard.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/arteza/studio/internal/config"
	"github.com/arteza/studio/internal/remote/postgres"
	"github.com/arteza/studio/internal/seed"
	"github.com/arteza/studio/pkg/database"
	"github.com/arteza/studio/pkg/logger"
)

func main() {
	if err := run(); err != nil {
		slog.Error("fatal error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	opts, err := seed.OptionsFromEnv()
	if err != nil {
		return fmt.Errorf("load seed config: %w", err)
	}

	log := logger.New("studio-seed", cfg.LogLevel)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	pool, err := database.NewPostgresPool(ctx, cfg.Postgres(), log)
	if err != nil {
		return err
	}
	defer pool.Close()

	if err := postgres.Migrate(ctx, pool, log); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}

	return seed.Run(ctx, pool, opts, log)
}
