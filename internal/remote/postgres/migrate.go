package postgres

import (
	"context"
	"embed"
	"log/slog"

	"github.com/arteza/studio/pkg/database"
)

//go:embed migrations/*.sql
var migrations embed.FS

// Migrate applies the embedded schema migrations.
func Migrate(ctx context.Context, db database.TxBeginner, logger *slog.Logger) error {
	return database.RunMigrations(ctx, db, migrations, "migrations", logger)
}
