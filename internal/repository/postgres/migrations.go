package postgres

import (
	"context"
	"database/sql"
	"embed"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/prn-tf/tonearm/internal/pkg/migrate"

	// Register pgx stdlib driver for database/sql usage in migrations.
	_ "github.com/jackc/pgx/v5/stdlib"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Migrate runs a goose command ("up", "down", "status", "version") from the
// embedded SQL files. dsn must be understood by the pgx stdlib driver.
func Migrate(ctx context.Context, dsn, command string, logger zerolog.Logger) error {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return fmt.Errorf("open db for migrations: %w", err)
	}
	defer db.Close()

	return migrate.Run(ctx, db, migrationsFS, "postgres", command, logger)
}
