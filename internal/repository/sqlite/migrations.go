package sqlite

import (
	"context"
	"embed"
	"fmt"

	"github.com/prn-tf/tonearm/internal/pkg/migrate"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Migrate runs a goose command ("up", "down", "status", "version") from the
// embedded SQL files against the database.
func (db *DB) Migrate(ctx context.Context, command string) error {
	if err := migrate.Run(ctx, db.db, migrationsFS, "sqlite3", command, db.logger); err != nil {
		return fmt.Errorf("sqlite: %w", err)
	}

	db.logger.Info().Str("command", command).Msg("migrations applied")
	return nil
}
