// Package database opens the configured Tonearm store and runs its migrations.
package database

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/prn-tf/tonearm/internal/config"
	"github.com/prn-tf/tonearm/internal/repository"
	"github.com/prn-tf/tonearm/internal/repository/postgres"
	"github.com/prn-tf/tonearm/internal/repository/sqlite"
)

// Migrator applies goose commands from the embedded schema files.
type Migrator interface {
	Migrate(ctx context.Context, command string) error
}

// Store is a repository.Store that can also migrate its own schema.
type Store interface {
	repository.Store
	Migrator
}

// Open connects to the backend named by cfg.Driver.
func Open(ctx context.Context, cfg config.DatabaseConfig, logger zerolog.Logger) (Store, error) {
	switch cfg.Driver {
	case "postgres":
		db, err := postgres.NewDB(ctx, cfg, logger)
		if err != nil {
			return nil, err
		}
		return &postgresStore{DB: db, dsn: cfg.DSN(), logger: logger}, nil

	case "sqlite":
		sqliteCfg, err := sqlite.ConfigFrom(cfg)
		if err != nil {
			return nil, err
		}
		return sqlite.NewDB(ctx, sqliteCfg, logger)

	default:
		return nil, fmt.Errorf("unsupported database driver: %q", cfg.Driver)
	}
}

// postgresStore pairs the pool with the DSN goose needs for database/sql.
type postgresStore struct {
	*postgres.DB
	dsn    string
	logger zerolog.Logger
}

func (s *postgresStore) Migrate(ctx context.Context, command string) error {
	return postgres.Migrate(ctx, s.dsn, command, s.logger)
}

var (
	_ Store = (*postgresStore)(nil)
	_ Store = (*sqlite.DB)(nil)
)
