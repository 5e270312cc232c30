// Package sqlite provides the embedded SQLite implementation of the Tonearm store.
// This package uses modernc.org/sqlite, a pure Go SQLite implementation that
// doesn't require CGO, making it ideal for cross-platform single-binary deployments.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/rs/zerolog"

	"github.com/prn-tf/tonearm/internal/config"
	"github.com/prn-tf/tonearm/internal/repository"
)

// Config holds SQLite connection settings.
type Config struct {
	// Path is the path to the SQLite database file.
	Path string

	// MaxOpenConns sets the maximum number of open connections.
	MaxOpenConns int

	// MaxIdleConns sets the maximum number of idle connections.
	MaxIdleConns int

	// ConnMaxLifetime sets the maximum connection lifetime.
	ConnMaxLifetime time.Duration

	// JournalMode sets the SQLite journal mode (WAL recommended for concurrency).
	JournalMode string

	// BusyTimeout sets the busy timeout in milliseconds.
	BusyTimeout int

	// SynchronousMode sets the synchronous mode (NORMAL, FULL, OFF).
	SynchronousMode string

	// DefaultIsolation is used when a unit of work does not ask for a level.
	DefaultIsolation repository.IsolationLevel
}

// DefaultConfig returns a default SQLite configuration.
func DefaultConfig(dbPath string) Config {
	return Config{
		Path:             dbPath,
		MaxOpenConns:     1, // SQLite works best with single writer
		MaxIdleConns:     1,
		ConnMaxLifetime:  time.Hour,
		JournalMode:      "WAL",
		BusyTimeout:      5000,
		SynchronousMode:  "NORMAL",
		DefaultIsolation: repository.IsolationSerializable,
	}
}

// ConfigFrom converts application database settings.
func ConfigFrom(cfg config.DatabaseConfig) (Config, error) {
	level, err := repository.ParseIsolation(cfg.DefaultIsolation)
	if err != nil {
		return Config{}, err
	}
	c := DefaultConfig(cfg.Path)
	c.JournalMode = cfg.JournalMode
	c.BusyTimeout = cfg.BusyTimeout
	c.SynchronousMode = cfg.SynchronousMode
	c.DefaultIsolation = level
	return c, nil
}

// buildDSN renders the path and pragmas in modernc's _pragma form.
func buildDSN(cfg Config) string {
	pragmas := url.Values{}
	pragmas.Add("_pragma", "foreign_keys(ON)")
	if cfg.JournalMode != "" {
		pragmas.Add("_pragma", fmt.Sprintf("journal_mode(%s)", strings.ToUpper(cfg.JournalMode)))
	}
	if cfg.BusyTimeout > 0 {
		pragmas.Add("_pragma", fmt.Sprintf("busy_timeout(%d)", cfg.BusyTimeout))
	}
	if cfg.SynchronousMode != "" {
		pragmas.Add("_pragma", fmt.Sprintf("synchronous(%s)", strings.ToUpper(cfg.SynchronousMode)))
	}
	return "file:" + cfg.Path + "?" + pragmas.Encode()
}

// DB wraps a sql.DB connection for SQLite and implements repository.Store.
type DB struct {
	db               *sql.DB
	logger           zerolog.Logger
	path             string
	defaultIsolation repository.IsolationLevel
}

// NewDB creates a new SQLite database connection.
func NewDB(ctx context.Context, cfg Config, logger zerolog.Logger) (*DB, error) {
	db, err := sql.Open("sqlite", buildDSN(cfg))
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping SQLite database: %w", err)
	}

	level := cfg.DefaultIsolation
	if level == repository.IsolationDefault {
		level = repository.IsolationSerializable
	}

	logger.Info().
		Str("path", cfg.Path).
		Str("journal_mode", cfg.JournalMode).
		Int("max_conns", cfg.MaxOpenConns).
		Msg("connected to SQLite database")

	return &DB{
		db:               db,
		logger:           logger,
		path:             cfg.Path,
		defaultIsolation: level,
	}, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	db.logger.Info().Msg("closing SQLite connection")
	return db.db.Close()
}

// Ping checks the database connection.
func (db *DB) Ping(ctx context.Context) error {
	return db.db.PingContext(ctx)
}

// Health checks the database connection health.
func (db *DB) Health(ctx context.Context) error {
	return db.Ping(ctx)
}

// Driver returns "sqlite".
func (db *DB) Driver() string {
	return "sqlite"
}

// DB returns the underlying sql.DB.
func (db *DB) DB() *sql.DB {
	return db.db
}

// WithTx runs fn against repositories bound to a single transaction.
//
// SQLite transactions are serializable. A read-uncommitted unit of work
// sets PRAGMA read_uncommitted on its dedicated connection and resets it
// before the connection returns to the pool. SQLite only honours the pragma
// between shared-cache connections, and this pool holds one private
// connection, so such a read waits for any open writer and never observes
// uncommitted rows. On SQLite the relaxed level is nominal. The other
// levels run serializable.
func (db *DB) WithTx(ctx context.Context, opts repository.TxOptions, fn func(repos *repository.Repositories) error) error {
	level := opts.Isolation
	if level == repository.IsolationDefault {
		level = db.defaultIsolation
	}

	conn, err := db.db.Conn(ctx)
	if err != nil {
		return fmt.Errorf("failed to acquire connection: %w", err)
	}
	defer conn.Close()

	if level == repository.IsolationReadUncommitted {
		if _, err := conn.ExecContext(ctx, "PRAGMA read_uncommitted = 1"); err != nil {
			return fmt.Errorf("failed to relax isolation: %w", err)
		}
		defer func() {
			if _, err := conn.ExecContext(context.WithoutCancel(ctx), "PRAGMA read_uncommitted = 0"); err != nil {
				db.logger.Warn().Err(err).Msg("failed to reset read_uncommitted")
			}
		}()
	}

	tx, err := conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(NewRepositories(tx)); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("tx error: %v, rollback error: %w", err, rbErr)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// Querier is implemented by *sql.DB, *sql.Conn and *sql.Tx.
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// NewRepositories binds every repository to q.
func NewRepositories(q Querier) *repository.Repositories {
	return &repository.Repositories{
		User:   NewUserRepository(q),
		Artist: NewArtistRepository(q),
		Album:  NewAlbumRepository(q),
		Review: NewReviewRepository(q),
	}
}

var _ repository.Store = (*DB)(nil)
