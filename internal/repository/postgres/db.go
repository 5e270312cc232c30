// Package postgres provides the PostgreSQL implementation of the Tonearm store.
package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/prn-tf/tonearm/internal/config"
	"github.com/prn-tf/tonearm/internal/repository"
)

// Querier is an interface that pgxpool.Pool, pgx.Tx and pgxmock implement.
// This allows repositories to work with all of them.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Pool is the subset of pgxpool.Pool used by DB.
type Pool interface {
	Querier
	BeginTx(ctx context.Context, txOptions pgx.TxOptions) (pgx.Tx, error)
	Ping(ctx context.Context) error
	Close()
}

// Ensure the pool and transactions implement the interfaces.
var (
	_ Pool    = (*pgxpool.Pool)(nil)
	_ Querier = (pgx.Tx)(nil)
)

// DB wraps a pgx connection pool and implements repository.Store.
type DB struct {
	pool             Pool
	defaultIsolation repository.IsolationLevel
	logger           zerolog.Logger
}

// NewDB creates a new database connection pool.
func NewDB(ctx context.Context, cfg config.DatabaseConfig, logger zerolog.Logger) (*DB, error) {
	defaultIsolation, err := repository.ParseIsolation(cfg.DefaultIsolation)
	if err != nil {
		return nil, err
	}

	poolConfig, err := pgxpool.ParseConfig(cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to parse database config: %w", err)
	}

	poolConfig.MaxConns = int32(cfg.MaxOpenConns)
	poolConfig.MinConns = int32(cfg.MaxIdleConns)
	poolConfig.MaxConnLifetime = cfg.ConnMaxLifetime
	poolConfig.MaxConnIdleTime = cfg.ConnMaxIdleTime
	poolConfig.ConnConfig.ConnectTimeout = 10 * time.Second

	if logger.GetLevel() <= zerolog.DebugLevel {
		poolConfig.ConnConfig.Tracer = &queryTracer{logger: logger}
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	logger.Info().
		Str("host", cfg.Host).
		Int("port", cfg.Port).
		Str("database", cfg.Database).
		Int("max_conns", cfg.MaxOpenConns).
		Str("default_isolation", defaultIsolation.String()).
		Msg("connected to PostgreSQL")

	return NewDBFromPool(pool, defaultIsolation, logger), nil
}

// NewDBFromPool wraps an existing pool. IsolationDefault falls back to serializable.
func NewDBFromPool(pool Pool, defaultIsolation repository.IsolationLevel, logger zerolog.Logger) *DB {
	if defaultIsolation == repository.IsolationDefault {
		defaultIsolation = repository.IsolationSerializable
	}
	return &DB{
		pool:             pool,
		defaultIsolation: defaultIsolation,
		logger:           logger,
	}
}

// Close closes the database connection pool.
func (db *DB) Close() error {
	db.pool.Close()
	db.logger.Info().Msg("database connection pool closed")
	return nil
}

// Ping checks the database connection.
func (db *DB) Ping(ctx context.Context) error {
	return db.pool.Ping(ctx)
}

// Health checks the database connection health.
func (db *DB) Health(ctx context.Context) error {
	return db.pool.Ping(ctx)
}

// Driver returns "postgres".
func (db *DB) Driver() string {
	return "postgres"
}

// WithTx runs fn against repositories bound to a single transaction.
func (db *DB) WithTx(ctx context.Context, opts repository.TxOptions, fn func(repos *repository.Repositories) error) error {
	level := opts.Isolation
	if level == repository.IsolationDefault {
		level = db.defaultIsolation
	}

	txOpts := pgx.TxOptions{IsoLevel: isoLevel(level)}
	if opts.ReadOnly {
		txOpts.AccessMode = pgx.ReadOnly
	}

	return db.RunInTx(ctx, txOpts, func(tx pgx.Tx) error {
		return fn(NewRepositories(tx))
	})
}

// RunInTx executes a function within a transaction.
// If the function returns an error, the transaction is rolled back.
// Otherwise, the transaction is committed.
func (db *DB) RunInTx(ctx context.Context, opts pgx.TxOptions, fn func(tx pgx.Tx) error) error {
	tx, err := db.pool.BeginTx(ctx, opts)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback(ctx)
			panic(p)
		}
	}()

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(ctx); rbErr != nil {
			return fmt.Errorf("tx error: %v, rollback error: %w", err, rbErr)
		}
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
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

func isoLevel(level repository.IsolationLevel) pgx.TxIsoLevel {
	switch level {
	case repository.IsolationRepeatableRead:
		return pgx.RepeatableRead
	case repository.IsolationReadCommitted:
		return pgx.ReadCommitted
	case repository.IsolationReadUncommitted:
		return pgx.ReadUncommitted
	default:
		return pgx.Serializable
	}
}

// queryTracer implements pgx.QueryTracer for debug logging.
type queryTracer struct {
	logger zerolog.Logger
}

type traceQueryCtxKey struct{}

type traceQueryData struct {
	sql       string
	startTime time.Time
}

func (t *queryTracer) TraceQueryStart(ctx context.Context, conn *pgx.Conn, data pgx.TraceQueryStartData) context.Context {
	return context.WithValue(ctx, traceQueryCtxKey{}, &traceQueryData{
		sql:       data.SQL,
		startTime: time.Now(),
	})
}

func (t *queryTracer) TraceQueryEnd(ctx context.Context, conn *pgx.Conn, data pgx.TraceQueryEndData) {
	queryData, ok := ctx.Value(traceQueryCtxKey{}).(*traceQueryData)
	if !ok {
		return
	}

	event := t.logger.Debug().
		Str("sql", queryData.sql).
		Dur("duration", time.Since(queryData.startTime)).
		Str("command_tag", data.CommandTag.String())

	if data.Err != nil {
		event.Err(data.Err)
	}

	event.Msg("query executed")
}

var _ repository.Store = (*DB)(nil)
