// Package migrate runs goose migrations from an embedded filesystem with
// goose's output routed through zerolog.
package migrate

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"
	"strings"
	"sync"

	"github.com/pressly/goose/v3"
	"github.com/rs/zerolog"
)

// Dir is the directory holding the SQL files inside each embedded FS.
const Dir = "migrations"

// goose keeps its base FS, dialect and logger in package globals.
var mu sync.Mutex

// Logger adapts a zerolog.Logger to goose.Logger.
type Logger struct {
	logger zerolog.Logger
}

// NewLogger returns a goose logger writing through logger.
func NewLogger(logger zerolog.Logger) *Logger {
	return &Logger{logger: logger.With().Str("component", "goose").Logger()}
}

// Printf logs goose progress at info level.
func (l *Logger) Printf(format string, v ...interface{}) {
	l.logger.Info().Msg(strings.TrimSpace(fmt.Sprintf(format, v...)))
}

// Fatalf logs at fatal level, which exits like goose's default logger.
func (l *Logger) Fatalf(format string, v ...interface{}) {
	l.logger.Fatal().Msg(strings.TrimSpace(fmt.Sprintf(format, v...)))
}

var _ goose.Logger = (*Logger)(nil)

// Run executes a goose command ("up", "down", "status", "version") against
// db using the SQL files under Dir in fsys.
func Run(ctx context.Context, db *sql.DB, fsys fs.FS, dialect, command string, logger zerolog.Logger) error {
	mu.Lock()
	defer func() {
		goose.SetBaseFS(nil)
		mu.Unlock()
	}()

	goose.SetBaseFS(fsys)
	goose.SetLogger(NewLogger(logger))
	if err := goose.SetDialect(dialect); err != nil {
		return fmt.Errorf("set goose dialect: %w", err)
	}
	if err := goose.RunContext(ctx, command, db, Dir); err != nil {
		return fmt.Errorf("migrate %s: %w", command, err)
	}
	return nil
}
