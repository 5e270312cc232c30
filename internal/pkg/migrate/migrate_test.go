package migrate

import (
	"bytes"
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"testing/fstest"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "modernc.org/sqlite"
)

func TestLogger(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(zerolog.New(&buf))

	l.Printf("goose: successfully migrated database to version: %d\n", 3)

	assert.Contains(t, buf.String(), `"level":"info"`)
	assert.Contains(t, buf.String(), `"component":"goose"`)
	assert.Contains(t, buf.String(), `"message":"goose: successfully migrated database to version: 3"`)
}

func TestRun(t *testing.T) {
	ctx := context.Background()
	db, err := sql.Open("sqlite", filepath.Join(t.TempDir(), "m.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	fsys := fstest.MapFS{
		"migrations/00001_things.sql": &fstest.MapFile{Data: []byte(
			"-- +goose Up\nCREATE TABLE things (id INTEGER PRIMARY KEY);\n\n-- +goose Down\nDROP TABLE things;\n",
		)},
	}

	t.Run("Should route goose output through zerolog", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, Run(ctx, db, fsys, "sqlite3", "up", zerolog.New(&buf)))

		assert.Contains(t, buf.String(), `"component":"goose"`)
		assert.Contains(t, buf.String(), "00001_things.sql")

		var n int
		require.NoError(t, db.QueryRowContext(ctx, "SELECT COUNT(*) FROM things").Scan(&n))
		assert.Zero(t, n)
	})

	t.Run("Should reject an unknown dialect", func(t *testing.T) {
		err := Run(ctx, db, fsys, "oracle", "up", zerolog.Nop())
		assert.ErrorContains(t, err, "set goose dialect")
	})

	t.Run("Should wrap command failures", func(t *testing.T) {
		err := Run(ctx, db, fsys, "sqlite3", "sideways", zerolog.Nop())
		assert.ErrorContains(t, err, "migrate sideways")
	})
}
