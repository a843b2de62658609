package sqlite_test

import (
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/Houeta/yacht-watch/internal/repository/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestNewRepository(t *testing.T) {
	t.Run("creates schema in a new file", func(t *testing.T) {
		dbPath := filepath.Join(t.TempDir(), "archive.sqlite")

		repo, err := sqlite.NewRepository(t.Context(), discardLogger(), dbPath)
		require.NoError(t, err)
		t.Cleanup(func() { _ = repo.Close() })

		var count int
		err = repo.DB().
			QueryRow("SELECT count(*) FROM sqlite_master WHERE type='table' AND name='files'").
			Scan(&count)
		require.NoError(t, err)
		assert.Equal(t, 1, count)
	})

	t.Run("reopening keeps existing schema", func(t *testing.T) {
		dbPath := filepath.Join(t.TempDir(), "archive.sqlite")

		first, err := sqlite.NewRepository(t.Context(), discardLogger(), dbPath)
		require.NoError(t, err)
		require.NoError(t, first.Close())

		second, err := sqlite.NewRepository(t.Context(), discardLogger(), dbPath)
		require.NoError(t, err)
		assert.NoError(t, second.Close())
	})

	t.Run("invalid path", func(t *testing.T) {
		_, err := sqlite.NewRepository(t.Context(), discardLogger(), "/invalid/path/to/db.sqlite")
		require.Error(t, err)
	})
}
