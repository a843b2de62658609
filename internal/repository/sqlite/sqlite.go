package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	_ "github.com/mattn/go-sqlite3" // registers the sqlite3 driver
)

// Repository keeps run artifacts as rows of a single SQLite file.
type Repository struct {
	db  *sql.DB
	log *slog.Logger
	now func() time.Time
}

// NewRepository opens the database at storagePath and prepares its schema.
func NewRepository(ctx context.Context, log *slog.Logger, storagePath string) (*Repository, error) {
	const opn = "repository.sqlite.NewRepository"

	dtb, err := sql.Open("sqlite3", fmt.Sprintf("%s?_foreign_keys=on", storagePath))
	if err != nil {
		return nil, fmt.Errorf("%s: error opening database %s: %w", opn, storagePath, err)
	}

	if err = dtb.PingContext(ctx); err != nil {
		_ = dtb.Close()
		return nil, fmt.Errorf("%s: unable to reach database %s: %w", opn, storagePath, err)
	}

	if err = migrate(ctx, dtb); err != nil {
		_ = dtb.Close()
		return nil, fmt.Errorf("%s: %w", opn, err)
	}

	log.Debug("Snapshot store ready", "op", opn, "path", storagePath)

	return &Repository{db: dtb, log: log, now: time.Now}, nil
}

// files rows are never updated in place; a replaced artifact is deleted and inserted again.
const schema = `
CREATE TABLE IF NOT EXISTS files (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	name TEXT NOT NULL,
	mime_type TEXT NOT NULL,
	data BLOB NOT NULL,
	created_at INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_files_name ON files (name);
CREATE INDEX IF NOT EXISTS idx_files_created_at ON files (created_at DESC);
`

func migrate(ctx context.Context, dtb *sql.DB) error {
	if _, err := dtb.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}

	return nil
}

// Close closes the connection to the database.
func (r *Repository) Close() error {
	if err := r.db.Close(); err != nil {
		r.log.Error("Failed to close snapshot store", "op", "repository.sqlite.Close", "error", err)
		return fmt.Errorf("repository.sqlite.Close: %w", err)
	}

	return nil
}

// DB exposes the underlying handle.
func (r *Repository) DB() *sql.DB {
	return r.db
}
