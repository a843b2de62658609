package sqlite

import (
	"database/sql"
	"io"
	"log/slog"
	"time"
)

// NewForTest wraps an existing connection, skipping schema setup.
func NewForTest(db *sql.DB) *Repository {
	return &Repository{db: db, log: slog.New(slog.NewTextHandler(io.Discard, nil)), now: time.Now}
}

// SetClock replaces the clock used for creation times.
func (r *Repository) SetClock(now func() time.Time) {
	r.now = now
}
