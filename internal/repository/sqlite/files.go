package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/Houeta/yacht-watch/internal/repository"
)

// List returns the files matching filter, newest first, ties in insertion order.
func (r *Repository) List(ctx context.Context, filter repository.ListFilter) ([]repository.FileInfo, error) {
	const opn = "repository.sqlite.List"

	var (
		conds []string
		args  []any
	)
	if filter.NameContains != "" {
		conds = append(conds, "instr(name, ?) > 0")
		args = append(args, filter.NameContains)
	}
	if filter.NameEquals != "" {
		conds = append(conds, "name = ?")
		args = append(args, filter.NameEquals)
	}
	if filter.MimeType != "" {
		conds = append(conds, "mime_type = ?")
		args = append(args, filter.MimeType)
	}

	query := "SELECT id, name, mime_type, created_at FROM files"
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY created_at DESC, id ASC"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to list files: %w", opn, err)
	}
	defer rows.Close()

	var files []repository.FileInfo
	for rows.Next() {
		var (
			id        int64
			createdAt int64
			f         repository.FileInfo
		)
		if err = rows.Scan(&id, &f.Name, &f.MimeType, &createdAt); err != nil {
			return nil, fmt.Errorf("%s: failed to scan file: %w", opn, err)
		}
		f.ID = strconv.FormatInt(id, 10)
		f.CreatedTime = time.Unix(0, createdAt).UTC()
		files = append(files, f)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: rows iteration error: %w", opn, err)
	}

	return files, nil
}

// Get returns the content of a stored file.
func (r *Repository) Get(ctx context.Context, id string) ([]byte, error) {
	const opn = "repository.sqlite.Get"

	var data []byte
	err := r.db.QueryRowContext(ctx, "SELECT data FROM files WHERE id = ?", id).Scan(&data)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: file %s: %w", opn, id, repository.ErrNotFound)
		}
		return nil, fmt.Errorf("%s: failed to get file %s: %w", opn, id, err)
	}

	return data, nil
}

// Put stores a new file and returns its id.
func (r *Repository) Put(ctx context.Context, name string, data []byte, mimeType string) (string, error) {
	const opn = "repository.sqlite.Put"

	res, err := r.db.ExecContext(
		ctx,
		"INSERT INTO files (name, mime_type, data, created_at) VALUES (?, ?, ?, ?)",
		name, mimeType, data, r.now().UnixNano(),
	)
	if err != nil {
		return "", fmt.Errorf("%s: failed to insert file %s: %w", opn, name, err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return "", fmt.Errorf("%s: failed to get id of file %s: %w", opn, name, err)
	}

	return strconv.FormatInt(id, 10), nil
}

// Delete removes a stored file.
func (r *Repository) Delete(ctx context.Context, id string) error {
	const opn = "repository.sqlite.Delete"

	res, err := r.db.ExecContext(ctx, "DELETE FROM files WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("%s: %w", opn, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: failed to get affected rows: %w", opn, err)
	}
	if n == 0 {
		return fmt.Errorf("%s: file %s: %w", opn, id, repository.ErrNotFound)
	}

	return nil
}
