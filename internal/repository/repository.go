// Package repository defines the remote snapshot store used to archive run artifacts.
package repository

import (
	"context"
	"errors"
	"slices"
	"time"
)

// ErrNotFound is returned when a stored file does not exist.
var ErrNotFound = errors.New("file not found")

// FileInfo is the metadata of one stored file.
type FileInfo struct {
	ID          string
	Name        string
	MimeType    string
	CreatedTime time.Time
}

// ListFilter narrows a List call. Empty fields match everything.
type ListFilter struct {
	NameContains string
	NameEquals   string
	MimeType     string
}

// SnapshotStore is a blob store keyed by file name.
type SnapshotStore interface {
	// List returns the files matching filter, newest first.
	List(ctx context.Context, filter ListFilter) ([]FileInfo, error)
	// Get returns the content of the file with the given id.
	Get(ctx context.Context, id string) ([]byte, error)
	// Put stores a new file and returns its id.
	Put(ctx context.Context, name string, data []byte, mimeType string) (string, error)
	// Delete removes the file with the given id.
	Delete(ctx context.Context, id string) error
}

// PickLatest returns the most recently created file whose name is not exclude.
// Files with equal creation times keep their input order.
func PickLatest(files []FileInfo, exclude string) (FileInfo, bool) {
	sorted := slices.Clone(files)
	slices.SortStableFunc(sorted, func(a, b FileInfo) int {
		return b.CreatedTime.Compare(a.CreatedTime)
	})

	for _, f := range sorted {
		if f.Name != exclude {
			return f, true
		}
	}

	return FileInfo{}, false
}
