package runner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Houeta/yacht-watch/internal/repository"
	"github.com/spf13/afero"
)

// uploadOrReplace stores a local artifact, deleting any stored file with the same name first.
func (r *Runner) uploadOrReplace(ctx context.Context, a artifact) error {
	data, err := afero.ReadFile(r.fs, r.path(a.name))
	if err != nil {
		return fmt.Errorf("%w: %s: failed to read local file: %w", ErrArchival, a.name, err)
	}

	existing, err := r.store.List(ctx, repository.ListFilter{NameEquals: a.name})
	if err != nil {
		return fmt.Errorf("%w: %s: failed to look up existing file: %w", ErrArchival, a.name, err)
	}

	for _, f := range existing {
		if err = r.store.Delete(ctx, f.ID); err != nil && !errors.Is(err, repository.ErrNotFound) {
			return fmt.Errorf("%w: %s: failed to delete existing file %s: %w", ErrArchival, a.name, f.ID, err)
		}
		r.log.InfoContext(ctx, "Deleted existing file", "file", a.name, "id", f.ID)
	}

	id, err := r.store.Put(ctx, a.name, data, a.mime)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrArchival, a.name, err)
	}
	r.log.InfoContext(ctx, "Uploaded file", "file", a.name, "id", id)

	return nil
}

// cleanup removes local artifacts, logging every file it could not delete.
func (r *Runner) cleanup(ctx context.Context, log *slog.Logger, names []string) []error {
	var errs []error
	for _, name := range names {
		if err := r.fs.Remove(r.path(name)); err != nil {
			log.WarnContext(ctx, "Error deleting file", "file", name, "error", err)
			errs = append(errs, err)
			continue
		}
		log.DebugContext(ctx, "Deleted file", "file", name)
	}

	return errs
}
