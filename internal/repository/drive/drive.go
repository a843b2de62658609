// Package drive stores run artifacts in a Google Drive folder.
package drive

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/Houeta/yacht-watch/internal/repository"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

const listFields = "nextPageToken, files(id, name, mimeType, createdTime)"

// Repository is a SnapshotStore over the files of one Drive folder.
type Repository struct {
	log      *slog.Logger
	service  *drive.Service
	folderID string
}

// NewRepository connects to Drive with the given client options,
// e.g. option.WithCredentialsFile for a service account.
func NewRepository(ctx context.Context, log *slog.Logger, folderID string, opts ...option.ClientOption) (*Repository, error) {
	if folderID == "" {
		return nil, errors.New("drive folder id is required")
	}

	opts = append([]option.ClientOption{option.WithScopes(drive.DriveFileScope)}, opts...)
	service, err := drive.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create drive service: %w", err)
	}

	return &Repository{log: log, service: service, folderID: folderID}, nil
}

// query translates a filter into a Drive search expression scoped to the folder.
func (r *Repository) query(filter repository.ListFilter) string {
	terms := []string{fmt.Sprintf("'%s' in parents", escape(r.folderID)), "trashed = false"}
	if filter.NameContains != "" {
		terms = append(terms, fmt.Sprintf("name contains '%s'", escape(filter.NameContains)))
	}
	if filter.NameEquals != "" {
		terms = append(terms, fmt.Sprintf("name = '%s'", escape(filter.NameEquals)))
	}
	if filter.MimeType != "" {
		terms = append(terms, fmt.Sprintf("mimeType = '%s'", escape(filter.MimeType)))
	}

	return strings.Join(terms, " and ")
}

func escape(s string) string {
	return strings.NewReplacer(`\`, `\\`, `'`, `\'`).Replace(s)
}

// List returns the matching files of the folder, newest first.
func (r *Repository) List(ctx context.Context, filter repository.ListFilter) ([]repository.FileInfo, error) {
	const opn = "repository.drive.List"

	var files []repository.FileInfo
	err := r.service.Files.List().
		Q(r.query(filter)).
		OrderBy("createdTime desc").
		Fields(listFields).
		Pages(ctx, func(page *drive.FileList) error {
			for _, f := range page.Files {
				created, err := time.Parse(time.RFC3339, f.CreatedTime)
				if err != nil {
					return fmt.Errorf("file %s has invalid createdTime %q: %w", f.Id, f.CreatedTime, err)
				}
				files = append(files, repository.FileInfo{
					ID:          f.Id,
					Name:        f.Name,
					MimeType:    f.MimeType,
					CreatedTime: created,
				})
			}
			return nil
		})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", opn, err)
	}

	return files, nil
}

// Get downloads the content of a file.
func (r *Repository) Get(ctx context.Context, id string) ([]byte, error) {
	const opn = "repository.drive.Get"

	resp, err := r.service.Files.Get(id).Context(ctx).Download()
	if err != nil {
		return nil, fmt.Errorf("%s: file %s: %w", opn, id, notFound(err))
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to read file %s: %w", opn, id, err)
	}

	r.log.DebugContext(ctx, "Downloaded file", "op", opn, "id", id, "bytes", len(data))

	return data, nil
}

// Put uploads a new file into the folder.
func (r *Repository) Put(ctx context.Context, name string, data []byte, mimeType string) (string, error) {
	const opn = "repository.drive.Put"

	meta := &drive.File{Name: name, MimeType: mimeType, Parents: []string{r.folderID}}
	created, err := r.service.Files.Create(meta).
		Media(bytes.NewReader(data), googleapi.ContentType(mimeType)).
		Fields("id").
		Context(ctx).
		Do()
	if err != nil {
		return "", fmt.Errorf("%s: failed to upload %s: %w", opn, name, err)
	}

	return created.Id, nil
}

// Delete permanently removes a file.
func (r *Repository) Delete(ctx context.Context, id string) error {
	const opn = "repository.drive.Delete"

	if err := r.service.Files.Delete(id).Context(ctx).Do(); err != nil {
		return fmt.Errorf("%s: file %s: %w", opn, id, notFound(err))
	}

	return nil
}

// notFound maps a Drive 404 onto repository.ErrNotFound.
func notFound(err error) error {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) && apiErr.Code == http.StatusNotFound {
		return fmt.Errorf("%w: %w", repository.ErrNotFound, err)
	}

	return err
}
