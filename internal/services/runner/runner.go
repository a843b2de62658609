package runner

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/Houeta/yacht-watch/internal/differ"
	"github.com/Houeta/yacht-watch/internal/metrics"
	"github.com/Houeta/yacht-watch/internal/models"
	"github.com/Houeta/yacht-watch/internal/notify"
	"github.com/Houeta/yacht-watch/internal/parser"
	"github.com/Houeta/yacht-watch/internal/report"
	"github.com/Houeta/yacht-watch/internal/repository"
	"github.com/Houeta/yacht-watch/internal/snapshot"
	"github.com/google/uuid"
	"github.com/spf13/afero"
)

var (
	// ErrArchival marks an artifact that could not be stored. It never fails a run.
	ErrArchival = errors.New("archival failure")
	// ErrNotification marks a report that could not be delivered. It never fails a run.
	ErrNotification = errors.New("notification failure")
)

// Options tune a run.
type Options struct {
	WorkDir   string
	From      string
	To        []string
	Subject   string
	Workbook  bool      // Workbook also produces the XLSX artifact.
	KeepLocal bool      // KeepLocal skips the final cleanup of local artifacts.
	RunDate   time.Time // RunDate overrides today's date when set.
}

// Runner is an orchestrator that performs a full snapshot-compare-report cycle.
type Runner struct {
	log      *slog.Logger
	parser   parser.HTMLParser
	store    repository.SnapshotStore
	notifier notify.Notifier
	fs       afero.Fs
	metrics  *metrics.Run
	opts     Options
	now      func() time.Time
}

// Result is what a successful run produced.
type Result struct {
	RunID           string
	Names           snapshot.Names
	Baseline        *repository.FileInfo // Baseline is nil on the first run.
	Changes         models.Changes
	HTML            string
	Archived        []string
	ArchivalErrors  []error
	NotificationErr error
	CleanupErrors   []error
}

// NewRunner creates a new Runner instance.
func NewRunner(
	log *slog.Logger,
	parser parser.HTMLParser,
	store repository.SnapshotStore,
	notifier notify.Notifier,
	fs afero.Fs,
	runMetrics *metrics.Run,
	opts Options,
) *Runner {
	if opts.WorkDir == "" {
		opts.WorkDir = "."
	}

	return &Runner{
		log:      log,
		parser:   parser,
		store:    store,
		notifier: notifier,
		fs:       fs,
		metrics:  runMetrics,
		opts:     opts,
		now:      time.Now,
	}
}

// artifact is one local file of the run.
type artifact struct {
	name string
	mime string
}

// Run fetches the previous and the current snapshot, compares them, archives the
// artifacts and sends the report. Only acquisition, comparison and rendering
// errors are returned; archival and delivery failures are reported on the Result.
func (r *Runner) Run(ctx context.Context) (*Result, error) {
	const opn = "runner.Run"

	res := &Result{RunID: uuid.NewString()}
	log := r.log.With("op", opn, "run_id", res.RunID)

	date := r.opts.RunDate
	if date.IsZero() {
		date = r.now()
	}
	res.Names = snapshot.NamesFor(date)

	if err := r.fs.MkdirAll(r.opts.WorkDir, 0o755); err != nil {
		return nil, fmt.Errorf("%s: failed to create work dir %s: %w", opn, r.opts.WorkDir, err)
	}

	var local []string
	defer func() {
		if r.opts.KeepLocal {
			log.InfoContext(ctx, "Keeping local artifacts", "files", local)
			return
		}
		res.CleanupErrors = r.cleanup(ctx, log, local)
	}()

	write := func(name string, data []byte) error {
		if err := afero.WriteFile(r.fs, r.path(name), data, 0o644); err != nil {
			return fmt.Errorf("%s: failed to write %s: %w", opn, name, err)
		}
		local = append(local, name)
		return nil
	}

	// 1. Baseline from the store, never today's own snapshot
	log.InfoContext(ctx, "Looking for the previous snapshot", "exclude", res.Names.Snapshot)
	previous, baseline, raw, err := r.fetchPrevious(ctx, res.Names.Snapshot)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to fetch previous snapshot: %w", opn, err)
	}
	res.Baseline = baseline
	if baseline != nil {
		log.InfoContext(ctx, "Retrieved previous snapshot for comparison", "name", baseline.Name, "id", baseline.ID)
		if err = write(localBaselineName(baseline.Name), raw); err != nil {
			return nil, err
		}
	} else {
		log.InfoContext(ctx, "No previous snapshot found, every listing counts as added")
	}

	// 2. Current inventory
	current, err := r.parser.FetchSnapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to fetch current snapshot: %w", opn, err)
	}
	current.Date = date
	log.InfoContext(ctx, "Successfully parsed listings", "count", len(current.Listings))
	if r.metrics != nil {
		r.metrics.ListingsScraped.Set(float64(len(current.Listings)))
	}

	data, err := snapshot.Encode(current)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", opn, err)
	}
	if err = write(res.Names.Snapshot, data); err != nil {
		return nil, err
	}
	archive := []artifact{{name: res.Names.Snapshot, mime: snapshot.MimeCSV}}

	// 3. Comparison
	res.Changes, err = differ.Diff(previous, current)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", opn, err)
	}
	log.InfoContext(
		ctx,
		"Change detection complete",
		"added", len(res.Changes.Added),
		"removed", len(res.Changes.Removed),
		"changed", len(res.Changes.Changed),
	)
	if r.metrics != nil {
		r.metrics.ObserveChanges(len(res.Changes.Added), len(res.Changes.Removed), len(res.Changes.Changed))
	}

	if previous != nil {
		tables, err := r.diffTables(res.Names, res.Changes)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", opn, err)
		}
		for _, t := range tables {
			if err = write(t.name, t.data); err != nil {
				return nil, err
			}
			if t.rows > 0 {
				archive = append(archive, artifact{name: t.name, mime: snapshot.MimeCSV})
			}
		}
	}

	// 4. Rendering
	rep := report.Report{Changes: res.Changes}
	if previous != nil {
		rep.Baseline = &previous.Date
	}
	res.HTML, err = report.RenderHTML(rep)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", opn, err)
	}
	if err = write(res.Names.Report, []byte(res.HTML)); err != nil {
		return nil, err
	}
	archive = append(archive, artifact{name: res.Names.Report, mime: snapshot.MimeHTML})

	if r.opts.Workbook {
		book, err := report.Workbook(res.Changes)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", opn, err)
		}
		if err = write(res.Names.Workbook, book); err != nil {
			return nil, err
		}
		archive = append(archive, artifact{name: res.Names.Workbook, mime: snapshot.MimeXLSX})
	}

	// 5. Archival, best effort per file
	for _, a := range archive {
		if err := r.uploadOrReplace(ctx, a); err != nil {
			log.ErrorContext(ctx, "Failed to archive file", "file", a.name, "error", err)
			res.ArchivalErrors = append(res.ArchivalErrors, err)
			if r.metrics != nil {
				r.metrics.ArchivalFailures.Inc()
			}
			continue
		}
		res.Archived = append(res.Archived, a.name)
	}
	log.InfoContext(ctx, "Archival finished", "archived", len(res.Archived), "failed", len(res.ArchivalErrors))

	// 6. Delivery
	msg := notify.Message{
		Subject: r.opts.Subject,
		From:    r.opts.From,
		To:      r.opts.To,
		HTML:    res.HTML,
		Text:    report.RenderText(rep),
	}
	if err := r.notifier.Send(ctx, msg); err != nil {
		res.NotificationErr = fmt.Errorf("%w: %w", ErrNotification, err)
		log.ErrorContext(ctx, "Failed to send report", "to", r.opts.To, "error", err)
		if r.metrics != nil {
			r.metrics.NotifyFailures.Inc()
		}
	} else {
		log.InfoContext(ctx, "Report sent", "to", r.opts.To)
	}

	if r.metrics != nil {
		r.metrics.LastSuccess.Set(float64(r.now().Unix()))
	}

	return res, nil
}

func (r *Runner) path(name string) string {
	return filepath.Join(r.opts.WorkDir, name)
}

var pathSeparators = strings.NewReplacer("/", "_", "\\", "_")

// localBaselineName is the work dir file name for a downloaded baseline.
// Stored names are only trusted when they are canonical snapshot names.
func localBaselineName(stored string) string {
	if _, err := snapshot.SnapshotDate(stored); err == nil {
		return stored
	}

	return "baseline_" + pathSeparators.Replace(stored)
}

// fetchPrevious returns the newest stored snapshot other than exclude, or nils when there is none.
func (r *Runner) fetchPrevious(
	ctx context.Context,
	exclude string,
) (*models.Snapshot, *repository.FileInfo, []byte, error) {
	files, err := r.store.List(ctx, repository.ListFilter{
		NameContains: snapshot.InventoryPrefix,
		MimeType:     snapshot.MimeCSV,
	})
	if err != nil {
		return nil, nil, nil, err
	}

	latest, found := repository.PickLatest(files, exclude)
	if !found {
		return nil, nil, nil, nil
	}

	raw, err := r.store.Get(ctx, latest.ID)
	if err != nil {
		return nil, nil, nil, err
	}

	listings, err := snapshot.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, nil, nil, fmt.Errorf("snapshot %s: %w", latest.Name, err)
	}

	date, err := snapshot.SnapshotDate(latest.Name)
	if err != nil {
		date = latest.CreatedTime
	}

	return &models.Snapshot{Date: date, Listings: listings}, &latest, raw, nil
}

type table struct {
	name string
	data []byte
	rows int
}

func (r *Runner) diffTables(names snapshot.Names, changes models.Changes) ([]table, error) {
	added, err := snapshot.EncodeListings(changes.Added)
	if err != nil {
		return nil, err
	}
	removed, err := snapshot.EncodeListings(changes.Removed)
	if err != nil {
		return nil, err
	}
	changed, err := snapshot.EncodeChanged(changes.Changed)
	if err != nil {
		return nil, err
	}

	return []table{
		{name: names.Added, data: added, rows: len(changes.Added)},
		{name: names.Removed, data: removed, rows: len(changes.Removed)},
		{name: names.Changed, data: changed, rows: len(changes.Changed)},
	}, nil
}
