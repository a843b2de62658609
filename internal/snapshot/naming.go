package snapshot

import (
	"fmt"
	"strings"
	"time"
)

const (
	// DateLayout is the MM_DD_YYYY stamp used in every artifact name.
	DateLayout = "01_02_2006"
	// InventoryPrefix starts the name of every inventory snapshot file.
	InventoryPrefix = "current_inventory_"

	MimeCSV  = "text/csv"
	MimeHTML = "text/html"
	MimeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// Names holds the artifact file names of one run.
type Names struct {
	Stamp    string
	Snapshot string
	Added    string
	Removed  string
	Changed  string
	Report   string
	Workbook string
}

// NamesFor returns the artifact names for a run on the given date.
func NamesFor(date time.Time) Names {
	stamp := date.Format(DateLayout)

	return Names{
		Stamp:    stamp,
		Snapshot: InventoryPrefix + stamp + ".csv",
		Added:    stamp + "_listings_added.csv",
		Removed:  stamp + "_listings_removed.csv",
		Changed:  stamp + "_listings_changed.csv",
		Report:   stamp + "_listing_changes_message.html",
		Workbook: stamp + "_listing_changes.xlsx",
	}
}

// ParseDate parses a MM_DD_YYYY stamp.
func ParseDate(stamp string) (time.Time, error) {
	date, err := time.Parse(DateLayout, stamp)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date stamp %q, want MM_DD_YYYY: %w", stamp, err)
	}

	return date, nil
}

// SnapshotDate extracts the capture date from a snapshot file name.
func SnapshotDate(name string) (time.Time, error) {
	stamp := strings.TrimSuffix(strings.TrimPrefix(name, InventoryPrefix), ".csv")
	if stamp == name || len(stamp) != len(DateLayout) {
		return time.Time{}, fmt.Errorf("not an inventory snapshot name: %q", name)
	}

	return ParseDate(stamp)
}
