// Package snapshot reads and writes inventory snapshots and diff tables as CSV.
package snapshot

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/Houeta/yacht-watch/internal/models"
)

// ErrInvalidHeader is returned when a CSV file does not start with the expected columns.
var ErrInvalidHeader = errors.New("unexpected csv header")

// Header is the column layout of snapshot, added and removed files.
var Header = []string{"Listing ID", "URL", "Yacht Name", "Price", "Location"}

// ChangedHeader is the column layout of the changed file: the ID followed by
// the previous and the new values of every other column.
var ChangedHeader = []string{
	"Listing ID",
	"URL_prev", "Yacht Name_prev", "Price_prev", "Location_prev",
	"URL_new", "Yacht Name_new", "Price_new", "Location_new",
}

func record(l models.Listing) []string {
	return []string{l.ID, l.URL, l.Name, l.Price, l.Location}
}

// EncodeListings writes listings under the snapshot header.
func EncodeListings(listings []models.Listing) ([]byte, error) {
	rows := make([][]string, 0, len(listings)+1)
	rows = append(rows, Header)
	for _, l := range listings {
		rows = append(rows, record(l))
	}

	return write(rows)
}

// Encode writes a full snapshot.
func Encode(snap models.Snapshot) ([]byte, error) {
	return EncodeListings(snap.Listings)
}

// EncodeChanged writes changed pairs side by side.
func EncodeChanged(changed []models.ChangeInfo) ([]byte, error) {
	rows := make([][]string, 0, len(changed)+1)
	rows = append(rows, ChangedHeader)
	for _, c := range changed {
		rows = append(rows, []string{
			c.Old.ID,
			c.Old.URL, c.Old.Name, c.Old.Price, c.Old.Location,
			c.New.URL, c.New.Name, c.New.Price, c.New.Location,
		})
	}

	return write(rows)
}

func write(rows [][]string) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.WriteAll(rows); err != nil {
		return nil, fmt.Errorf("failed to write csv: %w", err)
	}

	return buf.Bytes(), nil
}

// Decode reads a snapshot file. The Listing ID column is trimmed of surrounding whitespace.
func Decode(r io.Reader) ([]models.Listing, error) {
	const opn = "snapshot.Decode"

	cr := csv.NewReader(r)
	cr.FieldsPerRecord = len(Header)

	head, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%s: %w: empty file", opn, ErrInvalidHeader)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: failed to read header: %w", opn, err)
	}
	head[0] = strings.TrimPrefix(head[0], "\ufeff")
	if !slices.Equal(head, Header) {
		return nil, fmt.Errorf("%s: %w: %v", opn, ErrInvalidHeader, head)
	}

	var listings []models.Listing
	for {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%s: failed to read row: %w", opn, err)
		}
		listings = append(listings, models.Listing{
			ID:       strings.TrimSpace(row[0]),
			URL:      row[1],
			Name:     row[2],
			Price:    row[3],
			Location: row[4],
		})
	}

	return listings, nil
}
