// Package differ compares two inventory snapshots by listing ID.
package differ

import (
	"errors"
	"fmt"

	"github.com/Houeta/yacht-watch/internal/models"
)

// ErrDuplicateListingID is returned when a snapshot holds the same listing ID twice.
var ErrDuplicateListingID = errors.New("duplicate listing id")

// Diff compares the previous snapshot with the current one.
//
// A nil previous snapshot means there is no baseline: every current listing is added.
// Added keeps the order of current, Removed and Changed keep the order of previous.
func Diff(previous *models.Snapshot, current models.Snapshot) (models.Changes, error) {
	const opn = "differ.Diff"

	newMap, err := index(current.Listings)
	if err != nil {
		return models.Changes{}, fmt.Errorf("%s: current snapshot: %w", opn, err)
	}

	if previous == nil {
		return models.Changes{Added: append([]models.Listing(nil), current.Listings...)}, nil
	}

	oldMap, err := index(previous.Listings)
	if err != nil {
		return models.Changes{}, fmt.Errorf("%s: previous snapshot: %w", opn, err)
	}

	var changes models.Changes
	for _, newListing := range current.Listings {
		if _, found := oldMap[newListing.ID]; !found {
			changes.Added = append(changes.Added, newListing)
		}
	}

	for _, oldListing := range previous.Listings {
		newListing, found := newMap[oldListing.ID]
		if !found {
			changes.Removed = append(changes.Removed, oldListing)
			continue
		}
		if fields := changedFields(oldListing, newListing); len(fields) > 0 {
			changes.Changed = append(changes.Changed, models.ChangeInfo{Old: oldListing, New: newListing, Fields: fields})
		}
	}

	return changes, nil
}

// index builds the ID lookup for a listing slice, rejecting repeated IDs.
func index(listings []models.Listing) (map[string]models.Listing, error) {
	byID := make(map[string]models.Listing, len(listings))
	for _, l := range listings {
		if _, dup := byID[l.ID]; dup {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateListingID, l.ID)
		}
		byID[l.ID] = l
	}

	return byID, nil
}

// changedFields returns the compared fields whose values are not exactly equal.
func changedFields(oldListing, newListing models.Listing) []models.Field {
	var fields []models.Field
	for _, f := range models.ComparedFields {
		if oldListing.Value(f) != newListing.Value(f) {
			fields = append(fields, f)
		}
	}

	return fields
}
