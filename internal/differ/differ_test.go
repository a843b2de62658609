package differ_test

import (
	"strconv"
	"testing"

	"github.com/Houeta/yacht-watch/internal/differ"
	"github.com/Houeta/yacht-watch/internal/models"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func listing(id, name, price, location string) models.Listing {
	return models.Listing{
		ID:       id,
		URL:      "https://yachts360.com/boats-for-sale/" + id + "/",
		Name:     name,
		Price:    price,
		Location: location,
	}
}

func TestDiff(t *testing.T) {
	l1 := listing("1", "Azimut 55", "$1,000,000", "Miami, FL")
	l2Old := listing("2", "Sunseeker 68", "$2,100,000", "Fort Lauderdale, FL")
	l2New := listing("2", "Sunseeker 68", "$1,950,000", "Fort Lauderdale, FL")
	l3 := listing("3", "Beneteau 42", "$400,000", "Annapolis, MD")
	l4 := listing("4", "Riva 76", "Call for price", "Monaco")

	testCases := []struct {
		name     string
		previous *models.Snapshot
		current  models.Snapshot
		expected models.Changes
	}{
		{
			name:     "First run: everything is added",
			previous: nil,
			current:  models.Snapshot{Listings: []models.Listing{l1, l3}},
			expected: models.Changes{Added: []models.Listing{l1, l3}},
		},
		{
			name:     "Added, removed and changed",
			previous: &models.Snapshot{Listings: []models.Listing{l1, l2Old, l3}},
			current:  models.Snapshot{Listings: []models.Listing{l2New, l3, l4}},
			expected: models.Changes{
				Added:   []models.Listing{l4},
				Removed: []models.Listing{l1},
				Changed: []models.ChangeInfo{
					{Old: l2Old, New: l2New, Fields: []models.Field{models.FieldPrice}},
				},
			},
		},
		{
			name:     "Only the price changed",
			previous: &models.Snapshot{Listings: []models.Listing{listing("1", "X", "$1", "A")}},
			current:  models.Snapshot{Listings: []models.Listing{listing("1", "X", "$2", "A")}},
			expected: models.Changes{
				Changed: []models.ChangeInfo{{
					Old:    listing("1", "X", "$1", "A"),
					New:    listing("1", "X", "$2", "A"),
					Fields: []models.Field{models.FieldPrice},
				}},
			},
		},
		{
			name:     "Every compared field changed",
			previous: &models.Snapshot{Listings: []models.Listing{listing("7", "Old", "$1", "A")}},
			current:  models.Snapshot{Listings: []models.Listing{listing("7", "New", "$2", "B")}},
			expected: models.Changes{
				Changed: []models.ChangeInfo{{
					Old:    listing("7", "Old", "$1", "A"),
					New:    listing("7", "New", "$2", "B"),
					Fields: []models.Field{models.FieldName, models.FieldPrice, models.FieldLocation},
				}},
			},
		},
		{
			name:     "URL change alone is not a change",
			previous: &models.Snapshot{Listings: []models.Listing{{ID: "9", URL: "/a", Name: "N", Price: "P", Location: "L"}}},
			current:  models.Snapshot{Listings: []models.Listing{{ID: "9", URL: "/b", Name: "N", Price: "P", Location: "L"}}},
			expected: models.Changes{},
		},
		{
			name:     "Comparison is exact: case and whitespace matter",
			previous: &models.Snapshot{Listings: []models.Listing{listing("5", "Riva", "$1", "Monaco")}},
			current:  models.Snapshot{Listings: []models.Listing{listing("5", "RIVA", "$1", "Monaco ")}},
			expected: models.Changes{
				Changed: []models.ChangeInfo{{
					Old:    listing("5", "Riva", "$1", "Monaco"),
					New:    listing("5", "RIVA", "$1", "Monaco "),
					Fields: []models.Field{models.FieldName, models.FieldLocation},
				}},
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			changes, err := differ.Diff(tc.previous, tc.current)
			require.NoError(t, err)
			assert.Equal(t, tc.expected, changes)
		})
	}
}

func TestDiff_DuplicateListingID(t *testing.T) {
	dup := models.Snapshot{Listings: []models.Listing{
		listing("1", "A", "$1", "X"),
		listing("1", "B", "$2", "Y"),
	}}
	clean := models.Snapshot{Listings: []models.Listing{listing("2", "C", "$3", "Z")}}

	t.Run("duplicate in current", func(t *testing.T) {
		_, err := differ.Diff(&clean, dup)
		require.ErrorIs(t, err, differ.ErrDuplicateListingID)
		assert.ErrorContains(t, err, "current snapshot")
	})

	t.Run("duplicate in previous", func(t *testing.T) {
		_, err := differ.Diff(&dup, clean)
		require.ErrorIs(t, err, differ.ErrDuplicateListingID)
		assert.ErrorContains(t, err, "previous snapshot")
	})

	t.Run("duplicate in current without baseline", func(t *testing.T) {
		_, err := differ.Diff(nil, dup)
		require.ErrorIs(t, err, differ.ErrDuplicateListingID)
	})
}

func TestDiff_OrderIsStable(t *testing.T) {
	previous := models.Snapshot{Listings: []models.Listing{
		listing("z", "Zeta", "$1", "A"),
		listing("keep", "Keep", "$1", "A"),
		listing("a", "Alpha", "$1", "A"),
	}}
	current := models.Snapshot{Listings: []models.Listing{
		listing("m", "Mu", "$1", "A"),
		listing("keep", "Keep", "$1", "A"),
		listing("b", "Beta", "$1", "A"),
	}}

	changes, err := differ.Diff(&previous, current)
	require.NoError(t, err)

	assert.Equal(t, []string{"m", "b"}, ids(changes.Added))
	assert.Equal(t, []string{"z", "a"}, ids(changes.Removed))
	assert.Empty(t, changes.Changed)
}

func ids(listings []models.Listing) []string {
	out := make([]string, 0, len(listings))
	for _, l := range listings {
		out = append(out, l.ID)
	}

	return out
}

// genSnapshot builds snapshots with unique IDs carrying the given prefix.
func genSnapshot(prefix string) gopter.Gen {
	return gen.SliceOf(gen.IntRange(0, 500)).Map(func(nums []int) models.Snapshot {
		seen := make(map[int]bool, len(nums))
		var snap models.Snapshot
		for _, n := range nums {
			if seen[n] {
				continue
			}
			seen[n] = true
			id := prefix + strconv.Itoa(n)
			snap.Listings = append(snap.Listings, listing(id, "Yacht "+id, "$"+strconv.Itoa(n*1000), "Port "+strconv.Itoa(n%7)))
		}

		return snap
	})
}

func sameListings(a, b []models.Listing) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}

	return true
}

func TestDiff_Properties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200

	properties := gopter.NewProperties(parameters)

	properties.Property("no baseline reports every listing as added", prop.ForAll(
		func(s models.Snapshot) bool {
			changes, err := differ.Diff(nil, s)
			return err == nil && sameListings(changes.Added, s.Listings) &&
				len(changes.Removed) == 0 && len(changes.Changed) == 0
		},
		genSnapshot("id-"),
	))

	properties.Property("a snapshot compared with itself has no changes", prop.ForAll(
		func(s models.Snapshot) bool {
			changes, err := differ.Diff(&s, s)
			return err == nil && changes.Empty()
		},
		genSnapshot("id-"),
	))

	properties.Property("disjoint snapshots: all added, all removed", prop.ForAll(
		func(a, b models.Snapshot) bool {
			changes, err := differ.Diff(&a, b)
			return err == nil && sameListings(changes.Added, b.Listings) &&
				sameListings(changes.Removed, a.Listings) && len(changes.Changed) == 0
		},
		genSnapshot("a-"),
		genSnapshot("b-"),
	))

	properties.Property("added, removed and changed are disjoint by id", prop.ForAll(
		func(a, b models.Snapshot) bool {
			// Both use the same prefix so IDs overlap; change a price to create modifications.
			for i := range b.Listings {
				if i%2 == 0 {
					b.Listings[i].Price += "0"
				}
			}
			changes, err := differ.Diff(&a, b)
			if err != nil {
				return false
			}
			seen := make(map[string]int)
			for _, l := range changes.Added {
				seen[l.ID]++
			}
			for _, l := range changes.Removed {
				seen[l.ID]++
			}
			for _, c := range changes.Changed {
				if len(c.Fields) == 0 || c.Old.ID != c.New.ID {
					return false
				}
				seen[c.New.ID]++
			}
			for _, n := range seen {
				if n > 1 {
					return false
				}
			}

			return true
		},
		genSnapshot("id-"),
		genSnapshot("id-"),
	))

	properties.TestingRun(t)
}
