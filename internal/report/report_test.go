package report_test

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/Houeta/yacht-watch/internal/models"
	"github.com/Houeta/yacht-watch/internal/report"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func baseline() *time.Time {
	d := time.Date(2026, 10, 13, 0, 0, 0, 0, time.UTC)
	return &d
}

func scenario() models.Changes {
	return models.Changes{
		Added:   []models.Listing{{ID: "4", URL: "/boats-for-sale/4/", Name: "Riva 76", Price: "$3", Location: "Monaco"}},
		Removed: []models.Listing{{ID: "1", URL: "/boats-for-sale/1/", Name: "Azimut 55", Price: "$1", Location: "Miami"}},
		Changed: []models.ChangeInfo{{
			Old:    models.Listing{ID: "2", URL: "/boats-for-sale/2/old/", Name: "Sunseeker", Price: "$2", Location: "FL"},
			New:    models.Listing{ID: "2", URL: "/boats-for-sale/2/new/", Name: "Sunseeker", Price: "$1.9", Location: "FL"},
			Fields: []models.Field{models.FieldPrice},
		}},
	}
}

func TestRenderHTML(t *testing.T) {
	html, err := report.RenderHTML(report.Report{Baseline: baseline(), Changes: scenario()})
	require.NoError(t, err)

	expected := `<p><strong>Listings changes since 10-13-2026:</strong></p>` +
		`<p><strong>Listings added:</strong></p><ul><li><a href="/boats-for-sale/4/">Riva 76</a> (ID #4)</li></ul>` +
		`<p><strong>Listings removed:</strong></p><ul><li><a href="/boats-for-sale/1/">Azimut 55</a> (ID #1)</li></ul>` +
		`<p><strong>Listings changed:</strong></p><ul><li><a href="/boats-for-sale/2/new/">Sunseeker</a> (ID #2)<ul>` +
		`<li><strong>Update price:</strong> $1.9</li></ul></li></ul>`
	assert.Equal(t, expected, html)
}

func TestRenderHTML_EmptySections(t *testing.T) {
	html, err := report.RenderHTML(report.Report{Baseline: baseline()})
	require.NoError(t, err)

	assert.Equal(t,
		`<p><strong>Listings changes since 10-13-2026:</strong></p>`+
			`<p><strong>No new listings added.</strong></p>`+
			`<p><strong>No listings removed.</strong></p>`+
			`<p><strong>No listings changed.</strong></p>`,
		html)
}

func TestRenderHTML_FirstRun(t *testing.T) {
	html, err := report.RenderHTML(report.Report{Changes: models.Changes{Added: scenario().Added}})
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(html, "<p><strong>Initial inventory snapshot"))
	assert.Contains(t, html, "(ID #4)")
}

func TestRenderHTML_Escaping(t *testing.T) {
	changes := models.Changes{Added: []models.Listing{{ID: "5", URL: "/b/5/", Name: "<b>Sea & Sky</b>"}}}

	html, err := report.RenderHTML(report.Report{Baseline: baseline(), Changes: changes})
	require.NoError(t, err)

	assert.Contains(t, html, "&lt;b&gt;Sea &amp; Sky&lt;/b&gt;")
}

func TestRenderHTML_ChangedDisplayGuard(t *testing.T) {
	changes := models.Changes{Changed: []models.ChangeInfo{
		{
			// New value is empty: nothing displayable, entry is dropped.
			Old:    models.Listing{ID: "8", Name: "A", Location: "X"},
			New:    models.Listing{ID: "8", Name: "A", Location: ""},
			Fields: []models.Field{models.FieldLocation},
		},
		{
			Old:    models.Listing{ID: "9", URL: "/9", Name: "Old", Price: "$1", Location: "X"},
			New:    models.Listing{ID: "9", URL: "/9", Name: "New", Price: "$1", Location: "Y"},
			Fields: []models.Field{models.FieldName, models.FieldLocation},
		},
	}}

	html, err := report.RenderHTML(report.Report{Baseline: baseline(), Changes: changes})
	require.NoError(t, err)

	assert.NotContains(t, html, "ID #8")
	assert.Contains(t, html, `<li><a href="/9">Old</a> (ID #9)<ul>`+
		`<li><strong>Update name:</strong> New</li><li><strong>Update location:</strong> Y</li></ul></li>`)
	assert.NotContains(t, html, "Update price:")

	t.Run("only undisplayable changes render the placeholder", func(t *testing.T) {
		html, err := report.RenderHTML(report.Report{Baseline: baseline(), Changes: models.Changes{Changed: changes.Changed[:1]}})
		require.NoError(t, err)
		assert.Contains(t, html, "No listings changed.")
	})
}

func TestRenderText(t *testing.T) {
	text := report.RenderText(report.Report{Baseline: baseline(), Changes: scenario()})

	expected := "Listings changes since 10-13-2026:\n" +
		"\nListings added:\n- Riva 76 (ID #4) /boats-for-sale/4/\n" +
		"\nListings removed:\n- Azimut 55 (ID #1) /boats-for-sale/1/\n" +
		"\nListings changed:\n- Sunseeker (ID #2) /boats-for-sale/2/new/\n    Update price: $1.9\n"
	assert.Equal(t, expected, text)

	empty := report.RenderText(report.Report{})
	assert.Contains(t, empty, "No new listings added.\n")
	assert.Contains(t, empty, "No listings removed.\n")
	assert.Contains(t, empty, "No listings changed.\n")
}

func TestWorkbook(t *testing.T) {
	data, err := report.Workbook(scenario())
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	t.Cleanup(func() { _ = f.Close() })

	assert.Equal(t, []string{"Added", "Removed", "Changed"}, f.GetSheetList())

	added, err := f.GetRows("Added")
	require.NoError(t, err)
	assert.Equal(t, [][]string{
		{"Listing ID", "URL", "Yacht Name", "Price", "Location"},
		{"4", "/boats-for-sale/4/", "Riva 76", "$3", "Monaco"},
	}, added)

	changed, err := f.GetRows("Changed")
	require.NoError(t, err)
	require.Len(t, changed, 2)
	assert.Equal(t, "Price_new", changed[0][7])
	assert.Equal(t, "$1.9", changed[1][7])
}
