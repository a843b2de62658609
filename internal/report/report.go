// Package report renders a change set for people: an HTML mail body, a
// plain-text variant for chat delivery and an optional spreadsheet.
package report

import (
	"fmt"
	"html/template"
	"strings"
	"time"

	"github.com/Houeta/yacht-watch/internal/models"
)

// HeaderDateLayout is how the baseline date is shown in the report header.
const HeaderDateLayout = "01-02-2006"

// Report is the input of every renderer.
type Report struct {
	Baseline *time.Time // Baseline is the capture date of the previous snapshot, nil on the first run.
	Changes  models.Changes
}

type update struct {
	Label string
	Value string
}

type changedEntry struct {
	models.Listing
	Updates []update
}

type view struct {
	Baseline string
	Added    []models.Listing
	Removed  []models.Listing
	Changed  []changedEntry
}

var updateLabels = map[models.Field]string{
	models.FieldName:     "Update name:",
	models.FieldPrice:    "Update price:",
	models.FieldLocation: "Update location:",
}

var htmlTemplate = template.Must(template.New("report").Parse(
	`{{define "entry"}}<li><a href="{{.URL}}">{{.Name}}</a> (ID #{{.ID}})</li>{{end}}` +
		`{{if .Baseline}}<p><strong>Listings changes since {{.Baseline}}:</strong></p>` +
		`{{else}}<p><strong>Initial inventory snapshot, no earlier snapshot to compare against.</strong></p>{{end}}` +
		`{{if .Added}}<p><strong>Listings added:</strong></p><ul>{{range .Added}}{{template "entry" .}}{{end}}</ul>` +
		`{{else}}<p><strong>No new listings added.</strong></p>{{end}}` +
		`{{if .Removed}}<p><strong>Listings removed:</strong></p><ul>{{range .Removed}}{{template "entry" .}}{{end}}</ul>` +
		`{{else}}<p><strong>No listings removed.</strong></p>{{end}}` +
		`{{if .Changed}}<p><strong>Listings changed:</strong></p><ul>{{range .Changed}}` +
		`<li><a href="{{.URL}}">{{.Name}}</a> (ID #{{.ID}})<ul>` +
		`{{range .Updates}}<li><strong>{{.Label}}</strong> {{.Value}}</li>{{end}}</ul></li>{{end}}</ul>` +
		`{{else}}<p><strong>No listings changed.</strong></p>{{end}}`,
))

func newView(r Report) view {
	v := view{Added: r.Changes.Added, Removed: r.Changes.Removed}
	if r.Baseline != nil {
		v.Baseline = r.Baseline.Format(HeaderDateLayout)
	}

	for _, c := range r.Changes.Changed {
		var updates []update
		for _, f := range c.Fields {
			if value := c.New.Value(f); value != "" && value != c.Old.Value(f) {
				updates = append(updates, update{Label: updateLabels[f], Value: value})
			}
		}
		if len(updates) == 0 {
			continue
		}
		// Link to the current page, labelled with the name the reader knew.
		v.Changed = append(v.Changed, changedEntry{
			Listing: models.Listing{ID: c.New.ID, URL: c.New.URL, Name: c.Old.Name},
			Updates: updates,
		})
	}

	return v
}

// RenderHTML renders the mail body.
func RenderHTML(r Report) (string, error) {
	var sb strings.Builder
	if err := htmlTemplate.Execute(&sb, newView(r)); err != nil {
		return "", fmt.Errorf("failed to render html report: %w", err)
	}

	return sb.String(), nil
}

// RenderText renders the report as plain text.
func RenderText(r Report) string {
	v := newView(r)

	var sb strings.Builder
	if v.Baseline != "" {
		fmt.Fprintf(&sb, "Listings changes since %s:\n", v.Baseline)
	} else {
		sb.WriteString("Initial inventory snapshot, no earlier snapshot to compare against.\n")
	}

	section := func(title, empty string, listings []models.Listing) {
		sb.WriteString("\n")
		if len(listings) == 0 {
			sb.WriteString(empty + "\n")
			return
		}
		sb.WriteString(title + "\n")
		for _, l := range listings {
			fmt.Fprintf(&sb, "- %s (ID #%s) %s\n", l.Name, l.ID, l.URL)
		}
	}
	section("Listings added:", "No new listings added.", v.Added)
	section("Listings removed:", "No listings removed.", v.Removed)

	sb.WriteString("\n")
	if len(v.Changed) == 0 {
		sb.WriteString("No listings changed.\n")
		return sb.String()
	}
	sb.WriteString("Listings changed:\n")
	for _, c := range v.Changed {
		fmt.Fprintf(&sb, "- %s (ID #%s) %s\n", c.Name, c.ID, c.URL)
		for _, u := range c.Updates {
			fmt.Fprintf(&sb, "    %s %s\n", u.Label, u.Value)
		}
	}

	return sb.String()
}
