package report

import (
	"fmt"

	"github.com/Houeta/yacht-watch/internal/models"
	"github.com/Houeta/yacht-watch/internal/snapshot"
	"github.com/xuri/excelize/v2"
)

const (
	sheetAdded   = "Added"
	sheetRemoved = "Removed"
	sheetChanged = "Changed"
)

// Workbook renders the change set as an XLSX file with one sheet per section.
// Column layouts match the CSV artifacts.
func Workbook(changes models.Changes) ([]byte, error) {
	const opn = "report.Workbook"

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheetAdded); err != nil {
		return nil, fmt.Errorf("%s: %w", opn, err)
	}
	for _, name := range []string{sheetRemoved, sheetChanged} {
		if _, err := f.NewSheet(name); err != nil {
			return nil, fmt.Errorf("%s: failed to add sheet %s: %w", opn, name, err)
		}
	}

	listingRows := func(listings []models.Listing) [][]string {
		rows := [][]string{snapshot.Header}
		for _, l := range listings {
			rows = append(rows, []string{l.ID, l.URL, l.Name, l.Price, l.Location})
		}
		return rows
	}

	changedRows := [][]string{snapshot.ChangedHeader}
	for _, c := range changes.Changed {
		changedRows = append(changedRows, []string{
			c.Old.ID,
			c.Old.URL, c.Old.Name, c.Old.Price, c.Old.Location,
			c.New.URL, c.New.Name, c.New.Price, c.New.Location,
		})
	}

	sheets := map[string][][]string{
		sheetAdded:   listingRows(changes.Added),
		sheetRemoved: listingRows(changes.Removed),
		sheetChanged: changedRows,
	}
	for name, rows := range sheets {
		if err := writeRows(f, name, rows); err != nil {
			return nil, fmt.Errorf("%s: %w", opn, err)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("%s: failed to write workbook: %w", opn, err)
	}

	return buf.Bytes(), nil
}

func writeRows(f *excelize.File, sheet string, rows [][]string) error {
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		values := make([]interface{}, len(row))
		for j, v := range row {
			values[j] = v
		}
		if err = f.SetSheetRow(sheet, cell, &values); err != nil {
			return fmt.Errorf("failed to write row %d of %s: %w", i+1, sheet, err)
		}
	}

	return nil
}
