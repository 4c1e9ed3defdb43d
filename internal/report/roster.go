// Package report reads and writes the spreadsheet formats used for roster
// imports and schedule/performance exports.
package report

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"
)

// RosterColumns is the expected header row of a roster import.
var RosterColumns = []string{"Name", "Email", "Role", "Department", "Position", "Phone"}

// ErrBadHeader is returned when the first row does not match RosterColumns.
var ErrBadHeader = errors.New("roster header must be: " + strings.Join(RosterColumns, ", "))

// RosterRow is one data row of a roster sheet. Line is the 1-based sheet row.
type RosterRow struct {
	Line       int
	Name       string
	Email      string
	Role       string
	Department string
	Position   string
	Phone      string
}

// ParseRoster reads the first sheet of an xlsx workbook. Blank rows are skipped;
// rows are otherwise returned as-is for the caller to validate.
func ParseRoster(r io.Reader) ([]RosterRow, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, errors.New("workbook has no sheets")
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read rows: %w", err)
	}
	if len(rows) == 0 || !headerMatches(rows[0]) {
		return nil, ErrBadHeader
	}

	var out []RosterRow
	for i, row := range rows[1:] {
		cell := func(idx int) string {
			if idx < len(row) {
				return strings.TrimSpace(row[idx])
			}
			return ""
		}
		rr := RosterRow{
			Line:       i + 2,
			Name:       cell(0),
			Email:      cell(1),
			Role:       strings.ToUpper(cell(2)),
			Department: cell(3),
			Position:   cell(4),
			Phone:      cell(5),
		}
		if rr.Name == "" && rr.Email == "" {
			continue
		}
		out = append(out, rr)
	}
	return out, nil
}

func headerMatches(row []string) bool {
	if len(row) < len(RosterColumns) {
		return false
	}
	for i, col := range RosterColumns {
		if !strings.EqualFold(strings.TrimSpace(row[i]), col) {
			return false
		}
	}
	return true
}
