package report

import (
	"fmt"
	"io"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/shiftdesk/staff-scheduler/internal/domain"
)

const timeLayout = "2006-01-02 15:04"

// ScheduleRow pairs a shift with the display name of its staff member.
type ScheduleRow struct {
	Shift     domain.Shift
	StaffName string
}

// PerformanceRow pairs an evaluation with the display name of its staff member.
type PerformanceRow struct {
	Record    domain.PerformanceRecord
	StaffName string
}

// WriteSchedule writes one row per shift.
func WriteSchedule(w io.Writer, rows []ScheduleRow) error {
	header := []interface{}{"Staff", "Start", "End", "Hours", "Type", "Location", "Status", "Checked In", "Checked Out", "Late"}
	return writeSheet(w, "Schedule", header, len(rows), func(i int) []interface{} {
		s := rows[i].Shift
		return []interface{}{
			rows[i].StaffName,
			s.StartAt.UTC().Format(timeLayout),
			s.EndAt.UTC().Format(timeLayout),
			s.Duration().Hours(),
			string(s.ShiftType),
			s.Location,
			string(s.Status),
			formatOptional(s.CheckedInAt),
			formatOptional(s.CheckedOutAt),
			yesNo(s.Late),
		}
	})
}

// WritePerformance writes one row per evaluation. Missing components are left blank.
func WritePerformance(w io.Writer, rows []PerformanceRow) error {
	header := []interface{}{"Staff", "Period Start", "Period End", "Tasks", "Punctuality", "Quality", "Rating", "Overall", "Grade", "Comments"}
	return writeSheet(w, "Performance", header, len(rows), func(i int) []interface{} {
		r := rows[i].Record
		return []interface{}{
			rows[i].StaffName,
			r.PeriodStart.UTC().Format("2006-01-02"),
			r.PeriodEnd.UTC().Format("2006-01-02"),
			scoreCell(r.TaskScore),
			scoreCell(r.PunctualityScore),
			scoreCell(r.QualityScore),
			scoreCell(r.RatingScore),
			r.OverallScore,
			string(r.Grade),
			r.Comments,
		}
	})
}

func writeSheet(w io.Writer, name string, header []interface{}, n int, row func(int) []interface{}) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", name); err != nil {
		return err
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}
	if err := f.SetSheetRow(name, "A1", &header); err != nil {
		return err
	}
	if err := f.SetRowStyle(name, 1, 1, bold); err != nil {
		return err
	}
	for i := 0; i < n; i++ {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		values := row(i)
		if err := f.SetSheetRow(name, cell, &values); err != nil {
			return fmt.Errorf("row %d: %w", i+2, err)
		}
	}
	lastCol, err := excelize.ColumnNumberToName(len(header))
	if err != nil {
		return err
	}
	if err := f.SetColWidth(name, "A", lastCol, 18); err != nil {
		return err
	}
	return f.Write(w)
}

func formatOptional(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.UTC().Format(timeLayout)
}

func scoreCell(v *float64) interface{} {
	if v == nil {
		return ""
	}
	return *v
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
