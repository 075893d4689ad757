package report

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
)

const (
	sheetEnrolled     = "enrolled"
	sheetUnlisted     = "unlisted"
	sheetDistribution = "distribution"
)

// ExportXLSX writes the report as a workbook with one sheet per table.
func ExportXLSX(rep *Report, w io.Writer) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheetEnrolled); err != nil {
		return err
	}
	if _, err := f.NewSheet(sheetUnlisted); err != nil {
		return err
	}
	if _, err := f.NewSheet(sheetDistribution); err != nil {
		return err
	}

	if err := writeRows(f, sheetEnrolled, rep.Assignments, rep.Enrolled); err != nil {
		return err
	}
	if err := writeRows(f, sheetUnlisted, rep.Assignments, rep.Unlisted); err != nil {
		return err
	}

	if err := f.SetSheetRow(sheetDistribution, "A1", &[]any{"letter", "count", "percent"}); err != nil {
		return err
	}
	for i, g := range rep.Distribution {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheetDistribution, cell, &[]any{g.Letter, g.Count, g.Percent}); err != nil {
			return err
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

func writeRows(f *excelize.File, sheet string, assignments []string, rows []StudentRow) error {
	header := []any{"student_id", "name"}
	for _, a := range assignments {
		header = append(header, a, a+" status", a+" lateness")
	}
	header = append(header, "average", "letter")
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return err
	}

	for i, r := range rows {
		values := []any{r.StudentID, r.DisplayName}
		for j := range assignments {
			values = append(values, r.Scores[j], r.Statuses[j], r.Tags[j])
		}
		values = append(values, r.Average, r.Letter)

		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &values); err != nil {
			return err
		}
	}
	return nil
}
