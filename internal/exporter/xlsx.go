package exporter

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"mentedigital/internal/survey"
)

// DefaultSheetName is the worksheet holding the exported responses
const DefaultSheetName = "Respostas"

// XLSXOptions configures XLSX writing behavior
type XLSXOptions struct {
	SheetName string
}

// WriteXLSX writes the table as a single-sheet workbook. Integer cells are
// stored as numbers and missing cells are left empty.
func WriteXLSX(w io.Writer, table *survey.Table, opts XLSXOptions) error {
	sheet := opts.SheetName
	if sheet == "" {
		sheet = DefaultSheetName
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}

	columns := table.Columns()
	for i, h := range columns {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			return fmt.Errorf("failed to write header %q: %w", h, err)
		}
	}
	if len(columns) > 0 {
		last, _ := excelize.CoordinatesToCellName(len(columns), 1)
		if err := f.SetCellStyle(sheet, "A1", last, bold); err != nil {
			return fmt.Errorf("failed to style header: %w", err)
		}
	}

	for r, record := range table.Records() {
		for c, v := range record {
			if v.IsMissing() {
				continue
			}
			cell, err := excelize.CoordinatesToCellName(c+1, r+2)
			if err != nil {
				return err
			}
			var value interface{} = v.String()
			if n, ok := v.AsInt(); ok {
				value = n
			}
			if err := f.SetCellValue(sheet, cell, value); err != nil {
				return fmt.Errorf("failed to write cell %s: %w", cell, err)
			}
		}
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}
