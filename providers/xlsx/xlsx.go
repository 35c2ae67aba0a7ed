// Package xlsx loads a worksheet into a table.Table. The first row is the header.
package xlsx

import (
	"errors"
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/hengadev/hydrx/providers/table"
)

var (
	ErrNoSheet  = errors.New("workbook has no sheet")
	ErrNoHeader = errors.New("sheet has no header row")
)

// ReadFile opens a workbook from disk and loads sheet. An empty sheet name
// selects the first sheet.
func ReadFile(path, sheet string, opts ...table.Option) (*table.Table, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	return readSheet(f, sheet, opts)
}

// Read loads sheet from a workbook stream.
func Read(r io.Reader, sheet string, opts ...table.Option) (*table.Table, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	return readSheet(f, sheet, opts)
}

// Sheets lists the sheet names of a workbook on disk.
func Sheets(path string) ([]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	return f.GetSheetList(), nil
}

func readSheet(f *excelize.File, sheet string, opts []table.Option) (*table.Table, error) {
	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, ErrNoSheet
		}
		sheet = sheets[0]
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet '%s': %w", sheet, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: '%s'", ErrNoHeader, sheet)
	}

	t, err := table.New(rows[0], opts...)
	if err != nil {
		return nil, fmt.Errorf("sheet '%s': %w", sheet, err)
	}

	// GetRows drops trailing empty cells, so short rows end in null cells.
	for i, row := range rows[1:] {
		if err := t.AppendStrings(row...); err != nil {
			return nil, fmt.Errorf("sheet '%s', row %d: %w", sheet, i+2, err)
		}
	}
	return t, nil
}
