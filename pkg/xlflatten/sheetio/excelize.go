package sheetio

import (
	"fmt"
	"iter"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
)

// ExcelizeWorkbook adapts an xlsx file opened with excelize to the Sheet
// accessor interface.
type ExcelizeWorkbook struct {
	f    *excelize.File
	path string
}

// OpenWorkbook opens an xlsx file.
func OpenWorkbook(path string) (*ExcelizeWorkbook, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("opening workbook %s: %w", path, err)
	}
	return &ExcelizeWorkbook{f: f, path: path}, nil
}

// Close releases the underlying file.
func (w *ExcelizeWorkbook) Close() error {
	return w.f.Close()
}

// Path returns the file the workbook was opened from.
func (w *ExcelizeWorkbook) Path() string {
	return w.path
}

// SheetNames returns the workbook's sheet names in workbook order.
func (w *ExcelizeWorkbook) SheetNames() []string {
	return w.f.GetSheetList()
}

// Sheet returns an accessor for the named sheet. Cell values are read once
// and cached; extraction is read-only so the snapshot stays valid for the
// accessor's lifetime.
func (w *ExcelizeWorkbook) Sheet(name string) (Sheet, error) {
	if idx, err := w.f.GetSheetIndex(name); err != nil || idx < 0 {
		return nil, fmt.Errorf("sheet not found: %s", name)
	}
	rows, err := w.f.GetRows(name)
	if err != nil {
		return nil, fmt.Errorf("reading sheet %s: %w", name, err)
	}
	return &excelSheet{f: w.f, name: name, rows: rows}, nil
}

type excelSheet struct {
	f    *excelize.File
	name string
	rows [][]string
}

func (s *excelSheet) Name() string {
	return s.name
}

func (s *excelSheet) Dimensions() (Dimensions, error) {
	maxRow := len(s.rows)
	maxCol := 0
	for _, row := range s.rows {
		if len(row) > maxCol {
			maxCol = len(row)
		}
	}
	// Merged regions may extend past the last populated cell.
	regions, err := s.MergedRegions()
	if err != nil {
		return Dimensions{}, err
	}
	for _, r := range regions {
		if r.MaxRow > maxRow {
			maxRow = r.MaxRow
		}
		if r.MaxCol > maxCol {
			maxCol = r.MaxCol
		}
	}
	if maxRow == 0 || maxCol == 0 {
		maxRow, maxCol = 1, 1
	}
	return Dimensions{MinRow: 1, MaxRow: maxRow, MinCol: 1, MaxCol: maxCol}, nil
}

func (s *excelSheet) MergedRegions() ([]Region, error) {
	merges, err := s.f.GetMergeCells(s.name)
	if err != nil {
		return nil, fmt.Errorf("reading merged cells of %s: %w", s.name, err)
	}
	regions := make([]Region, 0, len(merges))
	for _, m := range merges {
		minCol, minRow, err := excelize.CellNameToCoordinates(m.GetStartAxis())
		if err != nil {
			return nil, fmt.Errorf("parsing merge start %q: %w", m.GetStartAxis(), err)
		}
		maxCol, maxRow, err := excelize.CellNameToCoordinates(m.GetEndAxis())
		if err != nil {
			return nil, fmt.Errorf("parsing merge end %q: %w", m.GetEndAxis(), err)
		}
		regions = append(regions, Region{MinRow: minRow, MinCol: minCol, MaxRow: maxRow, MaxCol: maxCol})
	}
	return regions, nil
}

func (s *excelSheet) CellValue(row, col int) (any, error) {
	if row < 1 || col < 1 {
		return nil, fmt.Errorf("cell out of range: row %d, col %d", row, col)
	}
	if row > len(s.rows) {
		return nil, nil
	}
	r := s.rows[row-1]
	if col > len(r) {
		return nil, nil
	}
	return parseValue(r[col-1]), nil
}

func (s *excelSheet) RowValues(row int) (map[int]any, error) {
	if row < 1 {
		return nil, fmt.Errorf("row out of range: %d", row)
	}
	values := make(map[int]any)
	if row > len(s.rows) {
		return values, nil
	}
	for colIdx, raw := range s.rows[row-1] {
		if v := parseValue(raw); v != nil {
			values[colIdx+1] = v
		}
	}
	return values, nil
}

func (s *excelSheet) IterateRows(start, end, chunkSize int) iter.Seq2[RowChunk, error] {
	return iterateCached(s.RowValues, start, end, chunkSize)
}

// iterateCached walks rows in chunkSize windows using a per-row getter. It
// is shared by the excelize and CSV backends.
func iterateCached(rowValues func(int) (map[int]any, error), start, end, chunkSize int) iter.Seq2[RowChunk, error] {
	if chunkSize < 1 {
		chunkSize = 1
	}
	return func(yield func(RowChunk, error) bool) {
		for chunkStart := start; chunkStart <= end; chunkStart += chunkSize {
			chunkEnd := chunkStart + chunkSize - 1
			if chunkEnd > end {
				chunkEnd = end
			}
			chunk := make(RowChunk, chunkEnd-chunkStart+1)
			for row := chunkStart; row <= chunkEnd; row++ {
				values, err := rowValues(row)
				if err != nil {
					if !yield(nil, &RowError{Row: row, Err: err}) {
						return
					}
					continue
				}
				if len(values) > 0 {
					chunk[row] = values
				}
			}
			if !yield(chunk, nil) {
				return
			}
		}
	}
}

// parseValue types a raw cell string: int64 for integers, float64 for
// decimals, bool for TRUE/FALSE, nil for empty, otherwise the string itself.
func parseValue(s string) any {
	if s == "" {
		return nil
	}
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return i
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}
	switch strings.ToUpper(s) {
	case "TRUE":
		return true
	case "FALSE":
		return false
	}
	return s
}
