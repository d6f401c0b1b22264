// Package sheetio provides access to tabular data sources and to the host
// resources the streaming extractor adapts to.
package sheetio

import (
	"fmt"
	"iter"
)

// Dimensions describes the populated extent of a sheet, 1-based inclusive.
type Dimensions struct {
	MinRow int `json:"min_row"`
	MaxRow int `json:"max_row"`
	MinCol int `json:"min_col"`
	MaxCol int `json:"max_col"`
}

// Rows returns the number of rows in the extent.
func (d Dimensions) Rows() int {
	return d.MaxRow - d.MinRow + 1
}

// Cols returns the number of columns in the extent.
func (d Dimensions) Cols() int {
	return d.MaxCol - d.MinCol + 1
}

// Region is a merged rectangle in raw coordinates, 1-based inclusive.
type Region struct {
	MinRow int
	MinCol int
	MaxRow int
	MaxCol int
}

// RowChunk maps row index to that row's populated cells (column to value).
type RowChunk map[int]map[int]any

// RowError reports a failure reading a single row during iteration. The
// row is absent from the chunk that follows.
type RowError struct {
	Row int
	Err error
}

func (e *RowError) Error() string {
	return fmt.Sprintf("reading row %d: %v", e.Row, e.Err)
}

func (e *RowError) Unwrap() error {
	return e.Err
}

// Sheet is the abstract accessor the engine works against. Implementations
// may be backed by any spreadsheet library or by a CSV fallback; empty
// cells are reported as nil values.
type Sheet interface {
	// Name returns the sheet name, used for error context.
	Name() string
	// Dimensions returns the populated extent of the sheet.
	Dimensions() (Dimensions, error)
	// MergedRegions returns every merged rectangle of the sheet.
	MergedRegions() ([]Region, error)
	// CellValue returns the scalar at (row, col), nil when empty.
	CellValue(row, col int) (any, error)
	// RowValues returns the populated cells of one row, keyed by column.
	RowValues(row int) (map[int]any, error)
	// IterateRows walks rows start..end inclusive in windows of chunkSize,
	// yielding each window as a RowChunk.
	IterateRows(start, end, chunkSize int) iter.Seq2[RowChunk, error]
}
