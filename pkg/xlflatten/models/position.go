// Package models defines data structures shared by the extraction engine.
package models

import (
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"
)

// CellPosition identifies a single cell by 1-based row and column.
type CellPosition struct {
	// Row is the row index (1-based).
	Row int `json:"row"`
	// Column is the column index (1-based).
	Column int `json:"column"`
}

// Notation returns the position in A1 notation (e.g. "B3").
func (p CellPosition) Notation() string {
	name, err := excelize.CoordinatesToCellName(p.Column, p.Row)
	if err != nil {
		return ""
	}
	return name
}

// PositionFromNotation parses an A1-notation cell name into a CellPosition.
func PositionFromNotation(notation string) (CellPosition, error) {
	col, row, err := excelize.CellNameToCoordinates(notation)
	if err != nil {
		return CellPosition{}, fmt.Errorf("invalid cell notation %q: %w", notation, err)
	}
	return CellPosition{Row: row, Column: col}, nil
}

// CellRange is an inclusive rectangular range of cells.
type CellRange struct {
	Start CellPosition `json:"start"`
	End   CellPosition `json:"end"`
}

// Width returns the number of columns spanned by the range.
func (r CellRange) Width() int {
	return r.End.Column - r.Start.Column + 1
}

// Height returns the number of rows spanned by the range.
func (r CellRange) Height() int {
	return r.End.Row - r.Start.Row + 1
}

// Size returns the total number of cells in the range.
func (r CellRange) Size() int {
	return r.Width() * r.Height()
}

// Notation returns the range in A1 notation (e.g. "A1:C2").
func (r CellRange) Notation() string {
	return r.Start.Notation() + ":" + r.End.Notation()
}

// Contains reports whether pos lies within the range.
func (r CellRange) Contains(pos CellPosition) bool {
	return r.Start.Row <= pos.Row && pos.Row <= r.End.Row &&
		r.Start.Column <= pos.Column && pos.Column <= r.End.Column
}

// Positions enumerates every cell position in the range, row-major.
func (r CellRange) Positions() []CellPosition {
	positions := make([]CellPosition, 0, r.Size())
	for row := r.Start.Row; row <= r.End.Row; row++ {
		for col := r.Start.Column; col <= r.End.Column; col++ {
			positions = append(positions, CellPosition{Row: row, Column: col})
		}
	}
	return positions
}

// RangeFromNotation parses an A1-notation range (e.g. "A1:C2") into a CellRange.
func RangeFromNotation(notation string) (CellRange, error) {
	parts := strings.Split(notation, ":")
	if len(parts) != 2 {
		return CellRange{}, fmt.Errorf("invalid range notation %q", notation)
	}
	s, err := PositionFromNotation(parts[0])
	if err != nil {
		return CellRange{}, err
	}
	e, err := PositionFromNotation(parts[1])
	if err != nil {
		return CellRange{}, err
	}
	return CellRange{Start: s, End: e}, nil
}
