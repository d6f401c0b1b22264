package models

import "fmt"

// MergeType classifies the shape of a merged region.
type MergeType string

const (
	// MergeVertical spans multiple rows in a single column.
	MergeVertical MergeType = "vertical"
	// MergeHorizontal spans multiple columns in a single row.
	MergeHorizontal MergeType = "horizontal"
	// MergeBlock spans multiple rows and columns. Degenerate 1x1 regions
	// are also classified as block.
	MergeBlock MergeType = "block"
)

// MergeRecord describes one merged region and the value stored at its origin.
type MergeRecord struct {
	// Range is the rectangle covered by the merge.
	Range CellRange `json:"range"`
	// Value is the scalar stored at the origin cell, or nil.
	Value any `json:"value"`
}

// Origin returns the top-left cell of the region, the only cell that
// carries a value in the underlying grid.
func (m MergeRecord) Origin() CellPosition {
	return m.Range.Start
}

// Type classifies the region per its span.
func (m MergeRecord) Type() MergeType {
	switch {
	case m.Range.Height() > 1 && m.Range.Width() == 1:
		return MergeVertical
	case m.Range.Width() > 1 && m.Range.Height() == 1:
		return MergeHorizontal
	default:
		return MergeBlock
	}
}

// packCoord packs a (row, column) pair into a single map key so lookups
// avoid per-call allocation.
func packCoord(row, col int) uint64 {
	return uint64(uint32(row))<<32 | uint64(uint32(col))
}

// MergeMap resolves any coordinate covered by a merged region to that
// region's record. One record is shared by reference across all covered
// coordinates; regions never overlap.
type MergeMap struct {
	cells   map[uint64]int
	records []*MergeRecord
}

// NewMergeMap returns an empty MergeMap.
func NewMergeMap() *MergeMap {
	return &MergeMap{cells: make(map[uint64]int)}
}

// Add registers a merged region. It fails if any coordinate of the region
// is already covered, since spreadsheet semantics guarantee non-overlap
// and a violation is a data-integrity error.
func (m *MergeMap) Add(rec *MergeRecord) error {
	for row := rec.Range.Start.Row; row <= rec.Range.End.Row; row++ {
		for col := rec.Range.Start.Column; col <= rec.Range.End.Column; col++ {
			if _, ok := m.cells[packCoord(row, col)]; ok {
				pos := CellPosition{Row: row, Column: col}
				return fmt.Errorf("overlapping merged regions at %s", pos.Notation())
			}
		}
	}
	idx := len(m.records)
	m.records = append(m.records, rec)
	for row := rec.Range.Start.Row; row <= rec.Range.End.Row; row++ {
		for col := rec.Range.Start.Column; col <= rec.Range.End.Column; col++ {
			m.cells[packCoord(row, col)] = idx
		}
	}
	return nil
}

// Lookup returns the record covering (row, col), if any.
func (m *MergeMap) Lookup(row, col int) (*MergeRecord, bool) {
	idx, ok := m.cells[packCoord(row, col)]
	if !ok {
		return nil, false
	}
	return m.records[idx], true
}

// IsOrigin reports whether (row, col) is the origin cell of a merged region.
func (m *MergeMap) IsOrigin(row, col int) bool {
	rec, ok := m.Lookup(row, col)
	return ok && rec.Range.Start.Row == row && rec.Range.Start.Column == col
}

// Regions returns the registered merge records in insertion order.
func (m *MergeMap) Regions() []*MergeRecord {
	return m.records
}

// CoveredCells returns the number of coordinates covered by any merge.
func (m *MergeMap) CoveredCells() int {
	return len(m.cells)
}
