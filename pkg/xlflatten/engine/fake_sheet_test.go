package engine

import (
	"fmt"
	"iter"

	"github.com/kharuka/xlflatten-go/pkg/xlflatten/sheetio"
)

// fakeSheet is a deterministic in-memory Sheet for engine tests.
type fakeSheet struct {
	name       string
	maxRow     int
	maxCol     int
	cells      map[[2]int]any
	regions    []sheetio.Region
	failRows   map[int]bool
	regionsErr error
	dimsErr    error
}

func newFakeSheet(name string, maxRow, maxCol int) *fakeSheet {
	return &fakeSheet{
		name:     name,
		maxRow:   maxRow,
		maxCol:   maxCol,
		cells:    make(map[[2]int]any),
		failRows: make(map[int]bool),
	}
}

func (s *fakeSheet) set(row, col int, value any) {
	s.cells[[2]int{row, col}] = value
}

// merge registers a region and stores its value at the origin only, the
// way a real grid stores merged cells.
func (s *fakeSheet) merge(minRow, minCol, maxRow, maxCol int, value any) {
	s.regions = append(s.regions, sheetio.Region{MinRow: minRow, MinCol: minCol, MaxRow: maxRow, MaxCol: maxCol})
	if value != nil {
		s.set(minRow, minCol, value)
	}
}

func (s *fakeSheet) Name() string { return s.name }

func (s *fakeSheet) Dimensions() (sheetio.Dimensions, error) {
	if s.dimsErr != nil {
		return sheetio.Dimensions{}, s.dimsErr
	}
	return sheetio.Dimensions{MinRow: 1, MaxRow: s.maxRow, MinCol: 1, MaxCol: s.maxCol}, nil
}

func (s *fakeSheet) MergedRegions() ([]sheetio.Region, error) {
	if s.regionsErr != nil {
		return nil, s.regionsErr
	}
	return s.regions, nil
}

func (s *fakeSheet) CellValue(row, col int) (any, error) {
	return s.cells[[2]int{row, col}], nil
}

func (s *fakeSheet) RowValues(row int) (map[int]any, error) {
	if s.failRows[row] {
		return nil, fmt.Errorf("simulated read failure")
	}
	values := make(map[int]any)
	for col := 1; col <= s.maxCol; col++ {
		if v, ok := s.cells[[2]int{row, col}]; ok && v != nil {
			values[col] = v
		}
	}
	return values, nil
}

func (s *fakeSheet) IterateRows(start, end, chunkSize int) iter.Seq2[sheetio.RowChunk, error] {
	if chunkSize < 1 {
		chunkSize = 1
	}
	return func(yield func(sheetio.RowChunk, error) bool) {
		for chunkStart := start; chunkStart <= end; chunkStart += chunkSize {
			chunkEnd := chunkStart + chunkSize - 1
			if chunkEnd > end {
				chunkEnd = end
			}
			chunk := make(sheetio.RowChunk)
			for row := chunkStart; row <= chunkEnd; row++ {
				values, err := s.RowValues(row)
				if err != nil {
					if !yield(nil, &sheetio.RowError{Row: row, Err: err}) {
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

// scenarioSheet builds the simple-merge sheet: header at row 1, A2:A3
// merged with "X", B2=1, B3=2.
func scenarioSheet() *fakeSheet {
	s := newFakeSheet("Sheet1", 3, 2)
	s.set(1, 1, "Category")
	s.set(1, 2, "Value")
	s.merge(2, 1, 3, 1, "X")
	s.set(2, 2, int64(1))
	s.set(3, 2, int64(2))
	return s
}
