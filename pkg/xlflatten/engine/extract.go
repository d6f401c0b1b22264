package engine

import (
	"fmt"
	"log/slog"

	"github.com/kharuka/xlflatten-go/pkg/xlflatten/models"
	"github.com/kharuka/xlflatten-go/pkg/xlflatten/sheetio"
)

// ExtractOptions configures batch extraction.
type ExtractOptions struct {
	// ChunkSize is the row window used when iterating the sheet; it only
	// affects I/O locality, never output order or content (default 1000).
	ChunkSize int
	// IncludeEmpty keeps items for empty, non-merged cells (value nil).
	IncludeEmpty bool
	// Logger receives diagnostics; nil means slog.Default().
	Logger *slog.Logger
}

func (o ExtractOptions) normalized() ExtractOptions {
	if o.ChunkSize <= 0 {
		o.ChunkSize = 1000
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	return o
}

// Extract walks the data rows below dataStartRow into hierarchical records.
// Any failure aborts the whole call: batch mode is complete-or-nothing.
func Extract(sheet sheetio.Sheet, mergeMap *models.MergeMap, dataStartRow int, opts ExtractOptions) (*models.HierarchicalData, error) {
	opts = opts.normalized()

	dims, err := sheet.Dimensions()
	if err != nil {
		return nil, &DataExtractionError{SheetName: sheet.Name(), Err: err}
	}

	columns, err := headerColumns(sheet, dims, dataStartRow)
	if err != nil {
		return nil, &DataExtractionError{SheetName: sheet.Name(), Err: err}
	}
	data := models.NewHierarchicalData(columns)

	// Chunks carry only populated rows, but every row in the window gets a
	// record, so the walk tracks window bounds itself.
	next := dataStartRow + 1
	for chunk, err := range sheet.IterateRows(dataStartRow+1, dims.MaxRow, opts.ChunkSize) {
		if err != nil {
			return nil, &DataExtractionError{SheetName: sheet.Name(), Err: err}
		}
		windowEnd := min(next+opts.ChunkSize-1, dims.MaxRow)
		for row := next; row <= windowEnd; row++ {
			rec, err := processRow(row, chunk[row], columns, dims.MinCol, dataStartRow, mergeMap, opts.IncludeEmpty)
			if err != nil {
				return nil, &DataExtractionError{SheetName: sheet.Name(), Row: row, Err: err}
			}
			data.AddRecord(rec)
		}
		next = windowEnd + 1
	}

	opts.Logger.Debug("batch extraction complete",
		"sheet", sheet.Name(),
		"columns", len(columns),
		"records", len(data.Records))
	return data, nil
}

// headerColumns builds the fixed, ordered header list by reading the raw
// value directly at dataStartRow for every column, bypassing the merge
// map. A merge-aware alternative exists in ResolveHeaderRow; this direct
// path is the authoritative one for extraction.
func headerColumns(sheet sheetio.Sheet, dims sheetio.Dimensions, dataStartRow int) ([]string, error) {
	columns := make([]string, 0, dims.Cols())
	for col := dims.MinCol; col <= dims.MaxCol; col++ {
		value, err := sheet.CellValue(dataStartRow, col)
		if err != nil {
			return nil, err
		}
		columns = append(columns, valueString(value))
	}
	return columns, nil
}

// processRow assembles one data row into a record. A value covered by a
// merge is emitted only at the merge origin, carrying its classification;
// continuations produce no item for their row and column.
func processRow(row int, values map[int]any, columns []string, minCol, dataStartRow int, mergeMap *models.MergeMap, includeEmpty bool) (*models.HierarchicalRecord, error) {
	if row <= dataStartRow {
		return nil, fmt.Errorf("row %d precedes the data region", row)
	}
	rec := models.NewRecord(row)
	for i, name := range columns {
		col := minCol + i
		pos := models.CellPosition{Row: row, Column: col}

		if merge, ok := mergeMap.Lookup(row, col); ok {
			if merge.Origin() != pos {
				continue
			}
			rec.AddItem(models.HierarchicalDataItem{
				Key:      name,
				Value:    merge.Value,
				Position: pos,
				MergeInfo: &models.MergeInfo{
					Type:    merge.Type(),
					RowSpan: merge.Range.Height(),
					ColSpan: merge.Range.Width(),
					Range:   merge.Range.Notation(),
				},
			})
			continue
		}

		value := values[col]
		if value == nil && !includeEmpty {
			continue
		}
		rec.AddItem(models.HierarchicalDataItem{Key: name, Value: value, Position: pos})
	}
	return rec, nil
}

// ResolveHeaderRow builds the merge-aware view of the header row: a merged
// header cell supplies its value to every column position it spans. It is
// the documented alternative to the direct path used for extraction
// columns, surfaced for consumers of SheetResult.
func ResolveHeaderRow(sheet sheetio.Sheet, mergeMap *models.MergeMap, row int) (*models.HeaderRow, error) {
	dims, err := sheet.Dimensions()
	if err != nil {
		return nil, &HeaderDetectionError{SheetName: sheet.Name(), Err: err}
	}
	header := &models.HeaderRow{Row: row, Names: make(map[int]string)}
	for col := dims.MinCol; col <= dims.MaxCol; col++ {
		var value any
		if rec, ok := mergeMap.Lookup(row, col); ok {
			value = rec.Value
		} else {
			value, err = sheet.CellValue(row, col)
			if err != nil {
				return nil, &HeaderDetectionError{SheetName: sheet.Name(), Err: err}
			}
		}
		if value != nil {
			header.Names[col] = valueString(value)
		}
	}
	return header, nil
}

// valueString renders a scalar for use as a column name or metadata key;
// nil renders as the empty string.
func valueString(value any) string {
	if value == nil {
		return ""
	}
	if s, ok := value.(string); ok {
		return s
	}
	return fmt.Sprintf("%v", value)
}
