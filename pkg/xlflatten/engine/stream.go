package engine

import (
	"errors"
	"iter"
	"log/slog"

	"github.com/kharuka/xlflatten-go/pkg/xlflatten/models"
	"github.com/kharuka/xlflatten-go/pkg/xlflatten/sheetio"
)

const (
	// minChunkSize is the floor the adaptive controller never shrinks below.
	minChunkSize = 100
	// shrinkFactor is applied when memory utilization exceeds the threshold.
	shrinkFactor = 0.7
	// growFactor is applied when utilization falls below half the threshold.
	growFactor = 1.3
)

// StreamOptions configures streaming extraction.
type StreamOptions struct {
	// InitialChunkSize is the starting chunk size; the controller never
	// grows past it (default 1000).
	InitialChunkSize int
	// IncludeEmpty keeps items for empty, non-merged cells (value nil).
	IncludeEmpty bool
	// MemoryThreshold is the utilization fraction above which the next
	// chunk shrinks (default 0.8).
	MemoryThreshold float64
	// Sampler supplies memory readings between chunks; nil means the live
	// system sampler.
	Sampler sheetio.MemorySampler
	// Logger receives dropped-row warnings and controller diagnostics;
	// nil means slog.Default().
	Logger *slog.Logger
}

func (o StreamOptions) normalized() StreamOptions {
	if o.InitialChunkSize <= 0 {
		o.InitialChunkSize = 1000
	}
	if o.MemoryThreshold <= 0 {
		o.MemoryThreshold = 0.8
	}
	if o.Sampler == nil {
		o.Sampler = sheetio.SystemSampler{}
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	return o
}

// ExtractStream walks data rows into a lazy, forward-only sequence of
// chunks. Unlike batch mode, row-level failures are logged and the row is
// dropped, so the stream always makes forward progress. Between chunks the
// controller samples memory utilization and resizes the next chunk:
// above MemoryThreshold it shrinks by shrinkFactor (never below
// minChunkSize); below half the threshold it grows by growFactor back
// toward the initial size; otherwise it holds.
//
// Pre-flight failures (dimensions, header read) are reported eagerly. The
// sequence ends after the chunk marked final; a caller that stops pulling
// earlier leaves nothing to clean up.
func ExtractStream(sheet sheetio.Sheet, mergeMap *models.MergeMap, dataStartRow int, opts StreamOptions) (iter.Seq[models.DataChunk], error) {
	opts = opts.normalized()

	dims, err := sheet.Dimensions()
	if err != nil {
		return nil, &DataExtractionError{SheetName: sheet.Name(), Err: err}
	}
	columns, err := headerColumns(sheet, dims, dataStartRow)
	if err != nil {
		return nil, &DataExtractionError{SheetName: sheet.Name(), Err: err}
	}

	totalRows := dims.MaxRow - dataStartRow
	if totalRows < 0 {
		totalRows = 0
	}

	seq := func(yield func(models.DataChunk) bool) {
		if totalRows == 0 {
			yield(models.DataChunk{Index: 0, Data: models.NewHierarchicalData(columns), IsFinal: true})
			return
		}

		chunkSize := opts.InitialChunkSize
		row := dataStartRow + 1
		processed := 0
		chunkIndex := 0
		for processed < totalRows {
			end := min(row+chunkSize-1, dims.MaxRow)
			data := models.NewHierarchicalData(columns)

			failed := make(map[int]bool)
			for chunk, err := range sheet.IterateRows(row, end, chunkSize) {
				if err != nil {
					// Row dropped; the stream continues.
					var rowErr *sheetio.RowError
					if errors.As(err, &rowErr) {
						failed[rowErr.Row] = true
					}
					opts.Logger.Warn("dropping row after read failure",
						"sheet", sheet.Name(), "error", err)
					continue
				}
				for r := row; r <= end; r++ {
					if failed[r] {
						continue
					}
					rec, err := processRow(r, chunk[r], columns, dims.MinCol, dataStartRow, mergeMap, opts.IncludeEmpty)
					if err != nil {
						opts.Logger.Warn("dropping row after extraction failure",
							"sheet", sheet.Name(), "row", r, "error", err)
						continue
					}
					data.AddRecord(rec)
				}
			}

			processed += end - row + 1
			row = end + 1
			chunkSize = nextChunkSize(chunkSize, opts)

			final := processed >= totalRows
			if !yield(models.DataChunk{Index: chunkIndex, Data: data, IsFinal: final}) {
				return
			}
			if final {
				return
			}
			chunkIndex++
		}
	}
	return seq, nil
}

// nextChunkSize applies the memory-adaptive sizing policy for the chunk
// after current. A sampler failure holds the size.
func nextChunkSize(current int, opts StreamOptions) int {
	utilization, err := opts.Sampler.UtilizationFraction()
	if err != nil {
		opts.Logger.Debug("memory sample failed; holding chunk size", "error", err)
		return current
	}
	switch {
	case utilization > opts.MemoryThreshold:
		next := int(float64(current) * shrinkFactor)
		if next < minChunkSize {
			next = minChunkSize
		}
		if next != current {
			opts.Logger.Debug("shrinking chunk size",
				"utilization", utilization, "from", current, "to", next)
		}
		return next
	case utilization < opts.MemoryThreshold*0.5 && current < opts.InitialChunkSize:
		next := int(float64(current) * growFactor)
		if next > opts.InitialChunkSize {
			next = opts.InitialChunkSize
		}
		opts.Logger.Debug("growing chunk size",
			"utilization", utilization, "from", current, "to", next)
		return next
	default:
		return current
	}
}
