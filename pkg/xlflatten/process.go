package xlflatten

import (
	"fmt"
	"iter"
	"path/filepath"
	"slices"

	"github.com/kharuka/xlflatten-go/pkg/xlflatten/engine"
	"github.com/kharuka/xlflatten-go/pkg/xlflatten/models"
	"github.com/kharuka/xlflatten-go/pkg/xlflatten/sheetio"
)

// Process opens a workbook and runs the full pipeline (merge map,
// structure detection, batch extraction) on each selected sheet. A sheet
// failure fails the whole workbook; batch mode is complete-or-nothing.
func Process(path string, opts Options) (*models.WorkbookResult, error) {
	opts = opts.normalized()
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	wb, err := sheetio.OpenWorkbook(path)
	if err != nil {
		return nil, err
	}
	defer wb.Close()

	result := &models.WorkbookResult{BookName: filepath.Base(path)}
	for _, name := range wb.SheetNames() {
		if len(opts.Sheets) > 0 && !slices.Contains(opts.Sheets, name) {
			continue
		}
		sheet, err := wb.Sheet(name)
		if err != nil {
			return nil, err
		}
		sheetResult, err := ProcessSheet(sheet, opts)
		if err != nil {
			return nil, err
		}
		result.Sheets = append(result.Sheets, *sheetResult)
	}
	if len(result.Sheets) == 0 && len(opts.Sheets) > 0 {
		return nil, fmt.Errorf("no matching sheets in %s", path)
	}
	return result, nil
}

// ProcessSheet runs the pipeline on a single sheet accessor, whatever
// backend it is served by.
func ProcessSheet(sheet sheetio.Sheet, opts Options) (*models.SheetResult, error) {
	opts = opts.normalized()

	mergeMap, merges, err := engine.BuildMergeMap(sheet)
	if err != nil {
		return nil, err
	}

	meta, dataStartRow, err := engine.DetectStructure(sheet, mergeMap, engine.DetectOptions{
		MaxMetadataRows: opts.MaxMetadataRows,
		HeaderThreshold: opts.HeaderThreshold,
		Logger:          opts.Logger,
	})
	if err != nil {
		return nil, err
	}

	headerRow, err := engine.ResolveHeaderRow(sheet, mergeMap, dataStartRow)
	if err != nil {
		return nil, err
	}

	data, err := engine.Extract(sheet, mergeMap, dataStartRow, engine.ExtractOptions{
		ChunkSize:    opts.ChunkSize,
		IncludeEmpty: opts.IncludeEmpty,
		Logger:       opts.Logger,
	})
	if err != nil {
		return nil, err
	}

	return &models.SheetResult{
		Name:          sheet.Name(),
		Metadata:      meta,
		HeaderRow:     headerRow,
		DataStartRow:  dataStartRow,
		MergedRegions: merges,
		Data:          data,
	}, nil
}

// StreamSheet runs merge-map building and structure detection, then
// returns the lazy chunk sequence for the sheet's data rows. The caller
// owns consumption; stopping early needs no cleanup.
func StreamSheet(sheet sheetio.Sheet, opts Options) (*models.Metadata, int, iter.Seq[models.DataChunk], error) {
	opts = opts.normalized()
	if err := opts.Validate(); err != nil {
		return nil, 0, nil, err
	}

	mergeMap, _, err := engine.BuildMergeMap(sheet)
	if err != nil {
		return nil, 0, nil, err
	}

	meta, dataStartRow, err := engine.DetectStructure(sheet, mergeMap, engine.DetectOptions{
		MaxMetadataRows: opts.MaxMetadataRows,
		HeaderThreshold: opts.HeaderThreshold,
		Logger:          opts.Logger,
	})
	if err != nil {
		return nil, 0, nil, err
	}

	seq, err := engine.ExtractStream(sheet, mergeMap, dataStartRow, engine.StreamOptions{
		InitialChunkSize: opts.ChunkSize,
		IncludeEmpty:     opts.IncludeEmpty,
		MemoryThreshold:  opts.MemoryThreshold,
		Sampler:          opts.Sampler,
		Logger:           opts.Logger,
	})
	if err != nil {
		return nil, 0, nil, err
	}
	return meta, dataStartRow, seq, nil
}
