package engine

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/kharuka/xlflatten-go/pkg/xlflatten/models"
	"github.com/kharuka/xlflatten-go/pkg/xlflatten/sheetio"
)

const (
	// bannerMaxRow is the last row a wide merge may start in to count as a
	// metadata banner.
	bannerMaxRow = 3
	// bannerMinSpan is the column span a merge must exceed to count as a
	// banner.
	bannerMinSpan = 2
	// headerSearchWindow bounds the fallback header scoring scan.
	headerSearchWindow = 5
)

// RowProfile summarizes one header-candidate row for scoring.
type RowProfile struct {
	// Row is the candidate row index.
	Row int
	// Populated counts cells with a value, counting each merged region
	// once at its origin.
	Populated int
	// Columns is the sheet's column count.
	Columns int
	// NumericRatio is the fraction of populated cells holding numbers.
	NumericRatio float64
	// Offset is the candidate's zero-based position in the search window.
	Offset int
}

// ScoringRule scores a header candidate; higher is more header-like. Rules
// are applied generically so dataset-specific behavior is configured, not
// hard-coded.
type ScoringRule func(p RowProfile) float64

// PopulationRule scores a candidate by its populated cell count.
func PopulationRule(p RowProfile) float64 {
	return float64(p.Populated)
}

// TextRule penalizes candidates dominated by numeric cells; header rows
// are usually labels.
func TextRule(p RowProfile) float64 {
	return -float64(p.Populated) * p.NumericRatio
}

// PositionRule gives earlier candidates a small bonus.
func PositionRule(p RowProfile) float64 {
	return float64(headerSearchWindow-p.Offset) * 0.1
}

// DefaultScoringRules returns the stock rule set: population count only.
// Additional rules are supplied through DetectOptions where a dataset
// needs them.
func DefaultScoringRules() []ScoringRule {
	return []ScoringRule{PopulationRule}
}

// DetectOptions configures metadata and header detection.
type DetectOptions struct {
	// MaxMetadataRows bounds the metadata scan (default 6).
	MaxMetadataRows int
	// HeaderThreshold is the minimum populated cell count for the fallback
	// header rule (default 3); the effective threshold is
	// max(HeaderThreshold, maxColumn/3).
	HeaderThreshold int
	// Rules score fallback header candidates (default population count).
	Rules []ScoringRule
	// Logger receives scan diagnostics; nil means slog.Default().
	Logger *slog.Logger
}

func (o DetectOptions) normalized() DetectOptions {
	if o.MaxMetadataRows <= 0 {
		o.MaxMetadataRows = 6
	}
	if o.HeaderThreshold <= 0 {
		o.HeaderThreshold = 3
	}
	if len(o.Rules) == 0 {
		o.Rules = DefaultScoringRules()
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	return o
}

// DetectStructure locates the metadata sections above the data table and
// the header row. It returns the metadata and the header row index
// (1-based); data rows follow that row.
func DetectStructure(sheet sheetio.Sheet, mergeMap *models.MergeMap, opts DetectOptions) (*models.Metadata, int, error) {
	opts = opts.normalized()

	meta, metadataRows, err := extractMetadata(sheet, mergeMap, opts)
	if err != nil {
		return nil, 0, err
	}

	dataStartRow, err := identifyHeaderRow(sheet, mergeMap, metadataRows, opts)
	if err != nil {
		return nil, 0, err
	}

	opts.Logger.Debug("structure detected",
		"sheet", sheet.Name(),
		"metadata_rows", metadataRows,
		"sections", len(meta.Sections),
		"data_start_row", dataStartRow)
	return meta, dataStartRow, nil
}

// extractMetadata scans rows 1..MaxMetadataRows for banner merges and
// sparse key/value rows. The per-row scan stops at the first table-like
// row (population at or above half the columns): dense rows belong to the
// table, not the metadata block.
func extractMetadata(sheet sheetio.Sheet, mergeMap *models.MergeMap, opts DetectOptions) (*models.Metadata, int, error) {
	dims, err := sheet.Dimensions()
	if err != nil {
		return nil, 0, &MetadataExtractionError{SheetName: sheet.Name(), Err: err}
	}

	meta := &models.Metadata{}
	metadataRows := 0

	// Wide merges near the top are banners (titles spanning the table).
	headerSection := models.MetadataSection{Name: "headers"}
	banners := make(map[*models.MergeRecord]bool)
	for _, rec := range mergeMap.Regions() {
		if rec.Origin().Row > bannerMaxRow || rec.Range.Width() <= bannerMinSpan {
			continue
		}
		if rec.Value == nil {
			continue
		}
		headerSection.Add(models.MetadataItem{
			Key:         fmt.Sprintf("header_r%d", rec.Origin().Row),
			Value:       rec.Value,
			Row:         rec.Origin().Row,
			Column:      rec.Origin().Column,
			SourceRange: rec.Range.Notation(),
		})
		banners[rec] = true
		if rec.Range.End.Row > metadataRows {
			metadataRows = rec.Range.End.Row
		}
	}
	if len(headerSection.Items) > 0 {
		meta.AddSection(headerSection)
	}

	lastRow := min(opts.MaxMetadataRows, dims.MaxRow)
	tableCutoff := max(2, (dims.MaxCol+1)/2)

	for row := 1; row <= lastRow; row++ {
		section := models.MetadataSection{Name: fmt.Sprintf("row_%d", row)}
		effective := 0
		for col := dims.MinCol; col <= dims.MaxCol; col++ {
			rec, merged := mergeMap.Lookup(row, col)
			if merged && banners[rec] {
				continue
			}

			var value any
			if merged {
				value = rec.Value
			} else {
				value, err = sheet.CellValue(row, col)
				if err != nil {
					return nil, 0, &MetadataExtractionError{SheetName: sheet.Name(), Err: err}
				}
			}
			if value == nil {
				continue
			}
			if !merged || mergeMap.IsOrigin(row, col) {
				effective++
			}

			key, err := metadataKey(sheet, row, col)
			if err != nil {
				return nil, 0, &MetadataExtractionError{SheetName: sheet.Name(), Err: err}
			}
			section.Add(models.MetadataItem{Key: key, Value: value, Row: row, Column: col})
		}

		if effective >= tableCutoff {
			// Table-like density: this row and everything below belong to
			// the data table.
			break
		}
		if len(section.Items) > 0 {
			meta.AddSection(section)
			if row > metadataRows {
				metadataRows = row
			}
		}
	}

	meta.RowCount = metadataRows
	return meta, metadataRows, nil
}

// metadataKey resolves the key for a metadata value: the row-1 value of
// the same column when available, otherwise the column letter.
func metadataKey(sheet sheetio.Sheet, row, col int) (string, error) {
	if row > 1 {
		header, err := sheet.CellValue(1, col)
		if err != nil {
			return "", err
		}
		if header != nil {
			return valueString(header), nil
		}
	}
	letter, err := excelize.ColumnNumberToName(col)
	if err != nil {
		return "", err
	}
	return letter, nil
}

// identifyHeaderRow finds the header row below the metadata block. The
// primary rule checks the first candidate row: a populated first effective
// column makes it the header. Otherwise candidates in a five-row window
// are scored and the best one wins when its population clears
// max(HeaderThreshold, maxColumn/3); ties resolve to the earliest row.
// With no winner the row after the metadata block is used regardless of
// content.
func identifyHeaderRow(sheet sheetio.Sheet, mergeMap *models.MergeMap, metadataRows int, opts DetectOptions) (int, error) {
	dims, err := sheet.Dimensions()
	if err != nil {
		return 0, &HeaderDetectionError{SheetName: sheet.Name(), Err: err}
	}

	start := metadataRows + 1
	if start > dims.MaxRow {
		return start, nil
	}

	primary, err := firstEffectiveValue(sheet, mergeMap, start, dims)
	if err != nil {
		return 0, &HeaderDetectionError{SheetName: sheet.Name(), Err: err}
	}
	if populated(primary) {
		return start, nil
	}

	bestRow, bestScore, bestCount := 0, 0.0, 0
	windowEnd := min(start+headerSearchWindow-1, dims.MaxRow)
	for row := start; row <= windowEnd; row++ {
		profile, err := profileRow(sheet, mergeMap, row, dims)
		if err != nil {
			return 0, &HeaderDetectionError{SheetName: sheet.Name(), Err: err}
		}
		profile.Offset = row - start
		score := 0.0
		for _, rule := range opts.Rules {
			score += rule(profile)
		}
		if bestRow == 0 || score > bestScore {
			bestRow, bestScore, bestCount = row, score, profile.Populated
		}
	}

	threshold := max(float64(opts.HeaderThreshold), float64(dims.MaxCol)/3)
	if bestRow > 0 && float64(bestCount) >= threshold {
		return bestRow, nil
	}
	opts.Logger.Debug("no clear header row; using row after metadata",
		"sheet", sheet.Name(), "row", start)
	return start, nil
}

// firstEffectiveValue returns the value of the row's first effective
// column, skipping non-origin merge continuations.
func firstEffectiveValue(sheet sheetio.Sheet, mergeMap *models.MergeMap, row int, dims sheetio.Dimensions) (any, error) {
	for col := dims.MinCol; col <= dims.MaxCol; col++ {
		if rec, ok := mergeMap.Lookup(row, col); ok {
			if !mergeMap.IsOrigin(row, col) {
				continue
			}
			return rec.Value, nil
		}
		return sheet.CellValue(row, col)
	}
	return nil, nil
}

// profileRow counts a row's populated cells, counting a merged region once
// at its origin and skipping the continuations.
func profileRow(sheet sheetio.Sheet, mergeMap *models.MergeMap, row int, dims sheetio.Dimensions) (RowProfile, error) {
	profile := RowProfile{Row: row, Columns: dims.Cols()}
	numeric := 0
	for col := dims.MinCol; col <= dims.MaxCol; col++ {
		var value any
		if rec, ok := mergeMap.Lookup(row, col); ok {
			if !mergeMap.IsOrigin(row, col) {
				continue
			}
			value = rec.Value
		} else {
			v, err := sheet.CellValue(row, col)
			if err != nil {
				return RowProfile{}, err
			}
			value = v
		}
		if !populated(value) {
			continue
		}
		profile.Populated++
		switch value.(type) {
		case int64, float64:
			numeric++
		}
	}
	if profile.Populated > 0 {
		profile.NumericRatio = float64(numeric) / float64(profile.Populated)
	}
	return profile, nil
}

// populated reports whether a value is non-nil and, for strings, not
// whitespace-only.
func populated(value any) bool {
	if value == nil {
		return false
	}
	if s, ok := value.(string); ok {
		return strings.TrimSpace(s) != ""
	}
	return true
}
