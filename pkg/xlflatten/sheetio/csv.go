package sheetio

import (
	"encoding/csv"
	"fmt"
	"io"
	"iter"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/transform"
)

// CSVOption adjusts how a CSV source is read.
type CSVOption func(*csvConfig)

type csvConfig struct {
	comma    rune
	encoding encoding.Encoding
}

// WithComma sets the field delimiter (default ',').
func WithComma(r rune) CSVOption {
	return func(c *csvConfig) { c.comma = r }
}

// WithEncoding decodes the file through the given character encoding
// (e.g. charmap.Windows1252) before parsing.
func WithEncoding(enc encoding.Encoding) CSVOption {
	return func(c *csvConfig) { c.encoding = enc }
}

// CSVSheet is the fallback Sheet backed by a CSV file. A CSV grid has no
// merged regions, so every lookup resolves to raw cells.
type CSVSheet struct {
	name string
	rows [][]string
}

// OpenCSV reads an entire CSV file into a Sheet. The sheet name is the
// file's base name without extension.
func OpenCSV(path string, opts ...CSVOption) (*CSVSheet, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening csv %s: %w", path, err)
	}
	defer f.Close()

	cfg := csvConfig{comma: ','}
	for _, opt := range opts {
		opt(&cfg)
	}

	var r io.Reader = f
	if cfg.encoding != nil {
		r = transform.NewReader(f, cfg.encoding.NewDecoder())
	}

	reader := csv.NewReader(r)
	reader.Comma = cfg.comma
	reader.FieldsPerRecord = -1
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parsing csv %s: %w", path, err)
	}

	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	return &CSVSheet{name: name, rows: rows}, nil
}

func (s *CSVSheet) Name() string {
	return s.name
}

func (s *CSVSheet) Dimensions() (Dimensions, error) {
	maxRow := len(s.rows)
	maxCol := 0
	for _, row := range s.rows {
		if len(row) > maxCol {
			maxCol = len(row)
		}
	}
	if maxRow == 0 || maxCol == 0 {
		maxRow, maxCol = 1, 1
	}
	return Dimensions{MinRow: 1, MaxRow: maxRow, MinCol: 1, MaxCol: maxCol}, nil
}

func (s *CSVSheet) MergedRegions() ([]Region, error) {
	return nil, nil
}

func (s *CSVSheet) CellValue(row, col int) (any, error) {
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

func (s *CSVSheet) RowValues(row int) (map[int]any, error) {
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

func (s *CSVSheet) IterateRows(start, end, chunkSize int) iter.Seq2[RowChunk, error] {
	return iterateCached(s.RowValues, start, end, chunkSize)
}
