// Package xlflatten flattens spreadsheets whose layout encodes semantics
// (merged cells, metadata blocks, an ambiguous header row) into plain
// hierarchical record sets.
package xlflatten

import (
	"fmt"
	"log/slog"

	"github.com/kharuka/xlflatten-go/pkg/xlflatten/sheetio"
)

// Options configures workbook processing. The zero value means defaults;
// resolve them once with normalized before use.
type Options struct {
	// Sheets restricts processing to the named sheets; empty means all.
	Sheets []string
	// MaxMetadataRows bounds the metadata scan (default 6).
	MaxMetadataRows int
	// HeaderThreshold is the minimum populated cell count for fallback
	// header detection (default 3).
	HeaderThreshold int
	// ChunkSize is the row window for extraction (default 1000, min 100).
	ChunkSize int
	// IncludeEmpty keeps items for empty, non-merged cells.
	IncludeEmpty bool
	// MemoryThreshold drives adaptive chunk sizing in streaming mode
	// (default 0.8).
	MemoryThreshold float64
	// Sampler supplies memory readings in streaming mode; nil means the
	// live system sampler.
	Sampler sheetio.MemorySampler
	// Logger receives diagnostics; nil means slog.Default().
	Logger *slog.Logger
}

// DefaultOptions returns the stock configuration.
func DefaultOptions() Options {
	return Options{
		MaxMetadataRows: 6,
		HeaderThreshold: 3,
		ChunkSize:       1000,
		MemoryThreshold: 0.8,
	}
}

func (o Options) normalized() Options {
	d := DefaultOptions()
	if o.MaxMetadataRows <= 0 {
		o.MaxMetadataRows = d.MaxMetadataRows
	}
	if o.HeaderThreshold <= 0 {
		o.HeaderThreshold = d.HeaderThreshold
	}
	if o.ChunkSize <= 0 {
		o.ChunkSize = d.ChunkSize
	}
	if o.MemoryThreshold <= 0 {
		o.MemoryThreshold = d.MemoryThreshold
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	return o
}

// Validate rejects out-of-range settings.
func (o Options) Validate() error {
	if o.ChunkSize != 0 && o.ChunkSize < 100 {
		return fmt.Errorf("chunk size must be at least 100, got %d", o.ChunkSize)
	}
	if o.MemoryThreshold < 0 || o.MemoryThreshold > 1 {
		return fmt.Errorf("memory threshold must be in [0, 1], got %v", o.MemoryThreshold)
	}
	if o.MaxMetadataRows < 0 {
		return fmt.Errorf("max metadata rows must not be negative, got %d", o.MaxMetadataRows)
	}
	if o.HeaderThreshold < 0 {
		return fmt.Errorf("header threshold must not be negative, got %d", o.HeaderThreshold)
	}
	return nil
}
