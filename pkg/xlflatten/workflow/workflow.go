// Package workflow orchestrates extraction across many workbooks. Each
// engine invocation is independently owned; no state is shared between
// files beyond the collected results.
package workflow

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/kharuka/xlflatten-go/pkg/xlflatten"
	"github.com/kharuka/xlflatten-go/pkg/xlflatten/models"
)

// Result is the outcome for one input file. Err is set when that file
// failed; the batch keeps going.
type Result struct {
	Path     string
	Workbook *models.WorkbookResult
	Err      error
}

// Options configures a batch run.
type Options struct {
	// Workers bounds parallel file processing (default 4).
	Workers int
	// Pattern selects files within the directory (default "*.xlsx").
	Pattern string
	// Process configures each per-workbook extraction.
	Process xlflatten.Options
	// Logger receives per-file progress; nil means slog.Default().
	Logger *slog.Logger
}

func (o Options) normalized() Options {
	if o.Workers <= 0 {
		o.Workers = 4
	}
	if o.Pattern == "" {
		o.Pattern = "*.xlsx"
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	return o
}

// ProcessDir runs extraction over every matching workbook in dir. Results
// are returned sorted by path; individual file failures are recorded in
// their Result rather than aborting the batch.
func ProcessDir(ctx context.Context, dir string, opts Options) ([]Result, error) {
	opts = opts.normalized()

	if info, err := os.Stat(dir); err != nil {
		return nil, fmt.Errorf("reading batch directory: %w", err)
	} else if !info.IsDir() {
		return nil, fmt.Errorf("not a directory: %s", dir)
	}

	paths, err := filepath.Glob(filepath.Join(dir, opts.Pattern))
	if err != nil {
		return nil, fmt.Errorf("matching %q in %s: %w", opts.Pattern, dir, err)
	}
	sort.Strings(paths)

	results := make([]Result, len(paths))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.Workers)
	for i, path := range paths {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			wb, err := xlflatten.Process(path, opts.Process)
			if err != nil {
				opts.Logger.Warn("workbook failed", "path", path, "error", err)
			} else {
				opts.Logger.Debug("workbook processed", "path", path, "sheets", len(wb.Sheets))
			}
			// Each goroutine owns its own slot.
			results[i] = Result{Path: path, Workbook: wb, Err: err}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
