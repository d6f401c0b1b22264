// Package main provides the CLI entry point for xlflatten.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kharuka/xlflatten-go/pkg/xlflatten"
	"github.com/kharuka/xlflatten-go/pkg/xlflatten/checkpoint"
	"github.com/kharuka/xlflatten-go/pkg/xlflatten/output"
	"github.com/kharuka/xlflatten-go/pkg/xlflatten/sheetio"
	"github.com/kharuka/xlflatten-go/pkg/xlflatten/workflow"
)

var (
	outputPath   string
	configPath   string
	pretty       bool
	sheets       []string
	streaming    bool
	chunkSize    int
	includeEmpty bool
	checkpointDB string
	workers      int
	verbose      bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "xlflatten [input.xlsx|input.csv|directory]",
		Short: "Flatten spreadsheets with merged-cell hierarchy into JSON records",
		Long: `xlflatten analyzes a spreadsheet's structure (merged regions, metadata
blocks, header row), then flattens its data rows into hierarchical JSON
records. A directory input processes every workbook inside it.`,
		Args: cobra.ExactArgs(1),
		RunE: run,
	}

	rootCmd.Flags().StringVarP(&outputPath, "output", "o", "", "Output file path (default: stdout)")
	rootCmd.Flags().StringVarP(&configPath, "config", "c", "", "YAML config file")
	rootCmd.Flags().BoolVar(&pretty, "pretty", false, "Pretty-print JSON output")
	rootCmd.Flags().StringSliceVar(&sheets, "sheets", nil, "Sheets to process (default: all)")
	rootCmd.Flags().BoolVar(&streaming, "streaming", false, "Stream chunks incrementally instead of batch extraction")
	rootCmd.Flags().IntVar(&chunkSize, "chunk-size", 0, "Rows per chunk (min 100)")
	rootCmd.Flags().BoolVar(&includeEmpty, "include-empty", false, "Keep items for empty cells")
	rootCmd.Flags().StringVar(&checkpointDB, "checkpoint-db", "", "SQLite file recording streaming progress")
	rootCmd.Flags().IntVar(&workers, "workers", 4, "Parallel workers for directory input")
	rootCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Debug logging")

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) error {
	inputPath := args[0]

	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	opts := xlflatten.DefaultOptions()
	if configPath != "" {
		loaded, err := xlflatten.LoadConfig(configPath)
		if err != nil {
			return err
		}
		opts = loaded
	}
	if len(sheets) > 0 {
		opts.Sheets = sheets
	}
	if chunkSize > 0 {
		opts.ChunkSize = chunkSize
	}
	if includeEmpty {
		opts.IncludeEmpty = true
	}
	opts.Logger = logger
	if err := opts.Validate(); err != nil {
		return err
	}

	info, err := os.Stat(inputPath)
	if os.IsNotExist(err) {
		return fmt.Errorf("file not found: %s", inputPath)
	}
	if err != nil {
		return err
	}

	if info.IsDir() {
		return runBatch(cmd.Context(), inputPath, opts, logger)
	}
	if streaming {
		return runStreaming(cmd.Context(), inputPath, opts)
	}
	return runSingle(inputPath, opts)
}

func runSingle(inputPath string, opts xlflatten.Options) error {
	if strings.EqualFold(filepath.Ext(inputPath), ".csv") {
		return runCSV(inputPath, opts)
	}

	result, err := xlflatten.Process(inputPath, opts)
	if err != nil {
		return fmt.Errorf("extraction failed: %w", err)
	}

	jsonData, err := output.WorkbookToJSON(result, pretty)
	if err != nil {
		return fmt.Errorf("serialization failed: %w", err)
	}
	return writeOutput(jsonData)
}

func runCSV(inputPath string, opts xlflatten.Options) error {
	sheet, err := sheetio.OpenCSV(inputPath)
	if err != nil {
		return err
	}
	result, err := xlflatten.ProcessSheet(sheet, opts)
	if err != nil {
		return fmt.Errorf("extraction failed: %w", err)
	}
	jsonData, err := output.SheetToJSON(result, pretty)
	if err != nil {
		return fmt.Errorf("serialization failed: %w", err)
	}
	return writeOutput(jsonData)
}

func runStreaming(ctx context.Context, inputPath string, opts xlflatten.Options) error {
	wb, err := sheetio.OpenWorkbook(inputPath)
	if err != nil {
		return err
	}
	defer wb.Close()

	var store *checkpoint.Store
	if checkpointDB != "" {
		store, err = checkpoint.Open(checkpointDB)
		if err != nil {
			return err
		}
		defer store.Close()
	}

	out := os.Stdout
	if outputPath != "" {
		f, err := os.Create(outputPath)
		if err != nil {
			return fmt.Errorf("failed to create output: %w", err)
		}
		defer f.Close()
		out = f
	}

	names := wb.SheetNames()
	if len(opts.Sheets) > 0 {
		names = opts.Sheets
	}
	// Streaming emits one JSON document per sheet; a single-sheet selection
	// is the common case.
	for _, name := range names {
		if store != nil {
			state, err := store.Load(ctx, inputPath, name)
			if err != nil && !errors.Is(err, checkpoint.ErrNotFound) {
				return err
			}
			if err == nil && state.Done {
				fmt.Fprintf(os.Stderr, "skipping %s: already completed (%d rows)\n", name, state.RowsProcessed)
				continue
			}
		}
		sheet, err := wb.Sheet(name)
		if err != nil {
			return err
		}
		_, _, seq, err := xlflatten.StreamSheet(sheet, opts)
		if err != nil {
			return err
		}

		writer := output.NewStreamWriter(out)
		for chunk := range seq {
			if err := writer.WriteChunk(name, chunk); err != nil {
				return err
			}
			if store != nil {
				state := checkpoint.ProcessingState{
					FilePath:      inputPath,
					SheetName:     name,
					ChunkIndex:    chunk.Index,
					RowsProcessed: writer.Records(),
					OutputFile:    outputPath,
					Done:          chunk.IsFinal,
				}
				if err := store.Save(ctx, state); err != nil {
					return err
				}
			}
		}
		if err := writer.Close(); err != nil {
			return err
		}
		if _, err := fmt.Fprintln(out); err != nil {
			return err
		}
	}
	return nil
}

func runBatch(ctx context.Context, dir string, opts xlflatten.Options, logger *slog.Logger) error {
	results, err := workflow.ProcessDir(ctx, dir, workflow.Options{
		Workers: workers,
		Process: opts,
		Logger:  logger,
	})
	if err != nil {
		return err
	}

	failures := 0
	books := make([]any, 0, len(results))
	for _, r := range results {
		if r.Err != nil {
			failures++
			books = append(books, map[string]string{"path": r.Path, "error": r.Err.Error()})
			continue
		}
		books = append(books, r.Workbook)
	}
	encoded, err := encodeBatch(books, pretty)
	if err != nil {
		return fmt.Errorf("serialization failed: %w", err)
	}
	if err := writeOutput(encoded); err != nil {
		return err
	}
	if failures > 0 {
		return fmt.Errorf("%d of %d workbooks failed", failures, len(results))
	}
	return nil
}

func encodeBatch(books []any, pretty bool) ([]byte, error) {
	if pretty {
		return json.MarshalIndent(books, "", "  ")
	}
	return json.Marshal(books)
}

func writeOutput(data []byte) error {
	if outputPath != "" {
		if err := os.WriteFile(outputPath, data, 0644); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
		return nil
	}
	fmt.Println(string(data))
	return nil
}
