// Package checkpoint persists streaming-extraction progress so interrupted
// runs can resume from the last completed chunk.
package checkpoint

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite" // SQLite driver
)

// ErrNotFound indicates no checkpoint exists for the requested key.
var ErrNotFound = errors.New("checkpoint not found")

// ProcessingState records how far a streaming extraction got for one sheet
// of one file.
type ProcessingState struct {
	FilePath      string    `json:"file_path"`
	SheetName     string    `json:"sheet_name"`
	ChunkIndex    int       `json:"chunk_index"`
	RowsProcessed int       `json:"rows_processed"`
	OutputFile    string    `json:"output_file"`
	Done          bool      `json:"done"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// Store is a SQLite-backed checkpoint store keyed by (file, sheet).
type Store struct {
	db *sql.DB
}

const schema = `
CREATE TABLE IF NOT EXISTS checkpoints (
	file_path       TEXT NOT NULL,
	sheet_name      TEXT NOT NULL,
	chunk_index     INTEGER NOT NULL,
	rows_processed  INTEGER NOT NULL,
	output_file     TEXT NOT NULL,
	done            INTEGER NOT NULL DEFAULT 0,
	updated_at      TEXT NOT NULL,
	PRIMARY KEY (file_path, sheet_name)
);`

// Open creates or opens a checkpoint database at path.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening checkpoint database: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("initializing checkpoint schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Save upserts the state for its (file, sheet) key.
func (s *Store) Save(ctx context.Context, state ProcessingState) error {
	state.UpdatedAt = time.Now().UTC()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO checkpoints (file_path, sheet_name, chunk_index, rows_processed, output_file, done, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (file_path, sheet_name) DO UPDATE SET
			chunk_index = excluded.chunk_index,
			rows_processed = excluded.rows_processed,
			output_file = excluded.output_file,
			done = excluded.done,
			updated_at = excluded.updated_at`,
		state.FilePath, state.SheetName, state.ChunkIndex, state.RowsProcessed,
		state.OutputFile, boolToInt(state.Done), state.UpdatedAt.Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("saving checkpoint: %w", err)
	}
	return nil
}

// Load returns the state for (filePath, sheetName), or ErrNotFound.
func (s *Store) Load(ctx context.Context, filePath, sheetName string) (ProcessingState, error) {
	var (
		state     ProcessingState
		done      int
		updatedAt string
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT file_path, sheet_name, chunk_index, rows_processed, output_file, done, updated_at
		FROM checkpoints WHERE file_path = ? AND sheet_name = ?`,
		filePath, sheetName).Scan(
		&state.FilePath, &state.SheetName, &state.ChunkIndex,
		&state.RowsProcessed, &state.OutputFile, &done, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return ProcessingState{}, ErrNotFound
	}
	if err != nil {
		return ProcessingState{}, fmt.Errorf("loading checkpoint: %w", err)
	}
	state.Done = done != 0
	if t, err := time.Parse(time.RFC3339Nano, updatedAt); err == nil {
		state.UpdatedAt = t
	}
	return state, nil
}

// Delete removes the state for (filePath, sheetName). Deleting a missing
// checkpoint is not an error.
func (s *Store) Delete(ctx context.Context, filePath, sheetName string) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM checkpoints WHERE file_path = ? AND sheet_name = ?`,
		filePath, sheetName)
	if err != nil {
		return fmt.Errorf("deleting checkpoint: %w", err)
	}
	return nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
