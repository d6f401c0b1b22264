package output

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/kharuka/xlflatten-go/pkg/xlflatten/models"
)

// StreamWriter incrementally writes streamed chunks as one JSON document:
// a header with the sheet name and columns, a records array appended chunk
// by chunk, and a trailing summary. Chunks are written as they arrive and
// never retained.
type StreamWriter struct {
	w         io.Writer
	started   bool
	finalized bool
	records   int
	chunks    int
}

// NewStreamWriter returns a writer emitting to w.
func NewStreamWriter(w io.Writer) *StreamWriter {
	return &StreamWriter{w: w}
}

// WriteChunk appends one chunk's records. The first chunk opens the
// document and fixes the column list.
func (sw *StreamWriter) WriteChunk(sheetName string, chunk models.DataChunk) error {
	if sw.finalized {
		return fmt.Errorf("stream writer already finalized")
	}
	if !sw.started {
		columns, err := json.Marshal(chunk.Data.Columns)
		if err != nil {
			return err
		}
		name, err := json.Marshal(sheetName)
		if err != nil {
			return err
		}
		if _, err := fmt.Fprintf(sw.w, "{\"sheet\":%s,\"columns\":%s,\"records\":[", name, columns); err != nil {
			return err
		}
		sw.started = true
	}
	for _, rec := range chunk.Data.Records {
		encoded, err := json.Marshal(rec)
		if err != nil {
			return err
		}
		if sw.records > 0 {
			if _, err := io.WriteString(sw.w, ","); err != nil {
				return err
			}
		}
		if _, err := sw.w.Write(encoded); err != nil {
			return err
		}
		sw.records++
	}
	sw.chunks++
	return nil
}

// Close finalizes the document with the row and chunk counts. Closing
// without any chunk written emits an empty document.
func (sw *StreamWriter) Close() error {
	if sw.finalized {
		return nil
	}
	if !sw.started {
		if _, err := io.WriteString(sw.w, "{\"records\":["); err != nil {
			return err
		}
	}
	sw.finalized = true
	_, err := fmt.Fprintf(sw.w, "],\"rows\":%d,\"chunks\":%d}", sw.records, sw.chunks)
	return err
}

// Records returns how many records have been written so far.
func (sw *StreamWriter) Records() int {
	return sw.records
}

// Chunks returns how many chunks have been written so far.
func (sw *StreamWriter) Chunks() int {
	return sw.chunks
}
