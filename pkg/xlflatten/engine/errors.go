// Package engine implements the structural analysis and hierarchical
// extraction core: merge-map building, metadata and header detection, and
// batch and streaming record extraction.
package engine

import "fmt"

// MergeMapError reports a failure building the merge map: region or
// dimension access failed, or overlapping regions were reported.
type MergeMapError struct {
	SheetName string
	Err       error
}

func (e *MergeMapError) Error() string {
	return fmt.Sprintf("building merge map for sheet %q: %v", e.SheetName, e.Err)
}

func (e *MergeMapError) Unwrap() error {
	return e.Err
}

// MetadataExtractionError reports a failure scanning the metadata rows.
type MetadataExtractionError struct {
	SheetName string
	Err       error
}

func (e *MetadataExtractionError) Error() string {
	return fmt.Sprintf("extracting metadata from sheet %q: %v", e.SheetName, e.Err)
}

func (e *MetadataExtractionError) Unwrap() error {
	return e.Err
}

// HeaderDetectionError reports a failure locating the header row.
type HeaderDetectionError struct {
	SheetName string
	Err       error
}

func (e *HeaderDetectionError) Error() string {
	return fmt.Sprintf("detecting header row in sheet %q: %v", e.SheetName, e.Err)
}

func (e *HeaderDetectionError) Unwrap() error {
	return e.Err
}

// DataExtractionError reports a failed row walk. In batch mode it is fatal
// to the whole extraction call; streaming recovers row failures locally and
// only returns it for pre-flight failures.
type DataExtractionError struct {
	SheetName string
	Row       int
	Err       error
}

func (e *DataExtractionError) Error() string {
	if e.Row > 0 {
		return fmt.Sprintf("extracting data from sheet %q row %d: %v", e.SheetName, e.Row, e.Err)
	}
	return fmt.Sprintf("extracting data from sheet %q: %v", e.SheetName, e.Err)
}

func (e *DataExtractionError) Unwrap() error {
	return e.Err
}
