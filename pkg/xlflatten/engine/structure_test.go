package engine

import (
	"testing"
)

func detect(t *testing.T, s *fakeSheet, opts DetectOptions) (metaRowCount, dataStartRow int, sections []string) {
	t.Helper()
	mergeMap, _, err := BuildMergeMap(s)
	if err != nil {
		t.Fatalf("BuildMergeMap failed: %v", err)
	}
	meta, start, err := DetectStructure(s, mergeMap, opts)
	if err != nil {
		t.Fatalf("DetectStructure failed: %v", err)
	}
	for _, sec := range meta.Sections {
		sections = append(sections, sec.Name)
	}
	return meta.RowCount, start, sections
}

func TestDetectStructureHeaderAtFirstRow(t *testing.T) {
	// Dense first row is the table header, not metadata.
	rowCount, start, sections := detect(t, scenarioSheet(), DetectOptions{})
	if rowCount != 0 {
		t.Errorf("RowCount = %d, expected 0", rowCount)
	}
	if start != 1 {
		t.Errorf("dataStartRow = %d, expected 1", start)
	}
	if len(sections) != 0 {
		t.Errorf("Expected no metadata sections, got %v", sections)
	}
}

func TestDetectStructureFallbackMaxCount(t *testing.T) {
	// Rows 1-2 empty, row 3 holds five text cells, row 4 numeric data.
	// The first candidate row has an empty first column, so the fallback
	// picks the most populated row in the window.
	s := newFakeSheet("Sheet1", 5, 5)
	for col := 1; col <= 5; col++ {
		s.set(3, col, "Col"+string(rune('A'+col-1)))
		s.set(4, col, int64(col*10))
	}

	rowCount, start, sections := detect(t, s, DetectOptions{HeaderThreshold: 3})
	if rowCount != 0 {
		t.Errorf("RowCount = %d, expected 0", rowCount)
	}
	if start != 3 {
		t.Errorf("dataStartRow = %d, expected 3", start)
	}
	if len(sections) != 0 {
		t.Errorf("Expected no metadata sections, got %v", sections)
	}
}

func TestDetectStructureBannerAndMetadata(t *testing.T) {
	// A1:E1 is a title banner, row 2 is a sparse key/value pair, row 3 is
	// the dense header row.
	s := newFakeSheet("Report", 6, 5)
	s.merge(1, 1, 1, 5, "Quarterly Report")
	s.set(2, 1, "Date:")
	s.set(2, 2, "2024-01-01")
	for col := 1; col <= 5; col++ {
		s.set(3, col, "H"+string(rune('0'+col)))
		s.set(4, col, int64(col))
	}

	mergeMap, _, err := BuildMergeMap(s)
	if err != nil {
		t.Fatalf("BuildMergeMap failed: %v", err)
	}
	meta, start, err := DetectStructure(s, mergeMap, DetectOptions{})
	if err != nil {
		t.Fatalf("DetectStructure failed: %v", err)
	}

	headers := meta.Section("headers")
	if headers == nil {
		t.Fatal("Expected a headers section")
	}
	if len(headers.Items) != 1 {
		t.Fatalf("headers section has %d items, expected 1", len(headers.Items))
	}
	item := headers.Items[0]
	if item.Key != "header_r1" {
		t.Errorf("banner key = %q, expected %q", item.Key, "header_r1")
	}
	if item.Value != "Quarterly Report" {
		t.Errorf("banner value = %v", item.Value)
	}
	if item.SourceRange != "A1:E1" {
		t.Errorf("banner source range = %q, expected %q", item.SourceRange, "A1:E1")
	}

	row2 := meta.Section("row_2")
	if row2 == nil {
		t.Fatal("Expected a row_2 section")
	}
	if len(row2.Items) != 2 {
		t.Fatalf("row_2 has %d items, expected 2", len(row2.Items))
	}
	// Column 1 takes its key from the raw row-1 value, column 2 falls back
	// to the column letter since (1,2) is a merge continuation.
	if row2.Items[0].Key != "Quarterly Report" {
		t.Errorf("row_2 first key = %q", row2.Items[0].Key)
	}
	if row2.Items[1].Key != "B" {
		t.Errorf("row_2 second key = %q, expected %q", row2.Items[1].Key, "B")
	}

	if meta.RowCount != 2 {
		t.Errorf("RowCount = %d, expected 2", meta.RowCount)
	}
	if start != 3 {
		t.Errorf("dataStartRow = %d, expected 3", start)
	}
}

func TestDetectStructureNoClearHeader(t *testing.T) {
	// Sparse rows only: fallback counts never clear the threshold, so the
	// row after the metadata block wins regardless of content.
	s := newFakeSheet("Sparse", 8, 10)
	s.set(2, 5, "note")
	s.set(2, 7, "misc")
	s.set(3, 5, "stray")

	rowCount, start, sections := detect(t, s, DetectOptions{HeaderThreshold: 3})
	if rowCount != 3 {
		t.Errorf("RowCount = %d, expected 3", rowCount)
	}
	if len(sections) != 2 {
		t.Errorf("Expected 2 metadata sections, got %v", sections)
	}
	if start != 4 {
		t.Errorf("dataStartRow = %d, expected 4", start)
	}
}

func TestScoringRules(t *testing.T) {
	tests := []struct {
		name     string
		rule     ScoringRule
		profile  RowProfile
		expected float64
	}{
		{"population counts cells", PopulationRule, RowProfile{Populated: 7}, 7},
		{"text penalizes numerics", TextRule, RowProfile{Populated: 4, NumericRatio: 0.5}, -2},
		{"all-text rows unpenalized", TextRule, RowProfile{Populated: 4, NumericRatio: 0}, 0},
		{"earlier rows score higher", PositionRule, RowProfile{Offset: 0}, 0.5},
		{"later rows score lower", PositionRule, RowProfile{Offset: 4}, 0.1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.rule(tt.profile); got != tt.expected {
				t.Errorf("score = %v, expected %v", got, tt.expected)
			}
		})
	}
}

func TestDetectStructureCustomRules(t *testing.T) {
	// With the text rule added, a numeric row loses to an equally wide
	// text row even when it comes first.
	s := newFakeSheet("Custom", 6, 4)
	for col := 2; col <= 4; col++ {
		s.set(2, col, int64(col)) // numeric, first in window
		s.set(3, col, "label")    // text
	}

	_, start, _ := detect(t, s, DetectOptions{
		HeaderThreshold: 1,
		Rules:           []ScoringRule{PopulationRule, TextRule},
	})
	if start != 3 {
		t.Errorf("dataStartRow = %d, expected 3", start)
	}
}
