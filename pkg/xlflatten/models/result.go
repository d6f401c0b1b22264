package models

// SheetResult bundles everything extracted from a single sheet.
type SheetResult struct {
	Name string `json:"name"`
	// Metadata holds the sections found above the data table.
	Metadata *Metadata `json:"metadata,omitempty"`
	// HeaderRow is the merge-aware view of the detected header row.
	HeaderRow *HeaderRow `json:"header_row,omitempty"`
	// DataStartRow is the detected header row index (1-based); data rows
	// follow it.
	DataStartRow int `json:"data_start_row"`
	// MergedRegions lists the sheet's merged regions with their origin values.
	MergedRegions []MergeRecord `json:"merged_regions,omitempty"`
	// Data is the flattened record set.
	Data *HierarchicalData `json:"data"`
}

// WorkbookResult is the extraction result for a whole workbook. Sheets keep
// workbook order so repeated runs produce identical output.
type WorkbookResult struct {
	BookName string        `json:"book_name"`
	Sheets   []SheetResult `json:"sheets"`
}

// Sheet returns the named sheet result, or nil.
func (w *WorkbookResult) Sheet(name string) *SheetResult {
	for i := range w.Sheets {
		if w.Sheets[i].Name == name {
			return &w.Sheets[i]
		}
	}
	return nil
}
