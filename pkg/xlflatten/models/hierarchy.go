package models

import "encoding/json"

// MergeInfo describes the merged region an item originated from. It is
// attached only to items emitted at a merge origin.
type MergeInfo struct {
	Type    MergeType `json:"type"`
	RowSpan int       `json:"row_span"`
	ColSpan int       `json:"col_span"`
	Range   string    `json:"range"`
}

// HierarchicalDataItem is one named value of a record.
type HierarchicalDataItem struct {
	// Key is the column name the value belongs to.
	Key string `json:"key"`
	// Value is the cell scalar, or nil for an empty cell kept by the
	// include-empty option.
	Value any `json:"value"`
	// Position is the cell the value was read from.
	Position CellPosition `json:"position"`
	// MergeInfo is set when the value comes from a merge origin.
	MergeInfo *MergeInfo `json:"merge_info,omitempty"`
	// SubItems exists for future hierarchy; extraction currently produces
	// flat items only.
	SubItems []HierarchicalDataItem `json:"sub_items,omitempty"`
}

// HierarchicalRecord is one logical data row. Items are keyed by column
// name, unique per record, ordered by first insertion.
type HierarchicalRecord struct {
	rowIndex int
	items    []HierarchicalDataItem
	index    map[string]int
}

// NewRecord returns an empty record for the given sheet row.
func NewRecord(rowIndex int) *HierarchicalRecord {
	return &HierarchicalRecord{rowIndex: rowIndex, index: make(map[string]int)}
}

// RowIndex returns the sheet row the record was extracted from.
func (r *HierarchicalRecord) RowIndex() int {
	return r.rowIndex
}

// AddItem inserts item under its key. A duplicate key overwrites the
// earlier item in place, keeping its original position in the order.
func (r *HierarchicalRecord) AddItem(item HierarchicalDataItem) {
	if i, ok := r.index[item.Key]; ok {
		r.items[i] = item
		return
	}
	r.index[item.Key] = len(r.items)
	r.items = append(r.items, item)
}

// Item returns the item stored under key.
func (r *HierarchicalRecord) Item(key string) (HierarchicalDataItem, bool) {
	i, ok := r.index[key]
	if !ok {
		return HierarchicalDataItem{}, false
	}
	return r.items[i], true
}

// Items returns the record's items in first-insertion order.
func (r *HierarchicalRecord) Items() []HierarchicalDataItem {
	return r.items
}

// Len returns the number of items in the record.
func (r *HierarchicalRecord) Len() int {
	return len(r.items)
}

type recordJSON struct {
	RowIndex int                    `json:"row_index"`
	Items    []HierarchicalDataItem `json:"items"`
}

// MarshalJSON serializes items as an ordered array so output is
// deterministic across runs.
func (r *HierarchicalRecord) MarshalJSON() ([]byte, error) {
	return json.Marshal(recordJSON{RowIndex: r.rowIndex, Items: r.items})
}

// UnmarshalJSON restores a record serialized by MarshalJSON.
func (r *HierarchicalRecord) UnmarshalJSON(data []byte) error {
	var raw recordJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	r.rowIndex = raw.RowIndex
	r.items = nil
	r.index = make(map[string]int)
	for _, item := range raw.Items {
		r.AddItem(item)
	}
	return nil
}

// HierarchicalData is the flat record set extracted from one sheet.
type HierarchicalData struct {
	// Columns is the ordered header list, fixed once at extraction start.
	Columns []string `json:"columns"`
	// Records holds one record per processed data row, append-only, with
	// strictly increasing row indices.
	Records []*HierarchicalRecord `json:"records"`
}

// NewHierarchicalData returns an empty record set with a fixed column list.
func NewHierarchicalData(columns []string) *HierarchicalData {
	return &HierarchicalData{Columns: columns, Records: []*HierarchicalRecord{}}
}

// AddRecord appends a record. Callers feed records in row order.
func (d *HierarchicalData) AddRecord(rec *HierarchicalRecord) {
	d.Records = append(d.Records, rec)
}

// DataChunk is one streamed batch of records. Chunks are handed to the
// caller as they are produced and never retained by the engine.
type DataChunk struct {
	// Index is the zero-based chunk sequence number.
	Index int `json:"index"`
	// Data holds the records of this chunk with the fixed column list.
	Data *HierarchicalData `json:"data"`
	// IsFinal marks the last chunk of the stream.
	IsFinal bool `json:"is_final"`
}
