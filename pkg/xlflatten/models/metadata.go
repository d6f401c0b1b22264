package models

// MetadataItem is a single key/value pair found above the data table.
type MetadataItem struct {
	// Key is the label resolved for the value (row-1 header or column letter).
	Key string `json:"key"`
	// Value is the scalar found in the cell.
	Value any `json:"value"`
	// Row is where the value was found (1-based).
	Row int `json:"row"`
	// Column is where the value was found (1-based).
	Column int `json:"column"`
	// SourceRange is the A1 notation of the merged region the value came
	// from, when it came from a banner merge.
	SourceRange string `json:"source_range,omitempty"`
}

// MetadataSection is a named, ordered group of metadata items.
type MetadataSection struct {
	Name  string         `json:"name"`
	Items []MetadataItem `json:"items"`
}

// Add appends an item, preserving insertion order.
func (s *MetadataSection) Add(item MetadataItem) {
	s.Items = append(s.Items, item)
}

// Metadata holds every metadata section detected above the data table.
type Metadata struct {
	// Sections are ordered as detected; the reserved "headers" section for
	// banner merges comes first when present.
	Sections []MetadataSection `json:"sections"`
	// RowCount is the highest row index consumed by any section, 0 when no
	// metadata was found.
	RowCount int `json:"row_count"`
}

// AddSection appends a section, preserving insertion order.
func (m *Metadata) AddSection(section MetadataSection) {
	m.Sections = append(m.Sections, section)
}

// Section returns the named section, or nil.
func (m *Metadata) Section(name string) *MetadataSection {
	for i := range m.Sections {
		if m.Sections[i].Name == name {
			return &m.Sections[i]
		}
	}
	return nil
}

// HeaderRow is the detected header row with its per-column names. A merged
// header cell supplies its value to every column position it spans.
type HeaderRow struct {
	// Row is the header row index (1-based).
	Row int `json:"row"`
	// Names maps column index to the column name resolved for it.
	Names map[int]string `json:"names"`
}

// Name returns the column name for col, if one was resolved.
func (h *HeaderRow) Name(col int) (string, bool) {
	name, ok := h.Names[col]
	return name, ok
}
