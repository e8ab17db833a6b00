package models

import (
	"encoding/json"
	"fmt"
)

// RowIndexMarker is the reserved header some spreadsheet readers inject to
// carry the source row number. It is never a data column.
const RowIndexMarker = "__rowNum__"

// Row maps header names to cell values. Index is the 1-based position of
// the row among retained data rows and never changes after ingestion.
type Row struct {
	Index  int
	values map[string]CellValue
}

// NewRow creates a row from a header-to-value mapping. The mapping is copied.
func NewRow(index int, values map[string]CellValue) Row {
	copied := make(map[string]CellValue, len(values))
	for k, v := range values {
		copied[k] = v
	}
	return Row{Index: index, values: copied}
}

// Get returns the value under header, or Empty if the row has none
func (r Row) Get(header string) CellValue {
	return r.values[header]
}

// Has reports whether the row carries the header at all
func (r Row) Has(header string) bool {
	_, ok := r.values[header]
	return ok
}

// Len returns the number of headers the row carries
func (r Row) Len() int {
	return len(r.values)
}

// IsBlank reports whether every value of the row is empty
func (r Row) IsBlank() bool {
	for header, v := range r.values {
		if header == RowIndexMarker {
			continue
		}
		if !v.IsEmpty() {
			return false
		}
	}
	return true
}

// Values returns a copy of the row's mapping
func (r Row) Values() map[string]CellValue {
	copied := make(map[string]CellValue, len(r.values))
	for k, v := range r.values {
		copied[k] = v
	}
	return copied
}

// Table is the ingested form of an uploaded file
type Table struct {
	Headers []string `json:"headers"`
	Rows    []Row    `json:"rows"`
}

// Validate checks that headers are unique and that every row carries a
// value for every header.
func (t *Table) Validate() error {
	seen := make(map[string]bool, len(t.Headers))
	for _, h := range t.Headers {
		if seen[h] {
			return fmt.Errorf("duplicate header %q", h)
		}
		seen[h] = true
	}

	for _, row := range t.Rows {
		if row.Len() != len(t.Headers) {
			return fmt.Errorf("row %d has %d values, expected %d", row.Index, row.Len(), len(t.Headers))
		}
		for _, h := range t.Headers {
			if !row.Has(h) {
				return fmt.Errorf("row %d is missing header %q", row.Index, h)
			}
		}
	}
	return nil
}

// MarshalJSON writes the row index alongside the values
func (r Row) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Index  int                  `json:"row_index"`
		Values map[string]CellValue `json:"values"`
	}{
		Index:  r.Index,
		Values: r.values,
	})
}
