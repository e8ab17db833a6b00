package models

import (
	"encoding/json"
	"regexp"
	"strconv"
	"strings"
)

// CellKind identifies which variant a CellValue holds
type CellKind int

const (
	KindEmpty CellKind = iota
	KindNumber
	KindText
)

// String returns the string representation of CellKind
func (k CellKind) String() string {
	switch k {
	case KindNumber:
		return "number"
	case KindText:
		return "text"
	default:
		return "empty"
	}
}

// CellValue is a single spreadsheet cell: a number, a text or nothing.
// Number cells remember the text they were read from so identifiers such
// as "000123" display unchanged.
type CellValue struct {
	kind   CellKind
	number float64
	text   string
}

var numberPattern = regexp.MustCompile(`^[+-]?(\d+\.?\d*|\.\d+)([eE][+-]?\d+)?$`)

// Empty returns the empty cell
func Empty() CellValue {
	return CellValue{}
}

// Number returns a numeric cell
func Number(v float64) CellValue {
	return CellValue{kind: KindNumber, number: v, text: strconv.FormatFloat(v, 'f', -1, 64)}
}

// Text returns a text cell. An empty string yields the empty cell.
func Text(s string) CellValue {
	if s == "" {
		return Empty()
	}
	return CellValue{kind: KindText, text: s}
}

// ParseCell classifies raw cell text. Surrounding whitespace is trimmed;
// blank input is Empty, numeric input is Number, anything else is Text.
func ParseCell(raw string) CellValue {
	s := strings.TrimSpace(raw)
	if s == "" {
		return Empty()
	}
	if numberPattern.MatchString(s) {
		if v, err := strconv.ParseFloat(s, 64); err == nil {
			return CellValue{kind: KindNumber, number: v, text: s}
		}
	}
	return CellValue{kind: KindText, text: s}
}

// Kind returns the variant held by the cell
func (c CellValue) Kind() CellKind {
	return c.kind
}

// IsEmpty reports whether the cell holds no value
func (c CellValue) IsEmpty() bool {
	return c.kind == KindEmpty
}

// IsNumber reports whether the cell holds a number
func (c CellValue) IsNumber() bool {
	return c.kind == KindNumber
}

// Float returns the numeric value and whether the cell is a number
func (c CellValue) Float() (float64, bool) {
	return c.number, c.kind == KindNumber
}

// String returns the cell as text. Numbers use their source text.
func (c CellValue) String() string {
	return c.text
}

// MarshalJSON writes numbers as JSON numbers, text as strings and empty cells as null
func (c CellValue) MarshalJSON() ([]byte, error) {
	switch c.kind {
	case KindNumber:
		return json.Marshal(c.number)
	case KindText:
		return json.Marshal(c.text)
	default:
		return []byte("null"), nil
	}
}
