package invoice

import (
	"fmt"
	"strconv"
	"strings"

	"golang-invoice-service/internal/models"
	pipelineerrors "golang-invoice-service/pkg/errors"
)

// RowRange is an inclusive range of row indexes
type RowRange struct {
	From int
	To   int
}

// RowFilter selects rows by index. An empty filter selects every row.
type RowFilter []RowRange

// ParseRowFilter parses a list such as "1-10,15". Indexes are the 1-based
// row indexes assigned at ingestion.
func ParseRowFilter(spec string) (RowFilter, error) {
	spec = strings.TrimSpace(spec)
	if spec == "" {
		return nil, nil
	}

	var filter RowFilter
	for _, part := range strings.Split(spec, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}

		r, err := parseRange(part)
		if err != nil {
			return nil, pipelineerrors.ConfigurationError(pipelineerrors.CodeInvalidConfig, "rows", spec, err).
				WithSuggestion("Use comma separated indexes or ranges, e.g. 1-10,15")
		}
		filter = append(filter, r)
	}
	return filter, nil
}

func parseRange(part string) (RowRange, error) {
	from, to, isRange := strings.Cut(part, "-")
	start, err := strconv.Atoi(strings.TrimSpace(from))
	if err != nil || start < 0 {
		return RowRange{}, fmt.Errorf("invalid row index %q", from)
	}
	if !isRange {
		return RowRange{From: start, To: start}, nil
	}

	end, err := strconv.Atoi(strings.TrimSpace(to))
	if err != nil || end < 0 {
		return RowRange{}, fmt.Errorf("invalid row index %q", to)
	}
	if end < start {
		return RowRange{}, fmt.Errorf("range %q ends before it starts", part)
	}
	return RowRange{From: start, To: end}, nil
}

// Contains reports whether index is selected
func (f RowFilter) Contains(index int) bool {
	if len(f) == 0 {
		return true
	}
	for _, r := range f {
		if index >= r.From && index <= r.To {
			return true
		}
	}
	return false
}

// Apply returns the selected rows in their original order
func (f RowFilter) Apply(rows []models.Row) []models.Row {
	if len(f) == 0 {
		return rows
	}
	out := make([]models.Row, 0, len(rows))
	for _, row := range rows {
		if f.Contains(row.Index) {
			out = append(out, row)
		}
	}
	return out
}
