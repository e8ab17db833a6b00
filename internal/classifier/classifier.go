// Package classifier infers the semantic role of spreadsheet columns from
// their header names, falling back to the cell contents for UPI addresses.
package classifier

import (
	"strings"
	"unicode"

	"golang-invoice-service/internal/models"
)

const (
	// SniffSampleSize is the number of non-empty values inspected per header
	SniffSampleSize = 5

	// SniffThreshold is the fraction of UPI-shaped samples a header must exceed
	SniffThreshold = 0.7

	maxUpiLength = 100
)

// ColumnClassifier assigns headers to roles. It holds no state beyond its
// pattern table and is safe for concurrent use.
type ColumnClassifier struct {
	patterns PatternTable
}

// New creates a classifier. A nil table uses DefaultPatterns.
func New(patterns PatternTable) *ColumnClassifier {
	if patterns == nil {
		patterns = DefaultPatterns()
	}
	return &ColumnClassifier{patterns: patterns}
}

// Classify returns the detected header for each role. Roles are evaluated
// independently: for each one the first header, in table order, matching
// any of the role's patterns wins. Upi falls back to content sniffing over
// sample, and Vpa falls back to the Upi result.
func (c *ColumnClassifier) Classify(headers []string, sample []models.Row) models.Classification {
	result := models.Classification{}

	for _, role := range models.AllRoles {
		if role == models.RoleUpi || role == models.RoleVpa {
			continue
		}
		if header, ok := c.firstMatch(headers, c.patterns[role], false); ok {
			result[role] = header
		}
	}

	upi, ok := c.firstMatch(headers, c.patterns[models.RoleUpi], true)
	if !ok {
		upi, ok = sniffUpi(headers, sample)
	}
	if ok {
		result[models.RoleUpi] = upi
	}

	if vpa, found := c.firstMatch(headers, c.patterns[models.RoleVpa], true); found {
		result[models.RoleVpa] = vpa
	} else if ok {
		result[models.RoleVpa] = upi
	}

	return result
}

// firstMatch returns the first header containing any pattern. Compact
// matching also tests the header with non-alphanumeric characters removed,
// so "Payer-VPA" matches "payervpa".
func (c *ColumnClassifier) firstMatch(headers []string, patterns []string, compact bool) (string, bool) {
	if len(patterns) == 0 {
		return "", false
	}

	for _, header := range headers {
		if header == models.RowIndexMarker {
			continue
		}
		lower := strings.ToLower(header)
		stripped := ""
		if compact {
			stripped = alphanumeric(lower)
		}
		for _, p := range patterns {
			if strings.Contains(lower, p) || (compact && strings.Contains(stripped, p)) {
				return header, true
			}
		}
	}
	return "", false
}

func alphanumeric(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return r
		}
		return -1
	}, s)
}

// sniffUpi picks the first header whose leading non-empty values are mostly
// shaped like UPI addresses.
func sniffUpi(headers []string, sample []models.Row) (string, bool) {
	for _, header := range headers {
		if header == models.RowIndexMarker {
			continue
		}

		var values []string
		for _, row := range sample {
			v := strings.TrimSpace(row.Get(header).String())
			if v == "" {
				continue
			}
			values = append(values, v)
			if len(values) == SniffSampleSize {
				break
			}
		}
		if len(values) == 0 {
			continue
		}

		matches := 0
		for _, v := range values {
			if IsUpiLike(v) {
				matches++
			}
		}
		if float64(matches)/float64(len(values)) > SniffThreshold {
			return header, true
		}
	}
	return "", false
}

// IsUpiLike reports whether v has the local@domain shape of a UPI address
func IsUpiLike(v string) bool {
	if len(v) >= maxUpiLength || strings.Count(v, "@") != 1 || strings.Contains(v, " ") {
		return false
	}
	local, domain, _ := strings.Cut(v, "@")
	return local != "" && domain != ""
}
