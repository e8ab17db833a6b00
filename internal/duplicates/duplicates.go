// Package duplicates groups rows that share a value in a chosen column.
package duplicates

import (
	"strings"

	"golang-invoice-service/internal/models"
)

// DetectionResult summarises a duplicate scan
type DetectionResult struct {
	KeyColumn     string                  `json:"key_column"`
	Groups        []models.DuplicateGroup `json:"groups"`
	DuplicateRows int                     `json:"duplicate_rows"`
}

// FindDuplicates groups rows by the trimmed text of keyColumn. Rows with an
// empty key are ignored. Only groups with two or more rows are returned,
// ordered by the first occurrence of their key; rows inside a group keep
// their original order.
func FindDuplicates(rows []models.Row, keyColumn string) []models.DuplicateGroup {
	if keyColumn == "" || len(rows) == 0 {
		return []models.DuplicateGroup{}
	}

	order := make([]string, 0)
	members := make(map[string][]models.DuplicateMember)

	for i, row := range rows {
		key := strings.TrimSpace(row.Get(keyColumn).String())
		if key == "" {
			continue
		}
		if _, seen := members[key]; !seen {
			order = append(order, key)
		}
		members[key] = append(members[key], models.DuplicateMember{Row: row, OriginalIndex: i})
	}

	groups := make([]models.DuplicateGroup, 0)
	for _, key := range order {
		if len(members[key]) > 1 {
			groups = append(groups, models.DuplicateGroup{Key: key, Members: members[key]})
		}
	}
	return groups
}

// Detect runs FindDuplicates and counts the rows involved
func Detect(rows []models.Row, keyColumn string) *DetectionResult {
	groups := FindDuplicates(rows, keyColumn)

	total := 0
	for _, g := range groups {
		total += g.Count()
	}

	return &DetectionResult{
		KeyColumn:     keyColumn,
		Groups:        groups,
		DuplicateRows: total,
	}
}
