package polist

import (
	"strings"

	"github.com/digitradex/trade-console/internal/models"
)

// Filters is the set of list filters. Empty fields match everything; status
// matches exactly, the text fields match case-insensitive substrings.
type Filters struct {
	Status       string
	CustomerName string
	PONumber     string
	Manager      string
	Organization string
}

// Apply returns the rows passing every set filter
func (f Filters) Apply(rows []models.POListRow) []models.POListRow {
	filtered := make([]models.POListRow, 0, len(rows))
	for _, row := range rows {
		if f.matches(row) {
			filtered = append(filtered, row)
		}
	}
	return filtered
}

func (f Filters) matches(row models.POListRow) bool {
	if f.Status != "" && row.Status != f.Status {
		return false
	}
	if !containsFold(row.PONumber, f.PONumber) {
		return false
	}
	if !containsFold(row.Customer, f.CustomerName) {
		return false
	}
	if !containsFold(row.Manager, f.Manager) {
		return false
	}
	if !containsFold(row.Organization, f.Organization) {
		return false
	}
	return true
}

func containsFold(value, needle string) bool {
	if needle == "" {
		return true
	}
	return strings.Contains(strings.ToLower(value), strings.ToLower(needle))
}

// Page returns one page of rows, 1-based. An out-of-range page comes back
// empty.
func Page(rows []models.POListRow, page, perPage int) []models.POListRow {
	if page < 1 || perPage < 1 {
		return []models.POListRow{}
	}
	start := (page - 1) * perPage
	if start >= len(rows) {
		return []models.POListRow{}
	}
	end := start + perPage
	if end > len(rows) {
		end = len(rows)
	}
	return rows[start:end]
}

// TotalPages returns how many pages the rows span
func TotalPages(count, perPage int) int {
	if perPage < 1 || count <= 0 {
		return 0
	}
	return (count + perPage - 1) / perPage
}

// PageWindow returns the page numbers to show as buttons: at most maxButtons
// numbers centered on the current page, clamped to the ends.
func PageWindow(current, total, maxButtons int) []int {
	if total < 1 || maxButtons < 1 {
		return nil
	}

	start, end := 1, total
	if total > maxButtons {
		before := maxButtons / 2
		after := (maxButtons+1)/2 - 1

		switch {
		case current <= before:
			start, end = 1, maxButtons
		case current+after >= total:
			start, end = total-maxButtons+1, total
		default:
			start, end = current-before, current+after
		}
	}

	pages := make([]int, 0, end-start+1)
	for i := start; i <= end; i++ {
		pages = append(pages, i)
	}
	return pages
}
