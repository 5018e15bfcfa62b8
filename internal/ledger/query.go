// Package ledger sorts, filters and paginates transaction listings.
package ledger

import (
	"sort"
	"strings"
	"time"

	"github.com/mmynk/pocketledger/internal/models"
)

// DefaultPageSize is used when a query does not set one.
const DefaultPageSize = 10

// MaxPageSize caps a single page.
const MaxPageSize = 500

// SortField names a sortable column.
type SortField string

const (
	SortByDate     SortField = "date"
	SortByAmount   SortField = "amount"
	SortByCategory SortField = "category"
)

// Filter narrows a listing. Zero fields match everything.
type Filter struct {
	Kind     models.Kind `json:"type,omitempty"`
	Category string      `json:"category,omitempty"`
	// Search matches category or notes, case-insensitively.
	Search string `json:"search,omitempty"`
	// From and To bound the date, both inclusive.
	From *time.Time `json:"from,omitempty"`
	To   *time.Time `json:"to,omitempty"`
}

// Query is a filter, an ordering and a page request.
type Query struct {
	Filter   Filter    `json:"filter"`
	// SortBy defaults to date. Results are newest or largest first
	// unless Asc is set.
	SortBy   SortField `json:"sortBy,omitempty"`
	Asc      bool      `json:"asc,omitempty"`
	Page     int       `json:"page,omitempty"`
	PageSize int       `json:"pageSize,omitempty"`
}

// Page is one page of results.
type Page struct {
	Items      []models.Transaction `json:"items"`
	Total      int                  `json:"total"`
	Page       int                  `json:"page"`
	PageSize   int                  `json:"pageSize"`
	TotalPages int                  `json:"totalPages"`
}

// Match reports whether tx passes the filter.
func (f Filter) Match(tx models.Transaction) bool {
	if f.Kind != "" && tx.Kind != f.Kind {
		return false
	}
	if f.Category != "" && !strings.EqualFold(tx.Category, f.Category) {
		return false
	}
	if f.Search != "" {
		needle := strings.ToLower(f.Search)
		if !strings.Contains(strings.ToLower(tx.Category), needle) &&
			!strings.Contains(strings.ToLower(tx.Notes), needle) {
			return false
		}
	}
	if f.From != nil && tx.Date.Before(*f.From) {
		return false
	}
	if f.To != nil && tx.Date.After(*f.To) {
		return false
	}
	return true
}

// FilterAll returns the transactions that pass f, in their original order.
func FilterAll(txs []models.Transaction, f Filter) []models.Transaction {
	out := make([]models.Transaction, 0, len(txs))
	for _, tx := range txs {
		if f.Match(tx) {
			out = append(out, tx)
		}
	}
	return out
}

// Sort orders txs in place. Ties fall back to ID so the order is stable.
func Sort(txs []models.Transaction, field SortField, asc bool) {
	less := func(a, b models.Transaction) int {
		switch field {
		case SortByAmount:
			if c := a.Amount.Cmp(b.Amount); c != 0 {
				return c
			}
		case SortByCategory:
			if c := strings.Compare(strings.ToLower(a.Category), strings.ToLower(b.Category)); c != 0 {
				return c
			}
		default:
			if c := a.Date.Compare(b.Date); c != 0 {
				return c
			}
		}
		switch {
		case a.ID < b.ID:
			return -1
		case a.ID > b.ID:
			return 1
		}
		return 0
	}

	sort.SliceStable(txs, func(i, j int) bool {
		c := less(txs[i], txs[j])
		if asc {
			return c < 0
		}
		return c > 0
	})
}

// Apply filters, sorts and paginates txs. The input slice is not modified.
// Pages are 1-based; a page past the end is clamped to the last page.
func Apply(txs []models.Transaction, q Query) Page {
	items := FilterAll(txs, q.Filter)
	Sort(items, q.SortBy, q.Asc)

	size := q.PageSize
	if size <= 0 {
		size = DefaultPageSize
	}
	if size > MaxPageSize {
		size = MaxPageSize
	}

	total := len(items)
	pages := (total + size - 1) / size
	if pages == 0 {
		pages = 1
	}

	page := q.Page
	if page < 1 {
		page = 1
	}
	if page > pages {
		page = pages
	}

	start := (page - 1) * size
	end := start + size
	if end > total {
		end = total
	}

	return Page{
		Items:      items[start:end],
		Total:      total,
		Page:       page,
		PageSize:   size,
		TotalPages: pages,
	}
}
