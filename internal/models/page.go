package models

import (
	"errors"
	"math"
	"strconv"
	"strings"
	"unicode"
)

// PageSize is the number of packages shown per public listing page.
const PageSize = 6

// Page is one page of a category listing.
type Page struct {
	Category   Category        `json:"category"`
	Packages   []PackageRecord `json:"packages"`
	Page       int             `json:"page"`
	TotalPages int             `json:"totalPages"`
	Total      int             `json:"total"`
	PageSize   int             `json:"pageSize"`
	// Start and End are the 1-based positions of the first and last shown record.
	Start int `json:"start"`
	End   int `json:"end"`
}

// Paginate returns the requested page of records. rawPage is parsed leniently:
// its leading integer is used ("2abc" is page 2), anything without a positive
// one selects the first page, and values past the end are clamped to the last page.
func Paginate(cat Category, records []PackageRecord, rawPage string, size int) Page {
	if size <= 0 {
		size = PageSize
	}
	total := len(records)
	totalPages := (total + size - 1) / size

	page, ok := leadingInt(rawPage)
	if !ok || page < 1 {
		page = 1
	}
	page = min(page, max(totalPages, 1))

	start := min((page-1)*size, total)
	end := min(start+size, total)

	visible := make([]PackageRecord, end-start)
	copy(visible, records[start:end])

	p := Page{
		Category:   cat,
		Packages:   visible,
		Page:       page,
		TotalPages: totalPages,
		Total:      total,
		PageSize:   size,
		End:        end,
	}
	if end > start {
		p.Start = start + 1
	}
	return p
}

// leadingInt parses the optionally signed decimal prefix of s after leading
// whitespace. Values out of range saturate.
func leadingInt(s string) (int, bool) {
	s = strings.TrimLeftFunc(s, unicode.IsSpace)
	end := 0
	if end < len(s) && (s[end] == '+' || s[end] == '-') {
		end++
	}
	digits := end
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == digits {
		return 0, false
	}

	n, err := strconv.Atoi(s[:end])
	if errors.Is(err, strconv.ErrRange) {
		if s[0] == '-' {
			return math.MinInt, true
		}
		return math.MaxInt, true
	}
	return n, err == nil
}
