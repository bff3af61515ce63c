package domain

import "fmt"

// FilterAll disables a type or format filter.
const FilterAll = "all"

type SortKey string

const (
	SortByDate        SortKey = "date"
	SortByName        SortKey = "name"
	SortByType        SortKey = "type"
	SortByFormatClass SortKey = "formatClass"
)

func (k SortKey) Valid() bool {
	switch k {
	case SortByDate, SortByName, SortByType, SortByFormatClass:
		return true
	default:
		return false
	}
}

// Query is the user-selected filter and sort state of a list view.
type Query struct {
	SearchTerm   string  `json:"search"`
	TypeFilter   string  `json:"type"`
	FormatFilter string  `json:"format"`
	SortKey      SortKey `json:"sort"`
}

// DefaultQuery matches the initial state of the inbox list: no filters, newest first.
func DefaultQuery() Query {
	return Query{TypeFilter: FilterAll, FormatFilter: FilterAll, SortKey: SortByDate}
}

// Normalize fills empty fields with defaults and rejects unknown enum values.
func (q Query) Normalize() (Query, error) {
	out := q
	if out.TypeFilter == "" {
		out.TypeFilter = FilterAll
	}
	if out.FormatFilter == "" {
		out.FormatFilter = FilterAll
	}
	if out.SortKey == "" {
		out.SortKey = SortByDate
	}
	if out.TypeFilter != FilterAll && !Category(out.TypeFilter).Valid() {
		return Query{}, WrapError(ErrInvalidInput, "normalize query", fmt.Errorf("unknown type filter %q", out.TypeFilter))
	}
	if out.FormatFilter != FilterAll && !FormatClass(out.FormatFilter).Valid() {
		return Query{}, WrapError(ErrInvalidInput, "normalize query", fmt.Errorf("unknown format filter %q", out.FormatFilter))
	}
	if !out.SortKey.Valid() {
		return Query{}, WrapError(ErrInvalidInput, "normalize query", fmt.Errorf("unknown sort key %q", out.SortKey))
	}
	return out, nil
}

type Group struct {
	FormatClass FormatClass `json:"format_class"`
	Label       string      `json:"label"`
	Documents   []Document  `json:"documents"`
}

type FolderSummary struct {
	FormatClass FormatClass `json:"format_class"`
	Label       string      `json:"label"`
	Count       int         `json:"count"`
}

type Stats struct {
	Total         int                 `json:"total"`
	ByCategory    map[Category]int    `json:"by_category"`
	ByFormatClass map[FormatClass]int `json:"by_format_class"`
}

// Classified is the number of documents with an assigned category.
func (s Stats) Classified() int {
	total := 0
	for _, n := range s.ByCategory {
		total += n
	}
	return total
}

// ClassifiedPercent is 0 for an empty catalog.
func (s Stats) ClassifiedPercent() float64 {
	if s.Total == 0 {
		return 0
	}
	return float64(s.Classified()) / float64(s.Total) * 100
}

// DistinctCategories counts the categories that occur at least once.
func (s Stats) DistinctCategories() int {
	return len(s.ByCategory)
}
