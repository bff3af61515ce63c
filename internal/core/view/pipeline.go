package view

import (
	"cmp"
	"slices"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/kirillkom/document-inbox/internal/core/domain"
)

// Pipeline derives display-ready sequences from catalog snapshots.
// It never mutates its input and the same input always yields the same output.
type Pipeline struct {
	locale language.Tag
}

func NewPipeline(locale language.Tag) *Pipeline {
	return &Pipeline{locale: locale}
}

// Derive filters documents by query and sorts the result stably by query.SortKey.
// The query is expected to be normalized.
func (p *Pipeline) Derive(documents []domain.Document, query domain.Query) []domain.Document {
	term := strings.ToLower(query.SearchTerm)

	out := make([]domain.Document, 0, len(documents))
	for _, doc := range documents {
		if !strings.Contains(strings.ToLower(doc.Name), term) {
			continue
		}
		if !matches(query.TypeFilter, string(doc.Category)) {
			continue
		}
		if !matches(query.FormatFilter, string(doc.FormatClass)) {
			continue
		}
		out = append(out, doc)
	}

	slices.SortStableFunc(out, p.comparator(query.SortKey))
	return out
}

// Folder is the per-format-class view: the format filter is pinned to class.
func (p *Pipeline) Folder(documents []domain.Document, class domain.FormatClass, query domain.Query) []domain.Document {
	query.FormatFilter = string(class)
	return p.Derive(documents, query)
}

// GroupByFormat partitions a sorted sequence by format class. Groups appear in order of
// their first document; documents keep their relative order.
func GroupByFormat(sorted []domain.Document) []domain.Group {
	groups := []domain.Group{}
	position := make(map[domain.FormatClass]int)
	for _, doc := range sorted {
		i, ok := position[doc.FormatClass]
		if !ok {
			i = len(groups)
			position[doc.FormatClass] = i
			groups = append(groups, domain.Group{
				FormatClass: doc.FormatClass,
				Label:       doc.FormatClass.Label(),
			})
		}
		groups[i].Documents = append(groups[i].Documents, doc)
	}
	return groups
}

func matches(filter, value string) bool {
	return filter == "" || filter == domain.FilterAll || filter == value
}

func (p *Pipeline) comparator(key domain.SortKey) func(a, b domain.Document) int {
	switch key {
	case domain.SortByName:
		// collate.Collator keeps scratch buffers, so each derivation gets its own.
		collator := collate.New(p.locale)
		return func(a, b domain.Document) int {
			return collator.CompareString(a.Name, b.Name)
		}
	case domain.SortByType:
		return func(a, b domain.Document) int {
			return cmp.Compare(a.Category, b.Category)
		}
	case domain.SortByFormatClass:
		return func(a, b domain.Document) int {
			return cmp.Compare(a.FormatClass, b.FormatClass)
		}
	default:
		return func(a, b domain.Document) int {
			return b.UploadedAt.Compare(a.UploadedAt)
		}
	}
}
