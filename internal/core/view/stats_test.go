package view

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/kirillkom/document-inbox/internal/core/domain"
)

func TestAggregateEmptyCatalog(t *testing.T) {
	stats := Aggregate(nil)

	assert.Zero(t, stats.Total)
	assert.Empty(t, stats.ByCategory)
	assert.Empty(t, stats.ByFormatClass)
	assert.Zero(t, stats.ClassifiedPercent())
}

func TestAggregateCountsAssignedCategoriesOnly(t *testing.T) {
	stats := Aggregate(sample())

	assert.Equal(t, 5, stats.Total)
	assert.Equal(t, map[domain.Category]int{
		domain.CategoryInvoice:  2,
		domain.CategoryReport:   1,
		domain.CategoryContract: 1,
	}, stats.ByCategory)
	assert.Equal(t, map[domain.FormatClass]int{
		domain.FormatPDF:   2,
		domain.FormatWord:  1,
		domain.FormatExcel: 1,
		domain.FormatOther: 1,
	}, stats.ByFormatClass)
	assert.Equal(t, 80.0, stats.ClassifiedPercent())
	assert.Equal(t, 3, stats.DistinctCategories())
}

func TestFoldersListsEveryClassInOrder(t *testing.T) {
	folders := Folders(sample())

	assert.Len(t, folders, 5)
	var counts []int
	for i, f := range folders {
		assert.Equal(t, domain.FormatClasses[i], f.FormatClass)
		counts = append(counts, f.Count)
	}
	assert.Equal(t, []int{2, 1, 1, 0, 1}, counts)
	assert.Equal(t, "Text files", folders[3].Label)
}
