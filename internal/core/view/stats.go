package view

import "github.com/kirillkom/document-inbox/internal/core/domain"

// Aggregate counts documents by category and by format class. Only keys that occur are present;
// documents without an assigned category count toward the total but no category bucket.
func Aggregate(documents []domain.Document) domain.Stats {
	stats := domain.Stats{
		Total:         len(documents),
		ByCategory:    make(map[domain.Category]int),
		ByFormatClass: make(map[domain.FormatClass]int),
	}
	for _, doc := range documents {
		stats.ByFormatClass[doc.FormatClass]++
		if doc.Status != domain.StatusAnalyzing && doc.Category != "" {
			stats.ByCategory[doc.Category]++
		}
	}
	return stats
}

// Folders lists every format class in folder order with its document count, zeros included.
func Folders(documents []domain.Document) []domain.FolderSummary {
	counts := Aggregate(documents).ByFormatClass
	out := make([]domain.FolderSummary, 0, len(domain.FormatClasses))
	for _, class := range domain.FormatClasses {
		out = append(out, domain.FolderSummary{
			FormatClass: class,
			Label:       class.Label(),
			Count:       counts[class],
		})
	}
	return out
}
