package domain

import "time"

type CatalogEventType string

const (
	EventDocumentsAppended   CatalogEventType = "documents.appended"
	EventDocumentsClassified CatalogEventType = "documents.classified"
)

// CatalogEvent announces a fully applied catalog mutation.
type CatalogEvent struct {
	Type        CatalogEventType `json:"type"`
	SessionID   string           `json:"session_id"`
	DocumentIDs []string         `json:"document_ids"`
	OccurredAt  time.Time        `json:"occurred_at"`
}
