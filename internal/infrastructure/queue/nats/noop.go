package nats

import (
	"context"

	"github.com/kirillkom/document-inbox/internal/core/domain"
)

// Discard drops every event. Used when no NATS URL is configured.
type Discard struct{}

func (Discard) PublishCatalogEvent(context.Context, domain.CatalogEvent) error { return nil }
