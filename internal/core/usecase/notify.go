package usecase

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/kirillkom/document-inbox/internal/core/domain"
	"github.com/kirillkom/document-inbox/internal/core/ports"
)

// PublishTimeout bounds one catalog event publish, retries included.
const PublishTimeout = 5 * time.Second

// CatalogNotifier turns fully applied catalog mutations into events and metrics.
// Publishing is best effort: failures are logged and counted, never returned.
type CatalogNotifier struct {
	publisher ports.EventPublisher
	recorder  ports.CatalogRecorder
	clock     ports.Clock
	logger    *zap.Logger
}

func NewCatalogNotifier(
	publisher ports.EventPublisher,
	recorder ports.CatalogRecorder,
	clock ports.Clock,
	logger *zap.Logger,
) *CatalogNotifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CatalogNotifier{
		publisher: publisher,
		recorder:  recorder,
		clock:     clock,
		logger:    logger,
	}
}

func (n *CatalogNotifier) Appended(ctx context.Context, sessionID string, docs []domain.Document) {
	ids := make([]string, 0, len(docs))
	for _, doc := range docs {
		ids = append(ids, doc.ID)
		if n.recorder != nil {
			n.recorder.RecordAppended(doc.FormatClass)
		}
	}
	n.logger.Info("documents_appended",
		zap.String("session_id", sessionID),
		zap.Int("count", len(ids)),
	)
	n.publish(ctx, domain.CatalogEvent{
		Type:        domain.EventDocumentsAppended,
		SessionID:   sessionID,
		DocumentIDs: ids,
	})
}

func (n *CatalogNotifier) Classified(ctx context.Context, sessionID string, docs []domain.Document) {
	ids := make([]string, 0, len(docs))
	for _, doc := range docs {
		ids = append(ids, doc.ID)
		if n.recorder != nil {
			n.recorder.RecordClassified(doc.Category)
		}
	}
	if n.recorder != nil {
		n.recorder.RecordClassificationBatch(len(ids))
	}
	n.logger.Info("documents_classified",
		zap.String("session_id", sessionID),
		zap.Int("count", len(ids)),
	)
	n.publish(ctx, domain.CatalogEvent{
		Type:        domain.EventDocumentsClassified,
		SessionID:   sessionID,
		DocumentIDs: ids,
	})
}

func (n *CatalogNotifier) publish(ctx context.Context, event domain.CatalogEvent) {
	if n.publisher == nil {
		return
	}
	event.OccurredAt = n.now()

	publishCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), PublishTimeout)
	defer cancel()
	if err := n.publisher.PublishCatalogEvent(publishCtx, event); err != nil {
		if n.recorder != nil {
			n.recorder.RecordPublishFailure(string(event.Type))
		}
		n.logger.Warn("catalog_event_publish_failed",
			zap.String("session_id", event.SessionID),
			zap.String("event_type", string(event.Type)),
			zap.Error(err),
		)
	}
}

func (n *CatalogNotifier) now() time.Time {
	if n.clock == nil {
		return time.Now().UTC()
	}
	return n.clock.Now()
}
