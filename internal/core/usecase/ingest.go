package usecase

import (
	"context"
	"errors"
	"fmt"

	"github.com/kirillkom/document-inbox/internal/core/domain"
)

// DefaultMaxBatchFiles bounds a single drop.
const DefaultMaxBatchFiles = 100

type IngestUseCase struct {
	sessions SessionStore
	notifier *CatalogNotifier
	maxBatch int
}

func NewIngestUseCase(sessions SessionStore, notifier *CatalogNotifier, maxBatch int) *IngestUseCase {
	if maxBatch <= 0 {
		maxBatch = DefaultMaxBatchFiles
	}
	return &IngestUseCase{
		sessions: sessions,
		notifier: notifier,
		maxBatch: maxBatch,
	}
}

// Append adds the batch to the session catalog in status analyzing and schedules its
// classification. It returns as soon as the batch is visible; classification runs later.
func (uc *IngestUseCase) Append(
	ctx context.Context,
	sessionID string,
	files []domain.FileDescriptor,
) ([]domain.Document, error) {
	if len(files) == 0 {
		return nil, domain.WrapError(domain.ErrInvalidInput, "append batch", errors.New("at least one file is required"))
	}
	if len(files) > uc.maxBatch {
		return nil, domain.WrapError(
			domain.ErrInvalidInput,
			"append batch",
			fmt.Errorf("batch of %d files exceeds limit %d", len(files), uc.maxBatch),
		)
	}

	sess, err := uc.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}

	docs, err := sess.Catalog.Append(files)
	if err != nil {
		return nil, fmt.Errorf("append to catalog: %w", err)
	}

	ids := make([]string, 0, len(docs))
	for _, doc := range docs {
		ids = append(ids, doc.ID)
	}
	sess.Simulator.Classify(ids)

	if uc.notifier != nil {
		uc.notifier.Appended(ctx, sessionID, docs)
	}
	return docs, nil
}
