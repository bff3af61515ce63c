package usecase

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/kirillkom/document-inbox/internal/core/domain"
)

// SessionActivity is the event-sourced view of one session as seen by the worker.
type SessionActivity struct {
	Appended   int
	Classified int
}

// Analyzing is the number of appended documents not yet reported as classified.
func (a SessionActivity) Analyzing() int {
	return max(a.Appended-a.Classified, 0)
}

// ActivityUseCase folds catalog events into per-session counters.
type ActivityUseCase struct {
	logger *zap.Logger

	mu       sync.Mutex
	sessions map[string]SessionActivity
}

func NewActivityUseCase(logger *zap.Logger) *ActivityUseCase {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ActivityUseCase{
		logger:   logger,
		sessions: make(map[string]SessionActivity),
	}
}

func (uc *ActivityUseCase) Handle(_ context.Context, event domain.CatalogEvent) error {
	if event.SessionID == "" {
		return domain.WrapError(domain.ErrInvalidInput, "handle catalog event", fmt.Errorf("event %q without session id", event.Type))
	}

	uc.mu.Lock()
	activity := uc.sessions[event.SessionID]
	switch event.Type {
	case domain.EventDocumentsAppended:
		activity.Appended += len(event.DocumentIDs)
	case domain.EventDocumentsClassified:
		activity.Classified += len(event.DocumentIDs)
	default:
		uc.mu.Unlock()
		return domain.WrapError(domain.ErrInvalidInput, "handle catalog event", fmt.Errorf("unknown event type %q", event.Type))
	}
	uc.sessions[event.SessionID] = activity
	uc.mu.Unlock()

	uc.logger.Info("catalog_event",
		zap.String("event_type", string(event.Type)),
		zap.String("session_id", event.SessionID),
		zap.Int("documents", len(event.DocumentIDs)),
		zap.Int("session_analyzing", activity.Analyzing()),
	)
	return nil
}

func (uc *ActivityUseCase) Activity(sessionID string) (SessionActivity, bool) {
	uc.mu.Lock()
	defer uc.mu.Unlock()
	activity, ok := uc.sessions[sessionID]
	return activity, ok
}
