package ports

import (
	"context"
	"io"
	"time"

	"github.com/kirillkom/document-inbox/internal/core/domain"
)

// Clock supplies upload timestamps.
type Clock interface {
	Now() time.Time
}

// TaskScheduler runs task once after delay. The returned cancel reports whether
// the task was still pending.
type TaskScheduler interface {
	Schedule(delay time.Duration, task func()) (cancel func() bool)
}

// CategoryPicker is the randomness source of the classification simulator.
type CategoryPicker interface {
	Pick() domain.Category
}

// CategoryPickerFunc adapts a plain function to CategoryPicker.
type CategoryPickerFunc func() domain.Category

func (f CategoryPickerFunc) Pick() domain.Category { return f() }

// EventPublisher announces catalog mutations to other processes.
type EventPublisher interface {
	PublishCatalogEvent(ctx context.Context, event domain.CatalogEvent) error
}

// EventSubscriber consumes catalog events until ctx is done.
type EventSubscriber interface {
	SubscribeCatalogEvents(ctx context.Context, handler func(context.Context, domain.CatalogEvent) error) error
}

// ViewExporter renders grouped views to a document format.
type ViewExporter interface {
	ContentType() string
	Export(ctx context.Context, groups []domain.Group, w io.Writer) error
}

// CatalogRecorder receives catalog activity for metrics.
type CatalogRecorder interface {
	RecordAppended(class domain.FormatClass)
	RecordClassified(category domain.Category)
	RecordClassificationBatch(size int)
	RecordPublishFailure(eventType string)
}
