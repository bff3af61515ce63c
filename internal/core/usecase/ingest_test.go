package usecase

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kirillkom/document-inbox/internal/core/classify"
	"github.com/kirillkom/document-inbox/internal/core/domain"
)

func TestAppendReturnsAnalyzingDocumentsAndSchedulesClassification(t *testing.T) {
	f := newFixture(domain.CategoryInvoice)
	sess, err := f.store.Open(context.Background())
	require.NoError(t, err)
	uc := NewIngestUseCase(f.store, f.notifier, 0)

	docs, err := uc.Append(context.Background(), sess.ID, []domain.FileDescriptor{
		{Name: "invoice1.pdf", SizeBytes: 1000},
		{Name: "notes.docx", SizeBytes: 2000},
	})
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, 2, sess.Catalog.CountAnalyzing())
	assert.Equal(t, 1, f.clock.Pending())

	f.clock.Advance(classify.DefaultDelay)

	assert.Zero(t, sess.Catalog.CountAnalyzing())
	require.Len(t, f.publisher.events, 2)
	assert.Equal(t, domain.EventDocumentsAppended, f.publisher.events[0].Type)
	assert.Equal(t, domain.EventDocumentsClassified, f.publisher.events[1].Type)
	assert.Equal(t, []string{docs[0].ID, docs[1].ID}, f.publisher.events[1].DocumentIDs)
	assert.Equal(t, map[domain.FormatClass]int{domain.FormatPDF: 1, domain.FormatWord: 1}, f.recorder.appended)
	assert.Equal(t, map[domain.Category]int{domain.CategoryInvoice: 2}, f.recorder.classified)
	assert.Equal(t, []int{2}, f.recorder.batches)
}

func TestAppendRejectsEmptyAndOversizedBatches(t *testing.T) {
	f := newFixture(domain.CategoryOther)
	sess, err := f.store.Open(context.Background())
	require.NoError(t, err)
	uc := NewIngestUseCase(f.store, f.notifier, 2)

	_, err = uc.Append(context.Background(), sess.ID, nil)
	assert.True(t, domain.IsKind(err, domain.ErrInvalidInput))

	_, err = uc.Append(context.Background(), sess.ID, []domain.FileDescriptor{{Name: "a"}, {Name: "b"}, {Name: "c"}})
	assert.True(t, domain.IsKind(err, domain.ErrInvalidInput))

	assert.Zero(t, sess.Catalog.Len())
	assert.Zero(t, f.clock.Pending())
	assert.Empty(t, f.publisher.events)
}

func TestAppendUnknownSession(t *testing.T) {
	f := newFixture(domain.CategoryOther)
	uc := NewIngestUseCase(f.store, f.notifier, 0)

	_, err := uc.Append(context.Background(), "missing", []domain.FileDescriptor{{Name: "a.pdf"}})

	assert.True(t, domain.IsKind(err, domain.ErrSessionNotFound))
}

func TestPublishFailureIsCountedNotReturned(t *testing.T) {
	f := newFixture(domain.CategoryOther)
	f.publisher.err = domain.ErrTemporary
	sess, err := f.store.Open(context.Background())
	require.NoError(t, err)
	uc := NewIngestUseCase(f.store, f.notifier, 0)

	_, err = uc.Append(context.Background(), sess.ID, []domain.FileDescriptor{{Name: "a.pdf"}})

	require.NoError(t, err)
	assert.Equal(t, []string{string(domain.EventDocumentsAppended)}, f.recorder.publishFailure)
}
