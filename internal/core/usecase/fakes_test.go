package usecase

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/kirillkom/document-inbox/internal/core/classify"
	"github.com/kirillkom/document-inbox/internal/core/domain"
	"github.com/kirillkom/document-inbox/internal/core/ports"
	"github.com/kirillkom/document-inbox/internal/core/session"
	"github.com/kirillkom/document-inbox/internal/infrastructure/scheduler"
)

type storeFake struct {
	builder  *SessionBuilder
	sessions map[string]*session.Session
	next     int
}

func newStoreFake(builder *SessionBuilder) *storeFake {
	return &storeFake{builder: builder, sessions: map[string]*session.Session{}}
}

func (s *storeFake) Open(context.Context) (*session.Session, error) {
	s.next++
	id := fmt.Sprintf("s-%d", s.next)
	sess := s.builder.Build(id)
	s.sessions[id] = sess
	return sess, nil
}

func (s *storeFake) Get(_ context.Context, id string) (*session.Session, error) {
	sess, ok := s.sessions[id]
	if !ok {
		return nil, domain.WrapError(domain.ErrSessionNotFound, "get session", fmt.Errorf("id %s", id))
	}
	return sess, nil
}

func (s *storeFake) Close(_ context.Context, id string) error {
	sess, ok := s.sessions[id]
	if !ok {
		return domain.WrapError(domain.ErrSessionNotFound, "close session", fmt.Errorf("id %s", id))
	}
	delete(s.sessions, id)
	sess.Close()
	return nil
}

type publisherFake struct {
	mu     sync.Mutex
	events []domain.CatalogEvent
	err    error
}

func (p *publisherFake) PublishCatalogEvent(_ context.Context, event domain.CatalogEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return p.err
}

type recorderFake struct {
	appended       map[domain.FormatClass]int
	classified     map[domain.Category]int
	batches        []int
	publishFailure []string
}

func newRecorderFake() *recorderFake {
	return &recorderFake{appended: map[domain.FormatClass]int{}, classified: map[domain.Category]int{}}
}

func (r *recorderFake) RecordAppended(class domain.FormatClass)   { r.appended[class]++ }
func (r *recorderFake) RecordClassified(category domain.Category) { r.classified[category]++ }
func (r *recorderFake) RecordClassificationBatch(size int)        { r.batches = append(r.batches, size) }
func (r *recorderFake) RecordPublishFailure(eventType string) {
	r.publishFailure = append(r.publishFailure, eventType)
}

type fixture struct {
	clock     *scheduler.Manual
	store     *storeFake
	publisher *publisherFake
	recorder  *recorderFake
	notifier  *CatalogNotifier
}

func newFixture(category domain.Category) *fixture {
	clock := scheduler.NewManual(time.Date(2026, 4, 1, 12, 0, 0, 0, time.UTC))
	publisher := &publisherFake{}
	recorder := newRecorderFake()
	notifier := NewCatalogNotifier(publisher, recorder, clock, nil)
	picker := ports.CategoryPickerFunc(func() domain.Category { return category })
	builder := NewSessionBuilder(clock, clock, picker, classify.Config{}, domain.ThemeSystem, notifier)
	return &fixture{
		clock:     clock,
		store:     newStoreFake(builder),
		publisher: publisher,
		recorder:  recorder,
		notifier:  notifier,
	}
}
