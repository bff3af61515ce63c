package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/kirillkom/document-inbox/internal/core/catalog"
	"github.com/kirillkom/document-inbox/internal/core/classify"
	"github.com/kirillkom/document-inbox/internal/core/domain"
	"github.com/kirillkom/document-inbox/internal/core/ports"
	"github.com/kirillkom/document-inbox/internal/core/session"
)

// SessionStore owns the live sessions of the process.
type SessionStore interface {
	Open(ctx context.Context) (*session.Session, error)
	Get(ctx context.Context, id string) (*session.Session, error)
	Close(ctx context.Context, id string) error
}

// SessionBuilder assembles a fresh session: its own catalog, its own simulator.
type SessionBuilder struct {
	clock        ports.Clock
	scheduler    ports.TaskScheduler
	picker       ports.CategoryPicker
	classifyCfg  classify.Config
	defaultTheme domain.ThemePreference
	notifier     *CatalogNotifier
}

func NewSessionBuilder(
	clock ports.Clock,
	scheduler ports.TaskScheduler,
	picker ports.CategoryPicker,
	classifyCfg classify.Config,
	defaultTheme domain.ThemePreference,
	notifier *CatalogNotifier,
) *SessionBuilder {
	return &SessionBuilder{
		clock:        clock,
		scheduler:    scheduler,
		picker:       picker,
		classifyCfg:  classifyCfg,
		defaultTheme: defaultTheme,
		notifier:     notifier,
	}
}

func (b *SessionBuilder) Build(id string) *session.Session {
	cat := catalog.New(b.clock)

	var onDone func([]string)
	if b.notifier != nil {
		onDone = func(ids []string) {
			docs := make([]domain.Document, 0, len(ids))
			for _, docID := range ids {
				if doc, err := cat.Get(docID); err == nil {
					docs = append(docs, doc)
				}
			}
			b.notifier.Classified(context.Background(), id, docs)
		}
	}

	sim := classify.NewSimulator(cat, b.scheduler, b.picker, b.classifyCfg, onDone)
	return session.New(id, b.now(), cat, sim, b.defaultTheme)
}

func (b *SessionBuilder) now() time.Time {
	if b.clock == nil {
		return time.Now().UTC()
	}
	return b.clock.Now()
}

type SessionUseCase struct {
	sessions SessionStore
}

func NewSessionUseCase(sessions SessionStore) *SessionUseCase {
	return &SessionUseCase{sessions: sessions}
}

func (uc *SessionUseCase) Open(ctx context.Context) (ports.SessionInfo, error) {
	sess, err := uc.sessions.Open(ctx)
	if err != nil {
		return ports.SessionInfo{}, fmt.Errorf("open session: %w", err)
	}
	return ports.SessionInfo{ID: sess.ID, Theme: sess.Theme()}, nil
}

func (uc *SessionUseCase) Close(ctx context.Context, sessionID string) error {
	if err := uc.sessions.Close(ctx, sessionID); err != nil {
		return fmt.Errorf("close session: %w", err)
	}
	return nil
}

func (uc *SessionUseCase) Theme(ctx context.Context, sessionID string) (domain.ThemePreference, error) {
	sess, err := uc.sessions.Get(ctx, sessionID)
	if err != nil {
		return "", fmt.Errorf("load session: %w", err)
	}
	return sess.Theme(), nil
}

func (uc *SessionUseCase) SetTheme(ctx context.Context, sessionID string, pref domain.ThemePreference) error {
	if _, err := domain.ParseThemePreference(string(pref)); err != nil {
		return err
	}
	sess, err := uc.sessions.Get(ctx, sessionID)
	if err != nil {
		return fmt.Errorf("load session: %w", err)
	}
	sess.SetTheme(pref)
	return nil
}
