package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kirillkom/document-inbox/internal/core/domain"
	"github.com/kirillkom/document-inbox/internal/core/ports"
	coresession "github.com/kirillkom/document-inbox/internal/core/session"
)

type Options struct {
	IdleTTL       time.Duration
	MaxSessions   int
	SweepInterval time.Duration
}

func (o Options) normalize() Options {
	out := o
	if out.IdleTTL <= 0 {
		out.IdleTTL = 30 * time.Minute
	}
	if out.MaxSessions <= 0 {
		out.MaxSessions = 1000
	}
	if out.SweepInterval <= 0 {
		out.SweepInterval = time.Minute
	}
	return out
}

// MemoryStore keeps live sessions in process memory. Sessions idle for longer than
// IdleTTL are closed by Sweep, which discards their pending classification passes.
type MemoryStore struct {
	build  func(id string) *coresession.Session
	clock  ports.Clock
	opts   Options
	logger *zap.Logger

	mu       sync.RWMutex
	sessions map[string]*coresession.Session
}

func NewMemoryStore(
	build func(id string) *coresession.Session,
	clock ports.Clock,
	opts Options,
	logger *zap.Logger,
) *MemoryStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MemoryStore{
		build:    build,
		clock:    clock,
		opts:     opts.normalize(),
		logger:   logger,
		sessions: make(map[string]*coresession.Session),
	}
}

func (s *MemoryStore) Open(_ context.Context) (*coresession.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.sessions) >= s.opts.MaxSessions {
		return nil, domain.WrapError(
			domain.ErrTemporary,
			"open session",
			fmt.Errorf("session limit %d reached", s.opts.MaxSessions),
		)
	}

	id := uuid.NewString()
	sess := s.build(id)
	s.sessions[id] = sess
	s.logger.Info("session_opened", zap.String("session_id", id))
	return sess, nil
}

func (s *MemoryStore) Get(_ context.Context, id string) (*coresession.Session, error) {
	s.mu.RLock()
	sess, ok := s.sessions[id]
	s.mu.RUnlock()
	if !ok {
		return nil, domain.WrapError(domain.ErrSessionNotFound, "get session", fmt.Errorf("id %s", id))
	}
	sess.Touch(s.clock.Now())
	return sess, nil
}

func (s *MemoryStore) Close(_ context.Context, id string) error {
	s.mu.Lock()
	sess, ok := s.sessions[id]
	delete(s.sessions, id)
	s.mu.Unlock()

	if !ok {
		return domain.WrapError(domain.ErrSessionNotFound, "close session", fmt.Errorf("id %s", id))
	}
	sess.Close()
	s.logger.Info("session_closed", zap.String("session_id", id), zap.String("reason", "client"))
	return nil
}

func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// Sweep closes sessions idle since before now-IdleTTL and returns how many it closed.
func (s *MemoryStore) Sweep(now time.Time) int {
	cutoff := now.Add(-s.opts.IdleTTL)

	var expired []*coresession.Session
	s.mu.Lock()
	for id, sess := range s.sessions {
		if sess.LastSeen().Before(cutoff) {
			expired = append(expired, sess)
			delete(s.sessions, id)
		}
	}
	s.mu.Unlock()

	for _, sess := range expired {
		sess.Close()
		s.logger.Info("session_closed", zap.String("session_id", sess.ID), zap.String("reason", "idle"))
	}
	return len(expired)
}

// Run sweeps on a ticker until ctx is done, then closes every remaining session.
func (s *MemoryStore) Run(ctx context.Context) {
	ticker := time.NewTicker(s.opts.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.closeAll()
			return
		case <-ticker.C:
			s.Sweep(s.clock.Now())
		}
	}
}

func (s *MemoryStore) closeAll() {
	s.mu.Lock()
	all := s.sessions
	s.sessions = make(map[string]*coresession.Session)
	s.mu.Unlock()

	for _, sess := range all {
		sess.Close()
	}
}
