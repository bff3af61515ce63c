package session

import (
	"sync"
	"time"

	"github.com/kirillkom/document-inbox/internal/core/catalog"
	"github.com/kirillkom/document-inbox/internal/core/classify"
	"github.com/kirillkom/document-inbox/internal/core/domain"
)

// Session owns the catalog, the classification simulator and the display preference of one
// inbox page. Nothing is shared across sessions.
type Session struct {
	ID        string
	CreatedAt time.Time
	Catalog   *catalog.Catalog
	Simulator *classify.Simulator

	mu       sync.Mutex
	theme    domain.ThemePreference
	lastSeen time.Time
	closed   bool
}

func New(id string, createdAt time.Time, cat *catalog.Catalog, sim *classify.Simulator, theme domain.ThemePreference) *Session {
	if theme == "" {
		theme = domain.ThemeSystem
	}
	return &Session{
		ID:        id,
		CreatedAt: createdAt,
		Catalog:   cat,
		Simulator: sim,
		theme:     theme,
		lastSeen:  createdAt,
	}
}

func (s *Session) Theme() domain.ThemePreference {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.theme
}

// SetTheme is the only way the preference changes after the session opens.
func (s *Session) SetTheme(pref domain.ThemePreference) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.theme = pref
}

func (s *Session) Touch(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if now.After(s.lastSeen) {
		s.lastSeen = now
	}
}

func (s *Session) LastSeen() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSeen
}

// Close discards pending classification passes. Safe to call more than once.
func (s *Session) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.mu.Unlock()

	if s.Simulator != nil {
		s.Simulator.Close()
	}
}
