package classify

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/kirillkom/document-inbox/internal/core/catalog"
	"github.com/kirillkom/document-inbox/internal/core/ports"
)

// DefaultDelay is the simulated analysis time of a batch.
const DefaultDelay = 2000 * time.Millisecond

// Scope selects which documents a fired classification task transitions.
type Scope string

const (
	// ScopeCatalog classifies every document still analyzing when the task fires,
	// so batches appended within one delay window complete together.
	ScopeCatalog Scope = "catalog"
	// ScopeBatch classifies only the batch that scheduled the task.
	ScopeBatch Scope = "batch"
)

func ParseScope(raw string) (Scope, error) {
	switch scope := Scope(strings.ToLower(strings.TrimSpace(raw))); scope {
	case "", ScopeCatalog:
		return ScopeCatalog, nil
	case ScopeBatch:
		return ScopeBatch, nil
	default:
		return "", fmt.Errorf("unknown classification scope %q", raw)
	}
}

type Config struct {
	Delay time.Duration
	Scope Scope
}

// Simulator emulates an asynchronous classification backend over one catalog.
type Simulator struct {
	catalog   *catalog.Catalog
	scheduler ports.TaskScheduler
	picker    ports.CategoryPicker
	delay     time.Duration
	scope     Scope
	onDone    func(classified []string)

	mu      sync.Mutex
	nextKey uint64
	pending map[uint64]func() bool
	closed  bool
}

func NewSimulator(
	cat *catalog.Catalog,
	scheduler ports.TaskScheduler,
	picker ports.CategoryPicker,
	cfg Config,
	onDone func(classified []string),
) *Simulator {
	delay := cfg.Delay
	if delay <= 0 {
		delay = DefaultDelay
	}
	scope := cfg.Scope
	if scope == "" {
		scope = ScopeCatalog
	}
	return &Simulator{
		catalog:   cat,
		scheduler: scheduler,
		picker:    picker,
		delay:     delay,
		scope:     scope,
		onDone:    onDone,
		pending:   make(map[uint64]func() bool),
	}
}

// Classify schedules one delayed classification pass for a freshly appended batch.
// It never blocks and is a no-op once the simulator is closed.
func (s *Simulator) Classify(batchIDs []string) {
	if len(batchIDs) == 0 {
		return
	}
	ids := append([]string(nil), batchIDs...)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}

	key := s.nextKey
	s.nextKey++
	s.pending[key] = s.scheduler.Schedule(s.delay, func() {
		s.fire(key, ids)
	})
}

func (s *Simulator) fire(key uint64, batchIDs []string) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	delete(s.pending, key)
	s.mu.Unlock()

	var only []string
	if s.scope == ScopeBatch {
		only = batchIDs
	}
	// Close may land while categories are drawn; the pass commits only if it has not.
	changed := s.catalog.ClassifyPending(s.picker, only, s.open)
	if len(changed) > 0 && s.onDone != nil && s.open() {
		s.onDone(changed)
	}
}

func (s *Simulator) open() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return !s.closed
}

// Pending reports the number of scheduled passes that have not fired yet.
func (s *Simulator) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending)
}

// Close discards every pending pass, including one drawing categories right now.
// Documents stay in analyzing.
func (s *Simulator) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	for key, cancel := range s.pending {
		cancel()
		delete(s.pending, key)
	}
}
