package scheduler

import (
	"slices"
	"sync"
	"time"
)

// Manual is a logical clock. Scheduled tasks fire synchronously, in fire-time order,
// from Advance or RunDue on the caller's goroutine.
type Manual struct {
	mu    sync.Mutex
	now   time.Time
	seq   uint64
	tasks []*manualTask
}

type manualTask struct {
	seq    uint64
	fireAt time.Time
	run    func()
}

func NewManual(start time.Time) *Manual {
	return &Manual{now: start}
}

func (m *Manual) Now() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now
}

func (m *Manual) Schedule(delay time.Duration, task func()) func() bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	t := &manualTask{seq: m.seq, fireAt: m.now.Add(delay), run: task}
	m.seq++
	m.tasks = append(m.tasks, t)

	return func() bool {
		m.mu.Lock()
		defer m.mu.Unlock()
		for i, pending := range m.tasks {
			if pending == t {
				m.tasks = slices.Delete(m.tasks, i, i+1)
				return true
			}
		}
		return false
	}
}

// Advance moves the clock forward by d and fires every task that became due.
func (m *Manual) Advance(d time.Duration) int {
	m.mu.Lock()
	m.now = m.now.Add(d)
	m.mu.Unlock()
	return m.RunDue()
}

// RunDue fires the tasks due at the current time and returns how many ran.
// Tasks scheduled by a firing task run in the same call when they are already due.
func (m *Manual) RunDue() int {
	fired := 0
	for {
		task := m.popDue()
		if task == nil {
			return fired
		}
		task.run()
		fired++
	}
}

// Pending reports the number of tasks not fired or cancelled.
func (m *Manual) Pending() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.tasks)
}

func (m *Manual) popDue() *manualTask {
	m.mu.Lock()
	defer m.mu.Unlock()

	best := -1
	for i, t := range m.tasks {
		if t.fireAt.After(m.now) {
			continue
		}
		if best < 0 || t.fireAt.Before(m.tasks[best].fireAt) ||
			(t.fireAt.Equal(m.tasks[best].fireAt) && t.seq < m.tasks[best].seq) {
			best = i
		}
	}
	if best < 0 {
		return nil
	}
	task := m.tasks[best]
	m.tasks = slices.Delete(m.tasks, best, best+1)
	return task
}
