package scheduler

import "time"

// Realtime schedules tasks on the runtime timer. Tasks run on their own goroutine.
type Realtime struct{}

func NewRealtime() *Realtime {
	return &Realtime{}
}

func (Realtime) Now() time.Time {
	return time.Now().UTC()
}

func (Realtime) Schedule(delay time.Duration, task func()) func() bool {
	timer := time.AfterFunc(delay, task)
	return timer.Stop
}
