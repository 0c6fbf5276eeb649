package tour

import (
	"time"

	"github.com/teslashibe/go-museum/pkg/clock"
)

// Scheduler owns the delayed callbacks of one transition at a time. Replace
// atomically invalidates everything the previous owner scheduled and hands out a
// new Task. A callback whose timer already fired but has not run yet (it is
// queued on the session loop) is still dropped, because it checks the generation
// before running.
type Scheduler struct {
	clock   clock.Clock
	gen     uint64
	nextID  uint64
	pending map[uint64]clock.Timer
}

// Task schedules callbacks on behalf of one transition.
type Task struct {
	s   *Scheduler
	gen uint64
}

// NewScheduler creates a scheduler on clk.
func NewScheduler(clk clock.Clock) *Scheduler {
	return &Scheduler{clock: clk, pending: make(map[uint64]clock.Timer)}
}

// Replace cancels every pending callback and returns a fresh task.
func (s *Scheduler) Replace() *Task {
	s.Cancel()
	return &Task{s: s, gen: s.gen}
}

// Cancel stops every pending callback without starting a new owner.
func (s *Scheduler) Cancel() {
	s.gen++
	for id, t := range s.pending {
		t.Stop()
		delete(s.pending, id)
	}
}

// Pending returns the number of callbacks that may still run.
func (s *Scheduler) Pending() int {
	return len(s.pending)
}

// Generation returns the current owner generation.
func (s *Scheduler) Generation() uint64 {
	return s.gen
}

// Live reports whether the task still owns the scheduler.
func (t *Task) Live() bool {
	return t.s.gen == t.gen
}

// After runs fn after d unless the task has been superseded by then. It returns
// false if the task is already stale.
func (t *Task) After(d time.Duration, fn func()) bool {
	if !t.Live() {
		return false
	}
	s := t.s
	s.nextID++
	id := s.nextID
	s.pending[id] = s.clock.AfterFunc(d, func() {
		if !t.Live() {
			return
		}
		delete(s.pending, id)
		fn()
	})
	return true
}
