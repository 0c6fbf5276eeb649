// Package clock abstracts wall time and delayed callbacks so the tour sequencer can
// be driven by a real event loop in production and stepped deterministically in tests.
package clock

import (
	"sort"
	"sync"
	"time"
)

// Timer is a pending callback that can be cancelled.
type Timer interface {
	// Stop cancels the callback. It returns false if the callback already fired
	// or was already stopped.
	Stop() bool
}

// Clock provides the current time and delayed callbacks.
type Clock interface {
	Now() time.Time
	AfterFunc(d time.Duration, f func()) Timer
}

// Real is the system clock. Callbacks run on their own goroutine.
type Real struct{}

// Now returns time.Now().
func (Real) Now() time.Time { return time.Now() }

// AfterFunc wraps time.AfterFunc.
func (Real) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// Loop is a clock whose callbacks are delivered through post, typically the
// enqueue function of a single-goroutine run loop. This keeps every callback on
// the goroutine that owns the state it touches.
type Loop struct {
	post func(func())
}

// NewLoop creates a loop clock that hands fired callbacks to post.
func NewLoop(post func(func())) *Loop {
	return &Loop{post: post}
}

// Now returns time.Now().
func (l *Loop) Now() time.Time { return time.Now() }

// AfterFunc schedules f to be posted to the loop after d.
func (l *Loop) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, func() { l.post(f) })
}

// Manual is a test clock. Time only moves when Advance or Set is called, and due
// callbacks run synchronously on the caller's goroutine in deadline order.
type Manual struct {
	mu     sync.Mutex
	now    time.Time
	seq    uint64
	timers []*manualTimer
}

type manualTimer struct {
	clock    *Manual
	deadline time.Time
	seq      uint64
	fn       func()
	done     bool
}

// NewManual creates a manual clock starting at start.
func NewManual(start time.Time) *Manual {
	return &Manual{now: start}
}

// Now returns the clock's current time.
func (m *Manual) Now() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now
}

// AfterFunc registers f to run once the clock has advanced by d.
func (m *Manual) AfterFunc(d time.Duration, f func()) Timer {
	m.mu.Lock()
	defer m.mu.Unlock()
	if d < 0 {
		d = 0
	}
	m.seq++
	t := &manualTimer{clock: m, deadline: m.now.Add(d), seq: m.seq, fn: f}
	m.timers = append(m.timers, t)
	return t
}

// Stop cancels the timer.
func (t *manualTimer) Stop() bool {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()
	if t.done {
		return false
	}
	t.done = true
	return true
}

// Advance moves time forward by d, firing every timer that becomes due, including
// timers scheduled by callbacks as long as they fall inside the window.
func (m *Manual) Advance(d time.Duration) {
	m.mu.Lock()
	target := m.now.Add(d)
	m.mu.Unlock()
	m.runUntil(target)
}

// Set moves the clock to t (never backwards).
func (m *Manual) Set(t time.Time) {
	m.runUntil(t)
}

// Pending returns the number of timers that have not fired or been stopped.
func (m *Manual) Pending() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, t := range m.timers {
		if !t.done {
			n++
		}
	}
	return n
}

func (m *Manual) runUntil(target time.Time) {
	for {
		m.mu.Lock()
		next := m.nextDue(target)
		if next == nil {
			if target.After(m.now) {
				m.now = target
			}
			m.compact()
			m.mu.Unlock()
			return
		}
		next.done = true
		if next.deadline.After(m.now) {
			m.now = next.deadline
		}
		fn := next.fn
		m.mu.Unlock()

		fn()
	}
}

// nextDue returns the earliest live timer due at or before target. Caller holds mu.
func (m *Manual) nextDue(target time.Time) *manualTimer {
	var live []*manualTimer
	for _, t := range m.timers {
		if !t.done && !t.deadline.After(target) {
			live = append(live, t)
		}
	}
	if len(live) == 0 {
		return nil
	}
	sort.Slice(live, func(i, j int) bool {
		if live[i].deadline.Equal(live[j].deadline) {
			return live[i].seq < live[j].seq
		}
		return live[i].deadline.Before(live[j].deadline)
	})
	return live[0]
}

func (m *Manual) compact() {
	kept := m.timers[:0]
	for _, t := range m.timers {
		if !t.done {
			kept = append(kept, t)
		}
	}
	m.timers = kept
}
