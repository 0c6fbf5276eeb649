package tour

import (
	"testing"
	"time"

	"github.com/teslashibe/go-museum/pkg/clock"
)

func TestSchedulerReplaceCancelsPrevious(t *testing.T) {
	clk := clock.NewManual(time.Unix(0, 0))
	s := NewScheduler(clk)

	var fired []string
	first := s.Replace()
	first.After(100*time.Millisecond, func() { fired = append(fired, "a1") })
	first.After(200*time.Millisecond, func() { fired = append(fired, "a2") })
	if s.Pending() != 2 {
		t.Fatalf("Pending = %d, want 2", s.Pending())
	}

	clk.Advance(150 * time.Millisecond)
	second := s.Replace()
	second.After(100*time.Millisecond, func() { fired = append(fired, "b1") })

	if first.Live() {
		t.Error("first task should be stale")
	}
	if first.After(time.Millisecond, func() { fired = append(fired, "late") }) {
		t.Error("stale task must not schedule")
	}

	clk.Advance(time.Second)
	want := []string{"a1", "b1"}
	if len(fired) != len(want) {
		t.Fatalf("fired = %v, want %v", fired, want)
	}
	for i := range want {
		if fired[i] != want[i] {
			t.Fatalf("fired = %v, want %v", fired, want)
		}
	}
	if s.Pending() != 0 {
		t.Errorf("Pending = %d after all fired", s.Pending())
	}
}

// A callback already handed to the loop (timer fired, not yet run) must still
// be dropped if a newer transition started in between.
func TestSchedulerDropsQueuedCallback(t *testing.T) {
	var queue []func()
	loop := clock.NewLoop(func(f func()) { queue = append(queue, f) })
	s := NewScheduler(&queuedClock{Loop: loop, queue: &queue})

	ran := false
	task := s.Replace()
	task.After(0, func() { ran = true })

	s.Replace()
	for _, f := range queue {
		f()
	}
	if ran {
		t.Error("superseded callback ran")
	}
}

// queuedClock posts immediately instead of waiting on a real timer.
type queuedClock struct {
	*clock.Loop
	queue *[]func()
}

type noopTimer struct{}

func (noopTimer) Stop() bool { return false }

func (c *queuedClock) AfterFunc(_ time.Duration, f func()) clock.Timer {
	*c.queue = append(*c.queue, f)
	return noopTimer{}
}
