package infra

import (
	"context"
	"sync/atomic"
	"testing"
	"time"
)

// fakeClock hands out a channel the test controls, so scheduled reruns
// only happen when the test ticks.
type fakeClock struct {
	now  time.Time
	tick chan time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Unix(1700000000, 0), tick: make(chan time.Time)}
}

func (c *fakeClock) Now() time.Time                         { return c.now }
func (c *fakeClock) After(d time.Duration) <-chan time.Time { return c.tick }

func TestTask_FixedDelayReschedule(t *testing.T) {
	var runs int32
	ran := make(chan struct{}, 16)

	clock := newFakeClock()
	task := NewTask("test", time.Minute, func(ctx context.Context) {
		atomic.AddInt32(&runs, 1)
		ran <- struct{}{}
	}).WithClock(clock)

	task.Start(context.Background())
	defer task.Stop()

	// first run happens immediately
	select {
	case <-ran:
	case <-time.After(time.Second):
		t.Fatal("task did not run immediately")
	}

	// no rerun until the clock ticks
	select {
	case <-ran:
		t.Fatal("task reran without a clock tick")
	case <-time.After(50 * time.Millisecond):
	}

	clock.tick <- clock.now
	select {
	case <-ran:
	case <-time.After(time.Second):
		t.Fatal("task did not rerun after tick")
	}

	if got := atomic.LoadInt32(&runs); got != 2 {
		t.Errorf("expected 2 runs, got %d", got)
	}
}

func TestTask_RunOnce(t *testing.T) {
	ran := make(chan struct{}, 1)
	task := NewTask("once", 0, func(ctx context.Context) {
		ran <- struct{}{}
	})
	task.Start(context.Background())

	select {
	case <-ran:
	case <-time.After(time.Second):
		t.Fatal("one-shot task did not run")
	}
	task.Stop()
}

func TestTask_StopCancels(t *testing.T) {
	clock := newFakeClock()
	started := make(chan struct{}, 4)
	task := NewTask("stop", time.Minute, func(ctx context.Context) {
		started <- struct{}{}
	}).WithClock(clock)

	task.Start(context.Background())
	<-started

	done := make(chan struct{})
	go func() {
		task.Stop()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Stop did not return")
	}
}
