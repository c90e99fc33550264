package infra

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Clock abstracts time for the schedulers so tests can drive periodic
// work without real delays.
type Clock interface {
	Now() time.Time
	After(d time.Duration) <-chan time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time                         { return time.Now() }
func (systemClock) After(d time.Duration) <-chan time.Time { return time.After(d) }

// SystemClock returns the wall clock.
func SystemClock() Clock { return systemClock{} }

// Task runs a function immediately and then again after every fixed
// delay until stopped. The delay is unconditional: a failing run is the
// run's problem to log, the schedule never changes and never gives up.
type Task struct {
	name  string
	delay time.Duration
	run   func(ctx context.Context)
	clock Clock

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewTask creates a fixed-delay periodic task.
func NewTask(name string, delay time.Duration, run func(ctx context.Context)) *Task {
	return &Task{
		name:  name,
		delay: delay,
		run:   run,
		clock: systemClock{},
	}
}

// WithClock swaps the clock, for tests.
func (t *Task) WithClock(c Clock) *Task {
	t.clock = c
	return t
}

// Start launches the task loop. A delay of zero or less runs the
// function once and stops rescheduling.
func (t *Task) Start(ctx context.Context) {
	ctx, t.cancel = context.WithCancel(ctx)
	t.wg.Add(1)

	go func() {
		defer t.wg.Done()
		for {
			select {
			case <-ctx.Done():
				return
			default:
			}

			t.run(ctx)

			if t.delay <= 0 {
				slog.Debug("task ran once", "task", t.name)
				return
			}

			select {
			case <-ctx.Done():
				slog.Debug("task stopped", "task", t.name)
				return
			case <-t.clock.After(t.delay):
			}
		}
	}()
}

// Stop cancels the task and waits for the current run to finish.
func (t *Task) Stop() {
	if t.cancel != nil {
		t.cancel()
	}
	t.wg.Wait()
}
