package poll

import (
	"context"
	"sync"
	"time"
)

// Task runs a function at a fixed interval on its own goroutine. The first
// run happens immediately on Start; Stop cancels the loop and is idempotent.
// A new Start after Stop begins a fresh loop, so restarting on partner
// change is Stop followed by Start.
type Task struct {
	interval time.Duration
	fn       func(ctx context.Context)

	mu     sync.Mutex
	cancel context.CancelFunc
}

// NewTask creates a task that invokes fn every interval.
func NewTask(interval time.Duration, fn func(ctx context.Context)) *Task {
	return &Task{interval: interval, fn: fn}
}

// Start begins the polling loop. If the task is already running the old
// loop is cancelled first, so Start doubles as a restart.
func (t *Task) Start(ctx context.Context) {
	t.mu.Lock()
	if t.cancel != nil {
		t.cancel()
	}
	ctx, t.cancel = context.WithCancel(ctx)
	t.mu.Unlock()

	go t.loop(ctx)
}

// Stop cancels the loop. Safe to call repeatedly or before Start. An
// in-flight fn invocation is not interrupted beyond its context; callers
// guard their own state with liveness checks.
func (t *Task) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.cancel != nil {
		t.cancel()
		t.cancel = nil
	}
}

// Running reports whether the loop is active.
func (t *Task) Running() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.cancel != nil
}

func (t *Task) loop(ctx context.Context) {
	t.fn(ctx)

	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			t.fn(ctx)
		case <-ctx.Done():
			return
		}
	}
}
