package poll

import (
	"context"
	"sync/atomic"
	"testing"
	"time"
)

func TestImmediateFirstTick(t *testing.T) {
	var runs atomic.Int32
	task := NewTask(time.Hour, func(context.Context) { runs.Add(1) })

	task.Start(context.Background())
	defer task.Stop()

	deadline := time.After(time.Second)
	for runs.Load() == 0 {
		select {
		case <-deadline:
			t.Fatal("first tick did not fire immediately")
		case <-time.After(5 * time.Millisecond):
		}
	}
}

func TestPeriodicTicks(t *testing.T) {
	var runs atomic.Int32
	task := NewTask(20*time.Millisecond, func(context.Context) { runs.Add(1) })

	task.Start(context.Background())
	time.Sleep(110 * time.Millisecond)
	task.Stop()

	if n := runs.Load(); n < 3 {
		t.Errorf("got %d runs in ~100ms at 20ms interval, want >= 3", n)
	}
}

func TestStopHaltsTicks(t *testing.T) {
	var runs atomic.Int32
	task := NewTask(10*time.Millisecond, func(context.Context) { runs.Add(1) })

	task.Start(context.Background())
	time.Sleep(35 * time.Millisecond)
	task.Stop()

	settled := runs.Load()
	time.Sleep(50 * time.Millisecond)
	if runs.Load() != settled {
		t.Errorf("ticks continued after Stop: %d -> %d", settled, runs.Load())
	}
	if task.Running() {
		t.Error("Running() = true after Stop")
	}
}

func TestStopIdempotent(t *testing.T) {
	task := NewTask(time.Hour, func(context.Context) {})
	task.Stop() // before Start
	task.Start(context.Background())
	task.Stop()
	task.Stop() // after Stop
}

func TestStartRestarts(t *testing.T) {
	var runs atomic.Int32
	task := NewTask(time.Hour, func(context.Context) { runs.Add(1) })

	task.Start(context.Background())
	task.Start(context.Background()) // replaces the first loop
	defer task.Stop()

	time.Sleep(50 * time.Millisecond)
	if n := runs.Load(); n != 2 {
		t.Errorf("got %d immediate runs after two Starts, want 2", n)
	}
}

func TestFnContextCancelledOnStop(t *testing.T) {
	gotCancel := make(chan struct{})
	task := NewTask(time.Hour, func(ctx context.Context) {
		go func() {
			<-ctx.Done()
			close(gotCancel)
		}()
	})

	task.Start(context.Background())
	time.Sleep(10 * time.Millisecond)
	task.Stop()

	select {
	case <-gotCancel:
	case <-time.After(time.Second):
		t.Fatal("fn context not cancelled by Stop")
	}
}
