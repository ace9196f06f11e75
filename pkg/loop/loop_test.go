package loop

import (
	"context"
	"testing"
	"time"
)

func TestLoopRunsPostedTasksInOrder(t *testing.T) {
	l := New()
	ctx, cancel := context.WithCancel(context.Background())

	var order []int
	for i := 0; i < 3; i++ {
		i := i
		l.Post(func() { order = append(order, i) })
	}
	l.Post(cancel)

	if err := l.Run(ctx); err != context.Canceled {
		t.Fatalf("Run returned %v", err)
	}
	for i, got := range order {
		if got != i {
			t.Fatalf("order = %v", order)
		}
	}
}

func TestLoopTaskMayPostMoreTasks(t *testing.T) {
	l := New()
	ctx, cancel := context.WithCancel(context.Background())

	ran := false
	l.Post(func() {
		l.Post(func() {
			ran = true
			cancel()
		})
	})

	l.Run(ctx)
	if !ran {
		t.Errorf("nested task did not run")
	}
}

func TestLoopAfterFiresOnLoop(t *testing.T) {
	l := New()
	ctx, cancel := context.WithCancel(context.Background())

	fired := false
	l.After(time.Millisecond, func() {
		fired = true
		cancel()
	})

	done := make(chan struct{})
	go func() {
		l.Run(ctx)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("timer never fired")
	}
	if !fired {
		t.Errorf("timer task did not run")
	}
}

func TestLoopStoppedTimerDoesNotFire(t *testing.T) {
	l := New()
	ctx, cancel := context.WithCancel(context.Background())

	fired := false
	timer := l.After(time.Millisecond, func() { fired = true })
	timer.Stop()
	l.After(20*time.Millisecond, cancel)

	l.Run(ctx)
	if fired {
		t.Errorf("stopped timer fired")
	}
}

func TestManualFlush(t *testing.T) {
	m := NewManual()

	var order []int
	m.Post(func() {
		order = append(order, 0)
		m.Post(func() { order = append(order, 1) })
	})

	m.Flush()
	if len(order) != 2 || order[0] != 0 || order[1] != 1 {
		t.Errorf("order = %v", order)
	}
}

func TestManualAdvanceFiresDueTimersInOrder(t *testing.T) {
	m := NewManual()

	var order []string
	m.After(30*time.Millisecond, func() { order = append(order, "b") })
	m.After(10*time.Millisecond, func() { order = append(order, "a") })
	m.After(100*time.Millisecond, func() { order = append(order, "never") })

	m.Advance(50 * time.Millisecond)
	if len(order) != 2 || order[0] != "a" || order[1] != "b" {
		t.Errorf("order = %v", order)
	}
	if m.Now() != 50*time.Millisecond {
		t.Errorf("Now = %v", m.Now())
	}

	m.Advance(50 * time.Millisecond)
	if len(order) != 3 {
		t.Errorf("late timer did not fire, order = %v", order)
	}
}

func TestManualStoppedTimerSkipped(t *testing.T) {
	m := NewManual()

	fired := false
	timer := m.After(time.Millisecond, func() { fired = true })
	timer.Stop()

	m.Advance(time.Second)
	if fired {
		t.Errorf("stopped timer fired")
	}
}

func TestManualRescheduleCoalesces(t *testing.T) {
	m := NewManual()

	runs := 0
	var timer *Timer
	schedule := func() {
		if timer != nil {
			timer.Stop()
		}
		timer = m.After(10*time.Millisecond, func() { runs++ })
	}

	// Burst of reschedules within the interval: exactly one firing.
	schedule()
	m.Advance(3 * time.Millisecond)
	schedule()
	m.Advance(3 * time.Millisecond)
	schedule()

	m.Advance(time.Second)
	if runs != 1 {
		t.Errorf("expected 1 run, got %d", runs)
	}
}
