// Package loop provides the single-threaded scheduler that owns all of
// Loom's reactive state and element trees. Nothing in the engine blocks:
// "waiting" is always expressed as a task posted for a later turn or a
// timer, never as goroutine suspension. One goroutine runs the loop; all
// mutation of cells, collections, and rendered trees must happen on it.
package loop

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

// Scheduler is the surface the engine consumes: next-turn tasks and
// cancelable delayed tasks. Loop implements it for production; Manual
// implements it for deterministic tests.
type Scheduler interface {
	// Post queues fn to run on the next turn.
	Post(fn func())

	// After schedules fn to run once d has elapsed. The returned timer
	// cancels the task if stopped before it fires.
	After(d time.Duration, fn func()) *Timer
}

// Timer is a cancelable handle for a delayed task.
type Timer struct {
	cancelled atomic.Bool
	stop      func() bool
}

// Stop cancels the timer. The task will not run even if the underlying
// timer already fired and the task is queued. Stop is idempotent.
func (t *Timer) Stop() {
	if t == nil {
		return
	}
	t.cancelled.Store(true)
	if t.stop != nil {
		t.stop()
	}
}

// Stopped reports whether Stop has been called.
func (t *Timer) Stopped() bool {
	return t == nil || t.cancelled.Load()
}

// Loop is the production scheduler: an unbounded task queue drained by a
// single goroutine in Run. Post is safe to call from any goroutine
// (websocket readers hand events to the loop this way); the queued tasks
// themselves always execute on the loop goroutine.
type Loop struct {
	mu    sync.Mutex
	tasks []func()
	wake  chan struct{}
}

// New creates an idle loop. Call Run to start draining tasks.
func New() *Loop {
	return &Loop{wake: make(chan struct{}, 1)}
}

// Post implements Scheduler.
func (l *Loop) Post(fn func()) {
	if fn == nil {
		return
	}
	l.mu.Lock()
	l.tasks = append(l.tasks, fn)
	l.mu.Unlock()

	select {
	case l.wake <- struct{}{}:
	default:
	}
}

// After implements Scheduler. The task is posted to the loop when the
// delay elapses, so it still executes on the loop goroutine.
func (l *Loop) After(d time.Duration, fn func()) *Timer {
	t := &Timer{}
	sys := time.AfterFunc(d, func() {
		l.Post(func() {
			if !t.cancelled.Load() {
				fn()
			}
		})
	})
	t.stop = sys.Stop
	return t
}

// Run drains tasks until ctx is done. It returns ctx.Err().
func (l *Loop) Run(ctx context.Context) error {
	for {
		for {
			task := l.next()
			if task == nil {
				break
			}
			task()
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-l.wake:
		}
	}
}

func (l *Loop) next() func() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.tasks) == 0 {
		return nil
	}
	task := l.tasks[0]
	l.tasks[0] = nil
	l.tasks = l.tasks[1:]
	return task
}
