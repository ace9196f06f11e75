package loop

import (
	"sort"
	"time"
)

// Manual is a scheduler with a virtual clock for tests. Tasks and timers
// only run when the test calls Flush or Advance, making turn ordering
// and debounce behavior fully deterministic.
type Manual struct {
	now    time.Duration
	tasks  []func()
	timers []*manualTimer
	seq    uint64
}

type manualTimer struct {
	deadline time.Duration
	seq      uint64
	fn       func()
	handle   *Timer
}

// NewManual creates a manual scheduler with the clock at zero.
func NewManual() *Manual {
	return &Manual{}
}

// Post implements Scheduler.
func (m *Manual) Post(fn func()) {
	if fn != nil {
		m.tasks = append(m.tasks, fn)
	}
}

// After implements Scheduler.
func (m *Manual) After(d time.Duration, fn func()) *Timer {
	handle := &Timer{}
	m.seq++
	m.timers = append(m.timers, &manualTimer{
		deadline: m.now + d,
		seq:      m.seq,
		fn:       fn,
		handle:   handle,
	})
	return handle
}

// Now returns the virtual clock.
func (m *Manual) Now() time.Duration {
	return m.now
}

// Flush runs queued tasks until the queue is empty, including tasks
// posted by tasks already running. Timers do not fire; use Advance.
func (m *Manual) Flush() {
	for len(m.tasks) > 0 {
		task := m.tasks[0]
		m.tasks = m.tasks[1:]
		task()
	}
}

// Advance moves the virtual clock forward by d, firing due timers in
// deadline order and flushing the task queue between firings.
func (m *Manual) Advance(d time.Duration) {
	target := m.now + d
	for {
		m.Flush()

		next := m.nextDue(target)
		if next == nil {
			break
		}
		m.now = next.deadline
		if !next.handle.Stopped() {
			next.fn()
		}
	}
	m.now = target
	m.Flush()
}

// nextDue removes and returns the earliest timer with deadline <= target,
// breaking ties by creation order.
func (m *Manual) nextDue(target time.Duration) *manualTimer {
	m.prune()
	if len(m.timers) == 0 {
		return nil
	}
	sort.SliceStable(m.timers, func(i, j int) bool {
		if m.timers[i].deadline != m.timers[j].deadline {
			return m.timers[i].deadline < m.timers[j].deadline
		}
		return m.timers[i].seq < m.timers[j].seq
	})
	if m.timers[0].deadline > target {
		return nil
	}
	next := m.timers[0]
	m.timers = m.timers[1:]
	return next
}

func (m *Manual) prune() {
	kept := m.timers[:0]
	for _, t := range m.timers {
		if !t.handle.Stopped() {
			kept = append(kept, t)
		}
	}
	m.timers = kept
}
