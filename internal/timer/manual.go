package timer

import (
	"sync"
	"time"
)

// Manual is a Scheduler driven by Advance instead of the wall clock.
// Callbacks run synchronously on the goroutine calling Advance.
type Manual struct {
	mu      sync.Mutex
	now     time.Duration
	seq     int
	pending []*manualTimer
}

type manualTimer struct {
	m     *Manual
	at    time.Duration
	seq   int
	fn    func()
	done  bool
	delay time.Duration
}

// NewManual returns a manual scheduler at time zero.
func NewManual() *Manual {
	return &Manual{}
}

// ScheduleOnce arms fn to run once d has been advanced past.
func (m *Manual) ScheduleOnce(d time.Duration, fn func()) Handle {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.seq++
	t := &manualTimer{m: m, at: m.now + d, seq: m.seq, fn: fn, delay: d}
	m.pending = append(m.pending, t)
	return t
}

func (t *manualTimer) Stop() bool {
	t.m.mu.Lock()
	defer t.m.mu.Unlock()

	if t.done {
		return false
	}
	t.done = true
	return true
}

// Advance moves the clock forward by d, firing due timers in deadline order.
func (m *Manual) Advance(d time.Duration) {
	m.mu.Lock()
	target := m.now + d
	for {
		next := m.nextDueLocked(target)
		if next == nil {
			break
		}
		next.done = true
		m.now = next.at
		m.mu.Unlock()
		next.fn()
		m.mu.Lock()
	}
	m.now = target
	m.compactLocked()
	m.mu.Unlock()
}

// Armed returns the delays of timers that have neither fired nor been stopped.
func (m *Manual) Armed() []time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []time.Duration
	for _, t := range m.pending {
		if !t.done {
			out = append(out, t.delay)
		}
	}
	return out
}

func (m *Manual) nextDueLocked(target time.Duration) *manualTimer {
	var next *manualTimer
	for _, t := range m.pending {
		if t.done || t.at > target {
			continue
		}
		if next == nil || t.at < next.at || (t.at == next.at && t.seq < next.seq) {
			next = t
		}
	}
	return next
}

func (m *Manual) compactLocked() {
	live := m.pending[:0]
	for _, t := range m.pending {
		if !t.done {
			live = append(live, t)
		}
	}
	m.pending = live
}
