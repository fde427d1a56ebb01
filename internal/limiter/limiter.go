// Package limiter bounds how often a non-member may retry the entry
// command before being escalated to a ban.
package limiter

import (
	"sync"
	"time"
)

const (
	DefaultWindow = time.Hour
	DefaultLimit  = 5
)

type Verdict struct {
	Allowed   bool
	ShouldBan bool
	Count     int
}

type entry struct {
	mu          sync.Mutex
	windowStart time.Time
	count       int
}

// Limiter keeps a sliding 1-hour window counter per user. Entries are an
// optimization structure: evicting one early only grants a single extra
// grace window, so the sweep needs no coordination with callers.
type Limiter struct {
	window time.Duration
	limit  int
	now    func() time.Time

	mu      sync.RWMutex
	entries map[int64]*entry
}

func New(window time.Duration, limit int) *Limiter {
	if window <= 0 {
		window = DefaultWindow
	}
	if limit <= 0 {
		limit = DefaultLimit
	}
	return &Limiter{
		window:  window,
		limit:   limit,
		now:     time.Now,
		entries: map[int64]*entry{},
	}
}

// RecordAttempt counts one invocation for the user and reports whether the
// caller must escalate to a ban. The count resets whenever the anchoring
// window has fully elapsed.
func (l *Limiter) RecordAttempt(userID int64) Verdict {
	now := l.now()
	e := l.entryFor(userID)

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.windowStart.IsZero() || now.Sub(e.windowStart) >= l.window {
		e.windowStart = now
		e.count = 1
	} else {
		e.count++
	}

	shouldBan := e.count > l.limit
	return Verdict{
		Allowed:   !shouldBan,
		ShouldBan: shouldBan,
		Count:     e.count,
	}
}

// Forget drops the user's counter, e.g. after an administrative unban.
func (l *Limiter) Forget(userID int64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.entries, userID)
}

// Sweep evicts counters whose window has fully elapsed.
func (l *Limiter) Sweep() {
	now := l.now()
	l.mu.Lock()
	defer l.mu.Unlock()
	for userID, e := range l.entries {
		e.mu.Lock()
		stale := now.Sub(e.windowStart) >= l.window
		e.mu.Unlock()
		if stale {
			delete(l.entries, userID)
		}
	}
}

func (l *Limiter) entryFor(userID int64) *entry {
	l.mu.RLock()
	e, ok := l.entries[userID]
	l.mu.RUnlock()
	if ok {
		return e
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if e, ok = l.entries[userID]; ok {
		return e
	}
	e = &entry{}
	l.entries[userID] = e
	return e
}
