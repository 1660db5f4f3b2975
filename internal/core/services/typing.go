package services

import (
	"sort"
	"sync"
	"time"
)

// TypingTracker holds the set of sender names currently typing in one
// conversation. Each sender has a single debounced timer: a fresh TYPING
// frame resets it, so the indicator stays up for exactly one TTL after the
// last frame instead of flickering on overlapping windows.
type TypingTracker struct {
	mu       sync.Mutex
	ttl      time.Duration
	timers   map[string]*time.Timer
	onChange func(active []string)
	stopped  bool
}

func NewTypingTracker(ttl time.Duration, onChange func(active []string)) *TypingTracker {
	return &TypingTracker{
		ttl:      ttl,
		timers:   make(map[string]*time.Timer),
		onChange: onChange,
	}
}

// Touch records a TYPING frame from a sender, starting or extending their
// expiry window.
func (t *TypingTracker) Touch(senderName string) {
	if senderName == "" {
		return
	}
	t.mu.Lock()
	if t.stopped {
		t.mu.Unlock()
		return
	}
	if tm, ok := t.timers[senderName]; ok {
		tm.Reset(t.ttl)
		t.mu.Unlock()
		return
	}
	t.timers[senderName] = time.AfterFunc(t.ttl, func() {
		t.expire(senderName)
	})
	active := t.activeLocked()
	t.mu.Unlock()
	t.notify(active)
}

func (t *TypingTracker) expire(senderName string) {
	t.mu.Lock()
	if t.stopped {
		t.mu.Unlock()
		return
	}
	delete(t.timers, senderName)
	active := t.activeLocked()
	t.mu.Unlock()
	t.notify(active)
}

// Active returns the senders currently typing, sorted for stable display.
func (t *TypingTracker) Active() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.activeLocked()
}

// Stop clears every pending timer; no notification fires after it returns.
func (t *TypingTracker) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stopped = true
	for name, tm := range t.timers {
		tm.Stop()
		delete(t.timers, name)
	}
}

func (t *TypingTracker) activeLocked() []string {
	out := make([]string, 0, len(t.timers))
	for name := range t.timers {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

func (t *TypingTracker) notify(active []string) {
	if t.onChange != nil {
		t.onChange(active)
	}
}
