// Package ratelimit implements fixed-window request limiting keyed by caller
// identity. Time is divided into equal windows, each with an independent
// counter per caller; authenticated and anonymous callers draw from separate
// quota classes.
package ratelimit

import (
	"sync"
	"time"
)

// Caller identifies who a request is counted against. Authenticated callers
// are keyed by principal (e.g. a token hash), anonymous callers by client IP.
type Caller struct {
	Key           string
	Authenticated bool
}

// Class is a quota over a fixed window.
type Class struct {
	Quota  int
	Window time.Duration
}

// Decision is the outcome of a limiter check. When Allowed is false,
// RetryAfter reports the time remaining until the current window resets.
type Decision struct {
	Allowed    bool
	Remaining  int
	RetryAfter time.Duration
}

// counter tracks one caller's requests inside the current window. Each
// counter carries its own mutex so that updates for distinct callers never
// contend with each other.
type counter struct {
	mu       sync.Mutex
	start    time.Time
	count    int
	lastSeen time.Time
}

// Limiter enforces fixed-window quotas per caller. The callers map is the
// only state shared across requests; it is guarded by a mutex held just long
// enough to locate or create an entry.
type Limiter struct {
	authenticated Class
	anonymous     Class

	mu      sync.Mutex
	callers map[string]*counter
}

// New creates a Limiter with the given quota classes and launches a
// background goroutine which evicts callers not seen for several windows.
// A fresh counter starts at one on the next request, so eviction can never
// grant extra requests to a still-active caller.
func New(authenticated, anonymous Class) *Limiter {
	l := &Limiter{
		authenticated: authenticated,
		anonymous:     anonymous,
		callers:       make(map[string]*counter),
	}
	go func() {
		for {
			time.Sleep(time.Minute)
			l.evict(time.Now())
		}
	}()
	return l
}

// Check counts a request from the given caller at the given instant and
// reports whether it is allowed. Fixed-window semantics: each window admits
// at most Quota requests, and a burst straddling a window boundary may see up
// to twice the quota across the two adjacent windows. Within any single
// window instance the quota is never exceeded, including for concurrent
// checks at the identical instant.
func (l *Limiter) Check(caller Caller, now time.Time) Decision {
	class := l.anonymous
	if caller.Authenticated {
		class = l.authenticated
	}

	l.mu.Lock()
	c, found := l.callers[caller.Key]
	if !found {
		c = &counter{start: now}
		l.callers[caller.Key] = c
	}
	l.mu.Unlock()

	c.mu.Lock()
	defer c.mu.Unlock()
	c.lastSeen = now
	if now.Sub(c.start) >= class.Window {
		c.start = now
		c.count = 0
	}
	c.count++
	if c.count > class.Quota {
		return Decision{
			Allowed:    false,
			RetryAfter: c.start.Add(class.Window).Sub(now),
		}
	}
	return Decision{
		Allowed:   true,
		Remaining: class.Quota - c.count,
	}
}

// evict drops callers idle for longer than three of the larger window, to
// bound the size of the callers map.
func (l *Limiter) evict(now time.Time) {
	idleAfter := 3 * l.authenticated.Window
	if l.anonymous.Window > l.authenticated.Window {
		idleAfter = 3 * l.anonymous.Window
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	for key, c := range l.callers {
		c.mu.Lock()
		idle := now.Sub(c.lastSeen) > idleAfter
		c.mu.Unlock()
		if idle {
			delete(l.callers, key)
		}
	}
}
