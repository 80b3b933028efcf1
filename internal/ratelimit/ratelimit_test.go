package ratelimit

import (
	"sync"
	"testing"
	"time"
)

func newTestLimiter(quota int, window time.Duration) *Limiter {
	class := Class{Quota: quota, Window: window}
	return &Limiter{
		authenticated: class,
		anonymous:     Class{Quota: quota / 2, Window: window},
		callers:       make(map[string]*counter),
	}
}

func TestCheckQuotaExhaustion(t *testing.T) {
	l := newTestLimiter(3, time.Minute)
	caller := Caller{Key: "token:abc", Authenticated: true}
	now := time.Now()

	for i := 1; i <= 3; i++ {
		d := l.Check(caller, now)
		if !d.Allowed {
			t.Fatalf("request %d: expected allowed", i)
		}
		if d.Remaining != 3-i {
			t.Errorf("request %d: remaining = %d; want %d", i, d.Remaining, 3-i)
		}
	}

	d := l.Check(caller, now.Add(time.Second))
	if d.Allowed {
		t.Fatal("request 4: expected rejected")
	}
	if want := 59 * time.Second; d.RetryAfter != want {
		t.Errorf("retry after = %v; want %v", d.RetryAfter, want)
	}
}

func TestCheckWindowReset(t *testing.T) {
	l := newTestLimiter(3, time.Minute)
	caller := Caller{Key: "token:abc", Authenticated: true}
	now := time.Now()

	for i := 0; i < 4; i++ {
		l.Check(caller, now)
	}
	d := l.Check(caller, now.Add(time.Minute))
	if !d.Allowed {
		t.Fatal("expected a new window to admit the request")
	}
	if d.Remaining != 2 {
		t.Errorf("remaining = %d; want 2", d.Remaining)
	}
}

func TestCheckClassSeparation(t *testing.T) {
	l := newTestLimiter(10, time.Minute)
	now := time.Now()

	anon := Caller{Key: "ip:203.0.113.9"}
	for i := 0; i < 5; i++ {
		l.Check(anon, now)
	}
	if d := l.Check(anon, now); d.Allowed {
		t.Error("anonymous caller should have hit its lower ceiling")
	}
	auth := Caller{Key: "token:abc", Authenticated: true}
	if d := l.Check(auth, now); !d.Allowed {
		t.Error("authenticated caller should draw from its own quota")
	}
}

func TestCheckConcurrentSameInstant(t *testing.T) {
	const quota = 50
	l := newTestLimiter(quota, time.Minute)
	caller := Caller{Key: "token:abc", Authenticated: true}
	now := time.Now()

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		allowed int
	)
	for i := 0; i < 2*quota; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if l.Check(caller, now).Allowed {
				mu.Lock()
				allowed++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	if allowed != quota {
		t.Errorf("allowed %d requests at the same instant; want exactly %d", allowed, quota)
	}
}

func TestEvict(t *testing.T) {
	l := newTestLimiter(3, time.Minute)
	now := time.Now()

	l.Check(Caller{Key: "ip:203.0.113.9"}, now)
	l.Check(Caller{Key: "ip:203.0.113.10"}, now.Add(2*time.Minute))
	l.evict(now.Add(4 * time.Minute))

	l.mu.Lock()
	defer l.mu.Unlock()
	if _, found := l.callers["ip:203.0.113.9"]; found {
		t.Error("expected the idle caller to be evicted")
	}
	if _, found := l.callers["ip:203.0.113.10"]; !found {
		t.Error("expected the recent caller to be retained")
	}
}
