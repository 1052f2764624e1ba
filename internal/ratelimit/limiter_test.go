package ratelimit

import (
	"sync"
	"testing"
	"time"

	"golang.org/x/time/rate"
)

// fixedClock returns a limiter whose clock only moves when advanced.
func fixedClock(l *Limiter) func(d time.Duration) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	l.nowFunc = func() time.Time { return now }
	return func(d time.Duration) { now = now.Add(d) }
}

func TestNewLimiter(t *testing.T) {
	l := NewLimiter(10.0, 5)
	if l.rate != rate.Limit(10.0) {
		t.Errorf("rate = %v, want 10", l.rate)
	}
	if l.burst != 5 {
		t.Errorf("burst = %d, want 5", l.burst)
	}
}

func TestAllow_ExceedsBurst(t *testing.T) {
	l := NewLimiter(1.0, 2)
	fixedClock(l)

	for i := range 2 {
		if !l.Allow("key1") {
			t.Errorf("request %d should be allowed (within burst)", i+1)
		}
	}
	if l.Allow("key1") {
		t.Error("request after burst exhaustion should be rejected")
	}
}

func TestAllow_RefillAfterWait(t *testing.T) {
	l := NewLimiter(10.0, 2)
	advance := fixedClock(l)

	l.Allow("key1")
	l.Allow("key1")
	if l.Allow("key1") {
		t.Error("expected rejection after burst")
	}

	// 10 tokens/sec for 200ms refills 2
	advance(200 * time.Millisecond)
	if !l.Allow("key1") {
		t.Error("expected allow after token refill")
	}
}

func TestAllow_BurstDoesNotExceedMax(t *testing.T) {
	l := NewLimiter(100.0, 3)
	advance := fixedClock(l)

	for range 3 {
		l.Allow("key1")
	}
	advance(10 * time.Second)

	for i := range 3 {
		if !l.Allow("key1") {
			t.Errorf("request %d should be allowed after refill capped at burst", i+1)
		}
	}
	if l.Allow("key1") {
		t.Error("4th request should be rejected (burst cap)")
	}
}

func TestAllow_IndependentKeys(t *testing.T) {
	l := NewLimiter(1.0, 1)
	fixedClock(l)

	l.Allow("key1")
	if l.Allow("key1") {
		t.Error("key1 should be exhausted")
	}
	if !l.Allow("key2") {
		t.Error("key2 should be allowed (independent bucket)")
	}
}

func TestAllow_ZeroRate(t *testing.T) {
	l := NewLimiter(0.0, 2)

	if !l.Allow("key1") || !l.Allow("key1") {
		t.Error("initial burst should be usable with zero rate")
	}
	if l.Allow("key1") {
		t.Error("should be rejected with zero rate")
	}
}

func TestAllow_ConcurrentAccess(t *testing.T) {
	l := NewLimiter(1000.0, 100)
	fixedClock(l)

	var wg sync.WaitGroup
	allowed := make(chan bool, 200)
	for range 200 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			allowed <- l.Allow("concurrent-key")
		}()
	}
	wg.Wait()
	close(allowed)

	count := 0
	for a := range allowed {
		if a {
			count++
		}
	}
	if count != 100 {
		t.Errorf("allowed %d requests, want exactly the burst of 100", count)
	}
}

func TestToolRateLimits(t *testing.T) {
	limiters := NewToolLimiters()

	tests := []struct {
		tool  string
		burst int
	}{
		{"moideas_simulate", 2},
		{"moideas_presets", 10},
		{"moideas_history", 5},
	}

	for _, tt := range tests {
		t.Run(tt.tool, func(t *testing.T) {
			limiter, ok := limiters[tt.tool]
			if !ok {
				t.Fatalf("missing rate limiter for tool: %s", tt.tool)
			}
			if limiter.burst != tt.burst {
				t.Errorf("burst = %d, want %d", limiter.burst, tt.burst)
			}
		})
	}
}

func TestCheckLimit(t *testing.T) {
	limiters := NewToolLimiters()
	fixedClock(limiters["moideas_simulate"])

	if err := CheckLimit(limiters, "unknown_tool"); err != nil {
		t.Errorf("unexpected error for unknown tool: %v", err)
	}

	for i := range 2 {
		if err := CheckLimit(limiters, "moideas_simulate"); err != nil {
			t.Fatalf("call %d: unexpected error: %v", i+1, err)
		}
	}
	if err := CheckLimit(limiters, "moideas_simulate"); err == nil {
		t.Error("expected rate limit error after burst exhaustion")
	}
}
