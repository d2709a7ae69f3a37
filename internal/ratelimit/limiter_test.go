package ratelimit

import (
	"errors"
	"sync"
	"testing"
	"time"
)

func fixedClock(l *Limiter) *time.Time {
	now := time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)
	l.nowFunc = func() time.Time { return now }
	return &now
}

func TestNewLimiter(t *testing.T) {
	l := NewLimiter(10.0, 5)
	if l.rate != 10.0 {
		t.Errorf("rate = %f, want 10.0", l.rate)
	}
	if l.burst != 5 {
		t.Errorf("burst = %f, want 5", l.burst)
	}
	if got := l.Tokens("unused"); got != 5 {
		t.Errorf("Tokens() on fresh key = %f, want 5", got)
	}
}

func TestAllow_ExceedsBurst(t *testing.T) {
	l := NewLimiter(1.0, 2)
	fixedClock(l)

	for i := 0; i < 2; i++ {
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
	now := fixedClock(l)

	l.Allow("key1")
	l.Allow("key1")
	if l.Allow("key1") {
		t.Error("expected rejection after burst")
	}

	// 10 tokens/sec for 200ms refills 2 tokens
	*now = now.Add(200 * time.Millisecond)

	if !l.Allow("key1") {
		t.Error("expected allow after token refill")
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

func TestAllow_BurstDoesNotExceedMax(t *testing.T) {
	l := NewLimiter(100.0, 3)
	now := fixedClock(l)

	for i := 0; i < 3; i++ {
		l.Allow("key1")
	}

	// Would refill 1000 tokens uncapped
	*now = now.Add(10 * time.Second)

	if got := l.Tokens("key1"); got != 3 {
		t.Errorf("Tokens() = %f, want 3 (burst cap)", got)
	}
	for i := 0; i < 3; i++ {
		if !l.Allow("key1") {
			t.Errorf("request %d should be allowed after refill capped at burst", i+1)
		}
	}
	if l.Allow("key1") {
		t.Error("4th request should be rejected (burst cap)")
	}
}

func TestAllowN(t *testing.T) {
	l := NewLimiter(1.0, 10)
	now := fixedClock(l)

	if !l.AllowN("batch", 7.5) {
		t.Fatal("7.5 tokens should fit in a full bucket of 10")
	}
	if l.AllowN("batch", 3) {
		t.Error("3 tokens should not fit in 2.5 remaining")
	}
	if got := l.Tokens("batch"); got != 2.5 {
		t.Errorf("rejected request consumed tokens: have %f, want 2.5", got)
	}

	*now = now.Add(500 * time.Millisecond)
	if !l.AllowN("batch", 3) {
		t.Error("3 tokens should fit after refilling to 3.0")
	}
}

func TestAllowN_LargerThanBurst(t *testing.T) {
	l := NewLimiter(1000.0, 2)
	fixedClock(l)

	if l.AllowN("key1", 2.5) {
		t.Error("a request larger than the burst can never be allowed")
	}
}

func TestAllow_ZeroRate(t *testing.T) {
	l := NewLimiter(0.0, 2)
	now := fixedClock(l)

	if !l.Allow("key1") || !l.Allow("key1") {
		t.Error("initial burst should be available")
	}

	*now = now.Add(time.Hour)
	if l.Allow("key1") {
		t.Error("should be rejected with zero rate")
	}
}

func TestAllow_ConcurrentAccess(t *testing.T) {
	l := NewLimiter(0.0, 100)

	var wg sync.WaitGroup
	allowed := make(chan bool, 200)

	for i := 0; i < 200; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			allowed <- l.Allow("concurrent-key")
		}()
	}

	wg.Wait()
	close(allowed)

	allowedCount := 0
	for a := range allowed {
		if a {
			allowedCount++
		}
	}

	if allowedCount != 100 {
		t.Errorf("allowed %d requests, expected exactly 100 (burst limit)", allowedCount)
	}
}

func TestBatchCost(t *testing.T) {
	tests := []struct {
		runs int
		want float64
	}{
		{1, 1},
		{50_000, 1},
		{100_000, 1},
		{250_000, 2.5},
		{1_000_000, 10},
	}

	for _, tt := range tests {
		if got := BatchCost(tt.runs); got != tt.want {
			t.Errorf("BatchCost(%d) = %f, want %f", tt.runs, got, tt.want)
		}
	}
}

func TestNewToolLimiters(t *testing.T) {
	limiters := NewToolLimiters()

	tests := []struct {
		tool  string
		burst float64
	}{
		{"seatsim_run", 10},
		{"seatsim_batch", 10},
	}

	for _, tt := range tests {
		t.Run(tt.tool, func(t *testing.T) {
			limiter, ok := limiters[tt.tool]
			if !ok {
				t.Fatalf("missing rate limiter for tool: %s", tt.tool)
			}
			if limiter.burst != tt.burst {
				t.Errorf("burst = %f, want %f", limiter.burst, tt.burst)
			}
		})
	}

	// The largest batch a tool call may request must be admissible.
	if BatchCost(1_000_000) > limiters["seatsim_batch"].burst {
		t.Error("maximum batch cost exceeds seatsim_batch burst")
	}
}

func TestCheckLimit(t *testing.T) {
	limiters := ToolLimiters{"seatsim_run": NewLimiter(0, 1)}

	if err := CheckLimit(limiters, "seatsim_run"); err != nil {
		t.Errorf("unexpected error for seatsim_run: %v", err)
	}

	if err := CheckLimit(limiters, "unknown_tool"); err != nil {
		t.Errorf("unexpected error for unknown tool: %v", err)
	}

	err := CheckLimit(limiters, "seatsim_run")
	if !errors.Is(err, ErrRateLimited) {
		t.Errorf("expected ErrRateLimited after burst exhaustion, got %v", err)
	}
}

func TestCheckCost(t *testing.T) {
	limiters := ToolLimiters{"seatsim_batch": NewLimiter(0, 10)}

	if err := CheckCost(limiters, "seatsim_batch", BatchCost(1_000_000)); err != nil {
		t.Fatalf("full-size batch should be admitted on a full bucket: %v", err)
	}
	if err := CheckCost(limiters, "seatsim_batch", BatchCost(10)); !errors.Is(err, ErrRateLimited) {
		t.Errorf("expected ErrRateLimited on empty bucket, got %v", err)
	}
}
