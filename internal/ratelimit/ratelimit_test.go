package ratelimit

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

func newClock() *fakeClock {
	return &fakeClock{t: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func TestLimiter_AllowsUpToLimit(t *testing.T) {
	clock := newClock()
	l := New(NewMemoryStoreWithClock(clock.Now), 10, time.Minute, WithClock(clock.Now))
	ctx := context.Background()

	for i := 1; i <= 10; i++ {
		d, err := l.Check(ctx, "user-1")
		if err != nil {
			t.Fatalf("Check %d: %v", i, err)
		}
		if !d.Allowed {
			t.Fatalf("Check %d denied, want allowed", i)
		}
		if d.Remaining != 10-i {
			t.Errorf("Check %d Remaining = %d, want %d", i, d.Remaining, 10-i)
		}
	}

	d, err := l.Check(ctx, "user-1")
	if err != nil {
		t.Fatalf("Check 11: %v", err)
	}
	if d.Allowed {
		t.Fatal("Check 11 allowed, want denied")
	}
	if d.RetryAfter != time.Minute {
		t.Errorf("RetryAfter = %v, want %v", d.RetryAfter, time.Minute)
	}
}

func TestLimiter_KeysAreIndependent(t *testing.T) {
	clock := newClock()
	l := New(NewMemoryStoreWithClock(clock.Now), 1, time.Minute, WithClock(clock.Now))
	ctx := context.Background()

	if d, _ := l.Check(ctx, "a"); !d.Allowed {
		t.Fatal("first hit for a denied")
	}
	if d, _ := l.Check(ctx, "b"); !d.Allowed {
		t.Fatal("first hit for b denied")
	}
	if d, _ := l.Check(ctx, "a"); d.Allowed {
		t.Fatal("second hit for a allowed")
	}
}

func TestLimiter_WindowResets(t *testing.T) {
	clock := newClock()
	l := New(NewMemoryStoreWithClock(clock.Now), 2, time.Minute, WithClock(clock.Now))
	ctx := context.Background()

	l.Check(ctx, "u")
	l.Check(ctx, "u")
	clock.Advance(30 * time.Second)

	d, _ := l.Check(ctx, "u")
	if d.Allowed {
		t.Fatal("third hit inside window allowed")
	}
	if d.RetryAfter != 30*time.Second {
		t.Errorf("RetryAfter = %v, want 30s", d.RetryAfter)
	}

	clock.Advance(30 * time.Second)
	d, _ = l.Check(ctx, "u")
	if !d.Allowed {
		t.Fatal("hit after window end denied")
	}
	if d.Remaining != 1 {
		t.Errorf("Remaining = %d, want 1", d.Remaining)
	}
}

func TestLimiter_Reset(t *testing.T) {
	clock := newClock()
	l := New(NewMemoryStoreWithClock(clock.Now), 1, time.Minute, WithClock(clock.Now), WithKeyPrefix("test:"))
	ctx := context.Background()

	l.Check(ctx, "u")
	if d, _ := l.Check(ctx, "u"); d.Allowed {
		t.Fatal("second hit allowed before reset")
	}
	if err := l.Reset(ctx, "u"); err != nil {
		t.Fatalf("Reset: %v", err)
	}
	if d, _ := l.Check(ctx, "u"); !d.Allowed {
		t.Fatal("hit after reset denied")
	}
}

func TestMemoryStore_Sweep(t *testing.T) {
	clock := newClock()
	store := NewMemoryStoreWithClock(clock.Now)
	ctx := context.Background()

	store.Incr(ctx, "old", time.Minute)
	clock.Advance(2 * time.Minute)
	store.Incr(ctx, "fresh", time.Minute)

	if got := store.Len(); got != 2 {
		t.Fatalf("Len before sweep = %d, want 2", got)
	}
	if removed := store.Sweep(); removed != 1 {
		t.Errorf("Sweep removed %d, want 1", removed)
	}
	if got := store.Len(); got != 1 {
		t.Errorf("Len after sweep = %d, want 1", got)
	}
}

func TestMemoryStore_RunSweeperStopsOnCancel(t *testing.T) {
	store := NewMemoryStore()
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		store.RunSweeper(ctx, 10*time.Millisecond)
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("RunSweeper did not stop after cancel")
	}
}

func TestMemoryStore_Concurrent(t *testing.T) {
	store := NewMemoryStore()
	l := New(store, 50, time.Minute)
	ctx := context.Background()

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		allowed int
	)
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			d, err := l.Check(ctx, "shared")
			if err != nil {
				t.Error(err)
				return
			}
			if d.Allowed {
				mu.Lock()
				allowed++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if allowed != 50 {
		t.Errorf("allowed = %d, want 50", allowed)
	}
}

func TestRedisStore(t *testing.T) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set")
	}
	ctx := context.Background()
	client, err := NewRedisClient(ctx, addr, os.Getenv("REDIS_PASSWORD"), 0)
	if err != nil {
		t.Fatalf("NewRedisClient: %v", err)
	}
	defer client.Close()

	key := "leadbook:test:" + time.Now().Format(time.RFC3339Nano)
	l := New(NewRedisStore(client), 2, time.Minute)
	defer l.Reset(ctx, key)

	for i := 0; i < 2; i++ {
		d, err := l.Check(ctx, key)
		if err != nil {
			t.Fatalf("Check: %v", err)
		}
		if !d.Allowed {
			t.Fatalf("hit %d denied", i+1)
		}
	}
	d, err := l.Check(ctx, key)
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if d.Allowed {
		t.Fatal("third hit allowed")
	}
	if d.RetryAfter <= 0 || d.RetryAfter > time.Minute {
		t.Errorf("RetryAfter = %v, want (0, 1m]", d.RetryAfter)
	}
}
