package collector

import (
	"context"
	"testing"
	"time"
)

func TestClock_NeverGoesBackwards(t *testing.T) {
	base := time.Date(2024, 5, 17, 9, 0, 0, 0, time.UTC)
	ticks := []time.Time{base, base.Add(time.Second), base.Add(-time.Hour), base.Add(2 * time.Second)}
	i := 0
	clock := NewClock(func() time.Time {
		t := ticks[i]
		i++
		return t
	})

	var last time.Time
	for range ticks {
		now := clock.Now()
		if now.Before(last) {
			t.Errorf("Clock went backwards: %v after %v", now, last)
		}
		last = now
	}
	if !last.Equal(base.Add(2 * time.Second)) {
		t.Errorf("Expected final tick, got %v", last)
	}
}

func TestPacer_SpacesCalls(t *testing.T) {
	pacer := NewPacer(50 * time.Millisecond)
	ctx := context.Background()

	start := time.Now()
	for i := 0; i < 3; i++ {
		if err := pacer.Wait(ctx); err != nil {
			t.Fatalf("Wait() error = %v", err)
		}
	}
	if elapsed := time.Since(start); elapsed < 90*time.Millisecond {
		t.Errorf("Expected at least two intervals, got %v", elapsed)
	}
}

func TestPacer_SecondCallWaitsFullInterval(t *testing.T) {
	pacer := NewPacer(100 * time.Millisecond)
	ctx := context.Background()

	start := time.Now()
	if err := pacer.Wait(ctx); err != nil {
		t.Fatalf("Wait() error = %v", err)
	}
	first := time.Since(start)
	if err := pacer.Wait(ctx); err != nil {
		t.Fatalf("Wait() error = %v", err)
	}
	gap := time.Since(start) - first

	if first > 50*time.Millisecond {
		t.Errorf("Expected the first call to proceed at once, waited %v", first)
	}
	if gap < 90*time.Millisecond {
		t.Errorf("Expected a full interval before the second call, got %v", gap)
	}
}

func TestPacer_ZeroIntervalDoesNotBlock(t *testing.T) {
	pacer := NewPacer(0)
	start := time.Now()
	for i := 0; i < 100; i++ {
		pacer.Wait(context.Background())
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("Expected no pacing, took %v", elapsed)
	}
}

func TestPacer_CancelledContext(t *testing.T) {
	pacer := NewPacer(time.Hour)
	pacer.Wait(context.Background())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := pacer.Wait(ctx); err == nil {
		t.Error("Expected error for cancelled context")
	}
}
