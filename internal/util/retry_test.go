// ABOUTME: Tests for retry utilities including exponential backoff
// ABOUTME: Validates backoff bounds and jitter, then Do's stop conditions
package util

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestCalculateBackoff_Bounds(t *testing.T) {
	tests := []struct {
		name     string
		base     time.Duration
		attempt  int
		min, max time.Duration
	}{
		{"zero attempt", time.Second, 0, 0, 0},
		{"negative attempt", time.Second, -100, 0, 0},
		{"zero base", 0, 3, 0, 0},
		{"first attempt", 100 * time.Millisecond, 1, 150 * time.Millisecond, 250 * time.Millisecond},
		{"third attempt", 100 * time.Millisecond, 3, 600 * time.Millisecond, time.Second},
		{"capped", time.Second, 10, 22500 * time.Millisecond, 37500 * time.Millisecond},
		{"huge attempt", time.Millisecond, 100, 22500 * time.Millisecond, 37500 * time.Millisecond},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CalculateBackoff(tt.base, tt.attempt)
			if got < tt.min || got > tt.max {
				t.Errorf("CalculateBackoff(%v, %d) = %v, want between %v and %v", tt.base, tt.attempt, got, tt.min, tt.max)
			}
		})
	}
}

func TestCalculateBackoff_Jitter(t *testing.T) {
	first := CalculateBackoff(time.Second, 2)
	for i := 0; i < 100; i++ {
		if CalculateBackoff(time.Second, 2) != first {
			return
		}
	}
	t.Error("jitter should produce varying results, but all 100 samples were identical")
}

func TestDo_RetriesUntilSuccess(t *testing.T) {
	calls := 0
	err := Do(context.Background(), 3, time.Millisecond, func(ctx context.Context) error {
		calls++
		if calls < 3 {
			return errors.New("rate limited")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Do() error = %v", err)
	}
	if calls != 3 {
		t.Errorf("calls = %d, want 3", calls)
	}
}

func TestDo_GivesUp(t *testing.T) {
	sentinel := errors.New("rate limited")
	calls := 0
	err := Do(context.Background(), 2, time.Millisecond, func(ctx context.Context) error {
		calls++
		return sentinel
	})
	if !errors.Is(err, sentinel) {
		t.Errorf("expected the last error to be wrapped, got %v", err)
	}
	if calls != 3 {
		t.Errorf("calls = %d, want 3", calls)
	}
}

func TestDo_StopsOnPermanent(t *testing.T) {
	sentinel := errors.New("bad request")
	calls := 0
	err := Do(context.Background(), 5, time.Millisecond, func(ctx context.Context) error {
		calls++
		return Permanent(sentinel)
	})
	if err != sentinel {
		t.Errorf("expected the unwrapped permanent error, got %v", err)
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
	if Permanent(nil) != nil {
		t.Error("Permanent(nil) should be nil")
	}
}

func TestDo_StopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	err := Do(ctx, 5, time.Hour, func(ctx context.Context) error {
		calls++
		cancel()
		return errors.New("timeout")
	})
	if err == nil {
		t.Fatal("expected an error")
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}
