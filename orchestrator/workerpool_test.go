package orchestrator

import (
	"context"
	"sync/atomic"
	"testing"
	"time"
)

func TestFanOutPreservesOrderAndRunsAll(t *testing.T) {
	items := []string{"a", "b", "c", "d", "e"}
	results := fanOut(context.Background(), items, 3, time.Microsecond, func(ctx context.Context, item string) string {
		return item + "!"
	})

	if len(results) != len(items) {
		t.Fatalf("expected %d results, got %d", len(items), len(results))
	}
	for i, item := range items {
		if results[i] != item+"!" {
			t.Errorf("index %d: got %q, want %q", i, results[i], item+"!")
		}
	}
}

func TestFanOutRespectsConcurrencyCap(t *testing.T) {
	var current, max int32
	items := make([]string, 10)
	for i := range items {
		items[i] = "x"
	}

	fanOut(context.Background(), items, 2, time.Microsecond, func(ctx context.Context, item string) int {
		n := atomic.AddInt32(&current, 1)
		for {
			m := atomic.LoadInt32(&max)
			if n <= m || atomic.CompareAndSwapInt32(&max, m, n) {
				break
			}
		}
		time.Sleep(2 * time.Millisecond)
		atomic.AddInt32(&current, -1)
		return 0
	})

	if max > 2 {
		t.Errorf("expected at most 2 concurrent workers, observed %d", max)
	}
}

func TestFanOutStopsOnCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	items := []string{"a", "b", "c"}
	results := fanOut(ctx, items, 1, time.Second, func(ctx context.Context, item string) string {
		return "ran"
	})

	for i, r := range results {
		if r != "" {
			t.Errorf("index %d: expected zero value after cancellation, got %q", i, r)
		}
	}
}
