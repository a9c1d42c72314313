package pool

import (
	"context"
	"testing"
)

func TestRunPreservesOrder(t *testing.T) {
	items := []int{5, 4, 3, 2, 1, 0, 9, 8, 7, 6}
	results := Run(context.Background(), 2, items, func(_ context.Context, n int) (int, error) {
		return n * n, nil
	})
	if len(results) != len(items) {
		t.Fatalf("expected %d results, got %d", len(items), len(results))
	}
	for i, r := range results {
		if r.Index != i {
			t.Fatalf("result %d has index %d", i, r.Index)
		}
		want := items[i] * items[i]
		if r.Value != want {
			t.Errorf("result %d = %d, want %d", i, r.Value, want)
		}
	}
}

func TestRunPropagatesErrors(t *testing.T) {
	results := Run(context.Background(), 1, []int{1, 2, 3}, func(_ context.Context, n int) (int, error) {
		if n == 2 {
			return 0, context.DeadlineExceeded
		}
		return n, nil
	})
	if results[1].Err == nil {
		t.Fatalf("expected error on second item")
	}
}
