package pool

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
)

func TestPoolRunsAllSubmittedTasks(t *testing.T) {
	p := New(4)
	ctx := context.Background()
	p.Start(ctx)

	var count atomic.Int32
	for range 20 {
		p.Submit(ctx, func(ctx context.Context) error {
			count.Add(1)
			return nil
		})
	}

	if errs := p.Close(); len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	if got := count.Load(); got != 20 {
		t.Errorf("ran %d tasks, want 20", got)
	}
}

func TestPoolCollectsErrors(t *testing.T) {
	p := New(2)
	ctx := context.Background()
	p.Start(ctx)

	boom := errors.New("boom")
	p.Submit(ctx, func(ctx context.Context) error { return nil })
	p.Submit(ctx, func(ctx context.Context) error { return boom })

	errs := p.Close()
	if len(errs) != 1 || !errors.Is(errs[0], boom) {
		t.Errorf("Close() errors = %v, want [%v]", errs, boom)
	}
}

func TestPoolWidthOneRunsInline(t *testing.T) {
	p := New(1)
	ctx := context.Background()
	p.Start(ctx) // no-op for width 1

	var order []int
	for i := range 5 {
		i := i
		p.Submit(ctx, func(ctx context.Context) error {
			order = append(order, i)
			return nil
		})
	}

	if errs := p.Close(); len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	want := []int{0, 1, 2, 3, 4}
	if len(order) != len(want) {
		t.Fatalf("order = %v, want %v", order, want)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Errorf("order[%d] = %d, want %d", i, order[i], want[i])
		}
	}
}
