package worker

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"roomy-listing/pkg/logger"
)

func TestPoolRunsAllTasks(t *testing.T) {
	pool := NewPool(PoolConfig{MaxWorkers: 3, QueueSize: 2}, logger.Nop())
	if err := pool.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}

	var ran atomic.Int32
	for i := 0; i < 20; i++ {
		err := pool.Submit(context.Background(), Task{
			ID: fmt.Sprintf("task-%d", i),
			Fn: func(ctx context.Context) error {
				ran.Add(1)
				return nil
			},
		})
		if err != nil {
			t.Fatalf("Submit: %v", err)
		}
	}
	pool.Stop()

	if ran.Load() != 20 {
		t.Errorf("ran %d tasks, want 20", ran.Load())
	}
	stats := pool.Stats()
	if stats.Submitted != 20 || stats.Completed != 20 || stats.Failed != 0 {
		t.Errorf("unexpected stats: %+v", stats)
	}
}

func TestPoolCountsFailuresAndPanics(t *testing.T) {
	pool := NewPool(PoolConfig{MaxWorkers: 1}, logger.Nop())
	pool.Start()

	pool.Submit(context.Background(), Task{ID: "err", Fn: func(context.Context) error { return errors.New("boom") }})
	pool.Submit(context.Background(), Task{ID: "panic", Fn: func(context.Context) error { panic("boom") }})
	pool.Submit(context.Background(), Task{ID: "ok", Fn: func(context.Context) error { return nil }})
	pool.Stop()

	stats := pool.Stats()
	if stats.Completed != 3 || stats.Failed != 2 || stats.Panicked != 1 {
		t.Errorf("unexpected stats: %+v", stats)
	}
}

func TestPoolTaskTimeout(t *testing.T) {
	pool := NewPool(PoolConfig{MaxWorkers: 1, TaskTimeout: 20 * time.Millisecond}, logger.Nop())
	pool.Start()

	var gotErr atomic.Value
	pool.Submit(context.Background(), Task{ID: "slow", Fn: func(ctx context.Context) error {
		<-ctx.Done()
		gotErr.Store(ctx.Err())
		return ctx.Err()
	}})
	pool.Stop()

	if err, _ := gotErr.Load().(error); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("task context error = %v, want deadline exceeded", err)
	}
}

func TestPoolSubmitStates(t *testing.T) {
	pool := NewPool(PoolConfig{MaxWorkers: 1}, logger.Nop())
	noop := Task{ID: "noop", Fn: func(context.Context) error { return nil }}

	if err := pool.Submit(context.Background(), noop); err == nil {
		t.Error("Submit before Start should fail")
	}
	pool.Start()
	if err := pool.Start(); err == nil {
		t.Error("second Start should fail")
	}
	pool.Stop()
	if err := pool.Submit(context.Background(), noop); err == nil {
		t.Error("Submit after Stop should fail")
	}
	if err := pool.Stop(); err != nil {
		t.Errorf("second Stop: %v", err)
	}
}

func TestPoolSubmitHonoursContext(t *testing.T) {
	pool := NewPool(PoolConfig{MaxWorkers: 1, QueueSize: 1}, logger.Nop())
	pool.Start()
	defer pool.Stop()

	release := make(chan struct{})
	running := make(chan struct{})
	pool.Submit(context.Background(), Task{ID: "first", Fn: func(context.Context) error {
		close(running)
		<-release
		return nil
	}})
	<-running

	block := Task{ID: "block", Fn: func(context.Context) error { <-release; return nil }}
	pool.Submit(context.Background(), block)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err := pool.Submit(ctx, block)
	close(release)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Submit error = %v, want deadline exceeded", err)
	}
}
