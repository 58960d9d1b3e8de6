package core

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"
)

func TestWorkerPool_StartStop(t *testing.T) {
	logger := zaptest.NewLogger(t).Sugar()
	wp := NewWorkerPool(context.Background(), 2, 10, "test", logger)

	err := wp.Start()
	if err != nil {
		t.Fatalf("Failed to start worker pool: %v", err)
	}

	stats := wp.GetStats()
	if !stats.Running {
		t.Error("Worker pool should be running")
	}
	if stats.Workers != 2 {
		t.Errorf("Expected 2 workers, got %d", stats.Workers)
	}

	wp.Stop()

	stats = wp.GetStats()
	if stats.Running {
		t.Error("Worker pool should not be running after stop")
	}
}

func TestWorkerPool_SubmitTasks(t *testing.T) {
	logger := zaptest.NewLogger(t).Sugar()
	wp := NewWorkerPool(context.Background(), 2, 10, "test", logger)

	err := wp.Start()
	if err != nil {
		t.Fatalf("Failed to start worker pool: %v", err)
	}
	defer wp.Stop()

	var counter int64
	var wg sync.WaitGroup

	for i := 0; i < 20; i++ {
		wg.Add(1)
		err := wp.Submit(func() {
			defer wg.Done()
			atomic.AddInt64(&counter, 1)
		})
		if err != nil {
			wg.Done()
			t.Fatalf("Failed to submit task: %v", err)
		}
	}

	wg.Wait()
	if got := atomic.LoadInt64(&counter); got != 20 {
		t.Errorf("Expected 20 tasks processed, got %d", got)
	}
}

func TestWorkerPool_SubmitBeforeStart(t *testing.T) {
	logger := zaptest.NewLogger(t).Sugar()
	wp := NewWorkerPool(context.Background(), 1, 1, "test", logger)

	err := wp.Submit(func() {})
	if err != ErrWorkerPoolNotRunning {
		t.Errorf("Expected ErrWorkerPoolNotRunning, got %v", err)
	}
}

func TestWorkerPool_QueueFull(t *testing.T) {
	logger := zaptest.NewLogger(t).Sugar()
	wp := NewWorkerPool(context.Background(), 1, 1, "test", logger)

	if err := wp.Start(); err != nil {
		t.Fatalf("Failed to start worker pool: %v", err)
	}
	defer wp.Stop()

	block := make(chan struct{})
	defer close(block)

	// Occupy the single worker, then fill the single queue slot.
	_ = wp.Submit(func() { <-block })
	time.Sleep(50 * time.Millisecond)
	_ = wp.Submit(func() {})

	err := wp.Submit(func() {})
	if err != ErrWorkerPoolQueueFull {
		t.Errorf("Expected ErrWorkerPoolQueueFull, got %v", err)
	}
}

func TestWorkerPool_StopDrainsQueuedTasks(t *testing.T) {
	logger := zaptest.NewLogger(t).Sugar()
	wp := NewWorkerPool(context.Background(), 1, 10, "test", logger)

	if err := wp.Start(); err != nil {
		t.Fatalf("Failed to start worker pool: %v", err)
	}

	var counter int64
	block := make(chan struct{})

	// Hold the single worker so the remaining submissions pile up in the
	// queue, then stop while they are still queued.
	_ = wp.Submit(func() { <-block })
	for i := 0; i < 5; i++ {
		if err := wp.Submit(func() {
			time.Sleep(5 * time.Millisecond)
			atomic.AddInt64(&counter, 1)
		}); err != nil {
			t.Fatalf("Failed to submit task: %v", err)
		}
	}

	close(block)
	wp.Stop()

	if got := atomic.LoadInt64(&counter); got != 5 {
		t.Errorf("Expected 5 queued tasks to run before shutdown, got %d", got)
	}
}

func TestWorkerPool_TaskPanicDoesNotKillWorker(t *testing.T) {
	logger := zaptest.NewLogger(t).Sugar()
	wp := NewWorkerPool(context.Background(), 1, 10, "test", logger)

	if err := wp.Start(); err != nil {
		t.Fatalf("Failed to start worker pool: %v", err)
	}
	defer wp.Stop()

	done := make(chan struct{})
	_ = wp.Submit(func() { panic("task exploded") })
	_ = wp.Submit(func() { close(done) })

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Worker did not survive the panicking task")
	}
}
