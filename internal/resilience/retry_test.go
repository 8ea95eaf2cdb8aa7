package resilience

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/medbook/clinic-platform/internal/partition"
)

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("condition not met within %v", timeout)
}

func TestRetrier_SucceedsAfterFailures(t *testing.T) {
	breaker := NewBreaker(10, time.Minute)
	monitor := NewMonitor()
	r := NewRetrier(breaker, monitor, 3, time.Millisecond, 16)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	r.Start(ctx, 1)
	defer r.Stop()

	key := partition.Key("alfa")
	var calls int32

	err := r.Enqueue(Task{
		Tenant: key,
		Op: func(ctx context.Context) error {
			if atomic.AddInt32(&calls, 1) < 3 {
				return errors.New("directory unavailable")
			}
			return nil
		},
	})
	if err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	waitFor(t, 2*time.Second, func() bool {
		success, _, _ := monitor.Stats(key)
		return success == 1
	})

	_, failure, _ := monitor.Stats(key)
	if failure != 2 {
		t.Fatalf("expected 2 recorded failures, got %d", failure)
	}
	if got := breaker.Failures(key); got != 0 {
		t.Fatalf("expected breaker reset after success, got %d failures", got)
	}
}

func TestRetrier_ExhaustionCallsHook(t *testing.T) {
	breaker := NewBreaker(10, time.Minute)
	monitor := NewMonitor()
	r := NewRetrier(breaker, monitor, 2, time.Millisecond, 16)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	r.Start(ctx, 1)
	defer r.Stop()

	key := partition.Key("alfa")
	opErr := errors.New("directory unavailable")

	type exhausted struct {
		attempts int
		err      error
	}
	done := make(chan exhausted, 1)

	err := r.Enqueue(Task{
		Tenant: key,
		Op: func(ctx context.Context) error {
			return opErr
		},
		OnExhausted: func(ctx context.Context, attempts int, err error) {
			done <- exhausted{attempts: attempts, err: err}
		},
	})
	if err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	select {
	case got := <-done:
		if got.attempts != 2 {
			t.Fatalf("expected 2 attempts, got %d", got.attempts)
		}
		if !errors.Is(got.err, opErr) {
			t.Fatalf("expected op error, got %v", got.err)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("OnExhausted was not called")
	}

	if got := breaker.Failures(key); got != 2 {
		t.Fatalf("expected 2 breaker failures, got %d", got)
	}
}

func TestRetrier_OpenBreakerSkipsOp(t *testing.T) {
	// Порог 1: первый же отказ открывает breaker, дальнейшие попытки
	// не должны дёргать op.
	breaker := NewBreaker(1, time.Hour)
	monitor := NewMonitor()
	r := NewRetrier(breaker, monitor, 3, time.Millisecond, 16)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	r.Start(ctx, 1)
	defer r.Stop()

	key := partition.Key("alfa")
	var calls int32
	done := make(chan struct{}, 1)

	err := r.Enqueue(Task{
		Tenant: key,
		Op: func(ctx context.Context) error {
			atomic.AddInt32(&calls, 1)
			return errors.New("boom")
		},
		OnExhausted: func(ctx context.Context, attempts int, err error) {
			done <- struct{}{}
		},
	})
	if err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("OnExhausted was not called")
	}

	if got := atomic.LoadInt32(&calls); got != 1 {
		t.Fatalf("expected exactly 1 op call with open breaker, got %d", got)
	}
}

func TestRetrier_QueueFull(t *testing.T) {
	breaker := NewBreaker(5, time.Minute)
	monitor := NewMonitor()
	r := NewRetrier(breaker, monitor, 1, time.Millisecond, 1)
	// Воркеры не запущены — очередь никто не разгребает.

	task := Task{Tenant: partition.Key("alfa"), Op: func(ctx context.Context) error { return nil }}
	if err := r.Enqueue(task); err != nil {
		t.Fatalf("first enqueue: %v", err)
	}
	if err := r.Enqueue(task); !errors.Is(err, ErrQueueFull) {
		t.Fatalf("expected ErrQueueFull, got %v", err)
	}
}
