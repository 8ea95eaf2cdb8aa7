package resilience

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/medbook/clinic-platform/internal/logger"
	"github.com/medbook/clinic-platform/internal/partition"
)

var (
	ErrBreakerOpen = errors.New("circuit breaker is open")
	ErrQueueFull   = errors.New("retry queue is full")
	ErrRetrierStop = errors.New("retrier is stopped")
)

// Task — одна отложенная попытка синхронизации.
type Task struct {
	Tenant partition.Key
	// Op выполняет собственно синхронизацию; должен быть идемпотентен.
	Op func(ctx context.Context) error
	// OnExhausted вызывается после исчерпания всех попыток.
	OnExhausted func(ctx context.Context, attempts int, err error)
}

// Retrier — ограниченный асинхронный ретрай с бэкоффом. Очередь живёт
// только в памяти: при рестарте процесса невыполненные задачи теряются,
// терминальные отказы перед этим уходят в dead letter через OnExhausted.
type Retrier struct {
	breaker  *Breaker
	monitor  *Monitor
	attempts int
	backoff  time.Duration

	queue chan Task
	wg    sync.WaitGroup

	mu      sync.Mutex
	stopped bool
}

func NewRetrier(breaker *Breaker, monitor *Monitor, attempts int, backoff time.Duration, queueSize int) *Retrier {
	if attempts <= 0 {
		attempts = 3
	}
	if backoff <= 0 {
		backoff = time.Second
	}
	if queueSize <= 0 {
		queueSize = 256
	}
	return &Retrier{
		breaker:  breaker,
		monitor:  monitor,
		attempts: attempts,
		backoff:  backoff,
		queue:    make(chan Task, queueSize),
	}
}

// Start запускает пул воркеров. Воркеры живут до Stop либо до отмены ctx.
func (r *Retrier) Start(ctx context.Context, workers int) {
	if workers <= 0 {
		workers = 2
	}
	for i := 0; i < workers; i++ {
		r.wg.Add(1)
		go func() {
			defer r.wg.Done()
			for {
				select {
				case <-ctx.Done():
					return
				case task, ok := <-r.queue:
					if !ok {
						return
					}
					r.process(ctx, task)
				}
			}
		}()
	}
}

// Stop закрывает очередь и дожидается воркеров.
func (r *Retrier) Stop() {
	r.mu.Lock()
	if !r.stopped {
		r.stopped = true
		close(r.queue)
	}
	r.mu.Unlock()
	r.wg.Wait()
}

// Enqueue ставит задачу в очередь. Полная очередь или остановленный
// retrier — отказ без блокировки, о нём сообщает ошибка.
func (r *Retrier) Enqueue(task Task) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.stopped {
		return ErrRetrierStop
	}
	select {
	case r.queue <- task:
		return nil
	default:
		return ErrQueueFull
	}
}

func (r *Retrier) process(ctx context.Context, task Task) {
	var lastErr error

	for attempt := 1; attempt <= r.attempts; attempt++ {
		// Пауза растёт линейно с номером попытки.
		select {
		case <-ctx.Done():
			return
		case <-time.After(time.Duration(attempt) * r.backoff):
		}

		// Breaker перепроверяется на каждой попытке.
		if r.breaker.IsOpen(task.Tenant) {
			lastErr = ErrBreakerOpen
			r.monitor.RecordFailure(task.Tenant, ErrBreakerOpen)
			continue
		}

		err := task.Op(ctx)
		if err == nil {
			r.breaker.RecordSuccess(task.Tenant)
			r.monitor.RecordSuccess(task.Tenant)
			return
		}

		lastErr = err
		r.breaker.RecordFailure(task.Tenant)
		r.monitor.RecordFailure(task.Tenant, err)
	}

	logger.Log.Error("sync retries exhausted",
		zap.String("tenant", string(task.Tenant)),
		zap.Int("attempts", r.attempts),
		zap.Error(lastErr),
	)

	if task.OnExhausted != nil {
		task.OnExhausted(ctx, r.attempts, lastErr)
	}
}
