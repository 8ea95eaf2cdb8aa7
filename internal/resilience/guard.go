package resilience

import (
	"context"

	"go.uber.org/zap"

	"github.com/medbook/clinic-platform/internal/logger"
	"github.com/medbook/clinic-platform/internal/partition"
)

// Guard связывает синхронный путь синхронизации с breaker, монитором
// и асинхронными ретраями: одна точка входа для оркестратора.
type Guard struct {
	breaker *Breaker
	monitor *Monitor
	retrier *Retrier
}

func NewGuard(breaker *Breaker, monitor *Monitor, retrier *Retrier) *Guard {
	return &Guard{
		breaker: breaker,
		monitor: monitor,
		retrier: retrier,
	}
}

// Run выполняет op синхронно, если breaker закрыт. Отказ или открытый
// breaker переводят задачу на асинхронные ретраи; оркестратор в обоих
// случаях продолжает работу, ошибка наружу не поднимается.
func (g *Guard) Run(
	ctx context.Context,
	tenant partition.Key,
	op func(ctx context.Context) error,
	onExhausted func(ctx context.Context, attempts int, err error),
) {
	task := Task{Tenant: tenant, Op: op, OnExhausted: onExhausted}

	if g.breaker.IsOpen(tenant) {
		logger.Log.Warn("breaker open, skipping synchronous sync",
			zap.String("tenant", string(tenant)),
		)
		g.enqueue(ctx, task)
		return
	}

	err := op(ctx)
	if err == nil {
		g.breaker.RecordSuccess(tenant)
		g.monitor.RecordSuccess(tenant)
		return
	}

	g.breaker.RecordFailure(tenant)
	g.monitor.RecordFailure(tenant, err)
	logger.Log.Warn("synchronous sync failed, scheduling retries",
		zap.String("tenant", string(tenant)),
		zap.Error(err),
	)
	g.enqueue(ctx, task)
}

func (g *Guard) enqueue(ctx context.Context, task Task) {
	if err := g.retrier.Enqueue(task); err != nil {
		logger.Log.Error("retry enqueue failed, task dropped",
			zap.String("tenant", string(task.Tenant)),
			zap.Error(err),
		)
		if task.OnExhausted != nil {
			task.OnExhausted(ctx, 0, err)
		}
	}
}
