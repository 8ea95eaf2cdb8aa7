package scheduler

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/medbook/clinic-platform/internal/availability"
	"github.com/medbook/clinic-platform/internal/config"
	"github.com/medbook/clinic-platform/internal/dirsync"
	"github.com/medbook/clinic-platform/internal/logger"
	"github.com/medbook/clinic-platform/internal/metrics"
	"github.com/medbook/clinic-platform/internal/model"
	"github.com/medbook/clinic-platform/internal/partition"
	"github.com/medbook/clinic-platform/internal/repository"
	"github.com/medbook/clinic-platform/internal/resilience"
)

// Orchestrator гоняет по таймеру конвейер каждого тенанта:
// материализация → публикация → синхронизация, строго в этом порядке.
// Тенанты независимы: паника или ошибка одного не прерывает остальных,
// а каждый шаг идемпотентен, поэтому повторный запуск безопасен.
type Orchestrator struct {
	manager *partition.Manager
	tenants repository.TenantRepository
	syncer  *dirsync.Synchronizer
	guard   *resilience.Guard
	cfg     *config.SchedulerConfig

	now func() time.Time
}

func NewOrchestrator(
	manager *partition.Manager,
	tenants repository.TenantRepository,
	syncer *dirsync.Synchronizer,
	guard *resilience.Guard,
	cfg *config.SchedulerConfig,
) *Orchestrator {
	return &Orchestrator{
		manager: manager,
		tenants: tenants,
		syncer:  syncer,
		guard:   guard,
		cfg:     cfg,
		now:     time.Now,
	}
}

// Run блокируется до отмены контекста, выполняя прогон на каждом тике.
// Первый прогон выполняется сразу, не дожидаясь таймера.
func (o *Orchestrator) Run(ctx context.Context) {
	ticker := time.NewTicker(o.cfg.Interval)
	defer ticker.Stop()

	o.RunOnce(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			o.RunOnce(ctx)
		}
	}
}

// RunOnce выполняет один полный прогон по всем активным тенантам.
// Безопасен для вызова по требованию, например после правки шаблона.
func (o *Orchestrator) RunOnce(ctx context.Context) {
	tenants, err := o.tenants.ListActive(ctx)
	if err != nil {
		logger.Log.Error("tenant enumeration failed", zap.Error(err))
		return
	}

	parallelism := o.cfg.Parallelism
	if parallelism < 1 {
		parallelism = 1
	}

	sem := make(chan struct{}, parallelism)
	var wg sync.WaitGroup

	for _, tenant := range tenants {
		key := partition.Key(tenant.Key)
		wg.Add(1)
		sem <- struct{}{}
		go func() {
			defer wg.Done()
			defer func() { <-sem }()
			o.processTenant(ctx, key)
		}()
	}

	wg.Wait()
}

func (o *Orchestrator) processTenant(ctx context.Context, key partition.Key) {
	defer func() {
		if p := recover(); p != nil {
			logger.Log.Error("tenant cycle panicked",
				zap.String("tenant", string(key)),
				zap.Any("panic", p),
			)
		}
	}()

	started := o.now()
	defer func() {
		metrics.TenantCycleDuration.
			WithLabelValues(string(key)).
			Observe(o.now().Sub(started).Seconds())
	}()

	db, err := o.manager.Tenant(key)
	if err != nil {
		logger.Log.Error("tenant partition unavailable",
			zap.String("tenant", string(key)),
			zap.Error(err),
		)
		return
	}

	ctx = partition.WithTenant(ctx, key)

	templateRepo := repository.NewGormTemplateRepository(db)
	slotRepo := repository.NewGormSlotRepository(db)
	ruleRepo := repository.NewGormRuleRepository(db)
	deadLetterRepo := repository.NewGormDeadLetterRepository(db)

	now := o.now()

	// 1. Материализация шаблонов в датированные слоты.
	materializer := availability.NewMaterializer(templateRepo, slotRepo, o.cfg.HorizonDays)
	report, err := materializer.Materialize(ctx, now)
	if err != nil {
		logger.Log.Error("materialization failed",
			zap.String("tenant", string(key)),
			zap.Error(err),
		)
		report = &availability.MaterializeReport{}
	}
	if report.Created > 0 {
		metrics.SlotsMaterialized.WithLabelValues(string(key)).Add(float64(report.Created))
	}

	// 2. Публикация: pending → available по правилам.
	resolver := availability.NewResolver(ruleRepo)
	released := o.releasePending(ctx, key, slotRepo, resolver, now)

	// 3. Синхронизация в directory: опубликованные плюс свежесозданные.
	ids := make(map[uuid.UUID]struct{}, len(released)+len(report.CreatedSlots))
	for _, s := range released {
		ids[s.GlobalID] = struct{}{}
	}
	for _, s := range report.CreatedSlots {
		ids[s.GlobalID] = struct{}{}
	}
	if len(ids) == 0 {
		return
	}

	globalIDs := make([]uuid.UUID, 0, len(ids))
	for id := range ids {
		globalIDs = append(globalIDs, id)
	}

	// Перечитываем из партиции: нужен подгруженный владелец и
	// актуальный статус на момент синхронизации.
	batch, err := slotRepo.ListByGlobalIDs(ctx, globalIDs)
	if err != nil {
		logger.Log.Error("sync batch load failed",
			zap.String("tenant", string(key)),
			zap.Error(err),
		)
		return
	}

	op := func(ctx context.Context) error {
		rep := o.syncer.SyncSlots(ctx, key, batch)
		// Поштучные отказы остаются в отчёте; признак транзиентной
		// беды — когда не прошла ни одна запись.
		if rep.Failed > 0 && rep.Inserted+rep.Updated == 0 {
			return fmt.Errorf("directory sync: all %d items failed", rep.Failed)
		}
		return nil
	}
	onExhausted := func(ctx context.Context, attempts int, err error) {
		o.recordDeadLetters(ctx, key, deadLetterRepo, batch, attempts, err)
	}

	o.guard.Run(ctx, key, op, onExhausted)
}

func (o *Orchestrator) releasePending(
	ctx context.Context,
	key partition.Key,
	slotRepo repository.SlotRepository,
	resolver *availability.Resolver,
	now time.Time,
) []model.Slot {
	from := availability.DateOnly(now)
	to := from.AddDate(0, 0, o.cfg.ReleaseWindowDays)

	pending, err := slotRepo.ListPendingInWindow(ctx, from, to)
	if err != nil {
		logger.Log.Error("pending slots load failed",
			zap.String("tenant", string(key)),
			zap.Error(err),
		)
		return nil
	}

	var released []model.Slot
	for i := range pending {
		slot := &pending[i]

		// Исходный диапазон шаблона слот не хранит, поэтому ветка
		// time_range на этапе публикации недоступна.
		rule, err := resolver.Resolve(ctx, slot.DoctorBranchID, time.Time(slot.Date), uuid.Nil)
		if err != nil {
			logger.Log.Warn("rule resolution failed",
				zap.String("tenant", string(key)),
				zap.String("slot_global_id", slot.GlobalID.String()),
				zap.Error(err),
			)
			continue
		}

		ok, err := availability.ShouldRelease(rule, time.Time(slot.Date), slot.StartTime, now)
		if err != nil {
			logger.Log.Warn("release evaluation failed",
				zap.String("tenant", string(key)),
				zap.String("slot_global_id", slot.GlobalID.String()),
				zap.Error(err),
			)
			continue
		}
		if !ok {
			continue
		}

		if err := slotRepo.UpdateStatus(ctx, slot.ID, model.SlotStatusAvailable); err != nil {
			logger.Log.Error("slot release failed",
				zap.String("tenant", string(key)),
				zap.String("slot_global_id", slot.GlobalID.String()),
				zap.Error(err),
			)
			continue
		}

		slot.Status = model.SlotStatusAvailable
		released = append(released, *slot)
	}

	if len(released) > 0 {
		metrics.SlotsReleased.WithLabelValues(string(key)).Add(float64(len(released)))
	}
	return released
}

func (o *Orchestrator) recordDeadLetters(
	ctx context.Context,
	key partition.Key,
	deadLetters repository.DeadLetterRepository,
	batch []model.Slot,
	attempts int,
	cause error,
) {
	lastError := ""
	if cause != nil {
		lastError = cause.Error()
	}

	for i := range batch {
		slot := &batch[i]

		payload, err := json.Marshal(map[string]any{
			"global_id":       slot.GlobalID,
			"date":            time.Time(slot.Date).Format("2006-01-02"),
			"start_time":      slot.StartTime,
			"end_time":        slot.EndTime,
			"status":          slot.Status,
			"total_slots":     slot.TotalSlots,
			"available_slots": slot.AvailableSlots,
		})
		if err != nil {
			payload = nil
		}

		item := &model.SyncDeadLetter{
			ID:         uuid.New(),
			TenantKey:  string(key),
			EntityKind: "slot",
			GlobalID:   slot.GlobalID,
			Attempts:   attempts,
			LastError:  lastError,
			Payload:    payload,
		}
		if err := deadLetters.Record(ctx, item); err != nil {
			logger.Log.Error("dead letter record failed",
				zap.String("tenant", string(key)),
				zap.String("global_id", slot.GlobalID.String()),
				zap.Error(err),
			)
			continue
		}
		metrics.DeadLetters.WithLabelValues(string(key)).Inc()
	}
}
