package availability

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/medbook/clinic-platform/internal/logger"
	"github.com/medbook/clinic-platform/internal/model"
	"github.com/medbook/clinic-platform/internal/partition"
	"github.com/medbook/clinic-platform/internal/repository"
)

// tenantField достаёт активного тенанта из контекста для логов.
// Вне тенантного цикла (прямые вызовы, тесты) поле остаётся пустым.
func tenantField(ctx context.Context) zap.Field {
	key, _ := partition.TenantFromContext(ctx)
	return zap.String("tenant", string(key))
}

// MaterializeReport — итог одного прогона материализации.
type MaterializeReport struct {
	Created int
	Skipped int
	Failed  int

	// Созданные в этом прогоне слоты, кандидаты на синхронизацию.
	CreatedSlots []model.Slot
}

// Materializer разворачивает активные недельные шаблоны в конкретные
// датированные слоты на скользящем горизонте. Повторный прогон по тем
// же шаблонам ничего не дублирует: ключ (врач-филиал, дата, начало)
// проверяется перед вставкой и закрыт уникальным индексом.
type Materializer struct {
	templates   repository.TemplateRepository
	slots       repository.SlotRepository
	horizonDays int
}

func NewMaterializer(
	templates repository.TemplateRepository,
	slots repository.SlotRepository,
	horizonDays int,
) *Materializer {
	if horizonDays <= 0 {
		horizonDays = 30
	}
	return &Materializer{
		templates:   templates,
		slots:       slots,
		horizonDays: horizonDays,
	}
}

// Materialize прогоняет все активные шаблоны по горизонту
// [сегодня, сегодня+horizonDays]. Ошибки отдельных диапазонов и слотов
// логируются и пропускаются, прогон продолжается.
func (m *Materializer) Materialize(ctx context.Context, now time.Time) (*MaterializeReport, error) {
	templates, err := m.templates.ListActive(ctx)
	if err != nil {
		return nil, err
	}

	byWeekday := make(map[time.Weekday][]model.AvailabilityTemplate)
	for _, tpl := range templates {
		byWeekday[tpl.Weekday] = append(byWeekday[tpl.Weekday], tpl)
	}

	report := &MaterializeReport{}
	today := DateOnly(now)

	for day := 0; day <= m.horizonDays; day++ {
		date := today.AddDate(0, 0, day)
		for _, tpl := range byWeekday[date.Weekday()] {
			for _, tr := range tpl.TimeRanges {
				m.materializeRange(ctx, tpl, tr, date, report)
			}
		}
	}

	return report, nil
}

func (m *Materializer) materializeRange(
	ctx context.Context,
	tpl model.AvailabilityTemplate,
	tr model.TemplateTimeRange,
	date time.Time,
	report *MaterializeReport,
) {
	intervals, err := SplitRange(tr.StartTime, tr.EndTime, tr.SlotDurationMin)
	if err != nil {
		// Кривой диапазон не валит прогон, только свой кусок.
		logger.Log.Warn("skip malformed template time range",
			tenantField(ctx),
			zap.String("template_id", tpl.ID.String()),
			zap.String("time_range_id", tr.ID.String()),
			zap.Error(err),
		)
		report.Failed++
		return
	}

	for _, iv := range intervals {
		exists, err := m.slots.Exists(ctx, tpl.DoctorBranchID, date, iv.Start)
		if err != nil {
			logger.Log.Error("slot existence check failed",
				tenantField(ctx),
				zap.String("doctor_branch_id", tpl.DoctorBranchID.String()),
				zap.Time("date", date),
				zap.String("start_time", iv.Start),
				zap.Error(err),
			)
			report.Failed++
			continue
		}
		if exists {
			report.Skipped++
			continue
		}

		capacity := tr.Capacity
		if capacity <= 0 {
			capacity = 1
		}

		slot := model.Slot{
			ID:             uuid.New(),
			GlobalID:       uuid.New(),
			DoctorBranchID: tpl.DoctorBranchID,
			Date:           datatypes.Date(date),
			StartTime:      iv.Start,
			EndTime:        iv.End,
			DurationMin:    tr.SlotDurationMin,
			TotalSlots:     capacity,
			AvailableSlots: capacity,
			Status:         model.SlotStatusPending,
		}

		if err := m.slots.Create(ctx, &slot); err != nil {
			// Конкурентный дубль упирается в уникальный индекс — это
			// обычный skip, а не отказ.
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				report.Skipped++
				continue
			}
			logger.Log.Error("slot create failed",
				tenantField(ctx),
				zap.String("doctor_branch_id", tpl.DoctorBranchID.String()),
				zap.Time("date", date),
				zap.String("start_time", iv.Start),
				zap.Error(err),
			)
			report.Failed++
			continue
		}

		report.Created++
		report.CreatedSlots = append(report.CreatedSlots, slot)
	}
}
