package availability

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/medbook/clinic-platform/internal/model"
	"github.com/medbook/clinic-platform/internal/repository"
)

// Resolver выбирает правило публикации для слота. Приоритет от частного
// к общему: time_range > weekday > default. Отсутствующее default-правило
// синтезируется на лету, поэтому разрешение всегда возвращает правило.
type Resolver struct {
	rules repository.RuleRepository
}

func NewResolver(rules repository.RuleRepository) *Resolver {
	return &Resolver{rules: rules}
}

// Resolve возвращает наиболее специфичное применимое правило.
// timeRangeID == uuid.Nil означает, что исходный диапазон слота
// неизвестен (на этапе публикации он не сохраняется), и ветка
// time_range в этом случае не рассматривается.
func (r *Resolver) Resolve(
	ctx context.Context,
	doctorBranchID uuid.UUID,
	date time.Time,
	timeRangeID uuid.UUID,
) (*model.ReleaseRule, error) {
	rules, err := r.rules.ListActiveByDoctorBranch(ctx, doctorBranchID)
	if err != nil {
		return nil, err
	}

	if timeRangeID != uuid.Nil {
		for i := range rules {
			rule := &rules[i]
			if rule.Scope == model.RuleScopeTimeRange &&
				rule.TimeRangeID != nil && *rule.TimeRangeID == timeRangeID {
				return rule, nil
			}
		}
	}

	weekday := date.Weekday()
	for i := range rules {
		rule := &rules[i]
		if rule.Scope == model.RuleScopeWeekday &&
			rule.Weekday != nil && *rule.Weekday == weekday {
			return rule, nil
		}
	}

	for i := range rules {
		if rules[i].Scope == model.RuleScopeDefault {
			return &rules[i], nil
		}
	}

	// Самолечение: default-правила нет — создаём и возвращаем его.
	return r.rules.EnsureDefault(ctx, doctorBranchID)
}

// ShouldRelease решает, пора ли публиковать слот. Чистая функция от
// правила, даты/времени слота и текущего момента; пересчитывается на
// каждом тике планировщика, а не «ждётся» как событие.
func ShouldRelease(rule *model.ReleaseRule, slotDate time.Time, slotStart string, now time.Time) (bool, error) {
	releaseDate := DateOnly(slotDate).AddDate(0, 0, -rule.ReleaseDaysBefore)
	nowDate := DateOnly(now)

	if nowDate.After(releaseDate) {
		return true, nil
	}
	if nowDate.Before(releaseDate) {
		return false, nil
	}

	// День публикации: сравниваем время суток с порогом.
	var threshold int
	switch {
	case rule.ReleaseMinutesBefore != nil:
		startMin, err := ParseTimeOfDay(slotStart)
		if err != nil {
			return false, err
		}
		threshold = startMin - *rule.ReleaseMinutesBefore
		if threshold < 0 {
			threshold = 0
		}
	case rule.ReleaseTime != nil:
		t, err := ParseTimeOfDay(*rule.ReleaseTime)
		if err != nil {
			return false, err
		}
		threshold = t
	default:
		return false, model.ErrRuleThresholdMissing
	}

	return MinutesOfDay(now) >= threshold, nil
}
