package availability

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/medbook/clinic-platform/internal/model"
	"github.com/medbook/clinic-platform/internal/repository"
)

func mustDate(t *testing.T, year int, month time.Month, day int) time.Time {
	t.Helper()
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

func mustMoment(t *testing.T, year int, month time.Month, day, hour, min int) time.Time {
	t.Helper()
	return time.Date(year, month, day, hour, min, 0, 0, time.UTC)
}

func newRulesDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}

	// Минимальная sqlite-схема для правил публикации.
	schema := `CREATE TABLE release_rules (
		id TEXT PRIMARY KEY,
		doctor_branch_id TEXT NOT NULL,
		scope TEXT NOT NULL,
		weekday INTEGER,
		time_range_id TEXT,
		release_days_before INTEGER NOT NULL,
		release_time TEXT,
		release_minutes_before INTEGER,
		is_active INTEGER NOT NULL,
		deactivated_at DATETIME,
		created_at DATETIME,
		updated_at DATETIME
	);`
	if err := db.Exec(schema).Error; err != nil {
		t.Fatalf("create schema: %v", err)
	}
	return db
}

//
// Тесты приоритета разрешения: time_range > weekday > default
//

func TestResolver_Priority(t *testing.T) {
	db := newRulesDB(t)
	rules := repository.NewGormRuleRepository(db)
	resolver := NewResolver(rules)
	ctx := context.Background()

	doctorBranchID := uuid.New()
	rangeID := uuid.New()
	otherRangeID := uuid.New()

	defaultRule := model.NewDefaultRule(doctorBranchID, 1, "06:00")
	weekdayRule := model.NewWeekdayRule(doctorBranchID, time.Monday, 2, "08:00")
	rangeRule := model.NewTimeRangeRule(doctorBranchID, rangeID, 3, "10:00")

	for _, rule := range []*model.ReleaseRule{defaultRule, weekdayRule, rangeRule} {
		if err := rules.Create(ctx, rule); err != nil {
			t.Fatalf("seed rule: %v", err)
		}
	}

	// 2025-06-02 — понедельник.
	monday := mustDate(t, 2025, 6, 2)
	tuesday := mustDate(t, 2025, 6, 3)

	got, err := resolver.Resolve(ctx, doctorBranchID, monday, rangeID)
	if err != nil {
		t.Fatalf("resolve monday in range: %v", err)
	}
	if got.Scope != model.RuleScopeTimeRange {
		t.Fatalf("expected time_range rule, got %s", got.Scope)
	}

	got, err = resolver.Resolve(ctx, doctorBranchID, monday, otherRangeID)
	if err != nil {
		t.Fatalf("resolve monday out of range: %v", err)
	}
	if got.Scope != model.RuleScopeWeekday {
		t.Fatalf("expected weekday rule, got %s", got.Scope)
	}

	got, err = resolver.Resolve(ctx, doctorBranchID, tuesday, otherRangeID)
	if err != nil {
		t.Fatalf("resolve tuesday: %v", err)
	}
	if got.Scope != model.RuleScopeDefault {
		t.Fatalf("expected default rule, got %s", got.Scope)
	}
}

func TestResolver_SynthesizesDefault(t *testing.T) {
	db := newRulesDB(t)
	rules := repository.NewGormRuleRepository(db)
	resolver := NewResolver(rules)
	ctx := context.Background()

	doctorBranchID := uuid.New()

	got, err := resolver.Resolve(ctx, doctorBranchID, mustDate(t, 2025, 6, 2), uuid.Nil)
	if err != nil {
		t.Fatalf("resolve without rules: %v", err)
	}
	if got.Scope != model.RuleScopeDefault {
		t.Fatalf("expected synthesized default rule, got %s", got.Scope)
	}
	if got.ReleaseDaysBefore != repository.DefaultReleaseDaysBefore {
		t.Fatalf("expected releaseDaysBefore=%d, got %d", repository.DefaultReleaseDaysBefore, got.ReleaseDaysBefore)
	}
	if got.ReleaseTime == nil || *got.ReleaseTime != repository.DefaultReleaseTime {
		t.Fatalf("expected releaseTime=%s, got %v", repository.DefaultReleaseTime, got.ReleaseTime)
	}

	// Правило должно быть сохранено, а не только возвращено.
	var count int64
	if err := db.Model(&model.ReleaseRule{}).
		Where("doctor_branch_id = ?", doctorBranchID).
		Count(&count).Error; err != nil {
		t.Fatalf("count rules: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected 1 persisted rule, got %d", count)
	}
}

//
// Тесты границы публикации
//

func TestShouldRelease_AbsoluteTimeBoundary(t *testing.T) {
	doctorBranchID := uuid.New()
	rule := model.NewDefaultRule(doctorBranchID, 1, "06:00")

	// Слот на завтра, день публикации — сегодня.
	slotDate := mustDate(t, 2025, 6, 3)

	cases := []struct {
		name string
		now  time.Time
		want bool
	}{
		{"before threshold", mustMoment(t, 2025, 6, 2, 5, 59), false},
		{"exactly at threshold", mustMoment(t, 2025, 6, 2, 6, 0), true},
		{"after threshold", mustMoment(t, 2025, 6, 2, 12, 0), true},
		{"day after release date", mustMoment(t, 2025, 6, 4, 0, 1), true},
		{"day before release date", mustMoment(t, 2025, 6, 1, 23, 59), false},
	}

	for _, tc := range cases {
		got, err := ShouldRelease(rule, slotDate, "10:00", tc.now)
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", tc.name, err)
		}
		if got != tc.want {
			t.Fatalf("%s: expected %v, got %v", tc.name, tc.want, got)
		}
	}
}

func TestShouldRelease_MinutesBeforeSlot(t *testing.T) {
	doctorBranchID := uuid.New()
	minutesBefore := 30
	rule := &model.ReleaseRule{
		ID:                   uuid.New(),
		DoctorBranchID:       doctorBranchID,
		Scope:                model.RuleScopeDefault,
		ReleaseDaysBefore:    0,
		ReleaseMinutesBefore: &minutesBefore,
		IsActive:             true,
	}

	slotDate := mustDate(t, 2025, 6, 2)

	got, err := ShouldRelease(rule, slotDate, "10:00", mustMoment(t, 2025, 6, 2, 9, 29))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got {
		t.Fatalf("expected no release at 09:29 for 10:00 slot with 30min offset")
	}

	got, err = ShouldRelease(rule, slotDate, "10:00", mustMoment(t, 2025, 6, 2, 9, 30))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !got {
		t.Fatalf("expected release at 09:30 for 10:00 slot with 30min offset")
	}
}

func TestShouldRelease_MalformedRuleTime(t *testing.T) {
	doctorBranchID := uuid.New()
	rule := model.NewDefaultRule(doctorBranchID, 0, "morning")

	_, err := ShouldRelease(rule, mustDate(t, 2025, 6, 2), "10:00", mustMoment(t, 2025, 6, 2, 9, 0))
	if err == nil {
		t.Fatalf("expected error for malformed release time, got nil")
	}
}
