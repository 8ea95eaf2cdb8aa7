package scheduler

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/medbook/clinic-platform/internal/config"
	"github.com/medbook/clinic-platform/internal/dirsync"
	"github.com/medbook/clinic-platform/internal/model"
	"github.com/medbook/clinic-platform/internal/partition"
	"github.com/medbook/clinic-platform/internal/repository"
	"github.com/medbook/clinic-platform/internal/resilience"
)

func newTenantDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	if err != nil {
		t.Fatalf("open tenant sqlite: %v", err)
	}

	schema := []string{
		`CREATE TABLE doctor_branches (
			id TEXT PRIMARY KEY,
			global_id TEXT NOT NULL UNIQUE,
			doctor_id TEXT NOT NULL,
			branch_id TEXT NOT NULL,
			is_active INTEGER NOT NULL,
			created_at DATETIME,
			updated_at DATETIME
		);`,
		`CREATE TABLE availability_templates (
			id TEXT PRIMARY KEY,
			doctor_branch_id TEXT NOT NULL,
			weekday INTEGER NOT NULL,
			is_active INTEGER NOT NULL,
			created_at DATETIME,
			updated_at DATETIME
		);`,
		`CREATE TABLE template_time_ranges (
			id TEXT PRIMARY KEY,
			template_id TEXT NOT NULL,
			start_time TEXT NOT NULL,
			end_time TEXT NOT NULL,
			slot_duration_min INTEGER NOT NULL,
			capacity INTEGER NOT NULL DEFAULT 1,
			created_at DATETIME,
			updated_at DATETIME
		);`,
		`CREATE TABLE release_rules (
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
		);`,
		`CREATE TABLE slots (
			id TEXT PRIMARY KEY,
			global_id TEXT NOT NULL UNIQUE,
			doctor_branch_id TEXT NOT NULL,
			date DATETIME NOT NULL,
			start_time TEXT NOT NULL,
			end_time TEXT NOT NULL,
			duration_min INTEGER NOT NULL,
			total_slots INTEGER NOT NULL,
			available_slots INTEGER NOT NULL,
			status TEXT NOT NULL,
			created_at DATETIME,
			updated_at DATETIME,
			UNIQUE (doctor_branch_id, date, start_time)
		);`,
		`CREATE TABLE sync_dead_letters (
			id TEXT PRIMARY KEY,
			tenant_key TEXT NOT NULL,
			entity_kind TEXT NOT NULL,
			global_id TEXT NOT NULL,
			attempts INTEGER NOT NULL,
			last_error TEXT,
			payload TEXT,
			created_at DATETIME
		);`,
	}
	for _, stmt := range schema {
		if err := db.Exec(stmt).Error; err != nil {
			t.Fatalf("create tenant schema: %v", err)
		}
	}
	return db
}

func newDirectoryDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	if err != nil {
		t.Fatalf("open directory sqlite: %v", err)
	}

	schema := []string{
		`CREATE TABLE tenants (
			id TEXT PRIMARY KEY,
			key TEXT NOT NULL UNIQUE,
			name TEXT NOT NULL,
			schema_name TEXT NOT NULL,
			is_active INTEGER NOT NULL,
			created_at DATETIME,
			updated_at DATETIME
		);`,
		`CREATE TABLE directory_doctor_branches (
			id TEXT PRIMARY KEY,
			global_id TEXT NOT NULL UNIQUE,
			tenant_key TEXT NOT NULL,
			directory_branch_id TEXT NOT NULL,
			doctor_name TEXT NOT NULL,
			speciality TEXT,
			is_active INTEGER NOT NULL,
			created_at DATETIME,
			updated_at DATETIME
		);`,
		`CREATE TABLE directory_slots (
			id TEXT PRIMARY KEY,
			global_id TEXT NOT NULL UNIQUE,
			tenant_key TEXT NOT NULL,
			directory_doctor_branch_id TEXT NOT NULL,
			date DATETIME NOT NULL,
			start_time TEXT NOT NULL,
			end_time TEXT NOT NULL,
			duration_min INTEGER NOT NULL,
			total_slots INTEGER NOT NULL,
			available_slots INTEGER NOT NULL,
			status TEXT NOT NULL,
			created_at DATETIME,
			updated_at DATETIME
		);`,
	}
	for _, stmt := range schema {
		if err := db.Exec(stmt).Error; err != nil {
			t.Fatalf("create directory schema: %v", err)
		}
	}
	return db
}

type fixture struct {
	orchestrator *Orchestrator
	tenantDB     *gorm.DB
	directoryDB  *gorm.DB
}

// Монтирует тенанта "alfa" с шаблоном на понедельник 09:00-10:00/30 и
// default-правилом, публикующим слоты сразу (за 60 дней, с 00:00).
func newFixture(t *testing.T, now time.Time) *fixture {
	t.Helper()

	tenantDB := newTenantDB(t)
	directoryDB := newDirectoryDB(t)

	manager := partition.NewManager(directoryDB)
	manager.RegisterTenant(partition.Key("alfa"), tenantDB)

	if err := directoryDB.Create(&model.Tenant{
		ID:         uuid.New(),
		Key:        "alfa",
		Name:       "Клиника Альфа",
		SchemaName: "tenant_alfa",
		IsActive:   true,
	}).Error; err != nil {
		t.Fatalf("seed tenant record: %v", err)
	}

	doctorBranchGlobalID := uuid.New()
	doctorBranchID := uuid.New()

	if err := tenantDB.Create(&model.DoctorBranch{
		ID:       doctorBranchID,
		GlobalID: doctorBranchGlobalID,
		DoctorID: uuid.New(),
		BranchID: uuid.New(),
		IsActive: true,
	}).Error; err != nil {
		t.Fatalf("seed doctor branch: %v", err)
	}

	if err := directoryDB.Create(&model.DirectoryDoctorBranch{
		ID:                uuid.New(),
		GlobalID:          doctorBranchGlobalID,
		TenantKey:         "alfa",
		DirectoryBranchID: uuid.New(),
		DoctorName:        "Dr. Ivanova",
		IsActive:          true,
	}).Error; err != nil {
		t.Fatalf("seed directory doctor branch: %v", err)
	}

	tpl := model.AvailabilityTemplate{
		ID:             uuid.New(),
		DoctorBranchID: doctorBranchID,
		Weekday:        time.Monday,
		IsActive:       true,
	}
	if err := tenantDB.Create(&tpl).Error; err != nil {
		t.Fatalf("seed template: %v", err)
	}
	if err := tenantDB.Create(&model.TemplateTimeRange{
		ID:              uuid.New(),
		TemplateID:      tpl.ID,
		StartTime:       "09:00",
		EndTime:         "10:00",
		SlotDurationMin: 30,
		Capacity:        1,
	}).Error; err != nil {
		t.Fatalf("seed time range: %v", err)
	}

	rule := model.NewDefaultRule(doctorBranchID, 60, "00:00")
	if err := tenantDB.Create(rule).Error; err != nil {
		t.Fatalf("seed rule: %v", err)
	}

	cfg := &config.SchedulerConfig{
		Interval:          time.Minute,
		HorizonDays:       6,
		ReleaseWindowDays: 30,
		Parallelism:       1,
	}

	breaker := resilience.NewBreaker(5, 5*time.Minute)
	monitor := resilience.NewMonitor()
	retrier := resilience.NewRetrier(breaker, monitor, 3, time.Millisecond, 16)
	guard := resilience.NewGuard(breaker, monitor, retrier)
	syncer := dirsync.NewSynchronizer(repository.NewGormDirectoryRepository(directoryDB))

	o := NewOrchestrator(manager, repository.NewGormTenantRepository(directoryDB), syncer, guard, cfg)
	o.now = func() time.Time { return now }

	return &fixture{
		orchestrator: o,
		tenantDB:     tenantDB,
		directoryDB:  directoryDB,
	}
}

func TestOrchestrator_FullPipeline(t *testing.T) {
	// 2025-06-02 — понедельник.
	now := time.Date(2025, 6, 2, 8, 0, 0, 0, time.UTC)
	f := newFixture(t, now)
	ctx := context.Background()

	f.orchestrator.RunOnce(ctx)

	// Материализация: один понедельник в горизонте, два слота.
	var slots []model.Slot
	if err := f.tenantDB.Order("start_time ASC").Find(&slots).Error; err != nil {
		t.Fatalf("load tenant slots: %v", err)
	}
	if len(slots) != 2 {
		t.Fatalf("expected 2 tenant slots, got %d", len(slots))
	}

	// Публикация: правило отпускает слоты сразу.
	for _, s := range slots {
		if s.Status != model.SlotStatusAvailable {
			t.Fatalf("expected available status, got %s", s.Status)
		}
	}

	// Синхронизация: обе записи в directory с теми же GlobalID.
	var dirSlots []model.DirectorySlot
	if err := f.directoryDB.Order("start_time ASC").Find(&dirSlots).Error; err != nil {
		t.Fatalf("load directory slots: %v", err)
	}
	if len(dirSlots) != 2 {
		t.Fatalf("expected 2 directory slots, got %d", len(dirSlots))
	}
	for i := range dirSlots {
		if dirSlots[i].GlobalID != slots[i].GlobalID {
			t.Fatalf("slot %d: global id mismatch: %s vs %s", i, dirSlots[i].GlobalID, slots[i].GlobalID)
		}
		if dirSlots[i].Status != model.SlotStatusAvailable {
			t.Fatalf("slot %d: expected available in directory, got %s", i, dirSlots[i].Status)
		}
	}
}

func TestOrchestrator_RerunIsIdempotent(t *testing.T) {
	now := time.Date(2025, 6, 2, 8, 0, 0, 0, time.UTC)
	f := newFixture(t, now)
	ctx := context.Background()

	f.orchestrator.RunOnce(ctx)
	f.orchestrator.RunOnce(ctx)

	var tenantCount, dirCount int64
	if err := f.tenantDB.Model(&model.Slot{}).Count(&tenantCount).Error; err != nil {
		t.Fatalf("count tenant slots: %v", err)
	}
	if err := f.directoryDB.Model(&model.DirectorySlot{}).Count(&dirCount).Error; err != nil {
		t.Fatalf("count directory slots: %v", err)
	}
	if tenantCount != 2 {
		t.Fatalf("expected 2 tenant slots after rerun, got %d", tenantCount)
	}
	if dirCount != 2 {
		t.Fatalf("expected 2 directory slots after rerun, got %d", dirCount)
	}
}

func TestOrchestrator_TenantIsolation(t *testing.T) {
	now := time.Date(2025, 6, 2, 8, 0, 0, 0, time.UTC)
	f := newFixture(t, now)
	ctx := context.Background()

	// Тенант "beta" числится в реестре, но партиция не зарегистрирована:
	// его цикл падает, обработка "alfa" продолжается.
	if err := f.directoryDB.Create(&model.Tenant{
		ID:         uuid.New(),
		Key:        "beta",
		Name:       "Клиника Бета",
		SchemaName: "tenant_beta",
		IsActive:   true,
	}).Error; err != nil {
		t.Fatalf("seed beta tenant: %v", err)
	}

	f.orchestrator.RunOnce(ctx)

	var count int64
	if err := f.tenantDB.Model(&model.Slot{}).Count(&count).Error; err != nil {
		t.Fatalf("count tenant slots: %v", err)
	}
	if count != 2 {
		t.Fatalf("expected alfa processed despite beta failure, got %d slots", count)
	}
}
