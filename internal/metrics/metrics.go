package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Метрики фонового конвейера доступности и межпартиционной синхронизации.
var (
	// Материализация слотов
	SlotsMaterialized = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "clinic_slots_materialized_total",
			Help: "Количество созданных материализатором слотов",
		},
		[]string{"tenant"},
	)

	SlotsReleased = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "clinic_slots_released_total",
			Help: "Количество слотов, переведённых в available",
		},
		[]string{"tenant"},
	)

	// Синхронизация в directory-партицию
	SyncSuccess = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "clinic_sync_success_total",
			Help: "Успешные попытки синхронизации по тенантам",
		},
		[]string{"tenant"},
	)

	SyncFailure = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "clinic_sync_failure_total",
			Help: "Неуспешные попытки синхронизации по тенантам",
		},
		[]string{"tenant"},
	)

	SyncItemFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "clinic_sync_item_failures_total",
			Help: "Отказы отдельных записей внутри батча синхронизации",
		},
		[]string{"tenant"},
	)

	DeadLetters = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "clinic_sync_dead_letters_total",
			Help: "Записи, ушедшие в dead letter после исчерпания ретраев",
		},
		[]string{"tenant"},
	)

	TenantCycleDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "clinic_tenant_cycle_duration_seconds",
			Help:    "Длительность полного цикла обработки одного тенанта",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"tenant"},
	)
)
