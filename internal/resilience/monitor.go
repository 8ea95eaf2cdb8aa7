package resilience

import (
	"sync"

	"go.uber.org/zap"

	"github.com/medbook/clinic-platform/internal/logger"
	"github.com/medbook/clinic-platform/internal/metrics"
	"github.com/medbook/clinic-platform/internal/partition"
)

// Порог алерта: после alertMinAttempts попыток доля отказов выше
// alertFailureRatio поднимает error-лог по тенанту.
const (
	alertMinAttempts  = 10
	alertFailureRatio = 0.5
)

// Monitor считает успехи/отказы синхронизации по тенантам и хранит
// текст последней ошибки. Внешнего алертинга нет — сигналом служит
// error-лог плюс prometheus-счётчики.
type Monitor struct {
	mu      sync.Mutex
	tenants map[partition.Key]*tenantStats
}

type tenantStats struct {
	success   int64
	failure   int64
	lastError string
}

func NewMonitor() *Monitor {
	return &Monitor{tenants: make(map[partition.Key]*tenantStats)}
}

// RecordSuccess фиксирует успешную попытку синхронизации.
func (m *Monitor) RecordSuccess(key partition.Key) {
	m.mu.Lock()
	m.stats(key).success++
	m.mu.Unlock()

	metrics.SyncSuccess.WithLabelValues(string(key)).Inc()
}

// RecordFailure фиксирует отказ и проверяет порог алерта.
func (m *Monitor) RecordFailure(key partition.Key, err error) {
	m.mu.Lock()
	st := m.stats(key)
	st.failure++
	if err != nil {
		st.lastError = err.Error()
	}
	success, failure := st.success, st.failure
	lastError := st.lastError
	m.mu.Unlock()

	metrics.SyncFailure.WithLabelValues(string(key)).Inc()

	attempts := success + failure
	if attempts > alertMinAttempts && float64(failure)/float64(attempts) > alertFailureRatio {
		logger.Log.Error("tenant sync failure ratio above threshold",
			zap.String("tenant", string(key)),
			zap.Int64("attempts", attempts),
			zap.Int64("failures", failure),
			zap.String("last_error", lastError),
		)
	}
}

// Stats возвращает счётчики и последнюю ошибку тенанта.
func (m *Monitor) Stats(key partition.Key) (success, failure int64, lastError string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	st := m.stats(key)
	return st.success, st.failure, st.lastError
}

// Reset обнуляет состояние тенанта.
func (m *Monitor) Reset(key partition.Key) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.tenants, key)
}

func (m *Monitor) stats(key partition.Key) *tenantStats {
	st, ok := m.tenants[key]
	if !ok {
		st = &tenantStats{}
		m.tenants[key] = st
	}
	return st
}
