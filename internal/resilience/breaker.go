package resilience

import (
	"sync"
	"time"

	"github.com/medbook/clinic-platform/internal/partition"
)

// Breaker — circuit breaker с независимым состоянием на каждого тенанта.
// Открывается после threshold отказов подряд и держится открытым, пока
// не истечёт окно охлаждения с момента последнего отказа; истёкшее окно
// сбрасывает счётчик при следующей проверке.
//
// Читают и пишут его одновременно оркестратор и воркеры ретраев,
// поэтому всё состояние под мьютексом.
type Breaker struct {
	mu        sync.Mutex
	threshold int
	cooldown  time.Duration
	now       func() time.Time

	states map[partition.Key]*breakerState
}

type breakerState struct {
	failures    int
	lastFailure time.Time
}

func NewBreaker(threshold int, cooldown time.Duration) *Breaker {
	return NewBreakerWithClock(threshold, cooldown, time.Now)
}

// NewBreakerWithClock позволяет подменить источник времени в тестах.
func NewBreakerWithClock(threshold int, cooldown time.Duration, now func() time.Time) *Breaker {
	if threshold <= 0 {
		threshold = 5
	}
	if cooldown <= 0 {
		cooldown = 5 * time.Minute
	}
	return &Breaker{
		threshold: threshold,
		cooldown:  cooldown,
		now:       now,
		states:    make(map[partition.Key]*breakerState),
	}
}

// IsOpen сообщает, открыт ли breaker для тенанта.
func (b *Breaker) IsOpen(key partition.Key) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	st, ok := b.states[key]
	if !ok || st.failures < b.threshold {
		return false
	}

	if b.now().Sub(st.lastFailure) >= b.cooldown {
		// Окно охлаждения истекло — автосброс.
		st.failures = 0
		return false
	}

	return true
}

// RecordSuccess сбрасывает счётчик отказов тенанта.
func (b *Breaker) RecordSuccess(key partition.Key) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if st, ok := b.states[key]; ok {
		st.failures = 0
	}
}

// RecordFailure фиксирует отказ и отметку времени.
func (b *Breaker) RecordFailure(key partition.Key) {
	b.mu.Lock()
	defer b.mu.Unlock()
	st, ok := b.states[key]
	if !ok {
		st = &breakerState{}
		b.states[key] = st
	}
	st.failures++
	st.lastFailure = b.now()
}

// Failures возвращает текущий счётчик отказов тенанта.
func (b *Breaker) Failures(key partition.Key) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	if st, ok := b.states[key]; ok {
		return st.failures
	}
	return 0
}

// Reset явно сбрасывает состояние тенанта.
func (b *Breaker) Reset(key partition.Key) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.states, key)
}
