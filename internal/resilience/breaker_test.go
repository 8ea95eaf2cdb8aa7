package resilience

import (
	"testing"
	"time"

	"github.com/medbook/clinic-platform/internal/partition"
)

func TestBreaker_OpensAfterThreshold(t *testing.T) {
	current := time.Date(2025, 6, 2, 12, 0, 0, 0, time.UTC)
	b := NewBreakerWithClock(5, 5*time.Minute, func() time.Time { return current })
	key := partition.Key("alfa")

	for i := 0; i < 4; i++ {
		b.RecordFailure(key)
	}
	if b.IsOpen(key) {
		t.Fatalf("expected closed breaker after 4 failures")
	}

	b.RecordFailure(key)
	if !b.IsOpen(key) {
		t.Fatalf("expected open breaker after 5 failures")
	}
}

func TestBreaker_CooldownAutoReset(t *testing.T) {
	current := time.Date(2025, 6, 2, 12, 0, 0, 0, time.UTC)
	b := NewBreakerWithClock(5, 5*time.Minute, func() time.Time { return current })
	key := partition.Key("alfa")

	for i := 0; i < 5; i++ {
		b.RecordFailure(key)
	}
	if !b.IsOpen(key) {
		t.Fatalf("expected open breaker")
	}

	// Пока окно охлаждения не истекло — открыт.
	current = current.Add(4 * time.Minute)
	if !b.IsOpen(key) {
		t.Fatalf("expected breaker still open inside cooldown")
	}

	// Истёкшее окно сбрасывает счётчик при следующей проверке.
	current = current.Add(time.Minute)
	if b.IsOpen(key) {
		t.Fatalf("expected breaker closed after cooldown")
	}
	if got := b.Failures(key); got != 0 {
		t.Fatalf("expected failure count reset to 0, got %d", got)
	}
}

func TestBreaker_SuccessResetsCount(t *testing.T) {
	b := NewBreaker(5, 5*time.Minute)
	key := partition.Key("alfa")

	for i := 0; i < 3; i++ {
		b.RecordFailure(key)
	}
	b.RecordSuccess(key)
	if got := b.Failures(key); got != 0 {
		t.Fatalf("expected 0 failures after success, got %d", got)
	}

	// Счётчик после сброса копится заново.
	for i := 0; i < 4; i++ {
		b.RecordFailure(key)
	}
	if b.IsOpen(key) {
		t.Fatalf("expected closed breaker after reset and 4 failures")
	}
}

func TestBreaker_TenantsIsolated(t *testing.T) {
	b := NewBreaker(5, 5*time.Minute)

	for i := 0; i < 5; i++ {
		b.RecordFailure(partition.Key("alfa"))
	}
	if !b.IsOpen(partition.Key("alfa")) {
		t.Fatalf("expected alfa breaker open")
	}
	if b.IsOpen(partition.Key("beta")) {
		t.Fatalf("expected beta breaker untouched")
	}
}
