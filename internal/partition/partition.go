package partition

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"gorm.io/gorm"
)

// Key — ключ тенантной партиции.
type Key string

var ErrUnknownTenant = errors.New("unknown tenant partition")

type ctxKey struct{}

// WithTenant возвращает контекст с активным ключом тенанта.
// Прежний контекст не мутируется, поэтому на выходе из вызова
// вызывающая сторона автоматически остаётся в своей партиции.
func WithTenant(ctx context.Context, key Key) context.Context {
	return context.WithValue(ctx, ctxKey{}, key)
}

// TenantFromContext извлекает активный ключ тенанта.
func TenantFromContext(ctx context.Context) (Key, bool) {
	key, ok := ctx.Value(ctxKey{}).(Key)
	return key, ok
}

// Manager — реестр подключений к партициям: по одному *gorm.DB на
// тенанта плюс общая directory-партиция. Потокобезопасен: читают его
// и оркестратор, и воркеры ретраев.
type Manager struct {
	mu        sync.RWMutex
	tenants   map[Key]*gorm.DB
	directory *gorm.DB
}

func NewManager(directory *gorm.DB) *Manager {
	return &Manager{
		tenants:   make(map[Key]*gorm.DB),
		directory: directory,
	}
}

// RegisterTenant добавляет (или заменяет) подключение тенанта.
func (m *Manager) RegisterTenant(key Key, db *gorm.DB) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tenants[key] = db
}

// Tenant возвращает подключение к партиции тенанта.
func (m *Manager) Tenant(key Key) (*gorm.DB, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	db, ok := m.tenants[key]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownTenant, key)
	}
	return db, nil
}

// Directory возвращает подключение к общей directory-партиции.
func (m *Manager) Directory() *gorm.DB {
	return m.directory
}

// Keys возвращает отсортированный список зарегистрированных тенантов.
func (m *Manager) Keys() []Key {
	m.mu.RLock()
	defer m.mu.RUnlock()
	keys := make([]Key, 0, len(m.tenants))
	for k := range m.tenants {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}
