package limiter

import (
	"context"
	"sync"
	"time"
)

// entry — счётчик неудач одного ключа.
type entry struct {
	count       int
	lastFailure time.Time
}

// Memory — процессный in-memory лимитер. Состояние живёт в памяти процесса
// и теряется при рестарте — осознанный размен надёжности на простоту.
// Записи по неактивным ключам не выметаются фоновым таймером; рост карты
// ограничен количеством различных ключей-нарушителей.
type Memory struct {
	maxAttempts   int
	lockoutWindow time.Duration

	mu      sync.Mutex
	entries map[string]*entry

	now func() time.Time
}

// NewMemory создаёт in-memory лимитер с порогом maxAttempts.
// lockoutWindow участвует только в расчёте ResetAt для сообщений клиенту.
func NewMemory(maxAttempts int, lockoutWindow time.Duration) *Memory {
	return &Memory{
		maxAttempts:   maxAttempts,
		lockoutWindow: lockoutWindow,
		entries:       make(map[string]*entry),
		now:           time.Now,
	}
}

// Check возвращает статус ключа, не меняя счётчик.
func (m *Memory) Check(_ context.Context, key string) (Status, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.entries[key]
	if !ok {
		return Status{Allowed: true, Remaining: m.maxAttempts}, nil
	}

	st := Status{
		Allowed:   e.count < m.maxAttempts,
		Remaining: m.maxAttempts - e.count,
	}
	if st.Remaining < 0 {
		st.Remaining = 0
	}
	if !st.Allowed {
		st.ResetAt = e.lastFailure.Add(m.lockoutWindow)
	}

	return st, nil
}

// RecordFailure атомарно увеличивает счётчик ключа.
func (m *Memory) RecordFailure(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.entries[key]
	if !ok {
		e = &entry{}
		m.entries[key] = e
	}

	e.count++
	e.lastFailure = m.now()

	return nil
}

// ResetOnSuccess удаляет запись ключа целиком.
func (m *Memory) ResetOnSuccess(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.entries, key)

	return nil
}

// ClearAll сбрасывает все ключи.
func (m *Memory) ClearAll(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.entries = make(map[string]*entry)

	return nil
}

var _ LoginLimiter = (*Memory)(nil)
