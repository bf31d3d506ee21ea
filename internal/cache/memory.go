package cache

import (
	"context"
	"sync"
	"time"

	"github.com/rtr-rodrigo/Sniper-BitGet/internal/scanner"
)

// Memory is an in-process Store.
type Memory struct {
	ttl time.Duration
	now func() time.Time

	mu       sync.Mutex
	res      scanner.Result
	storedAt time.Time
	ok       bool
}

// NewMemory keeps results for ttl; ttl <= 0 never expires.
func NewMemory(ttl time.Duration) *Memory {
	return &Memory{ttl: ttl, now: time.Now}
}

// Get implements Store.
func (m *Memory) Get(context.Context) (scanner.Result, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.ok {
		return scanner.Result{}, false, nil
	}
	if m.ttl > 0 && m.now().Sub(m.storedAt) >= m.ttl {
		m.ok = false
		m.res = scanner.Result{}
		return scanner.Result{}, false, nil
	}
	return m.res, true, nil
}

// Put implements Store.
func (m *Memory) Put(_ context.Context, res scanner.Result) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.res, m.storedAt, m.ok = res, m.now(), true
	return nil
}
