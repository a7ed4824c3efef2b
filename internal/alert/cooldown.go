package alert

import (
	"context"
	"sync"
	"time"
)

// MemoryCooldown is an in-process CooldownGuard used when Redis is not
// configured. State does not survive a restart, which only risks one extra
// notification per alert, not correctness.
type MemoryCooldown struct {
	mu    sync.Mutex
	until map[string]time.Time
	now   func() time.Time
}

// NewMemoryCooldown creates an empty in-memory cooldown guard.
func NewMemoryCooldown() *MemoryCooldown {
	return &MemoryCooldown{
		until: make(map[string]time.Time),
		now:   time.Now,
	}
}

// Acquire reports whether the key was free and marks it held for ttl.
func (m *MemoryCooldown) Acquire(_ context.Context, key string, ttl time.Duration) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	if deadline, ok := m.until[key]; ok && now.Before(deadline) {
		return false, nil
	}
	m.until[key] = now.Add(ttl)

	// Opportunistically drop expired entries so the map does not grow with
	// every opportunity ever seen.
	if len(m.until) > 4096 {
		for k, deadline := range m.until {
			if now.After(deadline) {
				delete(m.until, k)
			}
		}
	}
	return true, nil
}
