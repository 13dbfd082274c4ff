package signaling

import (
	"context"
	"sync"
	"time"
)

// ReservationStore holds codes that were handed out but not joined yet.
// Reserve and Claim must be atomic per code.
type ReservationStore interface {
	// Reserve holds code for ttl. It returns false if code is already held.
	Reserve(ctx context.Context, code string, ttl time.Duration) (bool, error)
	// Claim consumes a live reservation. It returns false if none exists.
	Claim(ctx context.Context, code string) (bool, error)
	IsReserved(ctx context.Context, code string) (bool, error)
}

// MemoryReservations is the in-process ReservationStore. Expired entries are
// treated as absent immediately and reported by Sweep.
type MemoryReservations struct {
	mu       sync.Mutex
	entries  map[string]time.Time // code -> expiry
	now      func() time.Time
	onExpire func(code string)
}

var _ ReservationStore = (*MemoryReservations)(nil)

func NewMemoryReservations(onExpire func(code string)) *MemoryReservations {
	return &MemoryReservations{
		entries:  make(map[string]time.Time),
		now:      time.Now,
		onExpire: onExpire,
	}
}

func (m *MemoryReservations) Reserve(_ context.Context, code string, ttl time.Duration) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now()
	if exp, ok := m.entries[code]; ok && now.Before(exp) {
		return false, nil
	}
	m.entries[code] = now.Add(ttl)
	return true, nil
}

func (m *MemoryReservations) Claim(_ context.Context, code string) (bool, error) {
	m.mu.Lock()
	exp, ok := m.entries[code]
	if !ok {
		m.mu.Unlock()
		return false, nil
	}
	delete(m.entries, code)
	live := m.now().Before(exp)
	m.mu.Unlock()

	if !live && m.onExpire != nil {
		m.onExpire(code)
	}
	return live, nil
}

func (m *MemoryReservations) IsReserved(_ context.Context, code string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	exp, ok := m.entries[code]
	return ok && m.now().Before(exp), nil
}

// Len counts entries, including expired ones not swept yet.
func (m *MemoryReservations) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

// Sweep drops expired reservations and reports each to onExpire.
func (m *MemoryReservations) Sweep() int {
	m.mu.Lock()
	now := m.now()
	var expired []string
	for code, exp := range m.entries {
		if !now.Before(exp) {
			expired = append(expired, code)
			delete(m.entries, code)
		}
	}
	m.mu.Unlock()

	if m.onExpire != nil {
		for _, code := range expired {
			m.onExpire(code)
		}
	}
	return len(expired)
}

// Run sweeps every interval until ctx is done.
func (m *MemoryReservations) Run(ctx context.Context, interval time.Duration) {
	tk := time.NewTicker(interval)
	go func() {
		defer tk.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-tk.C:
				m.Sweep()
			}
		}
	}()
}
