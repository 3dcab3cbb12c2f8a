package lockstore

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/obohaghogho/fxwallet/pkg/domain"
)

// Memory is a mutex-guarded in-process lock store. Reads check expiry
// lazily against the clock; a background sweeper bounds memory growth by
// dropping entries whose window elapsed without a redeem attempt.
type Memory struct {
	mu      sync.Mutex
	entries map[uuid.UUID]*domain.SwapPreview
	clock   Clock
	done    chan struct{}
	once    sync.Once
}

// NewMemory creates a memory lock store sweeping at the given interval.
// A nil clock uses the system clock; a non-positive interval disables the
// sweeper (lazy expiry still applies).
func NewMemory(sweepInterval time.Duration, clock Clock) *Memory {
	if clock == nil {
		clock = SystemClock
	}
	m := &Memory{
		entries: make(map[uuid.UUID]*domain.SwapPreview),
		clock:   clock,
		done:    make(chan struct{}),
	}
	if sweepInterval > 0 {
		go m.sweep(sweepInterval)
	}
	return m
}

// Put implements Store.
func (m *Memory) Put(_ context.Context, preview *domain.SwapPreview) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[preview.LockID] = preview
	return nil
}

// Peek implements Store.
func (m *Memory) Peek(_ context.Context, lockID uuid.UUID) (*domain.SwapPreview, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.entries[lockID]
	if !ok {
		return nil, nil
	}
	if p.Expired(m.clock.Now()) {
		delete(m.entries, lockID)
		return nil, nil
	}
	return p, nil
}

// Take implements Store.
func (m *Memory) Take(_ context.Context, lockID uuid.UUID) (*domain.SwapPreview, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.entries[lockID]
	if !ok {
		return nil, nil
	}
	delete(m.entries, lockID)
	if p.Expired(m.clock.Now()) {
		return nil, nil
	}
	return p, nil
}

// Len returns the number of resident entries, expired or not.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

// Close stops the sweeper.
func (m *Memory) Close() {
	m.once.Do(func() { close(m.done) })
}

func (m *Memory) sweep(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-m.done:
			return
		case <-ticker.C:
			now := m.clock.Now()
			m.mu.Lock()
			for id, p := range m.entries {
				if p.Expired(now) {
					delete(m.entries, id)
				}
			}
			m.mu.Unlock()
		}
	}
}
