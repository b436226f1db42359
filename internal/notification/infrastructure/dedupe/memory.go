// Package dedupe suppresses repeated notifications within a time window.
package dedupe

import (
	"context"
	"sync"
	"time"
)

// MemoryDeduplicator keeps claims in process memory. It only suppresses
// duplicates raised by the same process.
type MemoryDeduplicator struct {
	mu     sync.Mutex
	window time.Duration
	claims map[string]time.Time
	now    func() time.Time
}

func NewMemoryDeduplicator(window time.Duration) *MemoryDeduplicator {
	return &MemoryDeduplicator{
		window: window,
		claims: make(map[string]time.Time),
		now:    time.Now,
	}
}

// WithClock overrides the clock used to expire claims.
func (d *MemoryDeduplicator) WithClock(now func() time.Time) *MemoryDeduplicator {
	d.now = now
	return d
}

func (d *MemoryDeduplicator) Allow(_ context.Context, key string) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	now := d.now()
	if expires, ok := d.claims[key]; ok && now.Before(expires) {
		return false, nil
	}
	d.claims[key] = now.Add(d.window)
	d.evictExpired(now)
	return true, nil
}

// Release drops a claim so the next Allow for key succeeds.
func (d *MemoryDeduplicator) Release(_ context.Context, key string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.claims, key)
	return nil
}

// Len returns the number of live claims.
func (d *MemoryDeduplicator) Len() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.evictExpired(d.now())
	return len(d.claims)
}

func (d *MemoryDeduplicator) evictExpired(now time.Time) {
	for key, expires := range d.claims {
		if !now.Before(expires) {
			delete(d.claims, key)
		}
	}
}
