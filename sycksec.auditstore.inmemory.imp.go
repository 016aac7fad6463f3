// File: sycksec.auditstore.inmemory.imp.go

package sycksec

import (
	"context"
	"fmt"
	"sync"
)

// MemoryAuditStore is an in-memory implementation of AuditStore.
// Suitable for development, testing, or single-instance deployments.
//
// Retention: a capped ring of the most recent maxEvents events; the oldest
// entries are dropped once the cap is reached. Stats are computed over the
// retained set only.
type MemoryAuditStore struct {
	mu        sync.RWMutex
	events    []AuditEvent
	maxEvents int
}

// NewMemoryAuditStore creates a new in-memory audit store.
// maxEvents caps the number of retained events (default: DefaultAuditRetention).
func NewMemoryAuditStore(maxEvents int) AuditStore {
	if maxEvents <= 0 {
		maxEvents = DefaultAuditRetention
	}
	return &MemoryAuditStore{
		events:    make([]AuditEvent, 0, 64),
		maxEvents: maxEvents,
	}
}

// Append stores an event, dropping the oldest entry when the cap is reached.
func (m *MemoryAuditStore) Append(ctx context.Context, event AuditEvent) error {
	if event.EventType == "" {
		return fmt.Errorf("event type cannot be empty")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.events = append(m.events, event)
	if len(m.events) > m.maxEvents {
		overflow := len(m.events) - m.maxEvents
		m.events = append(m.events[:0], m.events[overflow:]...)
	}

	return nil
}

// Events returns up to limit retained events, most recent first.
func (m *MemoryAuditStore) Events(ctx context.Context, limit int) ([]AuditEvent, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	n := len(m.events)
	if limit > 0 && limit < n {
		n = limit
	}

	out := make([]AuditEvent, 0, n)
	for i := len(m.events) - 1; i >= 0 && len(out) < n; i-- {
		out = append(out, m.events[i])
	}

	return out, nil
}

// Stats aggregates the retained event set.
func (m *MemoryAuditStore) Stats(ctx context.Context) (AuditStats, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	stats := AuditStats{
		TotalEvents: int64(len(m.events)),
		EventTypes:  make(map[AuditEventType]int64),
	}
	users := make(map[string]struct{})
	for _, event := range m.events {
		stats.EventTypes[event.EventType]++
		if event.UserID != "" {
			users[event.UserID] = struct{}{}
		}
	}
	stats.UniqueUsers = int64(len(users))

	return stats, nil
}

// Close is a no-op for the in-memory store.
func (m *MemoryAuditStore) Close() error {
	return nil
}
