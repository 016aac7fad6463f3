package sycksec

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// AuditEventType classifies an engine event.
type AuditEventType string

const (
	EventGenerate      AuditEventType = "generate"       // Token issued
	EventVerifySuccess AuditEventType = "verify_success" // Verification passed
	EventVerifyFailure AuditEventType = "verify_failure" // Verification failed
	EventRefresh       AuditEventType = "refresh"        // Token re-issued near expiry
)

// AuditEvent records one engine operation outcome. Events are append-only
// and never contain the token string or the master secret, only identifiers
// and outcome metadata.
type AuditEvent struct {
	ID        uuid.UUID         `json:"id"`
	Timestamp time.Time         `json:"timestamp"`
	EventType AuditEventType    `json:"event_type"`
	UserID    string            `json:"user_id"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}

// AuditStats aggregates the retained event set.
type AuditStats struct {
	TotalEvents int64
	EventTypes  map[AuditEventType]int64
	UniqueUsers int64
}

// AuditStore persists audit events. Implementations must serialize
// concurrent appends and give readers a consistent snapshot; retention
// (how many events are kept) is an implementation concern and must be
// documented by each store.
type AuditStore interface {
	// Append stores an event.
	Append(ctx context.Context, event AuditEvent) error
	// Events returns up to limit retained events, most recent first.
	// A non-positive limit returns all retained events.
	Events(ctx context.Context, limit int) ([]AuditEvent, error)
	// Stats aggregates over the full retained event set.
	Stats(ctx context.Context) (AuditStats, error)
	// Close releases store resources.
	Close() error
}

// DefaultAuditRetention is the default cap on retained events.
const DefaultAuditRetention = 10000

// AuditLogger assigns identifiers and server-side timestamps to engine
// events and forwards them to a store. It is decoupled from the engine:
// the engine only emits through it and never reads it back.
type AuditLogger struct {
	store   AuditStore
	lastErr atomic.Value // error
}

func newAuditLogger(store AuditStore) *AuditLogger {
	return &AuditLogger{store: store}
}

// log appends one event. Store failures never propagate to the engine
// operation; the most recent failure is retained for inspection via Err.
func (l *AuditLogger) log(ctx context.Context, eventType AuditEventType, userID string, metadata map[string]string) {
	event := AuditEvent{
		ID:        uuid.New(),
		Timestamp: time.Now().UTC(),
		EventType: eventType,
		UserID:    userID,
		Metadata:  metadata,
	}
	if err := l.store.Append(ctx, event); err != nil {
		l.lastErr.Store(err)
	}
}

// Stats aggregates the retained event set.
func (l *AuditLogger) Stats(ctx context.Context) (AuditStats, error) {
	return l.store.Stats(ctx)
}

// Events returns up to limit retained events, most recent first.
func (l *AuditLogger) Events(ctx context.Context, limit int) ([]AuditEvent, error) {
	return l.store.Events(ctx, limit)
}

// Err returns the most recent store append failure, or nil.
func (l *AuditLogger) Err() error {
	if err, ok := l.lastErr.Load().(error); ok {
		return err
	}
	return nil
}

// Close releases the underlying store.
func (l *AuditLogger) Close() error {
	return l.store.Close()
}
