// File: sycksec.auditstore.redis.imp.go

package sycksec

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const auditEventsKey = "sycksec:audit:events"

// RedisAuditStore is a Redis-backed implementation of AuditStore for
// deployments where multiple engine instances share one audit trail.
//
// Retention: events are LPUSHed to a single list which is trimmed to
// maxEvents after every append. Stats are aggregated over the retained
// list. The caller owns the Redis client; Close does not close it.
type RedisAuditStore struct {
	client    *redis.Client
	maxEvents int64
}

// NewRedisAuditStore creates a new Redis-based audit store.
// maxEvents caps the retained list length (default: DefaultAuditRetention).
func NewRedisAuditStore(client *redis.Client, maxEvents int) (AuditStore, error) {
	if client == nil {
		return nil, fmt.Errorf("redis client cannot be nil")
	}
	if maxEvents <= 0 {
		maxEvents = DefaultAuditRetention
	}

	// Test the connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := client.Ping(ctx).Result(); err != nil {
		return nil, fmt.Errorf("redis connection failed: %w", err)
	}

	return &RedisAuditStore{
		client:    client,
		maxEvents: int64(maxEvents),
	}, nil
}

// Append stores an event and trims the list to the retention cap.
func (r *RedisAuditStore) Append(ctx context.Context, event AuditEvent) error {
	if event.EventType == "" {
		return fmt.Errorf("event type cannot be empty")
	}

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to encode audit event: %w", err)
	}

	pipe := r.client.TxPipeline()
	pipe.LPush(ctx, auditEventsKey, data)
	pipe.LTrim(ctx, auditEventsKey, 0, r.maxEvents-1)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis error: %w", err)
	}

	return nil
}

// Events returns up to limit retained events, most recent first.
func (r *RedisAuditStore) Events(ctx context.Context, limit int) ([]AuditEvent, error) {
	end := int64(-1)
	if limit > 0 {
		end = int64(limit) - 1
	}

	raw, err := r.client.LRange(ctx, auditEventsKey, 0, end).Result()
	if err != nil {
		return nil, fmt.Errorf("redis error: %w", err)
	}

	events := make([]AuditEvent, 0, len(raw))
	for _, item := range raw {
		var event AuditEvent
		if err := json.Unmarshal([]byte(item), &event); err != nil {
			return nil, fmt.Errorf("failed to decode audit event: %w", err)
		}
		events = append(events, event)
	}

	return events, nil
}

// Stats aggregates the retained event set.
func (r *RedisAuditStore) Stats(ctx context.Context) (AuditStats, error) {
	events, err := r.Events(ctx, 0)
	if err != nil {
		return AuditStats{}, err
	}

	stats := AuditStats{
		TotalEvents: int64(len(events)),
		EventTypes:  make(map[AuditEventType]int64),
	}
	users := make(map[string]struct{})
	for _, event := range events {
		stats.EventTypes[event.EventType]++
		if event.UserID != "" {
			users[event.UserID] = struct{}{}
		}
	}
	stats.UniqueUsers = int64(len(users))

	return stats, nil
}

// Close is a no-op; the Redis client is owned by the caller.
func (r *RedisAuditStore) Close() error {
	return nil
}
