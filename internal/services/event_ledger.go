package services

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// EventLedger remembers provider event ids that were already applied.
type EventLedger interface {
	Seen(ctx context.Context, eventID string) (bool, error)
	MarkProcessed(ctx context.Context, eventID string) error
}

const defaultLedgerTTL = 72 * time.Hour

// RedisEventLedger records processed event ids as expiring Redis keys.
type RedisEventLedger struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

func NewRedisEventLedger(client *redis.Client, ttl time.Duration) *RedisEventLedger {
	if ttl <= 0 {
		ttl = defaultLedgerTTL
	}
	return &RedisEventLedger{
		client: client,
		prefix: "stripe:event:",
		ttl:    ttl,
	}
}

func (l *RedisEventLedger) Seen(ctx context.Context, eventID string) (bool, error) {
	n, err := l.client.Exists(ctx, l.prefix+eventID).Result()
	if err != nil {
		return false, fmt.Errorf("event ledger lookup: %w", err)
	}
	return n > 0, nil
}

func (l *RedisEventLedger) MarkProcessed(ctx context.Context, eventID string) error {
	if err := l.client.SetNX(ctx, l.prefix+eventID, "1", l.ttl).Err(); err != nil {
		return fmt.Errorf("event ledger record: %w", err)
	}
	return nil
}

// NopEventLedger never reports an event as seen.
type NopEventLedger struct{}

func (NopEventLedger) Seen(context.Context, string) (bool, error) { return false, nil }
func (NopEventLedger) MarkProcessed(context.Context, string) error { return nil }
