package session

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"consultation-booking/internal/common/database"
	apperrors "consultation-booking/internal/common/errors"
)

const ledgerKeyPrefix = "booking:"

// BookingRecord is what the ledger keeps for a created booking.
type BookingRecord struct {
	IdempotencyKey string    `json:"idempotencyKey"`
	SessionID      string    `json:"sessionId"`
	StartTime      string    `json:"startTime"`
	EventTypeID    int64     `json:"eventTypeId"`
	CreatedAt      time.Time `json:"createdAt"`
}

// BookingLedger remembers bookings that already succeeded so a resubmission
// does not create them twice.
type BookingLedger interface {
	// Lookup returns nil, nil when key has no booking.
	Lookup(ctx context.Context, key string) (*BookingRecord, error)
	// Record stores rec unless a record for the key exists already.
	Record(ctx context.Context, rec BookingRecord) error
}

type MemoryLedger struct {
	mu      sync.Mutex
	records map[string]BookingRecord
}

func NewMemoryLedger() *MemoryLedger {
	return &MemoryLedger{records: make(map[string]BookingRecord)}
}

func (l *MemoryLedger) Lookup(_ context.Context, key string) (*BookingRecord, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	rec, ok := l.records[key]
	if !ok {
		return nil, nil
	}
	return &rec, nil
}

func (l *MemoryLedger) Record(_ context.Context, rec BookingRecord) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.records[rec.IdempotencyKey]; !ok {
		l.records[rec.IdempotencyKey] = rec
	}
	return nil
}

// RedisLedger keeps records under "booking:<key>" with a TTL, so a booking
// made by one process is visible to a resubmission from another.
type RedisLedger struct {
	redis *database.RedisClient
	ttl   time.Duration
}

func NewRedisLedger(client *database.RedisClient, ttl time.Duration) *RedisLedger {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &RedisLedger{redis: client, ttl: ttl}
}

func (l *RedisLedger) Lookup(ctx context.Context, key string) (*BookingRecord, error) {
	raw, err := l.redis.Get(ctx, ledgerKeyPrefix+key)
	if database.IsNil(err) {
		return nil, nil
	}
	if err != nil {
		return nil, apperrors.NewLedgerUnavailableError(err)
	}

	var rec BookingRecord
	if err := json.Unmarshal([]byte(raw), &rec); err != nil {
		return nil, apperrors.NewLedgerUnavailableError(err)
	}
	return &rec, nil
}

func (l *RedisLedger) Record(ctx context.Context, rec BookingRecord) error {
	body, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	if _, err := l.redis.SetNX(ctx, ledgerKeyPrefix+rec.IdempotencyKey, body, l.ttl); err != nil {
		return apperrors.NewLedgerUnavailableError(err)
	}
	return nil
}
