package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/aman-churiwal/image-relay/internal/models"
	"github.com/aman-churiwal/image-relay/internal/storage"
	"github.com/redis/go-redis/v9"
)

var ErrTooMuchContention = errors.New("quota record changed concurrently too many times")

// RedisClientQuotaRepository keeps one JSON document per client and updates it
// with WATCH/MULTI compare-and-swap. Retention is delegated to key TTLs.
type RedisClientQuotaRepository struct {
	redis      *storage.RedisClient
	keyPrefix  string
	ttl        time.Duration
	maxRetries int
}

var _ ClientQuotaStore = (*RedisClientQuotaRepository)(nil)

type RedisOption func(*RedisClientQuotaRepository)

// WithKeyPrefix sets the key prefix (default "relay:quota:").
func WithKeyPrefix(prefix string) RedisOption {
	return func(r *RedisClientQuotaRepository) { r.keyPrefix = prefix }
}

// WithTTL expires records that see no writes for ttl. Zero keeps them forever.
func WithTTL(ttl time.Duration) RedisOption {
	return func(r *RedisClientQuotaRepository) { r.ttl = ttl }
}

func WithMaxRetries(n int) RedisOption {
	return func(r *RedisClientQuotaRepository) { r.maxRetries = n }
}

func NewRedisClientQuotaRepository(client *storage.RedisClient, opts ...RedisOption) *RedisClientQuotaRepository {
	r := &RedisClientQuotaRepository{
		redis:      client,
		keyPrefix:  "relay:quota:",
		maxRetries: 50,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *RedisClientQuotaRepository) key(clientID string) string {
	return r.keyPrefix + clientID
}

func (r *RedisClientQuotaRepository) Apply(ctx context.Context, clientID string, now time.Time, fn ApplyFunc) (models.ClientQuotaRecord, error) {
	key := r.key(clientID)
	var result models.ClientQuotaRecord

	txf := func(tx *redis.Tx) error {
		rec, created, err := r.load(ctx, tx, key, clientID, now)
		if err != nil {
			return err
		}

		persist := fn(&rec) || created
		result = rec
		if !persist {
			return nil
		}

		rec.UpdatedAt = now
		data, err := json.Marshal(rec)
		if err != nil {
			return err
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, data, r.ttl)
			return nil
		})
		result = rec
		return err
	}

	for attempt := 0; attempt < r.maxRetries; attempt++ {
		err := r.redis.Watch(ctx, txf, key)
		if err == nil {
			return result, nil
		}
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		return models.ClientQuotaRecord{}, fmt.Errorf("failed to apply quota update: %w", err)
	}

	return models.ClientQuotaRecord{}, ErrTooMuchContention
}

func (r *RedisClientQuotaRepository) load(ctx context.Context, tx *redis.Tx, key, clientID string, now time.Time) (models.ClientQuotaRecord, bool, error) {
	data, err := tx.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		rec := models.NewClientQuotaRecord(clientID, now)
		rec.CreatedAt = now
		return rec, true, nil
	}
	if err != nil {
		return models.ClientQuotaRecord{}, false, err
	}

	var rec models.ClientQuotaRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return models.ClientQuotaRecord{}, false, fmt.Errorf("corrupt quota record for %s: %w", clientID, err)
	}
	return rec, false, nil
}

func (r *RedisClientQuotaRepository) Get(ctx context.Context, clientID string) (*models.ClientQuotaRecord, error) {
	data, err := r.redis.Get(ctx, r.key(clientID))
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var rec models.ClientQuotaRecord
	if err := json.Unmarshal([]byte(data), &rec); err != nil {
		return nil, fmt.Errorf("corrupt quota record for %s: %w", clientID, err)
	}
	return &rec, nil
}

// DeleteStale is a no-op: keys expire on their own when a TTL is configured.
func (r *RedisClientQuotaRepository) DeleteStale(context.Context, time.Time) (int64, error) {
	return 0, nil
}

func (r *RedisClientQuotaRepository) Ping(ctx context.Context) error {
	return r.redis.Ping(ctx)
}
