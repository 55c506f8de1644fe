package limiter

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// Redis — разделяемый лимитер поверх Redis для горизонтального
// масштабирования: несколько экземпляров сервиса видят общие счётчики.
// Семантика та же, что у Memory: жёсткая блокировка до явного сброса,
// TTL на ключи не вешается.
//
// Формат хранения: Redis Hash {n: счётчик, ts: unix-время последней неудачи}.
type Redis struct {
	rdb           redis.UniversalClient
	prefix        string
	maxAttempts   int
	lockoutWindow time.Duration
}

// NewRedis создаёт лимитер из URL (например, redis://:pass@host:6379/0).
// Если prefix пустой — используется "auth:fl:". Fail-fast на старте:
// недоступный Redis — ошибка конструирования, не первой попытки логина.
func NewRedis(redisURL, prefix string, maxAttempts int, lockoutWindow time.Duration) (*Redis, error) {
	const op = "limiter.redis.NewRedis"

	if prefix == "" {
		prefix = "auth:fl:"
	}

	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	rdb := redis.NewClient(opt)

	if err := rdb.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &Redis{
		rdb:           rdb,
		prefix:        prefix,
		maxAttempts:   maxAttempts,
		lockoutWindow: lockoutWindow,
	}, nil
}

func (r *Redis) key(k string) string { return r.prefix + k }

// Check возвращает статус ключа, не меняя счётчик.
func (r *Redis) Check(ctx context.Context, key string) (Status, error) {
	const op = "limiter.redis.Check"

	m, err := r.rdb.HGetAll(ctx, r.key(key)).Result()
	if err != nil {
		return Status{}, fmt.Errorf("%s: %w", op, err)
	}

	if len(m) == 0 {
		return Status{Allowed: true, Remaining: r.maxAttempts}, nil
	}

	count, err := strconv.Atoi(m["n"])
	if err != nil {
		return Status{}, fmt.Errorf("%s: %w", op, err)
	}

	st := Status{
		Allowed:   count < r.maxAttempts,
		Remaining: r.maxAttempts - count,
	}
	if st.Remaining < 0 {
		st.Remaining = 0
	}
	if !st.Allowed {
		if tsUnix, err := strconv.ParseInt(m["ts"], 10, 64); err == nil {
			st.ResetAt = time.Unix(tsUnix, 0).UTC().Add(r.lockoutWindow)
		}
	}

	return st, nil
}

// RecordFailure атомарно увеличивает счётчик ключа.
// HINCRBY атомарен на стороне Redis, конкурентные инкременты не теряются.
func (r *Redis) RecordFailure(ctx context.Context, key string) error {
	const op = "limiter.redis.RecordFailure"

	pipe := r.rdb.TxPipeline()
	pipe.HIncrBy(ctx, r.key(key), "n", 1)
	pipe.HSet(ctx, r.key(key), "ts", strconv.FormatInt(time.Now().UTC().Unix(), 10))

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// ResetOnSuccess удаляет запись ключа целиком.
func (r *Redis) ResetOnSuccess(ctx context.Context, key string) error {
	const op = "limiter.redis.ResetOnSuccess"

	if err := r.rdb.Del(ctx, r.key(key)).Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// ClearAll удаляет все ключи лимитера по префиксу через SCAN.
func (r *Redis) ClearAll(ctx context.Context) error {
	const op = "limiter.redis.ClearAll"

	iter := r.rdb.Scan(ctx, 0, r.prefix+"*", 0).Iterator()
	for iter.Next(ctx) {
		if err := r.rdb.Del(ctx, iter.Val()).Err(); err != nil && !errors.Is(err, redis.Nil) {
			return fmt.Errorf("%s: %w", op, err)
		}
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// Close закрывает клиент Redis.
func (r *Redis) Close() error {
	return r.rdb.Close()
}

var _ LoginLimiter = (*Redis)(nil)
