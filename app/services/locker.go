package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/amirphl/promo-engine/repository"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Locker guards a critical section with a named, non-blocking mutual exclusion lock.
// WithTryLock runs fn only when the lock was acquired and reports whether it was.
type Locker interface {
	WithTryLock(ctx context.Context, key string, fn func(ctx context.Context) error) (bool, error)
}

// PostgresLocker uses transaction-scoped advisory locks. fn runs inside the lock's transaction,
// so repositories called with the passed ctx commit together with the lock release.
type PostgresLocker struct {
	db *gorm.DB
}

func NewPostgresLocker(db *gorm.DB) *PostgresLocker {
	return &PostgresLocker{db: db}
}

func (l *PostgresLocker) WithTryLock(ctx context.Context, key string, fn func(ctx context.Context) error) (bool, error) {
	acquired := false
	err := repository.WithTransaction(ctx, l.db, func(txCtx context.Context) error {
		tx, ok := txCtx.Value(repository.TxContextKey).(*gorm.DB)
		if !ok || tx == nil {
			return errors.New("transaction missing from context")
		}

		var locked bool
		if err := tx.Raw("SELECT pg_try_advisory_xact_lock(hashtext(?))", key).Scan(&locked).Error; err != nil {
			return fmt.Errorf("failed to try advisory lock %s: %w", key, err)
		}
		if !locked {
			return nil
		}

		acquired = true
		return fn(txCtx)
	})
	return acquired, err
}

// releaseScript deletes the lock only while it still holds our token
var releaseScript = redis.NewScript(`
	if redis.call('GET', KEYS[1]) == ARGV[1] then
		return redis.call('DEL', KEYS[1])
	end
	return 0
`)

// RedisLocker uses SET NX PX with a random token. The TTL bounds how long a crashed holder blocks others.
type RedisLocker struct {
	rc     redis.UniversalClient
	prefix string
	ttl    time.Duration
}

func NewRedisLocker(rc redis.UniversalClient, prefix string, ttl time.Duration) *RedisLocker {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &RedisLocker{rc: rc, prefix: prefix, ttl: ttl}
}

func (l *RedisLocker) WithTryLock(ctx context.Context, key string, fn func(ctx context.Context) error) (bool, error) {
	lockKey := l.prefix + "lock:" + key
	token := uuid.NewString()

	ok, err := l.rc.SetNX(ctx, lockKey, token, l.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("failed to acquire lock %s: %w", key, err)
	}
	if !ok {
		return false, nil
	}
	defer func() {
		_ = releaseScript.Run(context.WithoutCancel(ctx), l.rc, []string{lockKey}, token).Err()
	}()

	return true, fn(ctx)
}
