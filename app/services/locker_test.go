package services

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/amirphl/promo-engine/repository"
	testingutil "github.com/amirphl/promo-engine/testing"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestPostgresLocker(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		locker := NewPostgresLocker(testDB.DB)
		ctx := context.Background()

		t.Run("RunsInsideTransaction", func(t *testing.T) {
			acquired, err := locker.WithTryLock(ctx, "raffle:1", func(ctx context.Context) error {
				tx, ok := ctx.Value(repository.TxContextKey).(*gorm.DB)
				assert.True(t, ok)
				assert.NotNil(t, tx)
				return nil
			})
			require.NoError(t, err)
			assert.True(t, acquired)
		})

		t.Run("ContendedLockIsNotAcquired", func(t *testing.T) {
			other := NewPostgresLocker(testDB.DB)
			var innerAcquired bool
			outer, err := locker.WithTryLock(ctx, "raffle:2", func(context.Context) error {
				// a fresh ctx forces a second transaction on another connection
				acquired, err := other.WithTryLock(context.Background(), "raffle:2", func(context.Context) error {
					return nil
				})
				innerAcquired = acquired
				return err
			})
			require.NoError(t, err)
			assert.True(t, outer)
			assert.False(t, innerAcquired)
		})

		t.Run("ErrorRollsBack", func(t *testing.T) {
			boom := errors.New("boom")
			acquired, err := locker.WithTryLock(ctx, "raffle:3", func(context.Context) error { return boom })
			assert.True(t, acquired)
			assert.ErrorIs(t, err, boom)

			again, err := locker.WithTryLock(ctx, "raffle:3", func(context.Context) error { return nil })
			require.NoError(t, err)
			assert.True(t, again)
		})

		return nil
	})
	if errors.Is(err, testingutil.ErrDBUnavailable) {
		t.Skipf("skipping database test: %v", err)
	}
	require.NoError(t, err)
}

func TestRedisLocker(t *testing.T) {
	url := os.Getenv("TEST_REDIS_URL")
	if url == "" {
		t.Skip("TEST_REDIS_URL not set")
	}
	opt, err := redis.ParseURL(url)
	require.NoError(t, err)
	rc := redis.NewClient(opt)
	defer rc.Close()

	ctx := context.Background()
	if err := rc.Ping(ctx).Err(); err != nil {
		t.Skipf("redis unreachable: %v", err)
	}

	locker := NewRedisLocker(rc, "test:", 5*time.Second)
	key := "raffle:" + time.Now().Format("150405.000000")

	var inner bool
	outer, err := locker.WithTryLock(ctx, key, func(ctx context.Context) error {
		acquired, err := locker.WithTryLock(ctx, key, func(context.Context) error { return nil })
		inner = acquired
		return err
	})
	require.NoError(t, err)
	assert.True(t, outer)
	assert.False(t, inner)

	exists, err := rc.Exists(ctx, "test:lock:"+key).Result()
	require.NoError(t, err)
	assert.Zero(t, exists)
}
