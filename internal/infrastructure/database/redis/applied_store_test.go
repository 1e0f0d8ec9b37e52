package redis_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/storefront-labs/storefront-api/internal/domain/voucher"
	"github.com/storefront-labs/storefront-api/internal/infrastructure/database/redis"
)

func setupRedis(t *testing.T) (*miniredis.Miniredis, *goredis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })
	return mr, rdb
}

func TestAppliedStore(t *testing.T) {
	ctx := context.Background()
	mr, rdb := setupRedis(t)
	store := redis.NewAppliedStore(rdb, time.Hour)

	got, err := store.Get(ctx, "user:1")
	require.NoError(t, err)
	assert.Nil(t, got, "nothing applied yet")

	applied := voucher.Applied{
		VoucherID:      4,
		Code:           "SAVE20",
		DiscountAmount: decimal.RequireFromString("20.00"),
	}
	require.NoError(t, store.Set(ctx, "user:1", applied))

	assert.True(t, mr.Exists("applied_voucher:user:1"))
	assert.Equal(t, time.Hour, mr.TTL("applied_voucher:user:1"))

	got, err = store.Get(ctx, "user:1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, uint(4), got.VoucherID)
	assert.Equal(t, "SAVE20", got.Code)
	assert.True(t, got.DiscountAmount.Equal(applied.DiscountAmount))

	other, err := store.Get(ctx, "session:abc")
	require.NoError(t, err)
	assert.Nil(t, other)

	require.NoError(t, store.Clear(ctx, "user:1"))
	got, err = store.Get(ctx, "user:1")
	require.NoError(t, err)
	assert.Nil(t, got)

	// clearing twice is fine
	require.NoError(t, store.Clear(ctx, "user:1"))
}

func TestAppliedStore_Expiry(t *testing.T) {
	ctx := context.Background()
	mr, rdb := setupRedis(t)
	store := redis.NewAppliedStore(rdb, time.Minute)

	require.NoError(t, store.Set(ctx, "session:abc", voucher.Applied{VoucherID: 1, Code: "FREESHIP"}))
	mr.FastForward(2 * time.Minute)

	got, err := store.Get(ctx, "session:abc")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestAppliedStore_CorruptEntry(t *testing.T) {
	ctx := context.Background()
	mr, rdb := setupRedis(t)
	store := redis.NewAppliedStore(rdb, time.Minute)

	require.NoError(t, mr.Set("applied_voucher:user:9", "{not json"))

	_, err := store.Get(ctx, "user:9")
	assert.Error(t, err)
}

func TestAppliedStore_RedisDown(t *testing.T) {
	ctx := context.Background()
	mr, rdb := setupRedis(t)
	store := redis.NewAppliedStore(rdb, time.Minute)
	mr.Close()

	_, err := store.Get(ctx, "user:1")
	assert.Error(t, err)
	assert.Error(t, store.Set(ctx, "user:1", voucher.Applied{}))
}
