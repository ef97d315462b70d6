package testing

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/require"
)

// RedisClient connects to the redis used by integration tests. The address
// comes from FITCOACH_TEST_REDIS_ADDR and the password, if any, from
// FITCOACH_TEST_REDIS_PASS. Keys created by the test are not cleaned up.
func RedisClient(t *testing.T) (context.Context, *redis.Client) {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	t.Cleanup(cancel)

	addr := os.Getenv("FITCOACH_TEST_REDIS_ADDR")
	if addr == "" {
		addr = "localhost:6379"
	}
	t.Logf("using redis: [%s]", addr)

	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: os.Getenv("FITCOACH_TEST_REDIS_PASS"),
	})
	t.Cleanup(func() {
		_ = rdb.Close()
	})

	pingRes, err := rdb.Ping(ctx).Result()
	require.NoError(t, err)
	t.Logf("redis ping res: %s", pingRes)

	return ctx, rdb
}
