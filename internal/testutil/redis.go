package testutil

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultTestRedisAddr = "localhost:56379"

// SetupTestRedis returns a client on an emptied Redis database reserved for
// this test. Set REDIS_ADDR to point elsewhere and TEST_REDIS_DB to pin the
// database index. The test is skipped when Redis is unreachable unless
// TEST_REQUIRE_REDIS or TEST_REQUIRE_INFRA is set.
func SetupTestRedis(t testing.TB) *redis.Client {
	t.Helper()
	addr := envOr("REDIS_ADDR", defaultTestRedisAddr)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	meta := redis.NewClient(&redis.Options{Addr: addr})
	if err := meta.Ping(ctx).Err(); err != nil {
		_ = meta.Close()
		if required("TEST_REQUIRE_REDIS") {
			t.Fatalf("redis not available at %s: %v", addr, err)
		}
		t.Skipf("redis not available at %s: %v", addr, err)
	}
	t.Cleanup(func() { _ = meta.Close() })

	client := redis.NewClient(&redis.Options{Addr: addr, DB: reserveRedisDB(t, meta)})
	t.Cleanup(func() { _ = client.Close() })
	if err := client.FlushDB(ctx).Err(); err != nil {
		t.Fatalf("flush test redis db: %v", err)
	}
	return client
}

// reserveRedisDB claims one of databases 1-15 with a lock key in database 0
// so packages tested in parallel never flush each other's data.
func reserveRedisDB(t testing.TB, meta *redis.Client) int {
	t.Helper()
	if v := os.Getenv("TEST_REDIS_DB"); v != "" {
		if i, err := strconv.Atoi(v); err == nil && i >= 0 {
			return i
		}
		t.Logf("ignoring invalid TEST_REDIS_DB=%q", v)
	}

	owner := fmt.Sprintf("%d:%d", os.Getpid(), time.Now().UnixNano())
	for i := 1; i <= 15; i++ {
		lock := fmt.Sprintf("knowlio:testutil:db_lock:%d", i)
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		ok, err := meta.SetNX(ctx, lock, owner, 30*time.Minute).Result()
		cancel()
		if err != nil || !ok {
			continue
		}
		t.Cleanup(func() {
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			_ = meta.Del(ctx, lock).Err()
		})
		return i
	}
	t.Logf("no free redis db; sharing db 1")
	return 1
}
