package ledger

import (
	"context"
	"log"
	"strconv"
	"time"

	"github.com/WS24/ws24dev-sub001/domain/money"
	"github.com/redis/go-redis/v9"
)

// BalanceCache caches balance projections per user. The ledger is the source
// of truth; the cache is invalidated on every write touching the user.
type BalanceCache interface {
	Get(ctx context.Context, userID string) (money.Money, bool)
	Set(ctx context.Context, userID string, balance money.Money)
	Invalidate(ctx context.Context, userID string)
}

// noopBalanceCache is used when no Redis address is configured.
type noopBalanceCache struct{}

func (noopBalanceCache) Get(context.Context, string) (money.Money, bool) { return 0, false }
func (noopBalanceCache) Set(context.Context, string, money.Money)        {}
func (noopBalanceCache) Invalidate(context.Context, string)              {}

// redisBalanceCache is a cache-aside layer over go-redis. Cache errors are
// logged and treated as misses; they never fail a ledger operation.
type redisBalanceCache struct {
	client *redis.Client
	ttl    time.Duration
}

func newRedisBalanceCache(client *redis.Client, ttl time.Duration) *redisBalanceCache {
	return &redisBalanceCache{client: client, ttl: ttl}
}

func balanceKey(userID string) string {
	return "balance:" + userID
}

func (c *redisBalanceCache) Get(ctx context.Context, userID string) (money.Money, bool) {
	val, err := c.client.Get(ctx, balanceKey(userID)).Result()
	if err != nil {
		if err != redis.Nil {
			log.Printf("[ledger] Cache get error for user %s: %v", userID, err)
		}
		return 0, false
	}
	cents, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		log.Printf("[ledger] Cache parse error for user %s: %v", userID, err)
		return 0, false
	}
	return money.FromCents(cents), true
}

func (c *redisBalanceCache) Set(ctx context.Context, userID string, balance money.Money) {
	if err := c.client.Set(ctx, balanceKey(userID), balance.Cents(), c.ttl).Err(); err != nil {
		log.Printf("[ledger] Cache set error for user %s: %v", userID, err)
	}
}

func (c *redisBalanceCache) Invalidate(ctx context.Context, userID string) {
	if userID == "" {
		return
	}
	if err := c.client.Del(ctx, balanceKey(userID)).Err(); err != nil {
		log.Printf("[ledger] Cache invalidate error for user %s: %v", userID, err)
	}
}
