package repository

import (
	"context"
	"encoding/json"
	"question_bank_backend/pkg/logger"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

const cacheTTL = 10 * time.Minute

// jsonCache is a thin read-through cache over Redis. A nil client disables it.
type jsonCache struct {
	rdb *redis.Client
}

// get reports whether key was found and decoded into dst. Redis errors are
// logged and treated as a miss.
func (c jsonCache) get(ctx context.Context, key string, dst interface{}) bool {
	if c.rdb == nil {
		return false
	}
	raw, err := c.rdb.Get(ctx, key).Bytes()
	if err != nil {
		if err != redis.Nil {
			logger.Log.Warn("cache read failed", zap.String("key", key), zap.Error(err))
		}
		return false
	}
	return json.Unmarshal(raw, dst) == nil
}

func (c jsonCache) set(ctx context.Context, key string, v interface{}) {
	if c.rdb == nil {
		return
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return
	}
	if err := c.rdb.Set(ctx, key, raw, cacheTTL).Err(); err != nil {
		logger.Log.Warn("cache write failed", zap.String("key", key), zap.Error(err))
	}
}

// del removes keys; patterns ending in "*" are expanded with SCAN.
func (c jsonCache) del(ctx context.Context, keys ...string) {
	if c.rdb == nil {
		return
	}
	for _, key := range keys {
		if len(key) > 0 && key[len(key)-1] == '*' {
			iter := c.rdb.Scan(ctx, 0, key, 100).Iterator()
			for iter.Next(ctx) {
				c.rdb.Del(ctx, iter.Val())
			}
			continue
		}
		c.rdb.Del(ctx, key)
	}
}
