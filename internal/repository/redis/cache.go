package redis

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	// CommunitiesPrefix 社区子系统的键命名空间，避免与其他组件冲突
	CommunitiesPrefix = "communities"

	DefaultTTL       = time.Hour
	NoExpiry         = time.Duration(0)
	DefaultBulkBatch = 1000
)

// Cache 包一层带命名空间前缀的 JSON 键值缓存。
// 所有操作吞掉传输错误：记日志并返回中性值（未命中/false/0/空），
// 缓存不可用对调用方等价于全部未命中，绝不让上层操作因此失败
type Cache struct {
	rdb    *redis.Client
	prefix string
	ttl    time.Duration
}

// NewCache 客户端显式注入，便于测试时换成 miniredis
func NewCache(rdb *redis.Client, prefix string, ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Cache{rdb: rdb, prefix: prefix, ttl: ttl}
}

func (c *Cache) key(k string) string {
	return c.prefix + ":" + k
}

// GetValue 读缓存；未命中、传输错误、解码失败均返回 (zero, false)
func GetValue[T any](ctx context.Context, c *Cache, key string) (T, bool) {
	var zero T
	raw, err := c.rdb.Get(ctx, c.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return zero, false
	}
	if err != nil {
		slog.Warn("cache get failed", "key", key, "err", err)
		return zero, false
	}

	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		slog.Warn("cache decode failed", "key", key, "err", err)
		return zero, false
	}
	return v, true
}

// SetValue 写缓存；ttl 为 NoExpiry 时不过期，直到显式失效
func (c *Cache) SetValue(ctx context.Context, key string, value any, ttl time.Duration) bool {
	raw, err := json.Marshal(value)
	if err != nil {
		slog.Warn("cache encode failed", "key", key, "err", err)
		return false
	}
	if err := c.rdb.Set(ctx, c.key(key), raw, ttl).Err(); err != nil {
		slog.Warn("cache set failed", "key", key, "err", err)
		return false
	}
	return true
}

// GetOrSetValue 读穿透：未命中时回源计算并写回。
// 回源失败原样上抛；缓存写失败不影响返回值
func GetOrSetValue[T any](ctx context.Context, c *Cache, key string, ttl time.Duration, fallback func(context.Context) (T, error)) (T, error) {
	if v, ok := GetValue[T](ctx, c, key); ok {
		return v, nil
	}

	v, err := fallback(ctx)
	if err != nil {
		var zero T
		return zero, err
	}
	c.SetValue(ctx, key, v, ttl)
	return v, nil
}

// GetMultiple 管道批量读；缺失、错误、解码失败的键对应 nil
func GetMultiple[T any](ctx context.Context, c *Cache, keys []string) map[string]*T {
	out := make(map[string]*T, len(keys))
	if len(keys) == 0 {
		return out
	}

	pipe := c.rdb.Pipeline()
	cmds := make([]*redis.StringCmd, len(keys))
	for i, k := range keys {
		cmds[i] = pipe.Get(ctx, c.key(k))
	}
	if _, err := pipe.Exec(ctx); err != nil && !errors.Is(err, redis.Nil) {
		slog.Warn("cache mget failed", "keys", len(keys), "err", err)
	}

	for i, k := range keys {
		raw, err := cmds[i].Bytes()
		if err != nil {
			out[k] = nil
			continue
		}
		var v T
		if err := json.Unmarshal(raw, &v); err != nil {
			out[k] = nil
			continue
		}
		out[k] = &v
	}
	return out
}

// SetBulkValue 管道分批写，batchSize<=0 时取默认 1000
func SetBulkValue[T any](ctx context.Context, c *Cache, kv map[string]T, ttl time.Duration, batchSize int) bool {
	if len(kv) == 0 {
		return true
	}
	if batchSize <= 0 {
		batchSize = DefaultBulkBatch
	}

	keys := make([]string, 0, len(kv))
	for k := range kv {
		keys = append(keys, k)
	}

	for start := 0; start < len(keys); start += batchSize {
		end := start + batchSize
		if end > len(keys) {
			end = len(keys)
		}
		pipe := c.rdb.Pipeline()
		for _, k := range keys[start:end] {
			raw, err := json.Marshal(kv[k])
			if err != nil {
				slog.Warn("cache encode failed", "key", k, "err", err)
				continue
			}
			pipe.Set(ctx, c.key(k), raw, ttl)
		}
		if _, err := pipe.Exec(ctx); err != nil {
			slog.Warn("cache bulk set failed", "keys", end-start, "err", err)
			return false
		}
	}
	return true
}

func (c *Cache) Delete(ctx context.Context, key string) bool {
	if err := c.rdb.Del(ctx, c.key(key)).Err(); err != nil {
		slog.Warn("cache delete failed", "key", key, "err", err)
		return false
	}
	return true
}

// DeleteKeys 删除 Keys 返回的完整键（已带前缀）
func (c *Cache) DeleteKeys(ctx context.Context, keys []string) int64 {
	if len(keys) == 0 {
		return 0
	}
	n, err := c.rdb.Del(ctx, keys...).Result()
	if err != nil {
		slog.Warn("cache delete keys failed", "keys", len(keys), "err", err)
		return 0
	}
	return n
}

func (c *Cache) Exists(ctx context.Context, key string) bool {
	n, err := c.rdb.Exists(ctx, c.key(key)).Result()
	if err != nil {
		slog.Warn("cache exists failed", "key", key, "err", err)
		return false
	}
	return n == 1
}

// TTL 剩余存活时间；传输错误返回 (0, false)
func (c *Cache) TTL(ctx context.Context, key string) (time.Duration, bool) {
	d, err := c.rdb.TTL(ctx, c.key(key)).Result()
	if err != nil {
		slog.Warn("cache ttl failed", "key", key, "err", err)
		return 0, false
	}
	return d, true
}

// Keys 按模式扫描完整键，仅用于驱动按模式删除
func (c *Cache) Keys(ctx context.Context, pattern string) []string {
	keys, err := c.rdb.Keys(ctx, c.key(pattern)).Result()
	if err != nil {
		slog.Warn("cache keys failed", "pattern", pattern, "err", err)
		return nil
	}
	return keys
}
