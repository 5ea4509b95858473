package biz

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"strings"
	"time"

	"github.com/kart-io/logger"
	goredis "github.com/redis/go-redis/v9"

	"github.com/kart-io/ragserve/internal/model"
)

// QueryCacheConfig 查询缓存配置。
type QueryCacheConfig struct {
	// Enabled 是否启用缓存。
	Enabled bool
	// TTL 缓存过期时间。
	TTL time.Duration
	// KeyPrefix 缓存键前缀。
	KeyPrefix string
}

// DefaultQueryCacheConfig 返回默认查询缓存配置。
func DefaultQueryCacheConfig() *QueryCacheConfig {
	return &QueryCacheConfig{
		Enabled:   true,
		TTL:       1 * time.Hour,
		KeyPrefix: "rag_cache:",
	}
}

// QueryCache 查询结果缓存。缓存不可用时全部操作降级为未命中，
// 不影响查询主流程。
type QueryCache struct {
	redis  *goredis.Client
	config *QueryCacheConfig
}

// NewQueryCache 创建查询缓存实例。
func NewQueryCache(redis *goredis.Client, config *QueryCacheConfig) *QueryCache {
	if config == nil {
		config = DefaultQueryCacheConfig()
	}
	return &QueryCache{
		redis:  redis,
		config: config,
	}
}

// Enabled 返回缓存是否可用。
func (c *QueryCache) Enabled() bool {
	return c.config.Enabled && c.redis != nil
}

// normalizeQuery 仅去除首尾空白并转小写，其余内容保持原样。
func normalizeQuery(query string) string {
	return strings.ToLower(strings.TrimSpace(query))
}

// generateCacheKey 基于规范化后的查询生成缓存键（SHA256 哈希）。
func (c *QueryCache) generateCacheKey(query string) string {
	hash := sha256.Sum256([]byte(normalizeQuery(query)))
	return c.config.KeyPrefix + hex.EncodeToString(hash[:])
}

// Get 从缓存获取查询结果。未命中和缓存故障均返回 nil。
func (c *QueryCache) Get(ctx context.Context, query string) *model.QueryResult {
	if !c.Enabled() {
		return nil
	}

	cacheKey := c.generateCacheKey(query)

	data, err := c.redis.Get(ctx, cacheKey).Bytes()
	if err != nil {
		if err == goredis.Nil {
			logger.Debugw("cache miss", "key", cacheKey)
			return nil
		}
		logger.Warnw("failed to get from cache", "error", err.Error(), "key", cacheKey)
		return nil
	}

	var result model.QueryResult
	if err := json.Unmarshal(data, &result); err != nil {
		logger.Warnw("failed to unmarshal cached result", "error", err.Error(), "key", cacheKey)
		// 删除损坏的缓存
		_ = c.redis.Del(ctx, cacheKey).Err()
		return nil
	}

	logger.Debugw("cache hit", "key", cacheKey, "answer_length", len(result.Answer))
	return &result
}

// Set 将查询结果写入缓存。写入失败仅记录日志。
func (c *QueryCache) Set(ctx context.Context, query string, result *model.QueryResult) {
	if !c.Enabled() {
		return
	}

	cacheKey := c.generateCacheKey(query)

	data, err := json.Marshal(result)
	if err != nil {
		logger.Warnw("failed to marshal result for caching", "error", err.Error())
		return
	}

	if err := c.redis.Set(ctx, cacheKey, data, c.config.TTL).Err(); err != nil {
		logger.Warnw("failed to set cache", "error", err.Error(), "key", cacheKey)
		return
	}

	logger.Debugw("cached query result", "key", cacheKey, "ttl", c.config.TTL)
}

// Clear 清除所有查询缓存键。
func (c *QueryCache) Clear(ctx context.Context) error {
	if !c.Enabled() {
		return nil
	}

	// 使用 SCAN 遍历，避免阻塞 Redis
	pattern := c.config.KeyPrefix + "*"
	iter := c.redis.Scan(ctx, 0, pattern, 0).Iterator()

	deletedCount := 0
	for iter.Next(ctx) {
		if err := c.redis.Del(ctx, iter.Val()).Err(); err != nil {
			logger.Warnw("failed to delete cache key", "error", err.Error(), "key", iter.Val())
		} else {
			deletedCount++
		}
	}

	if err := iter.Err(); err != nil {
		logger.Warnw("error during cache scan", "error", err.Error())
		return err
	}

	logger.Infow("cleared query cache", "deleted_count", deletedCount)
	return nil
}

// Stats 获取缓存统计信息。
func (c *QueryCache) Stats(ctx context.Context) map[string]interface{} {
	if !c.Enabled() {
		return map[string]interface{}{
			"enabled": false,
		}
	}

	pattern := c.config.KeyPrefix + "*"
	iter := c.redis.Scan(ctx, 0, pattern, 0).Iterator()

	keyCount := 0
	for iter.Next(ctx) {
		keyCount++
	}
	if err := iter.Err(); err != nil {
		logger.Warnw("error during cache scan", "error", err.Error())
	}

	return map[string]interface{}{
		"enabled":    true,
		"key_count":  keyCount,
		"ttl":        c.config.TTL.String(),
		"key_prefix": c.config.KeyPrefix,
	}
}
