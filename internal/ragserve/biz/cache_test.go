package biz

import (
	"context"
	"testing"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kart-io/ragserve/internal/model"
)

// 辅助函数：创建测试用 Redis 客户端
func setupTestRedis(t *testing.T) *goredis.Client {
	client := goredis.NewClient(&goredis.Options{
		Addr: "localhost:6379",
		DB:   15, // 使用测试专用数据库
	})

	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		t.Skip("Redis 不可用，跳过测试")
	}

	client.FlushDB(ctx)

	return client
}

func TestNewQueryCache_WithNilConfig(t *testing.T) {
	cache := NewQueryCache(nil, nil)
	require.NotNil(t, cache)
	assert.True(t, cache.config.Enabled)
	assert.Equal(t, 1*time.Hour, cache.config.TTL)
	assert.Equal(t, "rag_cache:", cache.config.KeyPrefix)
	// Redis 客户端缺失时缓存整体降级
	assert.False(t, cache.Enabled())
}

func TestQueryCache_GenerateCacheKey(t *testing.T) {
	cache := NewQueryCache(nil, DefaultQueryCacheConfig())

	key1 := cache.generateCacheKey("What is RAG?")
	key2 := cache.generateCacheKey("  what is rag?  ") // 仅大小写和首尾空白不同
	key3 := cache.generateCacheKey("What is retrieval?")

	assert.Equal(t, key1, key2)
	assert.NotEqual(t, key1, key3)
	assert.Contains(t, key1, "rag_cache:")
}

func TestQueryCache_DisabledDegradesToMiss(t *testing.T) {
	ctx := context.Background()
	cache := NewQueryCache(nil, &QueryCacheConfig{Enabled: false, TTL: time.Hour, KeyPrefix: "rag_cache:"})

	// 禁用时所有操作都是安全的空操作
	assert.Nil(t, cache.Get(ctx, "any query"))
	cache.Set(ctx, "any query", &model.QueryResult{Answer: "a"})
	assert.NoError(t, cache.Clear(ctx))
	assert.Equal(t, false, cache.Stats(ctx)["enabled"])
}

func TestQueryCache_SetGet(t *testing.T) {
	client := setupTestRedis(t)
	defer func() { _ = client.Close() }()

	ctx := context.Background()
	cache := NewQueryCache(client, &QueryCacheConfig{
		Enabled:   true,
		TTL:       1 * time.Hour,
		KeyPrefix: "test:rag_cache:",
	})

	result := &model.QueryResult{
		Answer:         "RAG combines retrieval and generation.",
		ModelUsed:      "ollama-rag",
		RetrievalCount: 3,
		TokensUsed:     120,
		Sources: []model.SourceChunk{
			{ID: "doc.md_0", Source: "doc.md", Text: "RAG ...", Score: 0.92},
		},
	}

	cache.Set(ctx, "What is RAG?", result)

	got := cache.Get(ctx, "What is RAG?")
	require.NotNil(t, got)
	assert.Equal(t, result.Answer, got.Answer)
	assert.Equal(t, result.ModelUsed, got.ModelUsed)
	assert.Equal(t, result.RetrievalCount, got.RetrievalCount)
	require.Len(t, got.Sources, 1)
	assert.Equal(t, "doc.md_0", got.Sources[0].ID)

	// 规范化后相同的查询命中同一条缓存
	assert.NotNil(t, cache.Get(ctx, "  WHAT IS RAG?  "))

	// 不同查询未命中
	assert.Nil(t, cache.Get(ctx, "What is Milvus?"))
}

func TestQueryCache_CorruptEntryDeleted(t *testing.T) {
	client := setupTestRedis(t)
	defer func() { _ = client.Close() }()

	ctx := context.Background()
	cache := NewQueryCache(client, &QueryCacheConfig{
		Enabled:   true,
		TTL:       1 * time.Hour,
		KeyPrefix: "test:rag_cache:",
	})

	key := cache.generateCacheKey("broken")
	require.NoError(t, client.Set(ctx, key, "not-json{{", time.Hour).Err())

	// 损坏的缓存条目当作未命中并被删除
	assert.Nil(t, cache.Get(ctx, "broken"))
	assert.Equal(t, int64(0), client.Exists(ctx, key).Val())
}

func TestQueryCache_Clear(t *testing.T) {
	client := setupTestRedis(t)
	defer func() { _ = client.Close() }()

	ctx := context.Background()
	cache := NewQueryCache(client, &QueryCacheConfig{
		Enabled:   true,
		TTL:       1 * time.Hour,
		KeyPrefix: "test:rag_cache:",
	})

	cache.Set(ctx, "q1", &model.QueryResult{Answer: "a1"})
	cache.Set(ctx, "q2", &model.QueryResult{Answer: "a2"})

	// 前缀之外的键不受影响
	require.NoError(t, client.Set(ctx, "other:key", "v", time.Hour).Err())

	require.NoError(t, cache.Clear(ctx))
	assert.Nil(t, cache.Get(ctx, "q1"))
	assert.Nil(t, cache.Get(ctx, "q2"))
	assert.Equal(t, int64(1), client.Exists(ctx, "other:key").Val())
}

// 条目超过 TTL 后应当过期，再次查询为未命中。
func TestQueryCache_TTLExpiry(t *testing.T) {
	client := setupTestRedis(t)
	defer client.Close()

	ctx := context.Background()
	cache := NewQueryCache(client, &QueryCacheConfig{
		Enabled:   true,
		TTL:       100 * time.Millisecond,
		KeyPrefix: "rag_cache:",
	})

	cache.Set(ctx, "what is rag", &model.QueryResult{Answer: "retrieval augmented generation"})
	require.NotNil(t, cache.Get(ctx, "what is rag"))

	time.Sleep(200 * time.Millisecond)
	assert.Nil(t, cache.Get(ctx, "what is rag"))
}
