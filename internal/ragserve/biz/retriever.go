package biz

import (
	"context"
	"fmt"

	"github.com/kart-io/logger"

	"github.com/kart-io/ragserve/internal/ragserve/store"
	"github.com/kart-io/ragserve/pkg/llm"
	"github.com/kart-io/ragserve/pkg/llm/resilience"
)

// RetrieverConfig 检索器配置。
type RetrieverConfig struct {
	// TopK 返回的结果数量。
	TopK int
	// Retry 嵌入调用的重试配置，nil 使用默认值。
	Retry *resilience.RetryConfig
	// Breaker 嵌入调用的熔断器配置，nil 使用默认值。
	Breaker *resilience.CircuitBreakerConfig
}

// RetrievalResult 表示检索结果。
type RetrievalResult struct {
	// Query 原始查询。
	Query string
	// Results 检索结果列表。
	Results []*store.SearchResult
}

// Retriever 负责文档检索。检索失败向上传播，
// 由调用方决定是否整体失败。
type Retriever struct {
	store         store.VectorStore
	embedProvider llm.EmbeddingProvider
	config        *RetrieverConfig
	breaker       *resilience.CircuitBreaker
}

// NewRetriever 创建检索器实例。
func NewRetriever(
	vectorStore store.VectorStore,
	embedProvider llm.EmbeddingProvider,
	config *RetrieverConfig,
) *Retriever {
	if config.Retry == nil {
		config.Retry = resilience.DefaultRetryConfig()
	}
	return &Retriever{
		store:         vectorStore,
		embedProvider: embedProvider,
		config:        config,
		breaker:       resilience.NewCircuitBreaker(config.Breaker),
	}
}

// Retrieve 嵌入查询并执行向量检索。
func (r *Retriever) Retrieve(ctx context.Context, query string) (*RetrievalResult, error) {
	var embedding []float32
	err := resilience.RetryWithCircuitBreaker(ctx, r.config.Retry, r.breaker, func() error {
		var embedErr error
		embedding, embedErr = r.embedProvider.EmbedSingle(ctx, query)
		return embedErr
	})
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	results, err := r.store.Search(ctx, embedding, r.config.TopK)
	if err != nil {
		return nil, fmt.Errorf("failed to search vector store: %w", err)
	}

	logger.Debugw("retrieval completed", "result_count", len(results), "top_k", r.config.TopK)

	return &RetrievalResult{
		Query:   query,
		Results: results,
	}, nil
}
