package biz

import (
	"context"
	"strings"
	"time"

	"github.com/kart-io/logger"

	"github.com/kart-io/ragserve/internal/model"
	"github.com/kart-io/ragserve/internal/ragserve/metrics"
	"github.com/kart-io/ragserve/internal/ragserve/store"
	"github.com/kart-io/ragserve/pkg/errors"
	"github.com/kart-io/ragserve/pkg/llm"
)

// 模型标签。
const (
	modelCacheHit = "cache-hit"
	modelFallback = "fallback"
	modelSkip     = "skip"
)

// fallbackAnswer 生成失败时返回的降级答案。
const fallbackAnswer = "I'm sorry, I'm having trouble generating a response right now. Please try again later."

// skipAnswer 跳过路径的固定响应。当前路由规则不会产生跳过路径。
const skipAnswer = "Please provide a question so I can help you."

// Service 定义 RAG 服务接口。
type Service interface {
	// Query 执行查询：缓存、路由、检索、生成。
	Query(ctx context.Context, query string) (*model.QueryResult, error)
	// IndexDocument 索引单个文档。
	IndexDocument(ctx context.Context, doc *model.Document) (*model.IndexResult, error)
	// IndexDirectory 索引目录中的所有文档。
	IndexDirectory(ctx context.Context, dir string) ([]*model.IndexResult, error)
	// DeleteSource 删除指定来源的全部文档块。
	DeleteSource(ctx context.Context, source string) error
	// Reset 清空知识库和查询缓存。
	Reset(ctx context.Context) error
	// RecentRecords 返回最近的查询记录。
	RecentRecords(ctx context.Context, limit int) ([]*model.QueryRecord, error)
	// Stats 获取知识库统计信息。
	Stats(ctx context.Context) (map[string]any, error)
}

// ServiceConfig RAG 服务配置。
type ServiceConfig struct {
	IndexerConfig   *IndexerConfig
	RetrieverConfig *RetrieverConfig
	GeneratorConfig *GeneratorConfig
	// CostPer1KTokens 每千 token 的估算成本（美元）。
	CostPer1KTokens float64
}

// RAGService 组合路由器、缓存、检索器和生成器提供完整的查询服务。
type RAGService struct {
	router        *QueryRouter
	indexer       *Indexer
	retriever     *Retriever
	generator     *Generator
	cache         *QueryCache
	store         store.VectorStore
	embedProvider llm.EmbeddingProvider
	chatProvider  llm.ChatProvider
	sink          metrics.Sink
	counters      *metrics.Counters
	costPer1K     float64
}

var _ Service = (*RAGService)(nil)

// NewRAGService 创建 RAG 服务实例。
func NewRAGService(
	vectorStore store.VectorStore,
	embedProvider llm.EmbeddingProvider,
	chatProvider llm.ChatProvider,
	chunker Chunker,
	cache *QueryCache,
	sink metrics.Sink,
	config *ServiceConfig,
) *RAGService {
	if sink == nil {
		sink = metrics.NopSink{}
	}
	return &RAGService{
		router:        NewQueryRouter(),
		indexer:       NewIndexer(vectorStore, embedProvider, chunker, config.IndexerConfig),
		retriever:     NewRetriever(vectorStore, embedProvider, config.RetrieverConfig),
		generator:     NewGenerator(chatProvider, config.GeneratorConfig),
		cache:         cache,
		store:         vectorStore,
		embedProvider: embedProvider,
		chatProvider:  chatProvider,
		sink:          sink,
		counters:      metrics.GetCounters(),
		costPer1K:     config.CostPer1KTokens,
	}
}

// Query 执行查询。
//
// 流程：先路由再查缓存，命中直接返回；问候语和超短查询走对话
// 路径，其余走检索路径。检索失败向上传播；生成失败返回降级答案
// 并照常写缓存。延迟从进入本方法起计量，到构建响应前为止，响应
// 和指标记录使用同一个值。每次成功请求恰好产生一条指标记录。
func (s *RAGService) Query(ctx context.Context, query string) (*model.QueryResult, error) {
	start := time.Now()

	if strings.TrimSpace(query) == "" {
		return nil, errors.ErrInvalidParam.WithMessage("query cannot be empty")
	}

	// 1. 路由：本次请求的路径一次确定
	decision := s.router.Route(query)

	// 2. 缓存查找：键只依赖查询文本，对话和检索路径共用
	if cached := s.cache.Get(ctx, query); cached != nil {
		latency := msSince(start)
		cached.Cached = true
		cached.ModelUsed = modelCacheHit
		cached.LatencyMs = latency

		s.counters.RecordQuery(true, nil)
		s.appendRecord(ctx, query, cached)
		return cached, nil
	}

	var result *model.QueryResult
	switch decision.Kind {
	case model.RouteChat:
		result = s.queryChat(ctx, query)
	case model.RouteSkip:
		// 跳过路径：不检索也不生成，直接返回固定响应
		result = &model.QueryResult{
			Answer:    skipAnswer,
			ModelUsed: modelSkip,
		}
	default:
		ragResult, err := s.queryRAG(ctx, query)
		if err != nil {
			s.counters.RecordQuery(false, err)
			return nil, err
		}
		result = ragResult
	}

	// 3. 延迟计量：进入方法到构建响应前
	result.LatencyMs = msSince(start)

	// 4. 写缓存。降级答案也缓存，在 TTL 内保持响应一致
	s.cache.Set(ctx, query, result)

	s.counters.RecordQuery(false, nil)
	s.appendRecord(ctx, query, result)
	return result, nil
}

// queryChat 对话路径：不检索，直接生成。生成失败返回降级答案。
func (s *RAGService) queryChat(ctx context.Context, query string) *model.QueryResult {
	llmStart := time.Now()
	gen, err := s.generator.GenerateDirect(ctx, query)
	s.recordLLMCall(llmStart, gen, err)

	if err != nil {
		logger.Warnw("chat generation failed, returning fallback", "error", err.Error())
		return &model.QueryResult{
			Answer:    fallbackAnswer,
			ModelUsed: modelFallback,
		}
	}

	return &model.QueryResult{
		Answer:     gen.Content,
		ModelUsed:  s.chatProvider.Name() + "-chat",
		TokensUsed: gen.Usage.TotalTokens,
		CostUSD:    s.estimateCost(gen.Usage.TotalTokens),
	}
}

// queryRAG 检索路径。检索失败向上传播，生成失败返回降级答案。
func (s *RAGService) queryRAG(ctx context.Context, query string) (*model.QueryResult, error) {
	retrievalStart := time.Now()
	retrieval, err := s.retriever.Retrieve(ctx, query)
	s.counters.RecordRetrieval(time.Since(retrievalStart), err)
	if err != nil {
		return nil, errors.ErrRetrieval.WithCause(err)
	}

	sources := make([]model.SourceChunk, len(retrieval.Results))
	for i, r := range retrieval.Results {
		sources[i] = model.SourceChunk{
			ID:     r.ID,
			Source: r.Source,
			Text:   r.Text,
			Score:  r.Score,
		}
	}

	llmStart := time.Now()
	gen, err := s.generator.GenerateWithContext(ctx, query, retrieval.Results)
	s.recordLLMCall(llmStart, gen, err)

	if err != nil {
		logger.Warnw("rag generation failed, returning fallback", "error", err.Error())
		return &model.QueryResult{
			Answer:         fallbackAnswer,
			Sources:        sources,
			ModelUsed:      modelFallback,
			RetrievalCount: len(sources),
		}, nil
	}

	return &model.QueryResult{
		Answer:         gen.Content,
		Sources:        sources,
		ModelUsed:      s.chatProvider.Name() + "-rag",
		RetrievalCount: len(sources),
		TokensUsed:     gen.Usage.TotalTokens,
		CostUSD:        s.estimateCost(gen.Usage.TotalTokens),
	}, nil
}

func (s *RAGService) recordLLMCall(start time.Time, gen *llm.ChatResult, err error) {
	promptTokens := 0
	completionTokens := 0
	if gen != nil {
		promptTokens = gen.Usage.PromptTokens
		completionTokens = gen.Usage.CompletionTokens
	}
	s.counters.RecordLLMCall(time.Since(start), promptTokens, completionTokens, err)
}

// appendRecord 写入一条查询记录。写入失败仅记录日志。
func (s *RAGService) appendRecord(ctx context.Context, query string, result *model.QueryResult) {
	record := &model.QueryRecord{
		Timestamp:      time.Now(),
		Query:          query,
		Response:       result.Answer,
		LatencyMs:      result.LatencyMs,
		TokensUsed:     result.TokensUsed,
		CostUSD:        result.CostUSD,
		Model:          result.ModelUsed,
		RetrievalCount: result.RetrievalCount,
	}
	if err := s.sink.Append(ctx, record); err != nil {
		logger.Warnw("failed to append query record", "error", err.Error())
	}
}

func (s *RAGService) estimateCost(tokens int) float64 {
	return float64(tokens) / 1000 * s.costPer1K
}

func msSince(start time.Time) float64 {
	return float64(time.Since(start).Microseconds()) / 1000
}

// IndexDocument 索引单个文档。
func (s *RAGService) IndexDocument(ctx context.Context, doc *model.Document) (*model.IndexResult, error) {
	return s.indexer.Index(ctx, doc)
}

// IndexDirectory 索引目录中的所有文档。
func (s *RAGService) IndexDirectory(ctx context.Context, dir string) ([]*model.IndexResult, error) {
	return s.indexer.IndexDirectory(ctx, dir)
}

// DeleteSource 删除指定来源的全部文档块，并清空查询缓存。
func (s *RAGService) DeleteSource(ctx context.Context, source string) error {
	if err := s.store.DeleteBySource(ctx, source); err != nil {
		return errors.ErrIndexing.WithCause(err)
	}
	// 已删除的内容可能仍在缓存的答案里
	if err := s.cache.Clear(ctx); err != nil {
		logger.Warnw("failed to clear cache after delete", "error", err.Error())
	}
	return nil
}

// Reset 清空知识库和查询缓存。
func (s *RAGService) Reset(ctx context.Context) error {
	if err := s.store.Reset(ctx); err != nil {
		return errors.ErrIndexing.WithCause(err)
	}
	if err := s.cache.Clear(ctx); err != nil {
		logger.Warnw("failed to clear cache after reset", "error", err.Error())
	}
	return nil
}

// RecentRecords 返回最近的查询记录。
func (s *RAGService) RecentRecords(ctx context.Context, limit int) ([]*model.QueryRecord, error) {
	return s.sink.Recent(ctx, limit)
}

// Stats 获取知识库统计信息。
func (s *RAGService) Stats(ctx context.Context) (map[string]any, error) {
	count, err := s.store.Count(ctx)
	if err != nil {
		return nil, errors.ErrRetrieval.WithCause(err)
	}

	return map[string]any{
		"chunk_count":    count,
		"embed_provider": s.embedProvider.Name(),
		"chat_provider":  s.chatProvider.Name(),
		"cache":          s.cache.Stats(ctx),
		"metrics":        s.counters.Stats(),
	}, nil
}
