package biz

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/kart-io/logger"
	"github.com/panjf2000/ants/v2"

	"github.com/kart-io/ragserve/internal/model"
	"github.com/kart-io/ragserve/internal/ragserve/metrics"
	"github.com/kart-io/ragserve/internal/ragserve/store"
	"github.com/kart-io/ragserve/pkg/errors"
	"github.com/kart-io/ragserve/pkg/llm"
	"github.com/kart-io/ragserve/pkg/llm/resilience"
	"github.com/kart-io/ragserve/pkg/loader"
)

// IndexerConfig 索引器配置。
type IndexerConfig struct {
	// BatchSize 每次嵌入调用的块数量。
	BatchSize int
	// Workers 目录索引的并发 worker 数量。
	Workers int
	// Retry 嵌入调用的重试配置，nil 使用默认值。
	Retry *resilience.RetryConfig
	// Breaker 嵌入调用的熔断器配置，nil 使用默认值。
	Breaker *resilience.CircuitBreakerConfig
}

// DefaultIndexerConfig 返回默认索引器配置。
func DefaultIndexerConfig() *IndexerConfig {
	return &IndexerConfig{
		BatchSize: 32,
		Workers:   4,
	}
}

// Indexer 负责文档切分、嵌入和入库。
type Indexer struct {
	store         store.VectorStore
	embedProvider llm.EmbeddingProvider
	chunker       Chunker
	config        *IndexerConfig
	counters      *metrics.Counters
	breaker       *resilience.CircuitBreaker
}

// NewIndexer 创建索引器实例。
func NewIndexer(
	vectorStore store.VectorStore,
	embedProvider llm.EmbeddingProvider,
	chunker Chunker,
	config *IndexerConfig,
) *Indexer {
	if config == nil {
		config = DefaultIndexerConfig()
	}
	if config.BatchSize <= 0 {
		config.BatchSize = 32
	}
	if config.Workers <= 0 {
		config.Workers = 4
	}
	if config.Retry == nil {
		config.Retry = resilience.DefaultRetryConfig()
	}
	return &Indexer{
		store:         vectorStore,
		embedProvider: embedProvider,
		chunker:       chunker,
		config:        config,
		counters:      metrics.GetCounters(),
		breaker:       resilience.NewCircuitBreaker(config.Breaker),
	}
}

// Index 切分、嵌入并写入单个文档。
// 块 ID 由来源和序号决定，重复索引同一文档覆盖旧块。
// 提取不到文本的文档视为不支持的输入，返回错误。
func (idx *Indexer) Index(ctx context.Context, doc *model.Document) (*model.IndexResult, error) {
	if strings.TrimSpace(doc.Text) == "" {
		err := errors.ErrUnsupportedMedia.WithMessagef("document %s contains no extractable text", doc.Source)
		idx.counters.RecordIndexing(0, 0, err)
		return nil, err
	}

	chunks := idx.chunker.Chunk(doc)
	if len(chunks) == 0 {
		err := errors.ErrUnsupportedMedia.WithMessagef("document %s produced no chunks", doc.Source)
		idx.counters.RecordIndexing(0, 0, err)
		return nil, err
	}

	for start := 0; start < len(chunks); start += idx.config.BatchSize {
		end := start + idx.config.BatchSize
		if end > len(chunks) {
			end = len(chunks)
		}
		batch := chunks[start:end]

		texts := make([]string, len(batch))
		for i, chunk := range batch {
			texts[i] = chunk.Text
		}

		var embeddings [][]float32
		err := resilience.RetryWithCircuitBreaker(ctx, idx.config.Retry, idx.breaker, func() error {
			var embedErr error
			embeddings, embedErr = idx.embedProvider.Embed(ctx, texts)
			return embedErr
		})
		if err != nil {
			idx.counters.RecordIndexing(0, 0, err)
			return nil, fmt.Errorf("failed to embed chunks: %w", err)
		}
		if len(embeddings) != len(batch) {
			err := fmt.Errorf("embedding count mismatch: got %d, want %d", len(embeddings), len(batch))
			idx.counters.RecordIndexing(0, 0, err)
			return nil, err
		}

		storeChunks := make([]*store.Chunk, len(batch))
		for i, chunk := range batch {
			storeChunks[i] = &store.Chunk{
				ID:        chunk.ID,
				Source:    chunk.Source,
				Index:     chunk.Index,
				Strategy:  chunk.Strategy,
				Text:      chunk.Text,
				Embedding: embeddings[i],
			}
		}

		if err := idx.store.Upsert(ctx, storeChunks); err != nil {
			idx.counters.RecordIndexing(0, 0, err)
			return nil, fmt.Errorf("failed to upsert chunks: %w", err)
		}
	}

	idx.counters.RecordIndexing(1, len(chunks), nil)
	logger.Infow("document indexed", "source", doc.Source, "chunk_count", len(chunks))

	return &model.IndexResult{
		Source:     doc.Source,
		ChunkCount: len(chunks),
	}, nil
}

// IndexDirectory 并发索引目录下的所有受支持文档。
// 单个文档失败不会中断其余文档，最后返回聚合错误。
func (idx *Indexer) IndexDirectory(ctx context.Context, dir string) ([]*model.IndexResult, error) {
	docs, err := loader.LoadDirectory(dir)
	if err != nil {
		return nil, err
	}
	if len(docs) == 0 {
		return nil, nil
	}

	pool, err := ants.NewPool(idx.config.Workers)
	if err != nil {
		return nil, fmt.Errorf("failed to create worker pool: %w", err)
	}
	defer pool.Release()

	var (
		mu      sync.Mutex
		wg      sync.WaitGroup
		results []*model.IndexResult
		errs    []error
	)

	for _, d := range docs {
		doc := &model.Document{
			Source:   d.Source,
			Text:     d.Text,
			Metadata: d.Metadata,
		}

		wg.Add(1)
		submitErr := pool.Submit(func() {
			defer wg.Done()

			result, indexErr := idx.Index(ctx, doc)
			mu.Lock()
			defer mu.Unlock()
			if indexErr != nil {
				errs = append(errs, fmt.Errorf("%s: %w", doc.Source, indexErr))
				return
			}
			results = append(results, result)
		})
		if submitErr != nil {
			wg.Done()
			mu.Lock()
			errs = append(errs, fmt.Errorf("%s: submit: %w", doc.Source, submitErr))
			mu.Unlock()
		}
	}

	wg.Wait()

	if len(errs) > 0 {
		return results, fmt.Errorf("indexed %d/%d documents, first error: %w", len(results), len(docs), errs[0])
	}
	return results, nil
}
