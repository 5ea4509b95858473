package store

import (
	"context"
	"fmt"
	"strconv"
	"sync"

	"github.com/philippgille/chromem-go"

	storeopts "github.com/kart-io/ragserve/pkg/options/store"
)

// ChromemStore 实现基于 chromem-go 的嵌入式向量存储。
// 无需外部依赖，适合本地开发和小规模部署。
type ChromemStore struct {
	db         *chromem.DB
	collection string

	mu  sync.Mutex
	col *chromem.Collection
}

var _ VectorStore = (*ChromemStore)(nil)

// errPrecomputedEmbeddings 所有向量均由上层预先计算，禁止隐式调用。
func errPrecomputedEmbeddings(ctx context.Context, text string) ([]float32, error) {
	return nil, fmt.Errorf("embeddings are precomputed, embedding func must not be called")
}

// NewChromemStore 创建 chromem 存储实例。
// DataDir 非空时启用磁盘持久化，否则仅驻留内存。
func NewChromemStore(opts *storeopts.Options) (*ChromemStore, error) {
	var db *chromem.DB
	var err error

	if opts.DataDir != "" {
		db, err = chromem.NewPersistentDB(opts.DataDir, false)
		if err != nil {
			return nil, fmt.Errorf("failed to open chromem db: %w", err)
		}
	} else {
		db = chromem.NewDB()
	}

	return &ChromemStore{
		db:         db,
		collection: opts.Collection,
	}, nil
}

// EnsureReady 创建集合（如不存在）。
func (s *ChromemStore) EnsureReady(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	col, err := s.db.GetOrCreateCollection(s.collection, nil, errPrecomputedEmbeddings)
	if err != nil {
		return fmt.Errorf("failed to create chromem collection: %w", err)
	}
	s.col = col
	return nil
}

func (s *ChromemStore) getCollection() (*chromem.Collection, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.col == nil {
		return nil, fmt.Errorf("chromem collection not initialized")
	}
	return s.col, nil
}

// Upsert 批量写入文档块。chromem 按 ID 存储，相同 ID 覆盖旧值。
func (s *ChromemStore) Upsert(ctx context.Context, chunks []*Chunk) error {
	if len(chunks) == 0 {
		return nil
	}

	col, err := s.getCollection()
	if err != nil {
		return err
	}

	docs := make([]chromem.Document, len(chunks))
	for i, chunk := range chunks {
		docs[i] = chromem.Document{
			ID:        chunk.ID,
			Content:   chunk.Text,
			Embedding: chunk.Embedding,
			Metadata: map[string]string{
				"source":      chunk.Source,
				"chunk_index": strconv.Itoa(chunk.Index),
				"strategy":    chunk.Strategy,
			},
		}
	}

	if err := col.AddDocuments(ctx, docs, 1); err != nil {
		return fmt.Errorf("failed to add documents to chromem: %w", err)
	}
	return nil
}

// Search 执行向量相似度搜索。
func (s *ChromemStore) Search(ctx context.Context, embedding []float32, topK int) ([]*SearchResult, error) {
	col, err := s.getCollection()
	if err != nil {
		return nil, err
	}

	// chromem 要求 nResults 不超过集合大小
	count := col.Count()
	if count == 0 {
		return []*SearchResult{}, nil
	}
	if topK > count {
		topK = count
	}

	results, err := col.QueryEmbedding(ctx, embedding, topK, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to query chromem: %w", err)
	}

	searchResults := make([]*SearchResult, len(results))
	for i, r := range results {
		searchResults[i] = &SearchResult{
			ID:     r.ID,
			Source: r.Metadata["source"],
			Text:   r.Content,
			Score:  r.Similarity,
		}
	}
	return searchResults, nil
}

// DeleteBySource 删除指定来源的全部文档块。
func (s *ChromemStore) DeleteBySource(ctx context.Context, source string) error {
	col, err := s.getCollection()
	if err != nil {
		return err
	}

	if err := col.Delete(ctx, map[string]string{"source": source}, nil); err != nil {
		return fmt.Errorf("failed to delete from chromem: %w", err)
	}
	return nil
}

// Reset 清空集合：删除后重建。
func (s *ChromemStore) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.db.DeleteCollection(s.collection); err != nil {
		return fmt.Errorf("failed to delete chromem collection: %w", err)
	}

	col, err := s.db.GetOrCreateCollection(s.collection, nil, errPrecomputedEmbeddings)
	if err != nil {
		return fmt.Errorf("failed to recreate chromem collection: %w", err)
	}
	s.col = col
	return nil
}

// Count 返回集合中的文档块数量。
func (s *ChromemStore) Count(ctx context.Context) (int64, error) {
	col, err := s.getCollection()
	if err != nil {
		return 0, err
	}
	return int64(col.Count()), nil
}

// Close 关闭存储。chromem 无连接可关。
func (s *ChromemStore) Close(ctx context.Context) error {
	return nil
}
