package store

import (
	"context"
	"fmt"
	"strconv"

	"github.com/milvus-io/milvus/client/v2/entity"

	"github.com/kart-io/ragserve/pkg/component/milvus"
	storeopts "github.com/kart-io/ragserve/pkg/options/store"
)

// milvusOutputFields 检索时返回的元数据字段。
var milvusOutputFields = []string{"source", "chunk_index", "text"}

// MilvusStore 实现基于 Milvus 的向量存储。
type MilvusStore struct {
	client     *milvus.Client
	collection string
	dimension  int
}

var _ VectorStore = (*MilvusStore)(nil)

// NewMilvusStore 创建 Milvus 存储实例。
func NewMilvusStore(opts *storeopts.Options, dimension int) (*MilvusStore, error) {
	client, err := milvus.New(opts)
	if err != nil {
		return nil, err
	}

	return &MilvusStore{
		client:     client,
		collection: opts.Collection,
		dimension:  dimension,
	}, nil
}

// EnsureReady 创建集合（如不存在）。
func (s *MilvusStore) EnsureReady(ctx context.Context) error {
	schema := &milvus.CollectionSchema{
		Name:        s.collection,
		Description: "document chunks with embeddings",
		Dimension:   s.dimension,
		MetaFields: []milvus.MetaField{
			{Name: "source", DataType: entity.FieldTypeVarChar, MaxLen: 512},
			{Name: "chunk_index", DataType: entity.FieldTypeInt64},
			{Name: "strategy", DataType: entity.FieldTypeVarChar, MaxLen: 64},
			{Name: "text", DataType: entity.FieldTypeVarChar, MaxLen: 65535},
		},
	}
	return s.client.EnsureCollection(ctx, schema)
}

// Upsert 批量写入文档块，相同 ID 覆盖旧值。
func (s *MilvusStore) Upsert(ctx context.Context, chunks []*Chunk) error {
	if len(chunks) == 0 {
		return nil
	}

	data := &milvus.UpsertData{
		IDs:        make([]string, len(chunks)),
		Embeddings: make([][]float32, len(chunks)),
		Metadata: map[string][]any{
			"source":      make([]any, len(chunks)),
			"chunk_index": make([]any, len(chunks)),
			"strategy":    make([]any, len(chunks)),
			"text":        make([]any, len(chunks)),
		},
	}

	for i, chunk := range chunks {
		data.IDs[i] = chunk.ID
		data.Embeddings[i] = chunk.Embedding
		data.Metadata["source"][i] = chunk.Source
		data.Metadata["chunk_index"][i] = int64(chunk.Index)
		data.Metadata["strategy"][i] = chunk.Strategy
		data.Metadata["text"][i] = chunk.Text
	}

	if err := s.client.Upsert(ctx, s.collection, data); err != nil {
		return fmt.Errorf("failed to upsert into milvus: %w", err)
	}
	return nil
}

// Search 执行向量相似度搜索。
func (s *MilvusStore) Search(ctx context.Context, embedding []float32, topK int) ([]*SearchResult, error) {
	results, err := s.client.Search(ctx, s.collection, embedding, topK, milvusOutputFields)
	if err != nil {
		return nil, fmt.Errorf("failed to search milvus: %w", err)
	}

	searchResults := make([]*SearchResult, len(results))
	for i, r := range results {
		sr := &SearchResult{
			ID:    r.ID,
			Score: r.Score,
		}
		if v, ok := r.Metadata["source"].(string); ok {
			sr.Source = v
		}
		if v, ok := r.Metadata["text"].(string); ok {
			sr.Text = v
		}
		searchResults[i] = sr
	}

	return searchResults, nil
}

// DeleteBySource 删除指定来源的全部文档块。
func (s *MilvusStore) DeleteBySource(ctx context.Context, source string) error {
	expr := "source == " + strconv.Quote(source)
	return s.client.DeleteByExpr(ctx, s.collection, expr)
}

// Reset 清空集合：删除后重建。
func (s *MilvusStore) Reset(ctx context.Context) error {
	if err := s.client.DropCollection(ctx, s.collection); err != nil {
		return err
	}
	return s.EnsureReady(ctx)
}

// Count 返回集合中的文档块数量。
func (s *MilvusStore) Count(ctx context.Context) (int64, error) {
	return s.client.GetCollectionStats(ctx, s.collection)
}

// Close 关闭连接。
func (s *MilvusStore) Close(ctx context.Context) error {
	return s.client.Close(ctx)
}
