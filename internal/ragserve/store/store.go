// Package store provides vector storage for document chunks.
package store

import (
	"context"
)

// Chunk 表示带嵌入向量的文档块。
type Chunk struct {
	// ID 文档块 ID，由来源和块序号决定，重复写入同一 ID 会覆盖。
	ID string
	// Source 所属文档来源。
	Source string
	// Index 块在文档中的序号。
	Index int
	// Strategy 产生该块的切分策略名称。
	Strategy string
	// Text 文档块内容。
	Text string
	// Embedding 嵌入向量。
	Embedding []float32
}

// SearchResult 表示检索结果。
type SearchResult struct {
	// ID 文档块 ID。
	ID string
	// Source 所属文档来源。
	Source string
	// Text 文档块内容。
	Text string
	// Score 相似度分数。
	Score float32
}

// VectorStore 定义向量存储接口。
type VectorStore interface {
	// EnsureReady 创建集合（如不存在）并确保可用。
	EnsureReady(ctx context.Context) error

	// Upsert 批量写入文档块，相同 ID 覆盖旧值。
	Upsert(ctx context.Context, chunks []*Chunk) error

	// Search 向量相似度搜索。
	Search(ctx context.Context, embedding []float32, topK int) ([]*SearchResult, error)

	// DeleteBySource 删除指定来源的全部文档块。
	DeleteBySource(ctx context.Context, source string) error

	// Reset 清空集合。
	Reset(ctx context.Context) error

	// Count 返回集合中的文档块数量。
	Count(ctx context.Context) (int64, error)

	// Close 关闭连接。
	Close(ctx context.Context) error
}
