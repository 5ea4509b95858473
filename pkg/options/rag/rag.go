// Package rag provides RAG pipeline configuration options.
package rag

import (
	"fmt"

	"github.com/spf13/pflag"

	"github.com/kart-io/ragserve/pkg/options"
)

var _ options.IOptions = (*Options)(nil)

// Chunking strategy names understood by the chunker factory.
const (
	StrategyFixedSize = "fixed_size"
	StrategySentence  = "sentence"
)

// Options configures the RAG pipeline behavior.
type Options struct {
	// ChunkSize is the maximum chunk length in characters.
	ChunkSize int `json:"chunk-size" mapstructure:"chunk-size"`

	// ChunkOverlap is the number of characters shared between
	// consecutive fixed-size chunks. Must be smaller than ChunkSize.
	ChunkOverlap int `json:"chunk-overlap" mapstructure:"chunk-overlap"`

	// ChunkStrategy selects the chunking algorithm (fixed_size, sentence).
	ChunkStrategy string `json:"chunk-strategy" mapstructure:"chunk-strategy"`

	// TopK is the number of chunks retrieved per query.
	TopK int `json:"top-k" mapstructure:"top-k"`

	// EmbeddingDim is the dimension of the embedding vectors.
	EmbeddingDim int `json:"embedding-dim" mapstructure:"embedding-dim"`

	// SystemPrompt is the system instruction prepended to generation.
	SystemPrompt string `json:"system-prompt" mapstructure:"system-prompt"`

	// CostPer1KTokens is the estimated USD cost per 1000 tokens, used
	// for per-query cost accounting.
	CostPer1KTokens float64 `json:"cost-per-1k-tokens" mapstructure:"cost-per-1k-tokens"`

	// CacheEmbeddings enables the Redis-backed embedding cache in front
	// of the embedding provider.
	CacheEmbeddings bool `json:"cache-embeddings" mapstructure:"cache-embeddings"`
}

// NewOptions creates default RAG pipeline configuration.
func NewOptions() *Options {
	return &Options{
		ChunkSize:       1000,
		ChunkOverlap:    200,
		ChunkStrategy:   StrategyFixedSize,
		TopK:            5,
		EmbeddingDim:    768,
		SystemPrompt:    "You are a helpful assistant. Answer the question using the provided context. If the context does not contain the answer, say so.",
		CostPer1KTokens: 0.0005,
	}
}

// AddFlags adds flags for RAG options to the specified FlagSet.
func (o *Options) AddFlags(fs *pflag.FlagSet, prefixes ...string) {
	fs.IntVar(&o.ChunkSize, options.Join(prefixes...)+"rag.chunk-size", o.ChunkSize, "Maximum chunk size in characters.")
	fs.IntVar(&o.ChunkOverlap, options.Join(prefixes...)+"rag.chunk-overlap", o.ChunkOverlap, "Overlap between consecutive chunks in characters.")
	fs.StringVar(&o.ChunkStrategy, options.Join(prefixes...)+"rag.chunk-strategy", o.ChunkStrategy, "Chunking strategy (fixed_size, sentence).")
	fs.IntVar(&o.TopK, options.Join(prefixes...)+"rag.top-k", o.TopK, "Number of chunks retrieved per query.")
	fs.IntVar(&o.EmbeddingDim, options.Join(prefixes...)+"rag.embedding-dim", o.EmbeddingDim, "Embedding vector dimension.")
	fs.StringVar(&o.SystemPrompt, options.Join(prefixes...)+"rag.system-prompt", o.SystemPrompt, "System prompt for answer generation.")
	fs.Float64Var(&o.CostPer1KTokens, options.Join(prefixes...)+"rag.cost-per-1k-tokens", o.CostPer1KTokens, "Estimated USD cost per 1000 tokens.")
	fs.BoolVar(&o.CacheEmbeddings, options.Join(prefixes...)+"rag.cache-embeddings", o.CacheEmbeddings, "Cache embeddings in Redis.")
}

// Validate validates the RAG options.
func (o *Options) Validate() []error {
	if o == nil {
		return nil
	}

	var errs []error
	if o.ChunkSize <= 0 {
		errs = append(errs, fmt.Errorf("rag.chunk-size must be positive, got %d", o.ChunkSize))
	}
	if o.ChunkOverlap < 0 {
		errs = append(errs, fmt.Errorf("rag.chunk-overlap cannot be negative, got %d", o.ChunkOverlap))
	}
	if o.ChunkSize > 0 && o.ChunkOverlap >= o.ChunkSize {
		errs = append(errs, fmt.Errorf("rag.chunk-overlap (%d) must be smaller than rag.chunk-size (%d)", o.ChunkOverlap, o.ChunkSize))
	}
	if o.TopK <= 0 {
		errs = append(errs, fmt.Errorf("rag.top-k must be positive, got %d", o.TopK))
	}
	if o.EmbeddingDim <= 0 {
		errs = append(errs, fmt.Errorf("rag.embedding-dim must be positive, got %d", o.EmbeddingDim))
	}
	return errs
}

// Complete completes the RAG options with defaults.
func (o *Options) Complete() error {
	if o.ChunkStrategy == "" {
		o.ChunkStrategy = StrategyFixedSize
	}
	return nil
}
