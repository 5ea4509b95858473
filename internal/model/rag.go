// Package model provides data models for the ragserve service.
package model

import "time"

// Document represents a document being ingested into the knowledge base.
type Document struct {
	// Source is the origin of the document, typically the file name.
	Source string `json:"source"`

	// Text is the full extracted text.
	Text string `json:"text"`

	// Metadata carries loader details such as file type and page count.
	Metadata map[string]any `json:"metadata,omitempty"`
}

// Chunk is a contiguous piece of a document ready for embedding.
type Chunk struct {
	// ID is deterministic for a given document source and position, so
	// re-indexing the same document overwrites rather than duplicates.
	ID string `json:"id"`

	// Text is the chunk content.
	Text string `json:"text"`

	// Source is the originating document source.
	Source string `json:"source"`

	// Index is the position of the chunk within its document.
	Index int `json:"index"`

	// Strategy names the chunking strategy that produced this chunk.
	Strategy string `json:"strategy"`
}

// RouteKind classifies how a query should be served.
type RouteKind string

const (
	// RouteChat answers directly without retrieval.
	RouteChat RouteKind = "chat"

	// RouteRAG retrieves context before answering.
	RouteRAG RouteKind = "rag"

	// RouteSkip short-circuits the request with a fixed response,
	// calling neither retrieval nor generation. No routing rule
	// produces it today; callers must still handle it.
	RouteSkip RouteKind = "skip"
)

// RouteDecision is the outcome of query routing.
type RouteDecision struct {
	Kind   RouteKind `json:"kind"`
	Reason string    `json:"reason"`
}

// SourceChunk describes one retrieved chunk backing an answer.
type SourceChunk struct {
	ID     string  `json:"id"`
	Source string  `json:"source"`
	Text   string  `json:"text"`
	Score  float32 `json:"score"`
}

// QueryResult is the response to a query request.
type QueryResult struct {
	Answer         string        `json:"answer"`
	Sources        []SourceChunk `json:"sources,omitempty"`
	ModelUsed      string        `json:"model_used"`
	Cached         bool          `json:"cached"`
	RetrievalCount int           `json:"retrieval_count"`
	LatencyMs      float64       `json:"latency_ms"`
	TokensUsed     int           `json:"tokens_used"`
	CostUSD        float64       `json:"cost_usd"`
}

// QueryRecord is the persisted per-query metric record.
type QueryRecord struct {
	ID             int64     `json:"id"`
	Timestamp      time.Time `json:"timestamp"`
	Query          string    `json:"query"`
	Response       string    `json:"response"`
	LatencyMs      float64   `json:"latency_ms"`
	TokensUsed     int       `json:"tokens_used"`
	CostUSD        float64   `json:"cost_usd"`
	Model          string    `json:"model"`
	RetrievalCount int       `json:"retrieval_count"`
}

// IndexResult summarizes a document ingestion.
type IndexResult struct {
	Source     string `json:"source"`
	ChunkCount int    `json:"chunk_count"`
}
