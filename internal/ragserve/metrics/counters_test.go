package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRecordQuery(t *testing.T) {
	m := &Counters{startTime: time.Now()}

	m.RecordQuery(true, nil)
	m.RecordQuery(false, nil)
	m.RecordQuery(false, errors.New("boom"))

	stats := m.Stats()
	queries := stats["queries"].(map[string]interface{})
	assert.Equal(t, uint64(3), queries["total"])
	assert.Equal(t, uint64(1), queries["cache_hits"])
	assert.Equal(t, uint64(1), queries["cache_misses"])
	assert.Equal(t, uint64(1), queries["errors"])
	assert.InDelta(t, 0.5, queries["cache_hit_rate"], 1e-9)
}

func TestRecordLLMCall(t *testing.T) {
	m := &Counters{startTime: time.Now()}

	m.RecordLLMCall(100*time.Millisecond, 10, 20, nil)
	m.RecordLLMCall(0, 0, 0, errors.New("boom"))

	stats := m.Stats()
	llm := stats["llm"].(map[string]interface{})
	assert.Equal(t, uint64(2), llm["calls_total"])
	assert.Equal(t, uint64(1), llm["errors"])
	assert.Equal(t, uint64(10), llm["tokens_prompt"])
	assert.Equal(t, uint64(20), llm["tokens_completion"])
}

func TestRecordIndexing(t *testing.T) {
	m := &Counters{startTime: time.Now()}

	m.RecordIndexing(2, 40, nil)
	m.RecordIndexing(0, 0, errors.New("boom"))

	stats := m.Stats()
	indexing := stats["indexing"].(map[string]interface{})
	assert.Equal(t, uint64(2), indexing["documents_indexed"])
	assert.Equal(t, uint64(40), indexing["chunks_indexed"])
	assert.Equal(t, uint64(1), indexing["errors"])
}

func TestExportPrometheusFormat(t *testing.T) {
	m := &Counters{startTime: time.Now()}
	m.RecordQuery(true, nil)
	m.RecordRetrieval(50*time.Millisecond, nil)

	out := m.Export("ragserve", "rag")
	assert.Contains(t, out, "ragserve_rag_queries_total 1")
	assert.Contains(t, out, "ragserve_rag_retrieval_total 1")
	assert.Contains(t, out, "# TYPE ragserve_rag_queries_total counter")
	assert.Contains(t, out, "ragserve_rag_uptime_seconds")
}

func TestReset(t *testing.T) {
	m := &Counters{startTime: time.Now()}
	m.RecordQuery(true, nil)
	m.RecordLLMCall(time.Second, 5, 5, nil)

	m.Reset()

	stats := m.Stats()
	queries := stats["queries"].(map[string]interface{})
	assert.Equal(t, uint64(0), queries["total"])
}
