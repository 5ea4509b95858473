package metrics

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kart-io/ragserve/internal/model"
	metricsopts "github.com/kart-io/ragserve/pkg/options/metrics"
)

func newTestSink(t *testing.T) *SQLiteSink {
	t.Helper()

	opts := metricsopts.NewOptions()
	opts.Path = filepath.Join(t.TempDir(), "metrics.db")

	sink, err := NewSQLiteSink(opts)
	require.NoError(t, err)
	t.Cleanup(func() { _ = sink.Close() })
	return sink
}

func record(query, response, modelName string) *model.QueryRecord {
	return &model.QueryRecord{
		Timestamp:      time.Now(),
		Query:          query,
		Response:       response,
		LatencyMs:      12.5,
		TokensUsed:     100,
		CostUSD:        0.0002,
		Model:          modelName,
		RetrievalCount: 3,
	}
}

func TestAppendAndRecent(t *testing.T) {
	sink := newTestSink(t)
	ctx := context.Background()

	require.NoError(t, sink.Append(ctx, record("first", "answer one", "groq-rag")))
	require.NoError(t, sink.Append(ctx, record("second", "answer two", "groq-chat")))

	records, err := sink.Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, records, 2)

	// 最近的记录在前
	assert.Equal(t, "second", records[0].Query)
	assert.Equal(t, "first", records[1].Query)
	assert.Equal(t, "groq-chat", records[0].Model)
	assert.Equal(t, 3, records[0].RetrievalCount)
	assert.InDelta(t, 12.5, records[0].LatencyMs, 1e-9)
	assert.False(t, records[0].Timestamp.IsZero())
}

func TestRecentHonorsLimit(t *testing.T) {
	sink := newTestSink(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		require.NoError(t, sink.Append(ctx, record("q", "a", "m")))
	}

	records, err := sink.Recent(ctx, 3)
	require.NoError(t, err)
	assert.Len(t, records, 3)
}

func TestAppendTruncatesResponse(t *testing.T) {
	sink := newTestSink(t)
	ctx := context.Background()

	long := strings.Repeat("x", 250)
	require.NoError(t, sink.Append(ctx, record("q", long, "m")))

	records, err := sink.Recent(ctx, 1)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Len(t, records[0].Response, 103) // 100 chars + "..."
	assert.True(t, strings.HasSuffix(records[0].Response, "..."))
}

func TestShortResponseNotTruncated(t *testing.T) {
	sink := newTestSink(t)
	ctx := context.Background()

	require.NoError(t, sink.Append(ctx, record("q", "short answer", "m")))

	records, err := sink.Recent(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "short answer", records[0].Response)
}

func TestRecentEmpty(t *testing.T) {
	sink := newTestSink(t)

	records, err := sink.Recent(context.Background(), 10)
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestNopSink(t *testing.T) {
	var sink Sink = NopSink{}
	ctx := context.Background()

	require.NoError(t, sink.Append(ctx, record("q", "a", "m")))
	records, err := sink.Recent(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, records)
	assert.NoError(t, sink.Close())
}
