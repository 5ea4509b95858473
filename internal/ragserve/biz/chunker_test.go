package biz

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kart-io/ragserve/internal/model"
)

func TestNewChunker(t *testing.T) {
	config := &ChunkerConfig{ChunkSize: 100, ChunkOverlap: 20}

	fixed, err := NewChunker("fixed_size", config)
	require.NoError(t, err)
	assert.Equal(t, "fixed_size", fixed.Name())

	sentence, err := NewChunker("sentence", config)
	require.NoError(t, err)
	assert.Equal(t, "sentence", sentence.Name())
}

func TestNewChunker_UnknownStrategyFallsBack(t *testing.T) {
	// 未知策略回退到固定大小切分
	chunker, err := NewChunker("semantic", &ChunkerConfig{ChunkSize: 100, ChunkOverlap: 20})
	require.NoError(t, err)
	assert.Equal(t, "fixed_size", chunker.Name())
}

func TestNewChunker_InvalidConfig(t *testing.T) {
	tests := []struct {
		name   string
		config *ChunkerConfig
	}{
		{"零大小", &ChunkerConfig{ChunkSize: 0, ChunkOverlap: 0}},
		{"负大小", &ChunkerConfig{ChunkSize: -1, ChunkOverlap: 0}},
		{"负重叠", &ChunkerConfig{ChunkSize: 100, ChunkOverlap: -1}},
		{"重叠等于大小", &ChunkerConfig{ChunkSize: 100, ChunkOverlap: 100}},
		{"重叠大于大小", &ChunkerConfig{ChunkSize: 100, ChunkOverlap: 150}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewChunker("fixed_size", tt.config)
			assert.Error(t, err)
		})
	}
}

func TestFixedSizeChunker_EmptyText(t *testing.T) {
	chunker, err := NewChunker("fixed_size", &ChunkerConfig{ChunkSize: 100, ChunkOverlap: 20})
	require.NoError(t, err)

	chunks := chunker.Chunk(&model.Document{Source: "empty.txt", Text: ""})
	assert.Empty(t, chunks)
}

// 每个窗口原样输出：空白不裁剪，纯空白窗口也占一个序号。
func TestFixedSizeChunker_ExactWindows(t *testing.T) {
	chunker, err := NewChunker("fixed_size", &ChunkerConfig{ChunkSize: 4, ChunkOverlap: 0})
	require.NoError(t, err)

	chunks := chunker.Chunk(&model.Document{Source: "w.txt", Text: "ab        cd"})

	require.Len(t, chunks, 3)
	assert.Equal(t, "ab  ", chunks[0].Text)
	assert.Equal(t, "    ", chunks[1].Text)
	assert.Equal(t, "  cd", chunks[2].Text)
	for i, chunk := range chunks {
		assert.Equal(t, i, chunk.Index)
		assert.Equal(t, fmt.Sprintf("w.txt_%d", i), chunk.ID)
	}
}

func TestFixedSizeChunker_SingleChunk(t *testing.T) {
	chunker, err := NewChunker("fixed_size", &ChunkerConfig{ChunkSize: 100, ChunkOverlap: 20})
	require.NoError(t, err)

	chunks := chunker.Chunk(&model.Document{Source: "short.txt", Text: "hello world"})
	require.Len(t, chunks, 1)
	assert.Equal(t, "short.txt_0", chunks[0].ID)
	assert.Equal(t, "hello world", chunks[0].Text)
	assert.Equal(t, "short.txt", chunks[0].Source)
	assert.Equal(t, 0, chunks[0].Index)
	assert.Equal(t, "fixed_size", chunks[0].Strategy)
}

func TestFixedSizeChunker_OverlapWindows(t *testing.T) {
	chunker, err := NewChunker("fixed_size", &ChunkerConfig{ChunkSize: 10, ChunkOverlap: 3})
	require.NoError(t, err)

	text := "abcdefghijklmnopqrstuvwxyz"
	chunks := chunker.Chunk(&model.Document{Source: "alpha.txt", Text: text})

	// 步长 = 10 - 3 = 7
	require.Len(t, chunks, 4)
	assert.Equal(t, "abcdefghij", chunks[0].Text)
	assert.Equal(t, "hijklmnopq", chunks[1].Text)
	assert.Equal(t, "opqrstuvwx", chunks[2].Text)
	assert.Equal(t, "vwxyz", chunks[3].Text)

	for i, chunk := range chunks {
		assert.Equal(t, i, chunk.Index)
		assert.Equal(t, "alpha.txt", chunk.Source)
	}
}

func TestFixedSizeChunker_Deterministic(t *testing.T) {
	chunker, err := NewChunker("fixed_size", &ChunkerConfig{ChunkSize: 50, ChunkOverlap: 10})
	require.NoError(t, err)

	doc := &model.Document{Source: "doc.txt", Text: strings.Repeat("The quick brown fox jumps over the lazy dog. ", 20)}

	first := chunker.Chunk(doc)
	second := chunker.Chunk(doc)

	require.Equal(t, len(first), len(second))
	for i := range first {
		assert.Equal(t, first[i].ID, second[i].ID)
		assert.Equal(t, first[i].Text, second[i].Text)
	}
}

func TestFixedSizeChunker_MultiByte(t *testing.T) {
	chunker, err := NewChunker("fixed_size", &ChunkerConfig{ChunkSize: 4, ChunkOverlap: 0})
	require.NoError(t, err)

	// 按字符而非字节切分
	chunks := chunker.Chunk(&model.Document{Source: "cn.txt", Text: "检索增强生成服务"})
	require.Len(t, chunks, 2)
	assert.Equal(t, "检索增强", chunks[0].Text)
	assert.Equal(t, "生成服务", chunks[1].Text)
}

func TestSentenceChunker_Basic(t *testing.T) {
	chunker, err := NewChunker("sentence", &ChunkerConfig{ChunkSize: 40, ChunkOverlap: 0})
	require.NoError(t, err)

	text := "First sentence here. Second one follows! Third asks a question? Fourth wraps up."
	chunks := chunker.Chunk(&model.Document{Source: "s.txt", Text: text})

	// 每个句子单独成块，序号连续
	require.Len(t, chunks, 4)
	assert.Equal(t, "First sentence here.", chunks[0].Text)
	assert.Equal(t, "Second one follows!", chunks[1].Text)
	assert.Equal(t, "Third asks a question?", chunks[2].Text)
	assert.Equal(t, "Fourth wraps up.", chunks[3].Text)
	for i, chunk := range chunks {
		assert.Equal(t, i, chunk.Index)
		assert.Equal(t, fmt.Sprintf("s.txt_sent_%d", i), chunk.ID)
		assert.Equal(t, "sentence", chunk.Strategy)
	}
}

func TestSentenceChunker_OneChunkPerSentence(t *testing.T) {
	chunker, err := NewChunker("sentence", &ChunkerConfig{ChunkSize: 1000, ChunkOverlap: 0})
	require.NoError(t, err)

	chunks := chunker.Chunk(&model.Document{Source: "s.txt", Text: "One. Two. Three."})

	require.Len(t, chunks, 3)
	assert.Equal(t, "One.", chunks[0].Text)
	assert.Equal(t, "Two.", chunks[1].Text)
	assert.Equal(t, "Three.", chunks[2].Text)
	assert.Equal(t, "s.txt_sent_0", chunks[0].ID)
	assert.Equal(t, "s.txt_sent_2", chunks[2].ID)
}

func TestSentenceChunker_EmptyText(t *testing.T) {
	chunker, err := NewChunker("sentence", &ChunkerConfig{ChunkSize: 100, ChunkOverlap: 0})
	require.NoError(t, err)

	assert.Empty(t, chunker.Chunk(&model.Document{Source: "e.txt", Text: ""}))
}

func TestSentenceChunker_NoTerminator(t *testing.T) {
	chunker, err := NewChunker("sentence", &ChunkerConfig{ChunkSize: 100, ChunkOverlap: 0})
	require.NoError(t, err)

	chunks := chunker.Chunk(&model.Document{Source: "n.txt", Text: "no punctuation at all"})
	require.Len(t, chunks, 1)
	assert.Equal(t, "no punctuation at all", chunks[0].Text)
}

// 默认参数下 1500 字符恰好切成两块，第二块从 800 处开始。
func TestFixedSizeChunker_DefaultParams(t *testing.T) {
	chunker, err := NewChunker("fixed_size", &ChunkerConfig{ChunkSize: 1000, ChunkOverlap: 200})
	require.NoError(t, err)

	text := strings.Repeat("a", 1500)
	chunks := chunker.Chunk(&model.Document{Source: "page.txt", Text: text})

	require.Len(t, chunks, 2)
	assert.Len(t, chunks[0].Text, 1000)
	assert.Len(t, chunks[1].Text, 700)
}
