package biz

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/kart-io/logger"

	"github.com/kart-io/ragserve/internal/model"
	ragopts "github.com/kart-io/ragserve/pkg/options/rag"
)

// Chunker 将文档文本切分为可嵌入的文档块。
type Chunker interface {
	// Chunk 切分文档，返回的块 ID 由来源和块序号决定，
	// 对同一输入重复调用结果一致。
	Chunk(doc *model.Document) []*model.Chunk

	// Name 返回切分策略名称。
	Name() string
}

// ChunkerConfig 切分器配置。
type ChunkerConfig struct {
	// ChunkSize 块的最大字符数。
	ChunkSize int
	// ChunkOverlap 相邻块之间的重叠字符数，必须小于 ChunkSize。
	ChunkOverlap int
}

// NewChunker 根据策略名称创建切分器。
// 未知策略回退到固定大小切分并记录警告。
func NewChunker(strategy string, config *ChunkerConfig) (Chunker, error) {
	if config.ChunkSize <= 0 {
		return nil, fmt.Errorf("chunk size must be positive, got %d", config.ChunkSize)
	}
	if config.ChunkOverlap < 0 || config.ChunkOverlap >= config.ChunkSize {
		return nil, fmt.Errorf("chunk overlap %d must be in [0, %d)", config.ChunkOverlap, config.ChunkSize)
	}

	switch strategy {
	case ragopts.StrategyFixedSize:
		return &FixedSizeChunker{config: config}, nil
	case ragopts.StrategySentence:
		return &SentenceChunker{}, nil
	default:
		logger.Warnw("unknown chunk strategy, falling back to fixed_size", "strategy", strategy)
		return &FixedSizeChunker{config: config}, nil
	}
}

// FixedSizeChunker 固定大小滑动窗口切分。
type FixedSizeChunker struct {
	config *ChunkerConfig
}

// Name 返回切分策略名称。
func (c *FixedSizeChunker) Name() string { return ragopts.StrategyFixedSize }

// Chunk 以 ChunkSize 为窗口、ChunkSize-ChunkOverlap 为步长切分文本。
// 每个窗口原样输出，相邻块重叠恰好 ChunkOverlap 个字符，完整覆盖
// 全文无空洞。按 rune 计数，多字节字符不会被截断。空文本返回零块。
func (c *FixedSizeChunker) Chunk(doc *model.Document) []*model.Chunk {
	runes := []rune(doc.Text)
	if len(runes) == 0 {
		return nil
	}

	step := c.config.ChunkSize - c.config.ChunkOverlap
	var chunks []*model.Chunk

	for start := 0; start < len(runes); start += step {
		end := start + c.config.ChunkSize
		if end > len(runes) {
			end = len(runes)
		}

		chunks = append(chunks, &model.Chunk{
			ID:       fmt.Sprintf("%s_%d", doc.Source, len(chunks)),
			Text:     string(runes[start:end]),
			Source:   doc.Source,
			Index:    len(chunks),
			Strategy: ragopts.StrategyFixedSize,
		})

		if end == len(runes) {
			break
		}
	}

	return chunks
}

// sentenceBoundary 匹配句子终结符及其后的空白。
var sentenceBoundary = regexp.MustCompile(`[.!?]\s+`)

// SentenceChunker 按句子边界切分，每个保留的句子单独成块。
type SentenceChunker struct{}

// Name 返回切分策略名称。
func (c *SentenceChunker) Name() string { return ragopts.StrategySentence }

// splitSentences 在句子终结符之后切开文本。
func splitSentences(text string) []string {
	var sentences []string
	last := 0
	for _, loc := range sentenceBoundary.FindAllStringIndex(text, -1) {
		// loc[0] 是终结符位置，句子在终结符之后结束
		sentence := strings.TrimSpace(text[last : loc[0]+1])
		if sentence != "" {
			sentences = append(sentences, sentence)
		}
		last = loc[1]
	}
	if tail := strings.TrimSpace(text[last:]); tail != "" {
		sentences = append(sentences, tail)
	}
	return sentences
}

// Chunk 每个保留的句子生成一个块。空白片段被丢弃且不占用序号，
// 块序号在保留的句子上连续无空洞。
func (c *SentenceChunker) Chunk(doc *model.Document) []*model.Chunk {
	sentences := splitSentences(doc.Text)
	if len(sentences) == 0 {
		return nil
	}

	chunks := make([]*model.Chunk, len(sentences))
	for i, sentence := range sentences {
		chunks[i] = &model.Chunk{
			ID:       fmt.Sprintf("%s_sent_%d", doc.Source, i),
			Text:     sentence,
			Source:   doc.Source,
			Index:    i,
			Strategy: ragopts.StrategySentence,
		}
	}

	return chunks
}
