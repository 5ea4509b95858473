package biz

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/kart-io/logger"

	"github.com/kart-io/ragserve/internal/ragserve/store"
	"github.com/kart-io/ragserve/pkg/llm"
	"github.com/kart-io/ragserve/pkg/llm/resilience"
)

// GeneratorConfig 生成器配置。
type GeneratorConfig struct {
	// SystemPrompt 系统提示词。
	SystemPrompt string
	// Retry LLM 调用的重试配置，nil 使用默认值。
	Retry *resilience.RetryConfig
	// Breaker 熔断器配置，nil 使用默认值。
	Breaker *resilience.CircuitBreakerConfig
}

// Generator 负责答案生成。
type Generator struct {
	chatProvider llm.ChatProvider
	config       *GeneratorConfig
	breaker      *resilience.CircuitBreaker
}

// NewGenerator 创建生成器实例。
func NewGenerator(chatProvider llm.ChatProvider, config *GeneratorConfig) *Generator {
	if config.Retry == nil {
		config.Retry = resilience.DefaultRetryConfig()
		// 供应商不可用和熔断打开没有重试的意义
		config.Retry.RetryableErrors = func(err error) bool {
			return !errors.Is(err, llm.ErrUnavailable) &&
				!errors.Is(err, resilience.ErrCircuitBreakerOpen)
		}
	}
	return &Generator{
		chatProvider: chatProvider,
		config:       config,
		breaker:      resilience.NewCircuitBreaker(config.Breaker),
	}
}

// GenerateDirect 直接对话生成，不附带检索上下文。
func (g *Generator) GenerateDirect(ctx context.Context, query string) (*llm.ChatResult, error) {
	return g.generate(ctx, query, g.config.SystemPrompt)
}

// GenerateWithContext 根据检索结果生成答案。
func (g *Generator) GenerateWithContext(ctx context.Context, query string, results []*store.SearchResult) (*llm.ChatResult, error) {
	if len(results) == 0 {
		return &llm.ChatResult{
			Content: "I couldn't find any relevant information in the knowledge base.",
		}, nil
	}

	var contextBuilder strings.Builder
	for i, result := range results {
		contextBuilder.WriteString(fmt.Sprintf("[%d] From %s:\n%s\n\n", i+1, result.Source, result.Text))
	}

	prompt := fmt.Sprintf("Context:\n%s\nQuestion: %s", contextBuilder.String(), query)

	return g.generate(ctx, prompt, g.config.SystemPrompt)
}

func (g *Generator) generate(ctx context.Context, prompt, systemPrompt string) (*llm.ChatResult, error) {
	if ctx.Err() != nil {
		return nil, fmt.Errorf("context cancelled before generation: %w", ctx.Err())
	}

	var result *llm.ChatResult
	err := resilience.RetryWithCircuitBreaker(ctx, g.config.Retry, g.breaker, func() error {
		var genErr error
		result, genErr = g.chatProvider.Generate(ctx, prompt, systemPrompt)
		return genErr
	})
	if err != nil {
		logger.Errorf("LLM generation failed: %v", err)
		return nil, fmt.Errorf("failed to generate answer: %w", err)
	}

	logger.Debugw("answer generated",
		"answer_length", len(result.Content),
		"total_tokens", result.Usage.TotalTokens,
	)
	return result, nil
}
