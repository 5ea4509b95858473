package llm

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeProvider struct {
	name string
}

func (f *fakeProvider) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = []float32{1, 2, 3}
	}
	return out, nil
}

func (f *fakeProvider) EmbedSingle(ctx context.Context, text string) ([]float32, error) {
	return []float32{1, 2, 3}, nil
}

func (f *fakeProvider) Chat(ctx context.Context, messages []Message) (*ChatResult, error) {
	return &ChatResult{Content: "chat"}, nil
}

func (f *fakeProvider) Generate(ctx context.Context, prompt, systemPrompt string) (*ChatResult, error) {
	return &ChatResult{Content: "generated", Usage: TokenUsage{TotalTokens: 42}}, nil
}

func (f *fakeProvider) Name() string { return f.name }

func TestRegisterAndNewProvider(t *testing.T) {
	RegisterProvider("fake-full", func(config map[string]any) (Provider, error) {
		return &fakeProvider{name: "fake-full"}, nil
	})

	p, err := NewProvider("fake-full", nil)
	require.NoError(t, err)
	assert.Equal(t, "fake-full", p.Name())

	_, err = NewProvider("does-not-exist", nil)
	assert.Error(t, err)
}

func TestEmbeddingProviderFallsBackToFullFactory(t *testing.T) {
	RegisterProvider("fake-embed-fallback", func(config map[string]any) (Provider, error) {
		return &fakeProvider{name: "fake-embed-fallback"}, nil
	})

	p, err := NewEmbeddingProvider("fake-embed-fallback", nil)
	require.NoError(t, err)

	vec, err := p.EmbedSingle(context.Background(), "hello")
	require.NoError(t, err)
	assert.Len(t, vec, 3)
}

func TestDedicatedChatFactoryWins(t *testing.T) {
	RegisterProvider("fake-dual", func(config map[string]any) (Provider, error) {
		return &fakeProvider{name: "full"}, nil
	})
	RegisterChatProvider("fake-dual", func(config map[string]any) (ChatProvider, error) {
		return &fakeProvider{name: "chat-only"}, nil
	})

	p, err := NewChatProvider("fake-dual", nil)
	require.NoError(t, err)
	assert.Equal(t, "chat-only", p.Name())
}

func TestChatResultCarriesUsage(t *testing.T) {
	p := &fakeProvider{name: "fake"}
	res, err := p.Generate(context.Background(), "question", "")
	require.NoError(t, err)
	assert.Equal(t, "generated", res.Content)
	assert.Equal(t, 42, res.Usage.TotalTokens)
}

func TestListProviders(t *testing.T) {
	RegisterProvider("fake-list", func(config map[string]any) (Provider, error) {
		return &fakeProvider{name: "fake-list"}, nil
	})

	names := ListProviders()
	assert.Contains(t, names, "fake-list")
}

func TestUnavailableChatProvider(t *testing.T) {
	p := UnavailableChatProvider("openai")
	assert.Equal(t, "openai", p.Name())

	_, err := p.Chat(context.Background(), []Message{{Role: RoleUser, Content: "hi"}})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnavailable)

	_, err = p.Generate(context.Background(), "hi", "")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnavailable)
}
