package llm

import (
	"context"
	"testing"

	"ai_hoi/src/llm/llmtest"
	"ai_hoi/src/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseChatProvider(t *testing.T) {
	for _, name := range []string{"openai", "AZURE", " ollama ", "ark", "deepseek", "gemini", "claude"} {
		_, err := ParseChatProvider(name)
		assert.NoError(t, err, name)
	}

	_, err := ParseChatProvider("auto")
	assert.Error(t, err, "provider inference is not supported")
}

func TestParseEmbeddingProvider(t *testing.T) {
	p, err := ParseEmbeddingProvider("Azure")
	require.NoError(t, err)
	assert.Equal(t, EmbedAzure, p)

	_, err = ParseEmbeddingProvider("claude")
	assert.Error(t, err)
}

func TestNewChatModelRejectsUnknownProvider(t *testing.T) {
	_, err := NewChatModel(context.Background(), model.LLMConfig{Provider: "local"})
	assert.ErrorContains(t, err, "unsupported chat provider")
}

func TestNewEmbedderBuildsOpenAIAndOllama(t *testing.T) {
	e, err := NewEmbedder(context.Background(), model.EmbeddingConfig{Provider: "openai", APIKey: "k", Model: "text-embedding-3-small"})
	require.NoError(t, err)
	assert.IsType(t, &OpenAIEmbedder{}, e)

	e, err = NewEmbedder(context.Background(), model.EmbeddingConfig{Provider: "azure", APIKey: "k", BaseURL: "https://x.openai.azure.com", Model: "emb"})
	require.NoError(t, err)
	assert.IsType(t, &OpenAIEmbedder{}, e)

	e, err = NewEmbedder(context.Background(), model.EmbeddingConfig{Provider: "ollama", Model: "nomic-embed-text"})
	require.NoError(t, err)
	assert.IsType(t, &OllamaEmbedder{}, e)
}

func TestEmbedOne(t *testing.T) {
	fake := &llmtest.Embedder{Dim: 4}
	v, err := EmbedOne(context.Background(), fake, "phở")
	require.NoError(t, err)
	assert.Len(t, v, 4)

	fake.Err = assert.AnError
	_, err = EmbedOne(context.Background(), fake, "phở")
	assert.ErrorIs(t, err, assert.AnError)
}
