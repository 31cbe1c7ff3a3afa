package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"ai_hoi/src/model"

	"github.com/google/generative-ai-go/genai"
	ollamaapi "github.com/ollama/ollama/api"
	goopenai "github.com/sashabaranov/go-openai"
	"google.golang.org/api/option"
)

// Embedder turns texts into vectors, one per input, in order
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

// EmbedOne embeds a single text
func EmbedOne(ctx context.Context, e Embedder, text string) ([]float32, error) {
	vectors, err := e.Embed(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	if len(vectors) != 1 || len(vectors[0]) == 0 {
		return nil, errors.New("embedder returned no vector")
	}
	return vectors[0], nil
}

// NewEmbedder builds the embedder selected by config.Provider
func NewEmbedder(ctx context.Context, config model.EmbeddingConfig) (Embedder, error) {
	provider, err := ParseEmbeddingProvider(config.Provider)
	if err != nil {
		return nil, err
	}

	switch provider {
	case EmbedOpenAI:
		clientConfig := goopenai.DefaultConfig(config.APIKey)
		if config.BaseURL != "" {
			clientConfig.BaseURL = config.BaseURL
		}
		return &OpenAIEmbedder{client: goopenai.NewClientWithConfig(clientConfig), model: config.Model}, nil

	case EmbedAzure:
		clientConfig := goopenai.DefaultAzureConfig(config.APIKey, config.BaseURL)
		clientConfig.APIVersion = config.APIVersion
		deployment := config.Model
		clientConfig.AzureModelMapperFunc = func(string) string { return deployment }
		return &OpenAIEmbedder{client: goopenai.NewClientWithConfig(clientConfig), model: config.Model}, nil

	case EmbedOllama:
		baseURL := config.BaseURL
		if baseURL == "" {
			baseURL = defaultOllamaURL
		}
		u, err := url.Parse(baseURL)
		if err != nil {
			return nil, fmt.Errorf("invalid ollama base url: %w", err)
		}
		return &OllamaEmbedder{client: ollamaapi.NewClient(u, http.DefaultClient), model: config.Model}, nil

	case EmbedGemini:
		client, err := genai.NewClient(ctx, option.WithAPIKey(config.APIKey))
		if err != nil {
			return nil, fmt.Errorf("error creating gemini client: %w", err)
		}
		return &GeminiEmbedder{client: client, model: config.Model}, nil
	}

	return nil, fmt.Errorf("unsupported embedding provider %q", provider)
}

// OpenAIEmbedder serves both OpenAI and Azure OpenAI deployments
type OpenAIEmbedder struct {
	client *goopenai.Client
	model  string
}

func (e *OpenAIEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	resp, err := e.client.CreateEmbeddings(ctx, goopenai.EmbeddingRequest{
		Input: texts,
		Model: goopenai.EmbeddingModel(e.model),
	})
	if err != nil {
		return nil, fmt.Errorf("openai embeddings request failed: %w", err)
	}
	if len(resp.Data) != len(texts) {
		return nil, fmt.Errorf("openai returned %d embeddings for %d inputs", len(resp.Data), len(texts))
	}

	vectors := make([][]float32, len(texts))
	for _, d := range resp.Data {
		if d.Index < 0 || d.Index >= len(vectors) {
			return nil, fmt.Errorf("openai returned out of range embedding index %d", d.Index)
		}
		vectors[d.Index] = d.Embedding
	}
	return vectors, nil
}

// OllamaEmbedder calls a local Ollama server
type OllamaEmbedder struct {
	client *ollamaapi.Client
	model  string
}

func (e *OllamaEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	resp, err := e.client.Embed(ctx, &ollamaapi.EmbedRequest{
		Model: e.model,
		Input: texts,
	})
	if err != nil {
		return nil, fmt.Errorf("ollama embed request failed: %w", err)
	}
	if len(resp.Embeddings) != len(texts) {
		return nil, fmt.Errorf("ollama returned %d embeddings for %d inputs", len(resp.Embeddings), len(texts))
	}
	return resp.Embeddings, nil
}

type GeminiEmbedder struct {
	client *genai.Client
	model  string
}

func (e *GeminiEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	em := e.client.EmbeddingModel(e.model)
	batch := em.NewBatch()
	for _, text := range texts {
		batch.AddContent(genai.Text(text))
	}
	resp, err := em.BatchEmbedContents(ctx, batch)
	if err != nil {
		return nil, fmt.Errorf("gemini embedding request failed: %w", err)
	}
	if len(resp.Embeddings) != len(texts) {
		return nil, fmt.Errorf("gemini returned %d embeddings for %d inputs", len(resp.Embeddings), len(texts))
	}

	vectors := make([][]float32, len(texts))
	for i, emb := range resp.Embeddings {
		if emb == nil {
			return nil, fmt.Errorf("gemini returned an empty embedding at %d", i)
		}
		vectors[i] = emb.Values
	}
	return vectors, nil
}
