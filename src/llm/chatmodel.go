package llm

import (
	"context"
	"fmt"

	"ai_hoi/src/model"

	"github.com/cloudwego/eino-ext/components/model/ark"
	"github.com/cloudwego/eino-ext/components/model/deepseek"
	"github.com/cloudwego/eino-ext/components/model/ollama"
	"github.com/cloudwego/eino-ext/components/model/openai"
	einomodel "github.com/cloudwego/eino/components/model"
)

const defaultOllamaURL = "http://localhost:11434"

// NewChatModel builds the chat model selected by config.Provider. The returned model
// is shared by every LLM stage; per-call temperature and token limits are passed as
// eino options.
func NewChatModel(ctx context.Context, config model.LLMConfig) (einomodel.BaseChatModel, error) {
	provider, err := ParseChatProvider(config.Provider)
	if err != nil {
		return nil, err
	}

	maxTokens := config.MaxTokens
	temperature := config.Temperature

	switch provider {
	case ChatOpenAI, ChatAzure:
		modelConfig := &openai.ChatModelConfig{
			APIKey:      config.APIKey,
			BaseURL:     config.BaseURL,
			Model:       config.Model,
			Timeout:     config.Timeout,
			MaxTokens:   &maxTokens,
			Temperature: &temperature,
		}
		if provider == ChatAzure {
			modelConfig.ByAzure = true
			modelConfig.APIVersion = config.APIVersion
		}
		cm, err := openai.NewChatModel(ctx, modelConfig)
		if err != nil {
			return nil, fmt.Errorf("error creating %s chat model: %w", provider, err)
		}
		return cm, nil

	case ChatOllama:
		baseURL := config.BaseURL
		if baseURL == "" {
			baseURL = defaultOllamaURL
		}
		cm, err := ollama.NewChatModel(ctx, &ollama.ChatModelConfig{
			BaseURL: baseURL,
			Timeout: config.Timeout,
			Model:   config.Model,
		})
		if err != nil {
			return nil, fmt.Errorf("error creating ollama chat model: %w", err)
		}
		return cm, nil

	case ChatArk:
		arkConfig := &ark.ChatModelConfig{
			APIKey:      config.APIKey,
			Model:       config.Model,
			MaxTokens:   &maxTokens,
			Temperature: &temperature,
		}
		if config.BaseURL != "" {
			arkConfig.BaseURL = config.BaseURL
		}
		cm, err := ark.NewChatModel(ctx, arkConfig)
		if err != nil {
			return nil, fmt.Errorf("error creating ark chat model: %w", err)
		}
		return cm, nil

	case ChatDeepSeek:
		dsConfig := &deepseek.ChatModelConfig{
			APIKey: config.APIKey,
			Model:  config.Model,
		}
		if config.BaseURL != "" {
			dsConfig.BaseURL = config.BaseURL
		}
		cm, err := deepseek.NewChatModel(ctx, dsConfig)
		if err != nil {
			return nil, fmt.Errorf("error creating deepseek chat model: %w", err)
		}
		return cm, nil

	case ChatGemini:
		return NewGeminiChatModel(ctx, config)

	case ChatClaude:
		return NewClaudeChatModel(config), nil
	}

	return nil, fmt.Errorf("unsupported chat provider %q", provider)
}
