package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"ai_hoi/src/model"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/liushuangls/go-anthropic/v2"
)

const claudeDefaultMaxTokens = 1024

// ClaudeChatModel adapts the Anthropic messages API to eino's BaseChatModel.
// Claude has no embedding endpoint, so it is only offered as a chat provider.
type ClaudeChatModel struct {
	client      *anthropic.Client
	model       string
	temperature float32
	maxTokens   int
}

func NewClaudeChatModel(config model.LLMConfig) *ClaudeChatModel {
	var opts []anthropic.ClientOption
	if config.BaseURL != "" {
		opts = append(opts, anthropic.WithBaseURL(config.BaseURL))
	}
	maxTokens := config.MaxTokens
	if maxTokens <= 0 {
		maxTokens = claudeDefaultMaxTokens
	}
	return &ClaudeChatModel{
		client:      anthropic.NewClient(config.APIKey, opts...),
		model:       config.Model,
		temperature: config.Temperature,
		maxTokens:   maxTokens,
	}
}

func (c *ClaudeChatModel) Generate(ctx context.Context, input []*schema.Message, opts ...einomodel.Option) (*schema.Message, error) {
	options := einomodel.GetCommonOptions(&einomodel.Options{
		Temperature: &c.temperature,
		MaxTokens:   &c.maxTokens,
	}, opts...)

	system, history := splitSystem(input)
	if len(history) == 0 {
		return nil, errors.New("claude: no user message to send")
	}

	messages := make([]anthropic.Message, 0, len(history))
	for _, msg := range history {
		role := anthropic.RoleUser
		if msg.Role == schema.Assistant {
			role = anthropic.RoleAssistant
		}
		messages = append(messages, anthropic.Message{
			Role:    role,
			Content: []anthropic.MessageContent{anthropic.NewTextMessageContent(msg.Content)},
		})
	}

	temperature := *options.Temperature
	resp, err := c.client.CreateMessages(ctx, anthropic.MessagesRequest{
		Model:       anthropic.Model(c.model),
		System:      system,
		Messages:    messages,
		MaxTokens:   *options.MaxTokens,
		Temperature: &temperature,
	})
	if err != nil {
		return nil, fmt.Errorf("claude CreateMessages failed: %w", err)
	}

	var text strings.Builder
	for _, content := range resp.Content {
		if content.Text != nil {
			text.WriteString(*content.Text)
		}
	}
	if text.Len() == 0 {
		return nil, errors.New("claude returned no text content")
	}
	return schema.AssistantMessage(text.String(), nil), nil
}

func (c *ClaudeChatModel) Stream(ctx context.Context, input []*schema.Message, opts ...einomodel.Option) (*schema.StreamReader[*schema.Message], error) {
	msg, err := c.Generate(ctx, input, opts...)
	if err != nil {
		return nil, err
	}
	return schema.StreamReaderFromArray([]*schema.Message{msg}), nil
}
