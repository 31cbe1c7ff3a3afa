package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"ai_hoi/src/model"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// GeminiChatModel adapts the Gemini SDK to eino's BaseChatModel
type GeminiChatModel struct {
	client      *genai.Client
	model       string
	temperature float32
	maxTokens   int
}

func NewGeminiChatModel(ctx context.Context, config model.LLMConfig) (*GeminiChatModel, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(config.APIKey))
	if err != nil {
		return nil, fmt.Errorf("error creating gemini client: %w", err)
	}
	return &GeminiChatModel{
		client:      client,
		model:       config.Model,
		temperature: config.Temperature,
		maxTokens:   config.MaxTokens,
	}, nil
}

func (g *GeminiChatModel) Generate(ctx context.Context, input []*schema.Message, opts ...einomodel.Option) (*schema.Message, error) {
	options := einomodel.GetCommonOptions(&einomodel.Options{
		Temperature: &g.temperature,
		MaxTokens:   &g.maxTokens,
	}, opts...)

	gm := g.client.GenerativeModel(g.model)
	temperature := *options.Temperature
	maxTokens := int32(*options.MaxTokens)
	gm.GenerationConfig = genai.GenerationConfig{
		Temperature:     &temperature,
		MaxOutputTokens: &maxTokens,
	}

	system, history := splitSystem(input)
	if system != "" {
		gm.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(system)}}
	}
	if len(history) == 0 {
		return nil, errors.New("gemini: no user message to send")
	}

	session := gm.StartChat()
	for _, msg := range history[:len(history)-1] {
		session.History = append(session.History, &genai.Content{
			Role:  geminiRole(msg.Role),
			Parts: []genai.Part{genai.Text(msg.Content)},
		})
	}

	last := history[len(history)-1]
	resp, err := session.SendMessage(ctx, genai.Text(last.Content))
	if err != nil {
		return nil, fmt.Errorf("gemini SendMessage failed: %w", err)
	}
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return nil, errors.New("gemini returned no candidates")
	}

	var text strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			text.WriteString(string(txt))
		}
	}
	return schema.AssistantMessage(text.String(), nil), nil
}

// Stream is not used by the pipeline; it yields the full reply as a single chunk.
func (g *GeminiChatModel) Stream(ctx context.Context, input []*schema.Message, opts ...einomodel.Option) (*schema.StreamReader[*schema.Message], error) {
	msg, err := g.Generate(ctx, input, opts...)
	if err != nil {
		return nil, err
	}
	return schema.StreamReaderFromArray([]*schema.Message{msg}), nil
}

func (g *GeminiChatModel) Close() error {
	return g.client.Close()
}

func geminiRole(role schema.RoleType) string {
	if role == schema.Assistant {
		return "model"
	}
	return "user"
}

// splitSystem pulls system messages out of the list (joined) and returns the rest
func splitSystem(input []*schema.Message) (string, []*schema.Message) {
	var system []string
	var rest []*schema.Message
	for _, msg := range input {
		if msg == nil {
			continue
		}
		if msg.Role == schema.System {
			system = append(system, msg.Content)
			continue
		}
		rest = append(rest, msg)
	}
	return strings.Join(system, "\n\n"), rest
}
