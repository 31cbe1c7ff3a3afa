// Package summary compresses conversations into synopses and synopses into a meta-summary.
package summary

import (
	"context"
	"fmt"
	"strings"

	"ai_hoi/src/model"

	einomodel "github.com/cloudwego/eino/components/model"
)

type Summarizer struct {
	chat          einomodel.BaseChatModel
	summaryPrompt string
	metaPrompt    string
	temperature   float32
	maxTokens     int
	metaMaxTokens int
}

func New(chat einomodel.BaseChatModel, prompts model.PromptConfig, config model.LLMConfig) *Summarizer {
	return &Summarizer{
		chat:          chat,
		summaryPrompt: prompts.Summary,
		metaPrompt:    prompts.MetaSummary,
		temperature:   config.SummaryTemperature,
		maxTokens:     config.SummaryMaxTokens,
		metaMaxTokens: config.MetaMaxTokens,
	}
}

// Summarize returns a one or two sentence synopsis. An empty string with a nil error
// means the model produced nothing usable.
func (s *Summarizer) Summarize(ctx context.Context, turns []model.Turn) (string, error) {
	resp, err := s.chat.Generate(ctx, summaryMessages(s.summaryPrompt, turns),
		einomodel.WithTemperature(s.temperature),
		einomodel.WithMaxTokens(s.maxTokens),
	)
	if err != nil {
		return "", fmt.Errorf("conversation summary failed: %w", err)
	}
	if resp == nil {
		return "", nil
	}
	return strings.TrimSpace(resp.Content), nil
}

// MetaSummarize folds every synopsis and the user's own prompts into one profile
func (s *Summarizer) MetaSummarize(ctx context.Context, synopses, userPrompts []string) (string, error) {
	resp, err := s.chat.Generate(ctx, metaMessages(s.metaPrompt, synopses, userPrompts),
		einomodel.WithTemperature(s.temperature),
		einomodel.WithMaxTokens(s.metaMaxTokens),
	)
	if err != nil {
		return "", fmt.Errorf("meta summary failed: %w", err)
	}
	if resp == nil {
		return "", nil
	}
	return strings.TrimSpace(resp.Content), nil
}
