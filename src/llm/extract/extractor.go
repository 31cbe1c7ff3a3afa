// Package extract turns a raw utterance into a (dish, place) intent with one LLM call.
package extract

import (
	"context"
	"errors"
	"strings"

	"ai_hoi/src/logger"
	"ai_hoi/src/model"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/rs/zerolog"
)

var errNoToolCall = errors.New("model did not call " + ToolName)

type Extractor struct {
	chat   einomodel.BaseChatModel
	tools  einomodel.ToolCallingChatModel
	system string
	log    zerolog.Logger
}

// New binds the extraction tool when chat supports tool calling; otherwise the
// extractor asks for a JSON object in the reply content.
func New(chat einomodel.BaseChatModel, systemPrompt string) *Extractor {
	e := &Extractor{
		chat:   chat,
		system: systemPrompt,
		log:    logger.With("extract"),
	}
	if tc, ok := chat.(einomodel.ToolCallingChatModel); ok {
		bound, err := tc.WithTools([]*schema.ToolInfo{ToolInfo()})
		if err != nil {
			e.log.Warn().Err(err).Msg("Tool binding failed, using JSON output")
		} else {
			e.tools = bound
		}
	}
	return e
}

// ToolMode reports whether extraction goes through a bound tool
func (e *Extractor) ToolMode() bool {
	return e.tools != nil
}

// Extract never fails: any error yields the empty intent.
func (e *Extractor) Extract(ctx context.Context, text string) model.Intent {
	text = strings.TrimSpace(text)
	if text == "" {
		return model.Intent{}
	}

	intent, err := e.extract(ctx, text)
	if err != nil {
		e.log.Warn().Err(err).Msg("Intent extraction failed")
		return model.Intent{}
	}
	e.log.Debug().Str("food", intent.Dish).Str("location", intent.Place).Msg("Intent extracted")
	return intent
}

func (e *Extractor) extract(ctx context.Context, text string) (model.Intent, error) {
	messages := buildMessages(e.system, text, e.ToolMode())

	if e.ToolMode() {
		resp, err := e.tools.Generate(ctx, messages, einomodel.WithTemperature(0))
		if err != nil {
			return model.Intent{}, err
		}
		args, ok := toolArguments(resp)
		if !ok {
			return model.Intent{}, errNoToolCall
		}
		return ParseIntent(args)
	}

	resp, err := e.chat.Generate(ctx, messages, einomodel.WithTemperature(0))
	if err != nil {
		return model.Intent{}, err
	}
	if resp == nil {
		return model.Intent{}, errNoObject
	}
	return ParseIntent(resp.Content)
}

func toolArguments(resp *schema.Message) (string, bool) {
	if resp == nil {
		return "", false
	}
	for _, call := range resp.ToolCalls {
		if call.Function.Name == ToolName {
			return call.Function.Arguments, true
		}
	}
	return "", false
}
