// Package answer produces the final reply from the persona, memory and composed context.
package answer

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"ai_hoi/src/logger"
	"ai_hoi/src/model"

	"github.com/cloudwego/eino/compose"
	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/rs/zerolog"
)

var ErrEmptyAnswer = errors.New("model returned an empty answer")

type Options struct {
	Temperature float32
	MaxTokens   int
}

type Generator struct {
	chat      einomodel.BaseChatModel
	chain     compose.Runnable[map[string]any, *schema.Message]
	persona   string
	askSystem string
	opts      []einomodel.Option
	log       zerolog.Logger
}

// New compiles the template -> model chain. When compilation fails the generator
// builds the same message list by hand for every call.
func New(ctx context.Context, chat einomodel.BaseChatModel, prompts model.PromptConfig, options Options) *Generator {
	g := &Generator{
		chat:      chat,
		persona:   prompts.Persona,
		askSystem: prompts.Ask,
		opts: []einomodel.Option{
			einomodel.WithTemperature(options.Temperature),
			einomodel.WithMaxTokens(options.MaxTokens),
		},
		log: logger.With("answer"),
	}

	chain, err := compose.NewChain[map[string]any, *schema.Message]().
		AppendChatTemplate(createChatTemplate()).
		AppendChatModel(chat).
		Compile(ctx)
	if err != nil {
		g.log.Warn().Err(err).Msg("Answer chain failed to compile, using direct model calls")
	} else {
		g.chain = chain
	}
	return g
}

// Generate sends persona(memory) + history + composed context and returns the reply text.
func (g *Generator) Generate(ctx context.Context, memory, composed string, history []model.Turn) (string, error) {
	msgs := historyMessages(history)

	var (
		resp *schema.Message
		err  error
	)
	if g.chain != nil {
		resp, err = g.chain.Invoke(ctx, map[string]any{
			systemKey:  renderPersona(g.persona, memory),
			historyKey: msgs,
			contextKey: composed,
		}, compose.WithChatModelOption(g.opts...))
	} else {
		resp, err = g.chat.Generate(ctx, buildMessages(g.persona, memory, composed, msgs), g.opts...)
	}
	if err != nil {
		return "", fmt.Errorf("answer generation failed: %w", err)
	}
	return replyText(resp)
}

// Ask answers a standalone question from knowledge snippets only
func (g *Generator) Ask(ctx context.Context, question string, snippets []string) (string, error) {
	resp, err := g.chat.Generate(ctx, askMessages(g.askSystem, question, snippets), g.opts...)
	if err != nil {
		return "", fmt.Errorf("ask generation failed: %w", err)
	}
	return replyText(resp)
}

func replyText(resp *schema.Message) (string, error) {
	if resp == nil || strings.TrimSpace(resp.Content) == "" {
		return "", ErrEmptyAnswer
	}
	return strings.TrimSpace(resp.Content), nil
}
