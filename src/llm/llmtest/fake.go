// Package llmtest holds substitutable fakes for the chat model and embedder.
package llmtest

import (
	"context"
	"errors"
	"hash/fnv"
	"sync"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
)

// ChatModel is a scripted tool-calling chat model. Responses are consumed in order;
// once exhausted, Reply is used, and without Reply the call fails.
type ChatModel struct {
	mu        sync.Mutex
	Responses []*schema.Message
	Reply     func(input []*schema.Message) (*schema.Message, error)
	Err       error

	calls [][]*schema.Message
	opts  [][]einomodel.Option
	tools []*schema.ToolInfo
}

func (m *ChatModel) Generate(ctx context.Context, input []*schema.Message, opts ...einomodel.Option) (*schema.Message, error) {
	m.mu.Lock()
	m.calls = append(m.calls, input)
	m.opts = append(m.opts, opts)
	if m.Err != nil {
		m.mu.Unlock()
		return nil, m.Err
	}
	if len(m.Responses) > 0 {
		resp := m.Responses[0]
		m.Responses = m.Responses[1:]
		m.mu.Unlock()
		return resp, nil
	}
	reply := m.Reply
	m.mu.Unlock()

	if reply == nil {
		return nil, errors.New("llmtest: no scripted response")
	}
	return reply(input)
}

func (m *ChatModel) Stream(ctx context.Context, input []*schema.Message, opts ...einomodel.Option) (*schema.StreamReader[*schema.Message], error) {
	msg, err := m.Generate(ctx, input, opts...)
	if err != nil {
		return nil, err
	}
	return schema.StreamReaderFromArray([]*schema.Message{msg}), nil
}

// WithTools records the tools and returns the same fake so calls stay observable
func (m *ChatModel) WithTools(tools []*schema.ToolInfo) (einomodel.ToolCallingChatModel, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tools = tools
	return m, nil
}

// Calls returns the message lists received so far
func (m *ChatModel) Calls() [][]*schema.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([][]*schema.Message, len(m.calls))
	copy(out, m.calls)
	return out
}

func (m *ChatModel) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}

// LastOptions resolves the common options of the most recent call
func (m *ChatModel) LastOptions() *einomodel.Options {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.opts) == 0 {
		return &einomodel.Options{}
	}
	return einomodel.GetCommonOptions(&einomodel.Options{}, m.opts[len(m.opts)-1]...)
}

func (m *ChatModel) Tools() []*schema.ToolInfo {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.tools
}

// PlainChatModel hides tool calling, forcing callers onto their JSON-content path
type PlainChatModel struct {
	Inner *ChatModel
}

func (p PlainChatModel) Generate(ctx context.Context, input []*schema.Message, opts ...einomodel.Option) (*schema.Message, error) {
	return p.Inner.Generate(ctx, input, opts...)
}

func (p PlainChatModel) Stream(ctx context.Context, input []*schema.Message, opts ...einomodel.Option) (*schema.StreamReader[*schema.Message], error) {
	return p.Inner.Stream(ctx, input, opts...)
}

// ToolCall builds an assistant message carrying one tool call
func ToolCall(name, arguments string) *schema.Message {
	return &schema.Message{
		Role: schema.Assistant,
		ToolCalls: []schema.ToolCall{{
			ID:   "call_1",
			Type: "function",
			Function: schema.FunctionCall{
				Name:      name,
				Arguments: arguments,
			},
		}},
	}
}

// Embedder returns deterministic vectors derived from the text, or Vectors[text]
// when present. FailTimes makes the first N calls fail with FailErr, then Err,
// then a generic error.
type Embedder struct {
	mu        sync.Mutex
	Dim       int
	Vectors   map[string][]float32
	Err       error
	FailErr   error
	FailTimes int

	calls [][]string
}

func (e *Embedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.calls = append(e.calls, texts)

	if e.FailTimes > 0 {
		e.FailTimes--
		if e.FailErr != nil {
			return nil, e.FailErr
		}
		if e.Err != nil {
			return nil, e.Err
		}
		return nil, errors.New("llmtest: embedder unavailable")
	}
	if e.Err != nil {
		return nil, e.Err
	}

	dim := e.Dim
	if dim <= 0 {
		dim = 8
	}
	out := make([][]float32, len(texts))
	for i, text := range texts {
		if v, ok := e.Vectors[text]; ok {
			out[i] = v
			continue
		}
		out[i] = HashVector(text, dim)
	}
	return out, nil
}

func (e *Embedder) Calls() [][]string {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([][]string, len(e.calls))
	copy(out, e.calls)
	return out
}

// HashVector spreads the FNV hash of text over dim non-zero components
func HashVector(text string, dim int) []float32 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(text))
	seed := h.Sum64()
	v := make([]float32, dim)
	for i := range v {
		seed = seed*6364136223846793005 + 1442695040888963407
		v[i] = float32(seed>>40)/float32(1<<24) + 0.01
	}
	return v
}
