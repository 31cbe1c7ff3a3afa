package llm

import (
	"fmt"
	"strings"
)

// ChatProvider is the closed set of chat-completion backends
type ChatProvider string

const (
	ChatOpenAI   ChatProvider = "openai"
	ChatAzure    ChatProvider = "azure"
	ChatOllama   ChatProvider = "ollama"
	ChatArk      ChatProvider = "ark"
	ChatDeepSeek ChatProvider = "deepseek"
	ChatGemini   ChatProvider = "gemini"
	ChatClaude   ChatProvider = "claude"
)

// EmbeddingProvider is the closed set of embedding backends
type EmbeddingProvider string

const (
	EmbedOpenAI EmbeddingProvider = "openai"
	EmbedAzure  EmbeddingProvider = "azure"
	EmbedOllama EmbeddingProvider = "ollama"
	EmbedGemini EmbeddingProvider = "gemini"
)

func ParseChatProvider(s string) (ChatProvider, error) {
	p := ChatProvider(strings.ToLower(strings.TrimSpace(s)))
	switch p {
	case ChatOpenAI, ChatAzure, ChatOllama, ChatArk, ChatDeepSeek, ChatGemini, ChatClaude:
		return p, nil
	}
	return "", fmt.Errorf("unsupported chat provider %q", s)
}

func ParseEmbeddingProvider(s string) (EmbeddingProvider, error) {
	p := EmbeddingProvider(strings.ToLower(strings.TrimSpace(s)))
	switch p {
	case EmbedOpenAI, EmbedAzure, EmbedOllama, EmbedGemini:
		return p, nil
	}
	return "", fmt.Errorf("unsupported embedding provider %q", s)
}
