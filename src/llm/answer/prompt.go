package answer

import (
	"strings"

	"ai_hoi/src/model"

	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/schema"
)

const (
	memoryKey  = "memory"
	systemKey  = "system"
	historyKey = "history"
	contextKey = "context"
)

// createChatTemplate builds [system persona, history..., user context]. The
// persona is rendered before it reaches the template, so braces in it stay literal.
func createChatTemplate() prompt.ChatTemplate {
	messages := []schema.MessagesTemplate{
		schema.SystemMessage("{" + systemKey + "}"),
		schema.MessagesPlaceholder(historyKey, true),
		schema.UserMessage("{" + contextKey + "}"),
	}
	return prompt.FromMessages(schema.FString, messages...)
}

// renderPersona fills the {memory} placeholder and nothing else
func renderPersona(persona, memory string) string {
	return strings.ReplaceAll(persona, "{"+memoryKey+"}", memory)
}

// buildMessages is the hand-built equivalent of the chat template
func buildMessages(persona, memory, composed string, history []*schema.Message) []*schema.Message {
	messages := make([]*schema.Message, 0, len(history)+2)
	messages = append(messages, schema.SystemMessage(renderPersona(persona, memory)))
	messages = append(messages, history...)
	messages = append(messages, schema.UserMessage(composed))
	return messages
}

// historyMessages converts caller turns into chat messages, dropping blank or unknown roles
func historyMessages(turns []model.Turn) []*schema.Message {
	messages := make([]*schema.Message, 0, len(turns))
	for _, t := range turns {
		if strings.TrimSpace(t.Content) == "" {
			continue
		}
		switch strings.ToLower(t.Role) {
		case model.RoleUser:
			messages = append(messages, schema.UserMessage(t.Content))
		case model.RoleAssistant:
			messages = append(messages, schema.AssistantMessage(t.Content, nil))
		}
	}
	return messages
}

func askMessages(system, question string, snippets []string) []*schema.Message {
	var user strings.Builder
	user.WriteString("Context:\n")
	user.WriteString(strings.Join(snippets, "\n\n"))
	user.WriteString("\n\nCâu hỏi: ")
	user.WriteString(question)
	return []*schema.Message{
		schema.SystemMessage(system),
		schema.UserMessage(user.String()),
	}
}
