package summary

import (
	"fmt"
	"strings"

	"ai_hoi/src/model"

	"github.com/cloudwego/eino/schema"
)

// renderTranscript writes the turns one per line with a speaker label
func renderTranscript(turns []model.Turn) string {
	var b strings.Builder
	for _, t := range turns {
		content := strings.TrimSpace(t.Content)
		if content == "" {
			continue
		}
		switch strings.ToLower(t.Role) {
		case model.RoleUser:
			b.WriteString("Người dùng: ")
		case model.RoleAssistant:
			b.WriteString("Trợ lý: ")
		default:
			continue
		}
		b.WriteString(content)
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

func summaryMessages(system string, turns []model.Turn) []*schema.Message {
	return []*schema.Message{
		schema.SystemMessage(system),
		schema.UserMessage("Cuộc trò chuyện:\n" + renderTranscript(turns)),
	}
}

func metaMessages(system string, synopses, userPrompts []string) []*schema.Message {
	var b strings.Builder
	b.WriteString("Các bản tóm tắt cuộc trò chuyện:\n")
	for i, s := range synopses {
		fmt.Fprintf(&b, "%d. %s\n", i+1, s)
	}
	if len(userPrompts) > 0 {
		b.WriteString("\nCác câu hỏi của người dùng:\n")
		for _, p := range userPrompts {
			b.WriteString("- ")
			b.WriteString(p)
			b.WriteString("\n")
		}
	}
	return []*schema.Message{
		schema.SystemMessage(system),
		schema.UserMessage(strings.TrimRight(b.String(), "\n")),
	}
}
