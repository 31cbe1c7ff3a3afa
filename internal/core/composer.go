package core

import "strings"

const (
	knowledgeHeader = "Thông tin tham khảo từ cơ sở dữ liệu:"
	placesHeader    = "Các quán ăn gần đây:"
	questionPrefix  = "Câu hỏi của người dùng: "
)

// ComposeContext joins knowledge snippets, the rendered places list and the
// user's question into the final user turn. Empty sections are left out; the
// question is always last.
func ComposeContext(snippets []string, places string, userText string) string {
	sections := make([]string, 0, 3)

	var knowledge []string
	for _, s := range snippets {
		if s = strings.TrimSpace(s); s != "" {
			knowledge = append(knowledge, "- "+s)
		}
	}
	if len(knowledge) > 0 {
		sections = append(sections, knowledgeHeader+"\n"+strings.Join(knowledge, "\n"))
	}

	if strings.TrimSpace(places) != "" {
		sections = append(sections, placesHeader+"\n"+places)
	}

	sections = append(sections, questionPrefix+userText)
	return strings.Join(sections, "\n\n")
}
