package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"ai_hoi/src/model"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// PromptFile represents the structure of config.yaml (or config.toml)
type PromptFile struct {
	Prompts model.PromptConfig `yaml:"prompts" toml:"prompts"`
}

const defaultPersona = `Bạn là "Ăn Hỏi", một trợ lý ẩm thực người Việt am hiểu các món ăn và quán ăn địa phương.
Hãy trả lời thân thiện, ngắn gọn và luôn trả lời bằng tiếng Việt.
Ưu tiên gợi ý các quán có trong phần thông tin tham khảo và danh sách quán gần đây.
Nếu không chắc chắn, hãy nói rõ là bạn không biết thay vì bịa ra thông tin.

Ghi nhớ về người dùng từ các cuộc trò chuyện trước:
{memory}`

const defaultAsk = `You are a helpful Vietnamese assistant. Use the provided context to answer. ` +
	`If the answer isn't in the context, say you don't know. Always answer in Vietnamese.`

const defaultExtract = `You extract structured search intent from a Vietnamese or English food question.
Return the dish the user wants to eat as "food" and the place they mention as "location".
Rules:
- If the user says "near me", "nearby", "around here", "gần đây", "quanh đây", "gần tôi", "gần nhà" or similar, location must be null.
- If no dish or food is mentioned, food must be null.
- Never invent values that are not in the message.`

const defaultSummary = `Tóm tắt cuộc trò chuyện sau thành 1-2 câu tiếng Việt ngắn gọn.
Nêu rõ món ăn, khu vực và nhu cầu chính của người dùng.`

const defaultMetaSummary = `Bạn đang duy trì trí nhớ dài hạn về một người dùng của trợ lý ẩm thực.
Dựa trên các bản tóm tắt cuộc trò chuyện và các câu hỏi của người dùng bên dưới, hãy viết một bản tổng hợp ngắn (tối đa 5 câu, tiếng Việt) nêu:
- các món ăn người dùng hay hỏi,
- các khu vực, địa điểm thường nhắc tới,
- sở thích ẩm thực (vùng miền, khẩu vị, mức giá),
- thói quen tìm kiếm.`

const defaultClarification = "Xin lỗi, mình chưa xác định được vị trí của bạn. Bạn có thể cho mình biết bạn đang ở khu vực nào không?"

const defaultNoMemory = "Chưa có cuộc trò chuyện nào trước đây."

// DefaultPrompts returns the built-in prompt set
func DefaultPrompts() model.PromptConfig {
	return model.PromptConfig{
		Persona:       defaultPersona,
		Ask:           defaultAsk,
		Extract:       defaultExtract,
		Summary:       defaultSummary,
		MetaSummary:   defaultMetaSummary,
		Clarification: defaultClarification,
		NoMemory:      defaultNoMemory,
	}
}

// LoadPrompts reads the prompt file and fills every prompt it leaves empty with the
// built-in default. A missing file is not an error.
func LoadPrompts(path string) (model.PromptConfig, error) {
	prompts := DefaultPrompts()
	if path == "" {
		return prompts, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return prompts, nil
		}
		return prompts, fmt.Errorf("error reading prompt file: %w", err)
	}

	var file PromptFile
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		err = toml.Unmarshal(data, &file)
	default:
		err = yaml.Unmarshal(data, &file)
	}
	if err != nil {
		return prompts, fmt.Errorf("error parsing prompt file %s: %w", path, err)
	}

	return merge(prompts, file.Prompts), nil
}

func merge(base, override model.PromptConfig) model.PromptConfig {
	pick := func(def, v string) string {
		if strings.TrimSpace(v) == "" {
			return def
		}
		return v
	}
	return model.PromptConfig{
		Persona:       pick(base.Persona, override.Persona),
		Ask:           pick(base.Ask, override.Ask),
		Extract:       pick(base.Extract, override.Extract),
		Summary:       pick(base.Summary, override.Summary),
		MetaSummary:   pick(base.MetaSummary, override.MetaSummary),
		Clarification: pick(base.Clarification, override.Clarification),
		NoMemory:      pick(base.NoMemory, override.NoMemory),
	}
}
