package extract

import (
	"github.com/cloudwego/eino/schema"
)

const ToolName = "extract_food_location"

// jsonInstruction is appended to the system prompt when the model cannot call tools
const jsonInstruction = `Respond with only a JSON object of the form {"food": string or null, "location": string or null}. Do not add any other text.`

// ToolInfo describes the single extraction tool the model is bound to
func ToolInfo() *schema.ToolInfo {
	return &schema.ToolInfo{
		Name: ToolName,
		Desc: "Extract the dish and the place mentioned in a food search question",
		ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
			"food": {
				Type: schema.String,
				Desc: "The dish or food the user wants, or null when none is mentioned",
			},
			"location": {
				Type: schema.String,
				Desc: "The named place the user mentions, or null for generic phrases like near me or gần đây",
			},
		}),
	}
}

func buildMessages(system, text string, toolMode bool) []*schema.Message {
	if !toolMode {
		system = system + "\n\n" + jsonInstruction
	}
	return []*schema.Message{
		schema.SystemMessage(system),
		schema.UserMessage(text),
	}
}
