package extract

import (
	"errors"
	"fmt"
	"strings"

	"ai_hoi/src/model"

	"github.com/bytedance/sonic"
)

var errNoObject = errors.New("no JSON object in model output")

type rawIntent struct {
	Food     *string `json:"food"`
	Location *string `json:"location"`
}

// ParseIntent decodes a {"food","location"} object. Prose or code fences around the
// object are tolerated by cutting from the first '{' to the last '}'.
func ParseIntent(raw string) (model.Intent, error) {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start < 0 || end < start {
		return model.Intent{}, errNoObject
	}

	var parsed rawIntent
	if err := sonic.UnmarshalString(raw[start:end+1], &parsed); err != nil {
		return model.Intent{}, fmt.Errorf("failed to parse intent JSON: %w", err)
	}

	return model.Intent{
		Dish:  normalize(parsed.Food),
		Place: normalize(parsed.Location),
	}, nil
}

func normalize(v *string) string {
	if v == nil {
		return ""
	}
	s := strings.TrimSpace(*v)
	switch strings.ToLower(s) {
	case "null", "none", "nil", "n/a":
		return ""
	}
	return s
}
