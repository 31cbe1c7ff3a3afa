// Package conversation shapes caller supplied history before it reaches a prompt.
package conversation

import (
	"strings"

	"ai_hoi/src/model"
)

// ContextStrategy selects which turns of a conversation a prompt gets to see
type ContextStrategy interface {
	Apply(turns []model.Turn) []model.Turn
	GetMaxTurns() int
}

// ====================== Response ======================
// ResponseContextStrategy keeps the last maxTurns user/assistant turns for answer generation
type ResponseContextStrategy struct {
	maxTurns int
}

func NewResponseContextStrategy(maxTurns int) *ResponseContextStrategy {
	if maxTurns <= 0 {
		maxTurns = 10
	}
	return &ResponseContextStrategy{maxTurns: maxTurns}
}

func (s *ResponseContextStrategy) GetMaxTurns() int {
	return s.maxTurns
}

// Apply drops blank turns and roles other than user/assistant, then trims to the tail
func (s *ResponseContextStrategy) Apply(turns []model.Turn) []model.Turn {
	kept := make([]model.Turn, 0, len(turns))
	for _, t := range turns {
		role := strings.ToLower(strings.TrimSpace(t.Role))
		if role != model.RoleUser && role != model.RoleAssistant {
			continue
		}
		if strings.TrimSpace(t.Content) == "" {
			continue
		}
		kept = append(kept, model.Turn{Role: role, Content: t.Content})
	}
	return trimTail(kept, s.maxTurns)
}

// Helper function
func trimTail(turns []model.Turn, maxTurns int) []model.Turn {
	if len(turns) <= maxTurns {
		return turns
	}
	return turns[len(turns)-maxTurns:]
}
