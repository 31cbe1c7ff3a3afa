// Package memory keeps one self-summarizing record of every past conversation.
package memory

import (
	"github.com/bytedance/sonic"
)

// Entry is the synopsis of one finished conversation
type Entry struct {
	Summary      string   `json:"summary"`
	Location     string   `json:"location"`
	Timestamp    string   `json:"timestamp"`
	MessageCount int      `json:"message_count"`
	UserPrompts  []string `json:"user_prompts"`
}

// Record is the singleton conversation summary. Version increases by one on every write.
type Record struct {
	ID                 string    `json:"id"`
	Version            int64     `json:"version"`
	Embedding          []float32 `json:"embedding"`
	Summaries          []Entry   `json:"summaries"`
	TotalConversations int       `json:"total_conversations"`
	LatestSummary      string    `json:"latest_summary"`
	LatestLocation     string    `json:"latest_location"`
	LastUpdated        string    `json:"last_updated"`
}

func (r *Record) Synopses() []string {
	out := make([]string, 0, len(r.Summaries))
	for _, e := range r.Summaries {
		out = append(out, e.Summary)
	}
	return out
}

// UserPrompts flattens the user prompts of every entry, oldest first
func (r *Record) UserPrompts() []string {
	var out []string
	for _, e := range r.Summaries {
		out = append(out, e.UserPrompts...)
	}
	return out
}

func (r *Record) Clone() *Record {
	if r == nil {
		return nil
	}
	c := *r
	c.Embedding = append([]float32(nil), r.Embedding...)
	c.Summaries = make([]Entry, len(r.Summaries))
	for i, e := range r.Summaries {
		e.UserPrompts = append([]string(nil), e.UserPrompts...)
		c.Summaries[i] = e
	}
	return &c
}

func encodeRecord(r *Record) ([]byte, error) {
	return sonic.Marshal(r)
}

// decodeRecord maps a JSON null to ErrNotFound
func decodeRecord(data []byte) (*Record, error) {
	var r *Record
	if err := sonic.Unmarshal(data, &r); err != nil {
		return nil, err
	}
	if r == nil {
		return nil, ErrNotFound
	}
	return r, nil
}
