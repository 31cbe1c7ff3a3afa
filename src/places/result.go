package places

import (
	"fmt"
	"strings"
)

type Status int

const (
	StatusOK Status = iota
	StatusEmpty
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusEmpty:
		return "empty"
	default:
		return "failed"
	}
}

// Venue is one nearby place. Distance is in metres and may be unknown.
type Venue struct {
	Name       string
	Address    string
	Distance   *int
	Categories []string
}

// Result is the outcome of a search; it never carries both venues and an error
type Result struct {
	Status Status
	Venues []Venue
	Err    error
}

// Render produces the numbered text block placed in the prompt context
func (r Result) Render() string {
	switch r.Status {
	case StatusEmpty:
		return "No restaurants found."
	case StatusFailed:
		if r.Err == nil {
			return "Error: places search failed"
		}
		return "Error: " + r.Err.Error()
	}

	lines := make([]string, 0, len(r.Venues))
	for i, v := range r.Venues {
		name := v.Name
		if name == "" {
			name = "Unnamed"
		}
		address := v.Address
		if address == "" {
			address = "No address provided"
		}
		categories := "No categories"
		if len(v.Categories) > 0 {
			categories = strings.Join(v.Categories, ", ")
		}

		if v.Distance != nil {
			lines = append(lines, fmt.Sprintf("%d. %s — %s (≈ %d m) | Categories: %s", i+1, name, address, *v.Distance, categories))
		} else {
			lines = append(lines, fmt.Sprintf("%d. %s — %s | Categories: %s", i+1, name, address, categories))
		}
	}
	return strings.Join(lines, "\n")
}
