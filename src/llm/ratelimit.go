package llm

import (
	"errors"
	"net/http"
	"strings"

	ollamaapi "github.com/ollama/ollama/api"
	goopenai "github.com/sashabaranov/go-openai"
	"google.golang.org/api/googleapi"
)

var throttleMarkers = []string{"429", "rate limit", "ratelimit", "too many requests", "resource exhausted", "resourceexhausted"}

// IsRateLimited reports whether err is a provider throttling response
func IsRateLimited(err error) bool {
	if err == nil {
		return false
	}

	var apiErr *goopenai.APIError
	if errors.As(err, &apiErr) && apiErr.HTTPStatusCode == http.StatusTooManyRequests {
		return true
	}
	var reqErr *goopenai.RequestError
	if errors.As(err, &reqErr) && reqErr.HTTPStatusCode == http.StatusTooManyRequests {
		return true
	}
	var ollamaErr ollamaapi.StatusError
	if errors.As(err, &ollamaErr) && ollamaErr.StatusCode == http.StatusTooManyRequests {
		return true
	}
	var googleErr *googleapi.Error
	if errors.As(err, &googleErr) && googleErr.Code == http.StatusTooManyRequests {
		return true
	}

	msg := strings.ToLower(err.Error())
	for _, marker := range throttleMarkers {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}
