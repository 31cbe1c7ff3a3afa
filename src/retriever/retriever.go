// Package retriever finds knowledge snippets for an extracted intent.
package retriever

import (
	"context"
	"fmt"
	"strings"

	"ai_hoi/src/llm"
	"ai_hoi/src/logger"
	"ai_hoi/src/vectorstore"

	"github.com/rs/zerolog"
)

type Retriever struct {
	embedder  llm.Embedder
	store     vectorstore.Store
	topK      int
	namespace string
	onFailure func(error)
	log       zerolog.Logger
}

type Option func(*Retriever)

// WithFailureHook is called for every error Query swallows
func WithFailureHook(fn func(error)) Option {
	return func(r *Retriever) { r.onFailure = fn }
}

func New(embedder llm.Embedder, store vectorstore.Store, topK int, namespace string, opts ...Option) *Retriever {
	if topK <= 0 {
		topK = 5
	}
	r := &Retriever{
		embedder:  embedder,
		store:     store,
		topK:      topK,
		namespace: namespace,
		log:       logger.With("retriever"),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// BuildQuery renders the search text for the entities that are present
func BuildQuery(food, place string) string {
	food, place = strings.TrimSpace(food), strings.TrimSpace(place)
	switch {
	case food != "" && place != "":
		return fmt.Sprintf("món %s ở %s", food, place)
	case food != "":
		return "món " + food
	case place != "":
		return "quán ăn ở " + place
	}
	return ""
}

// Query never fails: errors are logged and yield an empty list.
// topK <= 0 and an empty namespace fall back to the configured defaults.
func (r *Retriever) Query(ctx context.Context, food, place string, topK int, namespace string) []string {
	query := BuildQuery(food, place)
	if query == "" {
		return nil
	}

	snippets, err := r.QueryText(ctx, query, topK, namespace)
	if err != nil {
		r.log.Warn().Err(err).Str("query", query).Msg("Knowledge retrieval failed")
		if r.onFailure != nil {
			r.onFailure(err)
		}
		return []string{}
	}
	return snippets
}

// QueryText embeds text and returns the text of the top matches in rank order
func (r *Retriever) QueryText(ctx context.Context, text string, topK int, namespace string) ([]string, error) {
	if topK <= 0 {
		topK = r.topK
	}
	if namespace == "" {
		namespace = r.namespace
	}

	vector, err := llm.EmbedOne(ctx, r.embedder, text)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	matches, err := r.store.Query(ctx, namespace, vector, topK)
	if err != nil {
		return nil, fmt.Errorf("vector query: %w", err)
	}

	snippets := make([]string, 0, len(matches))
	for _, m := range matches {
		if text := strings.TrimSpace(m.Metadata[vectorstore.TextKey]); text != "" {
			snippets = append(snippets, text)
		}
	}
	r.log.Debug().Str("namespace", namespace).Int("matches", len(matches)).Int("snippets", len(snippets)).Msg("Knowledge retrieved")
	return snippets, nil
}
