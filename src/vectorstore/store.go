// Package vectorstore holds namespace-scoped embeddings with a text payload.
package vectorstore

import (
	"context"
	"errors"
)

// TextKey is the metadata key carrying the snippet text
const TextKey = "text"

var ErrDimensionMismatch = errors.New("vector dimension mismatch")

type Document struct {
	ID       string
	Vector   []float32
	Metadata map[string]string
}

func (d Document) Text() string {
	return d.Metadata[TextKey]
}

// Match is a query hit; higher Score is more similar
type Match struct {
	ID       string
	Score    float64
	Metadata map[string]string
}

type Store interface {
	// Upsert replaces documents with the same ID in the namespace
	Upsert(ctx context.Context, namespace string, docs []Document) error
	// Fetch returns the documents that exist, keyed by ID
	Fetch(ctx context.Context, namespace string, ids []string) (map[string]Document, error)
	// Query returns up to topK matches ordered by decreasing similarity
	Query(ctx context.Context, namespace string, vector []float32, topK int) ([]Match, error)
}
