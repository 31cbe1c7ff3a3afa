package vectorstore

import (
	"context"
	"math"
	"sort"
	"sync"
)

// MemoryStore is an in-process Store using cosine similarity
type MemoryStore struct {
	mu         sync.RWMutex
	namespaces map[string]map[string]Document
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{namespaces: make(map[string]map[string]Document)}
}

func (m *MemoryStore) Upsert(ctx context.Context, namespace string, docs []Document) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	ns, ok := m.namespaces[namespace]
	if !ok {
		ns = make(map[string]Document)
		m.namespaces[namespace] = ns
	}
	for _, d := range docs {
		ns[d.ID] = cloneDocument(d)
	}
	return nil
}

func (m *MemoryStore) Fetch(ctx context.Context, namespace string, ids []string) (map[string]Document, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make(map[string]Document, len(ids))
	for _, id := range ids {
		if d, ok := m.namespaces[namespace][id]; ok {
			out[id] = cloneDocument(d)
		}
	}
	return out, nil
}

func (m *MemoryStore) Query(ctx context.Context, namespace string, vector []float32, topK int) ([]Match, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var matches []Match
	for id, d := range m.namespaces[namespace] {
		if len(d.Vector) != len(vector) {
			return nil, ErrDimensionMismatch
		}
		matches = append(matches, Match{ID: id, Score: Cosine(vector, d.Vector), Metadata: cloneMetadata(d.Metadata)})
	}

	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].Score == matches[j].Score {
			return matches[i].ID < matches[j].ID
		}
		return matches[i].Score > matches[j].Score
	})
	if topK > 0 && len(matches) > topK {
		matches = matches[:topK]
	}
	return matches, nil
}

// Cosine returns the cosine similarity of a and b, or 0 when either is a zero vector
func Cosine(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

func cloneDocument(d Document) Document {
	vec := make([]float32, len(d.Vector))
	copy(vec, d.Vector)
	return Document{ID: d.ID, Vector: vec, Metadata: cloneMetadata(d.Metadata)}
}

func cloneMetadata(md map[string]string) map[string]string {
	out := make(map[string]string, len(md))
	for k, v := range md {
		out[k] = v
	}
	return out
}
