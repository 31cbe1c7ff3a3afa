package retriever

import (
	"context"
	"testing"

	"ai_hoi/src/llm/llmtest"
	"ai_hoi/src/vectorstore"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildQuery(t *testing.T) {
	assert.Equal(t, "món phở ở Hoàn Kiếm", BuildQuery("phở", "Hoàn Kiếm"))
	assert.Equal(t, "món phở", BuildQuery("phở", ""))
	assert.Equal(t, "quán ăn ở Hoàn Kiếm", BuildQuery(" ", "Hoàn Kiếm"))
	assert.Empty(t, BuildQuery("", ""))
}

func seededStore(t *testing.T) *vectorstore.MemoryStore {
	store := vectorstore.NewMemoryStore()
	require.NoError(t, store.Upsert(context.Background(), "restaurants", []vectorstore.Document{
		{ID: "1", Vector: []float32{1, 0}, Metadata: map[string]string{vectorstore.TextKey: "Phở Thìn, 13 Lò Đúc"}},
		{ID: "2", Vector: []float32{0.9, 0.1}, Metadata: map[string]string{"source": "no text"}},
		{ID: "3", Vector: []float32{0.7, 0.3}, Metadata: map[string]string{vectorstore.TextKey: "Phở Bát Đàn"}},
		{ID: "4", Vector: []float32{0, 1}, Metadata: map[string]string{vectorstore.TextKey: "Bún chả"}},
	}))
	return store
}

func TestQueryKeepsRankAndSkipsTextless(t *testing.T) {
	embedder := &llmtest.Embedder{Vectors: map[string][]float32{"món phở ở Hà Nội": {1, 0}}}
	r := New(embedder, seededStore(t), 5, "restaurants")

	got := r.Query(context.Background(), "phở", "Hà Nội", 3, "")
	assert.Equal(t, []string{"Phở Thìn, 13 Lò Đúc", "Phở Bát Đàn"}, got)
	assert.Equal(t, [][]string{{"món phở ở Hà Nội"}}, embedder.Calls())
}

func TestQueryWithoutEntitiesSkipsEmbedding(t *testing.T) {
	embedder := &llmtest.Embedder{}
	r := New(embedder, seededStore(t), 5, "restaurants")

	assert.Nil(t, r.Query(context.Background(), "", "", 5, ""))
	assert.Empty(t, embedder.Calls())
}

func TestQueryFailureReturnsEmptyAndReports(t *testing.T) {
	var reported []error
	embedder := &llmtest.Embedder{Err: assert.AnError}
	r := New(embedder, seededStore(t), 5, "restaurants", WithFailureHook(func(err error) {
		reported = append(reported, err)
	}))

	got := r.Query(context.Background(), "phở", "", 5, "")
	assert.NotNil(t, got)
	assert.Empty(t, got)
	require.Len(t, reported, 1)
	assert.ErrorIs(t, reported[0], assert.AnError)
}

func TestQueryUsesNamespace(t *testing.T) {
	embedder := &llmtest.Embedder{Vectors: map[string][]float32{"món phở": {1, 0}}}
	r := New(embedder, seededStore(t), 5, "restaurants")

	assert.Empty(t, r.Query(context.Background(), "phở", "", 5, "empty-namespace"))
}
