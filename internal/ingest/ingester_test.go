package ingest

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"ai_hoi/src/llm/llmtest"
	"ai_hoi/src/vectorstore"

	"github.com/cenkalti/backoff/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func zeroBackOff() backoff.BackOff { return &backoff.ZeroBackOff{} }

func sampleDocs(n int) []Document {
	docs := make([]Document, n)
	for i := range docs {
		text := strings.Repeat("món ", i+1)
		docs[i] = Document{ID: "doc-" + string(rune('a'+i)), Text: text, Metadata: map[string]string{"i": text}}
	}
	return docs
}

func TestIngestBatchesAndStoresText(t *testing.T) {
	ctx := context.Background()
	embedder := &llmtest.Embedder{Dim: 4}
	store := vectorstore.NewMemoryStore()
	ing := New(embedder, store, WithBatchSize(2), WithBackOff(zeroBackOff))

	report, err := ing.Ingest(ctx, "dishes", sampleDocs(5))
	require.NoError(t, err)
	assert.Equal(t, Report{Total: 5, Upserted: 5, Batches: 3}, report)
	assert.Len(t, embedder.Calls(), 3)

	got, err := store.Fetch(ctx, "dishes", []string{"doc-a", "doc-e"})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "món ", got["doc-a"].Text())
	assert.Len(t, got["doc-e"].Vector, 4)
}

func TestIngestSkipsUnchangedDocuments(t *testing.T) {
	ctx := context.Background()
	embedder := &llmtest.Embedder{Dim: 4}
	store := vectorstore.NewMemoryStore()
	ing := New(embedder, store, WithBackOff(zeroBackOff))

	docs := sampleDocs(3)
	_, err := ing.Ingest(ctx, "dishes", docs)
	require.NoError(t, err)

	docs[1].Text = "phở bò"
	report, err := ing.Ingest(ctx, "dishes", docs)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Upserted)
	assert.Equal(t, 2, report.Skipped)

	calls := embedder.Calls()
	require.Len(t, calls, 2)
	assert.Equal(t, []string{"phở bò"}, calls[1])
}

func TestIngestRetriesEmbedding(t *testing.T) {
	embedder := &llmtest.Embedder{Dim: 4, FailTimes: 4, FailErr: errors.New("429 too many requests")}
	ing := New(embedder, vectorstore.NewMemoryStore(), WithBackOff(zeroBackOff))

	report, err := ing.Ingest(context.Background(), "dishes", sampleDocs(1))
	require.NoError(t, err)
	assert.Equal(t, 1, report.Upserted)
	assert.Len(t, embedder.Calls(), 5)
}

func TestIngestGivesUpAfterFiveAttempts(t *testing.T) {
	throttled := errors.New("429 too many requests")
	embedder := &llmtest.Embedder{Dim: 4, FailTimes: 10, Err: throttled}
	ing := New(embedder, vectorstore.NewMemoryStore(), WithBackOff(zeroBackOff))

	report, err := ing.Ingest(context.Background(), "dishes", sampleDocs(1))
	assert.ErrorIs(t, err, throttled)
	assert.Zero(t, report.Upserted)
	assert.Len(t, embedder.Calls(), 5)
}

func TestIngestDoesNotRetryNonThrottlingErrors(t *testing.T) {
	invalid := errors.New("invalid api key")
	embedder := &llmtest.Embedder{Dim: 4, FailTimes: 10, FailErr: invalid}
	ing := New(embedder, vectorstore.NewMemoryStore(), WithBackOff(zeroBackOff))

	report, err := ing.Ingest(context.Background(), "dishes", sampleDocs(1))
	assert.ErrorIs(t, err, invalid)
	assert.Zero(t, report.Upserted)
	assert.Len(t, embedder.Calls(), 1)
}

func TestIngestEmpty(t *testing.T) {
	_, err := New(&llmtest.Embedder{}, vectorstore.NewMemoryStore()).Ingest(context.Background(), "x", nil)
	assert.ErrorIs(t, err, ErrNoDocuments)
}

func TestLinearBackOff(t *testing.T) {
	b := &linearBackOff{step: 2 * time.Second}
	assert.Equal(t, 2*time.Second, b.NextBackOff())
	assert.Equal(t, 4*time.Second, b.NextBackOff())
	assert.Equal(t, 6*time.Second, b.NextBackOff())
	b.Reset()
	assert.Equal(t, 2*time.Second, b.NextBackOff())
}

func TestChunk(t *testing.T) {
	long := strings.Repeat("phở bò tái lăn rất ngon ", 20)
	docs := []Document{
		{ID: "doc-0", Text: long, Metadata: map[string]string{"source": "a"}},
		{ID: "doc-1", Text: "ngắn", Metadata: map[string]string{"source": "b"}},
	}

	out, err := Chunk(docs, 60, 10)
	require.NoError(t, err)
	require.Greater(t, len(out), 2)

	last := out[len(out)-1]
	assert.Equal(t, "doc-1", last.ID)
	for _, d := range out[:len(out)-1] {
		assert.True(t, strings.HasPrefix(d.ID, "doc-0#"), d.ID)
		assert.NotEmpty(t, d.Text)
		assert.Equal(t, "a", d.Metadata["source"])
		assert.Equal(t, d.Text, d.Metadata["text"])
	}

	same, err := Chunk(docs, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, docs, same)
}
