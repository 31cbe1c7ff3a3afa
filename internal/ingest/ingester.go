// Package ingest loads knowledge documents into the vector store.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"time"

	"ai_hoi/internal/metrics"
	"ai_hoi/src/llm"
	"ai_hoi/src/logger"
	"ai_hoi/src/vectorstore"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"
	"github.com/tmc/langchaingo/textsplitter"
)

const (
	defaultBatchSize = 32
	maxAttempts      = 5
	retryStep        = 2 * time.Second
)

var ErrNoDocuments = errors.New("no documents to ingest")

// Document is a text with its metadata, ready to embed
type Document struct {
	ID       string
	Text     string
	Metadata map[string]string
}

// Report summarizes one ingestion run
type Report struct {
	Total    int `json:"total"`
	Upserted int `json:"upserted"`
	Skipped  int `json:"skipped"`
	Batches  int `json:"batches"`
}

type Ingester struct {
	embedder   llm.Embedder
	store      vectorstore.Store
	batchSize  int
	newBackOff func() backoff.BackOff
	log        zerolog.Logger
}

type Option func(*Ingester)

func WithBatchSize(n int) Option {
	return func(i *Ingester) {
		if n > 0 {
			i.batchSize = n
		}
	}
}

// WithBackOff replaces the delay policy between failed embedding attempts
func WithBackOff(fn func() backoff.BackOff) Option {
	return func(i *Ingester) { i.newBackOff = fn }
}

func New(embedder llm.Embedder, store vectorstore.Store, opts ...Option) *Ingester {
	i := &Ingester{
		embedder:   embedder,
		store:      store,
		batchSize:  defaultBatchSize,
		newBackOff: func() backoff.BackOff { return &linearBackOff{step: retryStep} },
		log:        logger.With("ingest"),
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// linearBackOff waits step, 2*step, 3*step, ...
type linearBackOff struct {
	step    time.Duration
	attempt int
}

func (b *linearBackOff) NextBackOff() time.Duration {
	b.attempt++
	return time.Duration(b.attempt) * b.step
}

func (b *linearBackOff) Reset() {
	b.attempt = 0
}

// Ingest embeds and upserts docs into namespace in batches. Documents whose
// stored text is unchanged are not embedded again. A batch that still fails
// after the last attempt aborts the run; earlier batches stay written.
func (i *Ingester) Ingest(ctx context.Context, namespace string, docs []Document) (Report, error) {
	report := Report{Total: len(docs)}
	if len(docs) == 0 {
		return report, ErrNoDocuments
	}

	for start := 0; start < len(docs); start += i.batchSize {
		end := min(start+i.batchSize, len(docs))
		batch := i.changed(ctx, namespace, docs[start:end])
		report.Skipped += end - start - len(batch)
		report.Batches++
		if len(batch) == 0 {
			continue
		}

		if err := i.upsertBatch(ctx, namespace, batch); err != nil {
			return report, fmt.Errorf("batch %d: %w", report.Batches, err)
		}
		report.Upserted += len(batch)
		metrics.IngestedDocuments.WithLabelValues(namespace).Add(float64(len(batch)))
		i.log.Info().Str("namespace", namespace).Int("batch", report.Batches).Int("documents", len(batch)).Msg("Upserted batch")
	}

	i.log.Info().
		Str("namespace", namespace).
		Int("total", report.Total).
		Int("upserted", report.Upserted).
		Int("skipped", report.Skipped).
		Msg("Ingestion complete")
	return report, nil
}

// changed drops documents already stored with the same text. A failed lookup
// keeps the whole batch.
func (i *Ingester) changed(ctx context.Context, namespace string, batch []Document) []Document {
	ids := make([]string, len(batch))
	for n, d := range batch {
		ids[n] = d.ID
	}
	existing, err := i.store.Fetch(ctx, namespace, ids)
	if err != nil {
		i.log.Warn().Err(err).Msg("Could not check existing documents, re-embedding batch")
		return batch
	}

	out := make([]Document, 0, len(batch))
	for _, d := range batch {
		if stored, ok := existing[d.ID]; ok && stored.Text() == d.Text {
			continue
		}
		out = append(out, d)
	}
	return out
}

func (i *Ingester) upsertBatch(ctx context.Context, namespace string, batch []Document) error {
	texts := make([]string, len(batch))
	for n, d := range batch {
		texts[n] = d.Text
	}

	var vectors [][]float32
	attempt := 0
	embed := func() error {
		attempt++
		v, err := i.embedder.Embed(ctx, texts)
		if err != nil {
			if !llm.IsRateLimited(err) {
				return backoff.Permanent(err)
			}
			i.log.Warn().Err(err).Int("attempt", attempt).Msg("Embedding request throttled")
			return err
		}
		if len(v) != len(texts) {
			return backoff.Permanent(fmt.Errorf("embedder returned %d vectors for %d texts", len(v), len(texts)))
		}
		vectors = v
		return nil
	}
	policy := backoff.WithContext(backoff.WithMaxRetries(i.newBackOff(), maxAttempts-1), ctx)
	if err := backoff.Retry(embed, policy); err != nil {
		return fmt.Errorf("embedding failed after %d attempts: %w", attempt, err)
	}

	out := make([]vectorstore.Document, len(batch))
	for n, d := range batch {
		metadata := make(map[string]string, len(d.Metadata)+1)
		for k, v := range d.Metadata {
			metadata[k] = v
		}
		metadata[vectorstore.TextKey] = d.Text
		out[n] = vectorstore.Document{ID: d.ID, Vector: vectors[n], Metadata: metadata}
	}
	if err := i.store.Upsert(ctx, namespace, out); err != nil {
		return fmt.Errorf("upsert failed: %w", err)
	}
	return nil
}

// Chunk splits long documents with a recursive character splitter. Chunks of
// a split document get "<id>#<n>" ids and a "chunk" metadata entry. size <= 0
// returns docs unchanged.
func Chunk(docs []Document, size, overlap int) ([]Document, error) {
	if size <= 0 {
		return docs, nil
	}
	if overlap < 0 || overlap >= size {
		overlap = size / 10
	}
	splitter := textsplitter.NewRecursiveCharacter(
		textsplitter.WithChunkSize(size),
		textsplitter.WithChunkOverlap(overlap),
	)

	var out []Document
	for _, d := range docs {
		parts, err := splitter.SplitText(d.Text)
		if err != nil {
			return nil, fmt.Errorf("split %s: %w", d.ID, err)
		}
		if len(parts) <= 1 {
			out = append(out, d)
			continue
		}
		for n, part := range parts {
			metadata := make(map[string]string, len(d.Metadata)+2)
			for k, v := range d.Metadata {
				metadata[k] = v
			}
			metadata["chunk"] = fmt.Sprint(n)
			metadata[vectorstore.TextKey] = part
			out = append(out, Document{ID: fmt.Sprintf("%s#%d", d.ID, n), Text: part, Metadata: metadata})
		}
	}
	return out, nil
}
