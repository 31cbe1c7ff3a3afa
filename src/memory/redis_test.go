package memory

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"ai_hoi/src/llm/llmtest"

	"github.com/alicebob/miniredis/v2"
	"github.com/cenkalti/backoff/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRedisStore(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	store, err := NewRedisStore(context.Background(), "redis://"+mr.Addr())
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store, mr
}

func TestRedisStoreCompareAndSwap(t *testing.T) {
	ctx := context.Background()
	store, mr := newRedisStore(t)

	_, err := store.Load(ctx, DefaultKey)
	assert.ErrorIs(t, err, ErrNotFound)

	rec := &Record{ID: DefaultKey, Version: 1, LatestSummary: "thích phở", TotalConversations: 1}
	require.NoError(t, store.CompareAndSwap(ctx, rec, 0))
	assert.ErrorIs(t, store.CompareAndSwap(ctx, rec, 0), ErrVersionConflict)

	raw, err := mr.Get(DefaultKey)
	require.NoError(t, err)
	assert.Contains(t, raw, `"version":1`)

	got, err := store.Load(ctx, DefaultKey)
	require.NoError(t, err)
	assert.Equal(t, "thích phở", got.LatestSummary)

	next := got.Clone()
	next.Version = 2
	next.TotalConversations = 2
	require.NoError(t, store.CompareAndSwap(ctx, next, 1))
	assert.ErrorIs(t, store.CompareAndSwap(ctx, next, 1), ErrVersionConflict)

	got, err = store.Load(ctx, DefaultKey)
	require.NoError(t, err)
	assert.Equal(t, int64(2), got.Version)
	assert.Equal(t, 2, got.TotalConversations)
}

func TestRedisStoreNullPayloadIsNotFound(t *testing.T) {
	ctx := context.Background()
	store, mr := newRedisStore(t)
	require.NoError(t, mr.Set(DefaultKey, "null"))

	_, err := store.Load(ctx, DefaultKey)
	assert.ErrorIs(t, err, ErrNotFound)

	s := newTestService(store, &fakeSummarizer{})
	assert.NotPanics(t, func() {
		assert.Equal(t, noMemory, s.Recall(ctx, "phở"))
	})

	outcome, err := s.Remember(ctx, conversation("phở"), "")
	require.NoError(t, err)
	assert.Equal(t, OutcomeCreated, outcome)
}

func TestRedisStoreCorruptVersionFails(t *testing.T) {
	ctx := context.Background()
	store, mr := newRedisStore(t)
	require.NoError(t, mr.Set(DefaultKey, "{not json"))

	err := store.CompareAndSwap(ctx, &Record{ID: DefaultKey, Version: 1}, 0)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrVersionConflict)
}

// racingRedisStore lands a foreign write between the service's read and its write
type racingRedisStore struct {
	*RedisStore
	foreign func() error
}

func (r *racingRedisStore) CompareAndSwap(ctx context.Context, rec *Record, expected int64) error {
	if r.foreign != nil {
		foreign := r.foreign
		r.foreign = nil
		if err := foreign(); err != nil {
			return err
		}
	}
	return r.RedisStore.CompareAndSwap(ctx, rec, expected)
}

func TestRedisRememberRetriesOnVersionConflict(t *testing.T) {
	ctx := context.Background()
	inner, _ := newRedisStore(t)
	store := &racingRedisStore{RedisStore: inner}
	store.foreign = func() error {
		return inner.CompareAndSwap(ctx, &Record{
			ID:                 DefaultKey,
			Version:            1,
			Embedding:          []float32{1, 0, 0, 0},
			Summaries:          []Entry{{Summary: "cuộc trò chuyện khác", UserPrompts: []string{"bánh mì?"}}},
			TotalConversations: 1,
			LatestSummary:      "cuộc trò chuyện khác",
		}, 0)
	}

	conflicts := 0
	s := newTestService(store, &fakeSummarizer{}, WithConflictHook(func() { conflicts++ }))

	outcome, err := s.Remember(ctx, conversation("phở"), "Quận 1")
	require.NoError(t, err)
	assert.Equal(t, OutcomeUpdated, outcome)
	assert.Equal(t, 1, conflicts)

	rec, err := inner.Load(ctx, DefaultKey)
	require.NoError(t, err)
	assert.Equal(t, int64(2), rec.Version)
	assert.Equal(t, []string{"cuộc trò chuyện khác", "Người dùng hỏi: phở"}, rec.Synopses())
	assert.Equal(t, "Quận 1", rec.LatestLocation)
}

func TestRedisConcurrentRemembersAreNotLost(t *testing.T) {
	ctx := context.Background()
	store, _ := newRedisStore(t)
	s := NewService(store, &fakeSummarizer{}, &llmtest.Embedder{Dim: 4}, Config{MaxRetries: 100, NoMemory: noMemory},
		WithBackOff(func() backoff.BackOff { return &backoff.ZeroBackOff{} }))

	var wg sync.WaitGroup
	for i := 0; i < 6; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := s.Remember(ctx, conversation(fmt.Sprintf("món số %d", i)), "")
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	rec, err := store.Load(ctx, DefaultKey)
	require.NoError(t, err)
	assert.Equal(t, 6, rec.TotalConversations)
	assert.Equal(t, int64(6), rec.Version)
}
