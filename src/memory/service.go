package memory

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"ai_hoi/src/llm"
	"ai_hoi/src/logger"
	"ai_hoi/src/model"
	"ai_hoi/src/vectorstore"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"
)

const (
	DefaultKey          = "conversation_summary"
	defaultHistoryLimit = 5
	recallFormat        = "Tóm tắt các cuộc trò chuyện trước (%d cuộc): %s"
)

// Outcome reports what Remember did
type Outcome int

const (
	OutcomeSkipped Outcome = iota
	OutcomeEmptySummary
	OutcomeCreated
	OutcomeUpdated
)

func (o Outcome) String() string {
	switch o {
	case OutcomeSkipped:
		return "skipped"
	case OutcomeEmptySummary:
		return "empty_summary"
	case OutcomeCreated:
		return "created"
	case OutcomeUpdated:
		return "updated"
	}
	return "unknown"
}

// Summarizer is the LLM side of memory maintenance
type Summarizer interface {
	Summarize(ctx context.Context, turns []model.Turn) (string, error)
	MetaSummarize(ctx context.Context, synopses, userPrompts []string) (string, error)
}

type Config struct {
	Key        string
	MinTurns   int
	MaxRetries int
	NoMemory   string
}

type Service struct {
	store      RecordStore
	summarizer Summarizer
	embedder   llm.Embedder
	config     Config
	newBackOff func() backoff.BackOff
	onConflict func()
	now        func() time.Time
	log        zerolog.Logger
}

type Option func(*Service)

// WithBackOff replaces the delay policy between conflicting writes
func WithBackOff(fn func() backoff.BackOff) Option {
	return func(s *Service) { s.newBackOff = fn }
}

// WithConflictHook is called on every version conflict
func WithConflictHook(fn func()) Option {
	return func(s *Service) { s.onConflict = fn }
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func NewService(store RecordStore, summarizer Summarizer, embedder llm.Embedder, config Config, opts ...Option) *Service {
	if config.Key == "" {
		config.Key = DefaultKey
	}
	if config.MinTurns < 2 {
		config.MinTurns = 2
	}
	if config.MaxRetries <= 0 {
		config.MaxRetries = 5
	}
	s := &Service{
		store:      store,
		summarizer: summarizer,
		embedder:   embedder,
		config:     config,
		newBackOff: defaultBackOff,
		now:        time.Now,
		log:        logger.With("memory"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func defaultBackOff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 50 * time.Millisecond
	b.MaxInterval = time.Second
	b.MaxElapsedTime = 0
	return b
}

// Remember summarizes the conversation and folds it into the record. Version
// conflicts restart from a fresh read; the synopsis is computed only once.
func (s *Service) Remember(ctx context.Context, turns []model.Turn, location string) (Outcome, error) {
	if len(turns) < s.config.MinTurns {
		return OutcomeSkipped, nil
	}

	synopsis, err := s.summarizer.Summarize(ctx, turns)
	if err != nil {
		return OutcomeSkipped, err
	}
	if synopsis == "" {
		s.log.Warn().Int("turns", len(turns)).Msg("Empty conversation summary, nothing stored")
		return OutcomeEmptySummary, nil
	}

	entry := Entry{
		Summary:      synopsis,
		Location:     location,
		Timestamp:    s.now().UTC().Format(time.RFC3339),
		MessageCount: len(turns),
		UserPrompts:  model.UserPrompts(turns),
	}

	var outcome Outcome
	attempt := 0
	write := func() error {
		attempt++
		current, err := s.store.Load(ctx, s.config.Key)
		if err != nil && !errors.Is(err, ErrNotFound) {
			return backoff.Permanent(err)
		}

		next, err := s.fold(ctx, current, entry)
		if err != nil {
			return backoff.Permanent(err)
		}

		var expected int64
		outcome = OutcomeCreated
		if current != nil {
			expected = current.Version
			outcome = OutcomeUpdated
		}
		next.Version = expected + 1

		err = s.store.CompareAndSwap(ctx, next, expected)
		if errors.Is(err, ErrVersionConflict) {
			if s.onConflict != nil {
				s.onConflict()
			}
			s.log.Debug().Int("attempt", attempt).Int64("expected_version", expected).Msg("Memory write conflict, retrying")
			return err
		}
		if err != nil {
			return backoff.Permanent(err)
		}
		return nil
	}

	policy := backoff.WithContext(backoff.WithMaxRetries(s.newBackOff(), uint64(s.config.MaxRetries)), ctx)
	if err := backoff.Retry(write, policy); err != nil {
		if errors.Is(err, ErrVersionConflict) {
			return OutcomeSkipped, fmt.Errorf("memory write gave up after %d attempts: %w", attempt, err)
		}
		return OutcomeSkipped, err
	}

	s.log.Info().Str("outcome", outcome.String()).Int("attempts", attempt).Msg("Conversation remembered")
	return outcome, nil
}

// fold returns the record that results from adding entry to current (nil when absent)
func (s *Service) fold(ctx context.Context, current *Record, entry Entry) (*Record, error) {
	now := s.now().UTC().Format(time.RFC3339)

	if current == nil {
		vector, err := llm.EmbedOne(ctx, s.embedder, entry.Summary)
		if err != nil {
			return nil, fmt.Errorf("embed summary: %w", err)
		}
		return &Record{
			ID:                 s.config.Key,
			Embedding:          vector,
			Summaries:          []Entry{entry},
			TotalConversations: 1,
			LatestSummary:      entry.Summary,
			LatestLocation:     entry.Location,
			LastUpdated:        now,
		}, nil
	}

	next := current.Clone()
	next.Summaries = append(next.Summaries, entry)
	next.TotalConversations = current.TotalConversations + 1
	if entry.Location != "" {
		next.LatestLocation = entry.Location
	}
	next.LastUpdated = now

	synopses := next.Synopses()
	vector, err := llm.EmbedOne(ctx, s.embedder, strings.Join(synopses, "\n"))
	if err != nil {
		return nil, fmt.Errorf("embed summaries: %w", err)
	}
	next.Embedding = vector

	meta, err := s.summarizer.MetaSummarize(ctx, synopses, next.UserPrompts())
	if err != nil {
		return nil, err
	}
	if meta == "" {
		s.log.Warn().Msg("Empty meta summary, keeping latest synopsis")
		meta = entry.Summary
	}
	next.LatestSummary = meta
	return next, nil
}

// Recall renders the meta-summary for the persona prompt. The query does not
// affect the result; it is only logged.
func (s *Service) Recall(ctx context.Context, query string) string {
	rec, err := s.store.Load(ctx, s.config.Key)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			s.log.Warn().Err(err).Msg("Memory recall failed")
		}
		return s.config.NoMemory
	}
	if rec == nil || strings.TrimSpace(rec.LatestSummary) == "" {
		return s.config.NoMemory
	}
	s.log.Debug().Str("query", query).Int("conversations", rec.TotalConversations).Msg("Memory recalled")
	return fmt.Sprintf(recallFormat, rec.TotalConversations, rec.LatestSummary)
}

// HistoryResult is the /search-history view of the record
type HistoryResult struct {
	Score              float64 `json:"score"`
	TotalConversations int     `json:"total_conversations"`
	LatestSummary      string  `json:"latest_summary"`
	LatestLocation     string  `json:"latest_location"`
	Entries            []Entry `json:"entries"`
}

// History returns the newest entries, newest first, scored by the similarity of
// query to the record embedding. An empty query is not embedded and scores 0.
func (s *Service) History(ctx context.Context, query string, limit int) (HistoryResult, error) {
	if limit <= 0 {
		limit = defaultHistoryLimit
	}

	rec, err := s.store.Load(ctx, s.config.Key)
	if errors.Is(err, ErrNotFound) || (err == nil && rec == nil) {
		return HistoryResult{Entries: []Entry{}}, nil
	}
	if err != nil {
		return HistoryResult{}, err
	}

	result := HistoryResult{
		TotalConversations: rec.TotalConversations,
		LatestSummary:      rec.LatestSummary,
		LatestLocation:     rec.LatestLocation,
		Entries:            make([]Entry, 0, limit),
	}
	for i := len(rec.Summaries) - 1; i >= 0 && len(result.Entries) < limit; i-- {
		result.Entries = append(result.Entries, rec.Summaries[i])
	}

	if strings.TrimSpace(query) != "" {
		vector, err := llm.EmbedOne(ctx, s.embedder, query)
		if err != nil {
			return HistoryResult{}, fmt.Errorf("embed history query: %w", err)
		}
		result.Score = vectorstore.Cosine(vector, rec.Embedding)
	}
	return result, nil
}
