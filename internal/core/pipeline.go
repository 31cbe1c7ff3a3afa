package core

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"ai_hoi/internal/metrics"
	"ai_hoi/src/conversation"
	"ai_hoi/src/location"
	"ai_hoi/src/logger"
	"ai_hoi/src/model"
	"ai_hoi/src/places"

	"github.com/rs/zerolog"
)

var (
	ErrEmptyText     = errors.New("text is required")
	ErrEmptyQuestion = errors.New("question is required")
)

// Deps are the collaborators the pipeline is built from. Each is constructed
// once at process start and shared by every request.
type Deps struct {
	Extractor Extractor
	Resolver  location.Resolver
	Places    places.Client
	Retriever Retriever
	Memory    Memory
	Generator Generator
	// History trims the caller history for answer generation; nil keeps the
	// last Config.HistoryTurns turns
	History conversation.ContextStrategy
}

// Pipeline runs the chat flow: extract, locate, places, retrieve, recall,
// compose, generate, and a detached remember.
type Pipeline struct {
	deps   Deps
	config Config
	log    zerolog.Logger

	mu      sync.Mutex
	closed  bool
	pending sync.WaitGroup
}

func NewPipeline(deps Deps, config Config) *Pipeline {
	if config.TopK <= 0 {
		config.TopK = 5
	}
	if config.AskTopK <= 0 {
		config.AskTopK = 4
	}
	if config.MinHistory <= 0 {
		config.MinHistory = 2
	}
	if config.RememberTimeout <= 0 {
		config.RememberTimeout = time.Minute
	}
	if deps.History == nil {
		deps.History = conversation.NewResponseContextStrategy(config.HistoryTurns)
	}
	return &Pipeline{
		deps:   deps,
		config: config,
		log:    logger.With("pipeline"),
	}
}

// Chat answers one utterance. The only error returned besides input validation
// is a failure of the answer generator; every other stage degrades to a
// neutral value.
func (p *Pipeline) Chat(ctx context.Context, in ChatInput) (*ChatOutput, error) {
	startTime := time.Now()
	if strings.TrimSpace(in.Text) == "" {
		return nil, ErrEmptyText
	}

	out := &ChatOutput{}
	run := func(stage string, fn func()) {
		out.ExecutionPath = append(out.ExecutionPath, stage)
		start := time.Now()
		fn()
		metrics.ObserveStage(stage, start)
	}
	finish := func(outcome string) {
		out.ProcessingTime = time.Since(startTime).Milliseconds()
		metrics.ChatRequests.WithLabelValues(outcome).Inc()
		p.log.Info().
			Str("outcome", outcome).
			Strs("execution_path", out.ExecutionPath).
			Int64("processing_time_ms", out.ProcessingTime).
			Msg("chat completed")
	}

	run(StageExtract, func() {
		out.Intent = p.deps.Extractor.Extract(ctx, in.Text)
	})
	p.log.Debug().Str("food", out.Intent.Dish).Str("location", out.Intent.Place).Msg("intent extracted")

	var fromCoordinates bool
	run(StageLocate, func() {
		out.Coordinates, out.LocationLabel, fromCoordinates = p.locate(ctx, out.Intent.Place, in.Location)
	})
	if out.Coordinates == nil {
		out.Clarification = true
		out.Message = p.config.Clarification
		finish("clarification")
		return out, nil
	}

	var placesText string
	run(StagePlaces, func() {
		result := p.deps.Places.Search(ctx, places.Query{
			Lat:     out.Coordinates.Lat,
			Lon:     out.Coordinates.Lon,
			Keyword: out.Intent.Dish,
			Radius:  p.config.PlacesRadius,
			Limit:   p.config.PlacesLimit,
		})
		if result.Status == places.StatusFailed {
			metrics.ProviderFailures.WithLabelValues(StagePlaces).Inc()
			p.log.Warn().Err(result.Err).Msg("places search failed")
		}
		out.PlacesStatus = result.Status
		placesText = result.Render()
	})

	var snippets []string
	if !out.Intent.Empty() {
		run(StageRetrieve, func() {
			snippets = p.deps.Retriever.Query(ctx, out.Intent.Dish, out.Intent.Place, p.config.TopK, p.config.Namespace)
		})
	}
	out.Snippets = len(snippets)

	var recalled string
	run(StageRecall, func() {
		recalled = p.deps.Memory.Recall(ctx, in.Text)
	})

	var composed string
	run(StageCompose, func() {
		composed = ComposeContext(snippets, placesText, in.Text)
	})

	var err error
	run(StageGenerate, func() {
		out.Message, err = p.deps.Generator.Generate(ctx, recalled, composed, p.deps.History.Apply(in.History))
	})
	if err != nil {
		finish("error")
		return nil, err
	}

	if len(in.History) >= p.config.MinHistory {
		turns := make([]model.Turn, 0, len(in.History)+2)
		turns = append(turns, in.History...)
		turns = append(turns,
			model.Turn{Role: model.RoleUser, Content: in.Text},
			model.Turn{Role: model.RoleAssistant, Content: out.Message},
		)
		if p.rememberAsync(turns, out.LocationLabel, out.Coordinates, fromCoordinates) {
			out.ExecutionPath = append(out.ExecutionPath, StageRemember)
		}
	}

	finish("answered")
	return out, nil
}

// locate applies the resolution priority: the place named in the utterance,
// then the caller's location as raw coordinates, then the caller's location
// geocoded as text. The returned label names the location for memory; the
// flag reports that it is a raw coordinate pair.
func (p *Pipeline) locate(ctx context.Context, place, callerLocation string) (*model.Coordinates, string, bool) {
	if place = strings.TrimSpace(place); place != "" {
		if coords := p.deps.Resolver.Resolve(ctx, place); coords != nil {
			return coords, place, false
		}
		p.log.Debug().Str("place", place).Msg("utterance place did not resolve, trying caller location")
	}

	raw := strings.TrimSpace(callerLocation)
	if raw == "" {
		return nil, "", false
	}
	if coords, ok := location.ParseCoordinates(raw); ok {
		return coords, raw, true
	}
	if coords := p.deps.Resolver.Resolve(ctx, raw); coords != nil {
		return coords, raw, false
	}
	return nil, "", false
}

// rememberAsync folds the conversation into memory on a detached goroutine
// bounded by RememberTimeout. It reports false once the pipeline is shut down.
func (p *Pipeline) rememberAsync(turns []model.Turn, label string, coords *model.Coordinates, fromCoordinates bool) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return false
	}

	p.pending.Add(1)
	go func() {
		defer p.pending.Done()
		ctx, cancel := context.WithTimeout(context.Background(), p.config.RememberTimeout)
		defer cancel()

		start := time.Now()
		if fromCoordinates && coords != nil {
			label = p.areaName(ctx, *coords, label)
		}
		outcome, err := p.deps.Memory.Remember(ctx, turns, label)
		metrics.ObserveStage(StageRemember, start)
		if err != nil {
			metrics.MemoryWrites.WithLabelValues("error").Inc()
			p.log.Error().Err(err).Int("turns", len(turns)).Msg("memory write failed")
			return
		}
		metrics.MemoryWrites.WithLabelValues(outcome.String()).Inc()
		p.log.Debug().Str("outcome", outcome.String()).Str("location", label).Msg("memory updated")
	}()
	return true
}

// areaName swaps a raw coordinate label for a readable area name when reverse
// geocoding succeeds
func (p *Pipeline) areaName(ctx context.Context, coords model.Coordinates, fallback string) string {
	rev, err := p.deps.Resolver.Reverse(ctx, coords.Lat, coords.Lon)
	if err != nil || rev == nil || rev.AreaName == "" {
		return fallback
	}
	return rev.AreaName
}

// Ask answers a standalone question from the knowledge base only. Unlike Chat,
// retrieval failures are returned to the caller.
func (p *Pipeline) Ask(ctx context.Context, in AskInput) (string, error) {
	question := strings.TrimSpace(in.Question)
	if question == "" {
		return "", ErrEmptyQuestion
	}
	k := in.K
	if k <= 0 {
		k = p.config.AskTopK
	}
	namespace := in.Namespace
	if namespace == "" {
		namespace = p.config.Namespace
	}

	start := time.Now()
	snippets, err := p.deps.Retriever.QueryText(ctx, question, k, namespace)
	metrics.ObserveStage(StageRetrieve, start)
	if err != nil {
		metrics.ProviderFailures.WithLabelValues(StageRetrieve).Inc()
		return "", fmt.Errorf("knowledge retrieval failed: %w", err)
	}

	start = time.Now()
	answer, err := p.deps.Generator.Ask(ctx, question, snippets)
	metrics.ObserveStage(StageGenerate, start)
	if err != nil {
		return "", err
	}
	return answer, nil
}

// Wait blocks until every in-flight memory write has finished
func (p *Pipeline) Wait() {
	p.pending.Wait()
}

// Shutdown stops accepting memory writes and waits for the in-flight ones
// until ctx is done.
func (p *Pipeline) Shutdown(ctx context.Context) error {
	p.mu.Lock()
	p.closed = true
	p.mu.Unlock()

	done := make(chan struct{})
	go func() {
		p.pending.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("pending memory writes not finished: %w", ctx.Err())
	}
}
