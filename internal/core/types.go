package core

import (
	"context"
	"time"

	"ai_hoi/src/memory"
	"ai_hoi/src/model"
	"ai_hoi/src/places"
)

// Stage names, in execution order. They label the stage duration histogram
// and make up ChatOutput.ExecutionPath.
const (
	StageExtract  = "extract"
	StageLocate   = "locate"
	StagePlaces   = "places"
	StageRetrieve = "retrieve"
	StageRecall   = "recall"
	StageCompose  = "compose"
	StageGenerate = "generate"
	StageRemember = "remember"
)

// Extractor turns an utterance into a (dish, place) intent
type Extractor interface {
	Extract(ctx context.Context, text string) model.Intent
}

// Retriever finds knowledge snippets
type Retriever interface {
	Query(ctx context.Context, food, place string, topK int, namespace string) []string
	QueryText(ctx context.Context, text string, topK int, namespace string) ([]string, error)
}

// Memory is the conversation memory store as seen by the pipeline
type Memory interface {
	Recall(ctx context.Context, query string) string
	Remember(ctx context.Context, turns []model.Turn, location string) (memory.Outcome, error)
}

// Generator writes the final reply
type Generator interface {
	Generate(ctx context.Context, memory, composed string, history []model.Turn) (string, error)
	Ask(ctx context.Context, question string, snippets []string) (string, error)
}

// ChatInput is one /chat request
type ChatInput struct {
	Text     string       `json:"text"`
	Location string       `json:"location"`
	History  []model.Turn `json:"history"`
}

// ChatOutput is the pipeline result. Clarification is set when no location
// could be resolved; Message then holds the clarification sentence.
type ChatOutput struct {
	Message       string             `json:"message"`
	Intent        model.Intent       `json:"intent"`
	Coordinates   *model.Coordinates `json:"coordinates,omitempty"`
	LocationLabel string             `json:"location_label,omitempty"`
	Clarification bool               `json:"clarification"`
	PlacesStatus  places.Status      `json:"places_status"`
	Snippets      int                `json:"snippets"`
	ExecutionPath []string           `json:"execution_path"`
	// ProcessingTime in milliseconds
	ProcessingTime int64 `json:"processing_time_ms"`
}

// AskInput is one standalone knowledge question
type AskInput struct {
	Question  string `json:"question"`
	Namespace string `json:"namespace"`
	K         int    `json:"k"`
}

// Config holds the pipeline knobs that come from configuration
type Config struct {
	TopK          int
	AskTopK       int
	Namespace     string
	Clarification string
	// MinHistory is the caller history length that triggers a memory write
	MinHistory      int
	HistoryTurns    int
	RememberTimeout time.Duration
	PlacesRadius    int
	PlacesLimit     int
}
