package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"ai_hoi/internal/core"
	"ai_hoi/internal/ingest"
	"ai_hoi/internal/metrics"
	"ai_hoi/internal/server"
	"ai_hoi/src"
	"ai_hoi/src/llm"
	"ai_hoi/src/llm/answer"
	"ai_hoi/src/llm/extract"
	"ai_hoi/src/llm/summary"
	"ai_hoi/src/location"
	"ai_hoi/src/logger"
	"ai_hoi/src/memory"
	"ai_hoi/src/places"
	"ai_hoi/src/retriever"
	"ai_hoi/src/storage"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil {
		fmt.Fprintln(os.Stderr, "no .env file loaded, using process environment")
	}

	cfg, err := src.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	if err := logger.InitLogger(cfg.Log); err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		logger.Fatal().Err(err).Msg("Configuration rejected")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		logger.Fatal().Err(err).Msg("Server stopped with error")
	}
	logger.Info().Msg("Server stopped")
}

func run(ctx context.Context, cfg *src.Config) error {
	chat, err := llm.NewChatModel(ctx, cfg.LLM)
	if err != nil {
		return fmt.Errorf("chat model: %w", err)
	}
	embedder, err := llm.NewEmbedder(ctx, cfg.Embedding)
	if err != nil {
		return fmt.Errorf("embedder: %w", err)
	}
	vectors, err := storage.OpenVectorStore(ctx, cfg.Vector)
	if err != nil {
		return err
	}
	records, err := storage.OpenRecordStore(ctx, cfg.Memory)
	if err != nil {
		return err
	}
	defer records.Close()

	logger.Info().
		Str("llm_provider", cfg.LLM.Provider).
		Str("llm_model", cfg.LLM.Model).
		Str("embedding_provider", cfg.Embedding.Provider).
		Str("vector_backend", cfg.Vector.Backend).
		Str("memory_backend", cfg.Memory.Backend).
		Msg("Providers initialized")

	geocoder := location.NewNominatim(cfg.Geo)
	memories := memory.NewService(
		records,
		summary.New(chat, cfg.Prompts, cfg.LLM),
		embedder,
		memory.Config{
			Key:        cfg.Memory.Key,
			MinTurns:   cfg.Memory.MinTurns,
			MaxRetries: cfg.Memory.MaxRetries,
			NoMemory:   cfg.Prompts.NoMemory,
		},
		memory.WithConflictHook(metrics.MemoryConflicts.Inc),
	)

	pipeline := core.NewPipeline(core.Deps{
		Extractor: extract.New(chat, cfg.Prompts.Extract),
		Resolver:  geocoder,
		Places:    places.NewFoursquare(cfg.Places),
		Retriever: retriever.New(embedder, vectors, cfg.Vector.TopK, cfg.Vector.Namespace,
			retriever.WithFailureHook(metrics.ProviderFailure(core.StageRetrieve))),
		Memory: memories,
		Generator: answer.New(ctx, chat, cfg.Prompts, answer.Options{
			Temperature: cfg.LLM.Temperature,
			MaxTokens:   cfg.LLM.MaxTokens,
		}),
	}, core.Config{
		TopK:            cfg.Vector.TopK,
		Namespace:       cfg.Vector.Namespace,
		Clarification:   cfg.Prompts.Clarification,
		MinHistory:      cfg.Memory.MinTurns,
		HistoryTurns:    cfg.LLM.HistoryTurns,
		RememberTimeout: cfg.Memory.WriteTimeout,
		PlacesRadius:    cfg.Places.Radius,
		PlacesLimit:     cfg.Places.Limit,
	})

	gin.SetMode(cfg.Server.Mode)
	srv := server.New(server.Deps{
		Chat:     pipeline,
		Geocoder: geocoder,
		History:  memories,
		Ingester: ingest.New(embedder, vectors),
	}, cfg.Server, cfg.Vector.Namespace)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Run()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info().Dur("timeout", cfg.Server.ShutdownTimeout).Msg("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
