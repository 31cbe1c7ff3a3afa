// Package storage opens the configured backends for knowledge vectors and the
// conversation memory record.
package storage

import (
	"context"
	"fmt"
	"strings"

	"ai_hoi/src/memory"
	"ai_hoi/src/model"
	"ai_hoi/src/vectorstore"
)

// OpenVectorStore returns the knowledge store selected by VECTOR_BACKEND
func OpenVectorStore(ctx context.Context, config model.VectorConfig) (vectorstore.Store, error) {
	switch strings.ToLower(config.Backend) {
	case "weaviate":
		store, err := vectorstore.NewWeaviateStore(ctx, config)
		if err != nil {
			return nil, fmt.Errorf("failed to open weaviate: %w", err)
		}
		return store, nil
	case "memory":
		return vectorstore.NewMemoryStore(), nil
	}
	return nil, fmt.Errorf("unknown vector backend %q", config.Backend)
}

// OpenRecordStore returns the memory record store selected by MEMORY_BACKEND
func OpenRecordStore(ctx context.Context, config model.MemoryConfig) (memory.RecordStore, error) {
	switch strings.ToLower(config.Backend) {
	case "redis":
		store, err := memory.NewRedisStore(ctx, config.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to Redis: %w", err)
		}
		return store, nil
	case "file":
		return memory.NewFileStore(config.FilePath), nil
	case "memory":
		return memory.NewInMemoryStore(), nil
	}
	return nil, fmt.Errorf("unknown memory backend %q", config.Backend)
}
