package src

import (
	"ai_hoi/internal/config"
	"ai_hoi/src/model"
	"fmt"
	"strings"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Log       model.LogConfig       `envconfig:"LOG"`
	Server    model.ServerConfig    `envconfig:"SERVER"`
	LLM       model.LLMConfig       `envconfig:"LLM"`
	Embedding model.EmbeddingConfig `envconfig:"EMBEDDING"`
	Vector    model.VectorConfig    `envconfig:"VECTOR"`
	Memory    model.MemoryConfig    `envconfig:"MEMORY"`
	Geo       model.GeoConfig       `envconfig:"GEO"`
	Places    model.PlacesConfig    `envconfig:"PLACES"`

	PromptFile string             `envconfig:"PROMPT_FILE" default:"config.yaml"`
	Prompts    model.PromptConfig `ignored:"true"`
}

// LoadConfig reads the environment (call godotenv first if a .env file is wanted)
// and then the prompt file named by PROMPT_FILE.
func LoadConfig() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("error processing environment configuration: %w", err)
	}

	prompts, err := config.LoadPrompts(cfg.PromptFile)
	if err != nil {
		return nil, err
	}
	cfg.Prompts = prompts

	return &cfg, nil
}

// Validate reports configuration that would make the process unable to serve.
// Provider names are checked by the llm package when clients are built.
func (c *Config) Validate() error {
	var problems []string

	if strings.TrimSpace(c.Places.APIKey) == "" {
		problems = append(problems, "FOURSQUARE_API_KEY is required")
	}

	switch strings.ToLower(c.LLM.Provider) {
	case "ollama":
	default:
		if c.LLM.APIKey == "" {
			problems = append(problems, fmt.Sprintf("LLM_API_KEY is required for provider %q", c.LLM.Provider))
		}
	}
	if strings.EqualFold(c.LLM.Provider, "azure") && c.LLM.BaseURL == "" {
		problems = append(problems, "LLM_BASE_URL (azure endpoint) is required for provider \"azure\"")
	}

	switch strings.ToLower(c.Embedding.Provider) {
	case "ollama":
	default:
		if c.Embedding.APIKey == "" {
			problems = append(problems, fmt.Sprintf("EMBEDDING_API_KEY is required for provider %q", c.Embedding.Provider))
		}
	}
	if strings.EqualFold(c.Embedding.Provider, "azure") && c.Embedding.BaseURL == "" {
		problems = append(problems, "EMBEDDING_BASE_URL (azure endpoint) is required for provider \"azure\"")
	}

	switch strings.ToLower(c.Vector.Backend) {
	case "weaviate":
		if c.Vector.URL == "" {
			problems = append(problems, "VECTOR_URL is required for the weaviate backend")
		}
	case "memory":
	default:
		problems = append(problems, fmt.Sprintf("unknown VECTOR_BACKEND %q", c.Vector.Backend))
	}

	switch strings.ToLower(c.Memory.Backend) {
	case "redis":
		if c.Memory.RedisURL == "" {
			problems = append(problems, "REDIS_URL is required for the redis memory backend")
		}
	case "file":
		if c.Memory.FilePath == "" {
			problems = append(problems, "MEMORY_FILE_PATH is required for the file memory backend")
		}
	case "memory":
	default:
		problems = append(problems, fmt.Sprintf("unknown MEMORY_BACKEND %q", c.Memory.Backend))
	}

	if c.Memory.MinTurns < 2 {
		problems = append(problems, "MEMORY_MIN_TURNS must be at least 2")
	}

	if len(problems) > 0 {
		return fmt.Errorf("invalid configuration: %s", strings.Join(problems, "; "))
	}
	return nil
}
