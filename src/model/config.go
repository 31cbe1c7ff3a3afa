package model

import "time"

// ----------------------------------------------------
// ================ Logging ================
// LogConfig holds configuration for the zerolog logger
type LogConfig struct {
	Level      string `envconfig:"LEVEL" default:"info"`
	Format     string `envconfig:"FORMAT" default:"json"` // json, console
	Output     string `envconfig:"OUTPUT" default:"stdout"`
	TimeFormat string `envconfig:"TIME_FORMAT" default:"rfc3339"`
	FilePath   string `envconfig:"FILE_PATH" default:"logs/ai-hoi.log"`
}

// ----------------------------------------------------
// ================ HTTP ================
type ServerConfig struct {
	Addr            string        `envconfig:"ADDR" default:":8000"`
	CORSOrigins     []string      `envconfig:"CORS_ORIGINS" default:"http://localhost:3000"`
	ShutdownTimeout time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"15s"`
	Mode            string        `envconfig:"GIN_MODE" default:"release"`
}

// ----------------------------------------------------
// ================ LLM ================
// LLMConfig configures the chat model used by every LLM stage
type LLMConfig struct {
	Provider   string        `envconfig:"PROVIDER" default:"openai"`
	Model      string        `envconfig:"MODEL" default:"gpt-4o-mini"`
	APIKey     string        `envconfig:"API_KEY"`
	BaseURL    string        `envconfig:"BASE_URL"`
	APIVersion string        `envconfig:"API_VERSION" default:"2024-07-01-preview"`
	Timeout    time.Duration `envconfig:"TIMEOUT" default:"60s"`

	// answer generation
	Temperature float32 `envconfig:"TEMPERATURE" default:"0"`
	MaxTokens   int     `envconfig:"MAX_TOKENS" default:"1000"`
	// caller history turns sent with the answer prompt
	HistoryTurns int `envconfig:"HISTORY_TURNS" default:"10"`

	// synopsis and meta-summary
	SummaryTemperature float32 `envconfig:"SUMMARY_TEMPERATURE" default:"0.2"`
	SummaryMaxTokens   int     `envconfig:"SUMMARY_MAX_TOKENS" default:"200"`
	MetaMaxTokens      int     `envconfig:"META_MAX_TOKENS" default:"400"`
}

// EmbeddingConfig configures the embedding provider
type EmbeddingConfig struct {
	Provider   string `envconfig:"PROVIDER" default:"openai"`
	Model      string `envconfig:"MODEL" default:"text-embedding-3-small"`
	APIKey     string `envconfig:"API_KEY"`
	BaseURL    string `envconfig:"BASE_URL"`
	APIVersion string `envconfig:"API_VERSION" default:"2024-07-01-preview"`
}

// ----------------------------------------------------
// ================ Storage ================
type VectorConfig struct {
	Backend   string `envconfig:"BACKEND" default:"weaviate"` // weaviate, memory
	URL       string `envconfig:"URL" default:"http://localhost:8080"`
	APIKey    string `envconfig:"API_KEY"`
	Class     string `envconfig:"CLASS" default:"Knowledge"`
	Namespace string `envconfig:"NAMESPACE" default:"restaurants"`
	TopK      int    `envconfig:"TOP_K" default:"5"`
}

// MemoryConfig configures where the conversation summary record lives
type MemoryConfig struct {
	Backend      string        `envconfig:"BACKEND" default:"redis"` // redis, file, memory
	RedisURL     string        `envconfig:"REDIS_URL" default:"redis://localhost:6379/0"`
	FilePath     string        `envconfig:"FILE_PATH" default:"data/memory/conversation_summary.json"`
	Key          string        `envconfig:"KEY" default:"conversation_summary"`
	MinTurns     int           `envconfig:"MIN_TURNS" default:"2"`
	MaxRetries   int           `envconfig:"MAX_RETRIES" default:"5"`
	WriteTimeout time.Duration `envconfig:"WRITE_TIMEOUT" default:"60s"`
}

// ----------------------------------------------------
// ================ External services ================
type GeoConfig struct {
	BaseURL       string        `envconfig:"BASE_URL" default:"https://nominatim.openstreetmap.org"`
	UserAgent     string        `envconfig:"USER_AGENT" default:"ai-hoi/1.0"`
	RatePerSecond float64       `envconfig:"RATE_PER_SECOND" default:"1"`
	Timeout       time.Duration `envconfig:"TIMEOUT" default:"10s"`
}

type PlacesConfig struct {
	BaseURL    string        `envconfig:"BASE_URL" default:"https://places-api.foursquare.com"`
	APIKey     string        `envconfig:"FOURSQUARE_API_KEY"`
	APIVersion string        `envconfig:"API_VERSION" default:"2025-06-17"`
	Radius     int           `envconfig:"RADIUS" default:"3000"`
	Limit      int           `envconfig:"LIMIT" default:"5"`
	Timeout    time.Duration `envconfig:"TIMEOUT" default:"10s"`
}

// ----------------------------------------------------
// ================ Prompts ================
// PromptConfig is loaded from the prompt file (yaml or toml), not from the environment
type PromptConfig struct {
	Persona       string `yaml:"persona" toml:"persona"`
	Ask           string `yaml:"ask" toml:"ask"`
	Extract       string `yaml:"extract" toml:"extract"`
	Summary       string `yaml:"summary" toml:"summary"`
	MetaSummary   string `yaml:"meta_summary" toml:"meta_summary"`
	Clarification string `yaml:"clarification" toml:"clarification"`
	NoMemory      string `yaml:"no_memory" toml:"no_memory"`
}
