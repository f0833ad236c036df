// Package config handles application configuration loading and management.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application.
type Config struct {
	Server      ServerConfig
	Cache       CacheConfig
	DocDB       DocDBConfig
	VectorStore VectorStoreConfig
	Provider    ProviderConfig
	Moderation  ModerationConfig
	Pipeline    PipelineConfig
	Log         LogConfig
}

// ServerConfig holds server-related configuration.
type ServerConfig struct {
	Host    string
	Port    int
	GinMode string
}

// Address returns the server address in host:port format.
func (c ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// CacheConfig holds cache-related configuration.
type CacheConfig struct {
	Type     string
	Host     string
	Port     string
	Password string
	DB       int
	TTL      time.Duration
}

// DocDBConfig holds document database configuration.
type DocDBConfig struct {
	Type     string
	URI      string
	Database string
	// EncryptionKey encrypts message content at rest. Base64 or raw
	// 32-byte AES key; empty disables encryption.
	EncryptionKey string
}

// VectorStoreConfig holds vector store configuration.
type VectorStoreConfig struct {
	Type   string
	URL    string
	APIKey string
	Class  string
}

// ProviderConfig holds language-model provider configuration.
// The provider is selected once per deployment, not per request.
type ProviderConfig struct {
	Type           string
	OpenAIKey      string
	OpenAIModel    string
	AnthropicKey   string
	AnthropicModel string
	EmbeddingModel string
	Temperature    float64
	MaxTokens      int
	Timeout        time.Duration
}

// ModerationConfig holds content moderation configuration.
type ModerationConfig struct {
	// StrictMode makes input moderation fail closed when the classifier
	// is unreachable. Output moderation always fails closed.
	StrictMode bool
	Thresholds map[string]float64
}

// PipelineConfig holds per-message pipeline configuration.
type PipelineConfig struct {
	MaxMessageLength    int
	ContextTokenBudget  int
	ContextCacheTTL     time.Duration
	IndexWorkers        int
	IndexQueueSize      int
	ProfileRefreshEvery time.Duration
	ProfileMinInterval  time.Duration
	Region              string
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level  string
	Format string
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	// Load .env file if it exists (ignore error if not found)
	_ = godotenv.Load()

	cfg := &Config{
		Server: ServerConfig{
			Host:    getEnv("SERVER_HOST", "0.0.0.0"),
			Port:    getEnvAsInt("SERVER_PORT", 8080),
			GinMode: getEnv("GIN_MODE", "debug"),
		},
		Cache: CacheConfig{
			Type:     getEnv("CACHE_TYPE", "redis"),
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
			TTL:      time.Duration(getEnvAsInt("CACHE_TTL_SECONDS", 180)) * time.Second,
		},
		DocDB: DocDBConfig{
			Type:          getEnv("DOCDB_TYPE", "mongodb"),
			URI:           getEnv("MONGODB_URI", "mongodb://localhost:27017"),
			Database:      getEnv("MONGODB_DATABASE", "haven"),
			EncryptionKey: getEnv("MESSAGE_ENCRYPTION_KEY", ""),
		},
		VectorStore: VectorStoreConfig{
			Type:   getEnv("VECTORSTORE_TYPE", "weaviate"),
			URL:    getEnv("WEAVIATE_URL", "http://localhost:8091"),
			APIKey: getEnv("WEAVIATE_API_KEY", ""),
			Class:  getEnv("WEAVIATE_CLASS", "ConversationEmbedding"),
		},
		Provider: ProviderConfig{
			Type:           getEnv("PROVIDER_TYPE", "openai"),
			OpenAIKey:      getEnv("OPENAI_API_KEY", ""),
			OpenAIModel:    getEnv("OPENAI_MODEL", "gpt-4o-mini"),
			AnthropicKey:   getEnv("ANTHROPIC_API_KEY", ""),
			AnthropicModel: getEnv("ANTHROPIC_MODEL", "claude-3-5-sonnet-20241022"),
			EmbeddingModel: getEnv("EMBEDDING_MODEL", "text-embedding-3-small"),
			Temperature:    getEnvAsFloat("PROVIDER_TEMPERATURE", 0.7),
			MaxTokens:      getEnvAsInt("PROVIDER_MAX_TOKENS", 1024),
			Timeout:        time.Duration(getEnvAsInt("PROVIDER_TIMEOUT_SECONDS", 60)) * time.Second,
		},
		Moderation: ModerationConfig{
			StrictMode: getEnvAsBool("MODERATION_STRICT_MODE", false),
			Thresholds: map[string]float64{
				"hate":             getEnvAsFloat("MODERATION_THRESHOLD_HATE", 0.8),
				"harassment":       getEnvAsFloat("MODERATION_THRESHOLD_HARASSMENT", 0.7),
				"self-harm":        getEnvAsFloat("MODERATION_THRESHOLD_SELF_HARM", 0.3),
				"sexual":           getEnvAsFloat("MODERATION_THRESHOLD_SEXUAL", 0.7),
				"sexual/minors":    getEnvAsFloat("MODERATION_THRESHOLD_SEXUAL_MINORS", 0.1),
				"violence":         getEnvAsFloat("MODERATION_THRESHOLD_VIOLENCE", 0.7),
				"violence/graphic": getEnvAsFloat("MODERATION_THRESHOLD_VIOLENCE_GRAPHIC", 0.8),
			},
		},
		Pipeline: PipelineConfig{
			MaxMessageLength:    getEnvAsInt("PIPELINE_MAX_MESSAGE_LENGTH", 4000),
			ContextTokenBudget:  getEnvAsInt("PIPELINE_CONTEXT_TOKEN_BUDGET", 8000),
			ContextCacheTTL:     time.Duration(getEnvAsInt("PIPELINE_CONTEXT_CACHE_TTL_SECONDS", 60)) * time.Second,
			IndexWorkers:        getEnvAsInt("PIPELINE_INDEX_WORKERS", 2),
			IndexQueueSize:      getEnvAsInt("PIPELINE_INDEX_QUEUE_SIZE", 100),
			ProfileRefreshEvery: time.Duration(getEnvAsInt("PIPELINE_PROFILE_REFRESH_MINUTES", 60)) * time.Minute,
			ProfileMinInterval:  time.Duration(getEnvAsInt("PIPELINE_PROFILE_MIN_INTERVAL_HOURS", 24)) * time.Hour,
			Region:              getEnv("PIPELINE_REGION", "US"),
		},
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
	}

	return cfg, nil
}

// getEnv gets an environment variable with a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt gets an environment variable as an integer with a default value.
func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getEnvAsFloat gets an environment variable as a float with a default value.
func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

// getEnvAsBool gets an environment variable as a boolean with a default value.
func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}
