package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/viper"
)

// Config holds all configuration for the retrieval engine and its HTTP
// surface. Scoring constants live here rather than in code: they are the
// reference policy, not hard-coded law, and tests may override them.
type Config struct {
	Log            LogConfig            `mapstructure:"log"`
	Server         ServerConfig         `mapstructure:"server"`
	Database       DatabaseConfig       `mapstructure:"database"`
	Embedding      EmbeddingConfig      `mapstructure:"embedding"`
	CrossEncoder   CrossEncoderConfig   `mapstructure:"cross_encoder"`
	NER            NERConfig            `mapstructure:"ner"`
	Cache          CacheConfig          `mapstructure:"cache"`
	CircuitBreaker CircuitBreakerConfig `mapstructure:"circuit_breaker"`
	Telemetry      TelemetryConfig      `mapstructure:"telemetry"`
	Scoring        ScoringConfig        `mapstructure:"scoring"`
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // text, json
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
	Mode string `mapstructure:"mode"` // gin mode: debug, release, test
}

// DatabaseConfig holds graph database configuration
type DatabaseConfig struct {
	URI            string `mapstructure:"uri"`
	Username       string `mapstructure:"username"`
	Password       string `mapstructure:"password"`
	Database       string `mapstructure:"database"`
	QueryTimeoutMS int    `mapstructure:"query_timeout_ms"`
}

// EmbeddingConfig holds embedding provider configuration
type EmbeddingConfig struct {
	Provider   string `mapstructure:"provider"` // embedeverything, openai
	Model      string `mapstructure:"model"`
	Dimensions int    `mapstructure:"dimensions"`
	APIKey     string `mapstructure:"api_key"`
	BaseURL    string `mapstructure:"base_url"`
}

// CrossEncoderConfig holds cross-encoder configuration
type CrossEncoderConfig struct {
	Provider string `mapstructure:"provider"` // embedeverything, openai, mock
	Model    string `mapstructure:"model"`
	APIKey   string `mapstructure:"api_key"`
	BaseURL  string `mapstructure:"base_url"`
}

// NERConfig holds named-entity extraction configuration
type NERConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	ModelID string `mapstructure:"model_id"` // empty = rust-bert default BERT NER
}

// CacheConfig bounds the injected hydration/document cache.
type CacheConfig struct {
	DocumentCapacity  int `mapstructure:"document_capacity"`
	HydrationCapacity int `mapstructure:"hydration_capacity"`
}

// CircuitBreakerConfig holds configuration for circuit breaking around the
// cross-encoder.
type CircuitBreakerConfig struct {
	Enabled          bool    `mapstructure:"enabled"`
	MaxRequests      uint32  `mapstructure:"max_requests"`
	Interval         int     `mapstructure:"interval"` // in seconds
	Timeout          int     `mapstructure:"timeout"`  // in seconds
	ReadyToTripRatio float64 `mapstructure:"ready_to_trip_ratio"`
}

// TelemetryConfig holds telemetry configuration
type TelemetryConfig struct {
	Enabled     bool   `mapstructure:"enabled"`
	ParquetPath string `mapstructure:"parquet_path"`
}

// ScoringConfig exposes every hand-tuned ranking constant as configuration.
// Defaults reproduce the reference policy bit-for-bit.
type ScoringConfig struct {
	// Hybrid rank-fusion weights; must sum to 1.0.
	VectorWeight   float64 `mapstructure:"vector_weight"`
	GraphWeight    float64 `mapstructure:"graph_weight"`
	FullTextWeight float64 `mapstructure:"full_text_weight"`

	// Hybrid rule boosts.
	ExactMatchBoost float64 `mapstructure:"exact_match_boost"`
	QuestionBoost   float64 `mapstructure:"question_boost"`
	DomainTermBoost float64 `mapstructure:"domain_term_boost"`

	// Reranker composite weights.
	CrossEncoderWeight float64 `mapstructure:"cross_encoder_weight"`
	OriginalWeight     float64 `mapstructure:"original_weight"`
	KeywordWeight      float64 `mapstructure:"keyword_weight"`
	MetadataWeight     float64 `mapstructure:"metadata_weight"`

	// Community blend weight, clamped to [0,1] at use.
	CommunityWeight float64 `mapstructure:"community_weight"`

	// OverfetchFactor multiplies top_k for the internal retrieval pass so
	// the reranker has room to improve on raw order.
	OverfetchFactor int `mapstructure:"overfetch_factor"`
}

// DefaultScoring returns the reference ranking policy.
func DefaultScoring() ScoringConfig {
	return ScoringConfig{
		VectorWeight:       0.5,
		GraphWeight:        0.3,
		FullTextWeight:     0.2,
		ExactMatchBoost:    1.5,
		QuestionBoost:      1.2,
		DomainTermBoost:    0.1,
		CrossEncoderWeight: 0.4,
		OriginalWeight:     0.25,
		KeywordWeight:      0.15,
		MetadataWeight:     0.2,
		CommunityWeight:    0.3,
		OverfetchFactor:    2,
	}
}

// Load loads configuration from file and environment variables
func Load() (*Config, error) {
	setDefaults()

	config := &Config{}
	if err := viper.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	overrideWithEnv(config)

	return config, nil
}

// setDefaults sets default configuration values
func setDefaults() {
	// Log defaults
	viper.SetDefault("log.level", "info")
	viper.SetDefault("log.format", "text")

	// Server defaults
	viper.SetDefault("server.host", "localhost")
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.mode", "debug")

	// Database defaults
	viper.SetDefault("database.uri", "bolt://localhost:7687")
	viper.SetDefault("database.username", "neo4j")
	viper.SetDefault("database.password", "")
	viper.SetDefault("database.database", "neo4j")
	viper.SetDefault("database.query_timeout_ms", 10000)

	// Embedding defaults: local sentence model, 384 dimensions.
	viper.SetDefault("embedding.provider", "embedeverything")
	viper.SetDefault("embedding.model", "all-MiniLM-L6-v2")
	viper.SetDefault("embedding.dimensions", 384)

	// Cross-encoder defaults
	viper.SetDefault("cross_encoder.provider", "embedeverything")
	viper.SetDefault("cross_encoder.model", "BAAI/bge-reranker-base")

	// NER defaults
	viper.SetDefault("ner.enabled", true)
	viper.SetDefault("ner.model_id", "")

	// Cache defaults
	viper.SetDefault("cache.document_capacity", 1024)
	viper.SetDefault("cache.hydration_capacity", 4096)

	// Circuit breaker defaults
	viper.SetDefault("circuit_breaker.enabled", true)
	viper.SetDefault("circuit_breaker.max_requests", 3)
	viper.SetDefault("circuit_breaker.interval", 60)
	viper.SetDefault("circuit_breaker.timeout", 30)
	viper.SetDefault("circuit_breaker.ready_to_trip_ratio", 0.6)

	// Telemetry defaults
	viper.SetDefault("telemetry.enabled", false)
	home, err := os.UserHomeDir()
	if err == nil {
		viper.SetDefault("telemetry.parquet_path", fmt.Sprintf("%s/.bankgraph/telemetry", home))
	}

	// Scoring defaults: the reference ranking policy.
	viper.SetDefault("scoring.vector_weight", 0.5)
	viper.SetDefault("scoring.graph_weight", 0.3)
	viper.SetDefault("scoring.full_text_weight", 0.2)
	viper.SetDefault("scoring.exact_match_boost", 1.5)
	viper.SetDefault("scoring.question_boost", 1.2)
	viper.SetDefault("scoring.domain_term_boost", 0.1)
	viper.SetDefault("scoring.cross_encoder_weight", 0.4)
	viper.SetDefault("scoring.original_weight", 0.25)
	viper.SetDefault("scoring.keyword_weight", 0.15)
	viper.SetDefault("scoring.metadata_weight", 0.2)
	viper.SetDefault("scoring.community_weight", 0.3)
	viper.SetDefault("scoring.overfetch_factor", 2)
}

// overrideWithEnv overrides config with environment variables
func overrideWithEnv(config *Config) {
	if uri := os.Getenv("NEO4J_URI"); uri != "" {
		config.Database.URI = uri
	}
	if user := os.Getenv("NEO4J_USER"); user != "" {
		config.Database.Username = user
	}
	if pass := os.Getenv("NEO4J_PASSWORD"); pass != "" {
		config.Database.Password = pass
	}

	if apiKey := os.Getenv("OPENAI_API_KEY"); apiKey != "" {
		if config.Embedding.Provider == "openai" {
			config.Embedding.APIKey = apiKey
		}
		if config.CrossEncoder.Provider == "openai" {
			config.CrossEncoder.APIKey = apiKey
		}
	}

	if host := os.Getenv("SERVER_HOST"); host != "" {
		config.Server.Host = host
	}
	if port := os.Getenv("SERVER_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Server.Port = p
		}
	}

	if path := os.Getenv("TELEMETRY_PARQUET_PATH"); path != "" {
		config.Telemetry.ParquetPath = path
	}
}
