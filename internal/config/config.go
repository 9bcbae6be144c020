package config

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Port  string `envconfig:"PORT" default:"8080"`
	Debug bool   `envconfig:"DEBUG" default:"false"`

	DatabaseURL string `envconfig:"DATABASE_URL" required:"true"`

	// DataDir holds the ingest manifest, the download cache for remote
	// documents, and the user profile file.
	DataDir string `envconfig:"DATA_DIR" default:"data"`

	// DocumentSources is a comma-separated list of document references
	// (local paths, http(s) URLs, or s3://bucket/key) ingested by the
	// batch pipeline and the background re-ingest worker.
	DocumentSources  []string      `envconfig:"DOCUMENT_SOURCES"`
	ReingestInterval time.Duration `envconfig:"REINGEST_INTERVAL" default:"1h"`

	OpenAIAPIKey   string `envconfig:"OPENAI_API_KEY"`
	EmbeddingModel string `envconfig:"EMBEDDING_MODEL"`
	ChatModel      string `envconfig:"CHAT_MODEL"`

	OpenWeatherAPIKey    string `envconfig:"OPENWEATHER_API_KEY"`
	VisualCrossingAPIKey string `envconfig:"VISUAL_CROSSING_API_KEY"`
	GeoapifyAPIKey       string `envconfig:"GEOAPIFY_API_KEY"`

	FPODataPath string `envconfig:"FPO_DATA_PATH"`

	S3Endpoint  string `envconfig:"S3_ENDPOINT"`
	S3AccessKey string `envconfig:"S3_ACCESS_KEY_ID"`
	S3SecretKey string `envconfig:"S3_SECRET_ACCESS_KEY"`
	S3Region    string `envconfig:"S3_REGION" default:"us-east-1"`

	SentryDSN   string `envconfig:"SENTRY_DSN"`
	Environment string `envconfig:"ENVIRONMENT" default:"development"`

	// Retrieval tuning
	RetrievalK        int     `envconfig:"RETRIEVAL_K" default:"5"`
	RetrievalMinScore float64 `envconfig:"RETRIEVAL_MIN_SCORE" default:"0.25"`

	// Router strategy: "keyword" (deterministic default) or "llm".
	RouterStrategy string `envconfig:"ROUTER_STRATEGY" default:"keyword"`
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("AGROVISOR", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process config: %w", err)
	}

	return &cfg, nil
}

func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	return cfg
}

func (c *Config) HasOpenAI() bool {
	return c.OpenAIAPIKey != ""
}

func (c *Config) HasWeather() bool {
	return c.OpenWeatherAPIKey != "" || c.VisualCrossingAPIKey != ""
}

func (c *Config) HasGeoapify() bool {
	return c.GeoapifyAPIKey != ""
}

func (c *Config) HasS3() bool {
	return c.S3Endpoint != "" && c.S3AccessKey != "" && c.S3SecretKey != ""
}

func (c *Config) HasSentry() bool {
	return c.SentryDSN != ""
}

// UseLLMRouter reports whether the LLM-assisted router strategy is both
// selected and usable.
func (c *Config) UseLLMRouter() bool {
	return strings.EqualFold(c.RouterStrategy, "llm") && c.HasOpenAI()
}
