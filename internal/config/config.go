package config

import (
	"fmt"
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Port  string `envconfig:"PORT" default:"8080"`
	Debug bool   `envconfig:"DEBUG" default:"false"`

	DatabaseURL string `envconfig:"DATABASE_URL" required:"true"`

	OpenAIAPIKey   string `envconfig:"OPENAI_API_KEY"`
	EmbeddingModel string `envconfig:"EMBEDDING_MODEL"`
	ChatModel      string `envconfig:"CHAT_MODEL"`

	// Matching policy: "fixed", "strict-on-severe", or "lenient-on-severe".
	// Severity never alters similarity ranking, only the acceptance threshold.
	MatchPolicy            string  `envconfig:"MATCH_POLICY" default:"fixed"`
	MatchThreshold         float64 `envconfig:"MATCH_THRESHOLD" default:"0.30"`
	MatchSevereSeverity    float64 `envconfig:"MATCH_SEVERE_SEVERITY" default:"7.0"`
	MatchSevereAdjustment  float64 `envconfig:"MATCH_SEVERE_ADJUSTMENT" default:"0.10"`
	MatchCandidates        int     `envconfig:"MATCH_CANDIDATES" default:"5"`
	MatchBatchSize         int     `envconfig:"MATCH_BATCH_SIZE" default:"10"`
	MatchPollInterval      time.Duration `envconfig:"MATCH_POLL_INTERVAL" default:"15s"`

	AnswerTopK        int           `envconfig:"ANSWER_TOP_K" default:"6"`
	ContextMaxChars   int           `envconfig:"CONTEXT_MAX_CHARS" default:"3000"`
	GenerationTimeout time.Duration `envconfig:"GENERATION_TIMEOUT" default:"30s"`

	// Reference document ingest from S3 (optional)
	S3Endpoint  string `envconfig:"S3_ENDPOINT"`
	S3AccessKey string `envconfig:"S3_ACCESS_KEY_ID"`
	S3SecretKey string `envconfig:"S3_SECRET_ACCESS_KEY"`
	S3Bucket    string `envconfig:"S3_BUCKET" default:"pulse-reference-docs"`
	S3Region    string `envconfig:"S3_REGION" default:"us-east-1"`
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("PULSE", &cfg); err != nil {
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

func (c *Config) HasS3() bool {
	return c.S3Endpoint != "" && c.S3AccessKey != "" && c.S3SecretKey != ""
}

func (c *Config) HasOpenAI() bool {
	return c.OpenAIAPIKey != ""
}
