package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all runtime configuration for the extraction pipeline.
type Config struct {
	BigQuery BigQueryConfig
	Gemini   GeminiConfig
	Batch    BatchConfig
	Logger   LoggerConfig
}

type BigQueryConfig struct {
	ProjectID string
	DatasetID string
}

type GeminiConfig struct {
	// APIKey for the Gemini developer API. Left empty, the client falls back
	// to GEMINI_API_KEY / Vertex AI application default credentials.
	APIKey string
	Model  string
}

type BatchConfig struct {
	// DefaultLimit is the batch size used when the caller omits one.
	DefaultLimit int
	// Workers is the number of concurrent in-flight extractions.
	Workers int
	// DocumentTimeout bounds one end-to-end extraction attempt, model call
	// included. Vision calls on large documents can be slow, so this must be
	// enforced independently of the HTTP client's default.
	DocumentTimeout time.Duration
	// FailureCooldown keeps recently failed documents out of selection so a
	// persistently failing document is not hot-looped on every run.
	FailureCooldown time.Duration
}

type LoggerConfig struct {
	Level string
}

// Load reads configuration from a .env file when present, falling back to
// process environment variables (useful for Docker/Cloud Run).
func Load() (*Config, error) {
	envFiles := []string{".env", "../.env", "../../.env"}
	for _, envFile := range envFiles {
		if err := godotenv.Load(envFile); err == nil {
			break
		}
	}

	limit, _ := strconv.Atoi(getEnv("BATCH_DEFAULT_LIMIT", "25"))
	workers, _ := strconv.Atoi(getEnv("BATCH_WORKERS", "4"))
	docTimeout, _ := strconv.Atoi(getEnv("BATCH_DOCUMENT_TIMEOUT_SECONDS", "300"))
	cooldown, _ := strconv.Atoi(getEnv("BATCH_FAILURE_COOLDOWN_MINUTES", "30"))

	return &Config{
		BigQuery: BigQueryConfig{
			ProjectID: getEnv("BIGQUERY_PROJECT_ID", ""),
			DatasetID: getEnv("BIGQUERY_DATASET_ID", "fraudscan"),
		},
		Gemini: GeminiConfig{
			APIKey: getEnv("GEMINI_API_KEY", ""),
			Model:  getEnv("GEMINI_MODEL", "gemini-2.5-flash"),
		},
		Batch: BatchConfig{
			DefaultLimit:    limit,
			Workers:         workers,
			DocumentTimeout: time.Duration(docTimeout) * time.Second,
			FailureCooldown: time.Duration(cooldown) * time.Minute,
		},
		Logger: LoggerConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
	}, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
