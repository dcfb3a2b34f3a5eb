package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds every externally provided setting. It is loaded once in main
// and handed to the container; packages never read the environment directly.
type Config struct {
	Port        string
	DatabaseDSN string
	JWTSecret   string
	CORSOrigins []string

	GCSBucket          string
	GCSCredentialsFile string

	RedisAddr     string
	RedisPassword string

	ParserBaseURL string
	ParserAPIKey  string

	EmbeddingBaseURL string
	EmbeddingAPIKey  string
	EmbeddingModel   string

	GeminiModel string

	ChunkSize           int
	ChunkOverlap        int
	SimilarityThreshold float64
	MaxSearchResults    int
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Port:        getEnv("PORT", "8080"),
		DatabaseDSN: os.Getenv("DATABASE_DSN"),
		JWTSecret:   os.Getenv("JWT_SECRET"),
		CORSOrigins: splitList(os.Getenv("CORS_ORIGINS")),

		GCSBucket:          os.Getenv("GCS_BUCKET_NAME"),
		GCSCredentialsFile: os.Getenv("GCS_CREDENTIALS_FILE"),

		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),

		ParserBaseURL: getEnv("PARSER_BASE_URL", "https://api.cloud.llamaindex.ai"),
		ParserAPIKey:  os.Getenv("PARSER_API_KEY"),

		EmbeddingBaseURL: getEnv("EMBEDDING_BASE_URL", "https://api.openai.com/v1"),
		EmbeddingAPIKey:  os.Getenv("EMBEDDING_API_KEY"),
		EmbeddingModel:   getEnv("EMBEDDING_MODEL", "text-embedding-3-small"),

		GeminiModel: getEnv("GEMINI_MODEL", "gemini-2.0-flash"),

		ChunkSize:           getEnvInt("CHUNK_SIZE", 1000),
		ChunkOverlap:        getEnvInt("CHUNK_OVERLAP", 200),
		SimilarityThreshold: getEnvFloat("SIMILARITY_THRESHOLD", 0.7),
		MaxSearchResults:    getEnvInt("MAX_SEARCH_RESULTS", 5),
	}

	if cfg.DatabaseDSN == "" {
		return nil, fmt.Errorf("DATABASE_DSN is required")
	}
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}
	if cfg.ChunkOverlap < 0 || cfg.ChunkOverlap >= cfg.ChunkSize {
		return nil, fmt.Errorf("CHUNK_OVERLAP must be in [0, CHUNK_SIZE)")
	}

	return cfg, nil
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvFloat(key string, fallback float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	parsed, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fallback
	}
	return parsed
}
