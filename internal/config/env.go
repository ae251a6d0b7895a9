package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	DatabaseURL  string
	JWTSecret    string
	AwsAccessKey string
	AwsSecretKey string
	AwsRegion    string
	BucketName   string
	OpenAIAPIKey string
	GeminiAPIKey string
	EmbedModel   string
	DefaultModel string
	Port         string
	LogLevel     string
	LogJSON      bool

	// Prompt/ingestion caps. ContextMaxChars bounds the knowledge block
	// injected into the system prompt; SnippetMaxChars caps each stored
	// record at ingestion time.
	ContextMaxChars  int
	ContextMaxItems  int
	SnippetMaxChars  int
	HistoryMaxTurns  int
	IngestionWorkers int
}

// LoadConfig loads the environment variables and returns the config.
func LoadConfig() *Config {

	_ = godotenv.Load()

	cfg := &Config{
		DatabaseURL:  getEnv("DATABASE_URL", ""),
		JWTSecret:    getEnv("JWT_SECRET", ""),
		AwsAccessKey: getEnv("AWS_ACCESS_KEY", ""),
		AwsSecretKey: getEnv("AWS_SECRET_KEY", ""),
		AwsRegion:    getEnv("AWS_REGION", "us-east-2"),
		BucketName:   getEnv("BUCKET_NAME", "smartifyai-uploads"),
		OpenAIAPIKey: getEnv("OPENAI_API_KEY", ""),
		GeminiAPIKey: getEnv("GEMINI_API_KEY", ""),
		EmbedModel:   getEnv("EMBED_MODEL", "text-embedding-004"),
		DefaultModel: getEnv("DEFAULT_MODEL", "gpt-4o-mini"),
		Port:         getEnv("PORT", "8080"),
		LogLevel:     getEnv("LOG_LEVEL", "info"),
		LogJSON:      getEnvBool("LOG_JSON", false),

		ContextMaxChars:  getEnvInt("CONTEXT_MAX_CHARS", 8000),
		ContextMaxItems:  getEnvInt("CONTEXT_MAX_ITEMS", 12),
		SnippetMaxChars:  getEnvInt("SNIPPET_MAX_CHARS", 12000),
		HistoryMaxTurns:  getEnvInt("HISTORY_MAX_TURNS", 30),
		IngestionWorkers: getEnvInt("INGESTION_WORKERS", 2),
	}

	if cfg.DatabaseURL == "" {
		log.Fatal("DATABASE_URL not set")
	}
	if cfg.JWTSecret == "" {
		log.Fatal("JWT_SECRET not set")
	}

	return cfg
}

// Helper to read environment variables with a default fallback
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvInt(key string, def int) int {
	v := getEnv(key, "")
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Printf("WARN: %s=%q not an int, using default %d", key, v, def)
		return def
	}
	return n
}

func getEnvBool(key string, def bool) bool {
	v := getEnv(key, "")
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}
