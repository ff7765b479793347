package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	App      AppConfig
	Database DatabaseConfig
	Keys     APIKeys
	Ai       AIConfig
	Policy   PolicyConfig
}

type AppConfig struct {
	Port               string
	BaseURL            string
	Environment        string
	LogFilePath        string
	CorsAllowedOrigins string
	NatsURL            string
	RedisURL           string
	IndexTopicName     string
}

type DatabaseConfig struct {
	Connection string
}

type APIKeys struct {
	GoogleGemini string
	Groq         string
	HuggingFace  string
}

type AIConfig struct {
	EmbeddingProvider string // "gemini" or "ollama"
	OllamaBaseURL     string
	OllamaModel       string

	// Generation provider for final answers
	LLMProvider string // "groq", "huggingface", "ollama"
	LLMModel    string

	// Router providers (primary with secondary fallback)
	RouterPrimaryProvider   string
	RouterPrimaryModel      string
	RouterSecondaryProvider string
	RouterSecondaryModel    string
}

// PolicyConfig holds the tunable pipeline constants. Defaults mirror the
// observed production values; none of them is a hard invariant.
type PolicyConfig struct {
	DailyQuota          int
	HistoryWindow       int
	RetrievalMaxRetries int
	RetrievalRetryDelay time.Duration
	RetrievalTopK       int
	ContextBudgetChars  int
	MaxFileSizeBytes    int64
	MaxTextChars        int
	MinTextChars        int
	ChunkSize           int
	ChunkOverlap        int
	SanitizeMaxChars    int
	AnswerMaxTokens     int
	RateLimitPerMinute  int
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, using system environment")
	}

	return &Config{
		App: AppConfig{
			Port:               getEnv("APP_PORT", "3000"),
			BaseURL:            getEnv("APP_BASE_URL", "http://localhost:3000"),
			Environment:        getEnv("GO_ENV", "development"),
			LogFilePath:        getEnv("LOG_FILE_PATH", "app.log"),
			CorsAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173"),
			NatsURL:            getEnv("NATS_URL", "nats://localhost:4222"),
			RedisURL:           getEnv("REDIS_URL", "redis://localhost:6379"),
			IndexTopicName:     getEnv("INDEX_DOCUMENT_TOPIC_NAME", "INDEX_DOCUMENT"),
		},
		Database: DatabaseConfig{
			Connection: getEnv("DB_CONNECTION_STRING", ""),
		},
		Keys: APIKeys{
			GoogleGemini: getEnv("GOOGLE_GEMINI_API_KEY", ""),
			Groq:         getEnv("GROQ_API_KEY", ""),
			HuggingFace:  getEnv("HF_API_KEY", ""),
		},
		Ai: AIConfig{
			EmbeddingProvider: getEnv("EMBEDDING_PROVIDER", "gemini"),
			OllamaBaseURL:     getEnv("OLLAMA_BASE_URL", "http://localhost:11434"),
			OllamaModel:       getEnv("OLLAMA_EMBEDDING_MODEL", "nomic-embed-text"),

			LLMProvider: getEnv("LLM_PROVIDER", "groq"),
			LLMModel:    getEnv("LLM_MODEL", "llama-3.3-70b-versatile"),

			RouterPrimaryProvider:   getEnv("ROUTER_PRIMARY_PROVIDER", "groq"),
			RouterPrimaryModel:      getEnv("ROUTER_PRIMARY_MODEL", "llama-3.3-70b-versatile"),
			RouterSecondaryProvider: getEnv("ROUTER_SECONDARY_PROVIDER", "huggingface"),
			RouterSecondaryModel:    getEnv("ROUTER_SECONDARY_MODEL", "meta-llama/Llama-3.3-70B-Instruct"),
		},
		Policy: PolicyConfig{
			DailyQuota:          getEnvAsInt("DAILY_QUOTA", 50),
			HistoryWindow:       getEnvAsInt("HISTORY_WINDOW", 5),
			RetrievalMaxRetries: getEnvAsInt("RETRIEVAL_MAX_RETRIES", 5),
			RetrievalRetryDelay: time.Duration(getEnvAsInt("RETRIEVAL_RETRY_DELAY_SECONDS", 2)) * time.Second,
			RetrievalTopK:       getEnvAsInt("RETRIEVAL_TOP_K", 5),
			ContextBudgetChars:  getEnvAsInt("CONTEXT_BUDGET_CHARS", 30000),
			MaxFileSizeBytes:    int64(getEnvAsInt("MAX_FILE_SIZE_BYTES", 2*1024*1024)),
			MaxTextChars:        getEnvAsInt("MAX_TEXT_CHARS", 50000),
			MinTextChars:        getEnvAsInt("MIN_TEXT_CHARS", 50),
			ChunkSize:           getEnvAsInt("CHUNK_SIZE", 1500),
			ChunkOverlap:        getEnvAsInt("CHUNK_OVERLAP", 200),
			SanitizeMaxChars:    getEnvAsInt("SANITIZE_MAX_CHARS", 2000),
			AnswerMaxTokens:     getEnvAsInt("ANSWER_MAX_TOKENS", 1024),
			RateLimitPerMinute:  getEnvAsInt("RATE_LIMIT_PER_MINUTE", 5),
		},
	}
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	strValue := getEnv(key, "")
	if value, err := strconv.Atoi(strValue); err == nil {
		return value
	}
	return fallback
}
