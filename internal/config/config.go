package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	App       AppConfig
	Database  DatabaseConfig
	Keys      APIKeys
	Ai        AIConfig
	Models    ModelConfig
	Routing   RoutingConfig
	Retrieval RetrievalConfig
	Search    SearchConfig
	Research  ResearchConfig
	Memory    MemoryConfig
}

type AppConfig struct {
	Port               string
	BaseURL            string
	ClientURL          string
	Environment        string
	LogFilePath        string
	CorsAllowedOrigins string
	NatsURL            string
	RedisURL           string
	DiagnosticsLogPath string
}

type DatabaseConfig struct {
	Connection string
}

type APIKeys struct {
	GoogleGemini string
	Jina         string
	Tavily       string
	Serper       string
	OpenAI       string
}

type AIConfig struct {
	EmbeddingProvider string // "gemini", "ollama" or "jina"
	OllamaBaseURL     string
	OllamaModel       string
	LLMProvider       string // "ollama" or "openai"
	LLMBaseURL        string
}

// ModelConfig names the concrete model ids behind each capability tier.
type ModelConfig struct {
	FastModel         string
	StandardModel     string
	HighModel         string
	DeepResearchModel string
}

// RoutingConfig tunes the classifier and the relevance filter.
type RoutingConfig struct {
	ClassifierDisabled  bool
	ClassifierTimeout   time.Duration
	BreakerCooldown     time.Duration
	RejectThreshold     int
	RelevanceTimeout    time.Duration
	RelevanceThreshold  int
	DirectAnswerMinimum float64
}

// RetrievalConfig tunes the knowledge-base engine.
type RetrievalConfig struct {
	CorpusCandidates    []string
	ChunkSize           int
	ChunkOverlap        int
	TopK                int
	MinMatchRatio       float64
	SimilarityThreshold float64
	// PersistentStore serves retrieval from the pgvector-backed chunk
	// table instead of the per-process in-memory index.
	PersistentStore bool
}

// SearchConfig tunes the web-search provider chain.
type SearchConfig struct {
	PrimaryCooldown time.Duration
	MaxQueryWords   int
}

// ResearchConfig tunes the research agent.
type ResearchConfig struct {
	MaxQueries         int
	MaxResultsPerQuery int
	CaptureTopN        int
	IndexResults       bool
}

// MemoryConfig tunes conversational memory.
type MemoryConfig struct {
	TokenBudget    int
	SummarizeEvery int
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, usage system environment")
	}

	return &Config{
		App: AppConfig{
			Port:               getEnv("APP_PORT", "3000"),
			BaseURL:            getEnv("APP_BASE_URL", "http://localhost:3000"),
			ClientURL:          getEnv("CLIENT_URL", "http://localhost:5173"),
			Environment:        getEnv("GO_ENV", "development"),
			LogFilePath:        getEnv("LOG_FILE_PATH", "app.log.csv"),
			CorsAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173"),
			NatsURL:            getEnv("NATS_URL", "nats://localhost:4222"),
			RedisURL:           getEnv("REDIS_URL", "redis://localhost:6379"),
			DiagnosticsLogPath: getEnv("DIAGNOSTICS_LOG_PATH", "logs/diagnostics.jsonl"),
		},
		Database: DatabaseConfig{
			Connection: getEnv("DB_CONNECTION_STRING", ""),
		},
		Keys: APIKeys{
			GoogleGemini: getEnv("GOOGLE_GEMINI_API_KEY", ""),
			Jina:         getEnv("JINA_API_KEY", ""),
			Tavily:       getEnv("TAVILY_API_KEY", ""),
			Serper:       getEnv("SERPER_API_KEY", ""),
			OpenAI:       getEnv("OPENAI_API_KEY", ""),
		},
		Ai: AIConfig{
			EmbeddingProvider: getEnv("EMBEDDING_PROVIDER", "gemini"),
			OllamaBaseURL:     getEnv("OLLAMA_BASE_URL", "http://localhost:11434"),
			OllamaModel:       getEnv("OLLAMA_EMBEDDING_MODEL", "nomic-embed-text"),
			LLMProvider:       getEnv("LLM_PROVIDER", "ollama"),
			LLMBaseURL:        getEnv("LLM_BASE_URL", ""),
		},
		Models: ModelConfig{
			FastModel:         getEnv("MODEL_FAST", "llama3"),
			StandardModel:     getEnv("MODEL_STANDARD", "qwen2.5"),
			HighModel:         getEnv("MODEL_HIGH", "qwen2.5:32b"),
			DeepResearchModel: getEnv("MODEL_DEEP_RESEARCH", "qwen2.5:32b"),
		},
		Routing: RoutingConfig{
			ClassifierDisabled:  getEnvAsBool("CLASSIFIER_DISABLED", false),
			ClassifierTimeout:   getEnvAsDuration("CLASSIFIER_TIMEOUT", 1200*time.Millisecond),
			BreakerCooldown:     getEnvAsDuration("CLASSIFIER_BREAKER_COOLDOWN", 5*time.Minute),
			RejectThreshold:     getEnvAsInt("REJECT_CONFIDENCE_THRESHOLD", 85),
			RelevanceTimeout:    getEnvAsDuration("RELEVANCE_TIMEOUT", 1200*time.Millisecond),
			RelevanceThreshold:  getEnvAsInt("RELEVANCE_HIGH_THRESHOLD", 85),
			DirectAnswerMinimum: getEnvAsFloat("DIRECT_ANSWER_MIN_CONFIDENCE", 0.70),
		},
		Retrieval: RetrievalConfig{
			CorpusCandidates:    getEnvAsList("CORPUS_CANDIDATES", "data/knowledge_base.md,data/faq.md"),
			ChunkSize:           getEnvAsInt("RAG_CHUNK_SIZE", 1500),
			ChunkOverlap:        getEnvAsInt("RAG_CHUNK_OVERLAP", 200),
			TopK:                getEnvAsInt("RAG_TOP_K", 5),
			MinMatchRatio:       getEnvAsFloat("RAG_MIN_MATCH_RATIO", 0.3),
			SimilarityThreshold: getEnvAsFloat("RAG_SIMILARITY_THRESHOLD", 0.35),
			PersistentStore:     getEnvAsBool("RAG_PERSISTENT_STORE", false),
		},
		Search: SearchConfig{
			PrimaryCooldown: getEnvAsDuration("SEARCH_PRIMARY_COOLDOWN", 2*time.Minute),
			MaxQueryWords:   getEnvAsInt("SEARCH_MAX_QUERY_WORDS", 12),
		},
		Research: ResearchConfig{
			MaxQueries:         getEnvAsInt("RESEARCH_MAX_QUERIES", 8),
			MaxResultsPerQuery: getEnvAsInt("RESEARCH_MAX_RESULTS_PER_QUERY", 5),
			CaptureTopN:        getEnvAsInt("RESEARCH_CAPTURE_TOP_N", 2),
			IndexResults:       getEnvAsBool("RESEARCH_INDEX_RESULTS", false),
		},
		Memory: MemoryConfig{
			TokenBudget:    getEnvAsInt("MEMORY_TOKEN_BUDGET", 2000),
			SummarizeEvery: getEnvAsInt("MEMORY_SUMMARIZE_EVERY", 6),
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

func getEnvAsFloat(key string, fallback float64) float64 {
	strValue := getEnv(key, "")
	if value, err := strconv.ParseFloat(strValue, 64); err == nil {
		return value
	}
	return fallback
}

func getEnvAsBool(key string, fallback bool) bool {
	strValue := getEnv(key, "")
	if value, err := strconv.ParseBool(strValue); err == nil {
		return value
	}
	return fallback
}

func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	strValue := getEnv(key, "")
	if value, err := time.ParseDuration(strValue); err == nil {
		return value
	}
	return fallback
}

func getEnvAsList(key, fallback string) []string {
	raw := getEnv(key, fallback)
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
