package config

import (
	"log"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config stores the application configuration. Loaded once at startup and
// passed into each coordinator at construction; there is no mutable global.
type Config struct {
	// HTTP server
	ServerAddr string

	// Database
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string

	// Redis
	RedisHost     string
	RedisPort     string
	RedisPassword string
	RedisDB       int

	// MinIO object storage for fetched audio payloads
	MinioEndpoint  string
	MinioAccessKey string
	MinioSecretKey string
	MinioBucket    string
	MinioRegion    string
	MinioUseSSL    bool

	// Hunter (ingestion)
	FeedURL                string
	DownloadDir            string
	MaxConcurrentDownloads int
	FetchTimeout           time.Duration
	HunterBatchSize        int

	// Librarian (enrichment)
	LLMAPIBaseURL      string
	LLMAPIKey          string
	LLMModel           string
	EmbeddingURL       string
	EmbeddingModel     string
	EmbeddingDimension int
	LibrarianBatchSize int

	// Logging
	LogLevel  string
	LogOutput string
}

// getEnv gets an environment variable or returns a default value.
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

// getEnvInt gets an environment variable as int or returns a default value.
func getEnvInt(key string, fallback int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return fallback
}

// getEnvBool gets an environment variable as bool or returns a default value.
func getEnvBool(key string, fallback bool) bool {
	if value, exists := os.LookupEnv(key); exists {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return fallback
}

// Load loads configuration from environment variables (via .env file) or defaults.
func Load() *Config {
	// godotenv.Load() will not override existing env vars.
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on existing environment variables and defaults.")
	}

	return &Config{
		ServerAddr: getEnv("SERVER_ADDR", ":8080"),

		DBHost:     getEnv("DB_HOST", "127.0.0.1"),
		DBPort:     getEnv("DB_PORT", "3306"),
		DBUser:     getEnv("DB_USER", "root"),
		DBPassword: os.Getenv("DB_PASSWORD"),
		DBName:     getEnv("DB_NAME", "cortexfm"),

		RedisHost:     getEnv("REDIS_HOST", "127.0.0.1"),
		RedisPort:     getEnv("REDIS_PORT", "6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("REDIS_DB", 0),

		MinioEndpoint:  getEnv("MINIO_ENDPOINT", "127.0.0.1:9000"),
		MinioAccessKey: getEnv("MINIO_ACCESS_KEY", "minioadmin"),
		MinioSecretKey: os.Getenv("MINIO_SECRET_KEY"),
		MinioBucket:    getEnv("MINIO_BUCKET", "cortexfm-audio"),
		MinioRegion:    getEnv("MINIO_REGION", "us-east-1"),
		MinioUseSSL:    getEnvBool("MINIO_USE_SSL", false),

		FeedURL:                getEnv("HUNTER_FEED_URL", "https://archive.org/services/collection-rss.php?collection=audio"),
		DownloadDir:            getEnv("HUNTER_DOWNLOAD_DIR", filepath.Join(os.TempDir(), "hunter_downloads")),
		MaxConcurrentDownloads: getEnvInt("HUNTER_MAX_CONCURRENT_DOWNLOADS", 3),
		FetchTimeout:           time.Duration(getEnvInt("HUNTER_TIMEOUT_SECONDS", 30)) * time.Second,
		HunterBatchSize:        getEnvInt("HUNTER_BATCH_SIZE", 10),

		LLMAPIBaseURL:      getEnv("LLM_API_BASE_URL", "https://api.groq.com/openai/v1"),
		LLMAPIKey:          os.Getenv("LLM_API_KEY"),
		LLMModel:           getEnv("LLM_MODEL", "llama3-70b-8192"),
		EmbeddingURL:       getEnv("EMBEDDING_SERVICE_URL", "http://127.0.0.1:8000"),
		EmbeddingModel:     getEnv("EMBEDDING_MODEL_VERSION", "all-MiniLM-L6-v2"),
		EmbeddingDimension: getEnvInt("EMBEDDING_DIMENSION", 384),
		LibrarianBatchSize: getEnvInt("LIBRARIAN_BATCH_SIZE", 10),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogOutput: getEnv("LOG_OUTPUT", ""),
	}
}
