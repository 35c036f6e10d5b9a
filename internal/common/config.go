package common

import (
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration
type Config struct {
	Database   DatabaseConfig
	Server     ServerConfig
	Storage    StorageConfig
	Extraction ExtractionConfig
	LLM        LLMConfig
	OCR        OCRConfig
	Renaming   RenamingConfig
}

// DatabaseConfig holds database-related configuration
type DatabaseConfig struct {
	DSN              string
	MaxConns         int32
	MinConns         int32
	MaxConnLifetime  time.Duration
	MaxConnIdleTime  time.Duration
	DialTimeout      time.Duration
	StatementTimeout time.Duration
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Addr              string
	ReadHeaderTimeout time.Duration
	ReadTimeout       time.Duration
	WriteTimeout      time.Duration
	IdleTimeout       time.Duration
	MaxUploadBytes    int64
	MaxUploads        int64
}

// StorageConfig holds object-storage (S3/MinIO) configuration
type StorageConfig struct {
	Region       string
	Bucket       string
	BaseEndpoint string
	AccessKey    string
	SecretKey    string
	PublicBase   string // base URL for public object access; defaults to endpoint/bucket
	SignedTTL    time.Duration
}

// ExtractionConfig holds extraction-webhook configuration
type ExtractionConfig struct {
	WebhookURL string
	Timeout    time.Duration
}

// LLMConfig holds OpenAI-related configuration
type LLMConfig struct {
	APIKey          string
	BaseURL         string
	RenameModel     string
	DraftModel      string
	Temperature     float32
	RenameTimeout   time.Duration
	DraftTimeout    time.Duration
	RenameMaxTokens int
	DraftMaxTokens  int
}

// OCRConfig holds local OCR configuration
type OCRConfig struct {
	Tesseract     string
	TesseractLang string
	CacheDir      string
}

// RenamingConfig holds sequencer behavior flags
type RenamingConfig struct {
	QueueSize     int
	RenameDelay   time.Duration
	FastBootstrap bool
}

// LoadConfig loads configuration from environment variables
func LoadConfig() *Config {
	return &Config{
		Database: DatabaseConfig{
			DSN:              getEnv("DB_URL", ""),
			MaxConns:         getEnvAsInt32("DB_MAX_CONNS", 20),
			MinConns:         getEnvAsInt32("DB_MIN_CONNS", 5),
			MaxConnLifetime:  getEnvAsDuration("DB_MAX_CONN_LIFETIME", 30*time.Minute),
			MaxConnIdleTime:  getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", 5*time.Minute),
			DialTimeout:      getEnvAsDuration("DB_DIAL_TIMEOUT", 3*time.Second),
			StatementTimeout: getEnvAsDuration("DB_STATEMENT_TIMEOUT", 0),
		},
		Server: ServerConfig{
			Addr:              getEnv("HTTP_ADDR", ":8080"),
			ReadHeaderTimeout: getEnvAsDuration("HTTP_READ_HEADER_TIMEOUT", 5*time.Second),
			ReadTimeout:       getEnvAsDuration("HTTP_READ_TIMEOUT", 2*time.Minute),
			WriteTimeout:      getEnvAsDuration("HTTP_WRITE_TIMEOUT", 2*time.Minute),
			IdleTimeout:       getEnvAsDuration("HTTP_IDLE_TIMEOUT", 2*time.Minute),
			MaxUploadBytes:    getEnvAsInt64("HTTP_MAX_UPLOAD_BYTES", 50<<20),
			MaxUploads:        getEnvAsInt64("HTTP_MAX_UPLOADS", 8),
		},
		Storage: StorageConfig{
			Region:       getEnv("S3_REGION", "us-east-1"),
			Bucket:       getEnv("S3_BUCKET", "documents"),
			BaseEndpoint: getEnv("S3_ENDPOINT", ""),
			AccessKey:    getEnv("S3_ACCESS_KEY", ""),
			SecretKey:    getEnv("S3_SECRET_KEY", ""),
			PublicBase:   getEnv("S3_PUBLIC_BASE", ""),
			SignedTTL:    getEnvAsDuration("S3_SIGNED_TTL", time.Hour),
		},
		Extraction: ExtractionConfig{
			WebhookURL: getEnv("EXTRACTION_WEBHOOK_URL", ""),
			Timeout:    getEnvAsDuration("EXTRACTION_TIMEOUT", 60*time.Second),
		},
		LLM: LLMConfig{
			APIKey:          getEnv("OPENAI_API_KEY", ""),
			BaseURL:         getEnv("OPENAI_BASE_URL", "https://api.openai.com/v1"),
			RenameModel:     getEnv("OPENAI_RENAME_MODEL", "gpt-4o-mini"),
			DraftModel:      getEnv("OPENAI_DRAFT_MODEL", "gpt-4o"),
			Temperature:     getEnvAsFloat32("OPENAI_TEMPERATURE", 0.3),
			RenameTimeout:   getEnvAsDuration("OPENAI_RENAME_TIMEOUT", 30*time.Second),
			DraftTimeout:    getEnvAsDuration("OPENAI_DRAFT_TIMEOUT", 120*time.Second),
			RenameMaxTokens: getEnvAsInt("OPENAI_RENAME_MAX_TOKENS", 100),
			DraftMaxTokens:  getEnvAsInt("OPENAI_DRAFT_MAX_TOKENS", 4000),
		},
		OCR: OCRConfig{
			Tesseract:     getEnv("TESSERACT_BIN", "tesseract"),
			TesseractLang: getEnv("TESSERACT_LANG", "por"),
			CacheDir:      getEnv("OCR_CACHE_DIR", "./tmp"),
		},
		Renaming: RenamingConfig{
			QueueSize:     getEnvAsInt("RENAME_QUEUE_SIZE", 256),
			RenameDelay:   getEnvAsDuration("RENAME_DELAY", time.Second),
			FastBootstrap: getEnvAsBool("RENAME_FAST_BOOTSTRAP", true),
		},
	}
}

// Helper functions for environment variable parsing
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsInt32(key string, defaultValue int32) int32 {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.ParseInt(value, 10, 32); err == nil {
			return int32(intVal)
		}
	}
	return defaultValue
}

func getEnvAsInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsFloat32(key string, defaultValue float32) float32 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 32); err == nil {
			return float32(floatVal)
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// Validate validates the loaded configuration
func (c *Config) Validate() error {
	if c.Database.DSN == "" {
		return NewAppError("CONFIG_ERROR", "DB_URL is required", ErrInvalidInput)
	}
	if c.LLM.APIKey == "" {
		return NewAppError("CONFIG_ERROR", "OPENAI_API_KEY is required", ErrInvalidInput)
	}
	if c.Extraction.WebhookURL == "" {
		return NewAppError("CONFIG_ERROR", "EXTRACTION_WEBHOOK_URL is required", ErrInvalidInput)
	}
	if c.Server.Addr == "" {
		return NewAppError("CONFIG_ERROR", "HTTP_ADDR is required", ErrInvalidInput)
	}
	return nil
}
