package common

import (
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration
type Config struct {
	Server ServerConfig
	Store  StoreConfig
	OCR    OCRConfig
	Vision VisionConfig
	Match  MatchConfig
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Addr            string
	RequestTimeout  time.Duration
	MaxUploadBytes  int64
	ShutdownTimeout time.Duration
}

// StoreConfig holds the embedded store configuration
type StoreConfig struct {
	Path string
}

// OCRConfig holds OCR-related configuration
type OCRConfig struct {
	Tesseract     string
	TesseractLang string
	TessdataDir   string
	WatchDir      string
}

// VisionConfig holds vision-extraction configuration
type VisionConfig struct {
	Model   string
	APIKey  string
	Timeout time.Duration
}

// MatchConfig holds identity-matching thresholds and backend selection
type MatchConfig struct {
	StrictNames  bool
	FuzzyBackend string // "levenshtein" | "jaccard"
}

// LoadConfig loads configuration from environment variables
func LoadConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:            getEnv("HTTP_ADDR", ":8080"),
			RequestTimeout:  getEnvAsDuration("HTTP_REQUEST_TIMEOUT", 60*time.Second),
			MaxUploadBytes:  getEnvAsInt64("HTTP_MAX_UPLOAD_BYTES", 20<<20),
			ShutdownTimeout: getEnvAsDuration("HTTP_SHUTDOWN_TIMEOUT", 10*time.Second),
		},
		Store: StoreConfig{
			Path: getEnv("STORE_PATH", "./data/docportal.db"),
		},
		OCR: OCRConfig{
			Tesseract:     getEnv("TESSERACT_BIN", "tesseract"),
			TesseractLang: getEnv("TESSERACT_LANG", "eng"),
			TessdataDir:   getEnv("TESSDATA_PREFIX", ""),
			WatchDir:      getEnv("INGEST_WATCH_DIR", ""),
		},
		Vision: VisionConfig{
			Model:   getEnv("GEMINI_MODEL", "gemini-2.0-flash"),
			APIKey:  getEnv("GEMINI_API_KEY", os.Getenv("GOOGLE_API_KEY")),
			Timeout: getEnvAsDuration("GEMINI_TIMEOUT", 45*time.Second),
		},
		Match: MatchConfig{
			StrictNames:  getEnvAsBool("MATCH_STRICT_NAMES", false),
			FuzzyBackend: getEnv("MATCH_FUZZY_BACKEND", "levenshtein"),
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

func getEnvAsInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intVal
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
	if c.Server.Addr == "" {
		return NewAppError("CONFIG_ERROR", "HTTP_ADDR is required", ErrInvalidInput)
	}
	if c.Store.Path == "" {
		return NewAppError("CONFIG_ERROR", "STORE_PATH is required", ErrInvalidInput)
	}
	if c.Match.FuzzyBackend != "levenshtein" && c.Match.FuzzyBackend != "jaccard" {
		return NewAppError("CONFIG_ERROR", "MATCH_FUZZY_BACKEND must be levenshtein or jaccard", ErrInvalidInput)
	}
	return nil
}
