package config

import (
	"os"

	"github.com/joho/godotenv"
)

type Config struct {
	// Server
	Port string
	Env  string

	// Gemini AI. The API key is resolved from GEMINI_API_KEY with
	// GOOGLE_AI_API_KEY as a fallback. A missing key is not fatal here:
	// the generation service reports a configuration error on first use.
	GeminiAPIKey string
	GeminiModel  string

	// Storage
	StorageBackend string
	DatabaseURL    string
	RedisURL       string

	// Frontend
	FrontendURL string
}

func Load() *Config {
	// Load .env file if it exists
	godotenv.Load()

	return &Config{
		Port:           getEnvOrDefault("PORT", "8080"),
		Env:            getEnvOrDefault("ENV", "development"),
		GeminiAPIKey:   getEnvWithFallback("GEMINI_API_KEY", "GOOGLE_AI_API_KEY"),
		GeminiModel:    getEnvOrDefault("GEMINI_MODEL", "gemini-2.5-flash"),
		StorageBackend: getEnvOrDefault("STORAGE_BACKEND", "memory"),
		DatabaseURL:    getEnvOrDefault("DATABASE_URL", ""),
		RedisURL:       getEnvOrDefault("REDIS_URL", ""),
		FrontendURL:    getEnvOrDefault("FRONTEND_URL", "http://localhost:5173"),
	}
}

func getEnvOrDefault(key, defaultVal string) string {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	return val
}

func getEnvWithFallback(key, fallbackKey string) string {
	val := os.Getenv(key)
	if val == "" {
		return os.Getenv(fallbackKey)
	}
	return val
}
