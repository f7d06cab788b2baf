package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds all service configuration loaded from environment variables.
type Config struct {
	Port     string
	Version  string
	LogLevel string

	RedisAddr     string
	RedisPassword string
	CacheTTL      time.Duration

	MinioEndpoint  string
	MinioAccessKey string
	MinioSecretKey string
	MinioBucket    string
	MinioUseSSL    bool
	PublicBaseURL  string
	RetentionDays  int

	GoogleCloudProject  string
	GoogleCloudLocation string
	VisionModel         string

	PerplexityAPIKey  string
	PerplexityBaseURL string
	PerplexityModel   string

	DefaultFallbackImage string
}

func Load() *Config {
	return &Config{
		Port:     getenv("PORT", "8001"),
		Version:  getenv("APP_VERSION", "1.0.0"),
		LogLevel: getenv("LOG_LEVEL", "info"),

		RedisAddr:     getenv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: getenv("REDIS_PASSWORD", ""),
		CacheTTL:      time.Duration(getenvInt("CACHE_TTL_DAYS", 7)) * 24 * time.Hour,

		MinioEndpoint:  getenv("MINIO_ENDPOINT", "localhost:9000"),
		MinioAccessKey: getenv("MINIO_ACCESS_KEY", ""),
		MinioSecretKey: getenv("MINIO_SECRET_KEY", ""),
		MinioBucket:    getenv("MINIO_BUCKET", "processed-images"),
		MinioUseSSL:    getenv("MINIO_USE_SSL", "false") == "true",
		PublicBaseURL:  getenv("PUBLIC_URL", "https://find-image.simple-flow.co"),
		RetentionDays:  getenvInt("IMAGE_RETENTION_DAYS", 30),

		GoogleCloudProject:  getenv("GOOGLE_CLOUD_PROJECT", ""),
		GoogleCloudLocation: getenv("GOOGLE_CLOUD_LOCATION", "us-central1"),
		VisionModel:         getenv("VISION_MODEL", "gemini-2.5-flash"),

		PerplexityAPIKey:  getenv("PERPLEXITY_API_KEY", ""),
		PerplexityBaseURL: getenv("PERPLEXITY_BASE_URL", ""),
		PerplexityModel:   getenv("PERPLEXITY_MODEL", "sonar"),

		DefaultFallbackImage: getenv("DEFAULT_FALLBACK_IMAGE",
			"https://via.placeholder.com/1280x720/1a1a1a/ffffff?text=No+Image+Available"),
	}
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getenvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}
