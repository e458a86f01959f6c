package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Storage backends.
const (
	StorageMemory = "memory"
	StorageFile   = "file"
	StorageMySQL  = "mysql"
)

// AI providers.
const (
	AIGemini = "gemini"
	AIStub   = "stub"
)

// Config holds all configuration for the GreenMap service
type Config struct {
	// Server configuration
	Port           string
	AllowedOrigins []string

	// Logging
	LogLevel  string
	LogFormat string

	// Snapshot storage
	StorageBackend string
	DataDir        string

	// Database configuration
	DBHost         string
	DBPort         string
	DBUser         string
	DBPassword     string
	DBName         string
	DBMaxOpenConns int
	DBMaxIdleConns int
	DBPingMaxWait  time.Duration

	// Generative AI
	AIProvider   string
	GeminiAPIKey string
	GeminiModel  string

	// Geocoding
	NominatimURL       string
	GeocoderUserAgent  string
	GeocodeCacheTTL    time.Duration
	GeocodeMinInterval time.Duration

	// Mock identity
	CurrentUserName  string
	CurrentUserEmail string

	// Report events, disabled when AMQPURL is empty
	AMQPURL        string
	AMQPExchange   string
	AMQPRoutingKey string
}

// Load loads configuration from environment variables
func Load() *Config {
	cfg := &Config{
		Port:           getEnv("PORT", "8080"),
		AllowedOrigins: getStringSliceEnv("ALLOWED_ORIGINS", "*"),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "text"),

		StorageBackend: strings.ToLower(getEnv("STORAGE_BACKEND", StorageFile)),
		DataDir:        getEnv("DATA_DIR", "./data"),

		DBHost:         getEnv("DB_HOST", "localhost"),
		DBPort:         getEnv("DB_PORT", "3306"),
		DBUser:         getEnv("DB_USER", "server"),
		DBPassword:     getEnv("DB_PASSWORD", ""),
		DBName:         getEnv("DB_NAME", "greenmap"),
		DBMaxOpenConns: getIntEnv("DB_MAX_OPEN_CONNS", 10),
		DBMaxIdleConns: getIntEnv("DB_MAX_IDLE_CONNS", 5),
		DBPingMaxWait:  getDurationEnv("DB_PING_MAX_WAIT", 2*time.Minute),

		GeminiAPIKey: getEnv("GEMINI_API_KEY", ""),
		GeminiModel:  getEnv("GEMINI_MODEL", "gemini-2.5-flash"),

		NominatimURL:       getEnv("NOMINATIM_URL", "https://nominatim.openstreetmap.org"),
		GeocoderUserAgent:  getEnv("GEOCODER_USER_AGENT", "GreenMap Application v1.0"),
		GeocodeCacheTTL:    getDurationEnv("GEOCODE_CACHE_TTL", 24*time.Hour),
		GeocodeMinInterval: getDurationEnv("GEOCODE_MIN_INTERVAL", time.Second),

		CurrentUserName:  getEnv("CURRENT_USER_NAME", "Alex Green"),
		CurrentUserEmail: getEnv("CURRENT_USER_EMAIL", "alex.green@example.com"),

		AMQPURL:        getEnv("AMQP_URL", ""),
		AMQPExchange:   getEnv("AMQP_EXCHANGE", "greenmap"),
		AMQPRoutingKey: getEnv("AMQP_ROUTING_KEY", "report.created"),
	}

	// Without a key the stub is the only provider that can answer.
	defaultProvider := AIGemini
	if cfg.GeminiAPIKey == "" {
		defaultProvider = AIStub
	}
	cfg.AIProvider = strings.ToLower(getEnv("AI_PROVIDER", defaultProvider))

	return cfg
}

// Validate reports configuration that would make the service unusable.
func (c *Config) Validate() error {
	switch c.StorageBackend {
	case StorageMemory, StorageFile, StorageMySQL:
	default:
		return fmt.Errorf("unknown STORAGE_BACKEND %q", c.StorageBackend)
	}
	switch c.AIProvider {
	case AIStub:
	case AIGemini:
		if c.GeminiAPIKey == "" {
			return fmt.Errorf("AI_PROVIDER=gemini requires GEMINI_API_KEY")
		}
	default:
		return fmt.Errorf("unknown AI_PROVIDER %q", c.AIProvider)
	}
	return nil
}

// getStringSliceEnv gets a comma-separated string environment variable and returns it as a string slice
func getStringSliceEnv(key, defaultValue string) []string {
	value := getEnv(key, defaultValue)
	var out []string
	for _, v := range strings.Split(value, ",") {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

// getEnv gets an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getDurationEnv gets a duration environment variable or returns a default value
func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// getIntEnv gets an integer environment variable or returns a default value
func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}
