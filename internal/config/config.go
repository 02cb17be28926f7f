package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds application configuration.
type Config struct {
	Port     string
	Env      string
	LogLevel string

	// Calendar feed
	CalendarFeedURL         string
	CalendarRefreshInterval time.Duration

	// Pricing oracle
	PricingBaseURL        string
	PricingAPIKey         string
	PricingTimeout        time.Duration
	PriceCacheTTL         time.Duration
	PricingMaxConcurrency int

	// Availability policy
	SearchHorizonDays  int
	MonthCandidateCap  int
	NarrowingThreshold int

	// Conversation state
	SessionTTL    time.Duration
	RedisAddr     string
	RedisPassword string
	RedisTLS      bool

	// Intent classification
	OpenAIAPIKey string
	OpenAIModel  string

	CORSAllowedOrigins []string
}

// Load reads configuration from environment variables.
func Load() *Config {
	return &Config{
		Port:     getEnv("PORT", "8080"),
		Env:      getEnv("ENV", "development"),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		CalendarFeedURL:         getEnv("CALENDAR_FEED_URL", ""),
		CalendarRefreshInterval: getEnvAsDuration("CALENDAR_REFRESH_INTERVAL", 30*time.Minute),

		PricingBaseURL:        getEnv("PRICING_BASE_URL", ""),
		PricingAPIKey:         getEnv("PRICING_API_KEY", ""),
		PricingTimeout:        getEnvAsDuration("PRICING_TIMEOUT", 2*time.Second),
		PriceCacheTTL:         getEnvAsDuration("PRICE_CACHE_TTL", time.Minute),
		PricingMaxConcurrency: getEnvAsInt("PRICING_MAX_CONCURRENCY", 20),

		SearchHorizonDays:  getEnvAsInt("SEARCH_HORIZON_DAYS", 90),
		MonthCandidateCap:  getEnvAsInt("MONTH_CANDIDATE_CAP", 31),
		NarrowingThreshold: getEnvAsInt("NARROWING_THRESHOLD", 6),

		SessionTTL:    getEnvAsDuration("SESSION_TTL", 30*time.Minute),
		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisTLS:      getEnvAsBool("REDIS_TLS", false),

		OpenAIAPIKey: getEnv("OPENAI_API_KEY", ""),
		OpenAIModel:  getEnv("OPENAI_MODEL", "gpt-4o-mini"),

		CORSAllowedOrigins: getEnvAsSlice("CORS_ALLOWED_ORIGINS", nil),
	}
}

// getEnv retrieves an environment variable or returns a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt retrieves an environment variable as an integer or returns a default value.
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsBool retrieves an environment variable as a boolean or returns a default value.
func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsSlice(key string, defaultValue []string) []string {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	parts := strings.Split(valueStr, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
