package config

import (
	"os"
	"time"
)

type Config struct {
	// NATS configuration
	NatsURL             string
	NatsTurnSubject     string
	NatsClearSubject    string
	NatsSessionsSubject string
	NatsTimeout         time.Duration

	// Classifier configuration
	ClassifierBackend string // "gemini" or "groq"
	ClassifierTimeout time.Duration
	GeminiAPIKey      string
	GeminiModel       string
	GroqAPIKey        string
	GroqModel         string
	GroqBaseURL       string

	// Session store configuration
	RedisURL   string // empty means in-process store
	SessionTTL time.Duration

	// Inventory database
	SQLitePath string

	// Service configuration
	ServiceName string
}

func Load() *Config {
	return &Config{
		// NATS settings
		NatsURL:             getEnv("NATS_URL", "nats://localhost:4222"),
		NatsTurnSubject:     getEnv("NATS_TURN_SUBJECT", "dialogue.turn"),
		NatsClearSubject:    getEnv("NATS_CLEAR_SUBJECT", "dialogue.session.clear"),
		NatsSessionsSubject: getEnv("NATS_SESSIONS_SUBJECT", "dialogue.session.list"),
		NatsTimeout:         getDurationEnv("NATS_TIMEOUT", 30*time.Second),

		// Classifier settings
		ClassifierBackend: getEnv("CLASSIFIER_BACKEND", "gemini"),
		ClassifierTimeout: getDurationEnv("CLASSIFIER_TIMEOUT", 20*time.Second),
		GeminiAPIKey:      getEnv("GEMINI_API_KEY", ""),
		GeminiModel:       getEnv("GEMINI_MODEL", "gemini-1.5-flash"),
		GroqAPIKey:        getEnv("GROQ_API_KEY", ""),
		GroqModel:         getEnv("GROQ_MODEL", "llama-3.1-70b-versatile"),
		GroqBaseURL:       getEnv("GROQ_BASE_URL", "https://api.groq.com/openai/v1"),

		// Session settings
		RedisURL:   getEnv("REDIS_URL", ""),
		SessionTTL: getDurationEnv("SESSION_TTL", 30*time.Minute),

		// Inventory settings
		SQLitePath: getEnv("SQLITE_PATH", "data/pharmachat.db"),

		// Service settings
		ServiceName: getEnv("SERVICE_NAME", "pharmachat-dialogue"),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
