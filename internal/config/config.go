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
	Backend  BackendConfig
	Database DatabaseConfig
	SMTP     SMTPConfig
	Keys     APIKeys
	Features FeatureFlags
	Voice    VoiceConfig
}

type AppConfig struct {
	Port               string
	Environment        string
	LogFilePath        string
	CorsAllowedOrigins string
	NatsURL            string
	RedisURL           string
}

// BackendConfig points at the hosted RAG backend. The deployment sleeps
// after inactivity, hence the wakeup tooling in cmd/wakeup.
type BackendConfig struct {
	BaseURL string
}

type DatabaseConfig struct {
	// Driver selects the blob store: "memory", "redis" or "postgres".
	Driver     string
	Connection string
}

type SMTPConfig struct {
	Host       string
	Port       int
	Email      string
	Password   string
	SenderName string
	// FeedbackInbox receives user feedback notifications when set.
	FeedbackInbox string
}

type APIKeys struct {
	GoogleGemini string
}

// FeatureFlags mirror the client-side toggles. All default to enabled.
type FeatureFlags struct {
	VoiceCommands      bool
	GraphVisualization bool
	AdvancedSearch     bool
}

type VoiceConfig struct {
	WakePhrase  string
	SettleDelay time.Duration
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, usage system environment")
	}

	return &Config{
		App: AppConfig{
			Port:               getEnv("APP_PORT", "3000"),
			Environment:        getEnv("GO_ENV", "development"),
			LogFilePath:        getEnv("LOG_FILE_PATH", "app.log"),
			CorsAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173"),
			NatsURL:            getEnv("NATS_URL", ""),
			RedisURL:           getEnv("REDIS_URL", "redis://localhost:6379"),
		},
		Backend: BackendConfig{
			BaseURL: getEnv("RAG_BASE_URL", "https://cellexis-wlgs.onrender.com"),
		},
		Database: DatabaseConfig{
			Driver:     getEnv("STORE_DRIVER", "memory"),
			Connection: getEnv("DB_CONNECTION_STRING", ""),
		},
		SMTP: SMTPConfig{
			Host:          getEnv("SMTP_HOST", ""),
			Port:          getEnvAsInt("SMTP_PORT", 587),
			Email:         getEnv("SMTP_EMAIL", ""),
			Password:      getEnv("SMTP_PASSWORD", ""),
			SenderName:    getEnv("SMTP_SENDER_NAME", "Cellexis"),
			FeedbackInbox: getEnv("FEEDBACK_INBOX", ""),
		},
		Keys: APIKeys{
			GoogleGemini: getEnv("GOOGLE_GEMINI_API_KEY", ""),
		},
		Features: FeatureFlags{
			VoiceCommands:      getEnvAsBool("FEATURE_VOICE_COMMANDS", true),
			GraphVisualization: getEnvAsBool("FEATURE_GRAPH_VIZ", true),
			AdvancedSearch:     getEnvAsBool("FEATURE_ADVANCED_SEARCH", true),
		},
		Voice: VoiceConfig{
			WakePhrase:  getEnv("VOICE_WAKE_PHRASE", "hey cellexis"),
			SettleDelay: getEnvAsDuration("VOICE_SETTLE_DELAY", 1200*time.Millisecond),
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
