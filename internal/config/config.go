package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds the configuration for the application.
type Config struct {
	GroqAPIKey   string
	GroqModel    string
	GeminiAPIKey string
	GeminiModel  string

	DatabasePath string

	// Calorie-correction loop tuning. The loop stops once the extracted
	// calories are within Tolerance kcal of the target, or after
	// MaxCorrections corrective generation calls.
	CalorieTolerance      int
	MaxCalorieCorrections int

	// Telegram Config (optional for CLI, required for the bot)
	TelegramBotToken string
	AdminTelegramID  int64

	// Session token signing
	SessionSecret   string
	SessionTTLHours int

	LogLevel  string
	LogFormat string
}

// NewFromEnv creates a new Config object from environment variables.
// A .env file in the working directory is loaded first if present.
func NewFromEnv() (*Config, error) {
	_ = godotenv.Load()

	groqAPIKey := os.Getenv("GROQ_API_KEY")
	if groqAPIKey == "" {
		return nil, fmt.Errorf("GROQ_API_KEY environment variable not set")
	}

	geminiAPIKey := os.Getenv("GEMINI_API_KEY")
	if geminiAPIKey == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY environment variable not set")
	}

	var adminTelegramID int64
	if raw := os.Getenv("ADMIN_TELEGRAM_ID"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid ADMIN_TELEGRAM_ID %q: %w", raw, err)
		}
		adminTelegramID = id
	}

	return &Config{
		GroqAPIKey:            groqAPIKey,
		GroqModel:             getEnvOrDefault("GROQ_MODEL", "llama-3.1-8b-instant"),
		GeminiAPIKey:          geminiAPIKey,
		GeminiModel:           getEnvOrDefault("GEMINI_MODEL", "gemini-2.5-flash"),
		DatabasePath:          getEnvOrDefault("DATABASE_PATH", "data/nutrition.db"),
		CalorieTolerance:      getEnvInt("CALORIE_TOLERANCE", 25),
		MaxCalorieCorrections: getEnvInt("MAX_CALORIE_CORRECTIONS", 5),
		TelegramBotToken:      os.Getenv("TELEGRAM_BOT_TOKEN"),
		AdminTelegramID:       adminTelegramID,
		SessionSecret:         os.Getenv("SESSION_SECRET"),
		SessionTTLHours:       getEnvInt("SESSION_TTL_HOURS", 24),
		LogLevel:              getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:             getEnvOrDefault("LOG_FORMAT", "json"),
	}, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return defaultValue
	}
	return v
}
