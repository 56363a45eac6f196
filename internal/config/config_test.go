package config

import (
	"os"
	"testing"
)

func TestNewFromEnv(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		t.Setenv("GROQ_API_KEY", "groq_key")
		t.Setenv("GEMINI_API_KEY", "gemini_key")

		cfg, err := NewFromEnv()
		if err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}
		if cfg.GroqAPIKey != "groq_key" {
			t.Errorf("Expected GroqAPIKey to be 'groq_key', got '%s'", cfg.GroqAPIKey)
		}
		if cfg.GeminiAPIKey != "gemini_key" {
			t.Errorf("Expected GeminiAPIKey to be 'gemini_key', got '%s'", cfg.GeminiAPIKey)
		}
	})

	t.Run("Defaults", func(t *testing.T) {
		t.Setenv("GROQ_API_KEY", "groq_key")
		t.Setenv("GEMINI_API_KEY", "gemini_key")
		os.Unsetenv("CALORIE_TOLERANCE")
		os.Unsetenv("MAX_CALORIE_CORRECTIONS")

		cfg, err := NewFromEnv()
		if err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}
		if cfg.CalorieTolerance != 25 {
			t.Errorf("Expected default tolerance 25, got %d", cfg.CalorieTolerance)
		}
		if cfg.MaxCalorieCorrections != 5 {
			t.Errorf("Expected default correction ceiling 5, got %d", cfg.MaxCalorieCorrections)
		}
		if cfg.GroqModel != "llama-3.1-8b-instant" {
			t.Errorf("Unexpected default Groq model '%s'", cfg.GroqModel)
		}
		if cfg.DatabasePath != "data/nutrition.db" {
			t.Errorf("Unexpected default database path '%s'", cfg.DatabasePath)
		}
	})

	t.Run("TuningOverrides", func(t *testing.T) {
		t.Setenv("GROQ_API_KEY", "groq_key")
		t.Setenv("GEMINI_API_KEY", "gemini_key")
		t.Setenv("CALORIE_TOLERANCE", "50")
		t.Setenv("MAX_CALORIE_CORRECTIONS", "3")

		cfg, err := NewFromEnv()
		if err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}
		if cfg.CalorieTolerance != 50 {
			t.Errorf("Expected tolerance 50, got %d", cfg.CalorieTolerance)
		}
		if cfg.MaxCalorieCorrections != 3 {
			t.Errorf("Expected correction ceiling 3, got %d", cfg.MaxCalorieCorrections)
		}
	})

	t.Run("MissingGroqAPIKey", func(t *testing.T) {
		t.Setenv("GEMINI_API_KEY", "gemini_key")
		os.Unsetenv("GROQ_API_KEY")

		_, err := NewFromEnv()
		if err == nil {
			t.Fatal("Expected an error for missing GROQ_API_KEY, got nil")
		}
		expectedError := "GROQ_API_KEY environment variable not set"
		if err.Error() != expectedError {
			t.Errorf("Expected error '%s', got '%s'", expectedError, err.Error())
		}
	})

	t.Run("MissingGeminiAPIKey", func(t *testing.T) {
		t.Setenv("GROQ_API_KEY", "groq_key")
		os.Unsetenv("GEMINI_API_KEY")

		_, err := NewFromEnv()
		if err == nil {
			t.Fatal("Expected an error for missing GEMINI_API_KEY, got nil")
		}
		expectedError := "GEMINI_API_KEY environment variable not set"
		if err.Error() != expectedError {
			t.Errorf("Expected error '%s', got '%s'", expectedError, err.Error())
		}
	})
}
