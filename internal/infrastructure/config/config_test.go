package config_test

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/remaimber-it/quizgrader/internal/apperror"
	"github.com/remaimber-it/quizgrader/internal/infrastructure/config"
)

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir()) // no .env here
	for _, k := range []string{"SERVER_ADDRESS", "QUESTION_COUNT", "TYPING_SPEED_THRESHOLD", "LLM_TIMEOUT", "STORAGE_BACKEND", "GRADER_STRATEGY", "ALLOWED_ORIGINS"} {
		t.Setenv(k, "")
	}

	cfg := config.Load()

	if cfg.ServerAddress != ":8080" {
		t.Errorf("expected default address, got %q", cfg.ServerAddress)
	}
	if cfg.QuestionCount != 6 {
		t.Errorf("expected 6 questions, got %d", cfg.QuestionCount)
	}
	if cfg.TypingSpeedThreshold != 25 {
		t.Errorf("expected threshold 25, got %v", cfg.TypingSpeedThreshold)
	}
	if cfg.LLMTimeout != 120*time.Second {
		t.Errorf("expected 120s LLM timeout, got %v", cfg.LLMTimeout)
	}
	if cfg.StorageBackend != config.BackendSQLite {
		t.Errorf("expected sqlite backend, got %q", cfg.StorageBackend)
	}
	if cfg.AllowedOrigins != nil {
		t.Errorf("expected nil origins, got %v", cfg.AllowedOrigins)
	}
}

func TestLoad_FromEnvironment(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("QUESTION_COUNT", "4")
	t.Setenv("TYPING_SPEED_THRESHOLD", "300")
	t.Setenv("LLM_TIMEOUT", "30s")
	t.Setenv("LLM_JSON_MODE", "true")
	t.Setenv("ALLOWED_ORIGINS", "http://a.test, ,http://b.test")
	t.Setenv("GRADER_STRATEGY", "local")

	cfg := config.Load()

	if cfg.QuestionCount != 4 || cfg.TypingSpeedThreshold != 300 {
		t.Errorf("unexpected grading settings: %d, %v", cfg.QuestionCount, cfg.TypingSpeedThreshold)
	}
	if cfg.LLMTimeout != 30*time.Second || !cfg.LLMJSONMode {
		t.Errorf("unexpected LLM settings: %v, %v", cfg.LLMTimeout, cfg.LLMJSONMode)
	}
	if len(cfg.AllowedOrigins) != 2 || cfg.AllowedOrigins[1] != "http://b.test" {
		t.Errorf("unexpected origins %v", cfg.AllowedOrigins)
	}
	if cfg.GraderStrategy != "local" {
		t.Errorf("expected local strategy, got %q", cfg.GraderStrategy)
	}
}

func TestLoad_NegativeTimeoutFailsValidation(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("GRADER_STRATEGY", "local")
	t.Setenv("LLM_TIMEOUT", "-5s")

	cfg := config.Load()

	if cfg.LLMTimeout != -5*time.Second {
		t.Fatalf("expected parsed negative timeout, got %v", cfg.LLMTimeout)
	}
	if err := cfg.Validate(); !errors.Is(err, apperror.ErrConfiguration) {
		t.Errorf("expected configuration error, got %v", err)
	}
}

func TestLoad_InvalidNumbersFallBack(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("QUESTION_COUNT", "six")
	t.Setenv("LLM_TIMEOUT", "soon")

	cfg := config.Load()

	if cfg.QuestionCount != 6 || cfg.LLMTimeout != 120*time.Second {
		t.Errorf("expected defaults, got %d and %v", cfg.QuestionCount, cfg.LLMTimeout)
	}
}

func validLocal() *config.Config {
	return &config.Config{
		GraderStrategy:       "local",
		QuestionCount:        6,
		TypingSpeedThreshold: 25,
		SessionTTL:           time.Hour,
		MaxSessions:          100,
		LLMTimeout:           time.Minute,
		ShutdownTimeout:      10 * time.Second,
		StorageBackend:       config.BackendSQLite,
		SQLitePath:           "test.db",
	}
}

func TestValidate_Valid(t *testing.T) {
	if err := validLocal().Validate(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}

	cfg := validLocal()
	cfg.GraderStrategy = "delegated"
	cfg.LLMURL = "http://localhost:1234"
	cfg.LLMModel = "qwen3-8b"
	if err := cfg.Validate(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestValidate_MissingIdentifiers(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*config.Config)
		want   string
	}{
		{"delegated without url", func(c *config.Config) { c.GraderStrategy = "delegated"; c.LLMModel = "m" }, "LLM_URL"},
		{"delegated without model", func(c *config.Config) { c.GraderStrategy = "delegated"; c.LLMURL = "u" }, "LLM_MODEL"},
		{"unknown strategy", func(c *config.Config) { c.GraderStrategy = "magic" }, "GRADER_STRATEGY"},
		{"xlsx without questions", func(c *config.Config) { c.StorageBackend = config.BackendXLSX; c.RubricXLSX = "r.xlsx" }, "QUESTIONS_XLSX"},
		{"xlsx without rubric", func(c *config.Config) { c.StorageBackend = config.BackendXLSX; c.QuestionsXLSX = "q.xlsx" }, "RUBRIC_XLSX"},
		{"sqlite without path", func(c *config.Config) { c.SQLitePath = "" }, "SQLITE_PATH"},
		{"unknown backend", func(c *config.Config) { c.StorageBackend = "gsheets" }, "STORAGE_BACKEND"},
		{"zero questions", func(c *config.Config) { c.QuestionCount = 0 }, "QUESTION_COUNT"},
		{"zero threshold", func(c *config.Config) { c.TypingSpeedThreshold = 0 }, "TYPING_SPEED_THRESHOLD"},
		{"negative llm timeout", func(c *config.Config) { c.LLMTimeout = -5 * time.Second }, "LLM_TIMEOUT"},
		{"zero llm timeout", func(c *config.Config) { c.LLMTimeout = 0 }, "LLM_TIMEOUT"},
		{"zero shutdown timeout", func(c *config.Config) { c.ShutdownTimeout = 0 }, "SHUTDOWN_TIMEOUT"},
		{"zero session ttl", func(c *config.Config) { c.SessionTTL = 0 }, "SESSION_TTL"},
		{"zero max sessions", func(c *config.Config) { c.MaxSessions = 0 }, "MAX_SESSIONS"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validLocal()
			tt.modify(cfg)

			err := cfg.Validate()
			if !errors.Is(err, apperror.ErrConfiguration) {
				t.Fatalf("expected configuration error, got %v", err)
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("expected error to mention %s, got %v", tt.want, err)
			}
		})
	}
}
