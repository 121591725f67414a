package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/remaimber-it/quizgrader/internal/apperror"
)

const (
	BackendSQLite = "sqlite"
	BackendXLSX   = "xlsx"
)

type Config struct {
	ServerAddress   string
	ShutdownTimeout time.Duration
	LogLevel        string
	LogFormat       string
	// Empty means all origins are allowed.
	AllowedOrigins []string

	// Grading
	GraderStrategy       string  // "local" or "delegated"
	QuestionCount        int     // questions per session
	TypingSpeedThreshold float64 // chars/sec
	SessionTTL           time.Duration
	MaxSessions          int

	// LLM grading (delegated strategy only)
	LLMURL         string // OpenAI-compatible endpoint, e.g. "http://localhost:1234"
	LLMModel       string // model name, e.g. "qwen3-8b"
	LLMAPIKey      string
	LLMTimeout     time.Duration
	LLMTemperature float64
	LLMJSONMode    bool

	// Question, rubric and results tables
	StorageBackend string // "sqlite" or "xlsx"
	SQLitePath     string
	QuestionsXLSX  string
	RubricXLSX     string
	ResultsXLSX    string // optional; results are not recorded when empty
}

// Load reads configuration from the environment, after loading a .env file
// if one exists.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		ServerAddress:   getenvDefault("SERVER_ADDRESS", ":8080"),
		ShutdownTimeout: getDuration("SHUTDOWN_TIMEOUT", 10*time.Second),
		LogLevel:        getenvDefault("LOG_LEVEL", "info"),
		LogFormat:       getenvDefault("LOG_FORMAT", "json"),
		AllowedOrigins:  parseList(os.Getenv("ALLOWED_ORIGINS")),

		GraderStrategy:       getenvDefault("GRADER_STRATEGY", "delegated"),
		QuestionCount:        getInt("QUESTION_COUNT", 6),
		TypingSpeedThreshold: getFloat("TYPING_SPEED_THRESHOLD", 25),
		SessionTTL:           getDuration("SESSION_TTL", 6*time.Hour),
		MaxSessions:          getInt("MAX_SESSIONS", 10_000),

		LLMURL:         os.Getenv("LLM_URL"),
		LLMModel:       os.Getenv("LLM_MODEL"),
		LLMAPIKey:      os.Getenv("LLM_API_KEY"),
		LLMTimeout:     getDuration("LLM_TIMEOUT", 120*time.Second),
		LLMTemperature: getFloat("LLM_TEMPERATURE", 0),
		LLMJSONMode:    getBool("LLM_JSON_MODE", false),

		StorageBackend: getenvDefault("STORAGE_BACKEND", BackendSQLite),
		SQLitePath:     getenvDefault("SQLITE_PATH", "quizgrader.db"),
		QuestionsXLSX:  os.Getenv("QUESTIONS_XLSX"),
		RubricXLSX:     os.Getenv("RUBRIC_XLSX"),
		ResultsXLSX:    os.Getenv("RESULTS_XLSX"),
	}
}

// Validate reports every missing or invalid setting at once as a
// configuration error.
func (c *Config) Validate() error {
	var problems []error

	switch c.GraderStrategy {
	case "local":
	case "delegated":
		if c.LLMURL == "" {
			problems = append(problems, errors.New("LLM_URL is required for delegated grading"))
		}
		if c.LLMModel == "" {
			problems = append(problems, errors.New("LLM_MODEL is required for delegated grading"))
		}
	default:
		problems = append(problems, fmt.Errorf("GRADER_STRATEGY=%q must be local or delegated", c.GraderStrategy))
	}

	switch c.StorageBackend {
	case BackendSQLite:
		if c.SQLitePath == "" {
			problems = append(problems, errors.New("SQLITE_PATH is required for the sqlite backend"))
		}
	case BackendXLSX:
		if c.QuestionsXLSX == "" {
			problems = append(problems, errors.New("QUESTIONS_XLSX is required for the xlsx backend"))
		}
		if c.RubricXLSX == "" {
			problems = append(problems, errors.New("RUBRIC_XLSX is required for the xlsx backend"))
		}
	default:
		problems = append(problems, fmt.Errorf("STORAGE_BACKEND=%q must be sqlite or xlsx", c.StorageBackend))
	}

	if c.QuestionCount <= 0 {
		problems = append(problems, fmt.Errorf("QUESTION_COUNT=%d must be positive", c.QuestionCount))
	}
	if c.TypingSpeedThreshold <= 0 {
		problems = append(problems, fmt.Errorf("TYPING_SPEED_THRESHOLD=%v must be positive", c.TypingSpeedThreshold))
	}
	if c.LLMTimeout <= 0 {
		problems = append(problems, fmt.Errorf("LLM_TIMEOUT=%s must be positive", c.LLMTimeout))
	}
	if c.ShutdownTimeout <= 0 {
		problems = append(problems, fmt.Errorf("SHUTDOWN_TIMEOUT=%s must be positive", c.ShutdownTimeout))
	}
	if c.SessionTTL <= 0 {
		problems = append(problems, fmt.Errorf("SESSION_TTL=%s must be positive", c.SessionTTL))
	}
	if c.MaxSessions <= 0 {
		problems = append(problems, fmt.Errorf("MAX_SESSIONS=%d must be positive", c.MaxSessions))
	}

	if len(problems) == 0 {
		return nil
	}
	return apperror.Wrap(apperror.KindConfiguration, "invalid configuration", errors.Join(problems...))
}

func getenvDefault(k, fallback string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return fallback
}

func getInt(k string, fallback int) int {
	n, err := strconv.Atoi(os.Getenv(k))
	if err != nil {
		return fallback
	}
	return n
}

func getFloat(k string, fallback float64) float64 {
	f, err := strconv.ParseFloat(os.Getenv(k), 64)
	if err != nil {
		return fallback
	}
	return f
}

func getBool(k string, fallback bool) bool {
	b, err := strconv.ParseBool(os.Getenv(k))
	if err != nil {
		return fallback
	}
	return b
}

func getDuration(k string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(os.Getenv(k))
	if err != nil {
		return fallback
	}
	return d
}

// parseList splits a comma-separated value into trimmed, non-empty parts.
func parseList(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
