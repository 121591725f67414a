package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/remaimber-it/quizgrader/internal/api"
	"github.com/remaimber-it/quizgrader/internal/domain/quizsession"
	"github.com/remaimber-it/quizgrader/internal/grader"
	"github.com/remaimber-it/quizgrader/internal/infrastructure/config"
	"github.com/remaimber-it/quizgrader/internal/logger"
	"github.com/remaimber-it/quizgrader/internal/service"
)

func main() {
	cfg := config.Load()
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)

	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}

	// ── Dependencies ────────────────────────────────────────────────
	src, archive, closeSources, err := openSources(cfg)
	if err != nil {
		log.Fatal().Err(err).Str("backend", cfg.StorageBackend).Msg("failed to open tables")
	}
	defer closeSources()

	g, err := newGrader(cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to build grader")
	}

	opts := []service.Option{
		service.WithSessionTTL(cfg.SessionTTL),
		service.WithMaxSessions(cfg.MaxSessions),
	}
	if archive != nil {
		opts = append(opts, service.WithArchive(archive))
	}
	gradingSvc := service.NewGradingService(src, g, quizsession.Config{
		QuestionCount:   cfg.QuestionCount,
		TypingThreshold: cfg.TypingSpeedThreshold,
	}, log, opts...)

	handler := api.NewHandler(gradingSvc, log)

	// Grading may take as long as the LLM timeout; leave room for the rest
	// of the request.
	requestTimeout := cfg.LLMTimeout + 15*time.Second

	// ── Server ──────────────────────────────────────────────────────
	server := &http.Server{
		Addr: cfg.ServerAddress,
		Handler: api.NewRouter(handler, api.RouterConfig{
			AllowedOrigins: cfg.AllowedOrigins,
			RequestTimeout: requestTimeout,
		}, log),
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      requestTimeout + 5*time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()

		log.Info().Msg("shutting down server")
		if err := server.Shutdown(ctx); err != nil {
			log.Error().Err(err).Msg("server forced to shutdown")
		}
	}()

	log.Info().
		Str("address", cfg.ServerAddress).
		Str("strategy", cfg.GraderStrategy).
		Str("backend", cfg.StorageBackend).
		Int("question_count", cfg.QuestionCount).
		Msg("starting server")
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Error().Err(err).Msg("server failed to start")
		closeSources()
		os.Exit(1)
	}
}

func newGrader(cfg *config.Config, log zerolog.Logger) (grader.Grader, error) {
	strategy, err := grader.ParseStrategy(cfg.GraderStrategy)
	if err != nil {
		return nil, err
	}

	var gen grader.TextGenerator
	if strategy == grader.StrategyDelegated {
		gen = grader.NewChatClient(grader.ChatConfig{
			URL:         cfg.LLMURL,
			Model:       cfg.LLMModel,
			APIKey:      cfg.LLMAPIKey,
			Temperature: cfg.LLMTemperature,
			Timeout:     cfg.LLMTimeout,
			JSONMode:    cfg.LLMJSONMode,
		})
	}
	return grader.New(strategy, gen, log)
}
