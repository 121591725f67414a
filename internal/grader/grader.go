package grader

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/remaimber-it/quizgrader/internal/apperror"
	"github.com/remaimber-it/quizgrader/internal/domain/questionbank"
	"github.com/remaimber-it/quizgrader/internal/domain/rubric"
)

// Grader grades a batch of student answers against their model answers.
// Implementations either measure similarity locally or delegate scoring
// to a text-generation service.
type Grader interface {
	// GradeBatch returns one Result per item, in item order, plus the total.
	// On error no partial result is returned.
	GradeBatch(ctx context.Context, items []Item, rub *rubric.Rubric) (Batch, error)
}

// Item pairs a question with the student's answer to it.
type Item struct {
	Question      questionbank.Question
	StudentAnswer string
}

// Result is the grade for a single answer.
type Result struct {
	Score             int
	SimilarityPercent float64
	Description       string
}

// Batch is the grade for a whole submission.
type Batch struct {
	Results []Result
	Total   int
}

// Strategy selects a Grader implementation.
type Strategy string

const (
	StrategyLocal     Strategy = "local"
	StrategyDelegated Strategy = "delegated"
)

func ParseStrategy(s string) (Strategy, error) {
	switch Strategy(s) {
	case StrategyLocal, StrategyDelegated:
		return Strategy(s), nil
	}
	return "", apperror.New(apperror.KindConfiguration,
		fmt.Sprintf("unknown grader strategy %q (want %q or %q)", s, StrategyLocal, StrategyDelegated))
}

// New builds the grader for strategy. gen is only used, and required, by
// the delegated strategy.
func New(strategy Strategy, gen TextGenerator, logger zerolog.Logger) (Grader, error) {
	switch strategy {
	case StrategyLocal:
		return NewRubricGrader(), nil
	case StrategyDelegated:
		if gen == nil {
			return nil, apperror.New(apperror.KindConfiguration, "delegated grading requires a text generator")
		}
		return NewModelGrader(gen, logger), nil
	}
	_, err := ParseStrategy(string(strategy))
	return nil, err
}
