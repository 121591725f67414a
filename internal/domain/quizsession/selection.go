package quizsession

import (
	"fmt"
	"math/rand/v2"

	"github.com/remaimber-it/quizgrader/internal/apperror"
	"github.com/remaimber-it/quizgrader/internal/domain/questionbank"
)

// SelectQuestions draws count distinct questions from pool uniformly at
// random, without replacement. A nil rng uses the global source.
func SelectQuestions(pool []questionbank.Question, count int, rng *rand.Rand) ([]questionbank.Question, error) {
	if count <= 0 {
		return nil, apperror.New(apperror.KindConfiguration,
			fmt.Sprintf("question count must be positive, got %d", count))
	}
	if len(pool) < count {
		return nil, apperror.New(apperror.KindInsufficientData,
			fmt.Sprintf("question pool has %d questions, %d required", len(pool), count))
	}

	var perm []int
	if rng != nil {
		perm = rng.Perm(len(pool))
	} else {
		perm = rand.Perm(len(pool))
	}

	selected := make([]questionbank.Question, count)
	for i, idx := range perm[:count] {
		selected[i] = pool[idx]
	}
	return selected, nil
}
