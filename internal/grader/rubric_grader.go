package grader

import (
	"context"

	"github.com/remaimber-it/quizgrader/internal/domain/rubric"
	"github.com/remaimber-it/quizgrader/internal/similarity"
)

// RubricGrader grades locally: the similarity ratio between the student
// answer and the model answer is mapped through the rubric. It is pure and
// deterministic.
type RubricGrader struct{}

var _ Grader = (*RubricGrader)(nil)

func NewRubricGrader() *RubricGrader {
	return &RubricGrader{}
}

func (g *RubricGrader) Grade(studentAnswer, modelAnswer string, rub *rubric.Rubric) Result {
	pct := similarity.Percent(studentAnswer, modelAnswer)
	score, desc := rub.Resolve(pct)
	return Result{
		Score:             score,
		SimilarityPercent: pct,
		Description:       desc,
	}
}

// GradeBatch grades each item independently; Total is the sum of scores.
func (g *RubricGrader) GradeBatch(ctx context.Context, items []Item, rub *rubric.Rubric) (Batch, error) {
	if err := ctx.Err(); err != nil {
		return Batch{}, err
	}

	batch := Batch{Results: make([]Result, len(items))}
	for i, it := range items {
		r := g.Grade(it.StudentAnswer, it.Question.ModelAnswer, rub)
		batch.Results[i] = r
		batch.Total += r.Score
	}
	return batch, nil
}
