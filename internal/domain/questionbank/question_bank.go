package questionbank

import (
	"errors"
	"strings"

	"github.com/remaimber-it/quizgrader/internal/id"
)

// Column names of the question table, as they appear in the header row.
const (
	ColumnQuestion    = "문제"
	ColumnModelAnswer = "모범답안"
)

// Question is a short-answer question and the answer students are graded
// against. It never changes after it is loaded.
type Question struct {
	ID          string
	Text        string
	ModelAnswer string
}

// QuestionBank is the pool questions are drawn from.
type QuestionBank struct {
	Questions []Question
}

func New() *QuestionBank {
	return &QuestionBank{
		Questions: []Question{},
	}
}

func (qb *QuestionBank) AddQuestion(text string, modelAnswer string) error {
	if strings.TrimSpace(text) == "" {
		return errors.New("question text cannot be empty")
	}

	qb.Questions = append(qb.Questions, Question{
		ID:          id.GenerateID(),
		Text:        text,
		ModelAnswer: modelAnswer,
	})
	return nil
}

func (qb *QuestionBank) Len() int {
	return len(qb.Questions)
}

// FromRecords builds a bank from header-keyed table rows. Rows without
// question text are skipped and counted.
func FromRecords(rows []map[string]string) (*QuestionBank, int) {
	bank := New()
	skipped := 0
	for _, row := range rows {
		if err := bank.AddQuestion(row[ColumnQuestion], row[ColumnModelAnswer]); err != nil {
			skipped++
		}
	}
	return bank, skipped
}
