package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/remaimber-it/quizgrader/internal/domain/questionbank"
	"github.com/remaimber-it/quizgrader/internal/domain/rubric"
	"github.com/remaimber-it/quizgrader/internal/sheet"
)

// ImportQuestions copies every row with question text from r into the
// questions table and returns how many were imported. The import is all or
// nothing.
func (s *SQLiteStore) ImportQuestions(ctx context.Context, r sheet.RecordReader) (int, error) {
	records, err := r.Records(ctx)
	if err != nil {
		return 0, fmt.Errorf("read questions: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	n := 0
	for i, rec := range records {
		text := strings.TrimSpace(rec[questionbank.ColumnQuestion])
		if text == "" {
			continue
		}
		if err := insertQuestion(ctx, tx, text, strings.TrimSpace(rec[questionbank.ColumnModelAnswer])); err != nil {
			return 0, fmt.Errorf("question row %d: %w", i+1, err)
		}
		n++
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return n, nil
}

// ImportRubric copies rubric rows verbatim; malformed cells are kept and
// skipped when the rubric is parsed. The import is all or nothing.
func (s *SQLiteStore) ImportRubric(ctx context.Context, r sheet.RecordReader) (int, error) {
	records, err := r.Records(ctx)
	if err != nil {
		return 0, fmt.Errorf("read rubric: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	for i, rec := range records {
		err := insertRubricRule(ctx, tx,
			rec[rubric.ColumnMinRatio],
			rec[rubric.ColumnScore],
			rec[rubric.ColumnDescription],
		)
		if err != nil {
			return 0, fmt.Errorf("rubric row %d: %w", i+1, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return len(records), nil
}
