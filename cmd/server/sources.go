package main

import (
	"fmt"

	"github.com/remaimber-it/quizgrader/internal/infrastructure/config"
	"github.com/remaimber-it/quizgrader/internal/service"
	"github.com/remaimber-it/quizgrader/internal/sheet"
	"github.com/remaimber-it/quizgrader/internal/store"
)

// openSources wires the question, rubric and results tables for the
// configured backend. The archive is only available with sqlite.
func openSources(cfg *config.Config) (service.Sources, service.Archive, func(), error) {
	switch cfg.StorageBackend {
	case config.BackendSQLite:
		db, err := store.NewSQLite(cfg.SQLitePath)
		if err != nil {
			return service.Sources{}, nil, nil, err
		}
		src := service.Sources{
			Questions: db.QuestionRecords(),
			Rubric:    db.RubricRecords(),
			Results:   db.ResultsSink(),
		}
		// Results can still go to a workbook for the people reading them.
		if cfg.ResultsXLSX != "" {
			src.Results = sheet.NewWorkbook(cfg.ResultsXLSX)
		}
		return src, db, func() { db.Close() }, nil

	case config.BackendXLSX:
		src := service.Sources{
			Questions: sheet.NewWorkbook(cfg.QuestionsXLSX),
			Rubric:    sheet.NewWorkbook(cfg.RubricXLSX),
		}
		if cfg.ResultsXLSX != "" {
			src.Results = sheet.NewWorkbook(cfg.ResultsXLSX)
		}
		return src, nil, func() {}, nil
	}
	return service.Sources{}, nil, nil, fmt.Errorf("unknown storage backend %q", cfg.StorageBackend)
}
