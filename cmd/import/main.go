// Command import loads question and rubric workbooks into the sqlite
// database used by the server.
package main

import (
	"context"
	"flag"
	"os"

	"github.com/remaimber-it/quizgrader/internal/infrastructure/config"
	"github.com/remaimber-it/quizgrader/internal/logger"
	"github.com/remaimber-it/quizgrader/internal/sheet"
	"github.com/remaimber-it/quizgrader/internal/store"
)

func main() {
	cfg := config.Load()

	dbPath := flag.String("db", cfg.SQLitePath, "sqlite database to import into")
	questionsPath := flag.String("questions", cfg.QuestionsXLSX, "questions workbook (문제, 모범답안)")
	rubricPath := flag.String("rubric", cfg.RubricXLSX, "rubric workbook (최소비율, 점수, 설명)")
	flag.Parse()

	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)

	if *questionsPath == "" && *rubricPath == "" {
		flag.Usage()
		os.Exit(2)
	}

	db, err := store.NewSQLite(*dbPath)
	if err != nil {
		log.Fatal().Err(err).Str("db", *dbPath).Msg("failed to open database")
	}
	defer db.Close()

	ctx := context.Background()

	if *questionsPath != "" {
		n, err := db.ImportQuestions(ctx, sheet.NewWorkbook(*questionsPath))
		if err != nil {
			log.Error().Err(err).Str("file", *questionsPath).Int("imported", n).Msg("question import failed")
			db.Close()
			os.Exit(1)
		}
		log.Info().Str("file", *questionsPath).Int("imported", n).Msg("questions imported")
	}

	if *rubricPath != "" {
		n, err := db.ImportRubric(ctx, sheet.NewWorkbook(*rubricPath))
		if err != nil {
			log.Error().Err(err).Str("file", *rubricPath).Int("imported", n).Msg("rubric import failed")
			db.Close()
			os.Exit(1)
		}
		log.Info().Str("file", *rubricPath).Int("imported", n).Msg("rubric imported")
	}

	questions, rules, err := db.Counts(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to count rows")
	}
	log.Info().Int("questions", questions).Int("rubric_rules", rules).Msg("database ready")
}
