// internal/store/sqlite.go
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/remaimber-it/quizgrader/internal/domain/questionbank"
	"github.com/remaimber-it/quizgrader/internal/domain/quizsession"
	"github.com/remaimber-it/quizgrader/internal/domain/rubric"
	"github.com/remaimber-it/quizgrader/internal/sheet"
)

// Rubric cells are stored as text, like spreadsheet cells, so malformed
// rows survive import and are skipped at parse time.
const schema = `
CREATE TABLE IF NOT EXISTS questions (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    question TEXT NOT NULL,
    model_answer TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS rubric (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    min_ratio TEXT NOT NULL,
    score TEXT NOT NULL,
    description TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS results (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    row_json TEXT NOT NULL,
    created_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS sessions (
    id TEXT PRIMARY KEY,
    student_id TEXT NOT NULL,
    student_name TEXT NOT NULL,
    submitted_at TEXT NOT NULL,
    total INTEGER NOT NULL,
    peak_typing_speed REAL NOT NULL,
    suspicious INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS grades (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    session_id TEXT NOT NULL,
    position INTEGER NOT NULL,
    question TEXT NOT NULL,
    answer TEXT NOT NULL,
    score INTEGER NOT NULL,
    similarity REAL NOT NULL,
    description TEXT NOT NULL,
    FOREIGN KEY (session_id) REFERENCES sessions(id)
);
`

type SQLiteStore struct {
	db *sql.DB
}

func NewSQLite(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, err
	}
	// One writer; avoids SQLITE_BUSY between the results sink and the archive.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, err
	}

	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// ============================================================================
// Questions & rubric
// ============================================================================

// execer is satisfied by both *sql.DB and *sql.Tx.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func (s *SQLiteStore) AddQuestion(ctx context.Context, text, modelAnswer string) error {
	return insertQuestion(ctx, s.db, text, modelAnswer)
}

func (s *SQLiteStore) AddRubricRule(ctx context.Context, minRatio, score, description string) error {
	return insertRubricRule(ctx, s.db, minRatio, score, description)
}

func insertQuestion(ctx context.Context, ex execer, text, modelAnswer string) error {
	_, err := ex.ExecContext(ctx,
		"INSERT INTO questions (question, model_answer) VALUES (?, ?)",
		text, modelAnswer,
	)
	return err
}

func insertRubricRule(ctx context.Context, ex execer, minRatio, score, description string) error {
	_, err := ex.ExecContext(ctx,
		"INSERT INTO rubric (min_ratio, score, description) VALUES (?, ?, ?)",
		minRatio, score, description,
	)
	return err
}

// QuestionRecords exposes the questions table keyed by the question-table
// header names.
func (s *SQLiteStore) QuestionRecords() sheet.RecordReader {
	return tableReader{
		db:      s.db,
		query:   "SELECT question, model_answer FROM questions ORDER BY id",
		columns: []string{questionbank.ColumnQuestion, questionbank.ColumnModelAnswer},
	}
}

// RubricRecords exposes the rubric table keyed by the rubric header names.
func (s *SQLiteStore) RubricRecords() sheet.RecordReader {
	return tableReader{
		db:      s.db,
		query:   "SELECT min_ratio, score, description FROM rubric ORDER BY id",
		columns: []string{rubric.ColumnMinRatio, rubric.ColumnScore, rubric.ColumnDescription},
	}
}

type tableReader struct {
	db      *sql.DB
	query   string
	columns []string
}

func (r tableReader) Records(ctx context.Context) ([]map[string]string, error) {
	rows, err := r.db.QueryContext(ctx, r.query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []map[string]string
	for rows.Next() {
		values := make([]string, len(r.columns))
		dest := make([]any, len(values))
		for i := range values {
			dest[i] = &values[i]
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, err
		}

		rec := make(map[string]string, len(r.columns))
		for i, col := range r.columns {
			rec[col] = values[i]
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// ============================================================================
// Results
// ============================================================================

// ResultsSink appends results rows to the results table, one JSON array
// per row.
func (s *SQLiteStore) ResultsSink() sheet.RowAppender {
	return resultsSink{db: s.db}
}

type resultsSink struct {
	db *sql.DB
}

func (r resultsSink) AppendRow(ctx context.Context, row []any) error {
	data, err := json.Marshal(row)
	if err != nil {
		return fmt.Errorf("encode results row: %w", err)
	}
	_, err = r.db.ExecContext(ctx,
		"INSERT INTO results (row_json, created_at) VALUES (?, ?)",
		string(data), time.Now().UTC().Format(time.RFC3339),
	)
	return err
}

// ResultRows returns every appended results row in insertion order.
func (s *SQLiteStore) ResultRows(ctx context.Context) ([][]any, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT row_json FROM results ORDER BY id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out [][]any
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, err
		}
		var row []any
		if err := json.Unmarshal([]byte(raw), &row); err != nil {
			return nil, fmt.Errorf("decode results row: %w", err)
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

// ============================================================================
// Submissions
// ============================================================================

// SaveSubmission archives a submitted score card with its per-question
// grades.
func (s *SQLiteStore) SaveSubmission(ctx context.Context, card quizsession.ScoreCard) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		"INSERT INTO sessions (id, student_id, student_name, submitted_at, total, peak_typing_speed, suspicious) VALUES (?, ?, ?, ?, ?, ?, ?)",
		card.SessionID, card.StudentID, card.StudentName,
		card.SubmittedAt.Format(quizsession.TimestampLayout),
		card.Total, card.PeakTypingSpeed, card.Suspicious,
	)
	if err != nil {
		return err
	}

	for _, it := range card.Items {
		_, err = tx.ExecContext(ctx,
			"INSERT INTO grades (session_id, position, question, answer, score, similarity, description) VALUES (?, ?, ?, ?, ?, ?, ?)",
			card.SessionID, it.Index, it.Question, it.Answer, it.Score, it.SimilarityPercent, it.Description,
		)
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}

// GetSubmission loads an archived score card.
func (s *SQLiteStore) GetSubmission(ctx context.Context, sessionID string) (quizsession.ScoreCard, error) {
	card := quizsession.ScoreCard{SessionID: sessionID}
	var submittedAt string

	err := s.db.QueryRowContext(ctx,
		"SELECT student_id, student_name, submitted_at, total, peak_typing_speed, suspicious FROM sessions WHERE id = ?",
		sessionID,
	).Scan(&card.StudentID, &card.StudentName, &submittedAt, &card.Total, &card.PeakTypingSpeed, &card.Suspicious)
	if err == sql.ErrNoRows {
		return quizsession.ScoreCard{}, ErrNotFound
	}
	if err != nil {
		return quizsession.ScoreCard{}, err
	}

	card.SubmittedAt, err = time.ParseInLocation(quizsession.TimestampLayout, submittedAt, time.Local)
	if err != nil {
		return quizsession.ScoreCard{}, fmt.Errorf("parse submitted_at %q: %w", submittedAt, err)
	}

	grades, err := s.GetGrades(ctx, sessionID)
	if err != nil {
		return quizsession.ScoreCard{}, err
	}
	for _, g := range grades {
		card.Items = append(card.Items, quizsession.CardItem{
			Index:             g.Position,
			Question:          g.Question,
			Answer:            g.Answer,
			Score:             g.Score,
			SimilarityPercent: g.Similarity,
			Description:       g.Description,
		})
	}
	return card, nil
}

func (s *SQLiteStore) GetGrades(ctx context.Context, sessionID string) ([]StoredGrade, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT position, question, answer, score, similarity, description FROM grades WHERE session_id = ? ORDER BY position",
		sessionID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var grades []StoredGrade
	for rows.Next() {
		var g StoredGrade
		if err := rows.Scan(&g.Position, &g.Question, &g.Answer, &g.Score, &g.Similarity, &g.Description); err != nil {
			return nil, err
		}
		grades = append(grades, g)
	}
	return grades, rows.Err()
}

// Counts reports how many questions and rubric rules are stored.
func (s *SQLiteStore) Counts(ctx context.Context) (questions, rules int, err error) {
	if err = s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM questions").Scan(&questions); err != nil {
		return 0, 0, err
	}
	if err = s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM rubric").Scan(&rules); err != nil {
		return 0, 0, err
	}
	return questions, rules, nil
}
