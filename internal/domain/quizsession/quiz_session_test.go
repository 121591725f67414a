package quizsession_test

import (
	"errors"
	"math/rand/v2"
	"testing"
	"time"

	"github.com/remaimber-it/quizgrader/internal/apperror"
	"github.com/remaimber-it/quizgrader/internal/domain/questionbank"
	"github.com/remaimber-it/quizgrader/internal/domain/quizsession"
	"github.com/remaimber-it/quizgrader/internal/domain/rubric"
)

func createPool(n int) []questionbank.Question {
	bank := questionbank.New()
	for i := 0; i < n; i++ {
		bank.AddQuestion(
			"Question "+string(rune('A'+i)),
			"Answer "+string(rune('A'+i)),
		)
	}
	return bank.Questions
}

func newSession(t *testing.T, poolSize int) *quizsession.Session {
	t.Helper()
	s, err := quizsession.New("s1", createPool(poolSize), rubric.New(nil), quizsession.DefaultConfig(), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return s
}

func TestSelectQuestions_DistinctFromPool(t *testing.T) {
	pool := createPool(10)
	inPool := make(map[string]bool)
	for _, q := range pool {
		inPool[q.ID] = true
	}

	selected, err := quizsession.SelectQuestions(pool, 6, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(selected) != 6 {
		t.Fatalf("expected 6 questions, got %d", len(selected))
	}

	seen := make(map[string]bool)
	for _, q := range selected {
		if !inPool[q.ID] {
			t.Errorf("question %s not drawn from pool", q.ID)
		}
		if seen[q.ID] {
			t.Errorf("question %s selected twice", q.ID)
		}
		seen[q.ID] = true
	}
}

func TestSelectQuestions_InsufficientPool(t *testing.T) {
	_, err := quizsession.SelectQuestions(createPool(5), 6, nil)

	if !errors.Is(err, apperror.ErrInsufficientData) {
		t.Fatalf("expected insufficient data error, got %v", err)
	}
}

func TestSelectQuestions_ExactPoolSize(t *testing.T) {
	selected, err := quizsession.SelectQuestions(createPool(6), 6, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(selected) != 6 {
		t.Errorf("expected 6 questions, got %d", len(selected))
	}
}

func TestSelectQuestions_NonPositiveCount(t *testing.T) {
	_, err := quizsession.SelectQuestions(createPool(5), 0, nil)
	if !errors.Is(err, apperror.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
}

func TestSelectQuestions_SeededIsDeterministic(t *testing.T) {
	pool := createPool(20)

	a, _ := quizsession.SelectQuestions(pool, 6, rand.New(rand.NewPCG(1, 2)))
	b, _ := quizsession.SelectQuestions(pool, 6, rand.New(rand.NewPCG(1, 2)))

	if !sameOrder(a, b) {
		t.Error("expected identical selections for identical seeds")
	}
}

func TestNew_SelectionIsMemoized(t *testing.T) {
	s := newSession(t, 10)

	first := s.Questions()
	for i := 0; i < 5; i++ {
		if !sameOrder(first, s.Questions()) {
			t.Fatal("expected the same selection on every call")
		}
	}
}

func TestNew_IndependentSessionsMayDiffer(t *testing.T) {
	pool := createPool(20)
	cfg := quizsession.DefaultConfig()

	first, _ := quizsession.New("a", pool, nil, cfg, nil)

	// statistically almost certain with 20 questions
	foundDifferent := false
	for i := 0; i < 10; i++ {
		other, _ := quizsession.New("b", pool, nil, cfg, nil)
		if !sameOrder(first.Questions(), other.Questions()) {
			foundDifferent = true
			break
		}
	}

	if !foundDifferent {
		t.Error("expected independent sessions to draw independently")
	}
}

func TestNew_InsufficientPool(t *testing.T) {
	_, err := quizsession.New("s", createPool(3), nil, quizsession.DefaultConfig(), nil)
	if !errors.Is(err, apperror.ErrInsufficientData) {
		t.Fatalf("expected insufficient data error, got %v", err)
	}
}

func TestRecordTyping_TracksPeak(t *testing.T) {
	s := newSession(t, 6)

	peak, err := s.RecordTyping(10, time.Second)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if peak != 10 {
		t.Errorf("expected peak 10, got %v", peak)
	}

	peak, _ = s.RecordTyping(60, 2*time.Second)
	if peak != 30 {
		t.Errorf("expected peak 30, got %v", peak)
	}

	peak, _ = s.RecordTyping(1, time.Second)
	if peak != 30 {
		t.Errorf("expected peak to stay 30, got %v", peak)
	}
}

func TestRecordTyping_InvalidSample(t *testing.T) {
	s := newSession(t, 6)

	if _, err := s.RecordTyping(5, 0); !errors.Is(err, apperror.ErrValidation) {
		t.Errorf("expected validation error for zero elapsed, got %v", err)
	}
	if _, err := s.RecordTyping(-1, time.Second); !errors.Is(err, apperror.ErrValidation) {
		t.Errorf("expected validation error for negative chars, got %v", err)
	}
}

func TestSuspicious_AboveThreshold(t *testing.T) {
	s := newSession(t, 6)

	s.RecordTyping(25, time.Second)
	if s.Suspicious() {
		t.Error("25 chars/sec is at the threshold, not above it")
	}

	s.RecordTyping(300, time.Second)
	if !s.Suspicious() {
		t.Error("expected 300 chars/sec to be suspicious")
	}
}

func TestSubmitLatch(t *testing.T) {
	s := newSession(t, 6)

	if err := s.BeginSubmit(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := s.BeginSubmit(); !errors.Is(err, apperror.ErrSessionClosed) {
		t.Errorf("expected concurrent submit to be rejected, got %v", err)
	}

	s.AbortSubmit()
	if s.State() != quizsession.StateOpen {
		t.Fatalf("expected open state after abort, got %s", s.State())
	}

	if err := s.BeginSubmit(); err != nil {
		t.Fatalf("expected resubmit after abort to succeed: %v", err)
	}
	s.CompleteSubmit(quizsession.ScoreCard{SessionID: s.ID, Total: 7})

	if !s.Submitted() {
		t.Error("expected submitted state")
	}
	if err := s.BeginSubmit(); !errors.Is(err, apperror.ErrSessionClosed) {
		t.Errorf("expected submit after completion to be rejected, got %v", err)
	}
	if _, err := s.RecordTyping(5, time.Second); !errors.Is(err, apperror.ErrSessionClosed) {
		t.Errorf("expected typing after submission to be rejected, got %v", err)
	}

	card, ok := s.ScoreCard()
	if !ok || card.Total != 7 {
		t.Errorf("expected stored score card with total 7, got %+v (ok=%v)", card, ok)
	}
}

func TestAbortSubmit_DoesNotReopenSubmitted(t *testing.T) {
	s := newSession(t, 6)
	s.BeginSubmit()
	s.CompleteSubmit(quizsession.ScoreCard{})

	s.AbortSubmit()
	if !s.Submitted() {
		t.Error("abort must not reopen a submitted session")
	}
}

func TestScoreCard_Row(t *testing.T) {
	card := quizsession.ScoreCard{
		StudentID:   "2024001",
		StudentName: "Kim",
		SubmittedAt: time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC),
		Total:       8,
		Items: []quizsession.CardItem{
			{Question: "Q1", Answer: "A1", Score: 5, Description: "good"},
			{Question: "Q2", Answer: "A2", Score: 3, Description: "ok"},
		},
		PeakTypingSpeed: 12.347,
		Suspicious:      false,
	}

	row := card.Row()

	want := []any{"2024001", "Kim", "2026-03-01 09:30:00", 8, "Q1", "A1", 5, "good", "Q2", "A2", 3, "ok", 12.35, false}
	if len(row) != len(want) {
		t.Fatalf("expected %d cells, got %d: %v", len(want), len(row), row)
	}
	for i := range want {
		if row[i] != want[i] {
			t.Errorf("cell %d: expected %v, got %v", i, want[i], row[i])
		}
	}
}

func sameOrder(a, b []questionbank.Question) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].ID != b[i].ID {
			return false
		}
	}
	return true
}
