package questionbank_test

import (
	"testing"

	"github.com/remaimber-it/quizgrader/internal/domain/questionbank"
)

func TestNewQuestionBank(t *testing.T) {
	bank := questionbank.New()

	if bank.Len() != 0 {
		t.Errorf("expected empty question bank, got %d questions", bank.Len())
	}
}

func TestAddQuestion(t *testing.T) {
	bank := questionbank.New()

	err := bank.AddQuestion("광합성이란?", "빛 에너지를 화학 에너지로 바꾸는 과정")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if bank.Len() != 1 {
		t.Fatalf("expected 1 question, got %d", bank.Len())
	}

	q := bank.Questions[0]
	if q.Text != "광합성이란?" {
		t.Errorf("expected text %q, got %q", "광합성이란?", q.Text)
	}
	if q.ID == "" {
		t.Error("expected question to get an ID")
	}
}

func TestAddQuestion_EmptyText(t *testing.T) {
	bank := questionbank.New()

	for _, text := range []string{"", "   "} {
		if err := bank.AddQuestion(text, "Answer"); err == nil {
			t.Errorf("expected error for text %q, got nil", text)
		}
	}

	if bank.Len() != 0 {
		t.Error("expected no questions after failed add")
	}
}

func TestAddQuestion_UniqueIDs(t *testing.T) {
	bank := questionbank.New()
	for i := 0; i < 50; i++ {
		if err := bank.AddQuestion("Question", "Answer"); err != nil {
			t.Fatalf("failed to add question: %v", err)
		}
	}

	seen := make(map[string]bool)
	for _, q := range bank.Questions {
		if seen[q.ID] {
			t.Fatalf("duplicate ID %s", q.ID)
		}
		seen[q.ID] = true
	}
}

func TestFromRecords(t *testing.T) {
	rows := []map[string]string{
		{"문제": "Question 1", "모범답안": "Answer 1"},
		{"문제": "", "모범답안": "orphan answer"},
		{"문제": "Question 2", "모범답안": ""},
		{"모범답안": "no question column"},
	}

	bank, skipped := questionbank.FromRecords(rows)

	if skipped != 2 {
		t.Errorf("expected 2 skipped rows, got %d", skipped)
	}
	if bank.Len() != 2 {
		t.Fatalf("expected 2 questions, got %d", bank.Len())
	}
	if bank.Questions[0].ModelAnswer != "Answer 1" {
		t.Errorf("unexpected model answer %q", bank.Questions[0].ModelAnswer)
	}
}
