package quizsession

import (
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/remaimber-it/quizgrader/internal/apperror"
	"github.com/remaimber-it/quizgrader/internal/domain/questionbank"
	"github.com/remaimber-it/quizgrader/internal/domain/rubric"
)

type State string

const (
	StateOpen      State = "open"
	StateGrading   State = "grading"
	StateSubmitted State = "submitted"
)

// Session is the per-student grading context. Its question selection and
// rubric are fixed at creation; answers are accepted exactly once.
type Session struct {
	ID        string
	CreatedAt time.Time

	questions []questionbank.Question
	rubric    *rubric.Rubric
	threshold float64

	mu        sync.Mutex
	state     State
	peakSpeed float64
	card      *ScoreCard
}

// New draws the session's questions from pool. The draw happens once; every
// later call to Questions returns the same selection.
func New(id string, pool []questionbank.Question, rub *rubric.Rubric, cfg Config, rng *rand.Rand) (*Session, error) {
	questions, err := SelectQuestions(pool, cfg.QuestionCount, rng)
	if err != nil {
		return nil, err
	}

	return &Session{
		ID:        id,
		CreatedAt: time.Now(),
		questions: questions,
		rubric:    rub,
		threshold: cfg.TypingThreshold,
		state:     StateOpen,
	}, nil
}

func (s *Session) Questions() []questionbank.Question {
	out := make([]questionbank.Question, len(s.questions))
	copy(out, s.questions)
	return out
}

func (s *Session) Rubric() *rubric.Rubric {
	return s.rubric
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Session) Submitted() bool {
	return s.State() == StateSubmitted
}

// RecordTyping registers a typing sample of chars characters entered over
// elapsed and returns the peak speed seen so far, in chars/sec.
func (s *Session) RecordTyping(chars int, elapsed time.Duration) (float64, error) {
	if chars < 0 || elapsed <= 0 {
		return 0, apperror.Validation(map[string]string{
			"typing": fmt.Sprintf("invalid sample: %d chars over %s", chars, elapsed),
		})
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateOpen {
		return s.peakSpeed, apperror.New(apperror.KindSessionClosed, "session already submitted")
	}

	speed := float64(chars) / elapsed.Seconds()
	if speed > s.peakSpeed {
		s.peakSpeed = speed
	}
	return s.peakSpeed, nil
}

func (s *Session) PeakTypingSpeed() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.peakSpeed
}

// Suspicious reports whether the peak typing speed exceeds the threshold.
func (s *Session) Suspicious() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.peakSpeed > s.threshold
}

// BeginSubmit takes the submission latch. Only one submission can be in
// flight, and none after a successful one.
func (s *Session) BeginSubmit() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.state {
	case StateGrading:
		return apperror.New(apperror.KindSessionClosed, "submission already in progress")
	case StateSubmitted:
		return apperror.New(apperror.KindSessionClosed, "session already submitted")
	}
	s.state = StateGrading
	return nil
}

// AbortSubmit releases the latch after a failed attempt so the student can
// correct and resubmit.
func (s *Session) AbortSubmit() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateGrading {
		s.state = StateOpen
	}
}

// CompleteSubmit records the score card and closes the session for good.
func (s *Session) CompleteSubmit(card ScoreCard) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.card = &card
	s.state = StateSubmitted
}

func (s *Session) ScoreCard() (ScoreCard, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.card == nil {
		return ScoreCard{}, false
	}
	return *s.card, true
}
