// internal/service/grading.go
package service

import (
	"context"
	"fmt"
	"math/rand/v2"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/remaimber-it/quizgrader/internal/apperror"
	"github.com/remaimber-it/quizgrader/internal/domain/questionbank"
	"github.com/remaimber-it/quizgrader/internal/domain/quizsession"
	"github.com/remaimber-it/quizgrader/internal/domain/rubric"
	"github.com/remaimber-it/quizgrader/internal/grader"
	"github.com/remaimber-it/quizgrader/internal/sheet"
	"github.com/remaimber-it/quizgrader/internal/validator"
)

// Sources are the tables a grading service reads from and writes to.
// Results may be nil, in which case every submission carries a warning.
type Sources struct {
	Questions sheet.RecordReader
	Rubric    sheet.RecordReader
	Results   sheet.RowAppender
}

// Archive keeps a durable copy of submitted score cards.
type Archive interface {
	SaveSubmission(ctx context.Context, card quizsession.ScoreCard) error
}

// Submission is a student's answer sheet for one session.
type Submission struct {
	StudentID   string   `json:"student_id" validate:"required"`
	StudentName string   `json:"student_name" validate:"required"`
	Answers     []string `json:"answers" validate:"required,dive,required"`
}

// Outcome is the result of a successful submission. Warning is set when
// the card was produced but could not be recorded in the results table.
type Outcome struct {
	Card    quizsession.ScoreCard
	Warning error
}

// GradingService owns the live sessions and runs submissions through
// validation, grading and recording.
type GradingService struct {
	sources   Sources
	grader    grader.Grader
	cfg       quizsession.Config
	logger    zerolog.Logger
	validator *validator.Validator
	archive   Archive
	now       func() time.Time

	sessionTTL  time.Duration
	maxSessions int

	mu       sync.Mutex
	rng      *rand.Rand // guarded by mu
	sessions map[string]*quizsession.Session
}

const (
	DefaultSessionTTL  = 6 * time.Hour
	DefaultMaxSessions = 10_000
)

type Option func(*GradingService)

// WithArchive keeps a copy of every submitted card in a, alongside the
// results table. Archive failures are logged and do not affect the outcome.
func WithArchive(a Archive) Option {
	return func(gs *GradingService) { gs.archive = a }
}

func WithClock(now func() time.Time) Option {
	return func(gs *GradingService) { gs.now = now }
}

// WithSessionTTL sets how long a session stays registered after it starts.
// Expired sessions are dropped when the next session starts.
func WithSessionTTL(ttl time.Duration) Option {
	return func(gs *GradingService) { gs.sessionTTL = ttl }
}

// WithMaxSessions caps the number of registered sessions.
func WithMaxSessions(n int) Option {
	return func(gs *GradingService) { gs.maxSessions = n }
}

// WithRand makes question selection reproducible.
func WithRand(rng *rand.Rand) Option {
	return func(gs *GradingService) { gs.rng = rng }
}

func NewGradingService(src Sources, g grader.Grader, cfg quizsession.Config, logger zerolog.Logger, opts ...Option) *GradingService {
	gs := &GradingService{
		sources:   src,
		grader:    g,
		cfg:       cfg,
		logger:    logger.With().Str("component", "grading_service").Logger(),
		validator: validator.New(),
		now:       time.Now,
		sessions:  make(map[string]*quizsession.Session),

		sessionTTL:  DefaultSessionTTL,
		maxSessions: DefaultMaxSessions,
	}
	for _, opt := range opts {
		opt(gs)
	}
	return gs
}

// StartSession loads the question pool and rubric and registers a new
// session with its own question selection. When the registry is full the
// oldest submitted session makes room; if every session is still open the
// new one is refused.
func (gs *GradingService) StartSession(ctx context.Context) (*quizsession.Session, error) {
	pool, err := gs.loadQuestions(ctx)
	if err != nil {
		return nil, err
	}
	rub, err := gs.loadRubric(ctx)
	if err != nil {
		return nil, err
	}

	gs.mu.Lock()
	defer gs.mu.Unlock()

	gs.pruneLocked()
	if gs.maxSessions > 0 && len(gs.sessions) >= gs.maxSessions && !gs.evictSubmittedLocked() {
		gs.logger.Warn().Int("sessions", len(gs.sessions)).Msg("session registry full")
		return nil, apperror.New(apperror.KindCapacity,
			fmt.Sprintf("%d sessions are in progress; try again later", len(gs.sessions)))
	}

	sess, err := quizsession.New(uuid.NewString(), pool.Questions, rub, gs.cfg, gs.rng)
	if err != nil {
		gs.logger.Warn().Err(err).Int("pool", pool.Len()).Msg("cannot start session")
		return nil, err
	}
	sess.CreatedAt = gs.now()
	gs.sessions[sess.ID] = sess

	gs.logger.Info().
		Str("session_id", sess.ID).
		Int("questions", len(sess.Questions())).
		Int("rubric_rules", rub.Len()).
		Msg("session started")

	return sess, nil
}

func (gs *GradingService) Session(sessionID string) (*quizsession.Session, error) {
	gs.mu.Lock()
	defer gs.mu.Unlock()

	sess, ok := gs.sessions[sessionID]
	if !ok {
		return nil, apperror.New(apperror.KindNotFound, fmt.Sprintf("session %s not found", sessionID))
	}
	return sess, nil
}

// SessionCount reports how many sessions are registered.
func (gs *GradingService) SessionCount() int {
	gs.mu.Lock()
	defer gs.mu.Unlock()
	return len(gs.sessions)
}

// pruneLocked drops sessions older than the TTL. A session whose submission
// is being graded is kept until the next prune.
func (gs *GradingService) pruneLocked() {
	if gs.sessionTTL <= 0 {
		return
	}
	cutoff := gs.now().Add(-gs.sessionTTL)
	pruned := 0
	for id, sess := range gs.sessions {
		if sess.CreatedAt.After(cutoff) || sess.State() == quizsession.StateGrading {
			continue
		}
		delete(gs.sessions, id)
		pruned++
	}
	if pruned > 0 {
		gs.logger.Debug().Int("pruned", pruned).Int("remaining", len(gs.sessions)).Msg("expired sessions dropped")
	}
}

// evictSubmittedLocked drops the oldest submitted session and reports
// whether one was found.
func (gs *GradingService) evictSubmittedLocked() bool {
	var oldest *quizsession.Session
	for _, sess := range gs.sessions {
		if !sess.Submitted() {
			continue
		}
		if oldest == nil || sess.CreatedAt.Before(oldest.CreatedAt) {
			oldest = sess
		}
	}
	if oldest == nil {
		return false
	}
	delete(gs.sessions, oldest.ID)
	return true
}

// RecordTyping adds a typing sample to the session and returns the peak
// speed so far and whether it is above the threshold.
func (gs *GradingService) RecordTyping(sessionID string, chars int, elapsed time.Duration) (float64, bool, error) {
	sess, err := gs.Session(sessionID)
	if err != nil {
		return 0, false, err
	}
	peak, err := sess.RecordTyping(chars, elapsed)
	if err != nil {
		return 0, false, err
	}
	return peak, sess.Suspicious(), nil
}

// Submit grades a submission and records it. Nothing is graded or
// recorded unless every field is filled in; a session accepts exactly one
// successful submission.
func (gs *GradingService) Submit(ctx context.Context, sessionID string, sub Submission) (Outcome, error) {
	sess, err := gs.Session(sessionID)
	if err != nil {
		return Outcome{}, err
	}

	if err := sess.BeginSubmit(); err != nil {
		return Outcome{}, err
	}
	submitted := false
	defer func() {
		if !submitted {
			sess.AbortSubmit()
		}
	}()

	questions := sess.Questions()
	sub = normalize(sub)
	if err := gs.validate(trimmed(sub), len(questions)); err != nil {
		return Outcome{}, err
	}

	items := make([]grader.Item, len(questions))
	for i, q := range questions {
		items[i] = grader.Item{Question: q, StudentAnswer: sub.Answers[i]}
	}

	start := time.Now()
	batch, err := gs.grader.GradeBatch(ctx, items, sess.Rubric())
	if err != nil {
		gs.logger.Error().
			Err(err).
			Str("session_id", sessionID).
			Str("kind", string(apperror.KindOf(err))).
			Msg("grading failed")
		return Outcome{}, err
	}
	if len(batch.Results) != len(questions) {
		return Outcome{}, apperror.New(apperror.KindResponseParse,
			fmt.Sprintf("grader returned %d results for %d answers", len(batch.Results), len(questions)))
	}

	card := gs.buildCard(sess, sub, batch)
	sess.CompleteSubmit(card)
	submitted = true

	gs.logger.Info().
		Str("session_id", sessionID).
		Str("student_id", card.StudentID).
		Int("total", card.Total).
		Bool("suspicious", card.Suspicious).
		Dur("elapsed", time.Since(start)).
		Msg("submission graded")

	// The card is final from here on; recording it must not depend on the
	// caller still waiting.
	recordCtx := context.WithoutCancel(ctx)

	if gs.archive != nil {
		if err := gs.archive.SaveSubmission(recordCtx, card); err != nil {
			gs.logger.Error().Err(err).Str("session_id", sessionID).Msg("failed to archive submission")
		}
	}

	return Outcome{Card: card, Warning: gs.record(recordCtx, card)}, nil
}

func (gs *GradingService) record(ctx context.Context, card quizsession.ScoreCard) error {
	if gs.sources.Results == nil {
		return apperror.New(apperror.KindSinkWrite, "no results table configured; submission was not recorded")
	}
	if err := gs.sources.Results.AppendRow(ctx, card.Row()); err != nil {
		gs.logger.Error().Err(err).Str("session_id", card.SessionID).Msg("failed to record results row")
		return apperror.Wrap(apperror.KindSinkWrite, "submission was graded but not recorded", err)
	}
	return nil
}

func (gs *GradingService) validate(sub Submission, want int) error {
	fields := gs.validator.Struct(sub)
	if len(sub.Answers) != want {
		if fields == nil {
			fields = make(map[string]string)
		}
		fields["answers"] = fmt.Sprintf("expected %d answers, got %d", want, len(sub.Answers))
	}
	if len(fields) > 0 {
		return apperror.Validation(fields)
	}
	return nil
}

func (gs *GradingService) buildCard(sess *quizsession.Session, sub Submission, batch grader.Batch) quizsession.ScoreCard {
	questions := sess.Questions()
	items := make([]quizsession.CardItem, len(questions))
	for i, q := range questions {
		r := batch.Results[i]
		items[i] = quizsession.CardItem{
			Index:             i,
			Question:          q.Text,
			Answer:            sub.Answers[i],
			Score:             r.Score,
			SimilarityPercent: r.SimilarityPercent,
			Description:       r.Description,
		}
	}

	return quizsession.ScoreCard{
		SessionID:       sess.ID,
		StudentID:       sub.StudentID,
		StudentName:     sub.StudentName,
		SubmittedAt:     gs.now(),
		Total:           batch.Total,
		Items:           items,
		PeakTypingSpeed: sess.PeakTypingSpeed(),
		Suspicious:      sess.Suspicious(),
	}
}

func (gs *GradingService) loadQuestions(ctx context.Context) (*questionbank.QuestionBank, error) {
	records, err := gs.sources.Questions.Records(ctx)
	if err != nil {
		return nil, apperror.Wrap(apperror.KindExternalCall, "failed to read question table", err)
	}
	bank, skipped := questionbank.FromRecords(records)
	if skipped > 0 {
		gs.logger.Warn().Int("skipped", skipped).Msg("skipped question rows without text")
	}
	return bank, nil
}

func (gs *GradingService) loadRubric(ctx context.Context) (*rubric.Rubric, error) {
	records, err := gs.sources.Rubric.Records(ctx)
	if err != nil {
		return nil, apperror.Wrap(apperror.KindExternalCall, "failed to read rubric table", err)
	}
	rub, skipped := rubric.ParseRows(records)
	if skipped > 0 {
		gs.logger.Warn().Int("skipped", skipped).Msg("skipped malformed rubric rows")
	}
	return rub, nil
}

// normalize trims the identity fields. Answers are graded and recorded as
// typed.
func normalize(sub Submission) Submission {
	return Submission{
		StudentID:   strings.TrimSpace(sub.StudentID),
		StudentName: strings.TrimSpace(sub.StudentName),
		Answers:     sub.Answers,
	}
}

// trimmed is the view validation sees, so a whitespace-only answer counts
// as blank.
func trimmed(sub Submission) Submission {
	if sub.Answers == nil {
		return sub
	}
	answers := make([]string, len(sub.Answers))
	for i, a := range sub.Answers {
		answers[i] = strings.TrimSpace(a)
	}
	sub.Answers = answers
	return sub
}
