package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/remaimber-it/quizgrader/internal/apperror"
	"github.com/remaimber-it/quizgrader/internal/domain/quizsession"
	"github.com/remaimber-it/quizgrader/internal/service"
)

// ── Request / Response types ────────────────────────────────────────────────

// SessionQuestion never carries the model answer.
type SessionQuestion struct {
	Index int    `json:"index"`
	Text  string `json:"text"`
}

type SessionResponse struct {
	ID        string             `json:"id"`
	Questions []SessionQuestion  `json:"questions"`
	Submitted bool               `json:"submitted"`
	ScoreCard *ScoreCardResponse `json:"score_card,omitempty"`
}

type TypingRequest struct {
	Chars     int   `json:"chars"`
	ElapsedMS int64 `json:"elapsed_ms"`
}

type TypingResponse struct {
	PeakCharsPerSec float64 `json:"peak_chars_per_sec"`
	Suspicious      bool    `json:"suspicious"`
}

type CardItemResponse struct {
	Index             int     `json:"index"`
	Question          string  `json:"question"`
	Answer            string  `json:"answer"`
	Score             int     `json:"score"`
	SimilarityPercent float64 `json:"similarity_percent"`
	Description       string  `json:"description"`
}

type ScoreCardResponse struct {
	SessionID       string             `json:"session_id"`
	StudentID       string             `json:"student_id"`
	StudentName     string             `json:"student_name"`
	SubmittedAt     string             `json:"submitted_at"`
	Total           int                `json:"total"`
	Items           []CardItemResponse `json:"items"`
	PeakTypingSpeed float64            `json:"peak_typing_speed"`
	Suspicious      bool               `json:"suspicious"`
	Warning         string             `json:"warning,omitempty"`
}

// ── Handlers ────────────────────────────────────────────────────────────────

// POST /sessions
func (h *Handler) createSession(w http.ResponseWriter, r *http.Request) {
	sess, err := h.grading.StartSession(r.Context())
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, toSessionResponse(sess))
}

// GET /sessions/{sessionID}
func (h *Handler) getSession(w http.ResponseWriter, r *http.Request) {
	sess, err := h.grading.Session(chi.URLParam(r, "sessionID"))
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, toSessionResponse(sess))
}

// POST /sessions/{sessionID}/typing
func (h *Handler) recordTyping(w http.ResponseWriter, r *http.Request) {
	var req TypingRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	peak, suspicious, err := h.grading.RecordTyping(
		chi.URLParam(r, "sessionID"),
		req.Chars,
		time.Duration(req.ElapsedMS)*time.Millisecond,
	)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, TypingResponse{
		PeakCharsPerSec: peak,
		Suspicious:      suspicious,
	})
}

// POST /sessions/{sessionID}/submit
func (h *Handler) submit(w http.ResponseWriter, r *http.Request) {
	var req service.Submission
	if !decodeJSON(w, r, &req) {
		return
	}

	sessionID := chi.URLParam(r, "sessionID")
	out, err := h.grading.Submit(r.Context(), sessionID, req)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	resp := toScoreCardResponse(out.Card)
	if out.Warning != nil {
		h.logger.Warn().Err(out.Warning).Str("session_id", sessionID).Msg("submission not recorded")
		resp.Warning = warningText(out.Warning)
	}
	respondJSON(w, http.StatusOK, resp)
}

func warningText(err error) string {
	var ae *apperror.Error
	if errors.As(err, &ae) {
		return ae.Reason
	}
	return err.Error()
}

func toSessionResponse(sess *quizsession.Session) SessionResponse {
	questions := sess.Questions()
	resp := SessionResponse{
		ID:        sess.ID,
		Questions: make([]SessionQuestion, len(questions)),
		Submitted: sess.Submitted(),
	}
	for i, q := range questions {
		resp.Questions[i] = SessionQuestion{Index: i, Text: q.Text}
	}
	if card, ok := sess.ScoreCard(); ok {
		c := toScoreCardResponse(card)
		resp.ScoreCard = &c
	}
	return resp
}

func toScoreCardResponse(card quizsession.ScoreCard) ScoreCardResponse {
	items := make([]CardItemResponse, len(card.Items))
	for i, it := range card.Items {
		items[i] = CardItemResponse{
			Index:             it.Index,
			Question:          it.Question,
			Answer:            it.Answer,
			Score:             it.Score,
			SimilarityPercent: it.SimilarityPercent,
			Description:       it.Description,
		}
	}
	return ScoreCardResponse{
		SessionID:       card.SessionID,
		StudentID:       card.StudentID,
		StudentName:     card.StudentName,
		SubmittedAt:     card.SubmittedAt.Format(quizsession.TimestampLayout),
		Total:           card.Total,
		Items:           items,
		PeakTypingSpeed: card.PeakTypingSpeed,
		Suspicious:      card.Suspicious,
	}
}
