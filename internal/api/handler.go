// internal/api/handler.go
package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/remaimber-it/quizgrader/internal/apperror"
	"github.com/remaimber-it/quizgrader/internal/service"
)

const maxBodyBytes = 1 << 20

// Handler holds all dependencies needed by HTTP handlers.
type Handler struct {
	grading *service.GradingService
	logger  zerolog.Logger
}

func NewHandler(grading *service.GradingService, logger zerolog.Logger) *Handler {
	return &Handler{
		grading: grading,
		logger:  logger.With().Str("component", "api").Logger(),
	}
}

type ErrorResponse struct {
	Error   string            `json:"error"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
}

// respondJSON writes a JSON response with the given status code. The body
// is encoded before the header is sent, so an unencodable value becomes a
// 500 rather than a truncated success.
func respondJSON(w http.ResponseWriter, status int, v any) {
	body, err := json.Marshal(v)
	if err != nil {
		status = http.StatusInternalServerError
		body, _ = json.Marshal(ErrorResponse{Error: "internal_error", Message: "response could not be encoded"})
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(append(body, '\n'))
}

// decodeJSON reads the request body into dst. On failure it writes a 400
// and returns false.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		respondJSON(w, http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_request",
			Message: "request body is not valid JSON: " + err.Error(),
		})
		return false
	}
	return true
}

// statusFor maps an error kind to an HTTP status and a stable code string.
// Unreachable and unparseable model replies share a status but not a code.
func statusFor(kind apperror.Kind) (int, string) {
	switch kind {
	case apperror.KindValidation:
		return http.StatusBadRequest, "validation_failed"
	case apperror.KindNotFound:
		return http.StatusNotFound, "not_found"
	case apperror.KindSessionClosed:
		return http.StatusConflict, "session_closed"
	case apperror.KindInsufficientData:
		return http.StatusServiceUnavailable, "insufficient_data"
	case apperror.KindExternalCall:
		return http.StatusBadGateway, "grading_unavailable"
	case apperror.KindResponseParse:
		return http.StatusBadGateway, "grading_response_invalid"
	case apperror.KindConfiguration:
		return http.StatusInternalServerError, "configuration_error"
	case apperror.KindSinkWrite:
		return http.StatusInternalServerError, "results_not_recorded"
	case apperror.KindCapacity:
		return http.StatusServiceUnavailable, "too_many_sessions"
	}
	return http.StatusInternalServerError, "internal_error"
}

// respondError writes err as an ErrorResponse. Unclassified errors are
// logged and reported without detail.
func (h *Handler) respondError(w http.ResponseWriter, r *http.Request, err error) {
	var ae *apperror.Error
	if !errors.As(err, &ae) {
		h.logger.Error().Err(err).Str("path", r.URL.Path).Msg("unhandled error")
		respondJSON(w, http.StatusInternalServerError, ErrorResponse{
			Error:   "internal_error",
			Message: "internal error",
		})
		return
	}

	status, code := statusFor(ae.Kind)
	if status >= http.StatusInternalServerError {
		h.logger.Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
	}
	respondJSON(w, status, ErrorResponse{
		Error:   code,
		Message: ae.Reason,
		Fields:  ae.Fields,
	})
}
