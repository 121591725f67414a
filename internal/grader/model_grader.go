package grader

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/remaimber-it/quizgrader/internal/apperror"
	"github.com/remaimber-it/quizgrader/internal/domain/rubric"
)

// ModelGrader delegates scoring of a whole batch to a text-generation
// service with a single prompt, then parses the JSON object in the reply.
type ModelGrader struct {
	gen    TextGenerator
	logger zerolog.Logger
}

var _ Grader = (*ModelGrader)(nil)

func NewModelGrader(gen TextGenerator, logger zerolog.Logger) *ModelGrader {
	return &ModelGrader{
		gen:    gen,
		logger: logger.With().Str("component", "model_grader").Logger(),
	}
}

// GradeBatch makes exactly one generation call. A failed call is an
// external_call error; a reply without a usable JSON object is a
// response_parse error. Total is the model-supplied 총점, not a local sum.
func (g *ModelGrader) GradeBatch(ctx context.Context, items []Item, rub *rubric.Rubric) (Batch, error) {
	prompt := BuildPrompt(items, rub)
	start := time.Now()

	text, err := g.gen.Generate(ctx, prompt)
	if err != nil {
		g.logger.Error().Err(err).Int("items", len(items)).Msg("text generation failed")
		return Batch{}, apperror.Wrap(apperror.KindExternalCall, "grading service call failed", err)
	}

	batch, err := ParseResponse(text, len(items))
	if err != nil {
		g.logger.Error().
			Err(err).
			Str("response", truncate(text, 500)).
			Msg("unparseable grading response")
		return Batch{}, err
	}

	g.logger.Debug().
		Int("items", len(items)).
		Int("total", batch.Total).
		Dur("elapsed", time.Since(start)).
		Msg("batch graded")

	return batch, nil
}

// ParseResponse extracts the grading object from free text and reads n
// question entries. Missing entries and fields default to zero values;
// present fields of the wrong type are a parse error.
func ParseResponse(text string, n int) (Batch, error) {
	raw := extractJSON(text, isPayload)
	if raw == "" {
		return Batch{}, apperror.New(apperror.KindResponseParse, "no JSON object found in grading response")
	}

	var payload map[string]json.RawMessage
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		return Batch{}, apperror.Wrap(apperror.KindResponseParse, "invalid JSON in grading response", err)
	}

	batch := Batch{Results: make([]Result, n)}
	for i := 0; i < n; i++ {
		key := questionKey(i)
		entryRaw, ok := payload[key]
		if !ok || isNull(entryRaw) {
			continue
		}

		var entry map[string]json.RawMessage
		if err := json.Unmarshal(entryRaw, &entry); err != nil {
			return Batch{}, apperror.Wrap(apperror.KindResponseParse, fmt.Sprintf("entry %s is not an object", key), err)
		}

		r, err := parseEntry(entry)
		if err != nil {
			return Batch{}, apperror.Wrap(apperror.KindResponseParse, fmt.Sprintf("entry %s", key), err)
		}
		batch.Results[i] = r
	}

	total, err := numberField(payload, totalKey)
	if err != nil {
		return Batch{}, apperror.Wrap(apperror.KindResponseParse, "total", err)
	}
	batch.Total, err = toScore(total)
	if err != nil {
		return Batch{}, apperror.Wrap(apperror.KindResponseParse, "total", err)
	}

	return batch, nil
}

// isPayload reports whether candidate is an object carrying at least one
// of the keys the prompt asks for.
func isPayload(candidate string) bool {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal([]byte(candidate), &obj); err != nil {
		return false
	}
	if _, ok := obj[totalKey]; ok {
		return true
	}
	for k := range obj {
		if strings.HasPrefix(k, questionKeyPrefix) {
			return true
		}
	}
	return false
}

// maxScore bounds any score or total a reply may carry.
const maxScore = 1_000_000

func toScore(f float64) (int, error) {
	r := math.Round(f)
	if r > maxScore || r < -maxScore {
		return 0, fmt.Errorf("score %v out of range", f)
	}
	return int(r), nil
}

func parseEntry(entry map[string]json.RawMessage) (Result, error) {
	score, err := numberField(entry, scoreKey)
	if err != nil {
		return Result{}, err
	}
	sim, err := numberField(entry, similarityKey, "similarity")
	if err != nil {
		return Result{}, err
	}
	if sim < 0 || sim > 100 {
		return Result{}, fmt.Errorf("similarity %v outside 0-100", sim)
	}
	desc, err := stringField(entry, descriptionKey, "description")
	if err != nil {
		return Result{}, err
	}
	n, err := toScore(score)
	if err != nil {
		return Result{}, err
	}
	return Result{
		Score:             n,
		SimilarityPercent: sim,
		Description:       desc,
	}, nil
}

// numberField reads the first present key as a JSON number or a numeric
// string ("92.5", "92.5%"). Absent or null yields 0.
func numberField(obj map[string]json.RawMessage, keys ...string) (float64, error) {
	raw, key, ok := lookup(obj, keys)
	if !ok {
		return 0, nil
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return 0, fmt.Errorf("field %s: %w", key, err)
	}

	switch t := v.(type) {
	case json.Number:
		f, err := t.Float64()
		if err != nil {
			return 0, fmt.Errorf("field %s: %w", key, err)
		}
		return f, nil
	case string:
		s := strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(t), "%"))
		if s == "" {
			return 0, nil
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return 0, fmt.Errorf("field %s: %q is not a finite number", key, t)
		}
		return f, nil
	}
	return 0, fmt.Errorf("field %s: unexpected type %T", key, v)
}

// stringField reads the first present key as a string. Absent or null
// yields "".
func stringField(obj map[string]json.RawMessage, keys ...string) (string, error) {
	raw, key, ok := lookup(obj, keys)
	if !ok {
		return "", nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", fmt.Errorf("field %s: %w", key, err)
	}
	return s, nil
}

func lookup(obj map[string]json.RawMessage, keys []string) (json.RawMessage, string, bool) {
	for _, k := range keys {
		if raw, ok := obj[k]; ok && !isNull(raw) {
			return raw, k, true
		}
	}
	return nil, "", false
}

func isNull(raw json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "…"
}
