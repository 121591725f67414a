package rubric

import (
	"math"
	"sort"
	"strconv"
	"strings"
)

// Column names of the rubric table, as they appear in the header row.
const (
	ColumnMinRatio    = "최소비율"
	ColumnScore       = "점수"
	ColumnDescription = "설명"
)

// DefaultScore is awarded when the similarity is below every rule's
// threshold. It is 1, not 0.
const DefaultScore = 1

// Rule awards Score when the similarity percentage is at least MinRatio.
type Rule struct {
	MinRatio    float64
	Score       int
	Description string
}

// Rubric is an immutable rule set kept in descending MinRatio order.
type Rubric struct {
	rules []Rule
}

// New copies rules and sorts them by descending MinRatio. Rules sharing a
// threshold keep their input order.
func New(rules []Rule) *Rubric {
	sorted := make([]Rule, len(rules))
	copy(sorted, rules)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].MinRatio > sorted[j].MinRatio
	})
	return &Rubric{rules: sorted}
}

// Rules returns the rules highest threshold first.
func (r *Rubric) Rules() []Rule {
	if r == nil {
		return nil
	}
	out := make([]Rule, len(r.rules))
	copy(out, r.rules)
	return out
}

func (r *Rubric) Len() int {
	if r == nil {
		return 0
	}
	return len(r.rules)
}

// Resolve returns the score and description of the first rule, highest
// threshold first, whose MinRatio is <= similarityPercent. The comparison
// is inclusive. With no matching rule it returns (DefaultScore, "").
func (r *Rubric) Resolve(similarityPercent float64) (int, string) {
	if r != nil {
		for _, rule := range r.rules {
			if similarityPercent >= rule.MinRatio {
				return rule.Score, rule.Description
			}
		}
	}
	return DefaultScore, ""
}

// ParseRows builds a rubric from header-keyed table rows. Rows whose
// threshold or score is not numeric are skipped; the number of skipped rows
// is returned so the caller can log it.
func ParseRows(rows []map[string]string) (*Rubric, int) {
	rules := make([]Rule, 0, len(rows))
	skipped := 0

	for _, row := range rows {
		minRatio, err := parseNumber(row[ColumnMinRatio])
		if err != nil {
			skipped++
			continue
		}
		score, err := parseNumber(row[ColumnScore])
		if err != nil {
			skipped++
			continue
		}
		rules = append(rules, Rule{
			MinRatio:    minRatio,
			Score:       int(math.Round(score)),
			Description: strings.TrimSpace(row[ColumnDescription]),
		})
	}

	return New(rules), skipped
}

// parseNumber accepts "80", "80.5" and "80%".
func parseNumber(s string) (float64, error) {
	s = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(s), "%"))
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, strconv.ErrSyntax
	}
	return v, nil
}
