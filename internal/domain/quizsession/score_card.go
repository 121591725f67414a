package quizsession

import (
	"math"
	"time"
)

// TimestampLayout is the submission time format written to the results sink.
const TimestampLayout = "2006-01-02 15:04:05"

type CardItem struct {
	Index             int
	Question          string
	Answer            string
	Score             int
	SimilarityPercent float64
	Description       string
}

// ScoreCard is the graded outcome of one submission.
type ScoreCard struct {
	SessionID       string
	StudentID       string
	StudentName     string
	SubmittedAt     time.Time
	Total           int
	Items           []CardItem
	PeakTypingSpeed float64
	Suspicious      bool
}

// Row flattens the card into a results row:
// student id, name, time, total, then question/answer/score/description per
// item, then peak typing speed and the suspicious flag.
func (c ScoreCard) Row() []any {
	row := make([]any, 0, 6+4*len(c.Items))
	row = append(row, c.StudentID, c.StudentName, c.SubmittedAt.Format(TimestampLayout), c.Total)
	for _, it := range c.Items {
		row = append(row, it.Question, it.Answer, it.Score, it.Description)
	}
	row = append(row, math.Round(c.PeakTypingSpeed*100)/100, c.Suspicious)
	return row
}
