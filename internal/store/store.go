package store

import "errors"

var (
	ErrNotFound = errors.New("not found")
)

// StoredGrade is one graded answer of an archived submission.
type StoredGrade struct {
	Position    int
	Question    string
	Answer      string
	Score       int
	Similarity  float64
	Description string
}
