package quizsession

// Config holds the tunables of a grading session.
type Config struct {
	QuestionCount   int     // questions drawn per session
	TypingThreshold float64 // chars/sec above which a submission is flagged
}

// DefaultConfig draws six questions and flags typing faster than 25
// characters per second.
func DefaultConfig() Config {
	return Config{
		QuestionCount:   6,
		TypingThreshold: 25,
	}
}
