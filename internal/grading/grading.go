// Package grading decides whether a submitted answer earns a question's
// marks. Strategies are keyed by question type; every built-in type uses a
// case-insensitive exact match against the stored correct answer, with no
// trimming and no partial credit.
package grading

import "strings"

// Q is the minimal view of a question needed for grading.
type Q struct {
	Type      string
	Marks     int
	AnswerKey string
}

// Outcome is the result of grading a single answer.
type Outcome struct {
	Correct bool
	Awarded int
}

// Strategy grades a single question.
type Strategy interface {
	Grade(q Q, answer string) Outcome
}

// Grader routes by question type to the correct Strategy.
type Grader interface {
	Grade(q Q, answer string) Outcome
}

type defaultGrader struct {
	strategies map[string]Strategy
	fallback   Strategy
}

func (g *defaultGrader) Grade(q Q, answer string) Outcome {
	if s, ok := g.strategies[q.Type]; ok {
		return s.Grade(q, answer)
	}
	return g.fallback.Grade(q, answer)
}

// NewDefaultGrader installs built-in strategies. Unknown types fall back to
// the same exact-match rule rather than failing the submission.
func NewDefaultGrader() Grader {
	exact := exactMatchStrategy{}
	return &defaultGrader{
		strategies: map[string]Strategy{
			"mcq":          exact,
			"true_false":   exact,
			"short_answer": exact,
		},
		fallback: exact,
	}
}

type exactMatchStrategy struct{}

func (exactMatchStrategy) Grade(q Q, answer string) Outcome {
	if strings.EqualFold(answer, q.AnswerKey) {
		return Outcome{Correct: true, Awarded: q.Marks}
	}
	return Outcome{}
}
