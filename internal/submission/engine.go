// Package submission implements the scoring engine: it validates a
// learner's answer set against test state, grades it, and persists a single
// immutable result per (user, test) pair.
package submission

import (
	"context"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/testifyhub/testifyhub/internal/apperr"
	"github.com/testifyhub/testifyhub/internal/grading"
	"github.com/testifyhub/testifyhub/internal/rbac"
	"github.com/testifyhub/testifyhub/internal/testbank"
)

type Engine struct {
	tests   testbank.Store
	results Store
	grader  grading.Grader
}

func NewEngine(tests testbank.Store, results Store, grader grading.Grader) *Engine {
	if grader == nil {
		grader = grading.NewDefaultGrader()
	}
	return &Engine{tests: tests, results: results, grader: grader}
}

// Submit grades answers against the test's stored keys and persists one
// result. Validation order: missing input, unknown test, inactive test,
// duplicate submission. Nothing is written on any failure path.
func (e *Engine) Submit(ctx context.Context, userID, testID string, answers []AnswerInput, timeTakenMin int) (Result, error) {
	if testID == "" || len(answers) == 0 {
		return Result{}, apperr.New(apperr.KindInvalidRequest, "test ID and answers are required")
	}

	t, err := e.tests.GetTestFull(ctx, testID)
	if err != nil {
		return Result{}, err
	}
	if !t.IsActive {
		return Result{}, apperr.New(apperr.KindForbidden, "test is not available")
	}

	// Fast-path duplicate check. The unique constraint at Insert is what
	// actually closes the race between concurrent submitters.
	exists, err := e.results.Exists(ctx, userID, testID)
	if err != nil {
		return Result{}, err
	}
	if exists {
		return Result{}, apperr.New(apperr.KindConflict, "test already submitted")
	}

	byID := make(map[string]testbank.Question, len(t.Questions))
	for _, q := range t.Questions {
		byID[q.ID] = q
	}

	score := 0
	graded := []Answer{}
	for _, in := range answers {
		q, ok := byID[in.QuestionID]
		if !ok {
			// Unknown question IDs are dropped, not rejected; stale
			// client state must not abort the whole submission.
			continue
		}
		out := e.grader.Grade(grading.Q{Type: q.Type, Marks: q.Marks, AnswerKey: q.CorrectAnswer}, in.Answer)
		score += out.Awarded
		graded = append(graded, Answer{QuestionID: in.QuestionID, Answer: in.Answer, IsCorrect: out.Correct})
	}

	if timeTakenMin < 0 {
		timeTakenMin = 0
	}
	r := Result{
		ID:           uuid.NewString(),
		UserID:       userID,
		TestID:       testID,
		Answers:      graded,
		Score:        score,
		TotalMarks:   t.TotalMarks,
		Percentage:   percentage(score, t.TotalMarks),
		TimeTakenMin: timeTakenMin,
		Status:       StatusCompleted,
		CreatedAt:    time.Now().Unix(),
	}
	if err := e.results.Insert(ctx, r); err != nil {
		return Result{}, err
	}
	return r, nil
}

// GetResult returns a single result with its user/test context, visible to
// the submitting user, an admin, or the educator owning the test.
func (e *Engine) GetResult(ctx context.Context, resultID, actorID, actorRole string) (Result, error) {
	r, err := e.results.Get(ctx, resultID)
	if err != nil {
		return Result{}, err
	}
	t, err := e.tests.GetTest(ctx, r.TestID)
	if err != nil {
		return Result{}, err
	}
	if !rbac.CanViewResult(actorRole, actorID, r.UserID, t.CreatedBy) {
		return Result{}, apperr.New(apperr.KindForbidden, "access denied")
	}
	return r, nil
}

// ListMine returns the caller's results, newest first.
func (e *Engine) ListMine(ctx context.Context, userID string) ([]Result, error) {
	return e.results.ListByUser(ctx, userID)
}

// ListForTest returns all results for a test, sorted by score descending.
// Restricted to the test's owning educator; admins bypass ownership.
func (e *Engine) ListForTest(ctx context.Context, testID, actorID, actorRole string) ([]Result, error) {
	t, err := e.tests.GetTest(ctx, testID)
	if err != nil {
		return nil, err
	}
	if actorRole != rbac.RoleAdmin && !rbac.CanMutateTest(actorRole, actorID, t.CreatedBy) {
		return nil, apperr.New(apperr.KindForbidden, "access denied")
	}
	return e.results.ListByTest(ctx, testID)
}

// percentage guards division by zero: a test with no marks yields 0%, not
// NaN. Rounded to two decimals.
func percentage(score, totalMarks int) float64 {
	if totalMarks <= 0 {
		return 0
	}
	p := float64(score) / float64(totalMarks) * 100
	return math.Round(p*100) / 100
}
