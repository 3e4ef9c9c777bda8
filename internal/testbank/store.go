package testbank

import "context"

type ListOpts struct {
	ViewerID   string
	ViewerRole string // "student" | "educator" | "admin"
}

// TestPatch carries partial updates; nil fields are left unchanged.
type TestPatch struct {
	Title       *string `json:"title,omitempty"`
	Subject     *string `json:"subject,omitempty"`
	DurationMin *int    `json:"duration_min,omitempty"`
	IsActive    *bool   `json:"is_active,omitempty"`
}

type QuestionPatch struct {
	Prompt        *string   `json:"prompt,omitempty"`
	Options       *[]string `json:"options,omitempty"`
	CorrectAnswer *string   `json:"correct_answer,omitempty"`
	Type          *string   `json:"type,omitempty"`
	Marks         *int      `json:"marks,omitempty"`
}

// Store is the composer's persistence surface. Every question mutation and
// the owning test's total_marks update commit in one transaction, so
// Test.TotalMarks always equals the live sum of its questions' marks.
type Store interface {
	CreateTest(ctx context.Context, t Test) (Test, error)
	GetTest(ctx context.Context, id string) (Test, error)     // student-safe (no answer keys)
	GetTestFull(ctx context.Context, id string) (Test, error) // full test, for owners and grading
	ListTests(ctx context.Context, opts ListOpts) ([]Test, error)
	UpdateTest(ctx context.Context, id string, patch TestPatch) (Test, error)
	DeleteTest(ctx context.Context, id string) error

	AddQuestion(ctx context.Context, q Question) (Question, error)
	GetQuestion(ctx context.Context, id string) (Question, error)
	ListQuestions(ctx context.Context, testID string) ([]Question, error)
	UpdateQuestion(ctx context.Context, id string, patch QuestionPatch) (Question, error)
	DeleteQuestion(ctx context.Context, id string) error
}
