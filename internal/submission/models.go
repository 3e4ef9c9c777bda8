package submission

// StatusCompleted is the only status the engine writes; results are
// immutable once created.
const StatusCompleted = "Completed"

// Answer is one graded entry in a result's answer list.
type Answer struct {
	QuestionID string `json:"question_id"`
	Answer     string `json:"answer"`
	IsCorrect  bool   `json:"is_correct"`
}

// Result is the immutable record of one user's graded submission against
// one test. TotalMarks is snapshotted at submission time, never re-derived.
type Result struct {
	ID           string   `json:"id"`
	UserID       string   `json:"user_id"`
	TestID       string   `json:"test_id"`
	Answers      []Answer `json:"answers"`
	Score        int      `json:"score"`
	TotalMarks   int      `json:"total_marks"`
	Percentage   float64  `json:"percentage"`
	TimeTakenMin int      `json:"time_taken_min"`
	Status       string   `json:"status"`
	CreatedAt    int64    `json:"created_at"`

	// Resolved context, populated on reads.
	UserName    string `json:"user_name,omitempty"`
	UserEmail   string `json:"user_email,omitempty"`
	TestTitle   string `json:"test_title,omitempty"`
	TestSubject string `json:"test_subject,omitempty"`
}

// AnswerInput is a raw submitted answer before grading.
type AnswerInput struct {
	QuestionID string `json:"question_id"`
	Answer     string `json:"answer"`
}
