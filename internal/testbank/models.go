package testbank

// Question types supported by the grading engine.
const (
	TypeMCQ         = "mcq"
	TypeTrueFalse   = "true_false"
	TypeShortAnswer = "short_answer"
)

func ValidType(t string) bool {
	switch t {
	case TypeMCQ, TypeTrueFalse, TypeShortAnswer:
		return true
	}
	return false
}

type Question struct {
	ID            string   `json:"id"`
	TestID        string   `json:"test_id"`
	Prompt        string   `json:"prompt"`
	Options       []string `json:"options,omitempty"` // mcq only
	CorrectAnswer string   `json:"correct_answer,omitempty"`
	Type          string   `json:"type"`
	Marks         int      `json:"marks"`
	Position      int      `json:"position"`
	CreatedAt     int64    `json:"created_at,omitempty"`
}

type Test struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Subject     string     `json:"subject"`
	DurationMin int        `json:"duration_min"`
	CreatedBy   string     `json:"created_by"`
	TotalMarks  int        `json:"total_marks"`
	IsActive    bool       `json:"is_active"`
	CreatedAt   int64      `json:"created_at,omitempty"`
	Questions   []Question `json:"questions,omitempty"`
}
