package testbank

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/testifyhub/testifyhub/internal/apperr"
	"github.com/testifyhub/testifyhub/internal/db"
)

func newTestDB(t *testing.T) *sql.DB {
	t.Helper()
	dbh, err := db.Open(context.Background(), db.DriverSQLite, filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { dbh.Close() })
	return dbh
}

func insertUser(t *testing.T, dbh *sql.DB, role string) string {
	t.Helper()
	id := uuid.NewString()
	_, err := dbh.Exec(
		`INSERT INTO users (id,name,email,password_hash,role,created_at) VALUES ($1,$2,$3,$4,$5,$6)`,
		id, "user "+id[:8], id[:8]+"@example.com", "x", role, time.Now().Unix())
	if err != nil {
		t.Fatalf("insertUser: %v", err)
	}
	return id
}

func mcq(prompt, correct string, marks int) Question {
	return Question{
		Prompt:        prompt,
		Options:       []string{"A", "B", "C", "D"},
		CorrectAnswer: correct,
		Type:          TypeMCQ,
		Marks:         marks,
	}
}

func TestCreateTestComputesTotalMarks(t *testing.T) {
	dbh := newTestDB(t)
	s := NewSQLStore(dbh)
	owner := insertUser(t, dbh, "educator")
	ctx := context.Background()

	created, err := s.CreateTest(ctx, Test{
		Title:       "Biology 101",
		Subject:     "Biology",
		DurationMin: 30,
		CreatedBy:   owner,
		IsActive:    true,
		Questions:   []Question{mcq("Q1", "A", 2), mcq("Q2", "B", 3)},
	})
	if err != nil {
		t.Fatalf("CreateTest: %v", err)
	}
	if created.TotalMarks != 5 {
		t.Errorf("TotalMarks = %d, want 5", created.TotalMarks)
	}
	if len(created.Questions) != 2 {
		t.Fatalf("expected 2 questions, got %d", len(created.Questions))
	}
	if created.Questions[0].Prompt != "Q1" || created.Questions[1].Prompt != "Q2" {
		t.Errorf("question order not preserved: %q, %q", created.Questions[0].Prompt, created.Questions[1].Prompt)
	}
}

func TestCreateTestValidation(t *testing.T) {
	dbh := newTestDB(t)
	s := NewSQLStore(dbh)
	owner := insertUser(t, dbh, "educator")
	ctx := context.Background()

	_, err := s.CreateTest(ctx, Test{Subject: "Math", DurationMin: 10, CreatedBy: owner})
	if !apperr.IsKind(err, apperr.KindInvalidRequest) {
		t.Errorf("missing title: got %v, want InvalidRequest", err)
	}

	_, err = s.CreateTest(ctx, Test{Title: "T", Subject: "Math", DurationMin: 0, CreatedBy: owner})
	if !apperr.IsKind(err, apperr.KindInvalidRequest) {
		t.Errorf("zero duration: got %v, want InvalidRequest", err)
	}

	// Invalid question rolls back the whole create.
	_, err = s.CreateTest(ctx, Test{
		Title: "T", Subject: "Math", DurationMin: 10, CreatedBy: owner,
		Questions: []Question{{Prompt: "Q", CorrectAnswer: "A", Type: "guess"}},
	})
	if !apperr.IsKind(err, apperr.KindInvalidRequest) {
		t.Errorf("bad question type: got %v, want InvalidRequest", err)
	}
	tests, err := s.ListTests(ctx, ListOpts{ViewerRole: "admin"})
	if err != nil {
		t.Fatalf("ListTests: %v", err)
	}
	if len(tests) != 0 {
		t.Errorf("expected no tests after failed creates, got %d", len(tests))
	}
}

func TestTotalMarksInvariantAcrossQuestionMutations(t *testing.T) {
	dbh := newTestDB(t)
	s := NewSQLStore(dbh)
	owner := insertUser(t, dbh, "educator")
	ctx := context.Background()

	created, err := s.CreateTest(ctx, Test{
		Title: "T", Subject: "S", DurationMin: 20, CreatedBy: owner, IsActive: true,
		Questions: []Question{mcq("Q1", "A", 2), mcq("Q2", "B", 3)},
	})
	if err != nil {
		t.Fatalf("CreateTest: %v", err)
	}

	// Add marks=3: 5 -> 8.
	q := mcq("Q3", "C", 3)
	q.TestID = created.ID
	added, err := s.AddQuestion(ctx, q)
	if err != nil {
		t.Fatalf("AddQuestion: %v", err)
	}
	got, _ := s.GetTestFull(ctx, created.ID)
	if got.TotalMarks != 8 {
		t.Errorf("after add: TotalMarks = %d, want 8", got.TotalMarks)
	}

	// Change marks 3 -> 5: 8 -> 10.
	newMarks := 5
	if _, err := s.UpdateQuestion(ctx, added.ID, QuestionPatch{Marks: &newMarks}); err != nil {
		t.Fatalf("UpdateQuestion: %v", err)
	}
	got, _ = s.GetTestFull(ctx, created.ID)
	if got.TotalMarks != 10 {
		t.Errorf("after update: TotalMarks = %d, want 10", got.TotalMarks)
	}

	// Delete: 10 -> 5.
	if err := s.DeleteQuestion(ctx, added.ID); err != nil {
		t.Fatalf("DeleteQuestion: %v", err)
	}
	got, _ = s.GetTestFull(ctx, created.ID)
	if got.TotalMarks != 5 {
		t.Errorf("after delete: TotalMarks = %d, want 5", got.TotalMarks)
	}
}

func TestQuestionValidation(t *testing.T) {
	dbh := newTestDB(t)
	s := NewSQLStore(dbh)
	owner := insertUser(t, dbh, "educator")
	ctx := context.Background()

	created, err := s.CreateTest(ctx, Test{Title: "T", Subject: "S", DurationMin: 20, CreatedBy: owner})
	if err != nil {
		t.Fatalf("CreateTest: %v", err)
	}

	// Marks defaults to 1.
	q := Question{TestID: created.ID, Prompt: "Q", CorrectAnswer: "true", Type: TypeTrueFalse}
	added, err := s.AddQuestion(ctx, q)
	if err != nil {
		t.Fatalf("AddQuestion: %v", err)
	}
	if added.Marks != 1 {
		t.Errorf("default Marks = %d, want 1", added.Marks)
	}

	// Negative marks rejected.
	bad := Question{TestID: created.ID, Prompt: "Q", CorrectAnswer: "true", Type: TypeTrueFalse, Marks: -2}
	if _, err := s.AddQuestion(ctx, bad); !apperr.IsKind(err, apperr.KindInvalidRequest) {
		t.Errorf("negative marks: got %v, want InvalidRequest", err)
	}

	// MCQ needs options.
	noOpts := Question{TestID: created.ID, Prompt: "Q", CorrectAnswer: "A", Type: TypeMCQ}
	if _, err := s.AddQuestion(ctx, noOpts); !apperr.IsKind(err, apperr.KindInvalidRequest) {
		t.Errorf("mcq without options: got %v, want InvalidRequest", err)
	}

	// Unknown test.
	orphan := Question{TestID: "missing", Prompt: "Q", CorrectAnswer: "true", Type: TypeTrueFalse}
	if _, err := s.AddQuestion(ctx, orphan); !apperr.IsKind(err, apperr.KindNotFound) {
		t.Errorf("unknown test: got %v, want NotFound", err)
	}
}

func TestGetTestStripsAnswerKeys(t *testing.T) {
	dbh := newTestDB(t)
	s := NewSQLStore(dbh)
	owner := insertUser(t, dbh, "educator")
	ctx := context.Background()

	created, err := s.CreateTest(ctx, Test{
		Title: "T", Subject: "S", DurationMin: 20, CreatedBy: owner, IsActive: true,
		Questions: []Question{mcq("Q1", "A", 1)},
	})
	if err != nil {
		t.Fatalf("CreateTest: %v", err)
	}

	safe, err := s.GetTest(ctx, created.ID)
	if err != nil {
		t.Fatalf("GetTest: %v", err)
	}
	if safe.Questions[0].CorrectAnswer != "" {
		t.Errorf("student-safe test leaked the answer key %q", safe.Questions[0].CorrectAnswer)
	}

	full, err := s.GetTestFull(ctx, created.ID)
	if err != nil {
		t.Fatalf("GetTestFull: %v", err)
	}
	if full.Questions[0].CorrectAnswer != "A" {
		t.Errorf("full test missing the answer key, got %q", full.Questions[0].CorrectAnswer)
	}
}

func TestListTestsRoleScoping(t *testing.T) {
	dbh := newTestDB(t)
	s := NewSQLStore(dbh)
	ed1 := insertUser(t, dbh, "educator")
	ed2 := insertUser(t, dbh, "educator")
	ctx := context.Background()

	mk := func(owner string, active bool) {
		t.Helper()
		_, err := s.CreateTest(ctx, Test{Title: "T", Subject: "S", DurationMin: 10, CreatedBy: owner, IsActive: active})
		if err != nil {
			t.Fatalf("CreateTest: %v", err)
		}
	}
	mk(ed1, true)
	mk(ed1, false)
	mk(ed2, true)

	cases := []struct {
		name string
		opts ListOpts
		want int
	}{
		{"educator sees own", ListOpts{ViewerID: ed1, ViewerRole: "educator"}, 2},
		{"student sees active", ListOpts{ViewerRole: "student"}, 2},
		{"admin sees all", ListOpts{ViewerRole: "admin"}, 3},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := s.ListTests(ctx, tc.opts)
			if err != nil {
				t.Fatalf("ListTests: %v", err)
			}
			if len(got) != tc.want {
				t.Errorf("got %d tests, want %d", len(got), tc.want)
			}
		})
	}
}

func TestDeleteTestCascadesToQuestions(t *testing.T) {
	dbh := newTestDB(t)
	s := NewSQLStore(dbh)
	owner := insertUser(t, dbh, "educator")
	ctx := context.Background()

	created, err := s.CreateTest(ctx, Test{
		Title: "T", Subject: "S", DurationMin: 20, CreatedBy: owner,
		Questions: []Question{mcq("Q1", "A", 1), mcq("Q2", "B", 1)},
	})
	if err != nil {
		t.Fatalf("CreateTest: %v", err)
	}

	if err := s.DeleteTest(ctx, created.ID); err != nil {
		t.Fatalf("DeleteTest: %v", err)
	}
	if _, err := s.GetTestFull(ctx, created.ID); !apperr.IsKind(err, apperr.KindNotFound) {
		t.Errorf("deleted test: got %v, want NotFound", err)
	}
	qs, err := s.ListQuestions(ctx, created.ID)
	if err != nil {
		t.Fatalf("ListQuestions: %v", err)
	}
	if len(qs) != 0 {
		t.Errorf("expected no questions after cascade, got %d", len(qs))
	}

	if err := s.DeleteTest(ctx, created.ID); !apperr.IsKind(err, apperr.KindNotFound) {
		t.Errorf("double delete: got %v, want NotFound", err)
	}
}

func TestUpdateTestPatch(t *testing.T) {
	dbh := newTestDB(t)
	s := NewSQLStore(dbh)
	owner := insertUser(t, dbh, "educator")
	ctx := context.Background()

	created, err := s.CreateTest(ctx, Test{Title: "Old", Subject: "S", DurationMin: 20, CreatedBy: owner, IsActive: true})
	if err != nil {
		t.Fatalf("CreateTest: %v", err)
	}

	title := "New"
	inactive := false
	updated, err := s.UpdateTest(ctx, created.ID, TestPatch{Title: &title, IsActive: &inactive})
	if err != nil {
		t.Fatalf("UpdateTest: %v", err)
	}
	if updated.Title != "New" || updated.IsActive {
		t.Errorf("patch not applied: title=%q active=%v", updated.Title, updated.IsActive)
	}
	if updated.Subject != "S" || updated.DurationMin != 20 {
		t.Errorf("untouched fields changed: subject=%q duration=%d", updated.Subject, updated.DurationMin)
	}
}
