package testbank

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/testifyhub/testifyhub/internal/apperr"
)

type SQLStore struct {
	db *sql.DB
}

func NewSQLStore(db *sql.DB) *SQLStore { return &SQLStore{db: db} }

func (s *SQLStore) CreateTest(ctx context.Context, t Test) (Test, error) {
	if strings.TrimSpace(t.Title) == "" || strings.TrimSpace(t.Subject) == "" || t.DurationMin <= 0 {
		return Test{}, apperr.New(apperr.KindInvalidRequest, "title, subject, and duration are required")
	}
	t.ID = uuid.NewString()
	t.CreatedAt = time.Now().Unix()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Test{}, err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO tests (id,title,subject,duration_min,created_by,total_marks,is_active,created_at)
		 VALUES ($1,$2,$3,$4,$5,0,$6,$7)`,
		t.ID, t.Title, t.Subject, t.DurationMin, t.CreatedBy, t.IsActive, t.CreatedAt)
	if err != nil {
		return Test{}, err
	}

	for i := range t.Questions {
		q := &t.Questions[i]
		q.TestID = t.ID
		q.Position = i
		if err := normalizeQuestion(q); err != nil {
			return Test{}, err
		}
		if err := insertQuestion(ctx, tx, *q); err != nil {
			return Test{}, err
		}
	}
	if err := recomputeTotalMarks(ctx, tx, t.ID); err != nil {
		return Test{}, err
	}
	if err := tx.Commit(); err != nil {
		return Test{}, err
	}
	return s.GetTestFull(ctx, t.ID)
}

func (s *SQLStore) GetTest(ctx context.Context, id string) (Test, error) {
	t, err := s.loadTest(ctx, id)
	if err != nil {
		return Test{}, err
	}
	// Strip answer keys when serving to students.
	for i := range t.Questions {
		t.Questions[i].CorrectAnswer = ""
	}
	return t, nil
}

func (s *SQLStore) GetTestFull(ctx context.Context, id string) (Test, error) {
	return s.loadTest(ctx, id)
}

func (s *SQLStore) loadTest(ctx context.Context, id string) (Test, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id,title,subject,duration_min,created_by,total_marks,is_active,created_at
		 FROM tests WHERE id=$1`, id)
	var t Test
	if err := row.Scan(&t.ID, &t.Title, &t.Subject, &t.DurationMin, &t.CreatedBy,
		&t.TotalMarks, &t.IsActive, &t.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Test{}, apperr.New(apperr.KindNotFound, "test not found")
		}
		return Test{}, err
	}
	qs, err := s.ListQuestions(ctx, id)
	if err != nil {
		return Test{}, err
	}
	t.Questions = qs
	return t, nil
}

func (s *SQLStore) ListTests(ctx context.Context, opts ListOpts) ([]Test, error) {
	var (
		rows *sql.Rows
		err  error
	)
	const base = `SELECT id,title,subject,duration_min,created_by,total_marks,is_active,created_at FROM tests`
	switch opts.ViewerRole {
	case "educator":
		rows, err = s.db.QueryContext(ctx, base+` WHERE created_by=$1 ORDER BY created_at DESC`, opts.ViewerID)
	case "student":
		rows, err = s.db.QueryContext(ctx, base+` WHERE is_active=$1 ORDER BY created_at DESC`, true)
	default: // admin
		rows, err = s.db.QueryContext(ctx, base+` ORDER BY created_at DESC`)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Test{}
	for rows.Next() {
		var t Test
		if err := rows.Scan(&t.ID, &t.Title, &t.Subject, &t.DurationMin, &t.CreatedBy,
			&t.TotalMarks, &t.IsActive, &t.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (s *SQLStore) UpdateTest(ctx context.Context, id string, patch TestPatch) (Test, error) {
	t, err := s.loadTest(ctx, id)
	if err != nil {
		return Test{}, err
	}
	if patch.Title != nil {
		t.Title = *patch.Title
	}
	if patch.Subject != nil {
		t.Subject = *patch.Subject
	}
	if patch.DurationMin != nil {
		t.DurationMin = *patch.DurationMin
	}
	if patch.IsActive != nil {
		t.IsActive = *patch.IsActive
	}
	if strings.TrimSpace(t.Title) == "" || strings.TrimSpace(t.Subject) == "" || t.DurationMin <= 0 {
		return Test{}, apperr.New(apperr.KindInvalidRequest, "title, subject, and duration are required")
	}
	_, err = s.db.ExecContext(ctx,
		`UPDATE tests SET title=$1, subject=$2, duration_min=$3, is_active=$4 WHERE id=$5`,
		t.Title, t.Subject, t.DurationMin, t.IsActive, id)
	if err != nil {
		return Test{}, err
	}
	return s.loadTest(ctx, id)
}

func (s *SQLStore) DeleteTest(ctx context.Context, id string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM questions WHERE test_id=$1`, id); err != nil {
		return err
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM tests WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperr.New(apperr.KindNotFound, "test not found")
	}
	return tx.Commit()
}

func (s *SQLStore) AddQuestion(ctx context.Context, q Question) (Question, error) {
	if err := normalizeQuestion(&q); err != nil {
		return Question{}, err
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Question{}, err
	}
	defer tx.Rollback()

	var exists int
	if err := tx.QueryRowContext(ctx, `SELECT 1 FROM tests WHERE id=$1`, q.TestID).Scan(&exists); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Question{}, apperr.New(apperr.KindNotFound, "test not found")
		}
		return Question{}, err
	}
	if err := tx.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(position),-1)+1 FROM questions WHERE test_id=$1`, q.TestID).Scan(&q.Position); err != nil {
		return Question{}, err
	}
	if err := insertQuestion(ctx, tx, q); err != nil {
		return Question{}, err
	}
	if err := recomputeTotalMarks(ctx, tx, q.TestID); err != nil {
		return Question{}, err
	}
	if err := tx.Commit(); err != nil {
		return Question{}, err
	}
	return q, nil
}

func (s *SQLStore) GetQuestion(ctx context.Context, id string) (Question, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id,test_id,position,prompt,options_json,correct_answer,qtype,marks,created_at
		 FROM questions WHERE id=$1`, id)
	return scanQuestion(row)
}

func (s *SQLStore) ListQuestions(ctx context.Context, testID string) ([]Question, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id,test_id,position,prompt,options_json,correct_answer,qtype,marks,created_at
		 FROM questions WHERE test_id=$1 ORDER BY position`, testID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Question{}
	for rows.Next() {
		var q Question
		var optsJSON string
		if err := rows.Scan(&q.ID, &q.TestID, &q.Position, &q.Prompt, &optsJSON,
			&q.CorrectAnswer, &q.Type, &q.Marks, &q.CreatedAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(optsJSON), &q.Options); err != nil {
			q.Options = nil
		}
		out = append(out, q)
	}
	return out, rows.Err()
}

func (s *SQLStore) UpdateQuestion(ctx context.Context, id string, patch QuestionPatch) (Question, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Question{}, err
	}
	defer tx.Rollback()

	q, err := scanQuestion(tx.QueryRowContext(ctx,
		`SELECT id,test_id,position,prompt,options_json,correct_answer,qtype,marks,created_at
		 FROM questions WHERE id=$1`, id))
	if err != nil {
		return Question{}, err
	}
	if patch.Prompt != nil {
		q.Prompt = *patch.Prompt
	}
	if patch.Options != nil {
		q.Options = *patch.Options
	}
	if patch.CorrectAnswer != nil {
		q.CorrectAnswer = *patch.CorrectAnswer
	}
	if patch.Type != nil {
		q.Type = *patch.Type
	}
	if patch.Marks != nil {
		q.Marks = *patch.Marks
	}
	if err := normalizeQuestion(&q); err != nil {
		return Question{}, err
	}
	optsJSON, err := json.Marshal(optionsOrEmpty(q.Options))
	if err != nil {
		return Question{}, err
	}
	_, err = tx.ExecContext(ctx,
		`UPDATE questions SET prompt=$1, options_json=$2, correct_answer=$3, qtype=$4, marks=$5 WHERE id=$6`,
		q.Prompt, string(optsJSON), q.CorrectAnswer, q.Type, q.Marks, id)
	if err != nil {
		return Question{}, err
	}
	if err := recomputeTotalMarks(ctx, tx, q.TestID); err != nil {
		return Question{}, err
	}
	if err := tx.Commit(); err != nil {
		return Question{}, err
	}
	return q, nil
}

func (s *SQLStore) DeleteQuestion(ctx context.Context, id string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var testID string
	if err := tx.QueryRowContext(ctx, `SELECT test_id FROM questions WHERE id=$1`, id).Scan(&testID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return apperr.New(apperr.KindNotFound, "question not found")
		}
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM questions WHERE id=$1`, id); err != nil {
		return err
	}
	if err := recomputeTotalMarks(ctx, tx, testID); err != nil {
		return err
	}
	return tx.Commit()
}

// recomputeTotalMarks is the single enforcement point for the
// Test.TotalMarks invariant; every question mutation calls it inside the
// same transaction.
func recomputeTotalMarks(ctx context.Context, tx *sql.Tx, testID string) error {
	_, err := tx.ExecContext(ctx,
		`UPDATE tests
		 SET total_marks = (SELECT COALESCE(SUM(marks),0) FROM questions WHERE test_id=$1)
		 WHERE id=$1`, testID)
	return err
}

func normalizeQuestion(q *Question) error {
	if strings.TrimSpace(q.Prompt) == "" || strings.TrimSpace(q.CorrectAnswer) == "" || q.Type == "" {
		return apperr.New(apperr.KindInvalidRequest, "prompt, correct answer, and type are required")
	}
	if !ValidType(q.Type) {
		return apperr.Newf(apperr.KindInvalidRequest, "unknown question type %q", q.Type)
	}
	if q.Type == TypeMCQ && len(q.Options) == 0 {
		return apperr.New(apperr.KindInvalidRequest, "options are required for mcq questions")
	}
	if q.Marks == 0 {
		q.Marks = 1
	}
	if q.Marks < 1 {
		return apperr.New(apperr.KindInvalidRequest, "marks must be at least 1")
	}
	if q.ID == "" {
		q.ID = uuid.NewString()
	}
	if q.CreatedAt == 0 {
		q.CreatedAt = time.Now().Unix()
	}
	return nil
}

func insertQuestion(ctx context.Context, tx *sql.Tx, q Question) error {
	optsJSON, err := json.Marshal(optionsOrEmpty(q.Options))
	if err != nil {
		return err
	}
	_, err = tx.ExecContext(ctx,
		`INSERT INTO questions (id,test_id,position,prompt,options_json,correct_answer,qtype,marks,created_at)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`,
		q.ID, q.TestID, q.Position, q.Prompt, string(optsJSON), q.CorrectAnswer, q.Type, q.Marks, q.CreatedAt)
	return err
}

func scanQuestion(row *sql.Row) (Question, error) {
	var q Question
	var optsJSON string
	err := row.Scan(&q.ID, &q.TestID, &q.Position, &q.Prompt, &optsJSON,
		&q.CorrectAnswer, &q.Type, &q.Marks, &q.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Question{}, apperr.New(apperr.KindNotFound, "question not found")
	}
	if err != nil {
		return Question{}, err
	}
	if err := json.Unmarshal([]byte(optsJSON), &q.Options); err != nil {
		q.Options = nil
	}
	return q, nil
}

func optionsOrEmpty(opts []string) []string {
	if opts == nil {
		return []string{}
	}
	return opts
}
