package submission

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"github.com/testifyhub/testifyhub/internal/apperr"
	"github.com/testifyhub/testifyhub/internal/db"
)

type Store interface {
	// Insert persists a new result. The (user_id, test_id) unique
	// constraint is the authoritative duplicate-submission guard: a
	// concurrent second writer gets Conflict from the store itself.
	Insert(ctx context.Context, r Result) error
	Exists(ctx context.Context, userID, testID string) (bool, error)
	Get(ctx context.Context, id string) (Result, error)
	ListByUser(ctx context.Context, userID string) ([]Result, error)
	ListByTest(ctx context.Context, testID string) ([]Result, error)
}

type SQLStore struct {
	db *sql.DB
}

func NewSQLStore(dbh *sql.DB) *SQLStore { return &SQLStore{db: dbh} }

func (s *SQLStore) Insert(ctx context.Context, r Result) error {
	answersJSON, err := json.Marshal(r.Answers)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO results (id,user_id,test_id,answers_json,score,total_marks,percentage,time_taken_min,status,created_at)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`,
		r.ID, r.UserID, r.TestID, string(answersJSON), r.Score, r.TotalMarks,
		r.Percentage, r.TimeTakenMin, r.Status, r.CreatedAt)
	if err != nil {
		if db.IsUniqueViolation(err) {
			return apperr.New(apperr.KindConflict, "test already submitted")
		}
		return err
	}
	return nil
}

func (s *SQLStore) Exists(ctx context.Context, userID, testID string) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx,
		`SELECT 1 FROM results WHERE user_id=$1 AND test_id=$2`, userID, testID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

const selectResult = `
SELECT r.id, r.user_id, r.test_id, r.answers_json, r.score, r.total_marks,
       r.percentage, r.time_taken_min, r.status, r.created_at,
       u.name, u.email, t.title, t.subject
FROM results r
JOIN users u ON u.id = r.user_id
JOIN tests t ON t.id = r.test_id`

func (s *SQLStore) Get(ctx context.Context, id string) (Result, error) {
	row := s.db.QueryRowContext(ctx, selectResult+` WHERE r.id=$1`, id)
	r, err := scanResult(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return Result{}, apperr.New(apperr.KindNotFound, "result not found")
	}
	return r, err
}

func (s *SQLStore) ListByUser(ctx context.Context, userID string) ([]Result, error) {
	return s.list(ctx, selectResult+` WHERE r.user_id=$1 ORDER BY r.created_at DESC`, userID)
}

func (s *SQLStore) ListByTest(ctx context.Context, testID string) ([]Result, error) {
	return s.list(ctx, selectResult+` WHERE r.test_id=$1 ORDER BY r.score DESC`, testID)
}

func (s *SQLStore) list(ctx context.Context, query string, arg any) ([]Result, error) {
	rows, err := s.db.QueryContext(ctx, query, arg)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Result{}
	for rows.Next() {
		r, err := scanResult(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func scanResult(scan func(...any) error) (Result, error) {
	var r Result
	var answersJSON string
	err := scan(&r.ID, &r.UserID, &r.TestID, &answersJSON, &r.Score, &r.TotalMarks,
		&r.Percentage, &r.TimeTakenMin, &r.Status, &r.CreatedAt,
		&r.UserName, &r.UserEmail, &r.TestTitle, &r.TestSubject)
	if err != nil {
		return Result{}, err
	}
	if err := json.Unmarshal([]byte(answersJSON), &r.Answers); err != nil {
		r.Answers = []Answer{}
	}
	return r, nil
}
