package auth

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/testifyhub/testifyhub/internal/apperr"
	"github.com/testifyhub/testifyhub/internal/db"
)

type User struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Email        string `json:"email"`
	PasswordHash string `json:"-"`
	Role         string `json:"role"`
	CreatedAt    int64  `json:"created_at"`
}

// NormalizeEmail lowercases and trims; signup and login both go through it
// so the unique index sees one spelling per address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

type UserStore struct {
	db *sql.DB
}

func NewUserStore(dbh *sql.DB) *UserStore { return &UserStore{db: dbh} }

func (s *UserStore) CreateUser(ctx context.Context, u User) (User, error) {
	u.ID = uuid.NewString()
	u.Email = NormalizeEmail(u.Email)
	u.CreatedAt = time.Now().Unix()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO users (id,name,email,password_hash,role,created_at) VALUES ($1,$2,$3,$4,$5,$6)`,
		u.ID, u.Name, u.Email, u.PasswordHash, u.Role, u.CreatedAt)
	if err != nil {
		if db.IsUniqueViolation(err) {
			return User{}, apperr.New(apperr.KindConflict, "email already exists")
		}
		return User{}, err
	}
	return u, nil
}

func (s *UserStore) GetUserByEmail(ctx context.Context, email string) (User, error) {
	return s.scanUser(s.db.QueryRowContext(ctx,
		`SELECT id,name,email,password_hash,role,created_at FROM users WHERE email=$1`,
		NormalizeEmail(email)))
}

func (s *UserStore) GetUserByID(ctx context.Context, id string) (User, error) {
	return s.scanUser(s.db.QueryRowContext(ctx,
		`SELECT id,name,email,password_hash,role,created_at FROM users WHERE id=$1`, id))
}

func (s *UserStore) CountUsers(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&n)
	return n, err
}

func (s *UserStore) scanUser(row *sql.Row) (User, error) {
	var u User
	err := row.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.Role, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return User{}, apperr.New(apperr.KindNotFound, "user not found")
	}
	if err != nil {
		return User{}, err
	}
	return u, nil
}
