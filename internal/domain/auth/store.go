package auth

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jackc/pgx/v5"
)

var ErrUserNotFound = errors.New("user not found")

type AuthUser struct {
	ID           string
	Email        string
	PasswordHash string
	RoleName     string
	EmployeeID   string
}

// DB is the subset of pgxpool.Pool the store needs; pgxmock satisfies it in tests.
type DB interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type Store struct {
	DB DB
}

func NewStore(db DB) *Store {
	return &Store{DB: db}
}

func (s *Store) FindUserByEmail(ctx context.Context, email string) (AuthUser, error) {
	var user AuthUser
	var employeeID sql.NullString
	err := s.DB.QueryRow(ctx, `
    SELECT id, email, password_hash, role, employee_id
    FROM users
    WHERE email = $1
  `, email).Scan(&user.ID, &user.Email, &user.PasswordHash, &user.RoleName, &employeeID)
	if errors.Is(err, pgx.ErrNoRows) {
		return AuthUser{}, ErrUserNotFound
	}
	if err != nil {
		return AuthUser{}, err
	}
	if employeeID.Valid {
		user.EmployeeID = employeeID.String
	}
	return user, nil
}
