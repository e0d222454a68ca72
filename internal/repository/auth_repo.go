package repository

import (
	"database/sql"
	"errors"
	"fmt"

	ba "github.com/prairiewillow-rgb/Boiler-Assistant"
)

const (
	insertUserSQL = `
INSERT INTO users (username, password_hash)
VALUES (?, ?)`

	selectUserByUsernameSQL = `
SELECT id, username, password_hash
FROM users
WHERE username = ?`
)

// UserRepository persists operator accounts.
type UserRepository struct {
	db *sql.DB
}

func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

var _ Authorization = (*UserRepository)(nil)

// Create inserts a new user and returns its ID.
func (r *UserRepository) Create(username, passwordHash string) (int, error) {
	res, err := r.db.Exec(insertUserSQL, username, passwordHash)
	if err != nil {
		return 0, fmt.Errorf("insert user %q: %w", username, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("get last insert id for user %q: %w", username, err)
	}
	return int(id), nil
}

// GetByUsername looks a user up by name. A missing user is (nil, nil),
// not an error; the service layer decides how to report it.
func (r *UserRepository) GetByUsername(username string) (*ba.User, error) {
	var u ba.User
	err := r.db.QueryRow(selectUserByUsernameSQL, username).Scan(&u.ID, &u.Username, &u.PasswordHash)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return nil, nil
	case err != nil:
		return nil, fmt.Errorf("select user %q: %w", username, err)
	}
	return &u, nil
}
