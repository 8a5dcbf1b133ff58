package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/kirillkom/study-library/internal/core/domain"
)

type UserRepository struct {
	db *sql.DB
}

func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	var u domain.User
	err := r.db.QueryRowContext(ctx, `
SELECT id, username, password, is_admin
FROM users
WHERE username = $1
`, username).Scan(&u.ID, &u.Username, &u.Password, &u.IsAdmin)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.WrapError(domain.ErrNotFound, "get user", fmt.Errorf("username=%s", username))
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	return &u, nil
}

// EnsureAdmin creates the admin row unless one already exists and reports whether it did.
func (r *UserRepository) EnsureAdmin(ctx context.Context, username, password string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
INSERT INTO users (username, password, is_admin)
VALUES ($1, $2, TRUE)
ON CONFLICT (username) DO NOTHING
`, username, password)
	if err != nil {
		return false, fmt.Errorf("ensure admin user: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("ensure admin rows affected: %w", err)
	}
	return affected == 1, nil
}
