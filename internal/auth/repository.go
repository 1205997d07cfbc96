package auth

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/clinicdesk/frontdesk/internal/db"
)

var ErrUserNotFound = errors.New("user not found")

type Repository interface {
	GetByUsername(ctx context.Context, username string) (*User, error)
	Create(ctx context.Context, u User) (*User, error)
}

type PgRepository struct {
	q db.Querier
}

func NewPgRepository(q db.Querier) *PgRepository {
	return &PgRepository{q: q}
}

func (r *PgRepository) GetByUsername(ctx context.Context, username string) (*User, error) {
	var u User
	err := r.q.QueryRow(ctx, `
		SELECT id, username, password_hash, role, created_at
		FROM users
		WHERE username = $1
	`, username).Scan(&u.ID, &u.Username, &u.PasswordHash, &u.Role, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &u, nil
}

func (r *PgRepository) Create(ctx context.Context, u User) (*User, error) {
	var created User
	err := r.q.QueryRow(ctx, `
		INSERT INTO users (id, username, password_hash, role, created_at)
		VALUES ($1, $2, $3, $4, now())
		RETURNING id, username, password_hash, role, created_at
	`, uuid.New(), u.Username, u.PasswordHash, u.Role).Scan(
		&created.ID, &created.Username, &created.PasswordHash, &created.Role, &created.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &created, nil
}
