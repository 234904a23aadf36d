package user

import (
	"context"
	"errors"

	usermodel "ChatGate/module/user/model"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotFound is returned when no user row matches.
var ErrNotFound = errors.New("user not found")

const userColumns = `id, username, email, hashed_password, is_active, created_at`

// Store reads and writes the users table.
type Store struct {
	pool *pgxpool.Pool
}

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// Create inserts a new user and returns the stored row.
func (s *Store) Create(ctx context.Context, username, email, hashedPassword string) (*usermodel.User, error) {
	row := s.pool.QueryRow(ctx,
		`INSERT INTO users (id, username, email, hashed_password, is_active)
		 VALUES ($1, $2, $3, $4, TRUE)
		 RETURNING `+userColumns,
		uuid.New(), username, email, hashedPassword)
	return scanUser(row)
}

// Exists reports whether a user with the username or email is already taken.
func (s *Store) Exists(ctx context.Context, username, email string) (bool, error) {
	var n int
	err := s.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM users WHERE username = $1 OR email = $2`,
		username, email).Scan(&n)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (s *Store) GetByUsername(ctx context.Context, username string) (*usermodel.User, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE username = $1`, username)
	return scanUser(row)
}

func (s *Store) GetByID(ctx context.Context, id uuid.UUID) (*usermodel.User, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	return scanUser(row)
}

func scanUser(row pgx.Row) (*usermodel.User, error) {
	var u usermodel.User
	err := row.Scan(&u.ID, &u.Username, &u.Email, &u.HashedPassword, &u.IsActive, &u.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}
