package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/gofrs/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rs/zerolog/log"
)

type Repository interface {
	Create(ctx context.Context, u *User) (*User, error)
	GetByID(ctx context.Context, id uuid.UUID) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
}

type DB interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type repository struct {
	db DB
}

func NewRepository(db DB) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, u *User) (*User, error) {
	id, err := uuid.NewV4()
	if err != nil {
		return nil, fmt.Errorf("repository: failed to generate user id: %w", err)
	}

	query := `
		INSERT INTO profiles (id, email, password, full_name, phone, is_admin, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW(), NOW())
		RETURNING created_at, updated_at
	`

	created := *u
	created.ID = id
	created.Email = normalizeEmail(u.Email)

	err = r.db.QueryRow(ctx, query,
		created.ID,
		created.Email,
		created.PasswordHash,
		created.FullName,
		created.Phone,
		created.IsAdmin,
	).Scan(&created.CreatedAt, &created.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			log.Warn().Str("email", created.Email).Msg("repository: email already exists")
			return nil, ErrEmailExists
		}
		return nil, fmt.Errorf("repository: failed to insert user: %w", err)
	}

	return &created, nil
}

const selectUser = `
	SELECT id, email, password, full_name, phone, is_admin, created_at, updated_at
	FROM profiles
`

func scanUser(row pgx.Row) (*User, error) {
	var u User
	err := row.Scan(
		&u.ID,
		&u.Email,
		&u.PasswordHash,
		&u.FullName,
		&u.Phone,
		&u.IsAdmin,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *repository) GetByID(ctx context.Context, id uuid.UUID) (*User, error) {
	u, err := scanUser(r.db.QueryRow(ctx, selectUser+" WHERE id = $1", id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("repository: failed to select user by id %s: %w", id, err)
	}
	return u, nil
}

func (r *repository) GetByEmail(ctx context.Context, email string) (*User, error) {
	u, err := scanUser(r.db.QueryRow(ctx, selectUser+" WHERE email = $1", normalizeEmail(email)))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("repository: failed to select user by email: %w", err)
	}
	return u, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
