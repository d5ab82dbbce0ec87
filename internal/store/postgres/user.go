package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/corkboard/corkboard/internal/domain"
)

type UserRepo struct {
	pool *pgxpool.Pool
}

func NewUserRepo(pool *pgxpool.Pool) *UserRepo {
	return &UserRepo{pool: pool}
}

const userColumns = `id, email, name, code_hash, code_issued_at, verified, github_login, created_at, updated_at`

func scanUser(row pgx.Row, op string) (*domain.User, error) {
	var u domain.User

	err := row.Scan(
		&u.ID, &u.Email, &u.Name, &u.CodeHash, &u.CodeIssuedAt,
		&u.Verified, &u.GitHubLogin, &u.CreatedAt, &u.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", op, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &u, nil
}

func (r *UserRepo) Create(ctx context.Context, u *domain.User) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO users (id, email, name, code_hash, code_issued_at, verified, github_login, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		u.ID, u.Email, u.Name, u.CodeHash, u.CodeIssuedAt,
		u.Verified, u.GitHubLogin, u.CreatedAt, u.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("userRepo.Create: %w", err)
	}

	return nil
}

func (r *UserRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = $1`, id)

	return scanUser(row, "userRepo.GetByID")
}

func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE lower(email) = lower($1)`, email)

	return scanUser(row, "userRepo.GetByEmail")
}

func (r *UserRepo) Update(ctx context.Context, u *domain.User) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE users SET email = $2, name = $3, github_login = $4, updated_at = $5 WHERE id = $1`,
		u.ID, u.Email, u.Name, u.GitHubLogin, u.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("userRepo.Update: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("userRepo.Update: %w", domain.ErrNotFound)
	}

	return nil
}

func (r *UserRepo) SetVerificationCode(ctx context.Context, id uuid.UUID, codeHash string, issuedAt time.Time) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE users SET code_hash = $2, code_issued_at = $3, updated_at = $3 WHERE id = $1`,
		id, codeHash, issuedAt,
	)
	if err != nil {
		return fmt.Errorf("userRepo.SetVerificationCode: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("userRepo.SetVerificationCode: %w", domain.ErrNotFound)
	}

	return nil
}

func (r *UserRepo) MarkVerified(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE users SET verified = TRUE, updated_at = now() WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("userRepo.MarkVerified: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("userRepo.MarkVerified: %w", domain.ErrNotFound)
	}

	return nil
}

func (r *UserRepo) GetByIDs(ctx context.Context, ids []uuid.UUID) ([]*domain.User, error) {
	if len(ids) == 0 {
		return []*domain.User{}, nil
	}

	rows, err := r.pool.Query(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = ANY($1) ORDER BY created_at`, ids)
	if err != nil {
		return nil, fmt.Errorf("userRepo.GetByIDs: %w", err)
	}
	defer rows.Close()

	users := make([]*domain.User, 0, len(ids))
	for rows.Next() {
		var u domain.User
		scanErr := rows.Scan(
			&u.ID, &u.Email, &u.Name, &u.CodeHash, &u.CodeIssuedAt,
			&u.Verified, &u.GitHubLogin, &u.CreatedAt, &u.UpdatedAt,
		)
		if scanErr != nil {
			return nil, fmt.Errorf("userRepo.GetByIDs: scan: %w", scanErr)
		}
		users = append(users, &u)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("userRepo.GetByIDs: %w", rows.Err())
	}

	return users, nil
}
