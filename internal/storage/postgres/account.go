package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/invitame/auth-service/internal/models"
	"github.com/invitame/auth-service/internal/storage"
)

// AccountByEmail находит аккаунт по email. Колонка email имеет тип CITEXT,
// так что сравнение регистронезависимо и на стороне БД.
func (s *Storage) AccountByEmail(ctx context.Context, email string) (*models.Account, error) {
	const op = "storage.postgres.AccountByEmail"

	query := `
		SELECT id, email, display_name, password_hash, role, created_at, updated_at
		FROM accounts
		WHERE email = $1
	`

	acc, err := s.scanAccount(s.db.QueryRow(ctx, query, email))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, storage.ErrNotFound)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return acc, nil
}

// AccountByID находит аккаунт по ID.
func (s *Storage) AccountByID(ctx context.Context, id uuid.UUID) (*models.Account, error) {
	const op = "storage.postgres.AccountByID"

	query := `
		SELECT id, email, display_name, password_hash, role, created_at, updated_at
		FROM accounts
		WHERE id = $1
	`

	acc, err := s.scanAccount(s.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, storage.ErrNotFound)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return acc, nil
}

// UpdatePasswordHash заменяет хэш пароля аккаунта.
func (s *Storage) UpdatePasswordHash(ctx context.Context, id uuid.UUID, hash string) error {
	const op = "storage.postgres.UpdatePasswordHash"

	query := `
		UPDATE accounts
		SET password_hash = $2, updated_at = now()
		WHERE id = $1
	`

	cmdTag, err := s.db.Exec(ctx, query, id, hash)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if cmdTag.RowsAffected() == 0 {
		return fmt.Errorf("%s: %w", op, storage.ErrNotFound)
	}

	return nil
}

func (s *Storage) scanAccount(row pgx.Row) (*models.Account, error) {
	var (
		acc  models.Account
		role string
	)

	err := row.Scan(
		&acc.ID,
		&acc.Email,
		&acc.DisplayName,
		&acc.PasswordHash,
		&role,
		&acc.CreatedAt,
		&acc.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	acc.Role = models.ParseRole(role)

	return &acc, nil
}
