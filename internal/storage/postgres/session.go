package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/invitame/auth-service/internal/models"
	"github.com/invitame/auth-service/internal/storage"
)

// SaveSession сохраняет новую сессию в БД.
func (s *Storage) SaveSession(ctx context.Context, session *models.Session) error {
	const op = "storage.postgres.SaveSession"

	query := `
        INSERT INTO sessions(token_hash, account_id, created_at, expires_at)
        VALUES ($1, $2, $3, $4)
    `

	_, err := s.db.Exec(ctx, query,
		session.TokenHash,
		session.AccountID,
		session.CreatedAt,
		session.ExpiresAt,
	)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return fmt.Errorf("%s: %w", op, storage.ErrAlreadyExists)
		}

		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// SessionByTokenHash находит сессию по хэшу refresh-токена.
func (s *Storage) SessionByTokenHash(ctx context.Context, hash string) (*models.Session, error) {
	const op = "storage.postgres.SessionByTokenHash"

	query := `
        SELECT token_hash, account_id, created_at, expires_at
        FROM sessions
        WHERE token_hash = $1
    `

	var session models.Session
	err := s.db.QueryRow(ctx, query, hash).Scan(
		&session.TokenHash,
		&session.AccountID,
		&session.CreatedAt,
		&session.ExpiresAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, storage.ErrNotFound)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &session, nil
}

// DeleteSession удаляет сессию по хэшу refresh-токена.
// Отсутствие записи — ErrNotFound; идемпотентность обеспечивает вызывающий.
func (s *Storage) DeleteSession(ctx context.Context, hash string) error {
	const op = "storage.postgres.DeleteSession"

	query := `
        DELETE FROM sessions
        WHERE token_hash = $1
    `

	cmdTag, err := s.db.Exec(ctx, query, hash)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if cmdTag.RowsAffected() == 0 {
		return fmt.Errorf("%s: %w", op, storage.ErrNotFound)
	}

	return nil
}

// DeleteAccountSessions удаляет все сессии аккаунта, кроме exceptHash
// (пустая строка — удалить все). Возвращает число удалённых записей.
func (s *Storage) DeleteAccountSessions(ctx context.Context, accountID uuid.UUID, exceptHash string) (int64, error) {
	const op = "storage.postgres.DeleteAccountSessions"

	query := `
        DELETE FROM sessions
        WHERE account_id = $1 AND token_hash <> $2
    `

	cmdTag, err := s.db.Exec(ctx, query, accountID, exceptHash)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	return cmdTag.RowsAffected(), nil
}

// DeleteExpiredSessions удаляет все просроченные сессии.
func (s *Storage) DeleteExpiredSessions(ctx context.Context, now time.Time) error {
	const op = "storage.postgres.DeleteExpiredSessions"

	query := `
        DELETE FROM sessions
        WHERE expires_at <= $1
    `

	_, err := s.db.Exec(ctx, query, now)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}
