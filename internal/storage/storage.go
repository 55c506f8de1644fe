package storage

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/invitame/auth-service/internal/models"
)

var (
	// ErrNotFound — запись не найдена (аккаунт/сессия).
	ErrNotFound = errors.New("not found")
	// ErrAlreadyExists — нарушение уникальности (хэш refresh-токена).
	ErrAlreadyExists = errors.New("already exists")
)

// AccountStorage выполняет операции над аккаунтами.
// Создание и удаление аккаунтов принадлежит соседнему сервису платформы;
// здесь аккаунт читается и мутируется только в части хэша пароля.
type AccountStorage interface {
	// AccountByEmail находит аккаунт по нормализованному (lowercase) email.
	AccountByEmail(ctx context.Context, email string) (*models.Account, error)
	// AccountByID находит аккаунт по ID.
	AccountByID(ctx context.Context, id uuid.UUID) (*models.Account, error)
	// UpdatePasswordHash заменяет хэш пароля аккаунта.
	UpdatePasswordHash(ctx context.Context, id uuid.UUID, hash string) error
}

// SessionStorage выполняет операции над сессиями (refresh-токенами).
// Все операции одно-записные: межзаписных транзакций не требуется,
// сессии независимы друг от друга.
type SessionStorage interface {
	// SaveSession сохраняет новую сессию.
	SaveSession(ctx context.Context, session *models.Session) error
	// SessionByTokenHash находит сессию по хэшу refresh-токена.
	SessionByTokenHash(ctx context.Context, hash string) (*models.Session, error)
	// DeleteSession удаляет сессию по хэшу; отсутствие записи — ErrNotFound.
	DeleteSession(ctx context.Context, hash string) error
	// DeleteAccountSessions удаляет все сессии аккаунта, кроме сессии
	// с хэшем exceptHash (пустая строка — удалить все). Возвращает
	// число удалённых записей.
	DeleteAccountSessions(ctx context.Context, accountID uuid.UUID, exceptHash string) (int64, error)
	// DeleteExpiredSessions удаляет все просроченные сессии.
	DeleteExpiredSessions(ctx context.Context, now time.Time) error
}

// Storage задает контракт работы с БД.
type Storage interface {
	AccountStorage
	SessionStorage
	Close()
}
