// service содержит бизнес-логику ядра аутентификации:
// проверку учётных данных с защитой от перебора, выпуск/проверку токенов,
// управление сессиями и смену пароля.
//
// Основные аспекты:
//   - Пакет не хранит состояние запроса внутри Service; экземпляр Service
//     безопасен для конкурентного использования из разных горутин при условии,
//     что переданные хранилище (storage.Storage) и лимитер потокобезопасны.
//   - «Аккаунт не найден» и «пароль не подошёл» неразличимы снаружи на всех
//     уровнях, включая события логов — защита от перечисления аккаунтов.
//   - Ошибки возвращаются обёрнутыми и далее маппятся транспортом на
//     HTTP-коды (см. комментарии к переменным ошибок ниже).
package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/invitame/auth-service/internal/config"
	"github.com/invitame/auth-service/internal/limiter"
	"github.com/invitame/auth-service/internal/storage"
)

var (
	// ErrInvalidCredentials — пара email/пароль неверна или аккаунт не найден.
	// Случаи намеренно неразличимы. Транспорт: 401 invalid_credentials.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrRateLimited — ключ клиента исчерпал лимит неудачных попыток.
	// Конкретный экземпляр — *RateLimitedError с подсказкой ResetAt.
	// Транспорт: 429 rate_limited (+ Retry-After).
	ErrRateLimited = errors.New("rate limited")

	// ErrInvalidToken — access-токен не прошёл проверку. Любая причина
	// (подпись, структура, истечение) сведена к одному виду, чтобы не
	// раскрывать, какая именно проверка не прошла.
	// Транспорт: 401 unauthenticated.
	ErrInvalidToken = errors.New("invalid token")

	// ErrSessionExpired — refresh-токен неизвестен либо его сессия истекла;
	// клиент должен пройти полный логин. Транспорт: 401 session_expired.
	ErrSessionExpired = errors.New("session expired")

	// ErrAccountNotFound — аккаунт с указанным ID не существует
	// (смена пароля). Транспорт: 404 not_found.
	ErrAccountNotFound = errors.New("account not found")

	// ErrWeakPassword — новый пароль не удовлетворяет политике сложности.
	// Транспорт: 400 invalid_argument.
	ErrWeakPassword = errors.New("password is too weak")

	// ErrEmptyPassword — пароль пустой. Транспорт: 400 invalid_argument.
	ErrEmptyPassword = errors.New("password is empty")

	// ErrSessionCollision — исчерпаны попытки сгенерировать уникальный
	// refresh-токен (коллизия хэша при сохранении сессии после ретраев).
	// Транспорт: 500 internal.
	ErrSessionCollision = errors.New("session token collision")
)

// RateLimitedError несёт подсказку resetAt для сообщения клиенту.
// Сопоставляется с ErrRateLimited через errors.Is.
type RateLimitedError struct {
	ResetAt time.Time
}

func (e *RateLimitedError) Error() string {
	return fmt.Sprintf("rate limited until %s", e.ResetAt.Format(time.RFC3339))
}

func (e *RateLimitedError) Is(target error) bool {
	return target == ErrRateLimited
}

// Service описывает бизнес-логику ядра аутентификации.
type Service struct {
	storage storage.Storage
	limiter limiter.LoginLimiter
	cfg     config.AuthConfig
}

// New создаёт новый экземпляр Service. Лимитер и хранилище — явные
// зависимости композиционного корня: никакого глобального состояния
// внутри пакета нет, тесты свободно подставляют свои экземпляры.
func New(storage storage.Storage, limiter limiter.LoginLimiter, cfg config.AuthConfig) *Service {
	return &Service{
		storage: storage,
		limiter: limiter,
		cfg:     cfg,
	}
}
