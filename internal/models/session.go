package models

import (
	"time"

	"github.com/google/uuid"
)

// Session — серверная запись сессии, привязанная к refresh-токену.
//
// Описание:
//   - TokenHash — sha256(plain)→base64url; сам токен в БД не попадает,
//     предъявление plain-значения эквивалентно предъявлению сессии;
//   - AccountID — владелец сессии; у одного аккаунта может быть несколько
//     независимых сессий (мульти-девайс);
//   - ExpiresAt — жёсткий срок жизни; после него сессия недействительна
//     независимо от наличия записи.
type Session struct {
	TokenHash string
	AccountID uuid.UUID
	CreatedAt time.Time
	ExpiresAt time.Time
}

// Expired сообщает, истекла ли сессия на момент now.
func (s *Session) Expired(now time.Time) bool {
	return now.After(s.ExpiresAt)
}
