package models

import (
	"time"

	"github.com/google/uuid"
)

// Role — роль аккаунта в системе. Закрытое перечисление:
// administrator, editor, viewer. В JWT и в БД хранится строкой.
type Role string

const (
	RoleAdministrator Role = "administrator"
	RoleEditor        Role = "editor"
	RoleViewer        Role = "viewer"
)

// Valid сообщает, входит ли роль в закрытое перечисление.
func (r Role) Valid() bool {
	switch r {
	case RoleAdministrator, RoleEditor, RoleViewer:
		return true
	}

	return false
}

// ParseRole разбирает строковое представление роли.
// Неизвестные значения сводятся к RoleViewer — наименьший набор прав.
func ParseRole(s string) Role {
	r := Role(s)
	if !r.Valid() {
		return RoleViewer
	}

	return r
}

// Account — учётная запись пользователя платформы.
// Создание/удаление аккаунтов принадлежит соседнему сервису;
// здесь запись читается при логине, мутируется только PasswordHash
// при смене пароля.
type Account struct {
	ID           uuid.UUID
	Email        string // нормализованный (lowercase, trim)
	DisplayName  string
	PasswordHash string // bcrypt-дайджест, наружу не отдается
	Role         Role
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Summary возвращает безопасное для выдачи наружу представление аккаунта.
func (a *Account) Summary() AccountSummary {
	return AccountSummary{
		ID:          a.ID,
		Email:       a.Email,
		DisplayName: a.DisplayName,
		Role:        a.Role,
	}
}

// AccountSummary — публичная проекция аккаунта: без хэша пароля.
type AccountSummary struct {
	ID          uuid.UUID
	Email       string
	DisplayName string
	Role        Role
}
