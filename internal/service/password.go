package service

import (
	"fmt"
	"unicode"

	"golang.org/x/crypto/bcrypt"
)

// dummyHash — структурно валидный bcrypt-дайджест, против которого
// прогоняется проверка пароля при отсутствии аккаунта: время ответа
// остаётся сопоставимым со случаем «аккаунт есть, пароль не подошёл».
const dummyHash = "$2a$10$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy"

// hashPassword хэширует пароль с помощью bcrypt с заданной стоимостью.
// Соль генерируется заново на каждый вызов: два хэша одного пароля
// никогда не совпадают.
func (s *Service) hashPassword(password string) (string, error) {
	const op = "service.password.hashPassword"

	bytes, err := bcrypt.GenerateFromPassword([]byte(password), s.cfg.BcryptCost)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	return string(bytes), nil
}

// checkPassword сравнивает пароль с хэшем. Некорректный дайджест —
// просто false, паники и ошибки наружу не выходят.
func checkPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// validatePassword проверяет минимальные требования к новому паролю.
// Политика по умолчанию: длина >= 8, хотя бы одна строчная, заглавная,
// цифра и спецсимвол.
func validatePassword(pw string) error {
	const op = "service.password.validatePassword"

	if len(pw) == 0 {
		return fmt.Errorf("%s: %w", op, ErrEmptyPassword)
	}

	if len([]rune(pw)) < 8 {
		return fmt.Errorf("%s: %w", op, ErrWeakPassword)
	}

	var hasLower, hasUpper, hasDigit, hasSpecial bool
	for _, r := range pw {
		switch {
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsDigit(r):
			hasDigit = true
		case unicode.IsPunct(r) || unicode.IsSymbol(r):
			hasSpecial = true
		}
	}

	if !(hasLower && hasUpper && hasDigit && hasSpecial) {
		return fmt.Errorf("%s: %w", op, ErrWeakPassword)
	}

	return nil
}
