package models

import "time"

// TokenPair — пара токенов, выдаваемая при успешном логине.
//
// Описание:
//   - AccessToken — короткоживущий JWT (подпись+exp, нигде не хранится);
//   - RefreshToken — случайный секрет, который клиент предъявляет
//     для выпуска нового access-токена; на сервере хранится только его хэш;
//   - AccessExpiresAt — момент истечения access-токена (UTC).
type TokenPair struct {
	// AccessToken — JWT для авторизации запросов.
	AccessToken string
	// RefreshToken — случайный секрет для обновления access-токена.
	RefreshToken string
	// AccessExpiresAt — время истечения действия access-токена (UTC).
	AccessExpiresAt time.Time
}

// AccessToken — результат обновления: новый access-токен без новой
// refresh-части (refresh-токен при обновлении не ротируется).
type AccessToken struct {
	Token     string
	ExpiresAt time.Time
}
