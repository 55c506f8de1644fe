package service

import (
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/invitame/auth-service/internal/models"
)

type accessClaims struct {
	UserID string `json:"uid"`
	Email  string `json:"email"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// generateAccessToken выпускает подписанный access-токен для аккаунта.
// Токен самодостаточен: подпись + exp полностью определяют валидность,
// в хранилище он не попадает.
func (s *Service) generateAccessToken(account *models.Account, now time.Time) (string, error) {
	const op = "service.token.generateAccessToken"

	claims := accessClaims{
		UserID: account.ID.String(),
		Email:  account.Email,
		Role:   string(account.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(s.cfg.AccessTokenTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    s.cfg.Issuer,
			Subject:   account.ID.String(),
			Audience:  jwt.ClaimStrings(s.cfg.Audience),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.cfg.JWTSecret))
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	return signed, nil
}

// validateAccessToken проверяет подпись, структуру и срок действия.
// Любая причина отказа сведена к ErrInvalidToken: наружу не уходит,
// какая именно проверка не прошла.
func (s *Service) validateAccessToken(tokenStr string) (uuid.UUID, string, models.Role, error) {
	const op = "service.token.validateAccessToken"

	token, err := jwt.ParseWithClaims(tokenStr, &accessClaims{},
		func(t *jwt.Token) (interface{}, error) {
			if t.Method != jwt.SigningMethodHS256 {
				return nil, fmt.Errorf("%s: %w", op, ErrInvalidToken)
			}

			return []byte(s.cfg.JWTSecret), nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithLeeway(5*time.Second),
		jwt.WithIssuer(s.cfg.Issuer),
		jwt.WithAudience(s.cfg.Audience...),
	)

	if err != nil {
		return uuid.Nil, "", "", fmt.Errorf("%s: %w", op, ErrInvalidToken)
	}

	claims, ok := token.Claims.(*accessClaims)
	if !ok || !token.Valid {
		return uuid.Nil, "", "", fmt.Errorf("%s: %w", op, ErrInvalidToken)
	}

	uid, err := uuid.Parse(claims.UserID)
	if err != nil {
		return uuid.Nil, "", "", fmt.Errorf("%s: %w", op, ErrInvalidToken)
	}

	return uid, claims.Email, models.ParseRole(claims.Role), nil
}

// newRefreshToken возвращает непрозрачный refresh-токен: случайный
// UUIDv4 (128 бит из CSPRNG), без каких-либо встроенных клеймов.
func newRefreshToken() string {
	return uuid.NewString()
}

// hashRefreshToken — sha256(plain)→base64url; в БД хранится только хэш,
// утечка таблицы сессий не раскрывает действующие токены.
func hashRefreshToken(plain string) string {
	sum := sha256.Sum256([]byte(plain))
	return base64.RawURLEncoding.EncodeToString(sum[:])
}
