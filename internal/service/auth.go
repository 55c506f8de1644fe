package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/invitame/auth-service/internal/metrics"
	"github.com/invitame/auth-service/internal/models"
	"github.com/invitame/auth-service/internal/pkg/log"
	"github.com/invitame/auth-service/internal/pkg/redact"
	"github.com/invitame/auth-service/internal/storage"
)

// Login выполняет вход по email+пароль.
//
// Порядок стадий фиксирован: проверка лимита -> проверка учётных данных ->
// выпуск токенов -> сохранение сессии -> сброс лимитера. Любая неудачная
// проверка учётных данных (аккаунт не найден / пароль не подошёл)
// инкрементирует лимитер ровно один раз и снаружи неразличима.
func (s *Service) Login(ctx context.Context, email, password, clientKey string) (*models.TokenPair, *models.AccountSummary, error) {
	const op = "service.auth.Login"

	lg := log.From(ctx)

	// RATE_CHECK: заблокированный ключ отсекается до любых обращений к БД.
	st, err := s.limiter.Check(ctx, clientKey)
	if err != nil {
		lg.Error("limiter_check_failed",
			slog.String("op", op),
			slog.String("err", err.Error()),
		)
		metrics.LoginTotal.WithLabelValues(metrics.ResultError).Inc()
		return nil, nil, fmt.Errorf("%s: %w", op, err)
	}
	if !st.Allowed {
		lg.Warn("login_rate_limited",
			slog.String("op", op),
			slog.String("client_key", clientKey),
		)
		metrics.LoginTotal.WithLabelValues(metrics.ResultRateLimited).Inc()
		return nil, nil, fmt.Errorf("%s: %w", op, &RateLimitedError{ResetAt: st.ResetAt})
	}

	// CREDENTIAL_CHECK.
	normEmail := strings.ToLower(strings.TrimSpace(email))

	account, err := s.storage.AccountByEmail(ctx, normEmail)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			// Сжигаем сравнение против фиктивного хэша: время ответа
			// сопоставимо со случаем существующего аккаунта.
			checkPassword(dummyHash, password)
			return nil, nil, s.failLogin(ctx, op, clientKey, normEmail)
		}

		metrics.LoginTotal.WithLabelValues(metrics.ResultError).Inc()
		return nil, nil, fmt.Errorf("%s: %w", op, err)
	}

	if !checkPassword(account.PasswordHash, password) {
		return nil, nil, s.failLogin(ctx, op, clientKey, normEmail)
	}

	// TOKEN_ISSUE + SESSION_PERSIST.
	pair, err := s.issueTokens(ctx, account)
	if err != nil {
		metrics.LoginTotal.WithLabelValues(metrics.ResultError).Inc()
		return nil, nil, fmt.Errorf("%s: %w", op, err)
	}

	// Успех: ключ клиента получает полный лимит обратно. Сбой сброса не
	// отменяет уже состоявшийся логин — только запись в лог.
	if err := s.limiter.ResetOnSuccess(ctx, clientKey); err != nil {
		lg.Warn("limiter_reset_failed",
			slog.String("op", op),
			slog.String("err", err.Error()),
		)
	}

	metrics.LoginTotal.WithLabelValues(metrics.ResultSuccess).Inc()

	summary := account.Summary()

	return pair, &summary, nil
}

// failLogin — единый исход для «аккаунт не найден» и «пароль не подошёл»:
// одно событие лога, один инкремент лимитера, одна ошибка.
func (s *Service) failLogin(ctx context.Context, op, clientKey, normEmail string) error {
	lg := log.From(ctx)

	if err := s.limiter.RecordFailure(ctx, clientKey); err != nil {
		lg.Error("limiter_record_failed",
			slog.String("op", op),
			slog.String("err", err.Error()),
		)
	}

	lg.Warn("login_failed",
		slog.String("op", op),
		slog.String("email", redact.Email(normEmail)),
		slog.String("client_key", clientKey),
	)
	metrics.LoginTotal.WithLabelValues(metrics.ResultInvalidCredentials).Inc()

	return fmt.Errorf("%s: %w", op, ErrInvalidCredentials)
}

// Refresh выпускает новый access-токен по действующему refresh-токену.
// Сам refresh-токен не ротируется: то же значение остаётся валидным
// до собственного истечения или явного logout.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (*models.AccessToken, error) {
	const op = "service.auth.Refresh"

	lg := log.From(ctx)

	session, err := s.storage.SessionByTokenHash(ctx, hashRefreshToken(refreshToken))
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			lg.Warn("refresh_session_unknown", slog.String("op", op))
			metrics.RefreshTotal.WithLabelValues(metrics.ResultSessionExpired).Inc()
			return nil, fmt.Errorf("%s: %w", op, ErrSessionExpired)
		}

		metrics.RefreshTotal.WithLabelValues(metrics.ResultError).Inc()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	now := time.Now().UTC()
	if session.Expired(now) {
		// Запись мертва; подчистим её по пути, не завися от janitor-а.
		if err := s.storage.DeleteSession(ctx, session.TokenHash); err != nil && !errors.Is(err, storage.ErrNotFound) {
			lg.Warn("refresh_expired_cleanup_failed",
				slog.String("op", op),
				slog.String("err", err.Error()),
			)
		}

		lg.Warn("refresh_session_expired",
			slog.String("op", op),
			slog.String("account_id", session.AccountID.String()),
		)
		metrics.RefreshTotal.WithLabelValues(metrics.ResultSessionExpired).Inc()
		return nil, fmt.Errorf("%s: %w", op, ErrSessionExpired)
	}

	account, err := s.storage.AccountByID(ctx, session.AccountID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			// Аккаунт удалён — сессия осиротела, вести себя как при
			// истёкшей сессии.
			metrics.RefreshTotal.WithLabelValues(metrics.ResultSessionExpired).Inc()
			return nil, fmt.Errorf("%s: %w", op, ErrSessionExpired)
		}

		metrics.RefreshTotal.WithLabelValues(metrics.ResultError).Inc()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	signed, err := s.generateAccessToken(account, now)
	if err != nil {
		metrics.RefreshTotal.WithLabelValues(metrics.ResultError).Inc()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	metrics.RefreshTotal.WithLabelValues(metrics.ResultSuccess).Inc()

	return &models.AccessToken{
		Token:     signed,
		ExpiresAt: now.Add(s.cfg.AccessTokenTTL),
	}, nil
}

// Logout инвалидирует сессию предъявленного refresh-токена.
// Операция идемпотентна: неизвестный или уже удалённый токен — тоже успех,
// конечное состояние «активной сессии нет» достигнуто.
func (s *Service) Logout(ctx context.Context, refreshToken string) error {
	const op = "service.auth.Logout"

	metrics.LogoutTotal.Inc()

	if refreshToken == "" {
		return nil
	}

	if err := s.storage.DeleteSession(ctx, hashRefreshToken(refreshToken)); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil
		}

		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// ChangePassword меняет пароль аккаунта и снимает все прочие сессии.
// Сессия с keepRefreshToken (обычно — сессия, из которой инициирована
// смена) сохраняется, чтобы пользователь не разлогинился сам; пустая
// строка снимает все сессии без исключения.
func (s *Service) ChangePassword(ctx context.Context, accountID uuid.UUID, currentPassword, newPassword, keepRefreshToken string) error {
	const op = "service.auth.ChangePassword"

	lg := log.From(ctx)

	if err := validatePassword(newPassword); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	account, err := s.storage.AccountByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return fmt.Errorf("%s: %w", op, ErrAccountNotFound)
		}

		return fmt.Errorf("%s: %w", op, err)
	}

	if !checkPassword(account.PasswordHash, currentPassword) {
		lg.Warn("password_change_rejected",
			slog.String("op", op),
			slog.String("account_id", accountID.String()),
		)
		return fmt.Errorf("%s: %w", op, ErrInvalidCredentials)
	}

	hash, err := s.hashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if err := s.storage.UpdatePasswordHash(ctx, accountID, hash); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	exceptHash := ""
	if keepRefreshToken != "" {
		exceptHash = hashRefreshToken(keepRefreshToken)
	}

	removed, err := s.storage.DeleteAccountSessions(ctx, accountID, exceptHash)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	metrics.SessionsInvalidated.Add(float64(removed))

	lg.Info("password_changed",
		slog.String("op", op),
		slog.String("account_id", accountID.String()),
		slog.Int64("sessions_invalidated", removed),
	)

	return nil
}

// ValidateToken проверяет access-токен и возвращает идентичность и роль.
func (s *Service) ValidateToken(ctx context.Context, accessToken string) (uuid.UUID, string, models.Role, error) {
	const op = "service.auth.ValidateToken"

	uid, email, role, err := s.validateAccessToken(accessToken)
	if err != nil {
		return uuid.Nil, "", "", fmt.Errorf("%s: %w", op, err)
	}

	return uid, email, role, nil
}

// issueTokens выпускает пару access+refresh и сохраняет сессию.
// При коллизии хэша refresh-токена в БД генерация повторяется.
func (s *Service) issueTokens(ctx context.Context, account *models.Account) (*models.TokenPair, error) {
	const (
		op          = "service.auth.issueTokens"
		maxAttempts = 3
	)

	now := time.Now().UTC()

	accessToken, err := s.generateAccessToken(account, now)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	for attempt := 0; attempt < maxAttempts; attempt++ {
		plain := newRefreshToken()

		session := &models.Session{
			TokenHash: hashRefreshToken(plain),
			AccountID: account.ID,
			CreatedAt: now,
			ExpiresAt: now.Add(s.cfg.RefreshTokenTTL),
		}

		if err := s.storage.SaveSession(ctx, session); err != nil {
			if errors.Is(err, storage.ErrAlreadyExists) {
				// Коллизия UUID практически исключена, но попытка дешёвая.
				continue
			}

			return nil, fmt.Errorf("%s: %w", op, err)
		}

		return &models.TokenPair{
			AccessToken:     accessToken,
			RefreshToken:    plain,
			AccessExpiresAt: now.Add(s.cfg.AccessTokenTTL),
		}, nil
	}

	return nil, fmt.Errorf("%s: %w", op, ErrSessionCollision)
}
