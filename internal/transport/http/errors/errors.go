// errors стандартизирует ответы об ошибках HTTP-слоя auth-service.
// На вход он принимает доменную ошибку сервисного слоя, а на выход даёт:
//   - корректный HTTP-статус;
//   - краткое безопасное message без утечки деталей.
//
// Источник истинности по маппингу: комментарии к sentinel-ошибкам
// пакета service.
package errors

import (
	"context"
	"encoding/json"
	goerrors "errors"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/invitame/auth-service/internal/service"
)

// Нестандартный код часто используемый для "клиент закрыл соединение".
const StatusClientClosedRequest = 499

// ErrInvalidArgument — локальная ошибка HTTP-слоя: тело запроса не
// разобралось или обязательное поле пустое. Маппится на 400.
var ErrInvalidArgument = goerrors.New("invalid argument")

// APIError — единый формат ошибки для клиента.
// Code — короткий стабильный код для машиночитаемой обработки.
// Message — безопасное человекочитаемое описание.
// RequestID — прокидывается из X-Request-Id, если есть (для трассировки).
type APIError struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"request_id,omitempty"`
}

// ErrorResponse — корневой объект в ответе.
type ErrorResponse struct {
	Error APIError `json:"error"`
}

// ToHTTP конвертирует доменную ошибку в HTTP-статус и унифицированный
// ответ. err == nil — программная ошибка вызова: возвращаем 500/internal,
// чтобы не послать "200 OK" с телом ошибки и не маскировать баг.
//
// Маппинг:
//   - ErrInvalidCredentials  -> 401 invalid_credentials
//   - ErrInvalidToken        -> 401 unauthenticated
//   - ErrSessionExpired      -> 401 session_expired
//   - ErrRateLimited         -> 429 rate_limited
//   - ErrAccountNotFound     -> 404 not_found
//   - ErrWeakPassword        -> 400 invalid_argument
//   - ErrEmptyPassword       -> 400 invalid_argument
//   - context.Canceled       -> 499 canceled
//   - context.DeadlineExceeded -> 504 deadline_exceeded
//   - прочее                 -> 500 internal (детали не утекают)
func ToHTTP(err error) (int, ErrorResponse) {
	code, msg, httpStatus := "internal", "internal error", http.StatusInternalServerError

	switch {
	case err == nil:
		// оставляем 500/internal.
	case goerrors.Is(err, service.ErrInvalidCredentials):
		httpStatus, code, msg = http.StatusUnauthorized, "invalid_credentials", "invalid credentials"
	case goerrors.Is(err, service.ErrInvalidToken):
		httpStatus, code, msg = http.StatusUnauthorized, "unauthenticated", "unauthenticated"
	case goerrors.Is(err, service.ErrSessionExpired):
		httpStatus, code, msg = http.StatusUnauthorized, "session_expired", "session expired"
	case goerrors.Is(err, service.ErrRateLimited):
		httpStatus, code, msg = http.StatusTooManyRequests, "rate_limited", "too many failed attempts"
	case goerrors.Is(err, service.ErrAccountNotFound):
		httpStatus, code, msg = http.StatusNotFound, "not_found", "not found"
	case goerrors.Is(err, service.ErrWeakPassword):
		httpStatus, code, msg = http.StatusBadRequest, "invalid_argument", "password is too weak"
	case goerrors.Is(err, service.ErrEmptyPassword):
		httpStatus, code, msg = http.StatusBadRequest, "invalid_argument", "password is empty"
	case goerrors.Is(err, ErrInvalidArgument):
		httpStatus, code, msg = http.StatusBadRequest, "invalid_argument", "invalid argument"
	case goerrors.Is(err, context.Canceled):
		httpStatus, code, msg = StatusClientClosedRequest, "canceled", "canceled"
	case goerrors.Is(err, context.DeadlineExceeded):
		httpStatus, code, msg = http.StatusGatewayTimeout, "deadline_exceeded", "deadline exceeded"
	}

	return httpStatus, ErrorResponse{
		Error: APIError{
			Code:    code,
			Message: msg,
		},
	}
}

// WriteError — хелпер для HTTP-хендлеров.
// Пишет корректный статус/тело, добавляет request_id из заголовка и
// Retry-After при блокировке лимитером.
func WriteError(w http.ResponseWriter, r *http.Request, err error) {
	status, resp := ToHTTP(err)

	if rid := r.Header.Get("X-Request-Id"); rid != "" {
		resp.Error.RequestID = rid
	}

	if ra, ok := RetryAfter(err); ok {
		w.Header().Set("Retry-After", ra)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(resp)
}

// RetryAfter возвращает значение заголовка Retry-After (в секундах),
// если ошибка несёт подсказку resetAt. Значение округляется вверх
// и не бывает меньше 1.
func RetryAfter(err error) (string, bool) {
	var rle *service.RateLimitedError
	if !goerrors.As(err, &rle) || rle.ResetAt.IsZero() {
		return "", false
	}

	secs := int64(math.Ceil(time.Until(rle.ResetAt).Seconds()))
	if secs < 1 {
		secs = 1
	}

	return strconv.FormatInt(secs, 10), true
}
