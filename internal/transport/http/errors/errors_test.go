package errors

import (
	"context"
	goerrors "errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/invitame/auth-service/internal/service"
)

func TestToHTTP_Mapping(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"nil", nil, http.StatusInternalServerError, "internal"},
		{"invalid_credentials", service.ErrInvalidCredentials, http.StatusUnauthorized, "invalid_credentials"},
		{"invalid_token", service.ErrInvalidToken, http.StatusUnauthorized, "unauthenticated"},
		{"session_expired", service.ErrSessionExpired, http.StatusUnauthorized, "session_expired"},
		{"rate_limited", service.ErrRateLimited, http.StatusTooManyRequests, "rate_limited"},
		{"rate_limited_wrapped", &service.RateLimitedError{ResetAt: time.Now()}, http.StatusTooManyRequests, "rate_limited"},
		{"not_found", service.ErrAccountNotFound, http.StatusNotFound, "not_found"},
		{"weak_password", service.ErrWeakPassword, http.StatusBadRequest, "invalid_argument"},
		{"empty_password", service.ErrEmptyPassword, http.StatusBadRequest, "invalid_argument"},
		{"invalid_argument", ErrInvalidArgument, http.StatusBadRequest, "invalid_argument"},
		{"canceled", context.Canceled, StatusClientClosedRequest, "canceled"},
		{"deadline", context.DeadlineExceeded, http.StatusGatewayTimeout, "deadline_exceeded"},
		{"unknown", goerrors.New("db down"), http.StatusInternalServerError, "internal"},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			status, resp := ToHTTP(tc.err)
			require.Equal(t, tc.wantStatus, status)
			require.Equal(t, tc.wantCode, resp.Error.Code)
			require.NotEmpty(t, resp.Error.Message)
		})
	}
}

func TestToHTTP_WrappedErrorsUnwrap(t *testing.T) {
	t.Parallel()

	wrapped := fmt.Errorf("service.auth.Login: %w", service.ErrInvalidCredentials)

	status, resp := ToHTTP(wrapped)
	require.Equal(t, http.StatusUnauthorized, status)
	require.Equal(t, "invalid_credentials", resp.Error.Code)
}

func TestRetryAfter(t *testing.T) {
	t.Parallel()

	_, ok := RetryAfter(service.ErrInvalidCredentials)
	require.False(t, ok)

	// resetAt в прошлом — минимум одна секунда, отрицательных значений нет.
	ra, ok := RetryAfter(&service.RateLimitedError{ResetAt: time.Now().Add(-time.Minute)})
	require.True(t, ok)
	require.Equal(t, "1", ra)

	ra, ok = RetryAfter(fmt.Errorf("wrap: %w", &service.RateLimitedError{ResetAt: time.Now().Add(90 * time.Second)}))
	require.True(t, ok)
	require.Contains(t, []string{"90", "91"}, ra)
}

func TestWriteError_BodyHeadersRequestID(t *testing.T) {
	t.Parallel()

	req := httptest.NewRequest(http.MethodPost, "/auth/login", nil)
	req.Header.Set("X-Request-Id", "rid-123")
	rec := httptest.NewRecorder()

	WriteError(rec, req, &service.RateLimitedError{ResetAt: time.Now().Add(-time.Second)})

	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	require.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	require.Equal(t, "1", rec.Header().Get("Retry-After"))
	require.Contains(t, rec.Body.String(), `"rate_limited"`)
	require.Contains(t, rec.Body.String(), `"rid-123"`)
}
