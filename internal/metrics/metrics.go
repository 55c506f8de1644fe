// metrics — счётчики Prometheus для операций аутентификации.
// Экспонируются через /metrics (promhttp) в main.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Метки result для счётчиков операций.
const (
	ResultSuccess            = "success"
	ResultInvalidCredentials = "invalid_credentials"
	ResultRateLimited        = "rate_limited"
	ResultSessionExpired     = "session_expired"
	ResultError              = "error"
)

var (
	// LoginTotal — исходы логинов.
	LoginTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "auth",
		Name:      "login_total",
		Help:      "Login attempts by outcome.",
	}, []string{"result"})

	// RefreshTotal — исходы обновлений access-токена.
	RefreshTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "auth",
		Name:      "refresh_total",
		Help:      "Access token refresh attempts by outcome.",
	}, []string{"result"})

	// LogoutTotal — количество logout-вызовов (идемпотентных).
	LogoutTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "auth",
		Name:      "logout_total",
		Help:      "Logout calls.",
	})

	// SessionsInvalidated — сессии, снятые при смене пароля.
	SessionsInvalidated = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "auth",
		Name:      "sessions_invalidated_total",
		Help:      "Sessions invalidated by password change.",
	})
)
