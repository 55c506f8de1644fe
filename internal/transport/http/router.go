package http

import (
	"log/slog"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/invitame/auth-service/internal/service"
	"github.com/invitame/auth-service/internal/transport/http/handlers"
	"github.com/invitame/auth-service/internal/transport/http/middleware"
)

// Options — параметры сборки HTTP-роутера.
type Options struct {
	Logger        *slog.Logger
	Timeout       time.Duration
	SecureCookies bool
	RefreshTTL    time.Duration
	// Ready — флаг готовности для /healthz; nil означает "всегда готов".
	Ready *atomic.Bool
}

// NewRouter собирает http.Handler с chi и подключёнными middleware/роутами.
func NewRouter(svc *service.Service, opts Options) http.Handler {
	root := chi.NewRouter()

	// Middleware (внешний -> внутренний).
	root.Use(
		middleware.Recover(),            // безопасно ловим паники
		middleware.RequestID(),          // формируем/прокидываем X-Request-Id (до логирования!)
		middleware.Logging(opts.Logger), // кладём request-scoped логгер в контекст и логируем
		middleware.AuthBearer(),         // вынимаем Bearer токен в контекст для хендлеров
	)
	if opts.Timeout > 0 {
		root.Use(middleware.Timeout(opts.Timeout)) // общий дедлайн запроса
	}

	h := handlers.New(svc, opts.SecureCookies, opts.RefreshTTL)

	// auth
	root.Post("/auth/login", h.Login)
	root.Post("/auth/refresh", h.Refresh)
	root.Post("/auth/logout", h.Logout)
	root.Post("/auth/change-password", h.ChangePassword)
	root.Post("/auth/validate", h.Validate)

	// служебные эндпойнты
	root.Get("/livez", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	root.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		if opts.Ready != nil && !opts.Ready.Load() {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte("not ready"))
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	root.Method(http.MethodGet, "/metrics", promhttp.Handler())

	return root
}
