// handlers реализует REST-эндпойнты ядра аутентификации.
//
// Контракт refresh-токена — cookie-based: значение живёт в HttpOnly-куке
// и недоступно скриптам страницы; в JSON-телах ответов refresh-токен
// не появляется никогда.
package handlers

import (
	"encoding/json"
	"net"
	"net/http"
	"time"

	"github.com/invitame/auth-service/internal/service"
)

// refreshCookie — имя и путь куки с refresh-токеном. Path ограничен
// /auth: кука не ездит с каждым запросом к остальному API.
const (
	refreshCookieName = "refresh_token"
	refreshCookiePath = "/auth"
)

// Handlers агрегирует зависимости HTTP-слоя.
type Handlers struct {
	svc           *service.Service
	secureCookies bool
	refreshTTL    time.Duration
}

func New(svc *service.Service, secureCookies bool, refreshTTL time.Duration) *Handlers {
	return &Handlers{
		svc:           svc,
		secureCookies: secureCookies,
		refreshTTL:    refreshTTL,
	}
}

// writeJSON — единый ответ JSON с нужным Content-Type.
// Ошибки выводим через apierrors.WriteError.
func writeJSON(w http.ResponseWriter, status int, value any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(value)
}

// decodeStrict — строгий JSON-декодер: запрещаем неизвестные поля.
func decodeStrict(r *http.Request, value any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(value)
}

// clientKey — ключ клиента для лимитера: IP источника запроса
// без порта. Если адрес не разбирается, берём его как есть.
func clientKey(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func (h *Handlers) setRefreshCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     refreshCookieName,
		Value:    token,
		Path:     refreshCookiePath,
		MaxAge:   int(h.refreshTTL / time.Second),
		HttpOnly: true,
		Secure:   h.secureCookies,
		SameSite: http.SameSiteStrictMode,
	})
}

func (h *Handlers) clearRefreshCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     refreshCookieName,
		Value:    "",
		Path:     refreshCookiePath,
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.secureCookies,
		SameSite: http.SameSiteStrictMode,
	})
}

// refreshFromCookie возвращает refresh-токен из куки либо пустую строку.
func refreshFromCookie(r *http.Request) string {
	c, err := r.Cookie(refreshCookieName)
	if err != nil {
		return ""
	}
	return c.Value
}
