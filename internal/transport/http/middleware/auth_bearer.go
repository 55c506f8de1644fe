package middleware

import (
	"context"
	"net/http"
	"strings"
)

// CtxAuthToken — ключ контекста с "сырым" Bearer-токеном из Authorization.
const CtxAuthToken ctxKey = "auth_token"

// AuthBearer извлекает Bearer-токен из Authorization и кладёт "сырой" токен
// в контекст по ключу CtxAuthToken. Проверка подписи — дело сервисного слоя.
func AuthBearer() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			auth := r.Header.Get("Authorization")

			if auth != "" {
				const prefix = "Bearer "
				if strings.HasPrefix(auth, prefix) && len(auth) > len(prefix) {
					token := strings.TrimSpace(auth[len(prefix):])

					if token != "" {
						ctx := context.WithValue(r.Context(), CtxAuthToken, token)
						r = r.WithContext(ctx)
					}
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

// TokenFromContext возвращает Bearer-токен, положенный AuthBearer.
func TokenFromContext(ctx context.Context) (string, bool) {
	token, ok := ctx.Value(CtxAuthToken).(string)
	return token, ok && token != ""
}
