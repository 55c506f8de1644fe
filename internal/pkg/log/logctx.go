// log переносит request-scoped *slog.Logger через context.Context.
// HTTP-мидлвар кладёт сюда логгер с привязанным request_id; сервисный
// слой достаёт его через From, не зная о транспорте.
package log

import (
	"context"
	"log/slog"
)

type ctxKey struct{}

// Into возвращает контекст с привязанным логгером.
func Into(ctx context.Context, l *slog.Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, l)
}

// From достаёт логгер из контекста. Без логгера в контексте (фоновые
// задачи, тесты) возвращается slog.Default() — вызывающему не нужно
// проверять nil.
func From(ctx context.Context) *slog.Logger {
	if v := ctx.Value(ctxKey{}); v != nil {
		if l, ok := v.(*slog.Logger); ok && l != nil {
			return l
		}
	}

	return slog.Default()
}
