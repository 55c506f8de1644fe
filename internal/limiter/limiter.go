// limiter защищает логин от перебора учётных данных: считает неудачные
// попытки по ключу клиента (обычно IP) и блокирует ключ после порога.
//
// Политика — «жёсткая» блокировка: достигнув порога, ключ остаётся
// заблокированным до явного сброса успешным логином; автоматического
// снятия по таймеру нет. ResetAt в статусе — только подсказка для
// клиентского сообщения. Ключи полностью независимы друг от друга.
//
// Пакет не принимает решений о допуске: Check возвращает статус,
// enforcement — обязанность вызывающего (AuthService).
package limiter

import (
	"context"
	"time"
)

// Status — результат проверки ключа.
type Status struct {
	// Allowed — счётчик ключа ниже порога.
	Allowed bool
	// Remaining — оставшееся число попыток, не меньше нуля.
	Remaining int
	// ResetAt — подсказка «когда снова пробовать» для сообщения клиенту.
	// Ненулевое только для заблокированного ключа; на саму блокировку
	// не влияет.
	ResetAt time.Time
}

// LoginLimiter — контракт лимитера неудачных логинов.
// Реализации обязаны быть безопасными для конкурентного использования:
// одновременные RecordFailure по одному ключу не должны терять инкременты.
type LoginLimiter interface {
	// Check возвращает текущий статус ключа, не меняя счётчик.
	Check(ctx context.Context, key string) (Status, error)
	// RecordFailure атомарно увеличивает счётчик ключа, создавая запись
	// при первой неудаче. Порог здесь не проверяется.
	RecordFailure(ctx context.Context, key string) error
	// ResetOnSuccess полностью удаляет запись ключа, немедленно
	// восстанавливая весь лимит.
	ResetOnSuccess(ctx context.Context, key string) error
	// ClearAll сбрасывает все ключи. Административная/тестовая операция.
	ClearAll(ctx context.Context) error
}
