package limiter

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// Тесты in-memory лимитера.
//
// Покрытие:
//   - свежий ключ: allowed=true, remaining=maxAttempts;
//   - k < max неудач: remaining = max-k, allowed=true;
//   - max неудач: allowed=false, remaining=0, ResetAt выставлен;
//   - ResetOnSuccess возвращает ключ в исходное состояние;
//   - независимость ключей;
//   - гонка: N одновременных RecordFailure не теряют инкременты;
//   - ClearAll сбрасывает все ключи.

func newMemory() *Memory {
	return NewMemory(5, 15*time.Minute)
}

func TestMemory_FreshKey(t *testing.T) {
	t.Parallel()

	m := newMemory()

	st, err := m.Check(context.Background(), "10.0.0.1")
	require.NoError(t, err)
	require.True(t, st.Allowed)
	require.Equal(t, 5, st.Remaining)
	require.True(t, st.ResetAt.IsZero())
}

func TestMemory_RemainingDecreases(t *testing.T) {
	t.Parallel()

	m := newMemory()
	ctx := context.Background()
	key := "10.0.0.1"

	for k := 1; k <= 4; k++ {
		require.NoError(t, m.RecordFailure(ctx, key))

		st, err := m.Check(ctx, key)
		require.NoError(t, err)
		require.True(t, st.Allowed, "attempt %d", k)
		require.Equal(t, 5-k, st.Remaining, "attempt %d", k)
		require.True(t, st.ResetAt.IsZero(), "attempt %d", k)
	}
}

func TestMemory_BlockedAtThreshold(t *testing.T) {
	t.Parallel()

	m := newMemory()
	ctx := context.Background()
	key := "10.0.0.1"

	for k := 0; k < 5; k++ {
		require.NoError(t, m.RecordFailure(ctx, key))
	}

	st, err := m.Check(ctx, key)
	require.NoError(t, err)
	require.False(t, st.Allowed)
	require.Equal(t, 0, st.Remaining)
	require.False(t, st.ResetAt.IsZero())
	require.WithinDuration(t, time.Now().Add(15*time.Minute), st.ResetAt, 2*time.Second)
}

// Блокировка «жёсткая»: remaining не уходит в минус и ResetAt сдвигается
// вслед за продолжающимися неудачами.
func TestMemory_RemainingNeverNegative(t *testing.T) {
	t.Parallel()

	m := newMemory()
	ctx := context.Background()
	key := "10.0.0.1"

	for k := 0; k < 9; k++ {
		require.NoError(t, m.RecordFailure(ctx, key))
	}

	st, err := m.Check(ctx, key)
	require.NoError(t, err)
	require.False(t, st.Allowed)
	require.Equal(t, 0, st.Remaining)
}

func TestMemory_ResetOnSuccess_RestoresFreshState(t *testing.T) {
	t.Parallel()

	m := newMemory()
	ctx := context.Background()
	key := "10.0.0.1"

	for k := 0; k < 7; k++ {
		require.NoError(t, m.RecordFailure(ctx, key))
	}
	require.NoError(t, m.ResetOnSuccess(ctx, key))

	st, err := m.Check(ctx, key)
	require.NoError(t, err)
	require.True(t, st.Allowed)
	require.Equal(t, 5, st.Remaining)
	require.True(t, st.ResetAt.IsZero())
}

func TestMemory_KeysAreIndependent(t *testing.T) {
	t.Parallel()

	m := newMemory()
	ctx := context.Background()

	for k := 0; k < 5; k++ {
		require.NoError(t, m.RecordFailure(ctx, "10.0.0.1"))
	}

	blocked, err := m.Check(ctx, "10.0.0.1")
	require.NoError(t, err)
	require.False(t, blocked.Allowed)

	other, err := m.Check(ctx, "10.0.0.2")
	require.NoError(t, err)
	require.True(t, other.Allowed)
	require.Equal(t, 5, other.Remaining)
}

// Гонка: N одновременных неудач по одному ключу дают счётчик ровно N.
func TestMemory_ConcurrentFailures_NoLostUpdates(t *testing.T) {
	t.Parallel()

	const n = 5

	m := NewMemory(n, 15*time.Minute)
	ctx := context.Background()
	key := "10.0.0.1"

	var wg sync.WaitGroup
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func() {
			defer wg.Done()
			require.NoError(t, m.RecordFailure(ctx, key))
		}()
	}
	wg.Wait()

	st, err := m.Check(ctx, key)
	require.NoError(t, err)
	require.False(t, st.Allowed, "final count must be exactly %d, not less", n)
	require.Equal(t, 0, st.Remaining)
}

func TestMemory_ClearAll(t *testing.T) {
	t.Parallel()

	m := newMemory()
	ctx := context.Background()

	require.NoError(t, m.RecordFailure(ctx, "a"))
	require.NoError(t, m.RecordFailure(ctx, "b"))
	require.NoError(t, m.ClearAll(ctx))

	for _, key := range []string{"a", "b"} {
		st, err := m.Check(ctx, key)
		require.NoError(t, err)
		require.True(t, st.Allowed)
		require.Equal(t, 5, st.Remaining)
	}
}
