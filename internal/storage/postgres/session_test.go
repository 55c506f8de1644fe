package postgres

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/invitame/auth-service/internal/models"
	"github.com/invitame/auth-service/internal/storage"
)

// Интеграционные тесты репозитория session.go. Используют startPostgres
// из account_test.go и дополнительно применяют миграцию sessions.

func startPostgresSessions(t *testing.T) (*Storage, func()) {
	t.Helper()

	st, cleanup := startPostgres(t)

	_, err := st.db.Exec(context.Background(), readMigration(t, "2_init_sessions.up.sql"))
	require.NoError(t, err)

	return st, cleanup
}

func seedSession(t *testing.T, st *Storage, accountID uuid.UUID, hash string, expiresAt time.Time) *models.Session {
	t.Helper()

	session := &models.Session{
		TokenHash: hash,
		AccountID: accountID,
		CreatedAt: time.Now().UTC(),
		ExpiresAt: expiresAt,
	}
	require.NoError(t, st.SaveSession(context.Background(), session))
	return session
}

func TestIntegration_SaveSession_And_SessionByTokenHash(t *testing.T) {
	st, cleanup := startPostgresSessions(t)
	defer cleanup()

	accID := seedAccount(t, st, "sess@example.com", "hash", models.RoleViewer)
	want := seedSession(t, st, accID, "hash-a", time.Now().UTC().Add(time.Hour))

	got, err := st.SessionByTokenHash(context.Background(), "hash-a")
	require.NoError(t, err)
	require.Equal(t, want.TokenHash, got.TokenHash)
	require.Equal(t, accID, got.AccountID)
	require.WithinDuration(t, want.CreatedAt, got.CreatedAt, time.Second)
	require.WithinDuration(t, want.ExpiresAt, got.ExpiresAt, time.Second)

	_, err = st.SessionByTokenHash(context.Background(), "no-such-hash")
	require.ErrorIs(t, err, storage.ErrNotFound)
}

func TestIntegration_SaveSession_DuplicateHash(t *testing.T) {
	st, cleanup := startPostgresSessions(t)
	defer cleanup()

	accID := seedAccount(t, st, "dup@example.com", "hash", models.RoleViewer)
	seedSession(t, st, accID, "hash-dup", time.Now().UTC().Add(time.Hour))

	err := st.SaveSession(context.Background(), &models.Session{
		TokenHash: "hash-dup",
		AccountID: accID,
		CreatedAt: time.Now().UTC(),
		ExpiresAt: time.Now().UTC().Add(time.Hour),
	})
	require.Error(t, err)
	require.ErrorIs(t, err, storage.ErrAlreadyExists)
}

func TestIntegration_DeleteSession(t *testing.T) {
	st, cleanup := startPostgresSessions(t)
	defer cleanup()

	accID := seedAccount(t, st, "del@example.com", "hash", models.RoleViewer)
	seedSession(t, st, accID, "hash-del", time.Now().UTC().Add(time.Hour))

	require.NoError(t, st.DeleteSession(context.Background(), "hash-del"))

	// Повторное удаление — ErrNotFound; идемпотентность решает сервисный слой.
	err := st.DeleteSession(context.Background(), "hash-del")
	require.ErrorIs(t, err, storage.ErrNotFound)
}

func TestIntegration_DeleteAccountSessions_KeepsExcept(t *testing.T) {
	st, cleanup := startPostgresSessions(t)
	defer cleanup()

	accID := seedAccount(t, st, "many@example.com", "hash", models.RoleViewer)
	otherID := seedAccount(t, st, "other@example.com", "hash", models.RoleViewer)

	exp := time.Now().UTC().Add(time.Hour)
	for i := 0; i < 3; i++ {
		seedSession(t, st, accID, fmt.Sprintf("hash-%d", i), exp)
	}
	seedSession(t, st, otherID, "hash-other", exp)

	removed, err := st.DeleteAccountSessions(context.Background(), accID, "hash-1")
	require.NoError(t, err)
	require.EqualValues(t, 2, removed)

	// Исключённая сессия и сессии чужого аккаунта не тронуты.
	_, err = st.SessionByTokenHash(context.Background(), "hash-1")
	require.NoError(t, err)
	_, err = st.SessionByTokenHash(context.Background(), "hash-other")
	require.NoError(t, err)
	_, err = st.SessionByTokenHash(context.Background(), "hash-0")
	require.ErrorIs(t, err, storage.ErrNotFound)
}

func TestIntegration_DeleteAccountSessions_EmptyExcept_DropsAll(t *testing.T) {
	st, cleanup := startPostgresSessions(t)
	defer cleanup()

	accID := seedAccount(t, st, "all@example.com", "hash", models.RoleViewer)
	exp := time.Now().UTC().Add(time.Hour)
	seedSession(t, st, accID, "hash-x", exp)
	seedSession(t, st, accID, "hash-y", exp)

	removed, err := st.DeleteAccountSessions(context.Background(), accID, "")
	require.NoError(t, err)
	require.EqualValues(t, 2, removed)
}

func TestIntegration_DeleteExpiredSessions(t *testing.T) {
	st, cleanup := startPostgresSessions(t)
	defer cleanup()

	accID := seedAccount(t, st, "exp@example.com", "hash", models.RoleViewer)
	now := time.Now().UTC()

	seedSession(t, st, accID, "hash-live", now.Add(time.Hour))
	seedSession(t, st, accID, "hash-dead", now.Add(-time.Minute))

	require.NoError(t, st.DeleteExpiredSessions(context.Background(), now))

	_, err := st.SessionByTokenHash(context.Background(), "hash-live")
	require.NoError(t, err)
	_, err = st.SessionByTokenHash(context.Background(), "hash-dead")
	require.ErrorIs(t, err, storage.ErrNotFound)
}
