package session_test

import (
	"context"
	"testing"
	"time"

	"github.com/SscSPs/pix_backend/internal/apperrors"
	"github.com/SscSPs/pix_backend/internal/core/domain"
	portsrepo "github.com/SscSPs/pix_backend/internal/core/ports/repositories"
	"github.com/SscSPs/pix_backend/internal/repositories/session"
	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func exerciseSessionRepository(t *testing.T, repo portsrepo.SessionRepository) {
	t.Helper()
	ctx := context.Background()
	issued := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)

	require.NoError(t, repo.SaveSession(ctx, domain.Session{Token: "tok-old", CPF: "11111111111", IssuedAt: issued}))
	require.NoError(t, repo.SaveSession(ctx, domain.Session{Token: "tok-new", CPF: "22222222222", IssuedAt: issued.Add(2 * time.Hour)}))

	got, err := repo.FindSession(ctx, "tok-old")
	require.NoError(t, err)
	assert.Equal(t, "tok-old", got.Token)
	assert.Equal(t, "11111111111", got.CPF)
	assert.True(t, got.IssuedAt.Equal(issued))

	_, err = repo.FindSession(ctx, "missing")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	removed, err := repo.DeleteSessionsIssuedBefore(ctx, issued.Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(1), removed)

	_, err = repo.FindSession(ctx, "tok-old")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	ok, err := repo.DeleteSession(ctx, "tok-new")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.DeleteSession(ctx, "tok-new")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMemoryRepository(t *testing.T) {
	exerciseSessionRepository(t, session.NewMemoryRepository())
}

func TestRedisRepository(t *testing.T) {
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	exerciseSessionRepository(t, session.NewRedisRepository(client, 0))
}

func TestRedisRepository_KeysExpireAndHideRawToken(t *testing.T) {
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	repo := session.NewRedisRepository(client, time.Hour)
	ctx := context.Background()

	require.NoError(t, repo.SaveSession(ctx, domain.Session{Token: "segredo-do-token", CPF: "11111111111", IssuedAt: time.Now()}))

	keys := mr.Keys()
	require.Len(t, keys, 1)
	assert.NotContains(t, keys[0], "segredo-do-token")
	assert.Equal(t, time.Hour, mr.TTL(keys[0]))

	mr.FastForward(time.Hour + time.Second)
	_, err := repo.FindSession(ctx, "segredo-do-token")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}
