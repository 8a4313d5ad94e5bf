package repositories_test

import (
	"context"
	"testing"
	"time"

	"agentauth/internal/models"
	"agentauth/internal/repositories"
	"agentauth/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionRepository(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := repositories.NewSessionRepository(db)
	ctx := context.Background()
	now := testutil.NewClock().Now()

	active := &models.Session{AgentID: "5f0c6a8e-1111-4b1e-9c39-0d1b0f3c1a11", TokenHash: "hash-1", ExpiresAt: now.Add(time.Hour)}
	expired := &models.Session{AgentID: active.AgentID, TokenHash: "hash-2", ExpiresAt: now.Add(-time.Hour)}
	require.NoError(t, repo.Create(ctx, active))
	require.NoError(t, repo.Create(ctx, expired))
	assert.NotEmpty(t, active.ID)

	assert.ErrorIs(t, repo.Create(ctx, &models.Session{AgentID: active.AgentID, TokenHash: "hash-1", ExpiresAt: now}), repositories.ErrDuplicateKey)

	got, err := repo.GetByTokenHash(ctx, "hash-1")
	require.NoError(t, err)
	assert.True(t, got.Active(now))

	require.NoError(t, repo.Revoke(ctx, "hash-1", now))
	assert.ErrorIs(t, repo.Revoke(ctx, "hash-1", now), repositories.ErrSessionNotFound)

	got, err = repo.GetByTokenHash(ctx, "hash-1")
	require.NoError(t, err)
	assert.False(t, got.Active(now))

	n, err := repo.DeleteExpired(ctx, now)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	_, err = repo.GetByTokenHash(ctx, "hash-2")
	assert.ErrorIs(t, err, repositories.ErrSessionNotFound)
}

func TestSessionRepository_RevokeAllForAgent(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := repositories.NewSessionRepository(db)
	ctx := context.Background()
	now := testutil.NewClock().Now()

	agentID := "5f0c6a8e-1111-4b1e-9c39-0d1b0f3c1a11"
	for _, h := range []string{"h1", "h2"} {
		require.NoError(t, repo.Create(ctx, &models.Session{AgentID: agentID, TokenHash: h, ExpiresAt: now.Add(time.Hour)}))
	}

	n, err := repo.RevokeAllForAgent(ctx, agentID, now)
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)
}
