package cache

import (
	"context"
	"testing"
	"time"

	"agentauth/internal/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCache(t *testing.T) (*CacheService, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewCacheService(client, time.Hour), mr
}

func TestCacheService_AgentRoundTrip(t *testing.T) {
	svc, mr := newTestCache(t)
	ctx := context.Background()

	_, ok, err := svc.GetAgent(ctx, "a-1")
	require.NoError(t, err)
	assert.False(t, ok)

	agent := &models.Agent{ID: "a-1", PhoneNumber: "612345678", Email: "a@b.com", LicenseNumber: "012345"}
	require.NoError(t, svc.CacheAgent(ctx, agent))
	assert.True(t, mr.Exists("agent:id:a-1"))
	assert.Equal(t, time.Hour, mr.TTL("agent:id:a-1"))

	got, ok, err := svc.GetAgent(ctx, "a-1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "012345", got.LicenseNumber)

	require.NoError(t, svc.InvalidateAgent(ctx, "a-1"))
	_, ok, err = svc.GetAgent(ctx, "a-1")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCacheService_CorruptEntry(t *testing.T) {
	svc, mr := newTestCache(t)
	require.NoError(t, mr.Set("agent:id:bad", "{not json"))

	_, ok, err := svc.GetAgent(context.Background(), "bad")
	assert.Error(t, err)
	assert.False(t, ok)
}

func TestCacheService_HealthCheck(t *testing.T) {
	svc, mr := newTestCache(t)
	assert.NoError(t, svc.HealthCheck(context.Background()))

	mr.Close()
	assert.Error(t, svc.HealthCheck(context.Background()))
}
