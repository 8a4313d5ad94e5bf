package otp

import (
	"context"
	"testing"
	"time"

	"agentauth/internal/config"
	apperrors "agentauth/internal/errors"
	"agentauth/internal/repositories"
	"agentauth/internal/testutil"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLimiter(t *testing.T, cfg LimiterConfig) (*RedisLimiter, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisLimiter(client, cfg), mr
}

func TestRedisLimiter_Cooldown(t *testing.T) {
	limiter, mr := newTestLimiter(t, LimiterConfig{Cooldown: 30 * time.Second})
	ctx := context.Background()

	retry, err := limiter.Allow(ctx, testPhone)
	require.NoError(t, err)
	assert.Zero(t, retry)

	retry, err = limiter.Allow(ctx, testPhone)
	require.NoError(t, err)
	assert.Equal(t, 30*time.Second, retry)

	// Other phones are unaffected.
	retry, err = limiter.Allow(ctx, "622222222")
	require.NoError(t, err)
	assert.Zero(t, retry)

	mr.FastForward(31 * time.Second)
	retry, err = limiter.Allow(ctx, testPhone)
	require.NoError(t, err)
	assert.Zero(t, retry)
}

func TestRedisLimiter_WindowCap(t *testing.T) {
	limiter, mr := newTestLimiter(t, LimiterConfig{Window: time.Minute, MaxPerWindow: 2})
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		retry, err := limiter.Allow(ctx, testPhone)
		require.NoError(t, err)
		assert.Zero(t, retry)
	}

	retry, err := limiter.Allow(ctx, testPhone)
	require.NoError(t, err)
	assert.Equal(t, time.Minute, retry)
	assert.True(t, mr.Exists("otp:block:"+testPhone))

	mr.FastForward(time.Minute + time.Second)
	retry, err = limiter.Allow(ctx, testPhone)
	require.NoError(t, err)
	assert.Zero(t, retry)
}

func TestService_IssueRateLimited(t *testing.T) {
	limiter, mr := newTestLimiter(t, LimiterConfig{Cooldown: 30 * time.Second})
	db := testutil.NewTestDB(t)
	svc := NewService(repositories.NewOtpRepository(db), limiter, nil, Config{Environment: config.Development}, nil, nil)
	ctx := context.Background()

	_, err := svc.Issue(ctx, testPhone, "sms")
	require.NoError(t, err)

	_, err = svc.Issue(ctx, testPhone, "sms")
	de := requireKind(t, err, apperrors.KindRateLimited)
	assert.Equal(t, 30*time.Second, de.RetryAfter)

	// An unreachable limiter does not block issuance.
	mr.Close()
	_, err = svc.Issue(ctx, "622222222", "sms")
	assert.NoError(t, err)
}
