package repositories_test

import (
	"context"
	"testing"
	"time"

	"agentauth/internal/models"
	"agentauth/internal/repositories"
	"agentauth/internal/repositories/cache"
	"agentauth/internal/testutil"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAgent(phone, email, license string) *models.Agent {
	return &models.Agent{
		PhoneNumber:   phone,
		CountryCode:   "+212",
		FirstName:     "Amina",
		LastName:      "Idrissi",
		Email:         email,
		LicenseNumber: license,
	}
}

func TestAgentRepository_CreateAndLookups(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := repositories.NewAgentRepository(db, nil, nil)
	ctx := context.Background()

	agent := newAgent("612345678", "amina@example.com", "000123")
	require.NoError(t, repo.Create(ctx, agent))
	assert.NotEmpty(t, agent.ID)
	assert.Equal(t, models.AgentStatusActive, agent.Status)

	byPhone, err := repo.GetByPhone(ctx, "612345678")
	require.NoError(t, err)
	assert.Equal(t, agent.ID, byPhone.ID)

	byEmail, err := repo.GetByEmail(ctx, "amina@example.com")
	require.NoError(t, err)
	assert.Equal(t, agent.ID, byEmail.ID)

	byID, err := repo.GetByID(ctx, agent.ID)
	require.NoError(t, err)
	assert.Equal(t, "000123", byID.LicenseNumber)

	_, err = repo.GetByPhone(ctx, "699999999")
	assert.ErrorIs(t, err, repositories.ErrAgentNotFound)
}

func TestAgentRepository_UniqueConstraints(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := repositories.NewAgentRepository(db, nil, nil)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, newAgent("612345678", "a@example.com", "111111")))

	tests := []struct {
		name  string
		agent *models.Agent
	}{
		{"phone", newAgent("612345678", "b@example.com", "222222")},
		{"email", newAgent("622222222", "a@example.com", "333333")},
		{"license", newAgent("633333333", "c@example.com", "111111")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := repo.Create(ctx, tt.agent)
			assert.ErrorIs(t, err, repositories.ErrDuplicateKey)
		})
	}
}

func TestAgentRepository_UpdateFields(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := repositories.NewAgentRepository(db, nil, nil)
	ctx := context.Background()

	a := newAgent("612345678", "a@example.com", "111111")
	b := newAgent("622222222", "b@example.com", "222222")
	require.NoError(t, repo.Create(ctx, a))
	require.NoError(t, repo.Create(ctx, b))

	taken, err := repo.EmailTakenByOther(ctx, "b@example.com", a.ID)
	require.NoError(t, err)
	assert.True(t, taken)

	taken, err = repo.EmailTakenByOther(ctx, "a@example.com", a.ID)
	require.NoError(t, err)
	assert.False(t, taken)

	now := time.Now().UTC().Add(time.Hour)
	require.NoError(t, repo.UpdateFields(ctx, a.ID, map[string]interface{}{"first_name": "Nadia", "updated_at": now}))
	got, err := repo.GetByID(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, "Nadia", got.FirstName)

	err = repo.UpdateFields(ctx, a.ID, map[string]interface{}{"email": "b@example.com"})
	assert.ErrorIs(t, err, repositories.ErrDuplicateKey)

	err = repo.UpdateFields(ctx, "00000000-0000-0000-0000-000000000000", map[string]interface{}{"status": "inactive"})
	assert.ErrorIs(t, err, repositories.ErrAgentNotFound)
}

func TestAgentRepository_GetByIDUsesCache(t *testing.T) {
	db := testutil.NewTestDB(t)
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	agentCache := cache.NewCacheService(client, time.Hour)

	repo := repositories.NewAgentRepository(db, agentCache, nil)
	ctx := context.Background()

	a := newAgent("612345678", "a@example.com", "111111")
	require.NoError(t, repo.Create(ctx, a))

	_, err := repo.GetByID(ctx, a.ID)
	require.NoError(t, err)
	assert.True(t, mr.Exists("agent:id:"+a.ID))

	require.NoError(t, repo.UpdateFields(ctx, a.ID, map[string]interface{}{"last_name": "Benali"}))
	assert.False(t, mr.Exists("agent:id:"+a.ID))

	got, err := repo.GetByID(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, "Benali", got.LastName)
}
