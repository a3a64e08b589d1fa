package cache

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/sfauth/internal/domain/models"
	"github.com/turtacn/sfauth/pkg/constants"
	"github.com/turtacn/sfauth/pkg/logger"
)

func newTestResultCache(t *testing.T) *ResultCache {
	t.Helper()
	mr := miniredis.RunT(t)
	conn := &RedisConnection{Client: redis.NewClient(&redis.Options{Addr: mr.Addr()})}
	t.Cleanup(func() { _ = conn.Close() })
	named := NewRedisNamedCache(conn, logger.NewNopLogger())
	return NewResultCache(named, logger.NewNopLogger())
}

func successfulResult(orgType constants.OrgEnvironment) *models.LoginResult {
	return &models.LoginResult{
		Success:     true,
		LoginType:   constants.LoginTypeOAuth2,
		OrgType:     orgType,
		SessionID:   "00Dsession",
		AccessToken: "00Dsession",
		InstanceURL: "https://inst.example.com",
		UserID:      "005abc",
		TokenType:   "Bearer",
		ExpiresIn:   7200,
	}
}

func TestResultCache_SetAndGetCurrent(t *testing.T) {
	c := newTestResultCache(t)
	ctx := context.Background()

	require.NoError(t, c.SetCurrent(ctx, successfulResult(constants.OrgEnvironmentProduction)))

	got, err := c.Current(ctx)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "00Dsession", got.SessionID)
	assert.Equal(t, "https://inst.example.com", got.InstanceURL)
}

func TestResultCache_PerOrgTypeSlots(t *testing.T) {
	c := newTestResultCache(t)
	ctx := context.Background()

	prod := successfulResult(constants.OrgEnvironmentProduction)
	sandbox := successfulResult(constants.OrgEnvironmentSandbox)
	sandbox.SessionID = "00Dsandbox"

	require.NoError(t, c.SetCurrent(ctx, prod))
	require.NoError(t, c.SetCurrent(ctx, sandbox))

	// The shared slot is last-writer-wins.
	shared, err := c.Current(ctx)
	require.NoError(t, err)
	require.NotNil(t, shared)
	assert.Equal(t, "00Dsandbox", shared.SessionID)

	// The per-environment slots stay independent.
	gotProd, err := c.CurrentByOrgType(ctx, constants.OrgEnvironmentProduction)
	require.NoError(t, err)
	require.NotNil(t, gotProd)
	assert.Equal(t, "00Dsession", gotProd.SessionID)

	gotSandbox, err := c.CurrentByOrgType(ctx, constants.OrgEnvironmentSandbox)
	require.NoError(t, err)
	require.NotNil(t, gotSandbox)
	assert.Equal(t, "00Dsandbox", gotSandbox.SessionID)
}

func TestResultCache_EmptySlotIsNil(t *testing.T) {
	c := newTestResultCache(t)

	got, err := c.Current(context.Background())
	require.NoError(t, err)
	assert.Nil(t, got)

	got, err = c.CurrentByOrgType(context.Background(), constants.OrgEnvironmentSandbox)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestResultCache_FailedResultIsNotCached(t *testing.T) {
	c := newTestResultCache(t)
	ctx := context.Background()

	failed := models.NewFailedResult(constants.ErrCodeMissingUsername, "username is required")
	require.NoError(t, c.SetCurrent(ctx, failed))
	require.NoError(t, c.SetCurrent(ctx, nil))

	got, err := c.Current(ctx)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestResultCache_ClearCurrent(t *testing.T) {
	c := newTestResultCache(t)
	ctx := context.Background()

	require.NoError(t, c.SetCurrent(ctx, successfulResult(constants.OrgEnvironmentProduction)))
	require.NoError(t, c.ClearCurrent(ctx, constants.OrgEnvironmentProduction))

	got, err := c.Current(ctx)
	require.NoError(t, err)
	assert.Nil(t, got)

	got, err = c.CurrentByOrgType(ctx, constants.OrgEnvironmentProduction)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestResultCache_ByAccessToken(t *testing.T) {
	c := newTestResultCache(t)
	ctx := context.Background()

	result := successfulResult(constants.OrgEnvironmentProduction)
	require.NoError(t, c.SetCurrent(ctx, result))

	got, err := c.ByAccessToken(ctx, result.AccessToken)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, result.SessionID, got.SessionID)

	got, err = c.ByAccessToken(ctx, "never-issued")
	require.NoError(t, err)
	assert.Nil(t, got)

	got, err = c.ByAccessToken(ctx, "")
	require.NoError(t, err)
	assert.Nil(t, got)
}
