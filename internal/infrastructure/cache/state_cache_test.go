package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/sfauth/pkg/constants"
	"github.com/turtacn/sfauth/pkg/errors"
	"github.com/turtacn/sfauth/pkg/logger"
)

func newTestStateCache(t *testing.T) *StateCache {
	t.Helper()
	return NewStateCache(logger.NewNopLogger())
}

func TestStateCache_PutAndConsume(t *testing.T) {
	c := newTestStateCache(t)
	ctx := context.Background()

	require.NoError(t, c.Put(ctx, "state-1", "verifier-1"))

	verifier, err := c.Consume(ctx, "state-1")
	require.NoError(t, err)
	assert.Equal(t, "verifier-1", verifier)
}

func TestStateCache_NonPKCEStateHasEmptyVerifier(t *testing.T) {
	c := newTestStateCache(t)
	ctx := context.Background()

	require.NoError(t, c.Put(ctx, "state-plain", ""))

	verifier, err := c.Consume(ctx, "state-plain")
	require.NoError(t, err)
	assert.Empty(t, verifier)
}

func TestStateCache_SingleUse(t *testing.T) {
	c := newTestStateCache(t)
	ctx := context.Background()

	require.NoError(t, c.Put(ctx, "state-once", "v"))

	_, err := c.Consume(ctx, "state-once")
	require.NoError(t, err)

	_, err = c.Consume(ctx, "state-once")
	require.Error(t, err)
	ae, ok := errors.As(err)
	require.True(t, ok)
	assert.Equal(t, constants.ErrCodeInvalidState, ae.Code())
}

func TestStateCache_UnknownState(t *testing.T) {
	c := newTestStateCache(t)

	_, err := c.Consume(context.Background(), "never-stored")
	require.Error(t, err)
	ae, ok := errors.As(err)
	require.True(t, ok)
	assert.Equal(t, constants.ErrCodeInvalidState, ae.Code())
	assert.Equal(t, errors.KindState, ae.Kind())
}

func TestStateCache_ExpiredStateBeforeEviction(t *testing.T) {
	c := NewStateCacheWithTTL(5*time.Minute, logger.NewNopLogger())
	ctx := context.Background()

	now := time.Now().UTC()
	c.now = func() time.Time { return now }
	require.NoError(t, c.Put(ctx, "state-old", "v"))

	// Six minutes later the entry is still physically present but no
	// longer valid.
	c.now = func() time.Time { return now.Add(6 * time.Minute) }
	_, err := c.Consume(ctx, "state-old")
	require.Error(t, err)
	ae, ok := errors.As(err)
	require.True(t, ok)
	assert.Equal(t, constants.ErrCodeExpiredState, ae.Code())
}

func TestStateCache_ExpiredStateIsAlsoConsumed(t *testing.T) {
	c := NewStateCacheWithTTL(5*time.Minute, logger.NewNopLogger())
	ctx := context.Background()

	now := time.Now().UTC()
	c.now = func() time.Time { return now }
	require.NoError(t, c.Put(ctx, "state-old", "v"))

	c.now = func() time.Time { return now.Add(6 * time.Minute) }
	_, err := c.Consume(ctx, "state-old")
	require.Error(t, err)

	// The second attempt reports invalid, not expired, because the hit
	// removed the entry.
	_, err = c.Consume(ctx, "state-old")
	ae, ok := errors.As(err)
	require.True(t, ok)
	assert.Equal(t, constants.ErrCodeInvalidState, ae.Code())
}

func TestStateCache_EmptyState(t *testing.T) {
	c := newTestStateCache(t)
	ctx := context.Background()

	err := c.Put(ctx, "", "v")
	require.Error(t, err)

	_, err = c.Consume(ctx, "")
	require.Error(t, err)
}
