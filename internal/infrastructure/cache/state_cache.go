// Package cache provides the in-memory and Redis-backed cache components:
// the single-use PKCE/state store, the current-login result slots, and a
// generic named cache for cross-instance sharing.
package cache

import (
	"context"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/turtacn/sfauth/internal/domain/service"
	"github.com/turtacn/sfauth/pkg/constants"
	"github.com/turtacn/sfauth/pkg/errors"
	"github.com/turtacn/sfauth/pkg/logger"
)

// stateEntry records an issued authorization state. CreatedAt is re-checked
// on every lookup; the physical TTL only bounds memory, it is not the
// validity rule.
type stateEntry struct {
	CodeVerifier string
	CreatedAt    time.Time
}

// StateCache is the go-cache backed implementation of the single-use
// PKCE/state store. Entries outlive the validity TTL in memory so an expired
// state can still be told apart from one that never existed.
type StateCache struct {
	store *gocache.Cache
	ttl   time.Duration
	log   logger.Logger
	now   func() time.Time
}

var _ service.StateCache = (*StateCache)(nil)

// NewStateCache creates a state cache with the standard 5 minute validity.
func NewStateCache(log logger.Logger) *StateCache {
	return NewStateCacheWithTTL(constants.StateTTL, log)
}

// NewStateCacheWithTTL creates a state cache with an explicit validity TTL.
func NewStateCacheWithTTL(ttl time.Duration, log logger.Logger) *StateCache {
	// Keep entries around for twice the validity window so lookups can
	// report EXPIRED_STATE instead of INVALID_STATE shortly after expiry.
	retention := 2 * ttl
	return &StateCache{
		store: gocache.New(retention, retention),
		ttl:   ttl,
		log:   log.WithComponent("state_cache"),
		now:   func() time.Time { return time.Now().UTC() },
	}
}

// Put stores a state with its optional PKCE code verifier.
func (c *StateCache) Put(ctx context.Context, state, codeVerifier string) error {
	if state == "" {
		return errors.Validation(constants.ErrCodeMissingState, "state is required")
	}

	c.store.Set(state, stateEntry{
		CodeVerifier: codeVerifier,
		CreatedAt:    c.now(),
	}, gocache.DefaultExpiration)

	c.log.Debug(ctx, "State stored",
		logger.String("state", state),
		logger.Bool("pkce", codeVerifier != ""),
	)
	return nil
}

// Consume removes a state and returns its verifier. The entry is removed on
// every hit, expired or not, so a state can never be exchanged twice.
func (c *StateCache) Consume(ctx context.Context, state string) (string, error) {
	if state == "" {
		return "", errors.Validation(constants.ErrCodeMissingState, "state is required")
	}

	raw, found := c.store.Get(state)
	if !found {
		c.log.Warn(ctx, "Unknown authorization state", logger.String("state", state))
		return "", errors.State(constants.ErrCodeInvalidState, "invalid or unknown state")
	}
	c.store.Delete(state)

	entry := raw.(stateEntry)
	if c.now().Sub(entry.CreatedAt) > c.ttl {
		c.log.Warn(ctx, "Expired authorization state", logger.String("state", state))
		return "", errors.State(constants.ErrCodeExpiredState, "state has expired")
	}

	return entry.CodeVerifier, nil
}
