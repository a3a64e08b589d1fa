package cache

import (
	"context"
	"encoding/json"

	"github.com/turtacn/sfauth/internal/domain/models"
	"github.com/turtacn/sfauth/internal/domain/service"
	"github.com/turtacn/sfauth/pkg/constants"
	"github.com/turtacn/sfauth/pkg/errors"
	"github.com/turtacn/sfauth/pkg/logger"
)

// ResultCache stores the most recent successful login result in the shared
// named cache: one well-known slot plus one slot per org environment. The
// shared slot is last-writer-wins across callers.
type ResultCache struct {
	cache NamedCache
	log   logger.Logger
}

var _ service.ResultCache = (*ResultCache)(nil)

// NewResultCache creates the login-result convenience cache.
func NewResultCache(cache NamedCache, log logger.Logger) *ResultCache {
	return &ResultCache{
		cache: cache,
		log:   log.WithComponent("result_cache"),
	}
}

// SetCurrent stores the result in the shared slot and its org slot.
func (c *ResultCache) SetCurrent(ctx context.Context, result *models.LoginResult) error {
	if result == nil || !result.Success {
		return nil
	}

	if err := c.cache.Put(ctx, constants.AuthCacheName, constants.CurrentResultKey, result, constants.LoginResultTTL); err != nil {
		return err
	}

	if result.OrgType != "" {
		orgKey := constants.CurrentResultOrgKeyPrefix + string(result.OrgType)
		if err := c.cache.Put(ctx, constants.AuthCacheName, orgKey, result, constants.LoginResultTTL); err != nil {
			return err
		}
	}

	if result.AccessToken != "" {
		tokenKey := constants.LoginResultKeyPrefix + result.AccessToken
		if err := c.cache.Put(ctx, constants.AuthCacheName, tokenKey, result, constants.LoginResultTTL); err != nil {
			return err
		}
	}

	return nil
}

// ByAccessToken returns the cached result of the login that issued the given
// access token, nil when none is cached.
func (c *ResultCache) ByAccessToken(ctx context.Context, accessToken string) (*models.LoginResult, error) {
	if accessToken == "" {
		return nil, nil
	}
	return c.load(ctx, constants.LoginResultKeyPrefix+accessToken)
}

// Current returns the shared slot, nil when empty.
func (c *ResultCache) Current(ctx context.Context) (*models.LoginResult, error) {
	return c.load(ctx, constants.CurrentResultKey)
}

// CurrentByOrgType returns the slot of one org environment, nil when empty.
func (c *ResultCache) CurrentByOrgType(ctx context.Context, orgType constants.OrgEnvironment) (*models.LoginResult, error) {
	return c.load(ctx, constants.CurrentResultOrgKeyPrefix+string(orgType))
}

// ClearCurrent empties the shared slot and the slot of the given environment.
func (c *ResultCache) ClearCurrent(ctx context.Context, orgType constants.OrgEnvironment) error {
	if err := c.cache.Remove(ctx, constants.AuthCacheName, constants.CurrentResultKey); err != nil {
		return err
	}
	if orgType != "" {
		return c.cache.Remove(ctx, constants.AuthCacheName, constants.CurrentResultOrgKeyPrefix+string(orgType))
	}
	return nil
}

func (c *ResultCache) load(ctx context.Context, key string) (*models.LoginResult, error) {
	raw, err := c.cache.Get(ctx, constants.AuthCacheName, key)
	if err != nil {
		return nil, err
	}
	if raw == "" {
		return nil, nil
	}

	var result models.LoginResult
	if err := json.Unmarshal([]byte(raw), &result); err != nil {
		c.log.Warn(ctx, "Dropping undecodable cached login result", logger.String("key", key), logger.Err(err))
		return nil, errors.System("cached login result is not decodable").WithCause(err)
	}
	return &result, nil
}
