// Package service 定义领域服务接口
// Package service defines the domain service contracts: the polymorphic login
// strategy, its registry, and the token lifecycle manager.
package service

import (
	"context"

	"github.com/turtacn/sfauth/internal/domain/models"
	"github.com/turtacn/sfauth/pkg/constants"
	"github.com/turtacn/sfauth/pkg/errors"
)

// LoginStrategy is one interchangeable authentication method. Login never
// returns an error for a failed attempt; wire and parse failures are caught
// inside the strategy and converted into a failed LoginResult. The error
// return is reserved for programming mistakes such as a nil request.
// LoginStrategy 是一种可互换的认证方式。认证失败不通过 error 返回，
// 而是转换为失败的 LoginResult。
type LoginStrategy interface {
	// Login performs the wire exchange for one authentication attempt.
	Login(ctx context.Context, request *models.LoginRequest) *models.LoginResult

	// RefreshToken exchanges a refresh token for a new access token.
	// Strategies without a refresh concept fail with REFRESH_NOT_SUPPORTED.
	RefreshToken(ctx context.Context, refreshToken string, orgType constants.OrgEnvironment) *models.LoginResult

	// Logout invalidates a session or token at the remote org. Failures are
	// reported but callers treat logout as best-effort.
	Logout(ctx context.Context, sessionOrToken string, orgType constants.OrgEnvironment) (bool, error)

	// LoginType returns the strategy's registry key.
	LoginType() constants.LoginType
}

// StrategyRegistry resolves a login strategy by its type key. The map is
// built once at startup and read-only afterwards.
type StrategyRegistry struct {
	strategies map[constants.LoginType]LoginStrategy
}

// NewStrategyRegistry builds a registry over the given strategies.
func NewStrategyRegistry(strategies ...LoginStrategy) *StrategyRegistry {
	m := make(map[constants.LoginType]LoginStrategy, len(strategies))
	for _, s := range strategies {
		m[s.LoginType()] = s
	}
	return &StrategyRegistry{strategies: m}
}

// Resolve returns the strategy registered for the given login type.
func (r *StrategyRegistry) Resolve(loginType constants.LoginType) (LoginStrategy, *errors.AuthError) {
	if loginType == "" {
		return nil, errors.Validation(constants.ErrCodeLoginTypeEmpty, "login type is required")
	}

	strategy, ok := r.strategies[loginType]
	if !ok {
		return nil, errors.Validation(constants.ErrCodeUnsupportedLoginType, "unsupported login type: %s", loginType)
	}

	return strategy, nil
}

// Types lists the registered login types.
func (r *StrategyRegistry) Types() []constants.LoginType {
	types := make([]constants.LoginType, 0, len(r.strategies))
	for t := range r.strategies {
		types = append(types, t)
	}
	return types
}
