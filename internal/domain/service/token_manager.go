package service

import (
	"context"
	"time"

	"github.com/turtacn/sfauth/internal/domain/models"
	"github.com/turtacn/sfauth/internal/domain/repository"
	"github.com/turtacn/sfauth/pkg/constants"
	"github.com/turtacn/sfauth/pkg/logger"
)

// TokenManager drives the token lifecycle independently of the login
// strategies: validation, revocation, and device/IP binding.
// TokenManager 独立于登录策略驱动令牌生命周期：校验、撤销、设备/IP 绑定。
type TokenManager interface {
	// RegisterToken records a newly issued access token as ACTIVE.
	RegisterToken(ctx context.Context, accessToken string, expireAt time.Time) (*models.Token, error)

	// ValidateToken reports whether a token is known, ACTIVE, and unexpired.
	// A past expiry flips the stored status to EXPIRED as a side effect.
	ValidateToken(ctx context.Context, accessToken string) (bool, error)

	// RevokeToken flips a token to REVOKED and cascades the status to every
	// binding referencing it. Unknown tokens report false.
	RevokeToken(ctx context.Context, accessToken string) (bool, error)

	// BindToken attaches a device/IP binding to a token. It is a logged
	// no-op when the token is unknown or neither attribute is supplied.
	BindToken(ctx context.Context, accessToken, deviceID, ip string) error

	// CheckTokenBinding re-validates the token, then compares the presented
	// device/IP against its first active binding. Tokens with zero active
	// bindings are allowed.
	CheckTokenBinding(ctx context.Context, accessToken, deviceID, ip string) (bool, error)
}

var _ TokenManager = (*tokenManager)(nil)

type tokenManager struct {
	tokens   repository.TokenRepository
	bindings repository.TokenBindingRepository
	log      logger.Logger
}

// NewTokenManager creates the token lifecycle manager.
func NewTokenManager(
	tokens repository.TokenRepository,
	bindings repository.TokenBindingRepository,
	log logger.Logger,
) TokenManager {
	return &tokenManager{
		tokens:   tokens,
		bindings: bindings,
		log:      log.WithComponent("token_manager"),
	}
}

func (m *tokenManager) RegisterToken(ctx context.Context, accessToken string, expireAt time.Time) (*models.Token, error) {
	token := models.NewToken(accessToken, expireAt)
	if err := m.tokens.Save(ctx, token); err != nil {
		m.log.Error(ctx, "Failed to register token", err)
		return nil, err
	}

	m.log.Info(ctx, "Token registered",
		logger.String("token_id", token.TokenID),
		logger.Time("expire_at", token.AccessTokenExpire),
	)
	return token, nil
}

func (m *tokenManager) ValidateToken(ctx context.Context, accessToken string) (bool, error) {
	token, err := m.tokens.FindByAccessToken(ctx, accessToken)
	if err != nil {
		return false, err
	}
	if token == nil {
		m.log.Debug(ctx, "Token validation failed, token unknown")
		return false, nil
	}

	if token.Status != constants.TokenStatusActive {
		m.log.Debug(ctx, "Token validation failed, token not active",
			logger.String("token_id", token.TokenID),
			logger.String("status", string(token.Status)),
		)
		return false, nil
	}

	now := time.Now().UTC()
	if token.IsExpiredAt(now) {
		// Lazy expiration, the stored status catches up on read.
		token.MarkExpired(now)
		if err := m.tokens.Update(ctx, token); err != nil {
			m.log.Warn(ctx, "Failed to persist token expiry",
				logger.String("token_id", token.TokenID),
				logger.Err(err),
			)
		}
		return false, nil
	}

	return true, nil
}

func (m *tokenManager) RevokeToken(ctx context.Context, accessToken string) (bool, error) {
	token, err := m.tokens.FindByAccessToken(ctx, accessToken)
	if err != nil {
		return false, err
	}
	if token == nil {
		m.log.Warn(ctx, "Revoke requested for unknown token")
		return false, nil
	}

	now := time.Now().UTC()
	token.MarkRevoked(now)
	if err := m.tokens.Update(ctx, token); err != nil {
		m.log.Error(ctx, "Failed to revoke token", err,
			logger.String("token_id", token.TokenID),
		)
		return false, err
	}

	affected, err := m.bindings.UpdateStatusByTokenID(ctx, token.TokenID, string(constants.BindingStatusRevoked))
	if err != nil {
		m.log.Error(ctx, "Failed to cascade revocation to bindings", err,
			logger.String("token_id", token.TokenID),
		)
		return false, err
	}

	m.log.Info(ctx, "Token revoked",
		logger.String("token_id", token.TokenID),
		logger.Int64("bindings_revoked", affected),
	)
	return true, nil
}

func (m *tokenManager) BindToken(ctx context.Context, accessToken, deviceID, ip string) error {
	if deviceID == "" && ip == "" {
		m.log.Warn(ctx, "Bind requested without device or ip, skipping")
		return nil
	}

	token, err := m.tokens.FindByAccessToken(ctx, accessToken)
	if err != nil {
		return err
	}
	if token == nil {
		m.log.Warn(ctx, "Bind requested for unknown token, skipping")
		return nil
	}

	binding := models.NewTokenBinding(token, deviceID, ip)
	if err := m.bindings.Save(ctx, binding); err != nil {
		m.log.Error(ctx, "Failed to save token binding", err,
			logger.String("token_id", token.TokenID),
		)
		return err
	}

	m.log.Info(ctx, "Token binding created",
		logger.String("token_id", token.TokenID),
		logger.String("binding_id", binding.BindingID),
		logger.String("binding_type", string(binding.BindingType)),
	)
	return nil
}

func (m *tokenManager) CheckTokenBinding(ctx context.Context, accessToken, deviceID, ip string) (bool, error) {
	valid, err := m.ValidateToken(ctx, accessToken)
	if err != nil || !valid {
		return false, err
	}

	token, err := m.tokens.FindByAccessToken(ctx, accessToken)
	if err != nil {
		return false, err
	}
	if token == nil {
		return false, nil
	}

	bindings, err := m.bindings.FindByTokenID(ctx, token.TokenID)
	if err != nil {
		return false, err
	}

	var active *models.TokenBinding
	for _, b := range bindings {
		if b.Status == constants.BindingStatusActive {
			active = b
			break
		}
	}

	// Unbound tokens are allowed by default.
	if active == nil {
		return true, nil
	}

	matched := active.Matches(deviceID, ip)
	if !matched {
		m.log.Warn(ctx, "Token binding mismatch",
			logger.String("token_id", token.TokenID),
			logger.String("binding_type", string(active.BindingType)),
		)
	}
	return matched, nil
}
