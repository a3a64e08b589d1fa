package postgres

import (
	"context"
	stderrors "errors"
	"time"

	"gorm.io/gorm"

	"github.com/turtacn/sfauth/internal/domain/models"
	"github.com/turtacn/sfauth/internal/domain/repository"
	"github.com/turtacn/sfauth/pkg/errors"
	"github.com/turtacn/sfauth/pkg/logger"
)

// TokenRepoImpl implements repository.TokenRepository on PostgreSQL.
type TokenRepoImpl struct {
	db  *gorm.DB
	log logger.Logger
}

var _ repository.TokenRepository = (*TokenRepoImpl)(nil)

// NewTokenRepository creates the PostgreSQL token repository.
func NewTokenRepository(db *gorm.DB, log logger.Logger) repository.TokenRepository {
	return &TokenRepoImpl{db: db, log: log.WithComponent("token_repo")}
}

// Save persists a new token row.
func (r *TokenRepoImpl) Save(ctx context.Context, token *models.Token) error {
	if err := r.db.WithContext(ctx).Create(token).Error; err != nil {
		r.log.Error(ctx, "Failed to save token", err,
			logger.String("token_id", token.TokenID),
		)
		return errors.System("failed to save token").WithCause(err)
	}
	return nil
}

// Update persists status changes for an existing token.
func (r *TokenRepoImpl) Update(ctx context.Context, token *models.Token) error {
	err := r.db.WithContext(ctx).
		Model(&models.Token{}).
		Where("token_id = ?", token.TokenID).
		Updates(map[string]interface{}{
			"status":     token.Status,
			"updated_at": time.Now(),
		}).Error
	if err != nil {
		r.log.Error(ctx, "Failed to update token", err,
			logger.String("token_id", token.TokenID),
		)
		return errors.System("failed to update token").WithCause(err)
	}
	return nil
}

// FindByAccessToken loads a token by its access token value, (nil, nil) when absent.
func (r *TokenRepoImpl) FindByAccessToken(ctx context.Context, accessToken string) (*models.Token, error) {
	var token models.Token
	err := r.db.WithContext(ctx).
		Where("access_token = ?", accessToken).
		First(&token).Error
	if err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, errors.System("failed to load token").WithCause(err)
	}
	return &token, nil
}

// TokenBindingRepoImpl implements repository.TokenBindingRepository on PostgreSQL.
type TokenBindingRepoImpl struct {
	db  *gorm.DB
	log logger.Logger
}

var _ repository.TokenBindingRepository = (*TokenBindingRepoImpl)(nil)

// NewTokenBindingRepository creates the PostgreSQL token binding repository.
func NewTokenBindingRepository(db *gorm.DB, log logger.Logger) repository.TokenBindingRepository {
	return &TokenBindingRepoImpl{db: db, log: log.WithComponent("token_binding_repo")}
}

// Save persists a new binding row.
func (r *TokenBindingRepoImpl) Save(ctx context.Context, binding *models.TokenBinding) error {
	if err := r.db.WithContext(ctx).Create(binding).Error; err != nil {
		r.log.Error(ctx, "Failed to save token binding", err,
			logger.String("binding_id", binding.BindingID),
			logger.String("token_id", binding.TokenID),
		)
		return errors.System("failed to save token binding").WithCause(err)
	}
	return nil
}

// FindByTokenID returns all bindings for a token, oldest first.
func (r *TokenBindingRepoImpl) FindByTokenID(ctx context.Context, tokenID string) ([]*models.TokenBinding, error) {
	var bindings []*models.TokenBinding
	err := r.db.WithContext(ctx).
		Where("token_id = ?", tokenID).
		Order("created_at ASC").
		Find(&bindings).Error
	if err != nil {
		return nil, errors.System("failed to load token bindings").WithCause(err)
	}
	return bindings, nil
}

// UpdateStatusByTokenID sets the status of every binding attached to a token
// and reports how many rows changed.
func (r *TokenBindingRepoImpl) UpdateStatusByTokenID(ctx context.Context, tokenID string, status string) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&models.TokenBinding{}).
		Where("token_id = ?", tokenID).
		Updates(map[string]interface{}{
			"status":     status,
			"updated_at": time.Now(),
		})
	if result.Error != nil {
		r.log.Error(ctx, "Failed to update token binding status", result.Error,
			logger.String("token_id", tokenID),
			logger.String("status", status),
		)
		return 0, errors.System("failed to update token bindings").WithCause(result.Error)
	}
	return result.RowsAffected, nil
}
