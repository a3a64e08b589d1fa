package repository

import (
	"context"

	"github.com/turtacn/sfauth/internal/domain/models"
)

// TokenRepository persists Token rows.
// TokenRepository 定义令牌持久化契约。
type TokenRepository interface {
	// Save inserts a new token row.
	Save(ctx context.Context, token *models.Token) error

	// Update persists a status mutation.
	Update(ctx context.Context, token *models.Token) error

	// FindByAccessToken loads a token by its value, (nil, nil) when unknown.
	FindByAccessToken(ctx context.Context, accessToken string) (*models.Token, error)
}

// TokenBindingRepository persists TokenBinding rows.
type TokenBindingRepository interface {
	// Save inserts a new binding row.
	Save(ctx context.Context, binding *models.TokenBinding) error

	// FindByTokenID lists every binding referencing a token.
	FindByTokenID(ctx context.Context, tokenID string) ([]*models.TokenBinding, error)

	// UpdateStatusByTokenID flips every binding of a token to the given
	// status, returning the number of rows changed.
	UpdateStatusByTokenID(ctx context.Context, tokenID string, status string) (int64, error)
}
