// Package repository 定义领域仓储接口
// Package repository defines the persistence contracts for the domain models.
// Implementations live under internal/infrastructure/persistence.
package repository

import (
	"context"

	"github.com/turtacn/sfauth/internal/domain/models"
)

// SessionRepository persists LoginSession rows.
// Lookups return (nil, nil) when no row matches; errors are reserved for
// storage failures.
type SessionRepository interface {
	// Save inserts a new session row.
	Save(ctx context.Context, session *models.LoginSession) error

	// Update persists status and activity mutations of an existing row.
	Update(ctx context.Context, session *models.LoginSession) error

	// FindBySessionID loads a session by its identifier.
	FindBySessionID(ctx context.Context, sessionID string) (*models.LoginSession, error)

	// FindActiveByUsername lists the active sessions of a user, newest first.
	FindActiveByUsername(ctx context.Context, username string) ([]*models.LoginSession, error)
}
