package postgres

import (
	"context"
	stderrors "errors"
	"time"

	"gorm.io/gorm"

	"github.com/turtacn/sfauth/internal/domain/models"
	"github.com/turtacn/sfauth/internal/domain/repository"
	"github.com/turtacn/sfauth/pkg/constants"
	"github.com/turtacn/sfauth/pkg/errors"
	"github.com/turtacn/sfauth/pkg/logger"
)

// SessionRepoImpl implements repository.SessionRepository on PostgreSQL.
type SessionRepoImpl struct {
	db  *gorm.DB
	log logger.Logger
}

var _ repository.SessionRepository = (*SessionRepoImpl)(nil)

// NewSessionRepository creates the PostgreSQL session repository.
func NewSessionRepository(db *gorm.DB, log logger.Logger) repository.SessionRepository {
	return &SessionRepoImpl{db: db, log: log.WithComponent("session_repo")}
}

// Save inserts a new session row.
func (r *SessionRepoImpl) Save(ctx context.Context, session *models.LoginSession) error {
	if err := r.db.WithContext(ctx).Create(session).Error; err != nil {
		r.log.Error(ctx, "Failed to save session", err,
			logger.String("session_id", session.SessionID),
		)
		return errors.System("failed to save session").WithCause(err)
	}
	return nil
}

// Update persists the mutable session fields.
func (r *SessionRepoImpl) Update(ctx context.Context, session *models.LoginSession) error {
	session.UpdatedAt = time.Now().UTC()

	result := r.db.WithContext(ctx).
		Model(&models.LoginSession{}).
		Where("session_id = ?", session.SessionID).
		Updates(map[string]interface{}{
			"status":             session.Status,
			"last_activity_time": session.LastActivityTime,
			"updated_at":         session.UpdatedAt,
		})
	if result.Error != nil {
		r.log.Error(ctx, "Failed to update session", result.Error,
			logger.String("session_id", session.SessionID),
		)
		return errors.System("failed to update session").WithCause(result.Error)
	}
	return nil
}

// FindBySessionID loads one session, (nil, nil) when absent.
func (r *SessionRepoImpl) FindBySessionID(ctx context.Context, sessionID string) (*models.LoginSession, error) {
	var session models.LoginSession
	err := r.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		First(&session).Error
	if err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, errors.System("failed to load session").WithCause(err)
	}
	return &session, nil
}

// FindActiveByUsername lists a user's active sessions, newest first.
func (r *SessionRepoImpl) FindActiveByUsername(ctx context.Context, username string) ([]*models.LoginSession, error) {
	var sessions []*models.LoginSession
	err := r.db.WithContext(ctx).
		Where("username = ? AND status = ?", username, constants.SessionStatusActive).
		Order("login_time DESC").
		Find(&sessions).Error
	if err != nil {
		return nil, errors.System("failed to list sessions").WithCause(err)
	}
	return sessions, nil
}
