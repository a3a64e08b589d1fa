package postgres

import (
	"context"
	stderrors "errors"

	"gorm.io/gorm"

	"github.com/turtacn/sfauth/internal/domain/models"
	"github.com/turtacn/sfauth/internal/domain/repository"
	"github.com/turtacn/sfauth/pkg/errors"
	"github.com/turtacn/sfauth/pkg/logger"
)

// HistoryRepoImpl implements repository.HistoryRepository on PostgreSQL.
// Rows are append-only; no update path exists.
type HistoryRepoImpl struct {
	db  *gorm.DB
	log logger.Logger
}

var _ repository.HistoryRepository = (*HistoryRepoImpl)(nil)

// NewHistoryRepository creates the PostgreSQL history repository.
func NewHistoryRepository(db *gorm.DB, log logger.Logger) repository.HistoryRepository {
	return &HistoryRepoImpl{db: db, log: log.WithComponent("history_repo")}
}

// Save appends one history row.
func (r *HistoryRepoImpl) Save(ctx context.Context, history *models.LoginHistory) error {
	if err := r.db.WithContext(ctx).Create(history).Error; err != nil {
		r.log.Error(ctx, "Failed to save login history", err,
			logger.String("history_id", history.HistoryID),
		)
		return errors.System("failed to save login history").WithCause(err)
	}
	return nil
}

// FindByID loads one history row, (nil, nil) when absent.
func (r *HistoryRepoImpl) FindByID(ctx context.Context, historyID string) (*models.LoginHistory, error) {
	var history models.LoginHistory
	err := r.db.WithContext(ctx).
		Where("history_id = ?", historyID).
		First(&history).Error
	if err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, errors.System("failed to load login history").WithCause(err)
	}
	return &history, nil
}

// List returns rows matching the filter, newest first.
func (r *HistoryRepoImpl) List(ctx context.Context, filter repository.HistoryFilter) ([]*models.LoginHistory, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.LoginHistory{})
	if filter.Username != "" {
		query = query.Where("username = ?", filter.Username)
	}
	if filter.LoginStatus != "" {
		query = query.Where("login_status = ?", filter.LoginStatus)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, errors.System("failed to count login history").WithCause(err)
	}

	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}
	if filter.Offset > 0 {
		query = query.Offset(filter.Offset)
	}

	var rows []*models.LoginHistory
	if err := query.Order("request_time DESC").Find(&rows).Error; err != nil {
		return nil, 0, errors.System("failed to list login history").WithCause(err)
	}
	return rows, total, nil
}
