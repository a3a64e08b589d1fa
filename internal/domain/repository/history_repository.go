package repository

import (
	"context"

	"github.com/turtacn/sfauth/internal/domain/models"
)

// HistoryFilter narrows history listings. Zero values match everything.
type HistoryFilter struct {
	Username    string
	LoginStatus string
	Limit       int
	Offset      int
}

// HistoryRepository persists the append-only LoginHistory audit rows.
type HistoryRepository interface {
	// Save appends one history row. Rows are never updated or deleted.
	Save(ctx context.Context, history *models.LoginHistory) error

	// FindByID loads a history row by its identifier, (nil, nil) when absent.
	FindByID(ctx context.Context, historyID string) (*models.LoginHistory, error)

	// List returns history rows matching the filter, newest first, with the
	// total match count for pagination.
	List(ctx context.Context, filter HistoryFilter) ([]*models.LoginHistory, int64, error)
}
