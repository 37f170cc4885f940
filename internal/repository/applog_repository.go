package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/nurpe/haken-contracts/internal/model"
)

type AppLogFilter struct {
	ModelName string
	ObjectID  string
	UserID    *uuid.UUID
	Action    string
	From      *time.Time
	To        *time.Time
	Limit     int
	Offset    int
}

func (r *Repository) CreateAppLog(ctx context.Context, entry *model.AppLog) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

// ListAppLogs returns one page of a tenant's log, newest first, with the total count.
func (r *Repository) ListAppLogs(ctx context.Context, tenantID uuid.UUID, filter AppLogFilter) ([]model.AppLog, int64, error) {
	scope := func(query *gorm.DB) *gorm.DB {
		query = query.Where("tenant_id = ?", tenantID)
		if filter.ModelName != "" {
			query = query.Where("model_name = ?", filter.ModelName)
		}
		if filter.ObjectID != "" {
			query = query.Where("object_id = ?", filter.ObjectID)
		}
		if filter.UserID != nil {
			query = query.Where("user_id = ?", *filter.UserID)
		}
		if filter.Action != "" {
			query = query.Where("action = ?", filter.Action)
		}
		if filter.From != nil {
			query = query.Where("timestamp >= ?", *filter.From)
		}
		if filter.To != nil {
			query = query.Where("timestamp < ?", *filter.To)
		}
		return query
	}

	var total int64
	if err := r.db.WithContext(ctx).Model(&model.AppLog{}).Scopes(scope).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var logs []model.AppLog
	query := r.db.WithContext(ctx).Scopes(scope).Order("timestamp DESC")
	if err := paginate(query, filter.Limit, filter.Offset).Find(&logs).Error; err != nil {
		return nil, 0, err
	}
	return logs, total, nil
}
