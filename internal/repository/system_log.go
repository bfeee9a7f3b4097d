package repository

import (
	"context"
	"order-reconciliation-service/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type SystemLogFilter struct {
	EventType model.LogEventType
	Status    model.LogStatus
	Limit     int
}

type SystemLogRepository interface {
	Create(ctx context.Context, entry *model.SystemLog) error
	List(ctx context.Context, filter SystemLogFilter) ([]*model.SystemLog, error)
}

type systemLogRepoImpl struct {
	db *gorm.DB
}

func NewSystemLogRepository(db *gorm.DB) SystemLogRepository {
	return &systemLogRepoImpl{
		db: db,
	}
}

func (r *systemLogRepoImpl) Create(ctx context.Context, entry *model.SystemLog) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	return r.db.WithContext(ctx).Create(entry).Error
}

func (r *systemLogRepoImpl) List(ctx context.Context, filter SystemLogFilter) ([]*model.SystemLog, error) {
	limit := filter.Limit
	if limit <= 0 || limit > 500 {
		limit = 100
	}

	q := r.db.WithContext(ctx).Model(&model.SystemLog{})
	if filter.EventType != "" {
		q = q.Where("event_type = ?", filter.EventType)
	}
	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}

	var logs []*model.SystemLog
	err := q.Order("created_at DESC").Limit(limit).Find(&logs).Error
	if err != nil {
		return nil, err
	}

	return logs, nil
}
