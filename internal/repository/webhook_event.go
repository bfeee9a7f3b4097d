package repository

import (
	"context"
	"order-reconciliation-service/internal/model"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type WebhookEventRepository interface {
	Exists(ctx context.Context, eventID string) (bool, error)
	MarkProcessed(ctx context.Context, eventID, eventType string) error
	// Claim records eventID for orderID unless it is already recorded, and
	// returns the order that holds it.
	Claim(ctx context.Context, eventID, eventType, orderID string) (string, error)
}

type webhookEventRepositoryImpl struct {
	db *gorm.DB
}

func NewWebhookEventRepository(db *gorm.DB) WebhookEventRepository {
	return &webhookEventRepositoryImpl{db: db}
}

func (r *webhookEventRepositoryImpl) Exists(ctx context.Context, eventID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.WebhookEvent{}).
		Where("event_id = ?", eventID).
		Count(&count).Error

	return count > 0, err
}

// MarkProcessed is a no-op when the event is already recorded.
func (r *webhookEventRepositoryImpl) MarkProcessed(ctx context.Context, eventID string, eventType string) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&model.WebhookEvent{
		EventID:     eventID,
		EventType:   eventType,
		ProcessedAt: time.Now(),
	}).Error
}

func (r *webhookEventRepositoryImpl) Claim(ctx context.Context, eventID, eventType, orderID string) (string, error) {
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&model.WebhookEvent{
		EventID:     eventID,
		EventType:   eventType,
		OrderID:     orderID,
		ProcessedAt: time.Now(),
	}).Error
	if err != nil {
		return "", err
	}

	var stored model.WebhookEvent
	err = r.db.WithContext(ctx).
		Where("event_id = ?", eventID).
		First(&stored).Error
	if err != nil {
		return "", err
	}
	return stored.OrderID, nil
}
