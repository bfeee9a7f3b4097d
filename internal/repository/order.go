package repository

import (
	"context"
	"errors"
	"order-reconciliation-service/internal/model"
	"time"

	"gorm.io/gorm"
)

// ErrVersionConflict is returned by Save when the row changed since it was read.
var ErrVersionConflict = errors.New("order version conflict")

type OrderRepository interface {
	Create(ctx context.Context, order *model.Order, items []*model.OrderItem) error
	FindByID(ctx context.Context, orderID string) (*model.Order, error)
	GetOrderItems(ctx context.Context, orderID string) ([]*model.OrderItem, error)
	Save(ctx context.Context, order *model.Order) error
}

type orderRepoImpl struct {
	db *gorm.DB
}

func NewOrderRepository(db *gorm.DB) OrderRepository {
	return &orderRepoImpl{
		db: db,
	}
}

func (r *orderRepoImpl) Create(ctx context.Context, order *model.Order, items []*model.OrderItem) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(order).Error; err != nil {
			return err
		}
		if len(items) == 0 {
			return nil
		}
		for _, item := range items {
			item.OrderID = order.ID
		}
		return tx.Create(&items).Error
	})
}

func (r *orderRepoImpl) FindByID(ctx context.Context, orderID string) (*model.Order, error) {
	var order model.Order
	err := r.db.WithContext(ctx).
		Where("id = ?", orderID).
		First(&order).Error

	if err != nil {
		return nil, err
	}

	return &order, nil
}

func (r *orderRepoImpl) GetOrderItems(ctx context.Context, orderID string) ([]*model.OrderItem, error) {
	var items []*model.OrderItem
	err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("id").
		Find(&items).Error

	if err != nil {
		return nil, err
	}

	return items, nil
}

// Save writes the mutable columns of order guarded by its Version. On success
// order.Version is bumped to the stored value.
func (r *orderRepoImpl) Save(ctx context.Context, order *model.Order) error {
	now := time.Now()
	result := r.db.WithContext(ctx).
		Model(&model.Order{}).
		Where("id = ? AND version = ?", order.ID, order.Version).
		Updates(map[string]interface{}{
			"status":            order.Status,
			"payment_status":    order.PaymentStatus,
			"payment_method":    order.PaymentMethod,
			"payment_id":        order.PaymentID,
			"gateway_reference": order.GatewayReference,
			"logistic_order_id": order.LogisticOrderID,
			"awb_number":        order.AWBNumber,
			"courier_name":      order.CourierName,
			"logistic_response": order.LogisticResponse,
			"tracking_events":   order.TrackingEvents,
			"version":           gorm.Expr("version + 1"),
			"updated_at":        now,
		})

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		var count int64
		if err := r.db.WithContext(ctx).Model(&model.Order{}).Where("id = ?", order.ID).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return gorm.ErrRecordNotFound
		}
		return ErrVersionConflict
	}

	order.Version++
	order.UpdatedAt = now
	return nil
}
