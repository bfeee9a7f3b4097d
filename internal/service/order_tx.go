package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"order-reconciliation-service/internal/apperror"
	"order-reconciliation-service/internal/lock"
	"order-reconciliation-service/internal/model"
	"order-reconciliation-service/internal/repository"

	"gorm.io/gorm"
)

const lockWait = 10 * time.Second

// orderTx runs read-modify-write cycles on a single order under its lock and
// persists with the version check.
type orderTx struct {
	locker    lock.Locker
	orderRepo repository.OrderRepository
}

// mutate loads the order, calls fn, and saves when fn reports a change.
func (t orderTx) mutate(ctx context.Context, op, orderID string, fn func(order *model.Order) (bool, error)) (*model.Order, error) {
	if strings.TrimSpace(orderID) == "" {
		return nil, apperror.InvalidInput(op, "order id is required")
	}

	lockCtx, cancel := context.WithTimeout(ctx, lockWait)
	unlock, err := t.locker.Lock(lockCtx, lock.OrderKey(orderID))
	cancel()
	if err != nil {
		return nil, &apperror.Error{Kind: apperror.KindConflict, Op: op, Message: "order is busy", Err: err}
	}
	defer unlock()

	order, err := t.load(ctx, op, orderID)
	if err != nil {
		return nil, err
	}

	changed, err := fn(order)
	if err != nil {
		return nil, err
	}
	if !changed {
		return order, nil
	}

	if err := t.orderRepo.Save(ctx, order); err != nil {
		switch {
		case errors.Is(err, repository.ErrVersionConflict):
			return nil, apperror.Conflict(op, "order was modified concurrently")
		case errors.Is(err, gorm.ErrRecordNotFound):
			return nil, apperror.NotFound(op, "order not found")
		default:
			return nil, apperror.Persistence(op, err)
		}
	}
	return order, nil
}

func (t orderTx) load(ctx context.Context, op, orderID string) (*model.Order, error) {
	order, err := t.orderRepo.FindByID(ctx, orderID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperror.NotFound(op, "order not found")
	}
	if err != nil {
		return nil, apperror.Persistence(op, err)
	}
	return order, nil
}
