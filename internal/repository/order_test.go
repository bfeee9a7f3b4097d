package repository

import (
	"context"
	"testing"

	"order-reconciliation-service/internal/model"
	"order-reconciliation-service/internal/testutil"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newOrder(id string) *model.Order {
	return &model.Order{
		ID:            id,
		Status:        model.OrderStatusProcessing,
		PaymentStatus: model.PaymentStatusPending,
		PaymentMethod: model.PaymentMethodPhonePe,
		TotalAmount:   decimal.RequireFromString("1499.00"),
	}
}

func TestOrderRepository_CreateAndFind(t *testing.T) {
	ctx := context.Background()
	repo := NewOrderRepository(testutil.NewDB(t))

	items := []*model.OrderItem{
		{ProductID: "p1", ProductName: "Kurta", SKU: "KRT-1", Quantity: 2, UnitPrice: decimal.RequireFromString("499.50")},
	}
	require.NoError(t, repo.Create(ctx, newOrder("o1"), items))

	got, err := repo.FindByID(ctx, "o1")
	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusProcessing, got.Status)
	assert.True(t, got.TotalAmount.Equal(decimal.RequireFromString("1499")))

	gotItems, err := repo.GetOrderItems(ctx, "o1")
	require.NoError(t, err)
	require.Len(t, gotItems, 1)
	assert.Equal(t, "o1", gotItems[0].OrderID)

	_, err = repo.FindByID(ctx, "missing")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestOrderRepository_SaveBumpsVersion(t *testing.T) {
	ctx := context.Background()
	repo := NewOrderRepository(testutil.NewDB(t))
	require.NoError(t, repo.Create(ctx, newOrder("o1"), nil))

	order, err := repo.FindByID(ctx, "o1")
	require.NoError(t, err)

	order.PaymentStatus = model.PaymentStatusPaid
	require.NoError(t, repo.Save(ctx, order))
	assert.Equal(t, int64(1), order.Version)

	stored, err := repo.FindByID(ctx, "o1")
	require.NoError(t, err)
	assert.Equal(t, model.PaymentStatusPaid, stored.PaymentStatus)
	assert.Equal(t, int64(1), stored.Version)
}

func TestOrderRepository_SaveDetectsStaleVersion(t *testing.T) {
	ctx := context.Background()
	repo := NewOrderRepository(testutil.NewDB(t))
	require.NoError(t, repo.Create(ctx, newOrder("o1"), nil))

	first, err := repo.FindByID(ctx, "o1")
	require.NoError(t, err)
	second, err := repo.FindByID(ctx, "o1")
	require.NoError(t, err)

	first.Status = model.OrderStatusShipped
	require.NoError(t, repo.Save(ctx, first))

	second.Status = model.OrderStatusCancelled
	assert.ErrorIs(t, repo.Save(ctx, second), ErrVersionConflict)

	missing := newOrder("nope")
	assert.ErrorIs(t, repo.Save(ctx, missing), gorm.ErrRecordNotFound)
}
