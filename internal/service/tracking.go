package service

import (
	"context"

	"order-reconciliation-service/internal/model"
	"order-reconciliation-service/internal/repository"
)

// customerFlow is the simplified journey shown to shoppers.
var customerFlow = []string{"placed", "confirmed", "packed", "shipped", "out_for_delivery", "delivered"}

var flowStep = map[model.OrderStatus]string{
	model.OrderStatusPending:        "placed",
	model.OrderStatusProcessing:     "confirmed",
	model.OrderStatusShipped:        "shipped",
	model.OrderStatusInTransit:      "shipped",
	model.OrderStatusUndelivered:    "shipped",
	model.OrderStatusOutForDelivery: "out_for_delivery",
	model.OrderStatusDelivered:      "delivered",
}

type TimelineStep struct {
	Status    string `json:"status"`
	Completed bool   `json:"completed"`
}

type Timeline struct {
	OrderID       string                `json:"order_id"`
	CurrentStatus string                `json:"current_status"`
	OrderStatus   model.OrderStatus     `json:"order_status"`
	AWBNumber     string                `json:"awb_number,omitempty"`
	CourierName   string                `json:"courier_name,omitempty"`
	Timeline      []TimelineStep        `json:"timeline"`
	Events        []model.TrackingEvent `json:"events"`
}

type TrackingService interface {
	Timeline(ctx context.Context, orderID string) (*Timeline, error)
}

type trackingServiceImpl struct {
	tx orderTx
}

func NewTrackingService(orderRepo repository.OrderRepository) TrackingService {
	return &trackingServiceImpl{
		tx: orderTx{orderRepo: orderRepo},
	}
}

func (s *trackingServiceImpl) Timeline(ctx context.Context, orderID string) (*Timeline, error) {
	const op = "tracking.Timeline"

	order, err := s.tx.load(ctx, op, orderID)
	if err != nil {
		return nil, err
	}

	events := model.DecodeTrackingEvents(order.TrackingEvents)
	current := customerStep(events)

	idx := 0
	for i, step := range customerFlow {
		if step == current {
			idx = i
		}
	}

	steps := make([]TimelineStep, len(customerFlow))
	for i, step := range customerFlow {
		steps[i] = TimelineStep{Status: step, Completed: i <= idx}
	}

	t := &Timeline{
		OrderID:       order.ID,
		CurrentStatus: current,
		OrderStatus:   order.Status,
		CourierName:   order.CourierName,
		Timeline:      steps,
		Events:        events,
	}
	if order.AWBNumber != nil {
		t.AWBNumber = *order.AWBNumber
	}
	return t, nil
}

// customerStep derives the flow step from the latest tracking event. Events
// may carry either an order status or a flow step name.
func customerStep(events []model.TrackingEvent) string {
	if len(events) == 0 {
		return customerFlow[0]
	}
	last := events[len(events)-1].Status

	for _, step := range customerFlow {
		if step == last {
			return step
		}
	}
	if status, err := model.ParseOrderStatus(last); err == nil {
		if step, ok := flowStep[status]; ok {
			return step
		}
	}
	return customerFlow[0]
}
