package model

import (
	"fmt"
	"strings"
)

type OrderStatus string

const (
	OrderStatusPending        OrderStatus = "PENDING"
	OrderStatusProcessing     OrderStatus = "PROCESSING"
	OrderStatusShipped        OrderStatus = "SHIPPED"
	OrderStatusInTransit      OrderStatus = "IN_TRANSIT"
	OrderStatusOutForDelivery OrderStatus = "OUT_FOR_DELIVERY"
	OrderStatusUndelivered    OrderStatus = "UNDELIVERED" // carrier raised an NDR
	OrderStatusDelivered      OrderStatus = "DELIVERED"
	OrderStatusRTO            OrderStatus = "RTO"
	OrderStatusReturned       OrderStatus = "RETURNED"
	OrderStatusCancelled      OrderStatus = "CANCELLED"
)

var transitions = map[OrderStatus][]OrderStatus{
	OrderStatusPending:    {OrderStatusProcessing, OrderStatusCancelled},
	OrderStatusProcessing: {OrderStatusShipped, OrderStatusCancelled},
	OrderStatusShipped: {
		OrderStatusInTransit, OrderStatusOutForDelivery, OrderStatusUndelivered,
		OrderStatusDelivered, OrderStatusRTO, OrderStatusCancelled,
	},
	OrderStatusInTransit: {
		OrderStatusOutForDelivery, OrderStatusUndelivered, OrderStatusDelivered, OrderStatusRTO,
	},
	OrderStatusOutForDelivery: {
		OrderStatusInTransit, OrderStatusUndelivered, OrderStatusDelivered, OrderStatusRTO,
	},
	OrderStatusUndelivered: {
		OrderStatusInTransit, OrderStatusOutForDelivery, OrderStatusDelivered, OrderStatusRTO,
	},
	OrderStatusRTO:       {OrderStatusReturned},
	OrderStatusDelivered: nil,
	OrderStatusReturned:  nil,
	OrderStatusCancelled: nil,
}

// ParseOrderStatus accepts the canonical names case-insensitively, with
// spaces or dashes in place of underscores ("out for delivery").
func ParseOrderStatus(s string) (OrderStatus, error) {
	norm := strings.ToUpper(strings.TrimSpace(s))
	norm = strings.NewReplacer(" ", "_", "-", "_").Replace(norm)

	status := OrderStatus(norm)
	if _, ok := transitions[status]; !ok {
		return "", fmt.Errorf("unknown order status %q", s)
	}
	return status, nil
}

func (s OrderStatus) Valid() bool {
	_, ok := transitions[s]
	return ok
}

func (s OrderStatus) Terminal() bool {
	return s.Valid() && len(transitions[s]) == 0
}

// CanTransition reports whether an order may move from s to next.
// Staying in the same state is always allowed.
func (s OrderStatus) CanTransition(next OrderStatus) bool {
	if s == next {
		return next.Valid()
	}
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

type PaymentStatus string

const (
	PaymentStatusPending PaymentStatus = "PENDING"
	PaymentStatusPaid    PaymentStatus = "PAID"
	PaymentStatusFailed  PaymentStatus = "FAILED"
)

const (
	PaymentMethodPhonePe   = "PHONEPE"
	PaymentMethodRazorpay  = "RAZORPAY"
	PaymentMethodBraintree = "BRAINTREE"
	PaymentMethodCOD       = "COD"
)

type LogEventType string

const (
	LogEventShipmentTracking LogEventType = "SHIPMENT_TRACKING"
	LogEventShipmentCancel   LogEventType = "SHIPMENT_CANCEL"
	LogEventShipmentLabel    LogEventType = "SHIPMENT_LABEL"
	LogEventShipmentManifest LogEventType = "SHIPMENT_MANIFEST"
	LogEventShipmentReturn   LogEventType = "SHIPMENT_RETURN"
	LogEventShipmentCreate   LogEventType = "SHIPMENT_CREATE"
	LogEventWarehouseAdd     LogEventType = "WAREHOUSE_ADD"
)

type LogStatus string

const (
	LogStatusSuccess LogStatus = "SUCCESS"
	LogStatusFailure LogStatus = "FAILURE"
)
