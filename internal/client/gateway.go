package client

import (
	"context"
	"encoding/json"
)

// Gateway-neutral terminal states reported by every PaymentGateway.
const (
	GatewayStateCompleted = "COMPLETED"
	GatewayStateFailed    = "FAILED"
)

type GatewayOrderStatus struct {
	// State is GatewayStateCompleted, GatewayStateFailed, or the gateway's own
	// non-terminal state name.
	State string
	Raw   json.RawMessage
}

type PaymentGateway interface {
	Name() string
	OrderStatus(ctx context.Context, transactionID string) (*GatewayOrderStatus, error)
}
