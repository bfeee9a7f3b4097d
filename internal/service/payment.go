package service

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"

	"order-reconciliation-service/internal/apperror"
	"order-reconciliation-service/internal/client"
	"order-reconciliation-service/internal/metrics"
	"order-reconciliation-service/internal/model"
)

type PaymentStatusResult struct {
	Gateway      string              `json:"gateway"`
	Status       model.PaymentStatus `json:"status"`
	GatewayState string              `json:"gateway_state"`
	Details      json.RawMessage     `json:"details"`
}

type PaymentService interface {
	CheckPaymentStatus(ctx context.Context, gateway, transactionID string) (*PaymentStatusResult, error)
	VerifyRazorpaySignature(orderID, paymentID, signature string) bool
}

type paymentServiceImpl struct {
	logger   *slog.Logger
	gateways map[string]client.PaymentGateway
	razorpay client.RazorpayClient
}

// NewPaymentService registers each gateway under its Name(). razorpay may be
// nil when Razorpay is not configured.
func NewPaymentService(logger *slog.Logger, razorpay client.RazorpayClient, gateways ...client.PaymentGateway) PaymentService {
	registry := make(map[string]client.PaymentGateway, len(gateways)+1)
	for _, g := range gateways {
		registry[strings.ToUpper(g.Name())] = g
	}
	if razorpay != nil {
		registry[strings.ToUpper(razorpay.Name())] = razorpay
	}

	return &paymentServiceImpl{
		logger:   logger,
		gateways: registry,
		razorpay: razorpay,
	}
}

// MapGatewayState folds a gateway state into PAID, FAILED or PENDING.
// Unknown states are PENDING.
func MapGatewayState(state string) model.PaymentStatus {
	switch strings.ToUpper(strings.TrimSpace(state)) {
	case client.GatewayStateCompleted:
		return model.PaymentStatusPaid
	case client.GatewayStateFailed:
		return model.PaymentStatusFailed
	default:
		return model.PaymentStatusPending
	}
}

func (s *paymentServiceImpl) CheckPaymentStatus(ctx context.Context, gateway, transactionID string) (*PaymentStatusResult, error) {
	const op = "payment.CheckPaymentStatus"

	if strings.TrimSpace(transactionID) == "" {
		return nil, apperror.InvalidInput(op, "transaction id is required")
	}

	name := strings.ToUpper(strings.TrimSpace(gateway))
	g, ok := s.gateways[name]
	if !ok {
		return nil, apperror.InvalidInput(op, "unsupported payment gateway "+gateway)
	}

	status, err := g.OrderStatus(ctx, transactionID)
	if err != nil {
		metrics.PaymentChecksTotal.WithLabelValues(name, "error").Inc()
		s.logger.ErrorContext(ctx, "payment status check failed",
			"gateway", name, "transaction_id", transactionID, "error", err)
		return nil, apperror.Upstream(op, err)
	}

	result := &PaymentStatusResult{
		Gateway:      name,
		Status:       MapGatewayState(status.State),
		GatewayState: status.State,
		Details:      status.Raw,
	}
	if len(result.Details) == 0 {
		result.Details = json.RawMessage(`{}`)
	}

	metrics.PaymentChecksTotal.WithLabelValues(name, string(result.Status)).Inc()
	s.logger.InfoContext(ctx, "payment status checked",
		"gateway", name, "transaction_id", transactionID,
		"gateway_state", status.State, "status", result.Status)

	return result, nil
}

func (s *paymentServiceImpl) VerifyRazorpaySignature(orderID, paymentID, signature string) bool {
	if s.razorpay == nil {
		return false
	}
	return s.razorpay.VerifyPaymentSignature(orderID, paymentID, signature)
}
