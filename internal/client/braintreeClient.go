package client

import (
	"context"
	"encoding/json"
	"fmt"
	"order-reconciliation-service/internal/config"
	"strings"

	"github.com/braintree-go/braintree-go"
	"github.com/shopspring/decimal"
)

// braintreeTransactionFinder is the slice of the SDK gateway we use.
type braintreeTransactionFinder interface {
	Find(ctx context.Context, txId string) (*braintree.Transaction, error)
}

type braintreeClientImpl struct {
	transactions braintreeTransactionFinder
	retry        RetryPolicy
}

type braintreeStatusDetails struct {
	ID                    string          `json:"id"`
	Status                string          `json:"status"`
	Amount                decimal.Decimal `json:"amount"`
	ProcessorResponseText string          `json:"processor_response_text,omitempty"`
}

// NewBraintreeClient initializes the Braintree SDK gateway
func NewBraintreeClient(cfg *config.Braintree, retry RetryPolicy) PaymentGateway {
	env := braintree.Sandbox
	if cfg.Environment == "production" {
		env = braintree.Production
	}

	gateway := braintree.New(
		env,
		cfg.MerchantID,
		cfg.PublicKey,
		cfg.PrivateKey,
	)

	return &braintreeClientImpl{
		transactions: gateway.Transaction(),
		retry:        retry,
	}
}

func (c *braintreeClientImpl) Name() string { return "BRAINTREE" }

func (c *braintreeClientImpl) OrderStatus(ctx context.Context, transactionID string) (*GatewayOrderStatus, error) {
	var tx *braintree.Transaction
	err := c.retry.Do(ctx, func() error {
		var err error
		tx, err = c.transactions.Find(ctx, transactionID)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("braintree find transaction: %w", err)
	}

	details := braintreeStatusDetails{
		ID:                    tx.Id,
		Status:                string(tx.Status),
		ProcessorResponseText: tx.ProcessorResponseText,
	}
	if tx.Amount != nil {
		// braintree keeps amounts as unscaled integer + scale
		details.Amount = decimal.New(tx.Amount.Unscaled, -int32(tx.Amount.Scale))
	}

	raw, err := json.Marshal(details)
	if err != nil {
		return nil, fmt.Errorf("marshal braintree details: %w", err)
	}

	return &GatewayOrderStatus{
		State: braintreeState(string(tx.Status)),
		Raw:   raw,
	}, nil
}

func braintreeState(status string) string {
	switch strings.ToLower(status) {
	case "settled", "settling", "submitted_for_settlement", "settlement_confirmed":
		return GatewayStateCompleted
	case "failed", "processor_declined", "gateway_rejected", "voided", "settlement_declined", "authorization_expired":
		return GatewayStateFailed
	default:
		return strings.ToUpper(status)
	}
}
