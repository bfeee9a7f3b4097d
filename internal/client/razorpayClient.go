package client

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"order-reconciliation-service/internal/config"
	"strings"
	"time"
)

type RazorpayClient interface {
	PaymentGateway
	// VerifyPaymentSignature checks the checkout callback signature.
	VerifyPaymentSignature(orderID, paymentID, signature string) bool
}

type razorpayClientImpl struct {
	httpClient *http.Client
	baseApiURL string
	keyID      string
	keySecret  string
	retry      RetryPolicy
}

type razorpayOrder struct {
	ID     string `json:"id"`
	Status string `json:"status"` // created, attempted, paid
	Amount int64  `json:"amount"`
}

type razorpayPayment struct {
	ID     string `json:"id"`
	Status string `json:"status"` // created, authorized, captured, refunded, failed
}

type razorpayPaymentList struct {
	Items []razorpayPayment `json:"items"`
}

func NewRazorpayClient(cfg *config.Razorpay, retry RetryPolicy) RazorpayClient {
	return &razorpayClientImpl{
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		baseApiURL: strings.TrimRight(cfg.BaseApiURL, "/"),
		keyID:      cfg.KeyID,
		keySecret:  cfg.KeySecret,
		retry:      retry,
	}
}

func (c *razorpayClientImpl) Name() string { return "RAZORPAY" }

func (c *razorpayClientImpl) OrderStatus(ctx context.Context, orderID string) (*GatewayOrderStatus, error) {
	var order razorpayOrder
	orderBody, err := c.get(ctx, "/v1/orders/"+url.PathEscape(orderID), &order)
	if err != nil {
		return nil, fmt.Errorf("razorpay fetch order: %w", err)
	}

	if strings.EqualFold(order.Status, "paid") {
		return &GatewayOrderStatus{State: GatewayStateCompleted, Raw: orderBody}, nil
	}

	var payments razorpayPaymentList
	paymentsBody, err := c.get(ctx, "/v1/orders/"+url.PathEscape(orderID)+"/payments", &payments)
	if err != nil {
		return nil, fmt.Errorf("razorpay fetch order payments: %w", err)
	}

	raw, err := json.Marshal(map[string]json.RawMessage{
		"order":    orderBody,
		"payments": paymentsBody,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal razorpay details: %w", err)
	}

	return &GatewayOrderStatus{
		State: razorpayState(order.Status, payments.Items),
		Raw:   raw,
	}, nil
}

func razorpayState(orderStatus string, payments []razorpayPayment) string {
	failed := 0
	for _, p := range payments {
		switch strings.ToLower(p.Status) {
		case "captured":
			return GatewayStateCompleted
		case "failed":
			failed++
		}
	}
	if len(payments) > 0 && failed == len(payments) {
		return GatewayStateFailed
	}
	return strings.ToUpper(orderStatus)
}

func (c *razorpayClientImpl) get(ctx context.Context, path string, out interface{}) (json.RawMessage, error) {
	var body []byte
	err := c.retry.Do(ctx, func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseApiURL+path, nil)
		if err != nil {
			return fmt.Errorf("http new request: %w", err)
		}
		req.SetBasicAuth(c.keyID, c.keySecret)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("http client do: %w", err)
		}
		defer resp.Body.Close()

		body, _ = io.ReadAll(resp.Body)
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return &HTTPStatusError{StatusCode: resp.StatusCode, Body: string(body)}
		}
		if err := json.Unmarshal(body, out); err != nil {
			return &decodeError{err: err}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return json.RawMessage(body), nil
}

func (c *razorpayClientImpl) VerifyPaymentSignature(orderID, paymentID, signature string) bool {
	if c.keySecret == "" || signature == "" {
		return false
	}
	mac := hmac.New(sha256.New, []byte(c.keySecret))
	mac.Write([]byte(orderID + "|" + paymentID))
	expected := hex.EncodeToString(mac.Sum(nil))

	return hmac.Equal([]byte(expected), []byte(signature))
}
