package client

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"net/http/httptest"
	"order-reconciliation-service/internal/config"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRazorpayState(t *testing.T) {
	tests := []struct {
		name     string
		order    string
		payments []razorpayPayment
		want     string
	}{
		{"captured payment", "attempted", []razorpayPayment{{Status: "failed"}, {Status: "captured"}}, GatewayStateCompleted},
		{"all failed", "attempted", []razorpayPayment{{Status: "failed"}, {Status: "failed"}}, GatewayStateFailed},
		{"authorized only", "attempted", []razorpayPayment{{Status: "authorized"}}, "ATTEMPTED"},
		{"no payments", "created", nil, "CREATED"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, razorpayState(tt.order, tt.payments))
		})
	}
}

func TestRazorpayClient_OrderStatus(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/orders/order_paid", func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		assert.True(t, ok)
		assert.Equal(t, "rzp_key", user)
		assert.Equal(t, "rzp_secret", pass)
		fmt.Fprint(w, `{"id":"order_paid","status":"paid","amount":149900}`)
	})
	mux.HandleFunc("/v1/orders/order_failed", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"id":"order_failed","status":"attempted","amount":149900}`)
	})
	mux.HandleFunc("/v1/orders/order_failed/payments", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"items":[{"id":"pay_1","status":"failed"}]}`)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	c := NewRazorpayClient(&config.Razorpay{BaseApiURL: srv.URL, KeyID: "rzp_key", KeySecret: "rzp_secret"}, RetryPolicy{MaxAttempts: 1})

	paid, err := c.OrderStatus(context.Background(), "order_paid")
	require.NoError(t, err)
	assert.Equal(t, GatewayStateCompleted, paid.State)

	failed, err := c.OrderStatus(context.Background(), "order_failed")
	require.NoError(t, err)
	assert.Equal(t, GatewayStateFailed, failed.State)
	assert.Contains(t, string(failed.Raw), `"payments"`)
}

func TestRazorpayClient_VerifyPaymentSignature(t *testing.T) {
	c := NewRazorpayClient(&config.Razorpay{KeySecret: "rzp_secret"}, RetryPolicy{})

	mac := hmac.New(sha256.New, []byte("rzp_secret"))
	mac.Write([]byte("order_1|pay_1"))
	valid := hex.EncodeToString(mac.Sum(nil))

	assert.True(t, c.VerifyPaymentSignature("order_1", "pay_1", valid))
	assert.False(t, c.VerifyPaymentSignature("order_1", "pay_2", valid))
	assert.False(t, c.VerifyPaymentSignature("order_1", "pay_1", ""))
}
