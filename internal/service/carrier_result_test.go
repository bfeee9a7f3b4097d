package service

import (
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"order-reconciliation-service/internal/client"
	"order-reconciliation-service/internal/model"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeCarrierResponse(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   bool
	}{
		{name: "status success", status: 200, body: `{"status":"success"}`, want: true},
		{name: "status success mixed case", status: 200, body: `{"status":"Success","data":{}}`, want: true},
		{name: "data object", status: 200, body: `{"status_code":200,"data":{"AWB1":{}}}`, want: true},
		{name: "data array", status: 200, body: `{"data":[{"waybill":"W1"}]}`, want: true},
		{name: "empty data", status: 200, body: `{"data":{}}`, want: false},
		{name: "empty array", status: 200, body: `{"data":[]}`, want: false},
		{name: "data string", status: 200, body: `{"data":"ok"}`, want: false},
		{name: "explicit error with data", status: 200, body: `{"status":"error","data":{"AWB1":{}}}`, want: false},
		{name: "failed status", status: 200, body: `{"status":"FAILED"}`, want: false},
		{name: "5xx with success body", status: 502, body: `{"status":"success"}`, want: false},
		{name: "4xx", status: 400, body: `{"data":{"x":1}}`, want: false},
		{name: "numeric status with data", status: 200, body: `{"status":200,"data":{"x":1}}`, want: true},
		{name: "not an object", status: 200, body: `[1,2]`, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NormalizeCarrierResponse(&client.CarrierResponse{HTTPStatus: tt.status, Body: json.RawMessage(tt.body)})
			assert.Equal(t, tt.want, got.Success)
			assert.JSONEq(t, tt.body, string(got.Payload))
		})
	}
}

func TestNormalizeCarrierResponse_EmptyBody(t *testing.T) {
	got := NormalizeCarrierResponse(&client.CarrierResponse{HTTPStatus: http.StatusOK})
	assert.False(t, got.Success)
	assert.JSONEq(t, `{}`, string(got.Payload))

	got = NormalizeCarrierResponse(nil)
	assert.False(t, got.Success)
}

func TestMapCarrierStatus(t *testing.T) {
	tests := []struct {
		code, text string
		want       model.OrderStatus
		ok         bool
	}{
		{"IT", "whatever", model.OrderStatusInTransit, true},
		{"", "In Transit", model.OrderStatusInTransit, true},
		{"", "out_for_delivery", model.OrderStatusOutForDelivery, true},
		{"", "Out For Delivery", model.OrderStatusOutForDelivery, true},
		{"DL", "", model.OrderStatusDelivered, true},
		{"", "Delivered", model.OrderStatusDelivered, true},
		{"", "Undelivered - customer unavailable", model.OrderStatusUndelivered, true},
		{"", "RTO In Transit", model.OrderStatusRTO, true},
		{"", "RTO Delivered", model.OrderStatusReturned, true},
		{"", "Picked Up", model.OrderStatusShipped, true},
		{"", "Cancelled by seller", model.OrderStatusCancelled, true},
		{"", "Lost in space", "", false},
		{"", "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.code+"/"+tt.text, func(t *testing.T) {
			got, ok := MapCarrierStatus(tt.code, tt.text)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseCarrierTime(t *testing.T) {
	got := parseCarrierTime("2026-03-01 16:00:00")
	assert.Equal(t, time.Date(2026, 3, 1, 10, 30, 0, 0, time.UTC), got)

	got = parseCarrierTime("2026-03-01T10:30:00Z")
	assert.Equal(t, time.Date(2026, 3, 1, 10, 30, 0, 0, time.UTC), got)

	assert.True(t, parseCarrierTime("yesterday").IsZero())
}
