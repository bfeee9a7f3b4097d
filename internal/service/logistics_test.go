package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"testing"

	"order-reconciliation-service/internal/apperror"
	"order-reconciliation-service/internal/client"
	"order-reconciliation-service/internal/model"
	"order-reconciliation-service/internal/repository"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
)

func TestLogisticsService_TrackWritesSuccessLog(t *testing.T) {
	f := newFixture(t, newFakeCarrier(http.StatusOK, `{"status":"success","data":{"AWB123":{"current_status":"In Transit"}}}`))
	ctx := WithRequestInfo(context.Background(), RequestInfo{URL: "/api/shipment/track", UserAgent: "curl/8"})

	result, err := f.logistics.Track(ctx, []string{"AWB123"})
	require.NoError(t, err)
	assert.True(t, result.Success)

	logs := f.systemLogs(t)
	require.Len(t, logs, 1)
	assert.Equal(t, model.LogEventShipmentTracking, logs[0].EventType)
	assert.Equal(t, model.LogStatusSuccess, logs[0].Status)
	assert.Equal(t, "/api/shipment/track", logs[0].URL)
	assert.Equal(t, "curl/8", logs[0].UserAgent)
	assert.JSONEq(t, `{"awb_numbers":["AWB123"]}`, string(logs[0].RequestData))
	assert.Contains(t, string(logs[0].ResponseData), "In Transit")
}

func TestLogisticsService_EmptyAWBsRejected(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	calls := map[string]func() error{
		"track":    func() error { _, err := f.logistics.Track(ctx, nil); return err },
		"cancel":   func() error { _, err := f.logistics.Cancel(ctx, []string{}); return err },
		"label":    func() error { _, err := f.logistics.GenerateLabel(ctx, []string{"AWB1", " "}); return err },
		"manifest": func() error { _, err := f.logistics.GenerateManifest(ctx, nil); return err },
		"return":   func() error { _, err := f.logistics.Return(ctx, ReturnRequest{}); return err },
	}

	for name, call := range calls {
		t.Run(name, func(t *testing.T) {
			err := call()
			assert.True(t, apperror.IsKind(err, apperror.KindInvalidInput))
			assert.Zero(t, f.carrier.count(name))
		})
	}
	assert.Empty(t, f.systemLogs(t))
}

func TestLogisticsService_CarrierErrorWritesFailureLog(t *testing.T) {
	carrier := newFakeCarrier(http.StatusOK, `{}`)
	carrier.err = errors.New("dial tcp: connection refused")
	f := newFixture(t, carrier)

	_, err := f.logistics.Track(context.Background(), []string{"AWB123"})
	require.Error(t, err)
	assert.True(t, apperror.IsKind(err, apperror.KindUpstream))

	logs := f.systemLogs(t)
	require.Len(t, logs, 1)
	assert.Equal(t, model.LogStatusFailure, logs[0].Status)
	assert.Equal(t, "/api/shipment/track", logs[0].URL)
	assert.Equal(t, "system", logs[0].UserAgent)

	var resp map[string]string
	require.NoError(t, json.Unmarshal(logs[0].ResponseData, &resp))
	assert.Contains(t, resp["error"], "connection refused")
}

func TestLogisticsService_NonSuccessShape(t *testing.T) {
	f := newFixture(t, newFakeCarrier(http.StatusOK, `{"status":"error","html_message":"invalid awb"}`))

	result, err := f.logistics.Cancel(context.Background(), []string{"AWB1"})
	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.Contains(t, string(result.Payload), "invalid awb")

	logs := f.systemLogs(t)
	require.Len(t, logs, 1)
	assert.Equal(t, model.LogEventShipmentCancel, logs[0].EventType)
	assert.Equal(t, model.LogStatusFailure, logs[0].Status)
}

func TestLogisticsService_CarrierNotConfigured(t *testing.T) {
	carrier := newFakeCarrier(http.StatusOK, `{}`)
	carrier.err = client.ErrCarrierNotConfigured
	f := newFixture(t, carrier)

	_, err := f.logistics.GenerateManifest(context.Background(), []string{"AWB1"})
	assert.True(t, apperror.IsKind(err, apperror.KindInvalidInput))

	logs := f.systemLogs(t)
	require.Len(t, logs, 1)
	assert.Equal(t, model.LogEventShipmentManifest, logs[0].EventType)
	assert.Equal(t, model.LogStatusFailure, logs[0].Status)
}

func TestLogisticsService_Return(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	_, err := f.logistics.Return(ctx, ReturnRequest{AWBNumber: "AWB1", Action: "teleport"})
	assert.True(t, apperror.IsKind(err, apperror.KindInvalidInput))

	result, err := f.logistics.Return(ctx, ReturnRequest{AWBNumber: " AWB1 ", Action: "Reattempt", ReattemptDate: "2026-03-05"})
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, "AWB1", f.carrier.reattempt.AWBNumber)
	assert.Equal(t, NDRActionReattempt, f.carrier.reattempt.Action)

	logs := f.systemLogs(t)
	require.Len(t, logs, 1)
	assert.Equal(t, model.LogEventShipmentReturn, logs[0].EventType)
	assert.Equal(t, "Return/RTO action for AWB: AWB1", logs[0].Message)
}

func TestLogisticsService_CheckPincode(t *testing.T) {
	f := newFixture(t, newFakeCarrier(http.StatusOK, `{"status":"success","data":{"110001":{"Delhivery":{"prepaid":"Y"}}}}`))
	ctx := context.Background()

	for _, bad := range []string{"", "12345", "1234567", "ABCDEF", "012345"} {
		_, err := f.logistics.CheckPincode(ctx, bad)
		assert.True(t, apperror.IsKind(err, apperror.KindInvalidInput), bad)
	}
	assert.Zero(t, f.carrier.count("pincode"))

	result, err := f.logistics.CheckPincode(ctx, "110001")
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Empty(t, f.systemLogs(t))
}

func shippableOrder(id string) *model.Order {
	order := testOrder(id, model.OrderStatusProcessing)
	order.PaymentStatus = model.PaymentStatusPaid
	addr, _ := json.Marshal(model.ShippingAddress{
		FullName:     "Asha Rao",
		AddressLine1: "12 MG Road",
		City:         "Bengaluru",
		State:        "KA",
		Pincode:      "560001",
		Phone:        "9999999999",
	})
	order.ShippingAddress = datatypes.JSON(addr)
	return order
}

func TestLogisticsService_CreateShipment(t *testing.T) {
	f := newFixture(t, newFakeCarrier(http.StatusOK,
		`{"status":"success","data":{"1":{"status":"Success","waybill":"AWB9","refnum":"REF9","logistic_name":"Delhivery"}}}`))
	ctx := context.Background()
	f.seed(t, shippableOrder("o1"),
		&model.OrderItem{ProductID: "p1", ProductName: "Kurta", SKU: "KRT-1", Quantity: 2, UnitPrice: decimal.RequireFromString("749.50")})

	created, err := f.logistics.CreateShipment(ctx, "o1", "")
	require.NoError(t, err)
	assert.True(t, created.Carrier.Success)

	assert.Equal(t, "Prepaid", f.carrier.shipment.PaymentMode)
	assert.Equal(t, "560001", f.carrier.shipment.Pin)
	require.Len(t, f.carrier.shipment.Products, 1)
	assert.Equal(t, int32(2), f.carrier.shipment.Products[0].Quantity)
	assert.True(t, f.carrier.shipment.CODAmount.IsZero())

	stored := f.reload(t, "o1")
	assert.Equal(t, model.OrderStatusShipped, stored.Status)
	require.NotNil(t, stored.AWBNumber)
	assert.Equal(t, "AWB9", *stored.AWBNumber)
	require.NotNil(t, stored.LogisticOrderID)
	assert.Equal(t, "REF9", *stored.LogisticOrderID)
	assert.Equal(t, "Delhivery", stored.CourierName)
	assert.Len(t, model.DecodeTrackingEvents(stored.TrackingEvents), 1)

	logs := f.systemLogs(t)
	require.Len(t, logs, 1)
	assert.Equal(t, model.LogEventShipmentCreate, logs[0].EventType)

	_, err = f.logistics.CreateShipment(ctx, "o1", "")
	assert.True(t, apperror.IsKind(err, apperror.KindConflict))
	assert.Equal(t, 1, f.carrier.count("create"))
}

func TestLogisticsService_CreateShipmentRejected(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	unpaid := shippableOrder("unpaid")
	unpaid.PaymentStatus = model.PaymentStatusPending
	f.seed(t, unpaid, &model.OrderItem{ProductID: "p1", Quantity: 1, UnitPrice: decimal.NewFromInt(10)})

	pending := shippableOrder("pending")
	pending.Status = model.OrderStatusPending
	f.seed(t, pending, &model.OrderItem{ProductID: "p1", Quantity: 1, UnitPrice: decimal.NewFromInt(10)})

	_, err := f.logistics.CreateShipment(ctx, "unpaid", "prepaid")
	assert.True(t, apperror.IsKind(err, apperror.KindInvalidInput))

	_, err = f.logistics.CreateShipment(ctx, "pending", "")
	assert.True(t, apperror.IsKind(err, apperror.KindInvalidInput))

	_, err = f.logistics.CreateShipment(ctx, "missing", "")
	assert.True(t, apperror.IsKind(err, apperror.KindNotFound))

	assert.Zero(t, f.carrier.count("create"))
	assert.Empty(t, f.systemLogs(t))
}

func TestLogisticsService_CreateShipmentCOD(t *testing.T) {
	f := newFixture(t, newFakeCarrier(http.StatusOK, `{"status":"success","data":{"1":{"waybill":"AWB7"}}}`))
	order := shippableOrder("cod1")
	order.PaymentMethod = model.PaymentMethodCOD
	order.PaymentStatus = model.PaymentStatusPending
	f.seed(t, order, &model.OrderItem{ProductID: "p1", Quantity: 1, UnitPrice: decimal.RequireFromString("1499.00")})

	_, err := f.logistics.CreateShipment(context.Background(), "cod1", "")
	require.NoError(t, err)

	assert.Equal(t, "COD", f.carrier.shipment.PaymentMode)
	assert.True(t, f.carrier.shipment.CODAmount.Equal(decimal.RequireFromString("1499")))

	stored := f.reload(t, "cod1")
	require.NotNil(t, stored.LogisticOrderID)
	assert.Equal(t, "AWB7", *stored.LogisticOrderID)
	assert.Equal(t, "Delhivery", stored.CourierName)
}

func TestLogisticsService_Rate(t *testing.T) {
	f := newFixture(t, newFakeCarrier(http.StatusOK, `{"status":"success","data":[{"logistic_name":"Delhivery","rate":"82.60"}]}`))
	ctx := context.Background()

	valid := RateQuery{
		FromPincode: "560001",
		ToPincode:   "110001",
		WeightKg:    decimal.RequireFromString("0.5"),
		ProductMRP:  decimal.RequireFromString("1499"),
	}

	bad := map[string]func(q *RateQuery){
		"short pincode":    func(q *RateQuery) { q.ToPincode = "1100" },
		"zero weight":      func(q *RateQuery) { q.WeightKg = decimal.Zero },
		"negative mrp":     func(q *RateQuery) { q.ProductMRP = decimal.NewFromInt(-1) },
		"unknown method":   func(q *RateQuery) { q.PaymentMethod = "UPI" },
		"negative breadth": func(q *RateQuery) { q.Width = decimal.NewFromInt(-2) },
	}
	for name, mutate := range bad {
		t.Run(name, func(t *testing.T) {
			q := valid
			mutate(&q)
			_, err := f.logistics.Rate(ctx, q)
			assert.True(t, apperror.IsKind(err, apperror.KindInvalidInput))
		})
	}
	assert.Zero(t, f.carrier.count("rate"))

	q := valid
	q.PaymentMethod = "cod"
	q.Height = decimal.NewFromInt(4)
	result, err := f.logistics.Rate(ctx, q)
	require.NoError(t, err)
	assert.True(t, result.Success)

	sent := f.carrier.rate
	assert.Equal(t, "COD", sent.PaymentMethod)
	assert.True(t, sent.Length.Equal(decimal.NewFromInt(10)))
	assert.True(t, sent.Width.Equal(decimal.NewFromInt(10)))
	assert.True(t, sent.Height.Equal(decimal.NewFromInt(4)))
	assert.Empty(t, f.systemLogs(t))
}

func TestLogisticsService_AccountLookups(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	invalid := map[string]func() error{
		"ndr bad from": func() error { _, err := f.logistics.ListNDR(ctx, "01-03-2026", "2026-03-05"); return err },
		"ndr reversed": func() error { _, err := f.logistics.ListNDR(ctx, "2026-03-05", "2026-03-01"); return err },
		"remittance":   func() error { _, err := f.logistics.Remittance(ctx, ""); return err },
		"details":      func() error { _, err := f.logistics.RemittanceDetails(ctx, "2026-13-01"); return err },
	}
	for name, call := range invalid {
		t.Run(name, func(t *testing.T) {
			assert.True(t, apperror.IsKind(call(), apperror.KindInvalidInput))
		})
	}
	assert.Zero(t, f.carrier.count("ndr"))
	assert.Zero(t, f.carrier.count("remittance"))
	assert.Zero(t, f.carrier.count("remittance_details"))

	_, err := f.logistics.ListWarehouses(ctx)
	require.NoError(t, err)
	_, err = f.logistics.ListNDR(ctx, "2026-03-01", "2026-03-01")
	require.NoError(t, err)
	_, err = f.logistics.Remittance(ctx, " 2026-03-02 ")
	require.NoError(t, err)
	_, err = f.logistics.RemittanceDetails(ctx, "2026-03-02")
	require.NoError(t, err)

	for _, op := range []string{"warehouses", "ndr", "remittance", "remittance_details"} {
		assert.Equal(t, 1, f.carrier.count(op), op)
	}
	assert.Empty(t, f.systemLogs(t))

	f.carrier.err = errors.New("connection reset")
	_, err = f.logistics.ListWarehouses(ctx)
	assert.True(t, apperror.IsKind(err, apperror.KindUpstream))
}

func TestLogisticsService_AddWarehouse(t *testing.T) {
	f := newFixture(t, newFakeCarrier(http.StatusOK, `{"status":"success","warehouse_id":"77"}`))
	ctx := WithRequestInfo(context.Background(), RequestInfo{URL: "/api/admin/logistics/warehouses", Actor: "ops"})

	w := Warehouse{
		CompanyName: "Acme Fabrics",
		Address1:    "Plot 4, Peenya",
		Mobile:      "9876543210",
		Pincode:     "560058",
		CityID:      "101",
		StateID:     "12",
		CountryID:   "1",
	}

	bad := w
	bad.Mobile = "12345"
	_, err := f.logistics.AddWarehouse(ctx, bad)
	assert.True(t, apperror.IsKind(err, apperror.KindInvalidInput))
	assert.Zero(t, f.carrier.count("warehouse_add"))

	result, err := f.logistics.AddWarehouse(ctx, w)
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, "Acme Fabrics", f.carrier.warehouse.CompanyName)

	logs := f.systemLogs(t)
	require.Len(t, logs, 1)
	assert.Equal(t, model.LogEventWarehouseAdd, logs[0].EventType)
	assert.Equal(t, "Warehouse added: Acme Fabrics", logs[0].Message)
	assert.Equal(t, "ops", logs[0].Actor)
}

func TestLogisticsService_CreateShipmentSaveFailureLogsBooking(t *testing.T) {
	var buf bytes.Buffer
	f := newFixtureWith(t, newFakeCarrier(http.StatusOK,
		`{"status":"success","data":{"1":{"status":"Success","waybill":"AWB77","refnum":"REF77"}}}`),
		fixtureOptions{
			logger:     slog.New(slog.NewJSONHandler(&buf, nil)),
			wrapOrders: func(r repository.OrderRepository) repository.OrderRepository { return failingSaves{r} },
		})
	ctx := context.Background()
	f.seed(t, shippableOrder("o1"),
		&model.OrderItem{ProductID: "p1", ProductName: "Kurta", SKU: "KRT-1", Quantity: 1, UnitPrice: decimal.RequireFromString("1499.00")})

	_, err := f.logistics.CreateShipment(ctx, "o1", "")
	require.Error(t, err)
	assert.Equal(t, 1, f.carrier.count("create"))

	out := buf.String()
	assert.Contains(t, out, `"level":"ERROR"`)
	assert.Contains(t, out, `"waybill":"AWB77"`)
	assert.Contains(t, out, `"refnum":"REF77"`)
	assert.Nil(t, f.reload(t, "o1").AWBNumber)
}
