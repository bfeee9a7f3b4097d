package service

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"testing"

	"order-reconciliation-service/internal/client"
	"order-reconciliation-service/internal/lock"
	"order-reconciliation-service/internal/model"
	"order-reconciliation-service/internal/repository"
	"order-reconciliation-service/internal/testutil"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeGateway struct {
	name  string
	state string
	err   error
	mu    sync.Mutex
	calls []string
}

func (g *fakeGateway) Name() string { return g.name }

func (g *fakeGateway) OrderStatus(ctx context.Context, transactionID string) (*client.GatewayOrderStatus, error) {
	g.mu.Lock()
	g.calls = append(g.calls, transactionID)
	g.mu.Unlock()

	if g.err != nil {
		return nil, g.err
	}
	return &client.GatewayOrderStatus{
		State: g.state,
		Raw:   json.RawMessage(`{"state":"` + g.state + `"}`),
	}, nil
}

func (g *fakeGateway) callCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.calls)
}

type fakeRazorpay struct {
	fakeGateway
	validSignature string
}

func (r *fakeRazorpay) VerifyPaymentSignature(orderID, paymentID, signature string) bool {
	return signature == r.validSignature
}

type fakeCarrier struct {
	mu        sync.Mutex
	resp      *client.CarrierResponse
	err       error
	calls     map[string]int
	shipment  client.Shipment
	reattempt client.ReattemptRequest
	rate      client.RateRequest
	warehouse client.Warehouse
}

func newFakeCarrier(status int, body string) *fakeCarrier {
	return &fakeCarrier{
		resp:  &client.CarrierResponse{HTTPStatus: status, Body: json.RawMessage(body)},
		calls: map[string]int{},
	}
}

func (c *fakeCarrier) record(op string) (*client.CarrierResponse, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls[op]++
	if c.err != nil {
		return nil, c.err
	}
	resp := *c.resp
	resp.Endpoint = op
	return &resp, nil
}

func (c *fakeCarrier) count(op string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls[op]
}

func (c *fakeCarrier) Track(ctx context.Context, awbs []string) (*client.CarrierResponse, error) {
	return c.record("track")
}

func (c *fakeCarrier) Cancel(ctx context.Context, awbs []string) (*client.CarrierResponse, error) {
	return c.record("cancel")
}

func (c *fakeCarrier) Label(ctx context.Context, awbs []string) (*client.CarrierResponse, error) {
	return c.record("label")
}

func (c *fakeCarrier) Manifest(ctx context.Context, awbs []string) (*client.CarrierResponse, error) {
	return c.record("manifest")
}

func (c *fakeCarrier) ReattemptOrRTO(ctx context.Context, req client.ReattemptRequest) (*client.CarrierResponse, error) {
	c.mu.Lock()
	c.reattempt = req
	c.mu.Unlock()
	return c.record("return")
}

func (c *fakeCarrier) CreateShipment(ctx context.Context, shipment client.Shipment) (*client.CarrierResponse, error) {
	c.mu.Lock()
	c.shipment = shipment
	c.mu.Unlock()
	return c.record("create")
}

func (c *fakeCarrier) CheckPincode(ctx context.Context, pincode string) (*client.CarrierResponse, error) {
	return c.record("pincode")
}

func (c *fakeCarrier) Rate(ctx context.Context, req client.RateRequest) (*client.CarrierResponse, error) {
	c.mu.Lock()
	c.rate = req
	c.mu.Unlock()
	return c.record("rate")
}

func (c *fakeCarrier) Warehouses(ctx context.Context) (*client.CarrierResponse, error) {
	return c.record("warehouses")
}

func (c *fakeCarrier) AddWarehouse(ctx context.Context, w client.Warehouse) (*client.CarrierResponse, error) {
	c.mu.Lock()
	c.warehouse = w
	c.mu.Unlock()
	return c.record("warehouse_add")
}

func (c *fakeCarrier) NDRList(ctx context.Context, fromDate, toDate string) (*client.CarrierResponse, error) {
	return c.record("ndr")
}

func (c *fakeCarrier) Remittance(ctx context.Context, date string) (*client.CarrierResponse, error) {
	return c.record("remittance")
}

func (c *fakeCarrier) RemittanceDetails(ctx context.Context, date string) (*client.CarrierResponse, error) {
	return c.record("remittance_details")
}

// failingSaves lets reads through and fails every Save.
type failingSaves struct {
	repository.OrderRepository
}

func (r failingSaves) Save(ctx context.Context, order *model.Order) error {
	return errors.New("database is read-only")
}

// fixture wires every service against one in-memory database.
type fixture struct {
	orders    repository.OrderRepository
	logs      repository.SystemLogRepository
	webhooks  repository.WebhookEventRepository
	phonepe   *fakeGateway
	razorpay  *fakeRazorpay
	carrier   *fakeCarrier
	payments  PaymentService
	logistics LogisticsService
	reconcile ReconcileService
	tracking  TrackingService
}

type fixtureOptions struct {
	autoShip bool
	logger   *slog.Logger
	// wrapOrders decorates the order repository handed to the services.
	wrapOrders func(repository.OrderRepository) repository.OrderRepository
}

func newFixture(t *testing.T, carrier *fakeCarrier) *fixture {
	return newFixtureWith(t, carrier, fixtureOptions{})
}

func newFixtureWith(t *testing.T, carrier *fakeCarrier, opts fixtureOptions) *fixture {
	t.Helper()

	db := testutil.NewDB(t)
	locker := lock.NewLocalLocker()
	logger := opts.logger
	if logger == nil {
		logger = discardLogger()
	}

	f := &fixture{
		orders:   repository.NewOrderRepository(db),
		logs:     repository.NewSystemLogRepository(db),
		webhooks: repository.NewWebhookEventRepository(db),
		phonepe:  &fakeGateway{name: "PHONEPE", state: "PENDING"},
		razorpay: &fakeRazorpay{fakeGateway: fakeGateway{name: "RAZORPAY", state: "PENDING"}, validSignature: "good-sig"},
		carrier:  carrier,
	}
	if f.carrier == nil {
		f.carrier = newFakeCarrier(http.StatusOK, `{"status":"success","data":{}}`)
	}

	orders := f.orders
	if opts.wrapOrders != nil {
		orders = opts.wrapOrders(orders)
	}

	f.payments = NewPaymentService(logger, f.razorpay, f.phonepe)
	f.logistics = NewLogisticsService(logger, f.carrier, f.logs, orders, locker, "Delhivery")
	f.reconcile = NewReconcileService(logger, f.payments, f.logistics, orders, f.webhooks, locker, opts.autoShip)
	f.tracking = NewTrackingService(f.orders)
	return f
}

func (f *fixture) seed(t *testing.T, order *model.Order, items ...*model.OrderItem) {
	t.Helper()
	require.NoError(t, f.orders.Create(context.Background(), order, items))
}

func (f *fixture) reload(t *testing.T, id string) *model.Order {
	t.Helper()
	order, err := f.orders.FindByID(context.Background(), id)
	require.NoError(t, err)
	return order
}

func (f *fixture) systemLogs(t *testing.T) []*model.SystemLog {
	t.Helper()
	logs, err := f.logs.List(context.Background(), repository.SystemLogFilter{})
	require.NoError(t, err)
	return logs
}

func testOrder(id string, status model.OrderStatus) *model.Order {
	return &model.Order{
		ID:            id,
		Status:        status,
		PaymentStatus: model.PaymentStatusPending,
		PaymentMethod: model.PaymentMethodPhonePe,
		TotalAmount:   decimal.RequireFromString("1499.00"),
	}
}

func strPtr(s string) *string { return &s }
