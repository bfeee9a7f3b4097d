package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"order-reconciliation-service/internal/apperror"
	"order-reconciliation-service/internal/lock"
	"order-reconciliation-service/internal/metrics"
	"order-reconciliation-service/internal/model"
	"order-reconciliation-service/internal/repository"

	"gorm.io/datatypes"
)

const PhonePeCodePaymentSuccess = "PAYMENT_SUCCESS"

type PaymentReconciliation struct {
	Order   *model.Order         `json:"order"`
	Payment *PaymentStatusResult `json:"payment,omitempty"`
	Updated bool                 `json:"updated"`
}

type ShipmentReconciliation struct {
	Order         *model.Order        `json:"order"`
	Event         model.TrackingEvent `json:"event"`
	EventAdded    bool                `json:"event_added"`
	StatusChanged bool                `json:"status_changed"`
}

type UpdateStatusInput struct {
	OrderID       string
	Status        string
	TrackingEvent *model.TrackingEvent
	// Force skips transition validation for manual admin corrections.
	Force bool
}

type CourierEvent struct {
	Status    string
	Message   string
	Location  string
	Timestamp time.Time
}

type CourierUpdate struct {
	CourierName    string
	TrackingNumber string
	CurrentStatus  string
	Events         []CourierEvent
}

type VerifyRazorpayInput struct {
	OrderID           string
	RazorpayOrderID   string
	RazorpayPaymentID string
	Signature         string
}

type ReconcileService interface {
	ReconcilePaymentStatus(ctx context.Context, orderID string) (*PaymentReconciliation, error)
	ReconcileShipmentStatus(ctx context.Context, orderID, awb string) (*ShipmentReconciliation, error)
	UpdateOrderStatus(ctx context.Context, in UpdateStatusInput) (*model.Order, error)
	ApplyCourierUpdate(ctx context.Context, orderID string, update CourierUpdate) (*model.Order, error)
	ConfirmPhonePeCallback(ctx context.Context, transactionID, code string) (*PaymentReconciliation, error)
	VerifyRazorpayPayment(ctx context.Context, in VerifyRazorpayInput) (*model.Order, error)
}

type reconcileServiceImpl struct {
	logger           *slog.Logger
	payments         PaymentService
	logistics        LogisticsService
	webhookEventRepo repository.WebhookEventRepository
	tx               orderTx
	autoShip         bool
}

// NewReconcileService wires the orchestrator. With autoShip set, orders that
// become paid through a gateway confirmation get their carrier shipment
// booked right away.
func NewReconcileService(
	logger *slog.Logger,
	payments PaymentService,
	logistics LogisticsService,
	orderRepo repository.OrderRepository,
	webhookEventRepo repository.WebhookEventRepository,
	locker lock.Locker,
	autoShip bool,
) ReconcileService {
	return &reconcileServiceImpl{
		logger:           logger,
		payments:         payments,
		logistics:        logistics,
		webhookEventRepo: webhookEventRepo,
		tx:               orderTx{locker: locker, orderRepo: orderRepo},
		autoShip:         autoShip,
	}
}

func (s *reconcileServiceImpl) ReconcilePaymentStatus(ctx context.Context, orderID string) (*PaymentReconciliation, error) {
	const op = "reconcile.PaymentStatus"

	rec := &PaymentReconciliation{}
	order, err := s.tx.mutate(ctx, op, orderID, func(order *model.Order) (bool, error) {
		result, err := s.checkOrderPayment(ctx, op, order, "")
		if err != nil {
			return false, err
		}
		rec.Payment = result
		rec.Updated = s.applyPaymentResult(ctx, order, result)
		return rec.Updated, nil
	})
	observe("payment", rec.Updated, err)
	if err != nil {
		return nil, err
	}

	rec.Order = order
	return rec, nil
}

// checkOrderPayment asks the order's gateway (or gateway, when given) about
// its transaction.
func (s *reconcileServiceImpl) checkOrderPayment(ctx context.Context, op string, order *model.Order, gateway string) (*PaymentStatusResult, error) {
	if gateway == "" {
		gateway = order.PaymentMethod
	}
	if gateway == "" {
		gateway = model.PaymentMethodPhonePe
	}
	if strings.EqualFold(gateway, model.PaymentMethodCOD) {
		return nil, apperror.InvalidInput(op, "cash on delivery orders have no gateway payment")
	}

	txnID := order.GatewayReference
	if txnID == "" {
		txnID = order.ID
	}

	result, err := s.payments.CheckPaymentStatus(ctx, gateway, txnID)
	if err != nil {
		return nil, fmt.Errorf("check payment status: %w", err)
	}
	return result, nil
}

// applyPaymentResult folds a gateway verdict into order. PENDING never writes
// and a stored PAID is never downgraded.
func (s *reconcileServiceImpl) applyPaymentResult(ctx context.Context, order *model.Order, result *PaymentStatusResult) bool {
	switch result.Status {
	case model.PaymentStatusPaid:
		if order.PaymentStatus == model.PaymentStatusPaid {
			return false
		}
	case model.PaymentStatusFailed:
		if order.PaymentStatus == model.PaymentStatusPaid {
			s.logger.WarnContext(ctx, "gateway reports failure for a paid order, keeping PAID",
				"order_id", order.ID, "gateway", result.Gateway, "gateway_state", result.GatewayState)
			return false
		}
		if order.PaymentStatus == model.PaymentStatusFailed {
			return false
		}
	default:
		return false
	}

	s.logger.InfoContext(ctx, "payment status reconciled",
		"order_id", order.ID, "from", order.PaymentStatus, "to", result.Status)
	order.PaymentStatus = result.Status
	return true
}

func (s *reconcileServiceImpl) ReconcileShipmentStatus(ctx context.Context, orderID, awb string) (*ShipmentReconciliation, error) {
	const op = "reconcile.ShipmentStatus"

	rec := &ShipmentReconciliation{}
	order, err := s.tx.mutate(ctx, op, orderID, func(order *model.Order) (bool, error) {
		awb = strings.TrimSpace(awb)
		if awb == "" && order.AWBNumber != nil {
			awb = *order.AWBNumber
		}
		if awb == "" {
			return false, apperror.InvalidInput(op, "order has no awb number")
		}

		result, err := s.logistics.Track(ctx, []string{awb})
		if err != nil {
			return false, fmt.Errorf("track shipment: %w", err)
		}
		if !result.Success {
			return false, apperror.Upstream(op, errors.New("carrier returned non-success tracking response"))
		}

		block, err := parseTrackBlock(result.Payload, awb)
		if err != nil {
			return false, apperror.Upstream(op, err)
		}

		mapped, known := MapCarrierStatus(block.CurrentStatusCode, block.CurrentStatus)
		eventStatus := strings.ToUpper(strings.TrimSpace(block.CurrentStatus))
		if known {
			eventStatus = string(mapped)
		}
		message := block.LastScanDetails.Remark
		if message == "" {
			message = block.LastScanDetails.Status
		}

		rec.Event = model.TrackingEvent{
			Status:    eventStatus,
			Label:     block.CurrentStatus,
			Message:   message,
			Location:  block.LastScanDetails.ScanLocation,
			Timestamp: parseCarrierTime(block.LastScanDetails.StatusDateTime),
			Source:    model.EventSourceCarrier,
		}.WithKey(awb)

		added, err := appendEvents(order, rec.Event)
		if err != nil {
			return false, err
		}
		rec.EventAdded = added > 0

		if known {
			rec.StatusChanged = s.applyStatus(ctx, order, mapped)
		}

		changed := rec.EventAdded || rec.StatusChanged
		if order.AWBNumber == nil {
			order.AWBNumber = &awb
			changed = true
		}
		if order.CourierName == "" && block.Logistic != "" {
			order.CourierName = block.Logistic
			changed = true
		}
		if !sameJSON(order.LogisticResponse, result.Payload) {
			order.LogisticResponse = datatypes.JSON(result.Payload)
			changed = true
		}
		return changed, nil
	})
	observe("shipment", rec.EventAdded || rec.StatusChanged, err)
	if err != nil {
		return nil, err
	}

	rec.Order = order
	return rec, nil
}

// applyStatus moves order to next when the transition table allows it.
func (s *reconcileServiceImpl) applyStatus(ctx context.Context, order *model.Order, next model.OrderStatus) bool {
	if order.Status == next {
		return false
	}
	if !order.Status.CanTransition(next) {
		s.logger.WarnContext(ctx, "ignoring invalid status transition",
			"order_id", order.ID, "from", order.Status, "to", next)
		return false
	}
	order.Status = next
	return true
}

func (s *reconcileServiceImpl) UpdateOrderStatus(ctx context.Context, in UpdateStatusInput) (*model.Order, error) {
	const op = "reconcile.UpdateOrderStatus"

	next, err := model.ParseOrderStatus(in.Status)
	if err != nil {
		return nil, apperror.InvalidInput(op, err.Error())
	}

	order, err := s.tx.mutate(ctx, op, in.OrderID, func(order *model.Order) (bool, error) {
		if !in.Force && !order.Status.CanTransition(next) {
			return false, apperror.InvalidInput(op,
				fmt.Sprintf("cannot move order from %s to %s", order.Status, next))
		}

		changed := order.Status != next
		if in.Force && changed && !order.Status.CanTransition(next) {
			s.logger.WarnContext(ctx, "forced status override",
				"order_id", order.ID, "from", order.Status, "to", next)
		}
		order.Status = next

		if in.TrackingEvent != nil {
			ev := *in.TrackingEvent
			if ev.Status == "" {
				ev.Status = string(next)
			}
			if ev.Source == "" {
				ev.Source = model.EventSourceAdmin
			}
			if ev.Timestamp.IsZero() {
				ev.Timestamp = time.Now().UTC().Truncate(time.Second)
			}
			added, err := appendEvents(order, ev.WithKey(orderAWB(order)))
			if err != nil {
				return false, err
			}
			changed = changed || added > 0
		}
		return changed, nil
	})
	observe("status", err == nil, err)
	if err != nil {
		return nil, err
	}
	return order, nil
}

func (s *reconcileServiceImpl) ApplyCourierUpdate(ctx context.Context, orderID string, update CourierUpdate) (*model.Order, error) {
	const op = "reconcile.ApplyCourierUpdate"

	changed := false
	order, err := s.tx.mutate(ctx, op, orderID, func(order *model.Order) (bool, error) {
		trackingNumber := strings.TrimSpace(update.TrackingNumber)
		if trackingNumber != "" {
			switch {
			case order.AWBNumber == nil:
				order.AWBNumber = &trackingNumber
				changed = true
			case *order.AWBNumber != trackingNumber:
				s.logger.WarnContext(ctx, "courier tracking number differs from stored awb, keeping stored",
					"order_id", order.ID, "stored", *order.AWBNumber, "pushed", trackingNumber)
			}
		}
		if update.CourierName != "" && update.CourierName != order.CourierName {
			order.CourierName = update.CourierName
			changed = true
		}

		awb := orderAWB(order)
		events := make([]model.TrackingEvent, 0, len(update.Events))
		for _, e := range update.Events {
			status := strings.ToUpper(strings.TrimSpace(e.Status))
			if mapped, ok := MapCarrierStatus("", e.Status); ok {
				status = string(mapped)
			}
			events = append(events, model.TrackingEvent{
				Status:    status,
				Label:     strings.ToUpper(strings.ReplaceAll(e.Status, "_", " ")),
				Message:   e.Message,
				Location:  e.Location,
				Timestamp: e.Timestamp.UTC(),
				Source:    model.EventSourceCourier,
			}.WithKey(awb))
		}
		added, err := appendEvents(order, events...)
		if err != nil {
			return false, err
		}
		changed = changed || added > 0

		if next, ok := MapCarrierStatus("", update.CurrentStatus); ok {
			changed = s.applyStatus(ctx, order, next) || changed
		}
		return changed, nil
	})
	observe("courier", changed, err)
	if err != nil {
		return nil, err
	}
	return order, nil
}

func (s *reconcileServiceImpl) ConfirmPhonePeCallback(ctx context.Context, transactionID, code string) (*PaymentReconciliation, error) {
	const op = "reconcile.ConfirmPhonePeCallback"

	transactionID = strings.TrimSpace(transactionID)
	if transactionID == "" {
		return nil, apperror.InvalidInput(op, "transaction id is required")
	}
	if code != PhonePeCodePaymentSuccess {
		s.logger.InfoContext(ctx, "phonepe callback without success code",
			"transaction_id", transactionID, "code", code)
		return &PaymentReconciliation{}, nil
	}

	eventID := "phonepe:" + transactionID
	done, err := s.webhookEventRepo.Exists(ctx, eventID)
	if err != nil {
		return nil, apperror.Persistence(op, err)
	}
	if done {
		order, err := s.tx.load(ctx, op, transactionID)
		if err != nil {
			return nil, err
		}
		return &PaymentReconciliation{Order: order}, nil
	}

	rec := &PaymentReconciliation{}
	// merchant transaction id is the order id for PhonePe checkouts
	order, err := s.tx.mutate(ctx, op, transactionID, func(order *model.Order) (bool, error) {
		result, err := s.checkOrderPayment(ctx, op, order, model.PaymentMethodPhonePe)
		if err != nil {
			return false, err
		}
		rec.Payment = result

		changed := s.applyPaymentResult(ctx, order, result)
		if order.PaymentStatus == model.PaymentStatusPaid && order.Status == model.OrderStatusPending {
			order.Status = model.OrderStatusProcessing
			changed = true
		}
		rec.Updated = changed
		return changed, nil
	})
	observe("phonepe_callback", rec.Updated, err)
	if err != nil {
		return nil, err
	}

	if rec.Payment.Status == model.PaymentStatusPaid {
		if err := s.webhookEventRepo.MarkProcessed(ctx, eventID, "PHONEPE_CALLBACK"); err != nil {
			s.logger.ErrorContext(ctx, "mark phonepe callback processed failed",
				"transaction_id", transactionID, "error", err)
		}
	}

	if rec.Updated && order.PaymentStatus == model.PaymentStatusPaid {
		order = s.shipAfterPayment(ctx, order, "Prepaid")
	}

	rec.Order = order
	return rec, nil
}

func (s *reconcileServiceImpl) VerifyRazorpayPayment(ctx context.Context, in VerifyRazorpayInput) (*model.Order, error) {
	const op = "reconcile.VerifyRazorpayPayment"

	if strings.TrimSpace(in.OrderID) == "" {
		return nil, apperror.InvalidInput(op, "order id is required")
	}
	if in.RazorpayOrderID == "" || in.RazorpayPaymentID == "" || in.Signature == "" {
		return nil, apperror.InvalidInput(op, "razorpay order id, payment id and signature are required")
	}
	if !s.payments.VerifyRazorpaySignature(in.RazorpayOrderID, in.RazorpayPaymentID, in.Signature) {
		return nil, apperror.InvalidInput(op, "invalid payment signature")
	}

	eventID := "razorpay:" + in.RazorpayPaymentID
	confirmed := false
	order, err := s.tx.mutate(ctx, op, in.OrderID, func(order *model.Order) (bool, error) {
		// the signature only binds razorpay's order and payment ids together
		if order.GatewayReference != "" && order.GatewayReference != in.RazorpayOrderID {
			return false, apperror.InvalidInput(op, "razorpay order does not belong to this order")
		}
		if order.PaymentStatus == model.PaymentStatusPaid {
			if order.PaymentID == in.RazorpayPaymentID {
				return false, nil
			}
			return false, apperror.Conflict(op, "order is already paid")
		}

		owner, err := s.webhookEventRepo.Claim(ctx, eventID, "RAZORPAY_PAYMENT", order.ID)
		if err != nil {
			return false, apperror.Persistence(op, err)
		}
		if owner != "" && owner != order.ID {
			s.logger.WarnContext(ctx, "razorpay payment already applied to another order",
				"order_id", order.ID, "owner_order_id", owner, "payment_id", in.RazorpayPaymentID)
			return false, apperror.Conflict(op, "payment already applied to another order")
		}

		order.PaymentStatus = model.PaymentStatusPaid
		order.PaymentMethod = model.PaymentMethodRazorpay
		order.PaymentID = in.RazorpayPaymentID
		order.GatewayReference = in.RazorpayOrderID
		if order.Status == model.OrderStatusPending {
			order.Status = model.OrderStatusProcessing
		}
		confirmed = true
		return true, nil
	})
	observe("razorpay_verify", confirmed, err)
	if err != nil {
		return nil, err
	}

	if confirmed {
		order = s.shipAfterPayment(ctx, order, "Prepaid")
	}
	return order, nil
}

// shipAfterPayment books the carrier shipment for a freshly paid order when
// auto shipping is on. Failures are logged and the paid order is returned.
func (s *reconcileServiceImpl) shipAfterPayment(ctx context.Context, order *model.Order, paymentMode string) *model.Order {
	if !s.autoShip || order.Status != model.OrderStatusProcessing {
		return order
	}

	// the carrier call must not be cut short once the payment is recorded
	created, err := s.logistics.CreateShipment(context.WithoutCancel(ctx), order.ID, paymentMode)
	if err != nil {
		s.logger.WarnContext(ctx, "automatic shipment creation failed",
			"order_id", order.ID, "error", err)
		return order
	}
	if !created.Carrier.Success {
		s.logger.WarnContext(ctx, "carrier rejected automatic shipment",
			"order_id", order.ID, "http_status", created.Carrier.HTTPStatus)
		return order
	}

	s.logger.InfoContext(ctx, "shipment created after payment",
		"order_id", order.ID, "awb", orderAWB(created.Order))
	return created.Order
}

// appendEvents merges events into the order's stored tracking events.
func appendEvents(order *model.Order, events ...model.TrackingEvent) (int, error) {
	existing := model.DecodeTrackingEvents(order.TrackingEvents)
	merged, added := model.MergeTrackingEvents(existing, events...)

	// re-encoding also replaces a stored value that was not an array
	encoded, err := model.EncodeTrackingEvents(merged)
	if err != nil {
		return 0, fmt.Errorf("encode tracking events: %w", err)
	}
	order.TrackingEvents = encoded
	return added, nil
}

// sameJSON compares two JSON documents ignoring insignificant whitespace.
func sameJSON(a, b []byte) bool {
	var ca, cb bytes.Buffer
	if json.Compact(&ca, a) != nil || json.Compact(&cb, b) != nil {
		return bytes.Equal(a, b)
	}
	return bytes.Equal(ca.Bytes(), cb.Bytes())
}

func orderAWB(order *model.Order) string {
	if order.AWBNumber != nil && *order.AWBNumber != "" {
		return *order.AWBNumber
	}
	return order.ID
}

func observe(kind string, updated bool, err error) {
	outcome := "unchanged"
	switch {
	case err != nil:
		outcome = "error"
	case updated:
		outcome = "updated"
	}
	metrics.ReconciliationsTotal.WithLabelValues(kind, outcome).Inc()
}
