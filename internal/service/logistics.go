package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"sort"
	"strings"
	"time"

	"order-reconciliation-service/internal/apperror"
	"order-reconciliation-service/internal/client"
	"order-reconciliation-service/internal/lock"
	"order-reconciliation-service/internal/metrics"
	"order-reconciliation-service/internal/model"
	"order-reconciliation-service/internal/repository"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

var (
	pincodePattern = regexp.MustCompile(`^[1-9][0-9]{5}$`)
	mobilePattern  = regexp.MustCompile(`^[6-9][0-9]{9}$`)
)

// carrierDateLayout is the date format the carrier's report endpoints take.
const carrierDateLayout = "2006-01-02"

var defaultParcelSide = decimal.NewFromInt(10)

const (
	NDRActionReattempt = "re-attempt"
	NDRActionRTO       = "rto"
)

type ReturnRequest struct {
	AWBNumber       string `json:"awb_number"`
	Action          string `json:"action"`
	ReattemptDate   string `json:"reattempt_date,omitempty"`
	Remarks         string `json:"remarks,omitempty"`
	CustomerName    string `json:"customer_name,omitempty"`
	CustomerPhone   string `json:"customer_phone,omitempty"`
	CustomerAddress string `json:"customer_address,omitempty"`
	CustomerPincode string `json:"customer_pincode,omitempty"`
}

// RateQuery asks the carrier for a shipping quote. Zero dimensions default to
// a 10cm cube.
type RateQuery struct {
	FromPincode   string
	ToPincode     string
	WeightKg      decimal.Decimal
	ProductMRP    decimal.Decimal
	PaymentMethod string
	Length        decimal.Decimal
	Width         decimal.Decimal
	Height        decimal.Decimal
}

type Warehouse struct {
	CompanyName string `json:"company_name"`
	Address1    string `json:"address1"`
	Address2    string `json:"address2,omitempty"`
	Mobile      string `json:"mobile"`
	Pincode     string `json:"pincode"`
	CityID      string `json:"city_id"`
	StateID     string `json:"state_id"`
	CountryID   string `json:"country_id"`
}

type ShipmentCreation struct {
	Order   *model.Order  `json:"order"`
	Carrier CarrierResult `json:"carrier"`
}

type LogisticsService interface {
	Track(ctx context.Context, awbs []string) (*CarrierResult, error)
	Cancel(ctx context.Context, awbs []string) (*CarrierResult, error)
	GenerateLabel(ctx context.Context, awbs []string) (*CarrierResult, error)
	GenerateManifest(ctx context.Context, awbs []string) (*CarrierResult, error)
	Return(ctx context.Context, req ReturnRequest) (*CarrierResult, error)
	CreateShipment(ctx context.Context, orderID, paymentMode string) (*ShipmentCreation, error)
	CheckPincode(ctx context.Context, pincode string) (*CarrierResult, error)
	Rate(ctx context.Context, q RateQuery) (*CarrierResult, error)
	ListWarehouses(ctx context.Context) (*CarrierResult, error)
	AddWarehouse(ctx context.Context, w Warehouse) (*CarrierResult, error)
	ListNDR(ctx context.Context, fromDate, toDate string) (*CarrierResult, error)
	Remittance(ctx context.Context, date string) (*CarrierResult, error)
	RemittanceDetails(ctx context.Context, date string) (*CarrierResult, error)
}

type logisticsServiceImpl struct {
	logger        *slog.Logger
	carrier       client.CarrierClient
	systemLogRepo repository.SystemLogRepository
	orderRepo     repository.OrderRepository
	tx            orderTx
	courier       string
}

func NewLogisticsService(
	logger *slog.Logger,
	carrier client.CarrierClient,
	systemLogRepo repository.SystemLogRepository,
	orderRepo repository.OrderRepository,
	locker lock.Locker,
	courier string,
) LogisticsService {
	return &logisticsServiceImpl{
		logger:        logger,
		carrier:       carrier,
		systemLogRepo: systemLogRepo,
		orderRepo:     orderRepo,
		tx:            orderTx{locker: locker, orderRepo: orderRepo},
		courier:       courier,
	}
}

// carrierCall describes one audited carrier operation.
type carrierCall struct {
	op         string
	operation  string
	event      model.LogEventType
	url        string
	request    interface{}
	successMsg string
	failureMsg string
}

func (s *logisticsServiceImpl) Track(ctx context.Context, awbs []string) (*CarrierResult, error) {
	const op = "logistics.Track"

	awbs, err := validateAWBs(op, awbs)
	if err != nil {
		return nil, err
	}

	return s.audited(ctx, carrierCall{
		op:         op,
		operation:  "track",
		event:      model.LogEventShipmentTracking,
		url:        "/api/shipment/track",
		request:    map[string]interface{}{"awb_numbers": awbs},
		successMsg: fmt.Sprintf("Tracking fetched for %d orders", len(awbs)),
		failureMsg: "Tracking API failed",
	}, func(ctx context.Context) (*client.CarrierResponse, error) {
		return s.carrier.Track(ctx, awbs)
	})
}

func (s *logisticsServiceImpl) Cancel(ctx context.Context, awbs []string) (*CarrierResult, error) {
	const op = "logistics.Cancel"

	awbs, err := validateAWBs(op, awbs)
	if err != nil {
		return nil, err
	}

	return s.audited(ctx, carrierCall{
		op:         op,
		operation:  "cancel",
		event:      model.LogEventShipmentCancel,
		url:        "/api/shipment/cancel",
		request:    map[string]interface{}{"awb_numbers": awbs},
		successMsg: fmt.Sprintf("Cancelled %d shipments", len(awbs)),
		failureMsg: "Cancellation failed",
	}, func(ctx context.Context) (*client.CarrierResponse, error) {
		return s.carrier.Cancel(ctx, awbs)
	})
}

func (s *logisticsServiceImpl) GenerateLabel(ctx context.Context, awbs []string) (*CarrierResult, error) {
	const op = "logistics.GenerateLabel"

	awbs, err := validateAWBs(op, awbs)
	if err != nil {
		return nil, err
	}

	return s.audited(ctx, carrierCall{
		op:         op,
		operation:  "label",
		event:      model.LogEventShipmentLabel,
		url:        "/api/shipment/label",
		request:    map[string]interface{}{"awb_numbers": awbs},
		successMsg: fmt.Sprintf("Label generated for %d shipments", len(awbs)),
		failureMsg: "Label generation failed",
	}, func(ctx context.Context) (*client.CarrierResponse, error) {
		return s.carrier.Label(ctx, awbs)
	})
}

func (s *logisticsServiceImpl) GenerateManifest(ctx context.Context, awbs []string) (*CarrierResult, error) {
	const op = "logistics.GenerateManifest"

	awbs, err := validateAWBs(op, awbs)
	if err != nil {
		return nil, err
	}

	return s.audited(ctx, carrierCall{
		op:         op,
		operation:  "manifest",
		event:      model.LogEventShipmentManifest,
		url:        "/api/shipment/manifest",
		request:    map[string]interface{}{"awb_numbers": awbs},
		successMsg: fmt.Sprintf("Manifest generated for %d shipments", len(awbs)),
		failureMsg: "Manifest generation failed",
	}, func(ctx context.Context) (*client.CarrierResponse, error) {
		return s.carrier.Manifest(ctx, awbs)
	})
}

func (s *logisticsServiceImpl) Return(ctx context.Context, req ReturnRequest) (*CarrierResult, error) {
	const op = "logistics.Return"

	req.AWBNumber = strings.TrimSpace(req.AWBNumber)
	if req.AWBNumber == "" {
		return nil, apperror.InvalidInput(op, "awb number is required")
	}

	switch strings.ToLower(strings.TrimSpace(req.Action)) {
	case "", NDRActionRTO:
		req.Action = NDRActionRTO
	case NDRActionReattempt, "reattempt":
		req.Action = NDRActionReattempt
	default:
		return nil, apperror.InvalidInput(op, "action must be re-attempt or rto")
	}

	return s.audited(ctx, carrierCall{
		op:         op,
		operation:  "return",
		event:      model.LogEventShipmentReturn,
		url:        "/api/shipment/return",
		request:    req,
		successMsg: "Return/RTO action for AWB: " + req.AWBNumber,
		failureMsg: "Return/RTO action failed for AWB: " + req.AWBNumber,
	}, func(ctx context.Context) (*client.CarrierResponse, error) {
		return s.carrier.ReattemptOrRTO(ctx, client.ReattemptRequest{
			AWBNumber:     req.AWBNumber,
			Action:        req.Action,
			ReattemptDate: req.ReattemptDate,
			Remarks:       req.Remarks,
			CustomerName:  req.CustomerName,
			CustomerPhone: req.CustomerPhone,
			CustomerAddr:  req.CustomerAddress,
			CustomerPin:   req.CustomerPincode,
		})
	})
}

func (s *logisticsServiceImpl) CheckPincode(ctx context.Context, pincode string) (*CarrierResult, error) {
	const op = "logistics.CheckPincode"

	pincode = strings.TrimSpace(pincode)
	if !pincodePattern.MatchString(pincode) {
		return nil, apperror.InvalidInput(op, "pincode must be 6 digits")
	}

	return s.lookup(ctx, op, "pincode", func(ctx context.Context) (*client.CarrierResponse, error) {
		return s.carrier.CheckPincode(ctx, pincode)
	})
}

func (s *logisticsServiceImpl) Rate(ctx context.Context, q RateQuery) (*CarrierResult, error) {
	const op = "logistics.Rate"

	q.FromPincode = strings.TrimSpace(q.FromPincode)
	q.ToPincode = strings.TrimSpace(q.ToPincode)
	if !pincodePattern.MatchString(q.FromPincode) || !pincodePattern.MatchString(q.ToPincode) {
		return nil, apperror.InvalidInput(op, "from and to pincodes must be 6 digits")
	}
	if !q.WeightKg.IsPositive() {
		return nil, apperror.InvalidInput(op, "shipping weight must be positive")
	}
	if q.ProductMRP.IsNegative() {
		return nil, apperror.InvalidInput(op, "product mrp must not be negative")
	}

	switch strings.ToUpper(strings.TrimSpace(q.PaymentMethod)) {
	case "", "PREPAID":
		q.PaymentMethod = "Prepaid"
	case "COD":
		q.PaymentMethod = "COD"
	default:
		return nil, apperror.InvalidInput(op, "payment method must be COD or Prepaid")
	}

	for _, side := range []*decimal.Decimal{&q.Length, &q.Width, &q.Height} {
		if side.IsNegative() {
			return nil, apperror.InvalidInput(op, "parcel dimensions must not be negative")
		}
		if side.IsZero() {
			*side = defaultParcelSide
		}
	}

	return s.lookup(ctx, op, "rate", func(ctx context.Context) (*client.CarrierResponse, error) {
		return s.carrier.Rate(ctx, client.RateRequest{
			FromPincode:      q.FromPincode,
			ToPincode:        q.ToPincode,
			ShippingWeightKg: q.WeightKg,
			ProductMRP:       q.ProductMRP,
			PaymentMethod:    q.PaymentMethod,
			Length:           q.Length,
			Width:            q.Width,
			Height:           q.Height,
		})
	})
}

func (s *logisticsServiceImpl) ListWarehouses(ctx context.Context) (*CarrierResult, error) {
	return s.lookup(ctx, "logistics.ListWarehouses", "warehouses", s.carrier.Warehouses)
}

func (s *logisticsServiceImpl) AddWarehouse(ctx context.Context, w Warehouse) (*CarrierResult, error) {
	const op = "logistics.AddWarehouse"

	w.CompanyName = strings.TrimSpace(w.CompanyName)
	w.Address1 = strings.TrimSpace(w.Address1)
	w.Mobile = strings.TrimSpace(w.Mobile)
	w.Pincode = strings.TrimSpace(w.Pincode)
	switch {
	case w.CompanyName == "" || w.Address1 == "":
		return nil, apperror.InvalidInput(op, "company name and address are required")
	case !mobilePattern.MatchString(w.Mobile):
		return nil, apperror.InvalidInput(op, "mobile must be a 10 digit number")
	case !pincodePattern.MatchString(w.Pincode):
		return nil, apperror.InvalidInput(op, "pincode must be 6 digits")
	case w.CityID == "" || w.StateID == "" || w.CountryID == "":
		return nil, apperror.InvalidInput(op, "city, state and country ids are required")
	}

	return s.audited(ctx, carrierCall{
		op:         op,
		operation:  "warehouse_add",
		event:      model.LogEventWarehouseAdd,
		url:        "/api/admin/logistics/warehouses",
		request:    w,
		successMsg: "Warehouse added: " + w.CompanyName,
		failureMsg: "Warehouse add failed: " + w.CompanyName,
	}, func(ctx context.Context) (*client.CarrierResponse, error) {
		return s.carrier.AddWarehouse(ctx, client.Warehouse(w))
	})
}

func (s *logisticsServiceImpl) ListNDR(ctx context.Context, fromDate, toDate string) (*CarrierResult, error) {
	const op = "logistics.ListNDR"

	from, err := parseCarrierDate(op, "from date", fromDate)
	if err != nil {
		return nil, err
	}
	to, err := parseCarrierDate(op, "to date", toDate)
	if err != nil {
		return nil, err
	}
	if to.Before(from) {
		return nil, apperror.InvalidInput(op, "to date must not be before from date")
	}

	return s.lookup(ctx, op, "ndr", func(ctx context.Context) (*client.CarrierResponse, error) {
		return s.carrier.NDRList(ctx, from.Format(carrierDateLayout), to.Format(carrierDateLayout))
	})
}

func (s *logisticsServiceImpl) Remittance(ctx context.Context, date string) (*CarrierResult, error) {
	const op = "logistics.Remittance"

	day, err := parseCarrierDate(op, "remittance date", date)
	if err != nil {
		return nil, err
	}
	return s.lookup(ctx, op, "remittance", func(ctx context.Context) (*client.CarrierResponse, error) {
		return s.carrier.Remittance(ctx, day.Format(carrierDateLayout))
	})
}

func (s *logisticsServiceImpl) RemittanceDetails(ctx context.Context, date string) (*CarrierResult, error) {
	const op = "logistics.RemittanceDetails"

	day, err := parseCarrierDate(op, "remittance date", date)
	if err != nil {
		return nil, err
	}
	return s.lookup(ctx, op, "remittance_details", func(ctx context.Context) (*client.CarrierResponse, error) {
		return s.carrier.RemittanceDetails(ctx, day.Format(carrierDateLayout))
	})
}

// lookup runs a read-only carrier call. Lookups are metered but not audited.
func (s *logisticsServiceImpl) lookup(ctx context.Context, op, operation string, do func(ctx context.Context) (*client.CarrierResponse, error)) (*CarrierResult, error) {
	resp, err := do(ctx)
	if err != nil {
		metrics.CarrierCallsTotal.WithLabelValues(operation, "error").Inc()
		s.logger.WarnContext(ctx, "carrier lookup failed", "operation", operation, "error", err)
		return nil, carrierError(op, err)
	}

	result := NormalizeCarrierResponse(resp)
	metrics.CarrierCallsTotal.WithLabelValues(operation, resultLabel(result)).Inc()
	return &result, nil
}

func parseCarrierDate(op, field, value string) (time.Time, error) {
	day, err := time.Parse(carrierDateLayout, strings.TrimSpace(value))
	if err != nil {
		return time.Time{}, apperror.InvalidInput(op, field+" must be YYYY-MM-DD")
	}
	return day, nil
}

// createdShipment is one entry of the carrier's order/add response.
type createdShipment struct {
	Status       string `json:"status"`
	Remark       string `json:"remark"`
	Waybill      string `json:"waybill"`
	RefNum       string `json:"refnum"`
	LogisticName string `json:"logistic_name"`
}

func (s *logisticsServiceImpl) CreateShipment(ctx context.Context, orderID, paymentMode string) (*ShipmentCreation, error) {
	const op = "logistics.CreateShipment"

	creation := &ShipmentCreation{}
	var booked *createdShipment
	order, err := s.tx.mutate(ctx, op, orderID, func(order *model.Order) (bool, error) {
		if order.LogisticOrderID != nil {
			return false, apperror.Conflict(op, "shipment already created for order")
		}
		if !order.Status.CanTransition(model.OrderStatusShipped) || order.Status == model.OrderStatusShipped {
			return false, apperror.InvalidInput(op, fmt.Sprintf("order in status %s cannot be shipped", order.Status))
		}

		mode, err := shipmentPaymentMode(order, paymentMode)
		if err != nil {
			return false, apperror.InvalidInput(op, err.Error())
		}

		items, err := s.orderRepo.GetOrderItems(ctx, order.ID)
		if err != nil {
			return false, apperror.Persistence(op, err)
		}

		shipment, err := buildShipment(order, items, mode)
		if err != nil {
			return false, apperror.InvalidInput(op, err.Error())
		}

		result, err := s.audited(ctx, carrierCall{
			op:         op,
			operation:  "create",
			event:      model.LogEventShipmentCreate,
			url:        "/api/admin/orders/" + order.ID + "/create-shipment",
			request:    shipment,
			successMsg: "Shipment created for order " + order.ID,
			failureMsg: "Shipment creation failed for order " + order.ID,
		}, func(ctx context.Context) (*client.CarrierResponse, error) {
			return s.carrier.CreateShipment(ctx, shipment)
		})
		if err != nil {
			return false, err
		}
		creation.Carrier = *result
		if !result.Success {
			return false, nil
		}

		created, ok := firstCreatedShipment(result.Payload)
		if !ok {
			return false, apperror.Upstream(op, errors.New("carrier response has no waybill"))
		}
		booked = &created

		logisticOrderID := created.RefNum
		if logisticOrderID == "" {
			logisticOrderID = created.Waybill
		}
		awb := created.Waybill
		courier := created.LogisticName
		if courier == "" {
			courier = s.courier
		}

		order.LogisticOrderID = &logisticOrderID
		order.AWBNumber = &awb
		order.CourierName = courier
		order.LogisticResponse = datatypes.JSON(result.Payload)
		order.Status = model.OrderStatusShipped

		events := model.DecodeTrackingEvents(order.TrackingEvents)
		events, _ = model.MergeTrackingEvents(events, model.TrackingEvent{
			Status:    string(model.OrderStatusShipped),
			Label:     "Shipped",
			Message:   "Shipment created with " + courier,
			Timestamp: time.Now().UTC().Truncate(time.Second),
			Source:    model.EventSourceCarrier,
		}.WithKey(awb))
		encoded, err := model.EncodeTrackingEvents(events)
		if err != nil {
			return false, fmt.Errorf("encode tracking events: %w", err)
		}
		order.TrackingEvents = encoded
		return true, nil
	})
	if err != nil {
		if booked != nil {
			// the carrier holds this waybill; creating again would book a second parcel
			s.logger.ErrorContext(ctx, "carrier booked shipment but order update failed",
				"order_id", orderID, "waybill", booked.Waybill, "refnum", booked.RefNum, "error", err)
		}
		return nil, err
	}

	creation.Order = order
	return creation, nil
}

// audited runs one carrier call and writes exactly one system log row for it.
func (s *logisticsServiceImpl) audited(ctx context.Context, c carrierCall, do func(ctx context.Context) (*client.CarrierResponse, error)) (*CarrierResult, error) {
	resp, err := do(ctx)
	if err != nil {
		metrics.CarrierCallsTotal.WithLabelValues(c.operation, "error").Inc()
		s.logger.ErrorContext(ctx, "carrier call failed", "operation", c.operation, "error", err)
		s.writeLog(ctx, c, model.LogStatusFailure, err.Error(), errorPayload(err))
		return nil, carrierError(c.op, err)
	}

	result := NormalizeCarrierResponse(resp)
	metrics.CarrierCallsTotal.WithLabelValues(c.operation, resultLabel(result)).Inc()

	if result.Success {
		s.writeLog(ctx, c, model.LogStatusSuccess, c.successMsg, result.Payload)
	} else {
		s.logger.WarnContext(ctx, "carrier returned non-success response",
			"operation", c.operation, "endpoint", resp.Endpoint, "http_status", result.HTTPStatus)
		s.writeLog(ctx, c, model.LogStatusFailure, c.failureMsg, result.Payload)
	}
	return &result, nil
}

func (s *logisticsServiceImpl) writeLog(ctx context.Context, c carrierCall, status model.LogStatus, message string, response json.RawMessage) {
	info := requestInfoFrom(ctx, c.url)

	request, err := json.Marshal(c.request)
	if err != nil {
		request = []byte(`{}`)
	}

	entry := &model.SystemLog{
		EventType:    c.event,
		Status:       status,
		Message:      message,
		RequestData:  datatypes.JSON(request),
		ResponseData: datatypes.JSON(response),
		URL:          info.URL,
		UserAgent:    info.UserAgent,
		Actor:        info.Actor,
	}

	// the audit row should land even when the caller has gone away
	if err := s.systemLogRepo.Create(context.WithoutCancel(ctx), entry); err != nil {
		s.logger.ErrorContext(ctx, "write system log failed",
			"event_type", c.event, "status", status, "error", err)
	}
}

func validateAWBs(op string, awbs []string) ([]string, error) {
	if len(awbs) == 0 {
		return nil, apperror.InvalidInput(op, "awb numbers are required")
	}

	out := make([]string, len(awbs))
	for i, awb := range awbs {
		awb = strings.TrimSpace(awb)
		if awb == "" {
			return nil, apperror.InvalidInput(op, "awb numbers must not be blank")
		}
		out[i] = awb
	}
	return out, nil
}

func carrierError(op string, err error) error {
	if errors.Is(err, client.ErrCarrierNotConfigured) {
		return apperror.InvalidInput(op, "carrier credentials missing")
	}
	return apperror.Upstream(op, err)
}

func errorPayload(err error) json.RawMessage {
	b, _ := json.Marshal(map[string]string{"error": err.Error()})
	return b
}

func resultLabel(r CarrierResult) string {
	if r.Success {
		return "success"
	}
	return "failure"
}

func shipmentPaymentMode(order *model.Order, requested string) (string, error) {
	switch strings.ToUpper(strings.TrimSpace(requested)) {
	case "COD":
		return "COD", nil
	case "PREPAID":
		if order.PaymentStatus != model.PaymentStatusPaid {
			return "", errors.New("prepaid shipment requires a paid order")
		}
		return "Prepaid", nil
	case "":
		if order.PaymentMethod == model.PaymentMethodCOD {
			return "COD", nil
		}
		if order.PaymentStatus != model.PaymentStatusPaid {
			return "", errors.New("prepaid shipment requires a paid order")
		}
		return "Prepaid", nil
	default:
		return "", fmt.Errorf("unknown payment mode %q", requested)
	}
}

func buildShipment(order *model.Order, items []*model.OrderItem, paymentMode string) (client.Shipment, error) {
	var addr model.ShippingAddress
	if len(order.ShippingAddress) == 0 || json.Unmarshal(order.ShippingAddress, &addr) != nil {
		return client.Shipment{}, errors.New("order has no shipping address")
	}
	if addr.Pincode == "" || addr.AddressLine1 == "" {
		return client.Shipment{}, errors.New("shipping address is incomplete")
	}
	if len(items) == 0 {
		return client.Shipment{}, errors.New("order has no items")
	}

	products := make([]client.ShipmentProduct, len(items))
	for i, item := range items {
		products[i] = client.ShipmentProduct{
			Name:     item.ProductName,
			SKU:      item.SKU,
			Quantity: item.Quantity,
			Price:    item.UnitPrice,
			TaxRate:  "0",
			HSNCode:  "",
			Discount: "0",
		}
	}

	codAmount := decimal.Zero
	if paymentMode == "COD" {
		codAmount = order.TotalAmount
	}

	return client.Shipment{
		Order:                   order.ID,
		SubOrder:                "",
		OrderDate:               order.CreatedAt.Format("02-01-2006"),
		TotalAmount:             order.TotalAmount,
		Name:                    addr.FullName,
		Add:                     addr.AddressLine1,
		Add2:                    addr.AddressLine2,
		Pin:                     addr.Pincode,
		City:                    addr.City,
		State:                   addr.State,
		Country:                 "India",
		Phone:                   addr.Phone,
		Email:                   addr.Email,
		IsBillingSameAsShipping: "yes",
		Products:                products,
		Length:                  "10",
		Width:                   "10",
		Height:                  "10",
		Weight:                  "0.5",
		CODAmount:               codAmount,
		PaymentMode:             paymentMode,
	}, nil
}

func firstCreatedShipment(payload json.RawMessage) (createdShipment, bool) {
	var body struct {
		Data map[string]createdShipment `json:"data"`
	}
	if err := json.Unmarshal(payload, &body); err != nil {
		return createdShipment{}, false
	}

	keys := make([]string, 0, len(body.Data))
	for k := range body.Data {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		if body.Data[k].Waybill != "" {
			return body.Data[k], true
		}
	}
	return createdShipment{}, false
}
