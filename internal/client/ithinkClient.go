package client

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"order-reconciliation-service/internal/config"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/time/rate"
)

// ErrCarrierNotConfigured means the carrier credentials are missing.
var ErrCarrierNotConfigured = errors.New("carrier credentials missing")

// CarrierResponse is the carrier's answer as received. Body is always valid
// JSON: non-JSON payloads (PDF labels) are wrapped as base64.
type CarrierResponse struct {
	Endpoint   string
	HTTPStatus int
	Body       json.RawMessage
}

type CarrierClient interface {
	Track(ctx context.Context, awbs []string) (*CarrierResponse, error)
	Cancel(ctx context.Context, awbs []string) (*CarrierResponse, error)
	Label(ctx context.Context, awbs []string) (*CarrierResponse, error)
	Manifest(ctx context.Context, awbs []string) (*CarrierResponse, error)
	ReattemptOrRTO(ctx context.Context, req ReattemptRequest) (*CarrierResponse, error)
	CreateShipment(ctx context.Context, shipment Shipment) (*CarrierResponse, error)
	CheckPincode(ctx context.Context, pincode string) (*CarrierResponse, error)
	Rate(ctx context.Context, req RateRequest) (*CarrierResponse, error)
	Warehouses(ctx context.Context) (*CarrierResponse, error)
	AddWarehouse(ctx context.Context, w Warehouse) (*CarrierResponse, error)
	NDRList(ctx context.Context, fromDate, toDate string) (*CarrierResponse, error)
	Remittance(ctx context.Context, date string) (*CarrierResponse, error)
	RemittanceDetails(ctx context.Context, date string) (*CarrierResponse, error)
}

type RateRequest struct {
	FromPincode      string          `json:"from_pincode"`
	ToPincode        string          `json:"to_pincode"`
	ShippingWeightKg decimal.Decimal `json:"shipping_weight_kg"`
	ProductMRP       decimal.Decimal `json:"product_mrp"`
	PaymentMethod    string          `json:"payment_method"` // COD or Prepaid
	Length           decimal.Decimal `json:"length"`
	Width            decimal.Decimal `json:"width"`
	Height           decimal.Decimal `json:"height"`
}

// Warehouse is a pickup address registered with the carrier.
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

type ReattemptRequest struct {
	AWBNumber string `json:"awb_numbers"`
	// Action is "re-attempt" or "rto".
	Action        string `json:"ndr_action"`
	ReattemptDate string `json:"reattempt_date,omitempty"`
	Remarks       string `json:"remarks,omitempty"`
	CustomerName  string `json:"customer_name,omitempty"`
	CustomerPhone string `json:"customer_phone,omitempty"`
	CustomerAddr  string `json:"customer_address,omitempty"`
	CustomerPin   string `json:"customer_pincode,omitempty"`
}

type ShipmentProduct struct {
	Name     string          `json:"product_name"`
	SKU      string          `json:"product_sku"`
	Quantity int32           `json:"product_quantity"`
	Price    decimal.Decimal `json:"product_price"`
	TaxRate  string          `json:"product_tax_rate"`
	HSNCode  string          `json:"product_hsn_code"`
	Discount string          `json:"product_discount"`
}

// Shipment mirrors one element of the carrier's order/add "shipments" array.
type Shipment struct {
	Waybill                 string            `json:"waybill"`
	Order                   string            `json:"order"`
	SubOrder                string            `json:"sub_order"`
	OrderDate               string            `json:"order_date"`
	TotalAmount             decimal.Decimal   `json:"total_amount"`
	Name                    string            `json:"name"`
	Add                     string            `json:"add"`
	Add2                    string            `json:"add2"`
	Pin                     string            `json:"pin"`
	City                    string            `json:"city"`
	State                   string            `json:"state"`
	Country                 string            `json:"country"`
	Phone                   string            `json:"phone"`
	Email                   string            `json:"email"`
	IsBillingSameAsShipping string            `json:"is_billing_same_as_shipping"`
	Products                []ShipmentProduct `json:"products"`
	Length                  string            `json:"shipment_length"`
	Width                   string            `json:"shipment_width"`
	Height                  string            `json:"shipment_height"`
	Weight                  string            `json:"weight"`
	CODAmount               decimal.Decimal   `json:"cod_amount"`
	PaymentMode             string            `json:"payment_mode"` // COD or Prepaid
	ReturnAddressID         string            `json:"return_address_id"`
}

type iThinkClientImpl struct {
	httpClient  *http.Client
	baseApiURL  string
	accessToken string
	secretKey   string
	pickupID    string
	courier     string
	limiter     *rate.Limiter
	retry       RetryPolicy
}

func NewIThinkClient(cfg *config.IThink, retry RetryPolicy) CarrierClient {
	limit := rate.Inf
	if cfg.RatePerSec > 0 {
		limit = rate.Limit(cfg.RatePerSec)
	}

	return &iThinkClientImpl{
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		baseApiURL:  strings.TrimRight(cfg.BaseApiURL, "/"),
		accessToken: cfg.AccessToken,
		secretKey:   cfg.SecretKey,
		pickupID:    cfg.PickupID,
		courier:     cfg.Courier,
		limiter:     rate.NewLimiter(limit, 1),
		retry:       retry,
	}
}

func (c *iThinkClientImpl) Track(ctx context.Context, awbs []string) (*CarrierResponse, error) {
	return c.read(ctx, "/order/track.json", map[string]interface{}{
		"awb_number_list": strings.Join(awbs, ","),
	})
}

func (c *iThinkClientImpl) Cancel(ctx context.Context, awbs []string) (*CarrierResponse, error) {
	return c.post(ctx, "/order/cancel.json", map[string]interface{}{
		"awb_numbers": strings.Join(awbs, ","),
	})
}

func (c *iThinkClientImpl) Label(ctx context.Context, awbs []string) (*CarrierResponse, error) {
	return c.post(ctx, "/shipping/label.json", map[string]interface{}{
		"awb_numbers":         strings.Join(awbs, ","),
		"page_size":           "A4",
		"display_cod_prepaid": "1",
	})
}

func (c *iThinkClientImpl) Manifest(ctx context.Context, awbs []string) (*CarrierResponse, error) {
	return c.post(ctx, "/shipping/manifest.json", map[string]interface{}{
		"awb_numbers": strings.Join(awbs, ","),
	})
}

func (c *iThinkClientImpl) ReattemptOrRTO(ctx context.Context, req ReattemptRequest) (*CarrierResponse, error) {
	data, err := toMap(req)
	if err != nil {
		return nil, fmt.Errorf("reattempt request to map: %w", err)
	}

	return c.post(ctx, "/ndr/add-reattempt-rto.json", data)
}

func (c *iThinkClientImpl) CreateShipment(ctx context.Context, shipment Shipment) (*CarrierResponse, error) {
	if shipment.ReturnAddressID == "" {
		shipment.ReturnAddressID = c.pickupID
	}

	return c.post(ctx, "/order/add.json", map[string]interface{}{
		"shipments":         []Shipment{shipment},
		"pickup_address_id": c.pickupID,
		"logistics":         c.courier,
		"s_type":            "",
		"order_type":        "",
	})
}

func (c *iThinkClientImpl) CheckPincode(ctx context.Context, pincode string) (*CarrierResponse, error) {
	return c.read(ctx, "/pincode/check.json", map[string]interface{}{
		"pincode": pincode,
	})
}

func (c *iThinkClientImpl) Rate(ctx context.Context, req RateRequest) (*CarrierResponse, error) {
	data, err := toMap(req)
	if err != nil {
		return nil, fmt.Errorf("rate request to map: %w", err)
	}
	return c.read(ctx, "/rate/check.json", data)
}

func (c *iThinkClientImpl) Warehouses(ctx context.Context) (*CarrierResponse, error) {
	return c.read(ctx, "/warehouse/get.json", map[string]interface{}{})
}

// AddWarehouse is not retried: a repeated add registers a second warehouse.
func (c *iThinkClientImpl) AddWarehouse(ctx context.Context, w Warehouse) (*CarrierResponse, error) {
	data, err := toMap(w)
	if err != nil {
		return nil, fmt.Errorf("warehouse to map: %w", err)
	}
	return c.post(ctx, "/warehouse/add.json", data)
}

func (c *iThinkClientImpl) NDRList(ctx context.Context, fromDate, toDate string) (*CarrierResponse, error) {
	return c.read(ctx, "/ndr/all.json", map[string]interface{}{
		"from_date": fromDate,
		"to_date":   toDate,
	})
}

func (c *iThinkClientImpl) Remittance(ctx context.Context, date string) (*CarrierResponse, error) {
	return c.read(ctx, "/remittance/get.json", map[string]interface{}{
		"remittance_date": date,
	})
}

func (c *iThinkClientImpl) RemittanceDetails(ctx context.Context, date string) (*CarrierResponse, error) {
	return c.read(ctx, "/remittance/get_details.json", map[string]interface{}{
		"remittance_date": date,
	})
}

// read posts a side-effect free request, retrying transport errors and 5xx.
func (c *iThinkClientImpl) read(ctx context.Context, path string, data map[string]interface{}) (*CarrierResponse, error) {
	var resp *CarrierResponse
	err := c.retry.Do(ctx, func() error {
		var err error
		// post adds the credentials to data, so every attempt gets its own copy
		attempt := make(map[string]interface{}, len(data)+2)
		for k, v := range data {
			attempt[k] = v
		}
		resp, err = c.post(ctx, path, attempt)
		if err == nil && resp.HTTPStatus >= 500 {
			return &HTTPStatusError{StatusCode: resp.HTTPStatus, Body: string(resp.Body)}
		}
		return err
	})
	return c.settle(resp, err)
}

// settle turns a 5xx that exhausted its retries back into a plain response,
// so callers see the carrier's body rather than a transport error.
func (c *iThinkClientImpl) settle(resp *CarrierResponse, err error) (*CarrierResponse, error) {
	var statusErr *HTTPStatusError
	if errors.As(err, &statusErr) && resp != nil {
		return resp, nil
	}
	if err != nil {
		return nil, err
	}
	return resp, nil
}

// post wraps data into the carrier's {"data": {...}} envelope together with
// the account credentials.
func (c *iThinkClientImpl) post(ctx context.Context, path string, data map[string]interface{}) (*CarrierResponse, error) {
	if c.accessToken == "" || c.secretKey == "" {
		return nil, ErrCarrierNotConfigured
	}

	data["access_token"] = c.accessToken
	data["secret_key"] = c.secretKey

	payload, err := json.Marshal(map[string]interface{}{"data": data})
	if err != nil {
		return nil, fmt.Errorf("marshal req payload: %w", err)
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("carrier rate limiter: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseApiURL+path, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("http new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("carrier request %s: %w", path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read carrier response %s: %w", path, err)
	}

	return &CarrierResponse{
		Endpoint:   path,
		HTTPStatus: resp.StatusCode,
		Body:       asJSON(body, resp.Header.Get("Content-Type")),
	}, nil
}

// toMap flattens a request struct into the map the envelope is built from.
func toMap(v interface{}) (map[string]interface{}, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	data := map[string]interface{}{}
	if err := json.Unmarshal(b, &data); err != nil {
		return nil, err
	}
	return data, nil
}

func asJSON(body []byte, contentType string) json.RawMessage {
	if json.Valid(body) {
		return json.RawMessage(body)
	}
	wrapped, _ := json.Marshal(map[string]string{
		"content_type":   contentType,
		"content_base64": base64.StdEncoding.EncodeToString(body),
	})
	return json.RawMessage(wrapped)
}
