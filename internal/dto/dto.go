package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

type AWBRequest struct {
	AWBNumbers []string `json:"awb_numbers"`
}

type ReturnRequest struct {
	AWBNumber       string `json:"awb_number"`
	Action          string `json:"action"`
	ReattemptDate   string `json:"reattempt_date"`
	Remarks         string `json:"remarks"`
	CustomerName    string `json:"customer_name"`
	CustomerPhone   string `json:"customer_phone"`
	CustomerAddress string `json:"customer_address"`
	CustomerPincode string `json:"customer_pincode"`
}

type TrackingEvent struct {
	Status    string    `json:"status"`
	Label     string    `json:"label"`
	Message   string    `json:"message"`
	Location  string    `json:"location"`
	Timestamp time.Time `json:"timestamp"`
}

type UpdateStatusRequest struct {
	OrderID       string         `json:"orderId"`
	Status        string         `json:"status"`
	TrackingEvent *TrackingEvent `json:"trackingEvent"`
	Force         bool           `json:"force"`
}

type ReconcileShipmentRequest struct {
	AWBNumber string `json:"awb_number"`
}

type CreateShipmentRequest struct {
	PaymentMode string `json:"payment_mode"` // COD or Prepaid, empty derives from the order
}

type CheckStatusRequest struct {
	TransactionID string `json:"transactionId"`
}

type RateRequest struct {
	FromPincode   string          `json:"from_pincode"`
	ToPincode     string          `json:"to_pincode"`
	WeightKg      decimal.Decimal `json:"shipping_weight_kg"`
	ProductMRP    decimal.Decimal `json:"product_mrp"`
	PaymentMethod string          `json:"payment_method"`
	Length        decimal.Decimal `json:"length"`
	Width         decimal.Decimal `json:"width"`
	Height        decimal.Decimal `json:"height"`
}

type WarehouseRequest struct {
	CompanyName string `json:"company_name"`
	Address1    string `json:"address1"`
	Address2    string `json:"address2"`
	Mobile      string `json:"mobile"`
	Pincode     string `json:"pincode"`
	CityID      string `json:"city_id"`
	StateID     string `json:"state_id"`
	CountryID   string `json:"country_id"`
}

type PhonePeCallback struct {
	Code                string `json:"code" form:"code" query:"code"`
	MerchantID          string `json:"merchantId" form:"merchantId" query:"merchantId"`
	TransactionID       string `json:"transactionId" form:"transactionId" query:"transactionId"`
	ProviderReferenceID string `json:"providerReferenceId" form:"providerReferenceId" query:"providerReferenceId"`
}

type RazorpayVerifyRequest struct {
	RazorpayOrderID   string `json:"razorpay_order_id"`
	RazorpayPaymentID string `json:"razorpay_payment_id"`
	RazorpaySignature string `json:"razorpay_signature"`
	OrderID           string `json:"order_db_id"`
}

type CourierEvent struct {
	Status    string    `json:"status"`
	Message   string    `json:"message"`
	Location  string    `json:"location"`
	Timestamp time.Time `json:"timestamp"`
}

type CourierWebhookRequest struct {
	CourierName    string         `json:"courier_name"`
	TrackingNumber string         `json:"tracking_number"`
	CurrentStatus  string         `json:"current_status"`
	Events         []CourierEvent `json:"events"`
}

type SuccessResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}
