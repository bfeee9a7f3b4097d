package model

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

type Order struct {
	ID               string        `gorm:"primaryKey;size:64;not null" json:"id"`
	Status           OrderStatus   `gorm:"size:32;index;not null" json:"status"`
	PaymentStatus    PaymentStatus `gorm:"size:16;index;not null" json:"payment_status"`
	PaymentMethod    string        `gorm:"size:32" json:"payment_method"` // PHONEPE, RAZORPAY, BRAINTREE, COD
	PaymentID        string        `gorm:"size:128" json:"payment_id,omitempty"`
	GatewayReference string        `gorm:"size:128" json:"gateway_reference,omitempty"` // gateway-side order/txn id, defaults to ID
	LogisticOrderID  *string       `gorm:"size:64" json:"logistic_order_id,omitempty"`
	AWBNumber        *string       `gorm:"size:64;index" json:"awb_number,omitempty"`
	CourierName      string        `gorm:"size:64" json:"courier_name,omitempty"`

	LogisticResponse datatypes.JSON `json:"logistic_response,omitempty"`
	TrackingEvents   datatypes.JSON `json:"tracking_events,omitempty"`
	ShippingAddress  datatypes.JSON `json:"shipping_address,omitempty"`

	TotalAmount decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"total_amount"`
	Version     int64           `gorm:"not null;default:0" json:"version"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

type OrderItem struct {
	ID          uint            `gorm:"primaryKey"`
	OrderID     string          `gorm:"size:64;index;not null"` // FK → orders.id
	ProductID   string          `gorm:"size:64;index;not null"`
	ProductName string          `gorm:"size:255"`
	SKU         string          `gorm:"size:64"`
	Quantity    int32           `gorm:"not null"`
	UnitPrice   decimal.Decimal `gorm:"type:decimal(12,2);not null"`

	CreatedAt time.Time
}

// SystemLog is the append-only audit trail for carrier operations.
type SystemLog struct {
	ID           string         `gorm:"primaryKey;size:36" json:"id"`
	EventType    LogEventType   `gorm:"size:32;index;not null" json:"event_type"`
	Status       LogStatus      `gorm:"size:16;index;not null" json:"status"`
	Message      string         `gorm:"type:text" json:"message"`
	RequestData  datatypes.JSON `json:"request_data"`
	ResponseData datatypes.JSON `json:"response_data"`
	URL          string         `gorm:"size:255" json:"url"`
	UserAgent    string         `gorm:"size:255" json:"user_agent"`
	Actor        string         `gorm:"size:128" json:"actor,omitempty"`
	CreatedAt    time.Time      `gorm:"index" json:"created_at"`
}

type WebhookEvent struct {
	EventID   string `gorm:"primaryKey;size:128;not null"`
	EventType string `gorm:"size:64;index"`
	// OrderID is the order the event was applied to, when it belongs to one.
	OrderID     string `gorm:"size:64;index"`
	ProcessedAt time.Time
	CreatedAt   time.Time
}

type ShippingAddress struct {
	FullName     string `json:"fullName"`
	AddressLine1 string `json:"addressLine1"`
	AddressLine2 string `json:"addressLine2"`
	City         string `json:"city"`
	State        string `json:"state"`
	Pincode      string `json:"pincode"`
	Phone        string `json:"phoneNumber"`
	Email        string `json:"email"`
}

// Tables lists every model migrated at startup.
func Tables() []interface{} {
	return []interface{}{
		&Order{},
		&OrderItem{},
		&SystemLog{},
		&WebhookEvent{},
	}
}
