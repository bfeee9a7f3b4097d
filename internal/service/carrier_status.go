package service

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"order-reconciliation-service/internal/model"
)

// carrierTrackBlock is the per-AWB entry of the carrier's track response.
type carrierTrackBlock struct {
	Message           string `json:"message"`
	CurrentStatus     string `json:"current_status"`
	CurrentStatusCode string `json:"current_status_code"`
	Logistic          string `json:"logistic"`
	LastScanDetails   struct {
		Status         string `json:"status"`
		StatusCode     string `json:"status_code"`
		StatusDateTime string `json:"status_date_time"`
		ScanLocation   string `json:"scan_location"`
		Remark         string `json:"remark"`
	} `json:"last_scan_details"`
}

func parseTrackBlock(payload json.RawMessage, awb string) (*carrierTrackBlock, error) {
	var body struct {
		Data map[string]json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(payload, &body); err != nil {
		return nil, fmt.Errorf("decode track response: %w", err)
	}

	raw, ok := body.Data[awb]
	if !ok {
		return nil, fmt.Errorf("track response has no entry for awb %s", awb)
	}

	var block carrierTrackBlock
	if err := json.Unmarshal(raw, &block); err != nil {
		return nil, fmt.Errorf("decode track entry for awb %s: %w", awb, err)
	}
	if block.CurrentStatus == "" && block.CurrentStatusCode == "" && block.LastScanDetails.Status == "" {
		return nil, fmt.Errorf("track entry for awb %s has no status", awb)
	}
	return &block, nil
}

var carrierStatusCodes = map[string]model.OrderStatus{
	"MAN":     model.OrderStatusShipped,
	"PP":      model.OrderStatusShipped,
	"PU":      model.OrderStatusShipped,
	"PKD":     model.OrderStatusShipped,
	"IT":      model.OrderStatusInTransit,
	"RAD":     model.OrderStatusInTransit,
	"OFD":     model.OrderStatusOutForDelivery,
	"UD":      model.OrderStatusUndelivered,
	"NDR":     model.OrderStatusUndelivered,
	"DL":      model.OrderStatusDelivered,
	"RTO":     model.OrderStatusRTO,
	"RTO-IT":  model.OrderStatusRTO,
	"RTO-OFD": model.OrderStatusRTO,
	"RTD":     model.OrderStatusReturned,
	"RTO-DL":  model.OrderStatusReturned,
	"CN":      model.OrderStatusCancelled,
	"CA":      model.OrderStatusCancelled,
}

// MapCarrierStatus maps a carrier status code or free-text status onto an
// OrderStatus. The code wins when both are known.
func MapCarrierStatus(code, text string) (model.OrderStatus, bool) {
	if s, ok := carrierStatusCodes[strings.ToUpper(strings.TrimSpace(code))]; ok {
		return s, true
	}
	if s, err := model.ParseOrderStatus(text); err == nil {
		return s, true
	}

	t := strings.ToLower(strings.TrimSpace(text))
	switch {
	case t == "":
		return "", false
	case strings.Contains(t, "out for delivery"):
		return model.OrderStatusOutForDelivery, true
	case strings.Contains(t, "rto delivered"), strings.Contains(t, "returned"):
		return model.OrderStatusReturned, true
	case strings.HasPrefix(t, "rto"):
		return model.OrderStatusRTO, true
	case strings.Contains(t, "undelivered"), strings.Contains(t, "ndr"):
		return model.OrderStatusUndelivered, true
	case strings.Contains(t, "delivered"):
		return model.OrderStatusDelivered, true
	case strings.Contains(t, "in transit"), strings.Contains(t, "reached"):
		return model.OrderStatusInTransit, true
	case strings.Contains(t, "picked"), strings.Contains(t, "manifest"), strings.Contains(t, "shipped"):
		return model.OrderStatusShipped, true
	case strings.Contains(t, "cancel"):
		return model.OrderStatusCancelled, true
	}
	return "", false
}

var istZone = time.FixedZone("IST", 5*3600+1800)

var carrierTimeLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"02-01-2006 15:04:05",
	"2006-01-02 15:04",
}

// parseCarrierTime reads the carrier's scan time, which is IST unless an
// offset is given. Unparseable values yield the zero time.
func parseCarrierTime(s string) time.Time {
	s = strings.TrimSpace(s)
	for _, layout := range carrierTimeLayouts {
		if t, err := time.ParseInLocation(layout, s, istZone); err == nil {
			return t.UTC()
		}
	}
	return time.Time{}
}
