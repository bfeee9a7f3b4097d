package service

import (
	"bytes"
	"encoding/json"
	"strings"

	"order-reconciliation-service/internal/client"
)

// CarrierResult is the one success verdict every logistics operation uses.
type CarrierResult struct {
	Success    bool            `json:"success"`
	HTTPStatus int             `json:"-"`
	Payload    json.RawMessage `json:"payload"`
}

var carrierErrorStatuses = map[string]struct{}{
	"error":   {},
	"failed":  {},
	"failure": {},
	"fail":    {},
}

// NormalizeCarrierResponse reports success when the carrier answered 2xx and
// the body either says status "success" or carries a non-empty data block,
// and the status field is not an explicit error value.
func NormalizeCarrierResponse(resp *client.CarrierResponse) CarrierResult {
	if resp == nil {
		return CarrierResult{Payload: json.RawMessage(`{}`)}
	}

	result := CarrierResult{
		HTTPStatus: resp.HTTPStatus,
		Payload:    resp.Body,
	}
	if len(result.Payload) == 0 {
		result.Payload = json.RawMessage(`{}`)
	}
	if resp.HTTPStatus < 200 || resp.HTTPStatus > 299 {
		return result
	}

	var body struct {
		Status json.RawMessage `json:"status"`
		Data   json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(resp.Body, &body); err != nil {
		return result
	}

	var status string
	_ = json.Unmarshal(body.Status, &status)
	status = strings.ToLower(strings.TrimSpace(status))

	if _, isErr := carrierErrorStatuses[status]; isErr {
		return result
	}

	result.Success = status == "success" || nonEmptyContainer(body.Data)
	return result
}

func nonEmptyContainer(raw json.RawMessage) bool {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return false
	}

	switch raw[0] {
	case '{':
		var m map[string]json.RawMessage
		return json.Unmarshal(raw, &m) == nil && len(m) > 0
	case '[':
		var a []json.RawMessage
		return json.Unmarshal(raw, &a) == nil && len(a) > 0
	default:
		return false
	}
}
