package handler

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"net/http"

	"order-reconciliation-service/internal/dto"
	"order-reconciliation-service/internal/service"

	"github.com/labstack/echo/v4"
)

const courierSignatureHeader = "X-Webhook-Signature"

type WebhookHandler struct {
	reconcileService service.ReconcileService
	courierSecret    string
}

func NewWebhookHandler(reconcileService service.ReconcileService, courierSecret string) *WebhookHandler {
	return &WebhookHandler{
		reconcileService: reconcileService,
		courierSecret:    courierSecret,
	}
}

func (h *WebhookHandler) Courier(c echo.Context) error {
	ctx := c.Request().Context()

	orderID := c.QueryParam("order_id")
	if orderID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "order id required")
	}

	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return c.NoContent(http.StatusBadRequest)
	}

	if h.courierSecret != "" && !verifySignature(body, c.Request().Header.Get(courierSignatureHeader), h.courierSecret) {
		return echo.NewHTTPError(http.StatusUnauthorized, "invalid webhook signature")
	}

	var req dto.CourierWebhookRequest
	dec := json.NewDecoder(bytes.NewReader(body))
	if err := dec.Decode(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid req body")
	}

	update := service.CourierUpdate{
		CourierName:    req.CourierName,
		TrackingNumber: req.TrackingNumber,
		CurrentStatus:  req.CurrentStatus,
		Events:         make([]service.CourierEvent, len(req.Events)),
	}
	for i, e := range req.Events {
		update.Events[i] = service.CourierEvent{
			Status:    e.Status,
			Message:   e.Message,
			Location:  e.Location,
			Timestamp: e.Timestamp,
		}
	}

	if _, err := h.reconcileService.ApplyCourierUpdate(ctx, orderID, update); err != nil {
		return err
	}

	return c.JSON(http.StatusOK, dto.SuccessResponse{Success: true, Message: "Tracking updated from courier"})
}

// verifySignature checks a hex HMAC-SHA256 of the raw body.
func verifySignature(body []byte, signature, secret string) bool {
	got, err := hex.DecodeString(signature)
	if err != nil || len(got) == 0 {
		return false
	}

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hmac.Equal(got, mac.Sum(nil))
}
