package handler

import (
	"net/http"

	"order-reconciliation-service/internal/dto"
	"order-reconciliation-service/internal/model"
	"order-reconciliation-service/internal/service"

	"github.com/labstack/echo/v4"
)

type OrderHandler struct {
	reconcileService service.ReconcileService
	logisticsService service.LogisticsService
	trackingService  service.TrackingService
}

func NewOrderHandler(
	reconcileService service.ReconcileService,
	logisticsService service.LogisticsService,
	trackingService service.TrackingService,
) *OrderHandler {
	return &OrderHandler{
		reconcileService: reconcileService,
		logisticsService: logisticsService,
		trackingService:  trackingService,
	}
}

func (h *OrderHandler) UpdateStatus(c echo.Context) error {
	ctx := c.Request().Context()

	var req dto.UpdateStatusRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid req body")
	}
	if req.OrderID == "" || req.Status == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "order id and status required")
	}

	in := service.UpdateStatusInput{
		OrderID: req.OrderID,
		Status:  req.Status,
		Force:   req.Force,
	}
	if req.TrackingEvent != nil {
		in.TrackingEvent = &model.TrackingEvent{
			Status:    req.TrackingEvent.Status,
			Label:     req.TrackingEvent.Label,
			Message:   req.TrackingEvent.Message,
			Location:  req.TrackingEvent.Location,
			Timestamp: req.TrackingEvent.Timestamp,
		}
	}

	order, err := h.reconcileService.UpdateOrderStatus(ctx, in)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, dto.SuccessResponse{Success: true, Data: order})
}

func (h *OrderHandler) ReconcilePayment(c echo.Context) error {
	ctx := c.Request().Context()

	rec, err := h.reconcileService.ReconcilePaymentStatus(ctx, c.Param("id"))
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, rec)
}

func (h *OrderHandler) ReconcileShipment(c echo.Context) error {
	var req dto.ReconcileShipmentRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid req body")
	}

	rec, err := h.reconcileService.ReconcileShipmentStatus(requestContext(c), c.Param("id"), req.AWBNumber)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, rec)
}

func (h *OrderHandler) CreateShipment(c echo.Context) error {
	var req dto.CreateShipmentRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid req body")
	}

	created, err := h.logisticsService.CreateShipment(requestContext(c), c.Param("id"), req.PaymentMode)
	if err != nil {
		return err
	}

	status := http.StatusOK
	if !created.Carrier.Success {
		status = http.StatusBadGateway
	}
	return c.JSON(status, created)
}

func (h *OrderHandler) Tracking(c echo.Context) error {
	ctx := c.Request().Context()

	timeline, err := h.trackingService.Timeline(ctx, c.Param("id"))
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, timeline)
}
