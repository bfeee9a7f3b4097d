package handler

import (
	"context"
	"net/http"

	"order-reconciliation-service/internal/dto"
	"order-reconciliation-service/internal/service"

	"github.com/labstack/echo/v4"
)

type ShipmentHandler struct {
	logisticsService service.LogisticsService
}

func NewShipmentHandler(logisticsService service.LogisticsService) *ShipmentHandler {
	return &ShipmentHandler{
		logisticsService: logisticsService,
	}
}

type awbOperation func(ctx context.Context, awbs []string) (*service.CarrierResult, error)

func (h *ShipmentHandler) handleAWBs(c echo.Context, op awbOperation) error {
	var req dto.AWBRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid req body")
	}

	result, err := op(requestContext(c), req.AWBNumbers)
	if err != nil {
		return err
	}

	return carrierJSON(c, result)
}

func (h *ShipmentHandler) Track(c echo.Context) error {
	return h.handleAWBs(c, h.logisticsService.Track)
}

func (h *ShipmentHandler) Cancel(c echo.Context) error {
	return h.handleAWBs(c, h.logisticsService.Cancel)
}

func (h *ShipmentHandler) Label(c echo.Context) error {
	return h.handleAWBs(c, h.logisticsService.GenerateLabel)
}

func (h *ShipmentHandler) Manifest(c echo.Context) error {
	return h.handleAWBs(c, h.logisticsService.GenerateManifest)
}

func (h *ShipmentHandler) Return(c echo.Context) error {
	var req dto.ReturnRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid req body")
	}

	result, err := h.logisticsService.Return(requestContext(c), service.ReturnRequest{
		AWBNumber:       req.AWBNumber,
		Action:          req.Action,
		ReattemptDate:   req.ReattemptDate,
		Remarks:         req.Remarks,
		CustomerName:    req.CustomerName,
		CustomerPhone:   req.CustomerPhone,
		CustomerAddress: req.CustomerAddress,
		CustomerPincode: req.CustomerPincode,
	})
	if err != nil {
		return err
	}

	return carrierJSON(c, result)
}

func (h *ShipmentHandler) CheckDelivery(c echo.Context) error {
	ctx := c.Request().Context()

	result, err := h.logisticsService.CheckPincode(ctx, c.QueryParam("pincode"))
	if err != nil {
		return err
	}

	return carrierJSON(c, result)
}
