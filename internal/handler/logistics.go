package handler

import (
	"net/http"

	"order-reconciliation-service/internal/dto"
	"order-reconciliation-service/internal/service"

	"github.com/labstack/echo/v4"
)

// LogisticsHandler serves the carrier account lookups that are not tied to
// a single order.
type LogisticsHandler struct {
	logisticsService service.LogisticsService
}

func NewLogisticsHandler(logisticsService service.LogisticsService) *LogisticsHandler {
	return &LogisticsHandler{
		logisticsService: logisticsService,
	}
}

func (h *LogisticsHandler) Rate(c echo.Context) error {
	var req dto.RateRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid req body")
	}

	result, err := h.logisticsService.Rate(requestContext(c), service.RateQuery{
		FromPincode:   req.FromPincode,
		ToPincode:     req.ToPincode,
		WeightKg:      req.WeightKg,
		ProductMRP:    req.ProductMRP,
		PaymentMethod: req.PaymentMethod,
		Length:        req.Length,
		Width:         req.Width,
		Height:        req.Height,
	})
	if err != nil {
		return err
	}

	return carrierJSON(c, result)
}

func (h *LogisticsHandler) ListWarehouses(c echo.Context) error {
	result, err := h.logisticsService.ListWarehouses(requestContext(c))
	if err != nil {
		return err
	}

	return carrierJSON(c, result)
}

func (h *LogisticsHandler) AddWarehouse(c echo.Context) error {
	var req dto.WarehouseRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid req body")
	}

	result, err := h.logisticsService.AddWarehouse(requestContext(c), service.Warehouse{
		CompanyName: req.CompanyName,
		Address1:    req.Address1,
		Address2:    req.Address2,
		Mobile:      req.Mobile,
		Pincode:     req.Pincode,
		CityID:      req.CityID,
		StateID:     req.StateID,
		CountryID:   req.CountryID,
	})
	if err != nil {
		return err
	}

	return carrierJSON(c, result)
}

func (h *LogisticsHandler) ListNDR(c echo.Context) error {
	result, err := h.logisticsService.ListNDR(requestContext(c), c.QueryParam("from"), c.QueryParam("to"))
	if err != nil {
		return err
	}

	return carrierJSON(c, result)
}

func (h *LogisticsHandler) Remittance(c echo.Context) error {
	result, err := h.logisticsService.Remittance(requestContext(c), c.QueryParam("date"))
	if err != nil {
		return err
	}

	return carrierJSON(c, result)
}

func (h *LogisticsHandler) RemittanceDetails(c echo.Context) error {
	result, err := h.logisticsService.RemittanceDetails(requestContext(c), c.QueryParam("date"))
	if err != nil {
		return err
	}

	return carrierJSON(c, result)
}
