package handler

import (
	"context"
	"net/http"

	"order-reconciliation-service/internal/middleware"
	"order-reconciliation-service/internal/service"

	"github.com/labstack/echo/v4"
)

// requestContext tags the request context with what the audit log records.
func requestContext(c echo.Context) context.Context {
	req := c.Request()
	actor, _ := c.Get(middleware.AdminSubjectKey).(string)
	return service.WithRequestInfo(req.Context(), service.RequestInfo{
		URL:       req.URL.Path,
		UserAgent: req.UserAgent(),
		Actor:     actor,
	})
}

// carrierJSON relays the carrier payload: 200 when it reported success, 502
// otherwise.
func carrierJSON(c echo.Context, result *service.CarrierResult) error {
	status := http.StatusOK
	if !result.Success {
		status = http.StatusBadGateway
	}
	return c.JSONBlob(status, result.Payload)
}
