package handler

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"order-reconciliation-service/internal/model"
	"order-reconciliation-service/internal/repository"

	"github.com/labstack/echo/v4"
)

type SystemLogHandler struct {
	systemLogRepo repository.SystemLogRepository
}

func NewSystemLogHandler(systemLogRepo repository.SystemLogRepository) *SystemLogHandler {
	return &SystemLogHandler{
		systemLogRepo: systemLogRepo,
	}
}

func (h *SystemLogHandler) List(c echo.Context) error {
	ctx := c.Request().Context()

	filter := repository.SystemLogFilter{
		EventType: model.LogEventType(strings.ToUpper(c.QueryParam("event_type"))),
		Status:    model.LogStatus(strings.ToUpper(c.QueryParam("status"))),
	}
	if raw := c.QueryParam("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit <= 0 {
			return echo.NewHTTPError(http.StatusBadRequest, "limit must be a positive integer")
		}
		filter.Limit = limit
	}

	logs, err := h.systemLogRepo.List(ctx, filter)
	if err != nil {
		return fmt.Errorf("list system logs: %w", err)
	}

	return c.JSON(http.StatusOK, logs)
}
