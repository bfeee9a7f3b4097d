package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"order-reconciliation-service/internal/apperror"
	"order-reconciliation-service/internal/dto"
	"order-reconciliation-service/internal/handler"
	appmw "order-reconciliation-service/internal/middleware"
	"order-reconciliation-service/internal/repository"
	"order-reconciliation-service/internal/service"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Server struct {
	echo             *echo.Echo
	logger           *slog.Logger
	adminSecret      string
	orderHandler     *handler.OrderHandler
	shipmentHandler  *handler.ShipmentHandler
	paymentHandler   *handler.PaymentHandler
	webhookHandler   *handler.WebhookHandler
	systemLogHandler *handler.SystemLogHandler
	logisticsHandler *handler.LogisticsHandler
}

type Options struct {
	AdminJWTSecret       string
	CourierWebhookSecret string
	FrontendURL          string
}

func NewServer(
	logger *slog.Logger,
	opts Options,
	paymentService service.PaymentService,
	logisticsService service.LogisticsService,
	reconcileService service.ReconcileService,
	trackingService service.TrackingService,
	systemLogRepo repository.SystemLogRepository,
) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	s := &Server{
		echo:             e,
		logger:           logger,
		adminSecret:      opts.AdminJWTSecret,
		orderHandler:     handler.NewOrderHandler(reconcileService, logisticsService, trackingService),
		shipmentHandler:  handler.NewShipmentHandler(logisticsService),
		paymentHandler:   handler.NewPaymentHandler(logger, paymentService, reconcileService, opts.FrontendURL),
		webhookHandler:   handler.NewWebhookHandler(reconcileService, opts.CourierWebhookSecret),
		systemLogHandler: handler.NewSystemLogHandler(systemLogRepo),
		logisticsHandler: handler.NewLogisticsHandler(logisticsService),
	}

	e.HTTPErrorHandler = s.handleError

	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogStatus:   true,
		LogURI:      true,
		LogMethod:   true,
		LogLatency:  true,
		LogError:    true,
		HandleError: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			level := slog.LevelInfo
			if v.Error != nil || v.Status >= http.StatusInternalServerError {
				level = slog.LevelError
			}
			attrs := []slog.Attr{
				slog.String("method", v.Method),
				slog.String("uri", v.URI),
				slog.Int("status", v.Status),
				slog.Duration("latency", v.Latency),
			}
			if v.Error != nil {
				attrs = append(attrs, slog.String("error", v.Error.Error()))
			}
			logger.LogAttrs(context.Background(), level, "request", attrs...)
			return nil
		},
	}))
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())
	e.Use(appmw.Metrics())

	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.echo.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	api := s.echo.Group("/api")

	api.GET("/health", func(c echo.Context) error {
		return c.JSON(200, map[string]string{"status": "ok"})
	})

	// -------- admin --------
	admin := api.Group("/admin", appmw.AdminAuth(s.adminSecret))
	admin.POST("/orders/update-status", s.orderHandler.UpdateStatus)
	admin.POST("/orders/:id/reconcile-payment", s.orderHandler.ReconcilePayment)
	admin.POST("/orders/:id/reconcile-shipment", s.orderHandler.ReconcileShipment)
	admin.POST("/orders/:id/create-shipment", s.orderHandler.CreateShipment)
	admin.GET("/system-logs", s.systemLogHandler.List)
	admin.POST("/logistics/rate", s.logisticsHandler.Rate)
	admin.GET("/logistics/warehouses", s.logisticsHandler.ListWarehouses)
	admin.POST("/logistics/warehouses", s.logisticsHandler.AddWarehouse)
	admin.GET("/logistics/ndr", s.logisticsHandler.ListNDR)
	admin.GET("/logistics/remittance", s.logisticsHandler.Remittance)
	admin.GET("/logistics/remittance/details", s.logisticsHandler.RemittanceDetails)

	// -------- shipment --------
	shipment := api.Group("/shipment", appmw.AdminAuth(s.adminSecret))
	shipment.POST("/track", s.shipmentHandler.Track)
	shipment.POST("/cancel", s.shipmentHandler.Cancel)
	shipment.POST("/label", s.shipmentHandler.Label)
	shipment.POST("/manifest", s.shipmentHandler.Manifest)
	shipment.POST("/return", s.shipmentHandler.Return)

	api.GET("/delivery/check", s.shipmentHandler.CheckDelivery)
	api.GET("/orders/:id/tracking", s.orderHandler.Tracking)

	// -------- payment --------
	phonepe := api.Group("/payment/phonepe")
	phonepe.POST("/check-status", s.paymentHandler.PhonePeCheckStatus)
	phonepe.GET("/callback", s.paymentHandler.PhonePeCallback)
	phonepe.POST("/callback", s.paymentHandler.PhonePeCallback)
	api.POST("/payment/razorpay/verify", s.paymentHandler.RazorpayVerify)

	// -------- webhooks --------
	api.POST("/webhooks/courier", s.webhookHandler.Courier)
}

// handleError maps service errors onto status codes. Upstream details are
// logged, never sent to the caller.
func (s *Server) handleError(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	status := http.StatusInternalServerError
	body := dto.ErrorResponse{Error: "Internal Server Error"}

	var he *echo.HTTPError
	var ae *apperror.Error
	switch {
	case errors.As(err, &he):
		status = he.Code
		body.Error = http.StatusText(he.Code)
		if msg, ok := he.Message.(string); ok {
			body.Error = msg
		}
	case errors.As(err, &ae):
		body.Code = string(ae.Kind)
		switch ae.Kind {
		case apperror.KindInvalidInput:
			status = http.StatusBadRequest
			body.Error = ae.Message
		case apperror.KindNotFound:
			status = http.StatusNotFound
			body.Error = ae.Message
		case apperror.KindConflict:
			status = http.StatusConflict
			body.Error = ae.Message
		case apperror.KindUpstream:
			status = http.StatusBadGateway
			body.Error = "upstream service failed"
		case apperror.KindPersistence:
			body.Error = "Internal Server Error"
		}
	}

	if status >= http.StatusInternalServerError {
		s.logger.ErrorContext(c.Request().Context(), "request failed",
			"path", c.Path(), "status", status, "error", err)
	}

	if c.Request().Method == http.MethodHead {
		err = c.NoContent(status)
	} else {
		err = c.JSON(status, body)
	}
	if err != nil {
		s.logger.ErrorContext(c.Request().Context(), "write error response", "error", err)
	}
}

func (s *Server) Handler() http.Handler {
	return s.echo
}

func (s *Server) Start(address string) error {
	return s.echo.Start(address)
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}
