package handler

import (
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"order-reconciliation-service/internal/dto"
	"order-reconciliation-service/internal/model"
	"order-reconciliation-service/internal/service"

	"github.com/labstack/echo/v4"
)

type PaymentHandler struct {
	logger           *slog.Logger
	paymentService   service.PaymentService
	reconcileService service.ReconcileService
	frontendURL      string
}

func NewPaymentHandler(
	logger *slog.Logger,
	paymentService service.PaymentService,
	reconcileService service.ReconcileService,
	frontendURL string,
) *PaymentHandler {
	return &PaymentHandler{
		logger:           logger,
		paymentService:   paymentService,
		reconcileService: reconcileService,
		frontendURL:      strings.TrimRight(frontendURL, "/"),
	}
}

func (h *PaymentHandler) PhonePeCheckStatus(c echo.Context) error {
	ctx := c.Request().Context()

	var req dto.CheckStatusRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid req body")
	}

	result, err := h.paymentService.CheckPaymentStatus(ctx, model.PaymentMethodPhonePe, req.TransactionID)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, result)
}

// PhonePeCallback handles the browser redirect (GET) and server callback
// (POST) after checkout. It always answers with a 303 to the storefront.
func (h *PaymentHandler) PhonePeCallback(c echo.Context) error {
	ctx := requestContext(c)

	var cb dto.PhonePeCallback
	if err := c.Bind(&cb); err != nil {
		h.logger.WarnContext(ctx, "bind phonepe callback", "error", err)
	}
	if cb.TransactionID == "" {
		cb.TransactionID = c.QueryParam("transactionId")
	}
	if cb.Code == "" {
		cb.Code = c.QueryParam("code")
	}

	if cb.Code != service.PhonePeCodePaymentSuccess || cb.TransactionID == "" {
		h.logger.InfoContext(ctx, "phonepe payment not successful",
			"transaction_id", cb.TransactionID, "code", cb.Code)
		return c.Redirect(http.StatusSeeOther, h.frontendURL+"/cart?error=payment_failed")
	}

	// the shopper is sent on regardless; reconciliation can be retried later
	if _, err := h.reconcileService.ConfirmPhonePeCallback(ctx, cb.TransactionID, cb.Code); err != nil {
		h.logger.ErrorContext(ctx, "confirm phonepe callback failed",
			"transaction_id", cb.TransactionID, "error", err)
	}

	return c.Redirect(http.StatusSeeOther, h.frontendURL+"/order-confirmation/"+url.PathEscape(cb.TransactionID))
}

func (h *PaymentHandler) RazorpayVerify(c echo.Context) error {
	ctx := requestContext(c)

	var req dto.RazorpayVerifyRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid req body")
	}

	order, err := h.reconcileService.VerifyRazorpayPayment(ctx, service.VerifyRazorpayInput{
		OrderID:           req.OrderID,
		RazorpayOrderID:   req.RazorpayOrderID,
		RazorpayPaymentID: req.RazorpayPaymentID,
		Signature:         req.RazorpaySignature,
	})
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, dto.SuccessResponse{Success: true, Message: "Payment verified", Data: order})
}
