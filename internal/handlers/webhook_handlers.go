package handlers

import (
	"context"
	"io"
	"net/http"

	"github.com/labstack/echo/v4"

	"optikcare_api/internal/apperrors"
	"optikcare_api/internal/services"
)

// SignatureHeader is the request header carrying the gateway's
// HMAC-SHA256 hex digest of the raw body.
const SignatureHeader = "X-Callback-Signature"

type WebhookHandler struct {
	reconciliation *services.ReconciliationService
}

func NewWebhookHandler(reconciliation *services.ReconciliationService) *WebhookHandler {
	return &WebhookHandler{reconciliation: reconciliation}
}

// HandleOrderWebhook receives gateway callbacks for order payments
func (h *WebhookHandler) HandleOrderWebhook(c echo.Context) error {
	return h.handle(c, h.reconciliation.HandleOrderWebhook)
}

// HandleAppointmentWebhook receives gateway callbacks for appointment payments
func (h *WebhookHandler) HandleAppointmentWebhook(c echo.Context) error {
	return h.handle(c, h.reconciliation.HandleAppointmentWebhook)
}

func (h *WebhookHandler) handle(
	c echo.Context,
	process func(ctx context.Context, rawBody []byte, signature string) (*services.WebhookResult, error),
) error {
	// The signature covers the exact bytes on the wire, so the body is
	// read raw before any binding touches it.
	rawBody, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return apperrors.Validation("failed to read request body")
	}

	result, err := process(c.Request().Context(), rawBody, c.Request().Header.Get(SignatureHeader))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, result)
}
