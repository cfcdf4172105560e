package handlers

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"optikcare_api/internal/apperrors"
	"optikcare_api/internal/middleware"
	"optikcare_api/internal/models"
	"optikcare_api/internal/services"
)

type PaymentHandler struct {
	payments *services.PaymentService
	gateway  *services.GatewayService
}

func NewPaymentHandler(payments *services.PaymentService, gateway *services.GatewayService) *PaymentHandler {
	return &PaymentHandler{payments: payments, gateway: gateway}
}

// CreateCheckout opens a gateway checkout session for an order or an
// appointment and returns the redirect URL.
func (h *PaymentHandler) CreateCheckout(c echo.Context) error {
	var req CreatePaymentRequest
	if err := c.Bind(&req); err != nil {
		return apperrors.Validation("invalid request body")
	}
	target, err := resolveTarget(req)
	if err != nil {
		return err
	}

	result, err := h.gateway.CreateCheckout(c.Request().Context(), target, middleware.CurrentUser(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, result)
}

// CreateBankTransfer opens a manual bank transfer payment with a
// unique-code amount and a 24 hour deadline.
func (h *PaymentHandler) CreateBankTransfer(c echo.Context) error {
	var req CreatePaymentRequest
	if err := c.Bind(&req); err != nil {
		return apperrors.Validation("invalid request body")
	}
	target, err := resolveTarget(req)
	if err != nil {
		return err
	}

	payment, err := h.payments.CreateBankTransferPayment(c.Request().Context(), target)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, payment)
}

// SubmitProof attaches a transfer proof to a pending bank transfer
// payment, either as a multipart "proof" file or a proof_url field.
func (h *PaymentHandler) SubmitProof(c echo.Context) error {
	paymentID, err := paramID(c, "id")
	if err != nil {
		return err
	}

	if fileHeader, err := c.FormFile("proof"); err == nil {
		file, err := fileHeader.Open()
		if err != nil {
			return apperrors.Validation("failed to open uploaded file")
		}
		defer file.Close()

		payment, err := h.payments.SubmitProof(c.Request().Context(), paymentID, file, fileHeader, "")
		if err != nil {
			return err
		}
		return c.JSON(http.StatusOK, payment)
	}

	var req SubmitProofRequest
	if err := c.Bind(&req); err != nil {
		return apperrors.Validation("invalid request body")
	}
	payment, err := h.payments.SubmitProof(c.Request().Context(), paymentID, nil, nil, req.ProofURL)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, payment)
}

func resolveTarget(req CreatePaymentRequest) (models.PaymentTarget, error) {
	switch {
	case req.OrderID != nil && req.AppointmentID != nil:
		return models.PaymentTarget{}, apperrors.Validation("payment cannot target both an order and an appointment")
	case req.OrderID != nil:
		return models.OrderTarget(*req.OrderID), nil
	case req.AppointmentID != nil:
		return models.AppointmentTarget(*req.AppointmentID), nil
	}
	return models.PaymentTarget{}, apperrors.Validation("order_id or appointment_id is required")
}

func paramID(c echo.Context, name string) (uint, error) {
	value, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil {
		return 0, apperrors.Validation("invalid " + name + " parameter")
	}
	return uint(value), nil
}
