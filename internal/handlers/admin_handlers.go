package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"optikcare_api/internal/apperrors"
	"optikcare_api/internal/middleware"
	"optikcare_api/internal/services"
)

// AdminHandler groups the review endpoints: manual payment
// verification and withdrawal resolution.
type AdminHandler struct {
	payments  *services.PaymentService
	withdraws *services.WithdrawService
}

func NewAdminHandler(payments *services.PaymentService, withdraws *services.WithdrawService) *AdminHandler {
	return &AdminHandler{payments: payments, withdraws: withdraws}
}

// ListPendingPayments returns payments awaiting manual verification
func (h *AdminHandler) ListPendingPayments(c echo.Context) error {
	payments, err := h.payments.ListWaitingVerification(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, payments)
}

// VerifyPayment accepts a submitted transfer proof and settles the payment
func (h *AdminHandler) VerifyPayment(c echo.Context) error {
	paymentID, err := paramID(c, "id")
	if err != nil {
		return err
	}

	admin := middleware.CurrentUser(c)
	payment, err := h.payments.VerifyPayment(c.Request().Context(), paymentID, admin.ID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, payment)
}

// RejectPayment declines a submitted transfer proof with a reason
func (h *AdminHandler) RejectPayment(c echo.Context) error {
	paymentID, err := paramID(c, "id")
	if err != nil {
		return err
	}

	var req RejectRequest
	if err := c.Bind(&req); err != nil {
		return apperrors.Validation("invalid request body")
	}
	if req.Reason == "" {
		return apperrors.Validation("reason is required")
	}

	admin := middleware.CurrentUser(c)
	payment, err := h.payments.RejectPayment(c.Request().Context(), paymentID, admin.ID, req.Reason)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, payment)
}

// ListPendingWithdraws returns withdrawal requests awaiting review
func (h *AdminHandler) ListPendingWithdraws(c echo.Context) error {
	requests, err := h.withdraws.ListPending(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, requests)
}

// ApproveWithdraw moves a pending withdrawal to approved
func (h *AdminHandler) ApproveWithdraw(c echo.Context) error {
	requestID, err := paramID(c, "id")
	if err != nil {
		return err
	}

	admin := middleware.CurrentUser(c)
	request, err := h.withdraws.Approve(c.Request().Context(), requestID, admin.ID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, request)
}

// RejectWithdraw declines a pending withdrawal and releases the hold
func (h *AdminHandler) RejectWithdraw(c echo.Context) error {
	requestID, err := paramID(c, "id")
	if err != nil {
		return err
	}

	var req RejectRequest
	if err := c.Bind(&req); err != nil {
		return apperrors.Validation("invalid request body")
	}
	if req.Reason == "" {
		return apperrors.Validation("reason is required")
	}

	admin := middleware.CurrentUser(c)
	request, err := h.withdraws.Reject(c.Request().Context(), requestID, admin.ID, req.Reason)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, request)
}

// MarkWithdrawPaid records the bank payout for an approved withdrawal
func (h *AdminHandler) MarkWithdrawPaid(c echo.Context) error {
	requestID, err := paramID(c, "id")
	if err != nil {
		return err
	}

	admin := middleware.CurrentUser(c)
	request, err := h.withdraws.MarkPaid(c.Request().Context(), requestID, admin.ID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, request)
}
