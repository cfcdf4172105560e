package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"optikcare_api/internal/apperrors"
	"optikcare_api/internal/middleware"
	"optikcare_api/internal/services"
)

type WithdrawHandler struct {
	withdraws *services.WithdrawService
	wallets   *services.WalletService
}

func NewWithdrawHandler(withdraws *services.WithdrawService, wallets *services.WalletService) *WithdrawHandler {
	return &WithdrawHandler{withdraws: withdraws, wallets: wallets}
}

// GetWallet returns the caller's wallet, creating an empty one on
// first access.
func (h *WithdrawHandler) GetWallet(c echo.Context) error {
	user := middleware.CurrentUser(c)
	wallet, err := h.wallets.GetOrCreateWallet(c.Request().Context(), user.ID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, wallet)
}

// CreateWithdraw opens a withdrawal request and holds the amount
func (h *WithdrawHandler) CreateWithdraw(c echo.Context) error {
	var req CreateWithdrawRequest
	if err := c.Bind(&req); err != nil {
		return apperrors.Validation("invalid request body")
	}

	user := middleware.CurrentUser(c)
	request, err := h.withdraws.Create(c.Request().Context(), user.ID, services.WithdrawInput{
		Amount:            req.Amount,
		BankName:          req.BankName,
		BankAccountNumber: req.BankAccountNumber,
		BankAccountName:   req.BankAccountName,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, request)
}

// ListWithdraws returns the caller's withdrawal history
func (h *WithdrawHandler) ListWithdraws(c echo.Context) error {
	user := middleware.CurrentUser(c)
	requests, err := h.withdraws.ListByUser(c.Request().Context(), user.ID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, requests)
}
