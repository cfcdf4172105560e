package services

import (
	"context"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"optikcare_api/internal/apperrors"
	"optikcare_api/internal/models"
	"optikcare_api/internal/repository"
)

// WalletService owns the balance arithmetic for optometrist wallets.
// Every mutation runs through the repository's locked read-modify-write
// so concurrent webhooks and withdrawals cannot lose updates.
type WalletService struct {
	wallets repository.WalletRepository
	log     *zap.Logger
}

func NewWalletService(wallets repository.WalletRepository, log *zap.Logger) *WalletService {
	return &WalletService{wallets: wallets, log: log}
}

// GetOrCreateWallet returns the user's wallet, creating a zero-balanced
// one on first access.
func (s *WalletService) GetOrCreateWallet(ctx context.Context, userID uint) (*models.Wallet, error) {
	return s.wallets.Get(ctx, userID)
}

// AddCommission credits the withdrawable balance
func (s *WalletService) AddCommission(ctx context.Context, userID uint, amount decimal.Decimal) (*models.Wallet, error) {
	if err := requirePositive(amount); err != nil {
		return nil, err
	}
	return s.wallets.Mutate(ctx, userID, func(w *models.Wallet) error {
		w.Balance = round2(w.Balance.Add(amount))
		return nil
	})
}

// HoldBalance moves amount from balance to hold_balance, failing when
// the withdrawable balance does not cover it.
func (s *WalletService) HoldBalance(ctx context.Context, userID uint, amount decimal.Decimal) (*models.Wallet, error) {
	if err := requirePositive(amount); err != nil {
		return nil, err
	}
	return s.wallets.Mutate(ctx, userID, func(w *models.Wallet) error {
		if w.Balance.LessThan(amount) {
			return apperrors.Validation("insufficient balance")
		}
		w.Balance = round2(w.Balance.Sub(amount))
		w.HoldBalance = round2(w.HoldBalance.Add(amount))
		return nil
	})
}

// ReleaseHold moves amount back from hold_balance to balance, used when
// a withdrawal is rejected or rolled back.
func (s *WalletService) ReleaseHold(ctx context.Context, userID uint, amount decimal.Decimal) (*models.Wallet, error) {
	if err := requirePositive(amount); err != nil {
		return nil, err
	}
	return s.wallets.Mutate(ctx, userID, func(w *models.Wallet) error {
		if w.HoldBalance.LessThan(amount) {
			return apperrors.Validation("release exceeds held balance")
		}
		w.HoldBalance = round2(w.HoldBalance.Sub(amount))
		w.Balance = round2(w.Balance.Add(amount))
		return nil
	})
}

// DeductHold removes amount from hold_balance only. The money has left
// the system with the payout, so it is never re-added to balance.
func (s *WalletService) DeductHold(ctx context.Context, userID uint, amount decimal.Decimal) (*models.Wallet, error) {
	if err := requirePositive(amount); err != nil {
		return nil, err
	}
	return s.wallets.Mutate(ctx, userID, func(w *models.Wallet) error {
		if w.HoldBalance.LessThan(amount) {
			return apperrors.Validation("deduction exceeds held balance")
		}
		w.HoldBalance = round2(w.HoldBalance.Sub(amount))
		return nil
	})
}

func requirePositive(amount decimal.Decimal) error {
	if amount.LessThanOrEqual(decimal.Zero) {
		return apperrors.Validation("amount must be positive")
	}
	return nil
}
