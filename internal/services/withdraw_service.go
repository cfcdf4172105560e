package services

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"optikcare_api/internal/apperrors"
	"optikcare_api/internal/models"
	"optikcare_api/internal/repository"
)

// WithdrawInput carries the fields of a new withdrawal request
type WithdrawInput struct {
	Amount            decimal.Decimal
	BankName          string
	BankAccountNumber string
	BankAccountName   string
}

// WithdrawService runs the withdrawal lifecycle on top of the wallet
// ledger: creating a request holds the amount, rejection releases it,
// marking paid deducts it for good.
type WithdrawService struct {
	withdraws repository.WithdrawRepository
	users     repository.UserRepository
	wallets   *WalletService
	notifier  Notifier
	minimum   decimal.Decimal
	log       *zap.Logger
}

func NewWithdrawService(
	withdraws repository.WithdrawRepository,
	users repository.UserRepository,
	wallets *WalletService,
	notifier Notifier,
	minimum decimal.Decimal,
	log *zap.Logger,
) *WithdrawService {
	return &WithdrawService{
		withdraws: withdraws,
		users:     users,
		wallets:   wallets,
		notifier:  notifier,
		minimum:   minimum,
		log:       log,
	}
}

// Create opens a withdrawal request, holding the amount immediately.
// If the user lookup fails after the hold succeeded, the hold is rolled
// back before the error surfaces; there is no two-phase commit, only
// the compensating release.
func (s *WithdrawService) Create(ctx context.Context, userID uint, input WithdrawInput) (*models.WithdrawRequest, error) {
	if input.Amount.LessThanOrEqual(decimal.Zero) {
		return nil, apperrors.Validation("amount must be positive")
	}
	if input.Amount.LessThan(s.minimum) {
		return nil, apperrors.Validationf("minimum withdrawal amount is %s", FormatRupiah(s.minimum))
	}
	if input.BankName == "" || input.BankAccountNumber == "" || input.BankAccountName == "" {
		return nil, apperrors.Validation("bank destination fields are required")
	}

	amount := round2(input.Amount)
	if _, err := s.wallets.HoldBalance(ctx, userID, amount); err != nil {
		return nil, err
	}

	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if _, releaseErr := s.wallets.ReleaseHold(ctx, userID, amount); releaseErr != nil {
			s.log.Error("failed to roll back withdrawal hold",
				zap.Uint("user_id", userID),
				zap.String("amount", amount.String()),
				zap.Error(releaseErr),
			)
		}
		return nil, err
	}

	request := models.WithdrawRequest{
		UserID:            user.ID,
		Amount:            amount,
		BankName:          input.BankName,
		BankAccountNumber: input.BankAccountNumber,
		BankAccountName:   input.BankAccountName,
		Status:            models.WithdrawStatusPending,
	}
	if err := s.withdraws.Create(ctx, &request); err != nil {
		if _, releaseErr := s.wallets.ReleaseHold(ctx, userID, amount); releaseErr != nil {
			s.log.Error("failed to roll back withdrawal hold",
				zap.Uint("user_id", userID),
				zap.String("amount", amount.String()),
				zap.Error(releaseErr),
			)
		}
		return nil, err
	}

	s.notify(ctx, request.UserID, "Withdrawal requested",
		"Your withdrawal of %s is pending review.", request.Amount)
	return &request, nil
}

// Approve moves a pending request to approved. Balances do not change;
// the hold stays in place until the payout is marked paid.
func (s *WithdrawService) Approve(ctx context.Context, requestID, adminID uint) (*models.WithdrawRequest, error) {
	request, err := s.loadForReview(ctx, requestID, adminID, models.WithdrawStatusPending)
	if err != nil {
		return nil, err
	}

	request.Status = models.WithdrawStatusApproved
	if err := s.withdraws.Update(ctx, request); err != nil {
		return nil, err
	}

	s.notify(ctx, request.UserID, "Withdrawal approved",
		"Your withdrawal of %s has been approved and will be paid out shortly.", request.Amount)
	return request, nil
}

// Reject moves a pending request to rejected and releases the hold back
// to the withdrawable balance.
func (s *WithdrawService) Reject(ctx context.Context, requestID, adminID uint, note string) (*models.WithdrawRequest, error) {
	request, err := s.loadForReview(ctx, requestID, adminID, models.WithdrawStatusPending)
	if err != nil {
		return nil, err
	}

	if _, err := s.wallets.ReleaseHold(ctx, request.UserID, request.Amount); err != nil {
		return nil, err
	}

	request.Status = models.WithdrawStatusRejected
	request.RejectionNote = note
	if err := s.withdraws.Update(ctx, request); err != nil {
		return nil, err
	}

	s.notify(ctx, request.UserID, "Withdrawal rejected",
		"Your withdrawal of %s was rejected: "+note, request.Amount)
	return request, nil
}

// MarkPaid records that the payout left the system: the held amount is
// deducted and never returns to the balance.
func (s *WithdrawService) MarkPaid(ctx context.Context, requestID, adminID uint) (*models.WithdrawRequest, error) {
	request, err := s.loadForReview(ctx, requestID, adminID, models.WithdrawStatusApproved)
	if err != nil {
		return nil, err
	}

	if _, err := s.wallets.DeductHold(ctx, request.UserID, request.Amount); err != nil {
		return nil, err
	}

	now := time.Now()
	request.Status = models.WithdrawStatusPaid
	request.PaidAt = &now
	if err := s.withdraws.Update(ctx, request); err != nil {
		return nil, err
	}

	s.notify(ctx, request.UserID, "Withdrawal paid",
		"Your withdrawal of %s has been transferred to your bank account.", request.Amount)
	return request, nil
}

// ListByUser returns the user's withdrawal history
func (s *WithdrawService) ListByUser(ctx context.Context, userID uint) ([]models.WithdrawRequest, error) {
	return s.withdraws.ListByUser(ctx, userID)
}

// ListPending returns requests awaiting admin review
func (s *WithdrawService) ListPending(ctx context.Context) ([]models.WithdrawRequest, error) {
	return s.withdraws.ListByStatus(ctx, models.WithdrawStatusPending)
}

func (s *WithdrawService) loadForReview(ctx context.Context, requestID, adminID uint, required models.WithdrawStatus) (*models.WithdrawRequest, error) {
	request, err := s.withdraws.FindByID(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if request.Status != required {
		return nil, apperrors.State("withdraw request is not in status " + string(required))
	}

	admin, err := s.users.FindByID(ctx, adminID)
	if err != nil {
		return nil, err
	}
	if !admin.IsAdmin() {
		return nil, apperrors.NotFound("admin not found")
	}

	now := time.Now()
	reviewer := admin.ID
	request.ReviewedBy = &reviewer
	request.ReviewedAt = &now
	return request, nil
}

func (s *WithdrawService) notify(ctx context.Context, userID uint, title, bodyFormat string, amount decimal.Decimal) {
	body := renderAmountMessage(bodyFormat, amount)
	if err := s.notifier.Notify(ctx, Notification{UserID: userID, Title: title, Body: body}); err != nil {
		s.log.Warn("failed to dispatch withdrawal notification",
			zap.Uint("user_id", userID), zap.Error(err))
	}
}
