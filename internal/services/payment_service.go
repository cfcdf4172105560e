package services

import (
	"context"
	"encoding/json"
	"io"
	"math/rand"
	"mime/multipart"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"optikcare_api/internal/apperrors"
	"optikcare_api/internal/models"
	"optikcare_api/internal/repository"
)

const bankTransferDeadline = 24 * time.Hour

// PaymentService owns the payment ledger: creating attempts, the
// explicit confirm-and-unlock transition, the manual verification path
// and the bank-transfer flow. Setting a payment to paid always goes
// through ConfirmAndUnlock so the downstream order/appointment
// transition can never be skipped.
type PaymentService struct {
	payments repository.PaymentRepository
	orders   repository.OrderRepository
	apptRepo repository.AppointmentRepository
	users    repository.UserRepository
	appts    *AppointmentService
	storage  ProofStorage
	notifier Notifier
	log      *zap.Logger
}

func NewPaymentService(
	payments repository.PaymentRepository,
	orders repository.OrderRepository,
	apptRepo repository.AppointmentRepository,
	users repository.UserRepository,
	appts *AppointmentService,
	storage ProofStorage,
	notifier Notifier,
	log *zap.Logger,
) *PaymentService {
	return &PaymentService{
		payments: payments,
		orders:   orders,
		apptRepo: apptRepo,
		users:    users,
		appts:    appts,
		storage:  storage,
		notifier: notifier,
		log:      log,
	}
}

// ConfirmAndUnlock marks the payment paid and fires the corresponding
// domain transition: the order moves to paid, or the appointment's
// payment status moves to paid with its commission/room side effects.
// Already-paid payments are a no-op, which is what makes duplicate
// webhook delivery safe.
func (s *PaymentService) ConfirmAndUnlock(ctx context.Context, payment *models.Payment, verifiedBy *uint, paidAt *time.Time) error {
	if payment.Status == models.PaymentStatusPaid {
		return nil
	}

	target, err := payment.Target()
	if err != nil {
		return apperrors.Validation(err.Error())
	}

	now := time.Now()
	if paidAt == nil {
		paidAt = &now
	}
	payment.Status = models.PaymentStatusPaid
	payment.PaidAt = paidAt
	if verifiedBy != nil {
		payment.VerifiedBy = verifiedBy
		payment.VerifiedAt = &now
	}

	if err := s.payments.Update(ctx, payment); err != nil {
		return err
	}

	switch target.Kind {
	case models.TargetOrder:
		if err := s.orders.UpdateStatus(ctx, target.ID, models.OrderStatusPaid); err != nil {
			return err
		}
	case models.TargetAppointment:
		if err := s.appts.MarkPaid(ctx, target.ID); err != nil {
			return err
		}
	}

	s.notifyPaymentOutcome(ctx, payment, "Payment received",
		"Your payment of %s has been confirmed.")
	return nil
}

// MarkExpired moves a non-terminal payment to expired. Appointments
// revert to unpaid; orders are deliberately left untouched so the
// customer can start a fresh attempt against the same order.
func (s *PaymentService) MarkExpired(ctx context.Context, payment *models.Payment) error {
	return s.markLapsed(ctx, payment, models.PaymentStatusExpired)
}

// MarkFailed moves a non-terminal payment to failed, with the same
// downstream handling as expiry.
func (s *PaymentService) MarkFailed(ctx context.Context, payment *models.Payment) error {
	return s.markLapsed(ctx, payment, models.PaymentStatusFailed)
}

func (s *PaymentService) markLapsed(ctx context.Context, payment *models.Payment, status models.PaymentStatus) error {
	// A replayed or late event against a settled row changes nothing;
	// the first terminal outcome stays authoritative.
	if payment.Status.IsTerminal() {
		return nil
	}

	target, err := payment.Target()
	if err != nil {
		return apperrors.Validation(err.Error())
	}

	payment.Status = status
	if err := s.payments.Update(ctx, payment); err != nil {
		return err
	}

	if target.Kind == models.TargetAppointment {
		if err := s.appts.ResetUnpaid(ctx, target.ID); err != nil {
			return err
		}
	}
	return nil
}

// CreateBankTransferPayment starts a manual bank-transfer attempt.
// Superseded rejected/expired attempts are removed first; an attempt
// still pending or waiting for verification blocks creation. The
// authoritative amount is the entity amount plus a random 1-999 unique
// code so the incoming transfer can be told apart during manual
// reconciliation.
func (s *PaymentService) CreateBankTransferPayment(ctx context.Context, target models.PaymentTarget) (*models.Payment, error) {
	baseAmount, err := s.targetAmount(ctx, target)
	if err != nil {
		return nil, err
	}

	existing, err := s.payments.FindByTarget(ctx, target)
	if err != nil {
		return nil, err
	}

	var stale []uint
	for _, p := range existing {
		switch p.Status {
		case models.PaymentStatusPending, models.PaymentStatusWaitingVerification:
			return nil, apperrors.State("a pending payment already exists for this " + string(target.Kind))
		case models.PaymentStatusRejected, models.PaymentStatusExpired:
			stale = append(stale, p.ID)
		}
	}
	if err := s.payments.DeleteByIDs(ctx, stale); err != nil {
		return nil, err
	}

	uniqueCode := int64(rand.Intn(999) + 1)
	amount := round2(baseAmount.Add(decimal.NewFromInt(uniqueCode)))
	deadline := time.Now().Add(bankTransferDeadline)

	detail, err := json.Marshal(models.BankTransferDetail{
		BaseAmount: baseAmount,
		UniqueCode: uniqueCode,
	})
	if err != nil {
		return nil, apperrors.Internal(err)
	}

	payment := models.Payment{
		Amount:     amount,
		Status:     models.PaymentStatusPending,
		Method:     models.PaymentMethodBankTransfer,
		ExternalID: EncodeExternalID(target),
		ExpiresAt:  &deadline,
		Detail:     detail,
	}
	payment.LinkTarget(target)

	if err := s.payments.Create(ctx, &payment); err != nil {
		return nil, err
	}
	return &payment, nil
}

// SubmitProof attaches a transfer proof to a pending bank-transfer
// payment and moves it to waiting_verification. Either a multipart file
// (stored, URL generated) or a direct URL is accepted.
func (s *PaymentService) SubmitProof(ctx context.Context, paymentID uint, file io.Reader, header *multipart.FileHeader, proofURL string) (*models.Payment, error) {
	payment, err := s.payments.FindByID(ctx, paymentID)
	if err != nil {
		return nil, err
	}
	if payment.Status != models.PaymentStatusPending {
		return nil, apperrors.State("payment is not awaiting a transfer proof")
	}

	switch {
	case file != nil && header != nil:
		if s.storage == nil {
			return nil, apperrors.Validation("file uploads are not configured, submit a proof_url instead")
		}
		url, err := s.storage.UploadProof(ctx, file, header)
		if err != nil {
			return nil, apperrors.Internal(err)
		}
		payment.ProofURL = url
	case proofURL != "":
		payment.ProofURL = proofURL
	default:
		return nil, apperrors.Validation("a proof file or url is required")
	}

	payment.Status = models.PaymentStatusWaitingVerification
	if err := s.payments.Update(ctx, payment); err != nil {
		return nil, err
	}
	return payment, nil
}

// VerifyPayment is the admin approval of a manual transfer. Only
// payments waiting for verification can be verified.
func (s *PaymentService) VerifyPayment(ctx context.Context, paymentID, adminID uint) (*models.Payment, error) {
	payment, admin, err := s.loadForReview(ctx, paymentID, adminID)
	if err != nil {
		return nil, err
	}

	verifier := admin.ID
	if err := s.ConfirmAndUnlock(ctx, payment, &verifier, nil); err != nil {
		return nil, err
	}
	return payment, nil
}

// RejectPayment is the admin rejection of a manual transfer: a hard
// stop that cancels the linked order or appointment.
func (s *PaymentService) RejectPayment(ctx context.Context, paymentID, adminID uint, reason string) (*models.Payment, error) {
	payment, admin, err := s.loadForReview(ctx, paymentID, adminID)
	if err != nil {
		return nil, err
	}

	target, err := payment.Target()
	if err != nil {
		return nil, apperrors.Validation(err.Error())
	}

	now := time.Now()
	verifier := admin.ID
	payment.Status = models.PaymentStatusRejected
	payment.VerifiedBy = &verifier
	payment.VerifiedAt = &now
	payment.RejectionReason = reason

	if err := s.payments.Update(ctx, payment); err != nil {
		return nil, err
	}

	switch target.Kind {
	case models.TargetOrder:
		if err := s.orders.UpdateStatus(ctx, target.ID, models.OrderStatusCancelled); err != nil {
			return nil, err
		}
	case models.TargetAppointment:
		if err := s.appts.Cancel(ctx, target.ID); err != nil {
			return nil, err
		}
	}

	s.notifyPaymentOutcome(ctx, payment, "Payment rejected",
		"Your payment of %s was rejected: "+reason)
	return payment, nil
}

// ListWaitingVerification returns payments awaiting admin review
func (s *PaymentService) ListWaitingVerification(ctx context.Context) ([]models.Payment, error) {
	return s.payments.FindByStatus(ctx, models.PaymentStatusWaitingVerification)
}

func (s *PaymentService) loadForReview(ctx context.Context, paymentID, adminID uint) (*models.Payment, *models.User, error) {
	payment, err := s.payments.FindByID(ctx, paymentID)
	if err != nil {
		return nil, nil, err
	}
	if payment.Status != models.PaymentStatusWaitingVerification {
		return nil, nil, apperrors.State("payment is not in status waiting for verification")
	}

	admin, err := s.users.FindByID(ctx, adminID)
	if err != nil {
		return nil, nil, err
	}
	if !admin.IsAdmin() {
		return nil, nil, apperrors.NotFound("admin not found")
	}
	return payment, admin, nil
}

func (s *PaymentService) targetAmount(ctx context.Context, target models.PaymentTarget) (decimal.Decimal, error) {
	switch target.Kind {
	case models.TargetOrder:
		order, err := s.orders.FindByID(ctx, target.ID)
		if err != nil {
			return decimal.Zero, err
		}
		return order.TotalAmount, nil
	case models.TargetAppointment:
		appointment, err := s.apptRepo.FindByID(ctx, target.ID)
		if err != nil {
			return decimal.Zero, err
		}
		return appointment.Price, nil
	}
	return decimal.Zero, apperrors.Validationf("unknown payment target kind %q", target.Kind)
}

// notifyPaymentOutcome tells the paying customer about the outcome.
// Best effort: failures are logged, never propagated.
func (s *PaymentService) notifyPaymentOutcome(ctx context.Context, payment *models.Payment, title, bodyFormat string) {
	userID, err := s.payerID(ctx, payment)
	if err != nil {
		s.log.Warn("could not resolve payer for notification",
			zap.Uint("payment_id", payment.ID), zap.Error(err))
		return
	}

	body := renderAmountMessage(bodyFormat, payment.Amount)
	if err := s.notifier.Notify(ctx, Notification{UserID: userID, Title: title, Body: body}); err != nil {
		s.log.Warn("failed to dispatch payment notification",
			zap.Uint("payment_id", payment.ID), zap.Error(err))
	}
}

func (s *PaymentService) payerID(ctx context.Context, payment *models.Payment) (uint, error) {
	target, err := payment.Target()
	if err != nil {
		return 0, err
	}
	switch target.Kind {
	case models.TargetOrder:
		order, err := s.orders.FindByID(ctx, target.ID)
		if err != nil {
			return 0, err
		}
		return order.CustomerID, nil
	case models.TargetAppointment:
		appointment, err := s.apptRepo.FindByID(ctx, target.ID)
		if err != nil {
			return 0, err
		}
		return appointment.CustomerID, nil
	}
	return 0, apperrors.Validationf("unknown payment target kind %q", target.Kind)
}
