package services

import (
	"context"
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"optikcare_api/internal/apperrors"
	"optikcare_api/internal/models"
	"optikcare_api/internal/repository"
)

const webhookLockTTL = 30 * time.Second

// WebhookPayload is the gateway's invoice callback body. The raw bytes
// are snapshotted verbatim for audit regardless of what this struct
// captures.
type WebhookPayload struct {
	ID         string          `json:"id"`
	ExternalID string          `json:"external_id"`
	Status     string          `json:"status"`
	Amount     decimal.Decimal `json:"amount"`
	PaidAmount decimal.Decimal `json:"paid_amount"`
	PaidAt     *time.Time      `json:"paid_at"`
}

// WebhookResult summarizes what a webhook did; it becomes the HTTP
// response body.
type WebhookResult struct {
	PaymentID  uint                 `json:"payment_id"`
	TargetKind models.TargetKind    `json:"target_kind"`
	TargetID   uint                 `json:"target_id"`
	Amount     decimal.Decimal      `json:"amount"`
	Status     models.PaymentStatus `json:"status"`
}

// ReconciliationService maps asynchronous, out-of-order, possibly
// duplicated gateway webhooks onto the payment ledger and the order and
// appointment aggregates. Every transition is idempotent; the gateway's
// at-least-once delivery is safe to replay.
type ReconciliationService struct {
	verifier *SignatureVerifier
	payments repository.PaymentRepository
	events   repository.WebhookEventRepository
	paySvc   *PaymentService
	locker   ProcessingLocker
	log      *zap.Logger
}

func NewReconciliationService(
	verifier *SignatureVerifier,
	payments repository.PaymentRepository,
	events repository.WebhookEventRepository,
	paySvc *PaymentService,
	locker ProcessingLocker,
	log *zap.Logger,
) *ReconciliationService {
	return &ReconciliationService{
		verifier: verifier,
		payments: payments,
		events:   events,
		paySvc:   paySvc,
		locker:   locker,
		log:      log,
	}
}

// HandleOrderWebhook processes a gateway callback for an order payment
func (s *ReconciliationService) HandleOrderWebhook(ctx context.Context, rawBody []byte, signature string) (*WebhookResult, error) {
	return s.handle(ctx, models.TargetOrder, rawBody, signature)
}

// HandleAppointmentWebhook processes a gateway callback for an
// appointment payment
func (s *ReconciliationService) HandleAppointmentWebhook(ctx context.Context, rawBody []byte, signature string) (*WebhookResult, error) {
	return s.handle(ctx, models.TargetAppointment, rawBody, signature)
}

func (s *ReconciliationService) handle(ctx context.Context, expected models.TargetKind, rawBody []byte, signature string) (*WebhookResult, error) {
	if !s.verifier.Verify(rawBody, signature) {
		return nil, apperrors.Authentication("invalid webhook signature")
	}

	var payload WebhookPayload
	if err := json.Unmarshal(rawBody, &payload); err != nil {
		return nil, apperrors.Validation("malformed webhook body")
	}

	target, err := DecodeExternalID(payload.ExternalID)
	if err != nil {
		s.audit(ctx, payload, rawBody, "bad_external_id")
		return nil, err
	}
	if target.Kind != expected {
		s.audit(ctx, payload, rawBody, "kind_mismatch")
		return nil, apperrors.Validationf("external id targets a %s, expected a %s", target.Kind, expected)
	}

	s.audit(ctx, payload, rawBody, "accepted")

	if s.locker != nil {
		ok, err := s.locker.TryLock(ctx, "webhook:"+payload.ExternalID, webhookLockTTL)
		if err != nil {
			s.log.Warn("webhook lock unavailable, proceeding on idempotency guards",
				zap.String("external_id", payload.ExternalID), zap.Error(err))
		} else if ok {
			defer func() {
				if err := s.locker.Unlock(ctx, "webhook:"+payload.ExternalID); err != nil {
					s.log.Warn("failed to release webhook lock",
						zap.String("external_id", payload.ExternalID), zap.Error(err))
				}
			}()
		}
	}

	payment, err := s.payments.FindByExternalID(ctx, payload.ExternalID)
	if err != nil {
		return nil, err
	}
	if payment == nil {
		payment = &models.Payment{
			Amount:     round2(payload.Amount),
			Status:     models.PaymentStatusPending,
			Method:     models.PaymentMethodGateway,
			ExternalID: payload.ExternalID,
			RawPayload: json.RawMessage(rawBody),
		}
		payment.LinkTarget(target)
		if err := s.payments.Create(ctx, payment); err != nil {
			return nil, err
		}
	} else {
		payment.RawPayload = json.RawMessage(rawBody)
	}
	payment.GatewayTransactionID = payload.ID

	switch MapPaymentStatus(payload.Status) {
	case models.PaymentStatusPaid:
		if err := s.paySvc.ConfirmAndUnlock(ctx, payment, nil, payload.PaidAt); err != nil {
			return nil, err
		}
	case models.PaymentStatusExpired:
		if err := s.paySvc.MarkExpired(ctx, payment); err != nil {
			return nil, err
		}
	case models.PaymentStatusFailed:
		if err := s.paySvc.MarkFailed(ctx, payment); err != nil {
			return nil, err
		}
	default:
		// Unrecognized or still-pending vocabulary: record the snapshot
		// and transaction id, unlock nothing.
		if err := s.payments.Update(ctx, payment); err != nil {
			return nil, err
		}
	}

	return &WebhookResult{
		PaymentID:  payment.ID,
		TargetKind: target.Kind,
		TargetID:   target.ID,
		Amount:     payment.Amount,
		Status:     payment.Status,
	}, nil
}

// audit records the callback verbatim. Best effort: reconciliation does
// not depend on the audit row.
func (s *ReconciliationService) audit(ctx context.Context, payload WebhookPayload, rawBody []byte, outcome string) {
	event := models.WebhookEvent{
		Gateway:    "invoice",
		ExternalID: payload.ExternalID,
		Status:     payload.Status,
		Outcome:    outcome,
		Payload:    json.RawMessage(rawBody),
	}
	if err := s.events.Create(ctx, &event); err != nil {
		s.log.Warn("failed to record webhook audit event",
			zap.String("external_id", payload.ExternalID), zap.Error(err))
	}
}
