package tasks

import (
	"context"
	"time"

	"go.uber.org/zap"

	"optikcare_api/internal/models"
	"optikcare_api/internal/repository"
	"optikcare_api/internal/services"
)

// ExpireStalePaymentsTaskName identifies the recurring sweep that
// expires bank transfer payments past their deadline.
const ExpireStalePaymentsTaskName = "expire_stale_payments"

// ExpireStalePaymentsTask sweeps pending bank transfer payments whose
// deadline has passed and moves them to expired through the same path a
// gateway expiry event would take.
type ExpireStalePaymentsTask struct {
	payments repository.PaymentRepository
	service  *services.PaymentService
	log      *zap.Logger
}

func NewExpireStalePaymentsTask(payments repository.PaymentRepository, service *services.PaymentService, log *zap.Logger) *ExpireStalePaymentsTask {
	return &ExpireStalePaymentsTask{payments: payments, service: service, log: log}
}

// HandleExecution expires every stale payment it finds. One payment
// failing does not stop the sweep.
func (t *ExpireStalePaymentsTask) HandleExecution(ctx context.Context, task models.ScheduledTask) (map[string]interface{}, error) {
	stale, err := t.payments.FindExpiredBankTransfers(ctx, time.Now())
	if err != nil {
		return nil, err
	}

	expired := 0
	failed := 0
	for i := range stale {
		if ctx.Err() != nil {
			break
		}
		if err := t.service.MarkExpired(ctx, &stale[i]); err != nil {
			failed++
			t.log.Error("failed to expire stale payment",
				zap.Uint("payment_id", stale[i].ID), zap.Error(err))
			continue
		}
		expired++
	}

	return map[string]interface{}{
		"status":  "success",
		"found":   len(stale),
		"expired": expired,
		"failed":  failed,
	}, nil
}
