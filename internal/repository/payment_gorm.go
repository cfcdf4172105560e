package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"optikcare_api/internal/apperrors"
	"optikcare_api/internal/models"
)

type paymentGormRepository struct {
	db *gorm.DB
}

func NewPaymentRepository(db *gorm.DB) PaymentRepository {
	return &paymentGormRepository{db: db}
}

func (r *paymentGormRepository) Create(ctx context.Context, payment *models.Payment) error {
	if err := r.db.WithContext(ctx).Create(payment).Error; err != nil {
		return apperrors.Internal(err)
	}
	return nil
}

func (r *paymentGormRepository) Update(ctx context.Context, payment *models.Payment) error {
	if err := r.db.WithContext(ctx).Save(payment).Error; err != nil {
		return apperrors.Internal(err)
	}
	return nil
}

func (r *paymentGormRepository) FindByID(ctx context.Context, id uint) (*models.Payment, error) {
	var payment models.Payment
	err := r.db.WithContext(ctx).First(&payment, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("payment not found")
		}
		return nil, apperrors.Internal(err)
	}
	return &payment, nil
}

func (r *paymentGormRepository) FindByExternalID(ctx context.Context, externalID string) (*models.Payment, error) {
	var payment models.Payment
	err := r.db.WithContext(ctx).Where("external_id = ?", externalID).First(&payment).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, apperrors.Internal(err)
	}
	return &payment, nil
}

func (r *paymentGormRepository) FindByTarget(ctx context.Context, target models.PaymentTarget) ([]models.Payment, error) {
	var payments []models.Payment
	q := r.db.WithContext(ctx).Where("payment_type = ?", target.Kind)
	switch target.Kind {
	case models.TargetOrder:
		q = q.Where("order_id = ?", target.ID)
	case models.TargetAppointment:
		q = q.Where("appointment_id = ?", target.ID)
	default:
		return nil, apperrors.Validationf("unknown payment target kind %q", target.Kind)
	}
	if err := q.Find(&payments).Error; err != nil {
		return nil, apperrors.Internal(err)
	}
	return payments, nil
}

func (r *paymentGormRepository) DeleteByIDs(ctx context.Context, ids []uint) error {
	if len(ids) == 0 {
		return nil
	}
	if err := r.db.WithContext(ctx).Delete(&models.Payment{}, ids).Error; err != nil {
		return apperrors.Internal(err)
	}
	return nil
}

func (r *paymentGormRepository) FindByStatus(ctx context.Context, status models.PaymentStatus) ([]models.Payment, error) {
	var payments []models.Payment
	err := r.db.WithContext(ctx).
		Where("status = ?", status).
		Order("created_at asc").
		Find(&payments).Error
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	return payments, nil
}

func (r *paymentGormRepository) FindExpiredBankTransfers(ctx context.Context, before time.Time) ([]models.Payment, error) {
	var payments []models.Payment
	err := r.db.WithContext(ctx).
		Where("method = ? AND status = ? AND expires_at IS NOT NULL AND expires_at < ?",
			models.PaymentMethodBankTransfer, models.PaymentStatusPending, before).
		Find(&payments).Error
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	return payments, nil
}
