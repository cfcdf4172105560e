package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"optikcare_api/internal/apperrors"
	"optikcare_api/internal/models"
)

type withdrawGormRepository struct {
	db *gorm.DB
}

func NewWithdrawRepository(db *gorm.DB) WithdrawRepository {
	return &withdrawGormRepository{db: db}
}

func (r *withdrawGormRepository) Create(ctx context.Context, request *models.WithdrawRequest) error {
	if err := r.db.WithContext(ctx).Create(request).Error; err != nil {
		return apperrors.Internal(err)
	}
	return nil
}

func (r *withdrawGormRepository) Update(ctx context.Context, request *models.WithdrawRequest) error {
	if err := r.db.WithContext(ctx).Save(request).Error; err != nil {
		return apperrors.Internal(err)
	}
	return nil
}

func (r *withdrawGormRepository) FindByID(ctx context.Context, id uint) (*models.WithdrawRequest, error) {
	var request models.WithdrawRequest
	err := r.db.WithContext(ctx).First(&request, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("withdraw request not found")
		}
		return nil, apperrors.Internal(err)
	}
	return &request, nil
}

func (r *withdrawGormRepository) ListByUser(ctx context.Context, userID uint) ([]models.WithdrawRequest, error) {
	var requests []models.WithdrawRequest
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at desc").
		Find(&requests).Error
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	return requests, nil
}

func (r *withdrawGormRepository) ListByStatus(ctx context.Context, status models.WithdrawStatus) ([]models.WithdrawRequest, error) {
	var requests []models.WithdrawRequest
	err := r.db.WithContext(ctx).
		Where("status = ?", status).
		Order("created_at asc").
		Find(&requests).Error
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	return requests, nil
}
