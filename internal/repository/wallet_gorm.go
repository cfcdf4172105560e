package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"optikcare_api/internal/apperrors"
	"optikcare_api/internal/models"
)

type walletGormRepository struct {
	db *gorm.DB
}

func NewWalletRepository(db *gorm.DB) WalletRepository {
	return &walletGormRepository{db: db}
}

func (r *walletGormRepository) Get(ctx context.Context, userID uint) (*models.Wallet, error) {
	var wallet models.Wallet
	err := r.db.WithContext(ctx).
		Where(models.Wallet{UserID: userID}).
		FirstOrCreate(&wallet).Error
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	return &wallet, nil
}

// Mutate runs fn against the wallet row locked FOR UPDATE inside a
// transaction. Two webhooks, or a webhook and a withdrawal, racing on
// the same user serialize here instead of losing an update.
func (r *walletGormRepository) Mutate(ctx context.Context, userID uint, fn func(wallet *models.Wallet) error) (*models.Wallet, error) {
	var wallet models.Wallet
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("user_id = ?", userID).
			First(&wallet).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			wallet = models.Wallet{UserID: userID}
			if err := tx.Create(&wallet).Error; err != nil {
				return err
			}
			// Re-read under the lock so the row stays pinned for the
			// remainder of the transaction.
			if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
				Where("user_id = ?", userID).
				First(&wallet).Error; err != nil {
				return err
			}
		} else if err != nil {
			return err
		}

		if err := fn(&wallet); err != nil {
			return err
		}
		return tx.Save(&wallet).Error
	})
	if err != nil {
		var appErr *apperrors.Error
		if errors.As(err, &appErr) {
			return nil, appErr
		}
		return nil, apperrors.Internal(err)
	}
	return &wallet, nil
}
