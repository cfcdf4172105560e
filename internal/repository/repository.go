// Package repository defines the persistence interfaces the services
// depend on, plus their gorm implementations. Tests substitute
// in-memory fakes.
package repository

import (
	"context"
	"time"

	"optikcare_api/internal/models"
)

type PaymentRepository interface {
	Create(ctx context.Context, payment *models.Payment) error
	Update(ctx context.Context, payment *models.Payment) error
	FindByID(ctx context.Context, id uint) (*models.Payment, error)
	// FindByExternalID returns (nil, nil) when no payment carries the id.
	FindByExternalID(ctx context.Context, externalID string) (*models.Payment, error)
	FindByTarget(ctx context.Context, target models.PaymentTarget) ([]models.Payment, error)
	DeleteByIDs(ctx context.Context, ids []uint) error
	FindByStatus(ctx context.Context, status models.PaymentStatus) ([]models.Payment, error)
	FindExpiredBankTransfers(ctx context.Context, before time.Time) ([]models.Payment, error)
}

type OrderRepository interface {
	FindByID(ctx context.Context, id uint) (*models.Order, error)
	UpdateStatus(ctx context.Context, id uint, status models.OrderStatus) error
}

type AppointmentRepository interface {
	FindByID(ctx context.Context, id uint) (*models.Appointment, error)
	Update(ctx context.Context, appointment *models.Appointment) error
}

// WalletRepository serializes balance mutations. Mutate loads the wallet
// row under a row-level lock (creating it zero-balanced if absent), runs
// fn, and persists the result in the same transaction. fn returning an
// error rolls everything back.
type WalletRepository interface {
	Get(ctx context.Context, userID uint) (*models.Wallet, error)
	Mutate(ctx context.Context, userID uint, fn func(wallet *models.Wallet) error) (*models.Wallet, error)
}

type WithdrawRepository interface {
	Create(ctx context.Context, request *models.WithdrawRequest) error
	Update(ctx context.Context, request *models.WithdrawRequest) error
	FindByID(ctx context.Context, id uint) (*models.WithdrawRequest, error)
	ListByUser(ctx context.Context, userID uint) ([]models.WithdrawRequest, error)
	ListByStatus(ctx context.Context, status models.WithdrawStatus) ([]models.WithdrawRequest, error)
}

type UserRepository interface {
	FindByID(ctx context.Context, id uint) (*models.User, error)
	FindByFirebaseUID(ctx context.Context, uid string) (*models.User, error)
}

type WebhookEventRepository interface {
	Create(ctx context.Context, event *models.WebhookEvent) error
}
