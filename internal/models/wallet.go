package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Wallet holds an optometrist's withdrawable and held balances.
// One row per user, lazily created with zero balances on first access.
type Wallet struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`

	UserID uint `gorm:"uniqueIndex" json:"user_id"`

	// Balance is withdrawable; HoldBalance is reserved against a pending
	// withdrawal. Both stay >= 0 at all times.
	Balance     decimal.Decimal `gorm:"type:decimal(15,2);default:0" json:"balance"`
	HoldBalance decimal.Decimal `gorm:"type:decimal(15,2);default:0" json:"hold_balance"`

	// Relationships
	User User `gorm:"foreignKey:UserID" json:"user,omitempty"`
}
