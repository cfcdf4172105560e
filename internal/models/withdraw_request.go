package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// WithdrawStatus is the review state of a withdrawal request
type WithdrawStatus string

const (
	WithdrawStatusPending  WithdrawStatus = "PENDING"
	WithdrawStatusApproved WithdrawStatus = "APPROVED"
	WithdrawStatusRejected WithdrawStatus = "REJECTED"
	WithdrawStatusPaid     WithdrawStatus = "PAID"
)

// WithdrawRequest is an optometrist's request to pay out wallet balance
// to a bank account. Creating one holds the amount; rejection releases
// the hold, marking paid deducts it.
type WithdrawRequest struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`

	UserID uint            `gorm:"index" json:"user_id"`
	Amount decimal.Decimal `gorm:"type:decimal(15,2)" json:"amount"`

	BankName          string `gorm:"type:varchar(100)" json:"bank_name"`
	BankAccountNumber string `gorm:"type:varchar(50)" json:"bank_account_number"`
	BankAccountName   string `gorm:"type:varchar(255)" json:"bank_account_name"`

	Status WithdrawStatus `gorm:"type:varchar(20);default:'PENDING';index" json:"status"`

	ReviewedBy    *uint      `json:"reviewed_by,omitempty"`
	ReviewedAt    *time.Time `json:"reviewed_at,omitempty"`
	RejectionNote string     `gorm:"type:text" json:"rejection_note,omitempty"`
	PaidAt        *time.Time `json:"paid_at,omitempty"`

	// Relationships
	User User `gorm:"foreignKey:UserID" json:"user,omitempty"`
}
