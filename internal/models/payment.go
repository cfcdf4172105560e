package models

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// PaymentStatus is the internal payment status vocabulary
type PaymentStatus string

const (
	PaymentStatusPending             PaymentStatus = "pending"
	PaymentStatusWaitingVerification PaymentStatus = "waiting_verification"
	PaymentStatusPaid                PaymentStatus = "paid"
	PaymentStatusFailed              PaymentStatus = "failed"
	PaymentStatusExpired             PaymentStatus = "expired"
	PaymentStatusRejected            PaymentStatus = "rejected"
)

// IsTerminal reports whether no further transition is permitted from s
func (s PaymentStatus) IsTerminal() bool {
	switch s {
	case PaymentStatusPaid, PaymentStatusFailed, PaymentStatusExpired, PaymentStatusRejected:
		return true
	}
	return false
}

// PaymentMethod describes how the payer moves money
type PaymentMethod string

const (
	PaymentMethodGateway      PaymentMethod = "gateway"
	PaymentMethodBankTransfer PaymentMethod = "bank_transfer"
	PaymentMethodManual       PaymentMethod = "manual"
	PaymentMethodOther        PaymentMethod = "other"
)

// TargetKind discriminates which aggregate a payment belongs to
type TargetKind string

const (
	TargetOrder       TargetKind = "order"
	TargetAppointment TargetKind = "appointment"
)

// PaymentTarget is the tagged link between a payment and exactly one
// domain aggregate. Every site that branches on the kind must handle
// both variants explicitly.
type PaymentTarget struct {
	Kind TargetKind
	ID   uint
}

// OrderTarget builds a target pointing at an order
func OrderTarget(id uint) PaymentTarget {
	return PaymentTarget{Kind: TargetOrder, ID: id}
}

// AppointmentTarget builds a target pointing at an appointment
func AppointmentTarget(id uint) PaymentTarget {
	return PaymentTarget{Kind: TargetAppointment, ID: id}
}

var ErrPaymentUnlinked = errors.New("payment is not linked to an order or appointment")

// Payment records a single attempt to pay for exactly one order or appointment
type Payment struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`

	PaymentType   TargetKind `gorm:"type:varchar(20);not null" json:"payment_type"`
	OrderID       *uint      `gorm:"index" json:"order_id,omitempty"`
	AppointmentID *uint      `gorm:"index" json:"appointment_id,omitempty"`

	Amount decimal.Decimal `gorm:"type:decimal(15,2)" json:"amount"`
	Status PaymentStatus   `gorm:"type:varchar(30);default:'pending';index" json:"status"`
	Method PaymentMethod   `gorm:"type:varchar(30)" json:"method"`

	// ExternalID is the correlation key the gateway echoes back in webhooks.
	// Unique per attempt.
	ExternalID           string `gorm:"type:varchar(100);uniqueIndex" json:"external_id"`
	GatewayTransactionID string `gorm:"type:varchar(100)" json:"gateway_transaction_id"`

	VerifiedBy      *uint      `json:"verified_by,omitempty"`
	VerifiedAt      *time.Time `json:"verified_at,omitempty"`
	RejectionReason string     `gorm:"type:text" json:"rejection_reason,omitempty"`

	PaidAt    *time.Time `json:"paid_at,omitempty"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`

	ProofURL string `gorm:"type:text" json:"proof_url,omitempty"`

	// Detail carries method-specific data, e.g. the bank-transfer base
	// amount and unique code. RawPayload is the verbatim gateway payload
	// snapshot kept for audit.
	Detail     json.RawMessage `gorm:"type:jsonb" json:"detail,omitempty"`
	RawPayload json.RawMessage `gorm:"type:jsonb" json:"raw_payload,omitempty"`

	// Relationships
	Order       *Order       `gorm:"foreignKey:OrderID" json:"order,omitempty"`
	Appointment *Appointment `gorm:"foreignKey:AppointmentID" json:"appointment,omitempty"`
}

// Target resolves the tagged link of this payment. The payment_type
// discriminator and the matching foreign key must agree.
func (p Payment) Target() (PaymentTarget, error) {
	switch p.PaymentType {
	case TargetOrder:
		if p.OrderID == nil {
			return PaymentTarget{}, ErrPaymentUnlinked
		}
		return OrderTarget(*p.OrderID), nil
	case TargetAppointment:
		if p.AppointmentID == nil {
			return PaymentTarget{}, ErrPaymentUnlinked
		}
		return AppointmentTarget(*p.AppointmentID), nil
	}
	return PaymentTarget{}, ErrPaymentUnlinked
}

// LinkTarget sets the discriminator and the matching foreign key
func (p *Payment) LinkTarget(target PaymentTarget) {
	p.PaymentType = target.Kind
	id := target.ID
	switch target.Kind {
	case TargetOrder:
		p.OrderID = &id
		p.AppointmentID = nil
	case TargetAppointment:
		p.AppointmentID = &id
		p.OrderID = nil
	}
}

// BankTransferDetail is stored in Payment.Detail for bank-transfer attempts
type BankTransferDetail struct {
	BaseAmount decimal.Decimal `json:"base_amount"`
	UniqueCode int64           `json:"unique_code"`
}
