package handlers

import "github.com/shopspring/decimal"

// CreatePaymentRequest opens a payment for exactly one target. Exactly
// one of OrderID or AppointmentID must be set.
type CreatePaymentRequest struct {
	OrderID       *uint `json:"order_id,omitempty"`
	AppointmentID *uint `json:"appointment_id,omitempty"`
}

// SubmitProofRequest carries a transfer proof by URL. Multipart file
// uploads use the "proof" form field instead.
type SubmitProofRequest struct {
	ProofURL string `json:"proof_url"`
}

// RejectRequest carries the admin's reason for a rejection
type RejectRequest struct {
	Reason string `json:"reason"`
}

// CreateWithdrawRequest opens a withdrawal against the wallet balance
type CreateWithdrawRequest struct {
	Amount            decimal.Decimal `json:"amount"`
	BankName          string          `json:"bank_name"`
	BankAccountNumber string          `json:"bank_account_number"`
	BankAccountName   string          `json:"bank_account_name"`
}
