package services

import (
	"strings"

	"optikcare_api/internal/models"
)

// The gateway reports invoice status in its own free-text vocabulary.
// Two mappers translate it: MapPaymentStatus drives the Payment row
// (ternary outcome plus a pending default), MapAppointmentPaymentStatus
// drives Appointment.payment_status (binary). Callers must use the one
// matching the field they set; the two deliberately disagree on
// anything that is not a settled payment.

// MapPaymentStatus translates a gateway status into the internal
// payment status. Unrecognized vocabulary maps to pending so an unknown
// status can never unlock anything.
func MapPaymentStatus(gatewayStatus string) models.PaymentStatus {
	switch strings.ToLower(strings.TrimSpace(gatewayStatus)) {
	case "paid", "settled", "settlement", "capture":
		return models.PaymentStatusPaid
	case "expired", "expire":
		return models.PaymentStatusExpired
	case "failed", "failure", "cancelled", "canceled", "cancel", "deny":
		return models.PaymentStatusFailed
	}
	return models.PaymentStatusPending
}

// MapAppointmentPaymentStatus translates a gateway status into the
// binary appointment payment state. Everything that is not a settled
// payment is unpaid.
func MapAppointmentPaymentStatus(gatewayStatus string) models.AppointmentPaymentStatus {
	switch strings.ToLower(strings.TrimSpace(gatewayStatus)) {
	case "paid", "settled", "settlement", "capture":
		return models.AppointmentPaid
	}
	return models.AppointmentUnpaid
}
