package services

import (
	"context"
	"time"

	"go.uber.org/zap"

	"optikcare_api/internal/models"
	"optikcare_api/internal/repository"
)

// AppointmentService drives the appointment side of payment
// reconciliation: the unpaid -> paid transition with its one-time
// commission accrual and room provisioning, plus the resets applied on
// expired, failed and rejected payments.
type AppointmentService struct {
	appts   repository.AppointmentRepository
	wallets *WalletService
	rooms   RoomProvider
	log     *zap.Logger
}

func NewAppointmentService(
	appts repository.AppointmentRepository,
	wallets *WalletService,
	rooms RoomProvider,
	log *zap.Logger,
) *AppointmentService {
	return &AppointmentService{
		appts:   appts,
		wallets: wallets,
		rooms:   rooms,
		log:     log,
	}
}

// MarkPaid transitions the appointment's payment status to paid.
// Replaying a webhook against an already-paid appointment is a no-op:
// the commission is computed exactly once, on the transition itself.
// Wallet crediting and room provisioning are best-effort side effects
// performed after the appointment row is persisted.
func (s *AppointmentService) MarkPaid(ctx context.Context, appointmentID uint) error {
	appointment, err := s.appts.FindByID(ctx, appointmentID)
	if err != nil {
		return err
	}

	if appointment.PaymentStatus == models.AppointmentPaid {
		return nil
	}

	commission := round2(appointment.Price.
		Mul(appointment.CommissionPercentage).
		Div(decimalHundred))
	now := time.Now()

	appointment.PaymentStatus = models.AppointmentPaid
	appointment.CommissionAmount = &commission
	appointment.CommissionCalculatedAt = &now

	if err := s.appts.Update(ctx, appointment); err != nil {
		return err
	}

	if commission.IsPositive() {
		if _, err := s.wallets.AddCommission(ctx, appointment.OptometristID, commission); err != nil {
			s.log.Error("failed to credit commission, payment confirmation stands",
				zap.Uint("appointment_id", appointment.ID),
				zap.Uint("optometrist_id", appointment.OptometristID),
				zap.String("commission", commission.String()),
				zap.Error(err),
			)
		}
	}

	s.provisionRoom(ctx, appointment)
	return nil
}

// ResetUnpaid reverts the payment status when a payment expires or
// fails. Commission fields are left untouched: they only ever get
// written on a genuine unpaid -> paid transition.
func (s *AppointmentService) ResetUnpaid(ctx context.Context, appointmentID uint) error {
	appointment, err := s.appts.FindByID(ctx, appointmentID)
	if err != nil {
		return err
	}
	if appointment.PaymentStatus == models.AppointmentUnpaid {
		return nil
	}
	appointment.PaymentStatus = models.AppointmentUnpaid
	return s.appts.Update(ctx, appointment)
}

// Cancel is the hard stop applied when an admin rejects the payment
func (s *AppointmentService) Cancel(ctx context.Context, appointmentID uint) error {
	appointment, err := s.appts.FindByID(ctx, appointmentID)
	if err != nil {
		return err
	}
	appointment.Status = models.AppointmentStatusCancelled
	appointment.PaymentStatus = models.AppointmentUnpaid
	return s.appts.Update(ctx, appointment)
}

// provisionRoom creates the remote room when the consultation method
// needs one and none exists yet. The presence check makes replays
// idempotent.
func (s *AppointmentService) provisionRoom(ctx context.Context, appointment *models.Appointment) {
	if s.rooms == nil || !appointment.NeedsRoom() || appointment.RoomID() != "" {
		return
	}

	roomID, err := s.rooms.CreateRoom(ctx, string(appointment.Method), appointment.ID)
	if err != nil {
		s.log.Error("failed to provision room, payment confirmation stands",
			zap.Uint("appointment_id", appointment.ID),
			zap.String("method", string(appointment.Method)),
			zap.Error(err),
		)
		return
	}

	switch appointment.Method {
	case models.ConsultationVideo:
		appointment.VideoRoomID = roomID
	case models.ConsultationChat:
		appointment.ChatRoomID = roomID
	}

	if err := s.appts.Update(ctx, appointment); err != nil {
		s.log.Error("failed to persist room id",
			zap.Uint("appointment_id", appointment.ID),
			zap.String("room_id", roomID),
			zap.Error(err),
		)
	}
}
