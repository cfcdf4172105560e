package services

import (
	"context"
	"encoding/json"
	"testing"

	"go.uber.org/zap"

	"optikcare_api/internal/apperrors"
	"optikcare_api/internal/models"
)

const testSecret = "webhook-secret"

type reconciliationHarness struct {
	svc      *ReconciliationService
	payments *fakePaymentRepo
	orders   *fakeOrderRepo
	appts    *fakeAppointmentRepo
	wallets  *fakeWalletRepo
	events   *fakeEventRepo
	notifier *fakeNotifier
	rooms    *fakeRooms
	locker   *fakeLocker
}

func newReconciliationHarness(t *testing.T, orders []models.Order, appointments []models.Appointment) *reconciliationHarness {
	t.Helper()
	log := zap.NewNop()

	h := &reconciliationHarness{
		payments: newFakePaymentRepo(),
		orders:   newFakeOrderRepo(orders...),
		appts:    newFakeAppointmentRepo(appointments...),
		wallets:  newFakeWalletRepo(),
		events:   &fakeEventRepo{},
		notifier: &fakeNotifier{},
		rooms:    &fakeRooms{},
		locker:   newFakeLocker(),
	}

	walletSvc := NewWalletService(h.wallets, log)
	apptSvc := NewAppointmentService(h.appts, walletSvc, h.rooms, log)
	paySvc := NewPaymentService(h.payments, h.orders, h.appts, newFakeUserRepo(), apptSvc, nil, h.notifier, log)
	verifier := NewSignatureVerifier(testSecret, false, log)
	h.svc = NewReconciliationService(verifier, h.payments, h.events, paySvc, h.locker, log)
	return h
}

func webhookBody(t *testing.T, payload WebhookPayload) []byte {
	t.Helper()
	body, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	return body
}

func TestReconciliationOrderHappyPath(t *testing.T) {
	ctx := context.Background()
	h := newReconciliationHarness(t,
		[]models.Order{{ID: 1, CustomerID: 10, TotalAmount: d("150000"), Status: models.OrderStatusPending}},
		nil,
	)

	body := webhookBody(t, WebhookPayload{
		ID:         "tx-1",
		ExternalID: "order-1-1714000000",
		Status:     "PAID",
		Amount:     d("150000"),
	})

	result, err := h.svc.HandleOrderWebhook(ctx, body, sign(testSecret, body))
	if err != nil {
		t.Fatalf("HandleOrderWebhook: %v", err)
	}
	if result.Status != models.PaymentStatusPaid {
		t.Errorf("result status = %q; want paid", result.Status)
	}
	if result.TargetKind != models.TargetOrder || result.TargetID != 1 {
		t.Errorf("result target = %s %d; want order 1", result.TargetKind, result.TargetID)
	}

	payment, err := h.payments.FindByExternalID(ctx, "order-1-1714000000")
	if err != nil || payment == nil {
		t.Fatalf("payment not persisted: %v", err)
	}
	if payment.Status != models.PaymentStatusPaid {
		t.Errorf("payment status = %q; want paid", payment.Status)
	}
	if payment.GatewayTransactionID != "tx-1" {
		t.Errorf("gateway transaction id = %q; want tx-1", payment.GatewayTransactionID)
	}
	if payment.PaidAt == nil {
		t.Error("payment PaidAt not set")
	}

	order, _ := h.orders.FindByID(ctx, 1)
	if order.Status != models.OrderStatusPaid {
		t.Errorf("order status = %q; want paid", order.Status)
	}
	if len(h.notifier.sent) != 1 {
		t.Errorf("notifications sent = %d; want 1", len(h.notifier.sent))
	}
}

func TestReconciliationAppointmentCommissionAndRoom(t *testing.T) {
	ctx := context.Background()
	h := newReconciliationHarness(t, nil, []models.Appointment{{
		ID:                   5,
		CustomerID:           10,
		OptometristID:        20,
		Method:               models.ConsultationVideo,
		Status:               models.AppointmentStatusBooked,
		Price:                d("200000"),
		CommissionPercentage: d("10"),
		PaymentStatus:        models.AppointmentUnpaid,
	}})

	body := webhookBody(t, WebhookPayload{
		ID:         "tx-2",
		ExternalID: "appointment-5-1714000000",
		Status:     "settlement",
		Amount:     d("200000"),
	})

	if _, err := h.svc.HandleAppointmentWebhook(ctx, body, sign(testSecret, body)); err != nil {
		t.Fatalf("HandleAppointmentWebhook: %v", err)
	}

	appointment, _ := h.appts.FindByID(ctx, 5)
	if appointment.PaymentStatus != models.AppointmentPaid {
		t.Errorf("appointment payment status = %q; want paid", appointment.PaymentStatus)
	}
	if appointment.CommissionAmount == nil || !appointment.CommissionAmount.Equal(d("20000")) {
		t.Errorf("commission amount = %v; want 20000", appointment.CommissionAmount)
	}
	if appointment.VideoRoomID == "" {
		t.Error("video room not provisioned")
	}

	wallet, _ := h.wallets.Get(ctx, 20)
	if !wallet.Balance.Equal(d("20000")) {
		t.Errorf("optometrist balance = %s; want 20000", wallet.Balance)
	}
}

func TestReconciliationDuplicateDeliveryIsIdempotent(t *testing.T) {
	ctx := context.Background()
	h := newReconciliationHarness(t, nil, []models.Appointment{{
		ID:                   5,
		CustomerID:           10,
		OptometristID:        20,
		Method:               models.ConsultationVideo,
		Price:                d("200000"),
		CommissionPercentage: d("10"),
		PaymentStatus:        models.AppointmentUnpaid,
	}})

	body := webhookBody(t, WebhookPayload{
		ID:         "tx-2",
		ExternalID: "appointment-5-1714000000",
		Status:     "PAID",
		Amount:     d("200000"),
	})

	for i := 0; i < 3; i++ {
		if _, err := h.svc.HandleAppointmentWebhook(ctx, body, sign(testSecret, body)); err != nil {
			t.Fatalf("delivery %d: %v", i+1, err)
		}
	}

	// One payment row, one commission credit, one room.
	if got := len(h.payments.payments); got != 1 {
		t.Errorf("payment rows = %d; want 1", got)
	}
	wallet, _ := h.wallets.Get(ctx, 20)
	if !wallet.Balance.Equal(d("20000")) {
		t.Errorf("balance after replays = %s; want 20000 credited once", wallet.Balance)
	}
	if h.rooms.created != 1 {
		t.Errorf("rooms created = %d; want 1", h.rooms.created)
	}
}

func TestReconciliationRejectsBadSignature(t *testing.T) {
	ctx := context.Background()
	h := newReconciliationHarness(t,
		[]models.Order{{ID: 1, CustomerID: 10, TotalAmount: d("150000"), Status: models.OrderStatusPending}},
		nil,
	)

	body := webhookBody(t, WebhookPayload{ExternalID: "order-1", Status: "PAID", Amount: d("150000")})

	for name, header := range map[string]string{
		"wrong secret": sign("wrong", body),
		"no header":    "",
	} {
		if _, err := h.svc.HandleOrderWebhook(ctx, body, header); !apperrors.IsKind(err, apperrors.KindAuthentication) {
			t.Errorf("%s: error = %v; want authentication error", name, err)
		}
	}

	// Rejection happens before any write.
	if len(h.payments.payments) != 0 {
		t.Error("payment created despite signature rejection")
	}
	order, _ := h.orders.FindByID(ctx, 1)
	if order.Status != models.OrderStatusPending {
		t.Errorf("order status mutated to %q despite signature rejection", order.Status)
	}
	if len(h.events.events) != 0 {
		t.Error("audit event recorded for unauthenticated webhook")
	}
}

func TestReconciliationKindMismatch(t *testing.T) {
	ctx := context.Background()
	h := newReconciliationHarness(t,
		[]models.Order{{ID: 1, TotalAmount: d("150000"), Status: models.OrderStatusPending}},
		nil,
	)

	body := webhookBody(t, WebhookPayload{ExternalID: "order-1", Status: "PAID", Amount: d("150000")})

	_, err := h.svc.HandleAppointmentWebhook(ctx, body, sign(testSecret, body))
	if !apperrors.IsKind(err, apperrors.KindValidation) {
		t.Fatalf("kind mismatch error = %v; want validation error", err)
	}
	if len(h.payments.payments) != 0 {
		t.Error("payment created despite kind mismatch")
	}
	if len(h.events.events) != 1 || h.events.events[0].Outcome != "kind_mismatch" {
		t.Errorf("audit events = %+v; want one kind_mismatch", h.events.events)
	}
}

func TestReconciliationMalformedBody(t *testing.T) {
	ctx := context.Background()
	h := newReconciliationHarness(t, nil, nil)

	body := []byte("{not json")
	if _, err := h.svc.HandleOrderWebhook(ctx, body, sign(testSecret, body)); !apperrors.IsKind(err, apperrors.KindValidation) {
		t.Errorf("malformed body error = %v; want validation error", err)
	}
}

func TestReconciliationExpiryResetsAppointment(t *testing.T) {
	ctx := context.Background()
	h := newReconciliationHarness(t, nil, []models.Appointment{{
		ID:            5,
		OptometristID: 20,
		Price:         d("200000"),
		PaymentStatus: models.AppointmentUnpaid,
	}})

	pending := webhookBody(t, WebhookPayload{
		ExternalID: "appointment-5-1714000000", Status: "PENDING", Amount: d("200000"),
	})
	if _, err := h.svc.HandleAppointmentWebhook(ctx, pending, sign(testSecret, pending)); err != nil {
		t.Fatalf("pending webhook: %v", err)
	}

	expired := webhookBody(t, WebhookPayload{
		ExternalID: "appointment-5-1714000000", Status: "EXPIRED", Amount: d("200000"),
	})
	result, err := h.svc.HandleAppointmentWebhook(ctx, expired, sign(testSecret, expired))
	if err != nil {
		t.Fatalf("expired webhook: %v", err)
	}
	if result.Status != models.PaymentStatusExpired {
		t.Errorf("result status = %q; want expired", result.Status)
	}

	appointment, _ := h.appts.FindByID(ctx, 5)
	if appointment.PaymentStatus != models.AppointmentUnpaid {
		t.Errorf("appointment payment status = %q; want unpaid", appointment.PaymentStatus)
	}
	if appointment.CommissionAmount != nil {
		t.Error("commission written on expiry")
	}
}

func TestReconciliationExpiryLeavesOrderUntouched(t *testing.T) {
	ctx := context.Background()
	h := newReconciliationHarness(t,
		[]models.Order{{ID: 1, TotalAmount: d("150000"), Status: models.OrderStatusPending}},
		nil,
	)

	body := webhookBody(t, WebhookPayload{ExternalID: "order-1-1", Status: "EXPIRED", Amount: d("150000")})
	if _, err := h.svc.HandleOrderWebhook(ctx, body, sign(testSecret, body)); err != nil {
		t.Fatalf("expired webhook: %v", err)
	}

	order, _ := h.orders.FindByID(ctx, 1)
	if order.Status != models.OrderStatusPending {
		t.Errorf("order status = %q; want pending, untouched by expiry", order.Status)
	}
	payment, _ := h.payments.FindByExternalID(ctx, "order-1-1")
	if payment == nil || payment.Status != models.PaymentStatusExpired {
		t.Errorf("payment = %+v; want an expired row", payment)
	}
}

func TestReconciliationLateExpiryAfterPaidIsIgnored(t *testing.T) {
	ctx := context.Background()
	h := newReconciliationHarness(t,
		[]models.Order{{ID: 1, CustomerID: 10, TotalAmount: d("150000"), Status: models.OrderStatusPending}},
		nil,
	)

	paid := webhookBody(t, WebhookPayload{ExternalID: "order-1-1", Status: "PAID", Amount: d("150000")})
	if _, err := h.svc.HandleOrderWebhook(ctx, paid, sign(testSecret, paid)); err != nil {
		t.Fatalf("paid webhook: %v", err)
	}

	expired := webhookBody(t, WebhookPayload{ExternalID: "order-1-1", Status: "EXPIRED", Amount: d("150000")})
	if _, err := h.svc.HandleOrderWebhook(ctx, expired, sign(testSecret, expired)); err != nil {
		t.Fatalf("late expired webhook: %v", err)
	}

	payment, _ := h.payments.FindByExternalID(ctx, "order-1-1")
	if payment.Status != models.PaymentStatusPaid {
		t.Errorf("payment status = %q; want paid to survive a late expiry", payment.Status)
	}
	order, _ := h.orders.FindByID(ctx, 1)
	if order.Status != models.OrderStatusPaid {
		t.Errorf("order status = %q; want paid", order.Status)
	}
}

func TestReconciliationUnknownStatusStaysPending(t *testing.T) {
	ctx := context.Background()
	h := newReconciliationHarness(t,
		[]models.Order{{ID: 1, TotalAmount: d("150000"), Status: models.OrderStatusPending}},
		nil,
	)

	body := webhookBody(t, WebhookPayload{ID: "tx-9", ExternalID: "order-1-1", Status: "on_hold", Amount: d("150000")})
	result, err := h.svc.HandleOrderWebhook(ctx, body, sign(testSecret, body))
	if err != nil {
		t.Fatalf("unknown status webhook: %v", err)
	}
	if result.Status != models.PaymentStatusPending {
		t.Errorf("result status = %q; want pending", result.Status)
	}

	payment, _ := h.payments.FindByExternalID(ctx, "order-1-1")
	if payment.Status != models.PaymentStatusPending {
		t.Errorf("payment status = %q; want pending", payment.Status)
	}
	if payment.GatewayTransactionID != "tx-9" {
		t.Errorf("transaction id = %q; want tx-9 recorded even without a transition", payment.GatewayTransactionID)
	}
	order, _ := h.orders.FindByID(ctx, 1)
	if order.Status != models.OrderStatusPending {
		t.Errorf("order status = %q; want pending", order.Status)
	}
}

func TestReconciliationUsesProcessingLock(t *testing.T) {
	ctx := context.Background()
	h := newReconciliationHarness(t,
		[]models.Order{{ID: 1, TotalAmount: d("150000"), Status: models.OrderStatusPending}},
		nil,
	)

	body := webhookBody(t, WebhookPayload{ExternalID: "order-1-1", Status: "PAID", Amount: d("150000")})
	if _, err := h.svc.HandleOrderWebhook(ctx, body, sign(testSecret, body)); err != nil {
		t.Fatalf("HandleOrderWebhook: %v", err)
	}
	if h.locker.tries != 1 || h.locker.unlocks != 1 {
		t.Errorf("lock tries=%d unlocks=%d; want 1/1", h.locker.tries, h.locker.unlocks)
	}
}
