package models

import "testing"

func TestPaymentStatusIsTerminal(t *testing.T) {
	tests := []struct {
		status PaymentStatus
		want   bool
	}{
		{PaymentStatusPending, false},
		{PaymentStatusWaitingVerification, false},
		{PaymentStatusPaid, true},
		{PaymentStatusFailed, true},
		{PaymentStatusExpired, true},
		{PaymentStatusRejected, true},
	}
	for _, tt := range tests {
		if got := tt.status.IsTerminal(); got != tt.want {
			t.Errorf("%s.IsTerminal() = %v; want %v", tt.status, got, tt.want)
		}
	}
}

func TestPaymentTargetLinkAndResolve(t *testing.T) {
	var p Payment

	p.LinkTarget(OrderTarget(42))
	target, err := p.Target()
	if err != nil {
		t.Fatalf("Target after linking order: %v", err)
	}
	if target != OrderTarget(42) {
		t.Errorf("target = %+v; want order 42", target)
	}
	if p.AppointmentID != nil {
		t.Error("appointment fk set on an order payment")
	}

	// Relinking to an appointment clears the order side.
	p.LinkTarget(AppointmentTarget(7))
	target, err = p.Target()
	if err != nil {
		t.Fatalf("Target after relinking: %v", err)
	}
	if target != AppointmentTarget(7) {
		t.Errorf("target = %+v; want appointment 7", target)
	}
	if p.OrderID != nil {
		t.Error("order fk survives relinking to an appointment")
	}
}

func TestPaymentTargetUnlinked(t *testing.T) {
	tests := []struct {
		name    string
		payment Payment
	}{
		{"no discriminator", Payment{}},
		{"order kind without fk", Payment{PaymentType: TargetOrder}},
		{"appointment kind without fk", Payment{PaymentType: TargetAppointment}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := tt.payment.Target(); err == nil {
				t.Error("Target() on unlinked payment returned no error")
			}
		})
	}
}
