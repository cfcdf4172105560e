package services

import (
	"strings"
	"testing"

	"optikcare_api/internal/apperrors"
	"optikcare_api/internal/models"
)

func TestEncodeExternalID(t *testing.T) {
	encoded := EncodeExternalID(models.OrderTarget(42))
	if !strings.HasPrefix(encoded, "order-42-") {
		t.Fatalf("EncodeExternalID(order 42) = %q; want order-42-<unix> prefix", encoded)
	}

	decoded, err := DecodeExternalID(encoded)
	if err != nil {
		t.Fatalf("DecodeExternalID(%q) returned error: %v", encoded, err)
	}
	if decoded != models.OrderTarget(42) {
		t.Errorf("round trip = %+v; want order 42", decoded)
	}
}

func TestDecodeExternalID(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    models.PaymentTarget
		wantErr bool
	}{
		{
			name:  "order with timestamp suffix",
			input: "order-42-1714000000",
			want:  models.OrderTarget(42),
		},
		{
			name:  "order without suffix",
			input: "order-42",
			want:  models.OrderTarget(42),
		},
		{
			name:  "appointment with timestamp suffix",
			input: "appointment-7-1714000000",
			want:  models.AppointmentTarget(7),
		},
		{
			name:  "trailing garbage after digits is ignored",
			input: "order-42abc",
			want:  models.OrderTarget(42),
		},
		{
			name:    "unknown kind",
			input:   "invoice-42",
			wantErr: true,
		},
		{
			name:    "no separator",
			input:   "order42",
			wantErr: true,
		},
		{
			name:    "missing entity id",
			input:   "order-",
			wantErr: true,
		},
		{
			name:    "non-numeric entity id",
			input:   "order-abc",
			wantErr: true,
		},
		{
			name:    "empty",
			input:   "",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DecodeExternalID(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("DecodeExternalID(%q) = %+v; want error", tt.input, got)
				}
				if !apperrors.IsKind(err, apperrors.KindValidation) {
					t.Errorf("DecodeExternalID(%q) error kind = %v; want validation", tt.input, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("DecodeExternalID(%q) returned error: %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("DecodeExternalID(%q) = %+v; want %+v", tt.input, got, tt.want)
			}
		})
	}
}
