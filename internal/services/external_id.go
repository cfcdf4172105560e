package services

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"optikcare_api/internal/apperrors"
	"optikcare_api/internal/models"
)

// EncodeExternalID builds the correlation key handed to the gateway:
// "<kind>-<id>-<unix>". The timestamp suffix keeps repeated attempts
// against the same entity unique; the decoder ignores it.
func EncodeExternalID(target models.PaymentTarget) string {
	return fmt.Sprintf("%s-%d-%d", target.Kind, target.ID, time.Now().Unix())
}

// DecodeExternalID recovers the payment target from a correlation key.
// The grammar is "<kind>-<digits>" with anything after the digit run
// ignored, so both "order-42" and "order-42-1714000000" decode to
// order 42. Unknown kinds and malformed ids yield a validation error.
func DecodeExternalID(externalID string) (models.PaymentTarget, error) {
	var kind models.TargetKind
	var rest string

	switch {
	case strings.HasPrefix(externalID, string(models.TargetOrder)+"-"):
		kind = models.TargetOrder
		rest = externalID[len(models.TargetOrder)+1:]
	case strings.HasPrefix(externalID, string(models.TargetAppointment)+"-"):
		kind = models.TargetAppointment
		rest = externalID[len(models.TargetAppointment)+1:]
	default:
		return models.PaymentTarget{}, apperrors.Validationf("unrecognized external id %q", externalID)
	}

	digits := rest
	if i := strings.IndexFunc(rest, func(r rune) bool { return r < '0' || r > '9' }); i >= 0 {
		digits = rest[:i]
	}
	if digits == "" {
		return models.PaymentTarget{}, apperrors.Validationf("external id %q has no entity id", externalID)
	}

	id, err := strconv.ParseUint(digits, 10, 64)
	if err != nil {
		return models.PaymentTarget{}, apperrors.Validationf("external id %q has a malformed entity id", externalID)
	}

	return models.PaymentTarget{Kind: kind, ID: uint(id)}, nil
}
