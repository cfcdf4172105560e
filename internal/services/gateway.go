package services

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/midtrans/midtrans-go"
	"github.com/midtrans/midtrans-go/coreapi"
	"github.com/midtrans/midtrans-go/snap"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"optikcare_api/internal/apperrors"
	"optikcare_api/internal/models"
	"optikcare_api/internal/repository"
)

// CheckoutResult is returned to the client so it can open the hosted
// payment page.
type CheckoutResult struct {
	PaymentID   uint   `json:"payment_id"`
	ExternalID  string `json:"external_id"`
	Token       string `json:"token"`
	RedirectURL string `json:"redirect_url"`
}

// GatewayService creates hosted checkouts for gateway payments. The
// external id it registers is what the gateway echoes back in webhooks.
type GatewayService struct {
	snapClient snap.Client
	coreClient coreapi.Client
	payments   repository.PaymentRepository
	orders     repository.OrderRepository
	appts      repository.AppointmentRepository
	log        *zap.Logger
}

func NewGatewayService(
	serverKey, clientKey string,
	isProduction bool,
	payments repository.PaymentRepository,
	orders repository.OrderRepository,
	appts repository.AppointmentRepository,
	log *zap.Logger,
) *GatewayService {
	env := midtrans.Sandbox
	if isProduction {
		env = midtrans.Production
	}

	var s snap.Client
	s.New(serverKey, env)

	var c coreapi.Client
	c.New(serverKey, env)

	midtrans.ServerKey = serverKey
	midtrans.ClientKey = clientKey
	midtrans.Environment = env

	return &GatewayService{
		snapClient: s,
		coreClient: c,
		payments:   payments,
		orders:     orders,
		appts:      appts,
		log:        log,
	}
}

// CreateCheckout opens a hosted checkout for the target entity and
// registers a pending gateway payment carrying the correlation key.
// Fails if a payment for the target is still outstanding.
func (s *GatewayService) CreateCheckout(ctx context.Context, target models.PaymentTarget, customer *models.User) (*CheckoutResult, error) {
	amount, description, err := s.resolveTarget(ctx, target)
	if err != nil {
		return nil, err
	}

	existing, err := s.payments.FindByTarget(ctx, target)
	if err != nil {
		return nil, err
	}
	for _, p := range existing {
		if !p.Status.IsTerminal() {
			return nil, apperrors.State("a pending payment already exists for this " + string(target.Kind))
		}
	}

	externalID := EncodeExternalID(target)
	grossAmount := amount.Round(0).IntPart()

	req := &snap.Request{
		TransactionDetails: midtrans.TransactionDetails{
			OrderID:  externalID,
			GrossAmt: grossAmount,
		},
		CustomerDetail: &midtrans.CustomerDetails{
			FName: customer.Name,
			Email: customer.Email,
		},
		Items: &[]midtrans.ItemDetails{
			{
				ID:    externalID,
				Name:  description,
				Price: grossAmount,
				Qty:   1,
			},
		},
	}

	resp, err := s.snapClient.CreateTransaction(req)
	if err != nil {
		return nil, apperrors.Internal(fmt.Errorf("gateway create transaction: %v", err))
	}

	reqBytes, _ := json.Marshal(req)
	payment := models.Payment{
		Amount:     amount,
		Status:     models.PaymentStatusPending,
		Method:     models.PaymentMethodGateway,
		ExternalID: externalID,
		Detail:     reqBytes,
	}
	payment.LinkTarget(target)

	if err := s.payments.Create(ctx, &payment); err != nil {
		return nil, err
	}

	return &CheckoutResult{
		PaymentID:   payment.ID,
		ExternalID:  externalID,
		Token:       resp.Token,
		RedirectURL: resp.RedirectURL,
	}, nil
}

// CheckTransaction asks the gateway for the live status of a checkout.
// Used by the status-polling endpoint, never by reconciliation itself.
func (s *GatewayService) CheckTransaction(externalID string) (string, error) {
	resp, err := s.coreClient.CheckTransaction(externalID)
	if err != nil {
		return "", fmt.Errorf("gateway check transaction: %v", err)
	}
	return resp.TransactionStatus, nil
}

func (s *GatewayService) resolveTarget(ctx context.Context, target models.PaymentTarget) (decimal.Decimal, string, error) {
	switch target.Kind {
	case models.TargetOrder:
		order, err := s.orders.FindByID(ctx, target.ID)
		if err != nil {
			return decimal.Zero, "", err
		}
		return order.TotalAmount, fmt.Sprintf("Order #%d", order.ID), nil
	case models.TargetAppointment:
		appointment, err := s.appts.FindByID(ctx, target.ID)
		if err != nil {
			return decimal.Zero, "", err
		}
		return appointment.Price, fmt.Sprintf("Appointment #%d", appointment.ID), nil
	}
	return decimal.Zero, "", apperrors.Validationf("unknown payment target kind %q", target.Kind)
}
