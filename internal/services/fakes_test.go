package services

import (
	"context"
	"errors"
	"io"
	"mime/multipart"
	"time"

	"github.com/shopspring/decimal"

	"optikcare_api/internal/apperrors"
	"optikcare_api/internal/models"
)

// In-memory repository fakes. They copy on read and write the way the
// gorm layer does, so a service holding a stale pointer cannot leak
// state into the store.

func d(value string) decimal.Decimal {
	out, err := decimal.NewFromString(value)
	if err != nil {
		panic(err)
	}
	return out
}

type fakePaymentRepo struct {
	payments map[uint]models.Payment
	nextID   uint
}

func newFakePaymentRepo() *fakePaymentRepo {
	return &fakePaymentRepo{payments: make(map[uint]models.Payment), nextID: 1}
}

func (r *fakePaymentRepo) Create(_ context.Context, payment *models.Payment) error {
	payment.ID = r.nextID
	r.nextID++
	r.payments[payment.ID] = *payment
	return nil
}

func (r *fakePaymentRepo) Update(_ context.Context, payment *models.Payment) error {
	if _, ok := r.payments[payment.ID]; !ok {
		return apperrors.NotFound("payment not found")
	}
	r.payments[payment.ID] = *payment
	return nil
}

func (r *fakePaymentRepo) FindByID(_ context.Context, id uint) (*models.Payment, error) {
	payment, ok := r.payments[id]
	if !ok {
		return nil, apperrors.NotFound("payment not found")
	}
	return &payment, nil
}

func (r *fakePaymentRepo) FindByExternalID(_ context.Context, externalID string) (*models.Payment, error) {
	for _, payment := range r.payments {
		if payment.ExternalID == externalID {
			p := payment
			return &p, nil
		}
	}
	return nil, nil
}

func (r *fakePaymentRepo) FindByTarget(_ context.Context, target models.PaymentTarget) ([]models.Payment, error) {
	var out []models.Payment
	for _, payment := range r.payments {
		if t, err := payment.Target(); err == nil && t == target {
			out = append(out, payment)
		}
	}
	return out, nil
}

func (r *fakePaymentRepo) DeleteByIDs(_ context.Context, ids []uint) error {
	for _, id := range ids {
		delete(r.payments, id)
	}
	return nil
}

func (r *fakePaymentRepo) FindByStatus(_ context.Context, status models.PaymentStatus) ([]models.Payment, error) {
	var out []models.Payment
	for _, payment := range r.payments {
		if payment.Status == status {
			out = append(out, payment)
		}
	}
	return out, nil
}

func (r *fakePaymentRepo) FindExpiredBankTransfers(_ context.Context, before time.Time) ([]models.Payment, error) {
	var out []models.Payment
	for _, payment := range r.payments {
		if payment.Method == models.PaymentMethodBankTransfer &&
			payment.Status == models.PaymentStatusPending &&
			payment.ExpiresAt != nil && payment.ExpiresAt.Before(before) {
			out = append(out, payment)
		}
	}
	return out, nil
}

type fakeOrderRepo struct {
	orders map[uint]models.Order
}

func newFakeOrderRepo(orders ...models.Order) *fakeOrderRepo {
	r := &fakeOrderRepo{orders: make(map[uint]models.Order)}
	for _, order := range orders {
		r.orders[order.ID] = order
	}
	return r
}

func (r *fakeOrderRepo) FindByID(_ context.Context, id uint) (*models.Order, error) {
	order, ok := r.orders[id]
	if !ok {
		return nil, apperrors.NotFound("order not found")
	}
	return &order, nil
}

func (r *fakeOrderRepo) UpdateStatus(_ context.Context, id uint, status models.OrderStatus) error {
	order, ok := r.orders[id]
	if !ok {
		return apperrors.NotFound("order not found")
	}
	order.Status = status
	r.orders[id] = order
	return nil
}

type fakeAppointmentRepo struct {
	appointments map[uint]models.Appointment
}

func newFakeAppointmentRepo(appointments ...models.Appointment) *fakeAppointmentRepo {
	r := &fakeAppointmentRepo{appointments: make(map[uint]models.Appointment)}
	for _, appointment := range appointments {
		r.appointments[appointment.ID] = appointment
	}
	return r
}

func (r *fakeAppointmentRepo) FindByID(_ context.Context, id uint) (*models.Appointment, error) {
	appointment, ok := r.appointments[id]
	if !ok {
		return nil, apperrors.NotFound("appointment not found")
	}
	return &appointment, nil
}

func (r *fakeAppointmentRepo) Update(_ context.Context, appointment *models.Appointment) error {
	if _, ok := r.appointments[appointment.ID]; !ok {
		return apperrors.NotFound("appointment not found")
	}
	r.appointments[appointment.ID] = *appointment
	return nil
}

type fakeWalletRepo struct {
	wallets map[uint]models.Wallet
	nextID  uint
	// mutateErr, when set, fails every Mutate call
	mutateErr error
}

func newFakeWalletRepo() *fakeWalletRepo {
	return &fakeWalletRepo{wallets: make(map[uint]models.Wallet), nextID: 1}
}

func (r *fakeWalletRepo) Get(_ context.Context, userID uint) (*models.Wallet, error) {
	wallet, ok := r.wallets[userID]
	if !ok {
		wallet = models.Wallet{ID: r.nextID, UserID: userID, Balance: decimal.Zero, HoldBalance: decimal.Zero}
		r.nextID++
		r.wallets[userID] = wallet
	}
	return &wallet, nil
}

func (r *fakeWalletRepo) Mutate(ctx context.Context, userID uint, fn func(wallet *models.Wallet) error) (*models.Wallet, error) {
	if r.mutateErr != nil {
		return nil, r.mutateErr
	}
	current, err := r.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	working := *current
	if err := fn(&working); err != nil {
		return nil, err
	}
	r.wallets[userID] = working
	out := working
	return &out, nil
}

type fakeWithdrawRepo struct {
	requests map[uint]models.WithdrawRequest
	nextID   uint
	// createErr, when set, fails the next Create call
	createErr error
}

func newFakeWithdrawRepo() *fakeWithdrawRepo {
	return &fakeWithdrawRepo{requests: make(map[uint]models.WithdrawRequest), nextID: 1}
}

func (r *fakeWithdrawRepo) Create(_ context.Context, request *models.WithdrawRequest) error {
	if r.createErr != nil {
		return r.createErr
	}
	request.ID = r.nextID
	r.nextID++
	r.requests[request.ID] = *request
	return nil
}

func (r *fakeWithdrawRepo) Update(_ context.Context, request *models.WithdrawRequest) error {
	if _, ok := r.requests[request.ID]; !ok {
		return apperrors.NotFound("withdraw request not found")
	}
	r.requests[request.ID] = *request
	return nil
}

func (r *fakeWithdrawRepo) FindByID(_ context.Context, id uint) (*models.WithdrawRequest, error) {
	request, ok := r.requests[id]
	if !ok {
		return nil, apperrors.NotFound("withdraw request not found")
	}
	return &request, nil
}

func (r *fakeWithdrawRepo) ListByUser(_ context.Context, userID uint) ([]models.WithdrawRequest, error) {
	var out []models.WithdrawRequest
	for _, request := range r.requests {
		if request.UserID == userID {
			out = append(out, request)
		}
	}
	return out, nil
}

func (r *fakeWithdrawRepo) ListByStatus(_ context.Context, status models.WithdrawStatus) ([]models.WithdrawRequest, error) {
	var out []models.WithdrawRequest
	for _, request := range r.requests {
		if request.Status == status {
			out = append(out, request)
		}
	}
	return out, nil
}

type fakeUserRepo struct {
	users map[uint]models.User
}

func newFakeUserRepo(users ...models.User) *fakeUserRepo {
	r := &fakeUserRepo{users: make(map[uint]models.User)}
	for _, user := range users {
		r.users[user.ID] = user
	}
	return r
}

func (r *fakeUserRepo) FindByID(_ context.Context, id uint) (*models.User, error) {
	user, ok := r.users[id]
	if !ok {
		return nil, apperrors.NotFound("user not found")
	}
	return &user, nil
}

func (r *fakeUserRepo) FindByFirebaseUID(_ context.Context, uid string) (*models.User, error) {
	for _, user := range r.users {
		if user.FirebaseUID == uid {
			u := user
			return &u, nil
		}
	}
	return nil, apperrors.NotFound("user not found")
}

type fakeEventRepo struct {
	events []models.WebhookEvent
}

func (r *fakeEventRepo) Create(_ context.Context, event *models.WebhookEvent) error {
	r.events = append(r.events, *event)
	return nil
}

type fakeNotifier struct {
	sent []Notification
	err  error
}

func (n *fakeNotifier) Notify(_ context.Context, notification Notification) error {
	if n.err != nil {
		return n.err
	}
	n.sent = append(n.sent, notification)
	return nil
}

type fakeRooms struct {
	created int
	err     error
}

func (r *fakeRooms) CreateRoom(_ context.Context, _ string, _ uint) (string, error) {
	if r.err != nil {
		return "", r.err
	}
	r.created++
	return "room-1", nil
}

type fakeStorage struct {
	url string
}

func (s *fakeStorage) UploadProof(_ context.Context, _ io.Reader, _ *multipart.FileHeader) (string, error) {
	return s.url, nil
}

type fakeLocker struct {
	locks   map[string]bool
	tries   int
	unlocks int
}

func newFakeLocker() *fakeLocker {
	return &fakeLocker{locks: make(map[string]bool)}
}

func (l *fakeLocker) TryLock(_ context.Context, key string, _ time.Duration) (bool, error) {
	l.tries++
	if l.locks[key] {
		return false, nil
	}
	l.locks[key] = true
	return true, nil
}

func (l *fakeLocker) Unlock(_ context.Context, key string) error {
	l.unlocks++
	delete(l.locks, key)
	return nil
}

var errInfra = errors.New("infrastructure down")
