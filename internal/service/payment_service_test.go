package service

import (
	"context"
	"database/sql"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/fms-portal-api/internal/models"
	appErrors "github.com/noah-isme/fms-portal-api/pkg/errors"
	"github.com/noah-isme/fms-portal-api/pkg/paystack"
)

type fakePaymentRepo struct {
	payments   map[string]*models.Payment
	byRef      map[string]*models.Payment
	categories map[string]*models.PaymentCategory
	created    []*models.Payment
}

func newFakePaymentRepo() *fakePaymentRepo {
	return &fakePaymentRepo{
		payments:   map[string]*models.Payment{},
		byRef:      map[string]*models.Payment{},
		categories: map[string]*models.PaymentCategory{},
	}
}

func (f *fakePaymentRepo) FindByID(_ context.Context, id string) (*models.Payment, error) {
	p, ok := f.payments[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return p, nil
}

func (f *fakePaymentRepo) FindByReference(_ context.Context, reference string) (*models.Payment, error) {
	p, ok := f.byRef[reference]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return p, nil
}

func (f *fakePaymentRepo) List(_ context.Context, _ models.PaymentFilter) ([]models.Payment, int, error) {
	out := make([]models.Payment, 0, len(f.payments))
	for _, p := range f.payments {
		out = append(out, *p)
	}
	return out, len(out), nil
}

func (f *fakePaymentRepo) Create(_ context.Context, payment *models.Payment, _ string) error {
	if payment.ID == "" {
		payment.ID = "pay-" + payment.PaymentReference
	}
	f.payments[payment.ID] = payment
	f.byRef[payment.PaymentReference] = payment
	f.created = append(f.created, payment)
	return nil
}

func (f *fakePaymentRepo) UpdateStatusByReference(_ context.Context, reference, status string) error {
	p, ok := f.byRef[reference]
	if !ok {
		return sql.ErrNoRows
	}
	p.Status = status
	return nil
}

func (f *fakePaymentRepo) FindCategoryByID(_ context.Context, id string) (*models.PaymentCategory, error) {
	c, ok := f.categories[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return c, nil
}

func (f *fakePaymentRepo) ListCategories(_ context.Context, _, _ int) ([]models.PaymentCategory, int, error) {
	out := make([]models.PaymentCategory, 0, len(f.categories))
	for _, c := range f.categories {
		out = append(out, *c)
	}
	return out, len(out), nil
}

func (f *fakePaymentRepo) CreateCategory(_ context.Context, category *models.PaymentCategory) error {
	if category.ID == "" {
		category.ID = "cat-" + category.Name
	}
	f.categories[category.ID] = category
	return nil
}

func (f *fakePaymentRepo) UpdateCategory(_ context.Context, category *models.PaymentCategory) error {
	f.categories[category.ID] = category
	return nil
}

func (f *fakePaymentRepo) DeleteCategory(_ context.Context, id string) error {
	delete(f.categories, id)
	return nil
}

type fakeGateway struct {
	initCalls    []paystack.InitializeRequest
	verifyStatus string
	verifyErr    error
}

func (f *fakeGateway) Initialize(_ context.Context, req paystack.InitializeRequest) (*paystack.Transaction, error) {
	f.initCalls = append(f.initCalls, req)
	return &paystack.Transaction{
		AuthorizationURL: "https://checkout.paystack.com/" + req.Reference,
		AccessCode:       "access-" + req.Reference,
		Reference:        req.Reference,
	}, nil
}

func (f *fakeGateway) Verify(_ context.Context, reference string) (*paystack.VerifyResult, error) {
	if f.verifyErr != nil {
		return nil, f.verifyErr
	}
	return &paystack.VerifyResult{Reference: reference, Status: f.verifyStatus}, nil
}

type fakeLedger struct {
	bills map[string][]models.UserBill
}

func (f *fakeLedger) ListForUser(_ context.Context, userID string) ([]models.UserBill, error) {
	return f.bills[userID], nil
}

func (f *fakeLedger) AssignToUser(_ context.Context, userID, billID string) error {
	return nil
}

type fakeInvalidator struct {
	studentCalls []string
	adminCalls   int
	sweepCalls   int
}

func (f *fakeInvalidator) InvalidateStudent(_ context.Context, userID string) {
	f.studentCalls = append(f.studentCalls, userID)
}

func (f *fakeInvalidator) InvalidateAdmin(_ context.Context) {
	f.adminCalls++
}

func (f *fakeInvalidator) InvalidateAllStudents(_ context.Context) {
	f.sweepCalls++
}

type paymentFixture struct {
	svc         *PaymentService
	payments    *fakePaymentRepo
	users       *fakeAuthRepo
	ledger      *fakeLedger
	gateway     *fakeGateway
	invalidator *fakeInvalidator
}

func newPaymentFixture(t *testing.T) *paymentFixture {
	t.Helper()
	payments := newFakePaymentRepo()
	users := newFakeAuthRepo()
	ledger := &fakeLedger{bills: map[string][]models.UserBill{}}
	gateway := &fakeGateway{verifyStatus: "success"}
	invalidator := &fakeInvalidator{}

	svc := NewPaymentService(PaymentServiceParams{
		Payments:   payments,
		Users:      users,
		Bills:      ledger,
		Gateway:    gateway,
		Dashboards: invalidator,
		Metrics:    NewMetricsService(),
		Config:     PaymentServiceConfig{CallbackURL: "https://portal.example.com/payments/callback"},
	})
	return &paymentFixture{svc: svc, payments: payments, users: users, ledger: ledger, gateway: gateway, invalidator: invalidator}
}

func (fx *paymentFixture) seedPayer(t *testing.T, remaining int64, installments bool) (*models.User, string) {
	t.Helper()
	user := seedStudent(t, fx.users, "pass")
	fx.payments.categories["cat-1"] = &models.PaymentCategory{ID: "cat-1", Name: "Full payment"}
	fx.ledger.bills[user.ID] = []models.UserBill{{
		Bill: models.Bill{
			ID:                   "bill-1",
			Name:                 "Tuition 2026",
			AmountDue:            250000,
			DueDate:              time.Now().Add(30 * 24 * time.Hour),
			InstallmentSupported: installments,
			MaxInstallments:      4,
		},
		RemainingBalance: remaining,
	}}
	return user, "bill-1"
}

func TestInitiateOpensCheckoutAndRecordsPending(t *testing.T) {
	fx := newPaymentFixture(t)
	user, billID := fx.seedPayer(t, 250000, true)

	resp, err := fx.svc.Initiate(context.Background(), user.ID, models.InitiatePaymentRequest{
		BillID:     billID,
		Amount:     100000,
		CategoryID: "cat-1",
	})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(resp.Reference, "FMS-"))
	assert.Contains(t, resp.AuthorizationURL, resp.Reference)

	require.Len(t, fx.payments.created, 1)
	created := fx.payments.created[0]
	assert.Equal(t, models.PaymentStatusPending, created.Status)
	assert.Equal(t, int64(100000), created.Amount)

	require.Len(t, fx.gateway.initCalls, 1)
	assert.Equal(t, user.Email, fx.gateway.initCalls[0].Email)
}

func TestInitiateRejectsSettledBill(t *testing.T) {
	fx := newPaymentFixture(t)
	user, billID := fx.seedPayer(t, 0, true)

	_, err := fx.svc.Initiate(context.Background(), user.ID, models.InitiatePaymentRequest{
		BillID:     billID,
		Amount:     100,
		CategoryID: "cat-1",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrBillSettled.Code, appErrors.FromError(err).Code)
}

func TestInitiateRejectsOverpayment(t *testing.T) {
	fx := newPaymentFixture(t)
	user, billID := fx.seedPayer(t, 50000, true)

	_, err := fx.svc.Initiate(context.Background(), user.ID, models.InitiatePaymentRequest{
		BillID:     billID,
		Amount:     60000,
		CategoryID: "cat-1",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestInitiateRequiresFullSettlementWithoutInstallments(t *testing.T) {
	fx := newPaymentFixture(t)
	user, billID := fx.seedPayer(t, 250000, false)

	_, err := fx.svc.Initiate(context.Background(), user.ID, models.InitiatePaymentRequest{
		BillID:     billID,
		Amount:     100000,
		CategoryID: "cat-1",
	})
	require.Error(t, err)

	_, err = fx.svc.Initiate(context.Background(), user.ID, models.InitiatePaymentRequest{
		BillID:     billID,
		Amount:     250000,
		CategoryID: "cat-1",
	})
	require.NoError(t, err)
}

func TestInitiateRejectsUnassignedBill(t *testing.T) {
	fx := newPaymentFixture(t)
	user, _ := fx.seedPayer(t, 250000, true)

	_, err := fx.svc.Initiate(context.Background(), user.ID, models.InitiatePaymentRequest{
		BillID:     "someone-elses-bill",
		Amount:     1000,
		CategoryID: "cat-1",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestVerifySettlesPaymentAndInvalidatesDashboards(t *testing.T) {
	fx := newPaymentFixture(t)
	user, billID := fx.seedPayer(t, 250000, true)

	resp, err := fx.svc.Initiate(context.Background(), user.ID, models.InitiatePaymentRequest{
		BillID:     billID,
		Amount:     100000,
		CategoryID: "cat-1",
	})
	require.NoError(t, err)

	payment, err := fx.svc.Verify(context.Background(), resp.Reference)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentStatusPaid, payment.Status)

	assert.Equal(t, []string{user.ID}, fx.invalidator.studentCalls)
	assert.Equal(t, 1, fx.invalidator.adminCalls)
}

func TestVerifyMapsGatewayFailures(t *testing.T) {
	fx := newPaymentFixture(t)
	user, billID := fx.seedPayer(t, 250000, true)
	fx.gateway.verifyStatus = "abandoned"

	resp, err := fx.svc.Initiate(context.Background(), user.ID, models.InitiatePaymentRequest{
		BillID:     billID,
		Amount:     100000,
		CategoryID: "cat-1",
	})
	require.NoError(t, err)

	payment, err := fx.svc.Verify(context.Background(), resp.Reference)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentStatusFailed, payment.Status)
}

func TestVerifyIsIdempotentOnceSettled(t *testing.T) {
	fx := newPaymentFixture(t)
	user, billID := fx.seedPayer(t, 250000, true)

	resp, err := fx.svc.Initiate(context.Background(), user.ID, models.InitiatePaymentRequest{
		BillID:     billID,
		Amount:     100000,
		CategoryID: "cat-1",
	})
	require.NoError(t, err)

	_, err = fx.svc.Verify(context.Background(), resp.Reference)
	require.NoError(t, err)

	// Second verification must not hit the gateway again.
	fx.gateway.verifyErr = assert.AnError
	payment, err := fx.svc.Verify(context.Background(), resp.Reference)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentStatusPaid, payment.Status)
	assert.Equal(t, 1, fx.invalidator.adminCalls)
}

func TestVerifyLeavesProcessingPaymentsPending(t *testing.T) {
	fx := newPaymentFixture(t)
	user, billID := fx.seedPayer(t, 250000, true)
	fx.gateway.verifyStatus = "ongoing"

	resp, err := fx.svc.Initiate(context.Background(), user.ID, models.InitiatePaymentRequest{
		BillID:     billID,
		Amount:     100000,
		CategoryID: "cat-1",
	})
	require.NoError(t, err)

	payment, err := fx.svc.Verify(context.Background(), resp.Reference)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentStatusPending, payment.Status)
	assert.Empty(t, fx.invalidator.studentCalls)
}

func TestReceiptRequiresSettledPayment(t *testing.T) {
	fx := newPaymentFixture(t)
	user, billID := fx.seedPayer(t, 250000, true)

	resp, err := fx.svc.Initiate(context.Background(), user.ID, models.InitiatePaymentRequest{
		BillID:     billID,
		Amount:     100000,
		CategoryID: "cat-1",
	})
	require.NoError(t, err)
	pending := fx.payments.byRef[resp.Reference]

	_, _, err = fx.svc.Receipt(context.Background(), pending.ID)
	require.Error(t, err, "pending payments have no receipt")

	_, err = fx.svc.Verify(context.Background(), resp.Reference)
	require.NoError(t, err)

	payload, payment, err := fx.svc.Receipt(context.Background(), pending.ID)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentStatusPaid, payment.Status)
	assert.NotEmpty(t, payload)
}
