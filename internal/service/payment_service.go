package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/fms-portal-api/internal/models"
	appErrors "github.com/noah-isme/fms-portal-api/pkg/errors"
	"github.com/noah-isme/fms-portal-api/pkg/export"
	"github.com/noah-isme/fms-portal-api/pkg/paystack"
)

type paymentRepository interface {
	FindByID(ctx context.Context, id string) (*models.Payment, error)
	FindByReference(ctx context.Context, reference string) (*models.Payment, error)
	List(ctx context.Context, filter models.PaymentFilter) ([]models.Payment, int, error)
	Create(ctx context.Context, payment *models.Payment, categoryID string) error
	UpdateStatusByReference(ctx context.Context, reference, status string) error
	FindCategoryByID(ctx context.Context, id string) (*models.PaymentCategory, error)
	ListCategories(ctx context.Context, page, pageSize int) ([]models.PaymentCategory, int, error)
	CreateCategory(ctx context.Context, category *models.PaymentCategory) error
	UpdateCategory(ctx context.Context, category *models.PaymentCategory) error
	DeleteCategory(ctx context.Context, id string) error
}

type paymentGateway interface {
	Initialize(ctx context.Context, req paystack.InitializeRequest) (*paystack.Transaction, error)
	Verify(ctx context.Context, reference string) (*paystack.VerifyResult, error)
}

type dashboardInvalidator interface {
	InvalidateStudent(ctx context.Context, userID string)
	InvalidateAdmin(ctx context.Context)
}

type receiptRenderer interface {
	RenderReceipt(receipt export.Receipt) ([]byte, error)
}

type auditWriter interface {
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
	FindByID(ctx context.Context, id string) (*models.User, error)
}

// PaymentCategoryRequest creates or updates a payment category.
type PaymentCategoryRequest struct {
	Name        string `json:"name" validate:"required"`
	Description string `json:"description"`
}

// PaymentServiceConfig tunes gateway behaviour.
type PaymentServiceConfig struct {
	CallbackURL string
}

// PaymentService manages payments through the hosted checkout gateway.
type PaymentService struct {
	payments   paymentRepository
	users      auditWriter
	bills      studentBillRepository
	gateway    paymentGateway
	dashboards dashboardInvalidator
	metrics    *MetricsService
	pdf        receiptRenderer
	validator  *validator.Validate
	logger     *zap.Logger
	cfg        PaymentServiceConfig
}

// PaymentServiceParams groups constructor dependencies.
type PaymentServiceParams struct {
	Payments   paymentRepository
	Users      auditWriter
	Bills      studentBillRepository
	Gateway    paymentGateway
	Dashboards dashboardInvalidator
	Metrics    *MetricsService
	PDF        receiptRenderer
	Validator  *validator.Validate
	Logger     *zap.Logger
	Config     PaymentServiceConfig
}

// NewPaymentService constructs a PaymentService instance.
func NewPaymentService(params PaymentServiceParams) *PaymentService {
	logger := params.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	validate := params.Validator
	if validate == nil {
		validate = validator.New()
	}
	pdf := params.PDF
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	return &PaymentService{
		payments:   params.Payments,
		users:      params.Users,
		bills:      params.Bills,
		gateway:    params.Gateway,
		dashboards: params.Dashboards,
		metrics:    params.Metrics,
		pdf:        pdf,
		validator:  validate,
		logger:     logger,
		cfg:        params.Config,
	}
}

// List returns payments matching the filter.
func (s *PaymentService) List(ctx context.Context, filter models.PaymentFilter) ([]models.Payment, *models.Pagination, error) {
	payments, total, err := s.payments.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list payments")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	return payments, &models.Pagination{Page: page, Count: len(payments), Total: total}, nil
}

// Get returns one payment.
func (s *PaymentService) Get(ctx context.Context, id string) (*models.Payment, error) {
	payment, err := s.payments.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "payment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load payment")
	}
	return payment, nil
}

// Initiate opens a hosted checkout session for a bill. The payment is
// recorded as pending until the gateway confirms the outcome.
func (s *PaymentService) Initiate(ctx context.Context, payerID string, req models.InitiatePaymentRequest) (*models.InitiatePaymentResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payment payload")
	}

	payer, err := s.users.FindByID(ctx, payerID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "payer not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load payer")
	}

	if _, err := s.payments.FindCategoryByID(ctx, req.CategoryID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrValidation, "payment category does not exist")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load payment category")
	}

	ledger, err := s.bills.ListForUser(ctx, payerID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load bill ledger")
	}

	var target *models.UserBill
	for i := range ledger {
		if ledger[i].ID == req.BillID {
			target = &ledger[i]
			break
		}
	}
	if target == nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "bill is not assigned to this account")
	}
	if target.RemainingBalance <= 0 {
		return nil, appErrors.Clone(appErrors.ErrBillSettled, "")
	}
	if req.Amount > target.RemainingBalance {
		return nil, appErrors.Clone(appErrors.ErrValidation, "amount exceeds remaining balance")
	}
	if !target.InstallmentSupported && req.Amount != target.RemainingBalance {
		return nil, appErrors.Clone(appErrors.ErrValidation, "bill must be settled in full")
	}

	reference := newPaymentReference()
	tx, err := s.gateway.Initialize(ctx, paystack.InitializeRequest{
		Email:       payer.Email,
		AmountKobo:  req.Amount,
		Reference:   reference,
		CallbackURL: s.cfg.CallbackURL,
	})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrPaymentGateway.Code, appErrors.ErrPaymentGateway.Status, "payment gateway request failed")
	}

	payment := &models.Payment{
		BillID:           req.BillID,
		PayerID:          payerID,
		PaymentReference: tx.Reference,
		Status:           models.PaymentStatusPending,
		PaymentNote:      req.PaymentNote,
		Amount:           req.Amount,
	}
	if err := s.payments.Create(ctx, payment, req.CategoryID); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record payment")
	}

	if err := s.users.CreateAuditLog(ctx, &models.AuditLog{
		UserID:     &payerID,
		Action:     models.AuditActionPaymentInit,
		Resource:   "payments",
		ResourceID: &payment.ID,
		NewValues:  []byte(fmt.Sprintf(`{"reference":%q,"amount":%d}`, tx.Reference, req.Amount)),
	}); err != nil {
		s.logger.Warn("failed to record payment audit log", zap.Error(err))
	}

	return &models.InitiatePaymentResponse{
		AuthorizationURL: tx.AuthorizationURL,
		AccessCode:       tx.AccessCode,
		Reference:        tx.Reference,
	}, nil
}

// Verify reconciles a pending payment against the gateway. The cached
// dashboards of the payer are dropped so the next read reflects the
// settled amount.
func (s *PaymentService) Verify(ctx context.Context, reference string) (*models.Payment, error) {
	payment, err := s.payments.FindByReference(ctx, reference)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "payment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load payment")
	}

	if payment.Status != models.PaymentStatusPending {
		return payment, nil
	}

	result, err := s.gateway.Verify(ctx, reference)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrPaymentGateway.Code, appErrors.ErrPaymentGateway.Status, "payment gateway request failed")
	}

	var status string
	switch strings.ToLower(result.Status) {
	case "success":
		status = models.PaymentStatusPaid
	case "failed", "abandoned", "reversed":
		status = models.PaymentStatusFailed
	default:
		// Still processing on the gateway side.
		return payment, nil
	}

	if err := s.payments.UpdateStatusByReference(ctx, reference, status); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update payment status")
	}
	payment.Status = status

	s.metrics.RecordPayment(status)
	if s.dashboards != nil {
		s.dashboards.InvalidateStudent(ctx, payment.PayerID)
		s.dashboards.InvalidateAdmin(ctx)
	}

	return payment, nil
}

// Receipt renders a PDF receipt for a settled payment.
func (s *PaymentService) Receipt(ctx context.Context, id string) ([]byte, *models.Payment, error) {
	payment, err := s.Get(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	if payment.Status != models.PaymentStatusPaid {
		return nil, nil, appErrors.Clone(appErrors.ErrValidation, "receipt available for settled payments only")
	}

	receipt := export.Receipt{
		Reference: payment.PaymentReference,
		Payer:     payment.Payer,
		BillName:  payment.BillName,
		Amount:    formatAmount(payment.Amount),
		Status:    payment.Status,
		PaidAt:    payment.UpdatedAt.Format(time.RFC1123),
		Lines: []export.ReceiptLine{
			{Label: "Payment type", Value: payment.PaymentType},
			{Label: "Note", Value: payment.PaymentNote},
		},
	}

	payload, err := s.pdf.RenderReceipt(receipt)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render receipt")
	}
	return payload, payment, nil
}

// ListCategories returns payment categories.
func (s *PaymentService) ListCategories(ctx context.Context, page, pageSize int) ([]models.PaymentCategory, *models.Pagination, error) {
	categories, total, err := s.payments.ListCategories(ctx, page, pageSize)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list payment categories")
	}
	if page < 1 {
		page = 1
	}
	return categories, &models.Pagination{Page: page, Count: len(categories), Total: total}, nil
}

// GetCategory returns one payment category.
func (s *PaymentService) GetCategory(ctx context.Context, id string) (*models.PaymentCategory, error) {
	category, err := s.payments.FindCategoryByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "payment category not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load payment category")
	}
	return category, nil
}

// CreateCategory inserts a new payment category.
func (s *PaymentService) CreateCategory(ctx context.Context, req PaymentCategoryRequest) (*models.PaymentCategory, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid category payload")
	}
	category := &models.PaymentCategory{Name: req.Name, Description: req.Description}
	if err := s.payments.CreateCategory(ctx, category); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create payment category")
	}
	return category, nil
}

// UpdateCategory patches a payment category.
func (s *PaymentService) UpdateCategory(ctx context.Context, id string, req PaymentCategoryRequest) (*models.PaymentCategory, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid category payload")
	}

	category, err := s.payments.FindCategoryByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "payment category not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load payment category")
	}

	category.Name = req.Name
	category.Description = req.Description
	if err := s.payments.UpdateCategory(ctx, category); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update payment category")
	}
	return category, nil
}

// DeleteCategory removes a payment category.
func (s *PaymentService) DeleteCategory(ctx context.Context, id string) error {
	if _, err := s.payments.FindCategoryByID(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "payment category not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load payment category")
	}
	if err := s.payments.DeleteCategory(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete payment category")
	}
	return nil
}

func newPaymentReference() string {
	return "FMS-" + strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:16])
}

func formatAmount(kobo int64) string {
	return fmt.Sprintf("GHS %d.%02d", kobo/100, kobo%100)
}
