package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/fms-portal-api/internal/models"
	appErrors "github.com/noah-isme/fms-portal-api/pkg/errors"
)

type billRepository interface {
	FindByID(ctx context.Context, id string) (*models.Bill, error)
	List(ctx context.Context, filter models.BillFilter) ([]models.Bill, int, error)
	Create(ctx context.Context, bill *models.Bill) error
	Update(ctx context.Context, bill *models.Bill) error
	Delete(ctx context.Context, id string) error
}

type dashboardSweeper interface {
	InvalidateAllStudents(ctx context.Context)
	InvalidateAdmin(ctx context.Context)
}

// BillRequest creates or updates a bill.
type BillRequest struct {
	Name                 string    `json:"name" validate:"required"`
	AmountDue            int64     `json:"amount_due" validate:"required,gt=0"`
	DueDate              time.Time `json:"due_date" validate:"required"`
	InstallmentSupported bool      `json:"installment_supported"`
	MaxInstallments      int       `json:"max_installments" validate:"omitempty,gte=0,lte=12"`
	BillTypeID           string    `json:"bill_type_id" validate:"required"`
}

// BillService manages bills levied against students.
type BillService struct {
	repo       billRepository
	billTypes  billTypeRepository
	dashboards dashboardSweeper
	validator  *validator.Validate
	logger     *zap.Logger
}

// NewBillService constructs a BillService instance.
func NewBillService(repo billRepository, billTypes billTypeRepository, dashboards dashboardSweeper, validate *validator.Validate, logger *zap.Logger) *BillService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &BillService{repo: repo, billTypes: billTypes, dashboards: dashboards, validator: validate, logger: logger}
}

// List returns bills matching the filter.
func (s *BillService) List(ctx context.Context, filter models.BillFilter) ([]models.Bill, *models.Pagination, error) {
	bills, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list bills")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	return bills, &models.Pagination{Page: page, Count: len(bills), Total: total}, nil
}

// Get returns one bill.
func (s *BillService) Get(ctx context.Context, id string) (*models.Bill, error) {
	bill, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "bill not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load bill")
	}
	return bill, nil
}

// Create inserts a new bill after checking the bill type exists.
func (s *BillService) Create(ctx context.Context, req BillRequest) (*models.Bill, error) {
	if err := s.validateRequest(ctx, req); err != nil {
		return nil, err
	}

	bill := &models.Bill{
		Name:                 req.Name,
		AmountDue:            req.AmountDue,
		DueDate:              req.DueDate,
		InstallmentSupported: req.InstallmentSupported,
		MaxInstallments:      req.MaxInstallments,
		BillTypeID:           req.BillTypeID,
	}
	if err := s.repo.Create(ctx, bill); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create bill")
	}
	s.invalidateDashboards(ctx)
	return s.Get(ctx, bill.ID)
}

// Update patches a bill.
func (s *BillService) Update(ctx context.Context, id string, req BillRequest) (*models.Bill, error) {
	if err := s.validateRequest(ctx, req); err != nil {
		return nil, err
	}

	bill, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	bill.Name = req.Name
	bill.AmountDue = req.AmountDue
	bill.DueDate = req.DueDate
	bill.InstallmentSupported = req.InstallmentSupported
	bill.MaxInstallments = req.MaxInstallments
	bill.BillTypeID = req.BillTypeID

	if err := s.repo.Update(ctx, bill); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update bill")
	}
	s.invalidateDashboards(ctx)
	return s.Get(ctx, id)
}

// Delete removes a bill.
func (s *BillService) Delete(ctx context.Context, id string) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete bill")
	}
	s.invalidateDashboards(ctx)
	return nil
}

// Bill amounts feed every assigned student's remaining balance, so any
// bill mutation sweeps the cached dashboards.
func (s *BillService) invalidateDashboards(ctx context.Context) {
	if s.dashboards == nil {
		return
	}
	s.dashboards.InvalidateAllStudents(ctx)
	s.dashboards.InvalidateAdmin(ctx)
}

func (s *BillService) validateRequest(ctx context.Context, req BillRequest) error {
	if err := s.validator.Struct(req); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid bill payload")
	}
	if req.InstallmentSupported && req.MaxInstallments < 2 {
		return appErrors.Clone(appErrors.ErrValidation, "installment bills need at least two installments")
	}

	if _, err := s.billTypes.FindByID(ctx, req.BillTypeID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrValidation, "bill type does not exist")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load bill type")
	}
	return nil
}
