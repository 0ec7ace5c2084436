package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/fms-portal-api/internal/models"
	appErrors "github.com/noah-isme/fms-portal-api/pkg/errors"
)

type billTypeRepository interface {
	FindByID(ctx context.Context, id string) (*models.BillType, error)
	List(ctx context.Context, search string, page, pageSize int) ([]models.BillType, int, error)
	Create(ctx context.Context, billType *models.BillType) error
	Update(ctx context.Context, billType *models.BillType) error
	Delete(ctx context.Context, id string) error
}

// BillTypeRequest creates or updates a bill type.
type BillTypeRequest struct {
	Name        string `json:"name" validate:"required"`
	Description string `json:"description"`
}

// BillTypeService manages bill categories.
type BillTypeService struct {
	repo      billTypeRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewBillTypeService constructs a BillTypeService instance.
func NewBillTypeService(repo billTypeRepository, validate *validator.Validate, logger *zap.Logger) *BillTypeService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &BillTypeService{repo: repo, validator: validate, logger: logger}
}

// List returns bill types matching the search.
func (s *BillTypeService) List(ctx context.Context, search string, page, pageSize int) ([]models.BillType, *models.Pagination, error) {
	billTypes, total, err := s.repo.List(ctx, search, page, pageSize)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list bill types")
	}
	if page < 1 {
		page = 1
	}
	return billTypes, &models.Pagination{Page: page, Count: len(billTypes), Total: total}, nil
}

// Get returns one bill type.
func (s *BillTypeService) Get(ctx context.Context, id string) (*models.BillType, error) {
	billType, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "bill type not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load bill type")
	}
	return billType, nil
}

// Create inserts a new bill type.
func (s *BillTypeService) Create(ctx context.Context, req BillTypeRequest) (*models.BillType, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid bill type payload")
	}

	billType := &models.BillType{Name: req.Name, Description: req.Description}
	if err := s.repo.Create(ctx, billType); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create bill type")
	}
	return billType, nil
}

// Update patches a bill type.
func (s *BillTypeService) Update(ctx context.Context, id string, req BillTypeRequest) (*models.BillType, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid bill type payload")
	}

	billType, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	billType.Name = req.Name
	billType.Description = req.Description
	if err := s.repo.Update(ctx, billType); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update bill type")
	}
	return billType, nil
}

// Delete removes a bill type.
func (s *BillTypeService) Delete(ctx context.Context, id string) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete bill type")
	}
	return nil
}
