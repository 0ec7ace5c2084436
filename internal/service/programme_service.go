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

type programmeRepository interface {
	FindByID(ctx context.Context, id string) (*models.Programme, error)
	List(ctx context.Context, search string, page, pageSize int) ([]models.Programme, int, error)
	Create(ctx context.Context, programme *models.Programme) error
	Update(ctx context.Context, programme *models.Programme) error
	Delete(ctx context.Context, id string) error
}

// ProgrammeRequest creates or updates a programme.
type ProgrammeRequest struct {
	Name        string `json:"name" validate:"required"`
	Description string `json:"description"`
}

// ProgrammeService manages academic programmes.
type ProgrammeService struct {
	repo      programmeRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewProgrammeService constructs a ProgrammeService instance.
func NewProgrammeService(repo programmeRepository, validate *validator.Validate, logger *zap.Logger) *ProgrammeService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &ProgrammeService{repo: repo, validator: validate, logger: logger}
}

// List returns programmes matching the search.
func (s *ProgrammeService) List(ctx context.Context, search string, page, pageSize int) ([]models.Programme, *models.Pagination, error) {
	programmes, total, err := s.repo.List(ctx, search, page, pageSize)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list programmes")
	}
	if page < 1 {
		page = 1
	}
	return programmes, &models.Pagination{Page: page, Count: len(programmes), Total: total}, nil
}

// Get returns one programme.
func (s *ProgrammeService) Get(ctx context.Context, id string) (*models.Programme, error) {
	programme, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "programme not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load programme")
	}
	return programme, nil
}

// Create inserts a new programme.
func (s *ProgrammeService) Create(ctx context.Context, req ProgrammeRequest) (*models.Programme, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid programme payload")
	}

	programme := &models.Programme{Name: req.Name, Description: req.Description}
	if err := s.repo.Create(ctx, programme); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create programme")
	}
	return programme, nil
}

// Update patches a programme.
func (s *ProgrammeService) Update(ctx context.Context, id string, req ProgrammeRequest) (*models.Programme, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid programme payload")
	}

	programme, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	programme.Name = req.Name
	programme.Description = req.Description
	if err := s.repo.Update(ctx, programme); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update programme")
	}
	return programme, nil
}

// Delete removes a programme.
func (s *ProgrammeService) Delete(ctx context.Context, id string) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete programme")
	}
	return nil
}
