package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/fms-portal-api/internal/models"
	appErrors "github.com/noah-isme/fms-portal-api/pkg/errors"
	"github.com/noah-isme/fms-portal-api/pkg/storage"
)

type financialAidRepository interface {
	FindTypeByID(ctx context.Context, id string) (*models.FinancialAidType, error)
	ListTypes(ctx context.Context, page, pageSize int) ([]models.FinancialAidType, int, error)
	CreateType(ctx context.Context, aidType *models.FinancialAidType) error
	UpdateType(ctx context.Context, aidType *models.FinancialAidType) error
	DeleteType(ctx context.Context, id string) error
	FindDiscountByID(ctx context.Context, id string) (*models.FinancialAidDiscount, error)
	ListDiscounts(ctx context.Context, page, pageSize int) ([]models.FinancialAidDiscount, int, error)
	ListDiscountsForAidType(ctx context.Context, aidTypeID string) ([]models.FinancialAidDiscount, error)
	CreateDiscount(ctx context.Context, discount *models.FinancialAidDiscount) error
	UpdateDiscount(ctx context.Context, discount *models.FinancialAidDiscount) error
	DeleteDiscount(ctx context.Context, id string) error
	FindApplicationByID(ctx context.Context, id string) (*models.FinancialAidApplication, error)
	ListApplications(ctx context.Context, filter models.AidApplicationFilter) ([]models.FinancialAidApplication, int, error)
	FindOpenApplication(ctx context.Context, applicantID, aidTypeID string) (*models.FinancialAidApplication, error)
	CreateApplication(ctx context.Context, application *models.FinancialAidApplication) error
	UpdateApplicationStatus(ctx context.Context, id, status string, startDate, endDate *time.Time) error
}

// AidTypeRequest creates or updates a financial-aid type.
type AidTypeRequest struct {
	Name        string `json:"name" validate:"required"`
	Description string `json:"description"`
}

// AidDiscountRequest creates or updates a financial-aid discount.
type AidDiscountRequest struct {
	Name       string `json:"name" validate:"required"`
	Amount     int64  `json:"amount" validate:"required,gt=0"`
	AidTypeID  string `json:"aid_type_id" validate:"required"`
	BillTypeID string `json:"bill_type_id" validate:"required"`
}

// ApplyRequest is a student's aid application. Documents arrive as
// multipart uploads alongside the form fields.
type ApplyRequest struct {
	AidTypeID           string `form:"type" validate:"required"`
	HouseholdIncome     int64  `form:"household_income" validate:"required,gte=0"`
	ReceivedPreviousAid bool   `form:"has_received_previous_financial_aid"`
}

// ApplicationDocument is one uploaded supporting file.
type ApplicationDocument struct {
	Kind     string
	Filename string
	Content  io.Reader
}

// Supported document kinds.
const (
	DocBankStatement        = "bank_statement"
	DocCoverLetter          = "cover_letter"
	DocRecommendationLetter = "letter_of_recommendation"
)

// AidDecisionRequest approves or rejects an application.
type AidDecisionRequest struct {
	Status    string     `json:"status" validate:"required,oneof=approved rejected"`
	StartDate *time.Time `json:"start_date,omitempty"`
	EndDate   *time.Time `json:"end_date,omitempty"`
}

type documentSaver interface {
	SaveStream(filename string, r io.Reader) (string, error)
}

// FinancialAidService manages aid types, discounts and applications.
type FinancialAidService struct {
	repo       financialAidRepository
	users      auditWriter
	billTypes  billTypeRepository
	documents  documentSaver
	signer     *storage.SignedURLSigner
	dashboards dashboardInvalidator
	validator  *validator.Validate
	logger     *zap.Logger
}

// FinancialAidServiceParams groups constructor dependencies.
type FinancialAidServiceParams struct {
	Repo       financialAidRepository
	Users      auditWriter
	BillTypes  billTypeRepository
	Documents  documentSaver
	Signer     *storage.SignedURLSigner
	Dashboards dashboardInvalidator
	Validator  *validator.Validate
	Logger     *zap.Logger
}

// NewFinancialAidService constructs a FinancialAidService instance.
func NewFinancialAidService(params FinancialAidServiceParams) *FinancialAidService {
	logger := params.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	validate := params.Validator
	if validate == nil {
		validate = validator.New()
	}
	return &FinancialAidService{
		repo:       params.Repo,
		users:      params.Users,
		billTypes:  params.BillTypes,
		documents:  params.Documents,
		signer:     params.Signer,
		dashboards: params.Dashboards,
		validator:  validate,
		logger:     logger,
	}
}

// ListTypes returns financial-aid types.
func (s *FinancialAidService) ListTypes(ctx context.Context, page, pageSize int) ([]models.FinancialAidType, *models.Pagination, error) {
	aidTypes, total, err := s.repo.ListTypes(ctx, page, pageSize)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list aid types")
	}
	if page < 1 {
		page = 1
	}
	return aidTypes, &models.Pagination{Page: page, Count: len(aidTypes), Total: total}, nil
}

// GetType returns one aid type.
func (s *FinancialAidService) GetType(ctx context.Context, id string) (*models.FinancialAidType, error) {
	aidType, err := s.repo.FindTypeByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "aid type not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load aid type")
	}
	return aidType, nil
}

// CreateType inserts a new aid type.
func (s *FinancialAidService) CreateType(ctx context.Context, req AidTypeRequest) (*models.FinancialAidType, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid aid type payload")
	}
	aidType := &models.FinancialAidType{Name: req.Name, Description: req.Description}
	if err := s.repo.CreateType(ctx, aidType); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create aid type")
	}
	return aidType, nil
}

// UpdateType patches an aid type.
func (s *FinancialAidService) UpdateType(ctx context.Context, id string, req AidTypeRequest) (*models.FinancialAidType, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid aid type payload")
	}

	aidType, err := s.repo.FindTypeByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "aid type not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load aid type")
	}

	aidType.Name = req.Name
	aidType.Description = req.Description
	if err := s.repo.UpdateType(ctx, aidType); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update aid type")
	}
	return aidType, nil
}

// DeleteType removes an aid type.
func (s *FinancialAidService) DeleteType(ctx context.Context, id string) error {
	if _, err := s.repo.FindTypeByID(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "aid type not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load aid type")
	}
	if err := s.repo.DeleteType(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete aid type")
	}
	return nil
}

// ListDiscounts returns financial-aid discounts.
func (s *FinancialAidService) ListDiscounts(ctx context.Context, page, pageSize int) ([]models.FinancialAidDiscount, *models.Pagination, error) {
	discounts, total, err := s.repo.ListDiscounts(ctx, page, pageSize)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list aid discounts")
	}
	if page < 1 {
		page = 1
	}
	return discounts, &models.Pagination{Page: page, Count: len(discounts), Total: total}, nil
}

// GetDiscount returns one aid discount.
func (s *FinancialAidService) GetDiscount(ctx context.Context, id string) (*models.FinancialAidDiscount, error) {
	discount, err := s.repo.FindDiscountByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "aid discount not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load aid discount")
	}
	return discount, nil
}

// CreateDiscount inserts a new aid discount after checking references.
func (s *FinancialAidService) CreateDiscount(ctx context.Context, req AidDiscountRequest) (*models.FinancialAidDiscount, error) {
	if err := s.validateDiscount(ctx, req); err != nil {
		return nil, err
	}

	discount := &models.FinancialAidDiscount{
		Name:       req.Name,
		Amount:     req.Amount,
		AidTypeID:  req.AidTypeID,
		BillTypeID: req.BillTypeID,
	}
	if err := s.repo.CreateDiscount(ctx, discount); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create aid discount")
	}

	// Discounts change computed balances immediately.
	if s.dashboards != nil {
		s.dashboards.InvalidateAdmin(ctx)
	}
	return discount, nil
}

// UpdateDiscount patches an aid discount.
func (s *FinancialAidService) UpdateDiscount(ctx context.Context, id string, req AidDiscountRequest) (*models.FinancialAidDiscount, error) {
	if err := s.validateDiscount(ctx, req); err != nil {
		return nil, err
	}
	if _, err := s.GetDiscount(ctx, id); err != nil {
		return nil, err
	}

	discount := &models.FinancialAidDiscount{
		ID:         id,
		Name:       req.Name,
		Amount:     req.Amount,
		AidTypeID:  req.AidTypeID,
		BillTypeID: req.BillTypeID,
	}
	if err := s.repo.UpdateDiscount(ctx, discount); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update aid discount")
	}
	if s.dashboards != nil {
		s.dashboards.InvalidateAdmin(ctx)
	}
	return discount, nil
}

// DeleteDiscount removes an aid discount.
func (s *FinancialAidService) DeleteDiscount(ctx context.Context, id string) error {
	if _, err := s.GetDiscount(ctx, id); err != nil {
		return err
	}
	if err := s.repo.DeleteDiscount(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete aid discount")
	}
	if s.dashboards != nil {
		s.dashboards.InvalidateAdmin(ctx)
	}
	return nil
}

// ListApplications returns applications matching the filter.
func (s *FinancialAidService) ListApplications(ctx context.Context, filter models.AidApplicationFilter) ([]models.FinancialAidApplication, *models.Pagination, error) {
	applications, total, err := s.repo.ListApplications(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list applications")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	return applications, &models.Pagination{Page: page, Count: len(applications), Total: total}, nil
}

// GetApplication returns one application.
func (s *FinancialAidService) GetApplication(ctx context.Context, id string) (*models.FinancialAidApplication, error) {
	application, err := s.repo.FindApplicationByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "application not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load application")
	}
	return application, nil
}

// Apply files a new application with its supporting documents. One open
// application per aid type is allowed at a time.
func (s *FinancialAidService) Apply(ctx context.Context, applicantID string, req ApplyRequest, documents []ApplicationDocument) (*models.FinancialAidApplication, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid application payload")
	}

	if _, err := s.repo.FindTypeByID(ctx, req.AidTypeID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrValidation, "aid type does not exist")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load aid type")
	}

	if _, err := s.repo.FindOpenApplication(ctx, applicantID, req.AidTypeID); err == nil {
		return nil, appErrors.Clone(appErrors.ErrConflict, "an application for this aid type is already open")
	} else if !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check open applications")
	}

	application := &models.FinancialAidApplication{
		ID:                  uuid.NewString(),
		ApplicantID:         applicantID,
		HouseholdIncome:     req.HouseholdIncome,
		ReceivedPreviousAid: req.ReceivedPreviousAid,
		Status:              models.AidStatusPending,
		AidTypeID:           req.AidTypeID,
	}

	for _, doc := range documents {
		url, err := s.storeDocument(application.ID, doc)
		if err != nil {
			return nil, err
		}
		switch doc.Kind {
		case DocBankStatement:
			application.BankStatementURL = url
		case DocCoverLetter:
			application.CoverLetterURL = url
		case DocRecommendationLetter:
			application.RecommendationLetterURL = url
		default:
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown document kind %q", doc.Kind))
		}
	}

	if application.BankStatementURL == "" || application.CoverLetterURL == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "bank statement and cover letter are required")
	}

	if err := s.repo.CreateApplication(ctx, application); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create application")
	}

	return application, nil
}

// Decide approves or rejects a pending application. Approval makes the
// aid type's discounts effective between the given dates.
func (s *FinancialAidService) Decide(ctx context.Context, id string, req AidDecisionRequest, actorID string) (*models.FinancialAidApplication, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid decision payload")
	}

	application, err := s.GetApplication(ctx, id)
	if err != nil {
		return nil, err
	}
	if application.Status != models.AidStatusPending {
		return nil, appErrors.Clone(appErrors.ErrApplicationClosed, "")
	}

	if req.Status == models.AidStatusApproved {
		if req.StartDate == nil || req.EndDate == nil {
			return nil, appErrors.Clone(appErrors.ErrValidation, "approval requires start and end dates")
		}
		if !req.EndDate.After(*req.StartDate) {
			return nil, appErrors.Clone(appErrors.ErrValidation, "end date must follow start date")
		}
	}

	if err := s.repo.UpdateApplicationStatus(ctx, id, req.Status, req.StartDate, req.EndDate); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record decision")
	}

	application.Status = req.Status
	application.StartDate = req.StartDate
	application.EndDate = req.EndDate

	if err := s.users.CreateAuditLog(ctx, &models.AuditLog{
		UserID:     &actorID,
		Action:     models.AuditActionAidDecision,
		Resource:   "financial-aid-applications",
		ResourceID: &id,
		NewValues:  []byte(fmt.Sprintf(`{"status":%q}`, req.Status)),
	}); err != nil {
		s.logger.Warn("failed to record decision audit log", zap.Error(err))
	}

	// An approved application changes the applicant's balances.
	if s.dashboards != nil {
		s.dashboards.InvalidateStudent(ctx, application.ApplicantID)
		s.dashboards.InvalidateAdmin(ctx)
	}

	return application, nil
}

// MyAid returns the student's approved application with its discounts.
func (s *FinancialAidService) MyAid(ctx context.Context, applicantID string) (*models.MyFinancialAidInfo, error) {
	applications, _, err := s.repo.ListApplications(ctx, models.AidApplicationFilter{
		ApplicantID: applicantID,
		Status:      models.AidStatusApproved,
		PageSize:    1,
	})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load aid info")
	}
	if len(applications) == 0 {
		return nil, nil
	}

	discounts, err := s.repo.ListDiscountsForAidType(ctx, applications[0].AidTypeID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load aid discounts")
	}

	return &models.MyFinancialAidInfo{
		FinancialAidApplication: applications[0],
		Discounts:               discounts,
	}, nil
}

// SignedDocumentURL validates a token and resolves the stored file path.
func (s *FinancialAidService) SignedDocumentURL(token string) (string, error) {
	_, relPath, _, err := s.signer.Parse(token)
	if err != nil {
		return "", appErrors.Clone(appErrors.ErrUnauthorized, "document link is invalid or expired")
	}
	return relPath, nil
}

func (s *FinancialAidService) storeDocument(applicationID string, doc ApplicationDocument) (string, error) {
	ext := filepath.Ext(doc.Filename)
	if ext == "" {
		ext = ".pdf"
	}
	relPath := fmt.Sprintf("financial-aid/%s/%s%s", applicationID, doc.Kind, strings.ToLower(ext))

	if _, err := s.documents.SaveStream(relPath, doc.Content); err != nil {
		return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store document")
	}

	token, _, err := s.signer.Generate(applicationID+":"+doc.Kind, relPath)
	if err != nil {
		return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sign document link")
	}
	return "/documents/" + token, nil
}

func (s *FinancialAidService) validateDiscount(ctx context.Context, req AidDiscountRequest) error {
	if err := s.validator.Struct(req); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid discount payload")
	}
	if _, err := s.repo.FindTypeByID(ctx, req.AidTypeID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrValidation, "aid type does not exist")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load aid type")
	}
	if _, err := s.billTypes.FindByID(ctx, req.BillTypeID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrValidation, "bill type does not exist")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load bill type")
	}
	return nil
}
