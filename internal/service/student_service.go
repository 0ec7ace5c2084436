package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/fms-portal-api/internal/models"
	appErrors "github.com/noah-isme/fms-portal-api/pkg/errors"
)

type studentBillRepository interface {
	ListForUser(ctx context.Context, userID string) ([]models.UserBill, error)
	AssignToUser(ctx context.Context, userID, billID string) error
}

type programmeLookup interface {
	FindByID(ctx context.Context, id string) (*models.Programme, error)
}

// StudentService manages student accounts and their ledgers.
type StudentService struct {
	users      userRepository
	bills      studentBillRepository
	programmes programmeLookup
	sessions   sessionRegistry
	dashboards dashboardInvalidator
	validator  *validator.Validate
	logger     *zap.Logger
}

// NewStudentService constructs a StudentService instance.
func NewStudentService(users userRepository, bills studentBillRepository, programmes programmeLookup, sessions sessionRegistry, dashboards dashboardInvalidator, validate *validator.Validate, logger *zap.Logger) *StudentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &StudentService{
		users:      users,
		bills:      bills,
		programmes: programmes,
		sessions:   sessions,
		dashboards: dashboards,
		validator:  validate,
		logger:     logger,
	}
}

// List returns student accounts matching the filter.
func (s *StudentService) List(ctx context.Context, filter models.UserFilter) ([]models.UserInfo, *models.Pagination, error) {
	role := models.RoleStudent
	filter.Role = &role

	users, total, err := s.users.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list students")
	}

	infos := make([]models.UserInfo, 0, len(users))
	for i := range users {
		info, err := buildUserInfo(&users[i])
		if err != nil {
			return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to decode student details")
		}
		infos = append(infos, *info)
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	return infos, &models.Pagination{Page: page, Count: len(infos), Total: total}, nil
}

// Get returns one student account.
func (s *StudentService) Get(ctx context.Context, id string) (*models.UserInfo, error) {
	user, err := s.findStudent(ctx, id)
	if err != nil {
		return nil, err
	}
	return buildUserInfoOrInternal(user)
}

// Create provisions a student account.
func (s *StudentService) Create(ctx context.Context, req models.CreateStudentRequest, actorID string) (*models.UserInfo, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid student payload")
	}

	if _, err := s.users.FindByEmail(ctx, req.Email); err == nil {
		return nil, appErrors.Clone(appErrors.ErrConflict, "email is already registered")
	} else if !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check email")
	}

	details := models.StudentDetails{
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		MiddleName:  req.MiddleName,
		Gender:      req.Gender,
		PhoneNumber: req.PhoneNumber,
		Nationality: req.Nationality,
		Address:     req.Address,
		ZipCode:     req.ZipCode,
		City:        req.City,
		State:       req.State,
		Country:     req.Country,
		StudentID:   req.StudentID,
		ProgrammeID: req.ProgrammeID,
	}

	if req.ProgrammeID != nil {
		programme, err := s.programmes.FindByID(ctx, *req.ProgrammeID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, appErrors.Clone(appErrors.ErrValidation, "programme does not exist")
			}
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load programme")
		}
		details.Programme = programme.Name
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to hash password")
	}

	encoded, err := json.Marshal(details)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to encode details")
	}

	user := &models.User{
		Email:        req.Email,
		PasswordHash: string(hash),
		Role:         models.RoleStudent,
		Permissions:  models.PermissionSet{},
		Details:      encoded,
		Active:       true,
	}

	if err := s.users.Create(ctx, user); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create student")
	}

	s.audit(ctx, actorID, models.AuditActionUserCreate, user.ID)

	return buildUserInfoOrInternal(user)
}

// Update patches a student profile.
func (s *StudentService) Update(ctx context.Context, id string, req models.UpdateStudentRequest, actorID string) (*models.UserInfo, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid student payload")
	}

	user, err := s.findStudent(ctx, id)
	if err != nil {
		return nil, err
	}

	details, err := user.StudentDetails()
	if err != nil || details == nil {
		details = &models.StudentDetails{}
	}

	applyString := func(dst *string, src *string) {
		if src != nil {
			*dst = *src
		}
	}
	applyString(&details.FirstName, req.FirstName)
	applyString(&details.LastName, req.LastName)
	applyString(&details.MiddleName, req.MiddleName)
	applyString(&details.Gender, req.Gender)
	applyString(&details.PhoneNumber, req.PhoneNumber)
	applyString(&details.Nationality, req.Nationality)
	applyString(&details.Address, req.Address)
	applyString(&details.ZipCode, req.ZipCode)
	applyString(&details.City, req.City)
	applyString(&details.State, req.State)
	applyString(&details.Country, req.Country)

	if req.ProgrammeID != nil {
		programme, err := s.programmes.FindByID(ctx, *req.ProgrammeID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, appErrors.Clone(appErrors.ErrValidation, "programme does not exist")
			}
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load programme")
		}
		details.ProgrammeID = req.ProgrammeID
		details.Programme = programme.Name
	}

	encoded, err := json.Marshal(details)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to encode details")
	}
	user.Details = encoded

	if req.Active != nil {
		user.Active = *req.Active
	}

	if err := s.users.Update(ctx, user); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update student")
	}

	if req.Active != nil && !*req.Active {
		if err := s.users.RevokeUserRefreshTokens(ctx, user.ID); err != nil {
			s.logger.Warn("failed to revoke tokens on deactivation", zap.Error(err))
		}
		if s.sessions != nil {
			if err := s.sessions.Logout(ctx, user.ID); err != nil {
				s.logger.Warn("failed to close session on deactivation", zap.Error(err))
			}
		}
	}

	s.audit(ctx, actorID, models.AuditActionUserUpdate, user.ID)

	return buildUserInfoOrInternal(user)
}

// Deactivate soft deletes a student account and ends its session.
func (s *StudentService) Deactivate(ctx context.Context, id string, actorID string) error {
	user, err := s.findStudent(ctx, id)
	if err != nil {
		return err
	}

	if err := s.users.Delete(ctx, user.ID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to deactivate student")
	}
	if err := s.users.RevokeUserRefreshTokens(ctx, user.ID); err != nil {
		s.logger.Warn("failed to revoke tokens on deactivation", zap.Error(err))
	}
	if s.sessions != nil {
		if err := s.sessions.Logout(ctx, user.ID); err != nil {
			s.logger.Warn("failed to close session on deactivation", zap.Error(err))
		}
	}

	s.audit(ctx, actorID, models.AuditActionUserDelete, user.ID)
	return nil
}

// Bills returns the student's ledger of assigned bills.
func (s *StudentService) Bills(ctx context.Context, userID string) ([]models.UserBill, error) {
	bills, err := s.bills.ListForUser(ctx, userID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list student bills")
	}
	return bills, nil
}

// AssignBill links a bill to a student's ledger.
func (s *StudentService) AssignBill(ctx context.Context, userID, billID string, actorID string) error {
	if _, err := s.findStudent(ctx, userID); err != nil {
		return err
	}
	if err := s.bills.AssignToUser(ctx, userID, billID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to assign bill")
	}
	if s.dashboards != nil {
		s.dashboards.InvalidateStudent(ctx, userID)
		s.dashboards.InvalidateAdmin(ctx)
	}
	s.audit(ctx, actorID, models.AuditActionUserUpdate, userID)
	return nil
}

func (s *StudentService) findStudent(ctx context.Context, id string) (*models.User, error) {
	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	if user.Role != models.RoleStudent {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
	}
	return user, nil
}

func (s *StudentService) audit(ctx context.Context, actorID, action, resourceID string) {
	entry := &models.AuditLog{
		Action:     action,
		Resource:   "students",
		ResourceID: &resourceID,
	}
	if actorID != "" {
		entry.UserID = &actorID
	}
	if err := s.users.CreateAuditLog(ctx, entry); err != nil {
		s.logger.Warn("failed to record audit log", zap.Error(err))
	}
}
