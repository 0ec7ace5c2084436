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

type userRepository interface {
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByID(ctx context.Context, id string) (*models.User, error)
	List(ctx context.Context, filter models.UserFilter) ([]models.User, int, error)
	Create(ctx context.Context, user *models.User) error
	Update(ctx context.Context, user *models.User) error
	Delete(ctx context.Context, id string) error
	UpdatePermissions(ctx context.Context, id string, permissions models.PermissionSet) error
	RevokeUserRefreshTokens(ctx context.Context, userID string) error
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
}

// UserService manages admin accounts and shared account operations.
type UserService struct {
	repo      userRepository
	sessions  sessionRegistry
	validator *validator.Validate
	logger    *zap.Logger
}

// NewUserService constructs a UserService instance.
func NewUserService(repo userRepository, sessions sessionRegistry, validate *validator.Validate, logger *zap.Logger) *UserService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &UserService{repo: repo, sessions: sessions, validator: validate, logger: logger}
}

// Profile returns the account behind the given id with decoded details.
func (s *UserService) Profile(ctx context.Context, userID string) (*models.UserInfo, error) {
	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "account not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load account")
	}
	info, err := buildUserInfo(user)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to decode account details")
	}
	return info, nil
}

// ListAdmins returns admin accounts matching the filter.
func (s *UserService) ListAdmins(ctx context.Context, filter models.UserFilter) ([]models.UserInfo, *models.Pagination, error) {
	role := models.RoleAdmin
	filter.Role = &role

	users, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list admins")
	}

	infos := make([]models.UserInfo, 0, len(users))
	for i := range users {
		info, err := buildUserInfo(&users[i])
		if err != nil {
			return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to decode admin details")
		}
		infos = append(infos, *info)
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	return infos, &models.Pagination{Page: page, Count: len(infos), Total: total}, nil
}

// CreateAdmin provisions an admin account with the given permission set.
func (s *UserService) CreateAdmin(ctx context.Context, req models.CreateAdminRequest, actorID string) (*models.UserInfo, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid admin payload")
	}

	if _, err := s.repo.FindByEmail(ctx, req.Email); err == nil {
		return nil, appErrors.Clone(appErrors.ErrConflict, "email is already registered")
	} else if !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check email")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to hash password")
	}

	details, err := json.Marshal(models.AdminDetails{FirstName: req.FirstName, LastName: req.LastName})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to encode details")
	}

	user := &models.User{
		Email:        req.Email,
		PasswordHash: string(hash),
		Role:         models.RoleAdmin,
		Permissions:  models.PermissionSet(req.Permissions),
		Details:      details,
		Active:       true,
	}

	if err := s.repo.Create(ctx, user); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create admin")
	}

	s.audit(ctx, actorID, models.AuditActionUserCreate, "admins", user.ID)

	return buildUserInfoOrInternal(user)
}

// UpdateAdmin patches an admin account's profile and permissions.
func (s *UserService) UpdateAdmin(ctx context.Context, id string, req models.UpdateAdminRequest, actorID string) (*models.UserInfo, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid admin payload")
	}

	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "admin not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load admin")
	}
	if user.Role == models.RoleStudent {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "admin not found")
	}

	details, err := user.AdminDetails()
	if err != nil || details == nil {
		details = &models.AdminDetails{}
	}
	if req.FirstName != nil {
		details.FirstName = *req.FirstName
	}
	if req.LastName != nil {
		details.LastName = *req.LastName
	}
	encoded, err := json.Marshal(details)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to encode details")
	}
	user.Details = encoded

	if req.Permissions != nil {
		user.Permissions = models.PermissionSet(req.Permissions)
	}
	if req.Active != nil {
		user.Active = *req.Active
	}

	if err := s.repo.Update(ctx, user); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update admin")
	}

	// Permission or status changes take effect on the next request, so
	// force re-authentication when either changed.
	if req.Permissions != nil || (req.Active != nil && !*req.Active) {
		if err := s.repo.RevokeUserRefreshTokens(ctx, user.ID); err != nil {
			s.logger.Warn("failed to revoke tokens after permission change", zap.Error(err))
		}
		if s.sessions != nil {
			if err := s.sessions.Logout(ctx, user.ID); err != nil {
				s.logger.Warn("failed to close session after permission change", zap.Error(err))
			}
		}
	}

	s.audit(ctx, actorID, models.AuditActionUserUpdate, "admins", user.ID)

	return buildUserInfoOrInternal(user)
}

// DeactivateAdmin soft deletes an admin account and ends its session.
func (s *UserService) DeactivateAdmin(ctx context.Context, id string, actorID string) error {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "admin not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load admin")
	}
	if user.Role == models.RoleSuperAdmin {
		return appErrors.Clone(appErrors.ErrForbidden, "super-admin accounts cannot be deactivated")
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to deactivate admin")
	}
	if err := s.repo.RevokeUserRefreshTokens(ctx, id); err != nil {
		s.logger.Warn("failed to revoke tokens on deactivation", zap.Error(err))
	}
	if s.sessions != nil {
		if err := s.sessions.Logout(ctx, id); err != nil {
			s.logger.Warn("failed to close session on deactivation", zap.Error(err))
		}
	}

	s.audit(ctx, actorID, models.AuditActionUserDelete, "admins", id)
	return nil
}

func (s *UserService) audit(ctx context.Context, actorID, action, resource, resourceID string) {
	entry := &models.AuditLog{
		Action:     action,
		Resource:   resource,
		ResourceID: &resourceID,
	}
	if actorID != "" {
		entry.UserID = &actorID
	}
	if err := s.repo.CreateAuditLog(ctx, entry); err != nil {
		s.logger.Warn("failed to record audit log", zap.Error(err))
	}
}

func buildUserInfoOrInternal(user *models.User) (*models.UserInfo, error) {
	info, err := buildUserInfo(user)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to decode account details")
	}
	return info, nil
}
