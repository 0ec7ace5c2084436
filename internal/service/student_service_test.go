package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/fms-portal-api/internal/models"
	appErrors "github.com/noah-isme/fms-portal-api/pkg/errors"
)

type fakeStudentDirectory struct {
	users     map[string]*models.User
	auditLogs []*models.AuditLog
}

func newFakeStudentDirectory() *fakeStudentDirectory {
	return &fakeStudentDirectory{users: make(map[string]*models.User)}
}

func (f *fakeStudentDirectory) FindByEmail(_ context.Context, email string) (*models.User, error) {
	for _, user := range f.users {
		if user.Email == email {
			return user, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (f *fakeStudentDirectory) FindByID(_ context.Context, id string) (*models.User, error) {
	user, ok := f.users[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return user, nil
}

func (f *fakeStudentDirectory) List(_ context.Context, _ models.UserFilter) ([]models.User, int, error) {
	out := make([]models.User, 0, len(f.users))
	for _, user := range f.users {
		out = append(out, *user)
	}
	return out, len(out), nil
}

func (f *fakeStudentDirectory) Create(_ context.Context, user *models.User) error {
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	f.users[user.ID] = user
	return nil
}

func (f *fakeStudentDirectory) Update(_ context.Context, user *models.User) error {
	if _, ok := f.users[user.ID]; !ok {
		return sql.ErrNoRows
	}
	f.users[user.ID] = user
	return nil
}

func (f *fakeStudentDirectory) Delete(_ context.Context, id string) error {
	user, ok := f.users[id]
	if !ok {
		return sql.ErrNoRows
	}
	user.Active = false
	return nil
}

func (f *fakeStudentDirectory) UpdatePermissions(_ context.Context, _ string, _ models.PermissionSet) error {
	return nil
}

func (f *fakeStudentDirectory) RevokeUserRefreshTokens(_ context.Context, _ string) error {
	return nil
}

func (f *fakeStudentDirectory) CreateAuditLog(_ context.Context, log *models.AuditLog) error {
	f.auditLogs = append(f.auditLogs, log)
	return nil
}

type studentFixture struct {
	svc        *StudentService
	directory  *fakeStudentDirectory
	ledger     *fakeLedger
	dashboards *fakeInvalidator
}

func newStudentFixture(t *testing.T) *studentFixture {
	t.Helper()
	directory := newFakeStudentDirectory()
	ledger := &fakeLedger{bills: make(map[string][]models.UserBill)}
	dashboards := &fakeInvalidator{}
	return &studentFixture{
		svc:        NewStudentService(directory, ledger, nil, nil, dashboards, nil, nil),
		directory:  directory,
		ledger:     ledger,
		dashboards: dashboards,
	}
}

func (fx *studentFixture) seedStudent(t *testing.T) *models.User {
	t.Helper()
	user := &models.User{
		ID:      uuid.NewString(),
		Email:   "kofi@student.example.com",
		Role:    models.RoleStudent,
		Details: []byte(`{"first_name":"Kofi","last_name":"Asante"}`),
		Active:  true,
	}
	fx.directory.users[user.ID] = user
	return user
}

func TestAssignBillInvalidatesStudentDashboard(t *testing.T) {
	fx := newStudentFixture(t)
	student := fx.seedStudent(t)

	err := fx.svc.AssignBill(context.Background(), student.ID, "bill-1", "admin-1")
	require.NoError(t, err)

	// The assignment changes this student's balance and the admin totals.
	assert.Equal(t, []string{student.ID}, fx.dashboards.studentCalls)
	assert.Equal(t, 1, fx.dashboards.adminCalls)
	require.Len(t, fx.directory.auditLogs, 1)
	assert.Equal(t, models.AuditActionUserUpdate, fx.directory.auditLogs[0].Action)
}

func TestAssignBillToUnknownStudentLeavesDashboardsAlone(t *testing.T) {
	fx := newStudentFixture(t)

	err := fx.svc.AssignBill(context.Background(), "missing", "bill-1", "admin-1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)

	assert.Empty(t, fx.dashboards.studentCalls)
	assert.Zero(t, fx.dashboards.adminCalls)
}
