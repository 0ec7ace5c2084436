package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/fms-portal-api/internal/models"
	"github.com/noah-isme/fms-portal-api/internal/session"
	appErrors "github.com/noah-isme/fms-portal-api/pkg/errors"
	"github.com/noah-isme/fms-portal-api/pkg/jobs"
)

type fakeAuthRepo struct {
	usersByEmail  map[string]*models.User
	usersByID     map[string]*models.User
	refreshTokens map[string]*models.RefreshToken
	resetTokens   map[string]*models.PasswordResetToken
	auditLogs     []*models.AuditLog
	lastLogin     map[string]time.Time
	passwords     map[string]string
}

func newFakeAuthRepo() *fakeAuthRepo {
	return &fakeAuthRepo{
		usersByEmail:  map[string]*models.User{},
		usersByID:     map[string]*models.User{},
		refreshTokens: map[string]*models.RefreshToken{},
		resetTokens:   map[string]*models.PasswordResetToken{},
		lastLogin:     map[string]time.Time{},
		passwords:     map[string]string{},
	}
}

func (f *fakeAuthRepo) addUser(user *models.User) {
	f.usersByEmail[user.Email] = user
	f.usersByID[user.ID] = user
}

func (f *fakeAuthRepo) FindByEmail(_ context.Context, email string) (*models.User, error) {
	user, ok := f.usersByEmail[email]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return user, nil
}

func (f *fakeAuthRepo) FindByID(_ context.Context, id string) (*models.User, error) {
	user, ok := f.usersByID[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return user, nil
}

func (f *fakeAuthRepo) UpdateLastLogin(_ context.Context, id string, ts time.Time) error {
	f.lastLogin[id] = ts
	return nil
}

func (f *fakeAuthRepo) UpdatePassword(_ context.Context, id, passwordHash string, _ time.Time) error {
	f.passwords[id] = passwordHash
	return nil
}

func (f *fakeAuthRepo) RevokeUserRefreshTokens(_ context.Context, userID string) error {
	for _, token := range f.refreshTokens {
		if token.UserID == userID {
			token.Revoked = true
		}
	}
	return nil
}

func (f *fakeAuthRepo) CreateRefreshToken(_ context.Context, token *models.RefreshToken) error {
	f.refreshTokens[token.Token] = token
	return nil
}

func (f *fakeAuthRepo) FindRefreshToken(_ context.Context, token string) (*models.RefreshToken, error) {
	stored, ok := f.refreshTokens[token]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return stored, nil
}

func (f *fakeAuthRepo) RevokeRefreshToken(_ context.Context, id string, _ time.Time) error {
	for _, token := range f.refreshTokens {
		if token.ID == id {
			token.Revoked = true
		}
	}
	return nil
}

func (f *fakeAuthRepo) CreatePasswordResetToken(_ context.Context, token *models.PasswordResetToken) error {
	if token.ID == "" {
		token.ID = uuid.NewString()
	}
	f.resetTokens[token.Token] = token
	return nil
}

func (f *fakeAuthRepo) FindPasswordResetToken(_ context.Context, token string) (*models.PasswordResetToken, error) {
	stored, ok := f.resetTokens[token]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return stored, nil
}

func (f *fakeAuthRepo) MarkPasswordResetTokenUsed(_ context.Context, id string, usedAt time.Time) error {
	for _, token := range f.resetTokens {
		if token.ID == id {
			ts := usedAt
			token.UsedAt = &ts
		}
	}
	return nil
}

func (f *fakeAuthRepo) CreateAuditLog(_ context.Context, log *models.AuditLog) error {
	f.auditLogs = append(f.auditLogs, log)
	return nil
}

type fakeSessions struct {
	active map[string]*session.Session
}

func newFakeSessions() *fakeSessions {
	return &fakeSessions{active: map[string]*session.Session{}}
}

func (f *fakeSessions) Login(_ context.Context, sess *session.Session) error {
	f.active[sess.UserID] = sess
	return nil
}

func (f *fakeSessions) Logout(_ context.Context, userID string) error {
	delete(f.active, userID)
	return nil
}

type fakeQueue struct {
	jobs []jobs.Job
}

func (f *fakeQueue) Enqueue(job jobs.Job) error {
	f.jobs = append(f.jobs, job)
	return nil
}

func newAuthFixture(t *testing.T) (*AuthService, *fakeAuthRepo, *fakeSessions, *fakeQueue) {
	t.Helper()
	repo := newFakeAuthRepo()
	sessions := newFakeSessions()
	queue := &fakeQueue{}
	svc := NewAuthService(repo, sessions, queue, nil, nil, AuthConfig{
		AccessTokenSecret:  "test-secret",
		AccessTokenExpiry:  15 * time.Minute,
		RefreshTokenExpiry: 24 * time.Hour,
		ResetTokenExpiry:   time.Hour,
		ResetURL:           "https://portal.example.com/reset",
		Issuer:             "portal-api",
	})
	return svc, repo, sessions, queue
}

func seedStudent(t *testing.T, repo *fakeAuthRepo, password string) *models.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	user := &models.User{
		ID:           uuid.NewString(),
		Email:        "ama@student.example.com",
		PasswordHash: string(hash),
		Role:         models.RoleStudent,
		Details:      []byte(`{"first_name":"Ama","last_name":"Mensah"}`),
		Active:       true,
	}
	repo.addUser(user)
	return user
}

func TestLoginIssuesTokensAndOpensSession(t *testing.T) {
	svc, repo, sessions, _ := newAuthFixture(t)
	user := seedStudent(t, repo, "correct-horse")

	resp, err := svc.Login(context.Background(), models.LoginRequest{
		Email:    user.Email,
		Password: "correct-horse",
	})
	require.NoError(t, err)
	require.NotEmpty(t, resp.AccessToken)
	require.NotEmpty(t, resp.RefreshToken)
	assert.Equal(t, user.Email, resp.User.Email)

	claims, err := svc.ValidateToken(resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)

	sess, ok := sessions.active[user.ID]
	require.True(t, ok, "login should open a session")
	assert.Equal(t, claims.ID, sess.TokenID, "session token id should match the jti claim")

	require.NotEmpty(t, repo.auditLogs)
	assert.Equal(t, models.AuditActionLogin, repo.auditLogs[len(repo.auditLogs)-1].Action)
}

func TestLoginRejectsWrongPassword(t *testing.T) {
	svc, repo, _, _ := newAuthFixture(t)
	user := seedStudent(t, repo, "correct-horse")

	_, err := svc.Login(context.Background(), models.LoginRequest{
		Email:    user.Email,
		Password: "battery-staple",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidCredentials.Code, appErrors.FromError(err).Code)
}

func TestLoginRejectsInactiveAccount(t *testing.T) {
	svc, repo, _, _ := newAuthFixture(t)
	user := seedStudent(t, repo, "correct-horse")
	user.Active = false

	_, err := svc.Login(context.Background(), models.LoginRequest{
		Email:    user.Email,
		Password: "correct-horse",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInactiveAccount.Code, appErrors.FromError(err).Code)
}

func TestLoginRevokesPreviousRefreshTokens(t *testing.T) {
	svc, repo, _, _ := newAuthFixture(t)
	user := seedStudent(t, repo, "correct-horse")

	first, err := svc.Login(context.Background(), models.LoginRequest{Email: user.Email, Password: "correct-horse"})
	require.NoError(t, err)
	second, err := svc.Login(context.Background(), models.LoginRequest{Email: user.Email, Password: "correct-horse"})
	require.NoError(t, err)

	assert.True(t, repo.refreshTokens[first.RefreshToken].Revoked)
	assert.False(t, repo.refreshTokens[second.RefreshToken].Revoked)
}

func TestRefreshRotatesToken(t *testing.T) {
	svc, repo, sessions, _ := newAuthFixture(t)
	user := seedStudent(t, repo, "correct-horse")

	login, err := svc.Login(context.Background(), models.LoginRequest{Email: user.Email, Password: "correct-horse"})
	require.NoError(t, err)

	refreshed, err := svc.RefreshToken(context.Background(), models.RefreshTokenRequest{RefreshToken: login.RefreshToken})
	require.NoError(t, err)
	assert.NotEqual(t, login.RefreshToken, refreshed.RefreshToken)
	assert.True(t, repo.refreshTokens[login.RefreshToken].Revoked, "used refresh token should be revoked")

	claims, err := svc.ValidateToken(refreshed.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, claims.ID, sessions.active[user.ID].TokenID, "session should track the new access token")
}

func TestRefreshRejectsRevokedToken(t *testing.T) {
	svc, repo, _, _ := newAuthFixture(t)
	user := seedStudent(t, repo, "correct-horse")

	login, err := svc.Login(context.Background(), models.LoginRequest{Email: user.Email, Password: "correct-horse"})
	require.NoError(t, err)
	repo.refreshTokens[login.RefreshToken].Revoked = true

	_, err = svc.RefreshToken(context.Background(), models.RefreshTokenRequest{RefreshToken: login.RefreshToken})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrUnauthorized.Code, appErrors.FromError(err).Code)
}

func TestLogoutClosesSessionEverywhere(t *testing.T) {
	svc, repo, sessions, _ := newAuthFixture(t)
	user := seedStudent(t, repo, "correct-horse")

	login, err := svc.Login(context.Background(), models.LoginRequest{Email: user.Email, Password: "correct-horse"})
	require.NoError(t, err)

	require.NoError(t, svc.Logout(context.Background(), login.RefreshToken, user.ID, models.LoginRequest{}))

	_, ok := sessions.active[user.ID]
	assert.False(t, ok, "logout should drop the session")
	assert.True(t, repo.refreshTokens[login.RefreshToken].Revoked)
}

func TestLogoutRejectsForeignToken(t *testing.T) {
	svc, repo, _, _ := newAuthFixture(t)
	user := seedStudent(t, repo, "correct-horse")

	login, err := svc.Login(context.Background(), models.LoginRequest{Email: user.Email, Password: "correct-horse"})
	require.NoError(t, err)

	err = svc.Logout(context.Background(), login.RefreshToken, "someone-else", models.LoginRequest{})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}

func TestPasswordResetFlow(t *testing.T) {
	svc, repo, sessions, queue := newAuthFixture(t)
	user := seedStudent(t, repo, "correct-horse")

	login, err := svc.Login(context.Background(), models.LoginRequest{Email: user.Email, Password: "correct-horse"})
	require.NoError(t, err)

	require.NoError(t, svc.RequestPasswordReset(context.Background(), models.ResetPasswordRequest{Destination: user.Email}))
	require.Len(t, queue.jobs, 1)
	assert.Equal(t, "password-reset", queue.jobs[0].Type)

	var tokenValue string
	for value := range repo.resetTokens {
		tokenValue = value
	}
	require.NotEmpty(t, tokenValue)

	require.NoError(t, svc.ResetPassword(context.Background(), models.ConfirmResetPasswordRequest{
		Token:       tokenValue,
		NewPassword: "battery-staple",
	}))

	assert.NotNil(t, repo.resetTokens[tokenValue].UsedAt, "token should be single use")
	assert.True(t, repo.refreshTokens[login.RefreshToken].Revoked, "reset should revoke refresh tokens")
	_, ok := sessions.active[user.ID]
	assert.False(t, ok, "reset should close open sessions")

	err = svc.ResetPassword(context.Background(), models.ConfirmResetPasswordRequest{
		Token:       tokenValue,
		NewPassword: "another-pass",
	})
	require.Error(t, err, "used token should be rejected")
}

func TestPasswordResetDoesNotRevealAccounts(t *testing.T) {
	svc, _, _, queue := newAuthFixture(t)

	err := svc.RequestPasswordReset(context.Background(), models.ResetPasswordRequest{Destination: "nobody@example.com"})
	require.NoError(t, err, "unknown addresses should not produce an error")
	assert.Empty(t, queue.jobs)
}

func TestValidateTokenRejectsTampering(t *testing.T) {
	svc, repo, _, _ := newAuthFixture(t)
	user := seedStudent(t, repo, "correct-horse")

	login, err := svc.Login(context.Background(), models.LoginRequest{Email: user.Email, Password: "correct-horse"})
	require.NoError(t, err)

	_, err = svc.ValidateToken(login.AccessToken + "x")
	require.Error(t, err)
}
