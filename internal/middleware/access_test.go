package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/noah-isme/fms-portal-api/internal/models"
)

func performAccess(t *testing.T, claims *models.JWTClaims, guard gin.HandlerFunc) *httptest.ResponseRecorder {
	t.Helper()
	gin.SetMode(gin.TestMode)

	router := gin.New()
	router.GET("/guarded", func(c *gin.Context) {
		if claims != nil {
			c.Set(ContextUserKey, claims)
		}
		c.Next()
	}, guard, func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/guarded", nil)
	router.ServeHTTP(w, req)
	return w
}

func adminClaims(permissions ...string) *models.JWTClaims {
	return &models.JWTClaims{
		UserID:      "admin-1",
		Email:       "admin@portal.edu",
		Role:        models.RoleAdmin,
		Permissions: models.PermissionSet(permissions),
	}
}

func TestAccessRejectsUnauthenticated(t *testing.T) {
	w := performAccess(t, nil, Access(nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAccessSuperAdminBypassesEverything(t *testing.T) {
	claims := &models.JWTClaims{
		UserID: "root-1",
		Role:   models.RoleSuperAdmin,
	}

	// Disallowed role list and unheld permissions are both ignored.
	guard := Access(
		[]models.UserRole{models.RoleStudent},
		models.PermUserManagement, models.PermPaymentManagement,
	)
	w := performAccess(t, claims, guard)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAccessRejectsDisallowedRole(t *testing.T) {
	claims := &models.JWTClaims{
		UserID: "student-1",
		Role:   models.RoleStudent,
	}
	w := performAccess(t, claims, Access([]models.UserRole{models.RoleAdmin}))
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestAccessRequiresEveryPermission(t *testing.T) {
	tests := []struct {
		name     string
		held     []string
		required []string
		want     int
	}{
		{
			name:     "all held",
			held:     []string{models.PermUserManagement, models.PermStudentManagement},
			required: []string{models.PermUserManagement, models.PermStudentManagement},
			want:     http.StatusOK,
		},
		{
			name:     "one missing",
			held:     []string{models.PermUserManagement},
			required: []string{models.PermUserManagement, models.PermStudentManagement},
			want:     http.StatusForbidden,
		},
		{
			name:     "none held",
			held:     nil,
			required: []string{models.PermPaymentManagement},
			want:     http.StatusForbidden,
		},
		{
			name:     "nothing required",
			held:     nil,
			required: nil,
			want:     http.StatusOK,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			guard := Access([]models.UserRole{models.RoleAdmin}, tt.required...)
			w := performAccess(t, adminClaims(tt.held...), guard)
			assert.Equal(t, tt.want, w.Code)
		})
	}
}

func TestAccessRoleCheckRunsBeforePermissions(t *testing.T) {
	// A student holding the permission is still rejected when the role
	// list does not include students.
	claims := &models.JWTClaims{
		UserID:      "student-1",
		Role:        models.RoleStudent,
		Permissions: models.PermissionSet{models.PermSupportAndHelpCenter},
	}
	guard := Access([]models.UserRole{models.RoleAdmin}, models.PermSupportAndHelpCenter)
	w := performAccess(t, claims, guard)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestRequireSelfAllowsOwnResource(t *testing.T) {
	gin.SetMode(gin.TestMode)

	router := gin.New()
	router.GET("/users/:id", func(c *gin.Context) {
		c.Set(ContextUserKey, &models.JWTClaims{UserID: "u1", Role: models.RoleStudent})
		c.Next()
	}, RequireSelf(RequireRoles(models.RoleAdmin)), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/users/u1", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/users/u2", nil))
	assert.Equal(t, http.StatusForbidden, w.Code)
}
