package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/fms-portal-api/internal/middleware"
	"github.com/noah-isme/fms-portal-api/internal/models"
	"github.com/noah-isme/fms-portal-api/internal/service"
	appErrors "github.com/noah-isme/fms-portal-api/pkg/errors"
)

type stubStats struct {
	bill    models.StudentBillStats
	payment models.StudentPaymentStats
	admin   models.AdminDashboardStats
}

func (s *stubStats) StudentBillStats(context.Context, string) (*models.StudentBillStats, error) {
	bill := s.bill
	return &bill, nil
}

func (s *stubStats) StudentPaymentStats(context.Context, string) (*models.StudentPaymentStats, error) {
	payment := s.payment
	return &payment, nil
}

func (s *stubStats) AdminDashboardStats(context.Context) (*models.AdminDashboardStats, error) {
	admin := s.admin
	return &admin, nil
}

type stubCache struct {
	entries map[string][]byte
}

func newStubCache() *stubCache {
	return &stubCache{entries: make(map[string][]byte)}
}

func (c *stubCache) Get(_ context.Context, key string, dest interface{}) error {
	raw, ok := c.entries[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

func (c *stubCache) Set(_ context.Context, key string, value interface{}, _ time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.entries[key] = raw
	return nil
}

func (c *stubCache) Delete(_ context.Context, key string) error {
	delete(c.entries, key)
	return nil
}

func (c *stubCache) DeleteByPattern(context.Context, string) error {
	c.entries = make(map[string][]byte)
	return nil
}

func newDashboardHandler(stats *stubStats) *DashboardHandler {
	svc := service.NewDashboardService(stats, newStubCache(), service.NewMetricsService(), time.Minute, nil)
	return NewDashboardHandler(svc)
}

func TestDashboardStudentRequiresClaims(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := newDashboardHandler(&stubStats{})

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/student/stats/dashboard", nil)

	handler.Student(c)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestDashboardStudentReturnsAggregates(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := newDashboardHandler(&stubStats{
		bill:    models.StudentBillStats{BillCount: 3, TotalUnpaid: 120000},
		payment: models.StudentPaymentStats{PaymentCount: 2, TotalSettled: 80000},
	})

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/student/stats/dashboard", nil)
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "student-1", Role: models.RoleStudent})

	handler.Student(c)

	require.Equal(t, http.StatusOK, rec.Code)
	var envelope struct {
		Success bool `json:"success"`
		Data    struct {
			BillStats    models.StudentBillStats    `json:"billStats"`
			PaymentStats models.StudentPaymentStats `json:"paymentStats"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.True(t, envelope.Success)
	assert.Equal(t, 3, envelope.Data.BillStats.BillCount)
	assert.Equal(t, int64(80000), envelope.Data.PaymentStats.TotalSettled)
}

func TestDashboardAdminReturnsAggregates(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := newDashboardHandler(&stubStats{
		admin: models.AdminDashboardStats{StudentCount: 42, TotalCollected: 900000},
	})

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/admin/stats/dashboard", nil)

	handler.Admin(c)

	require.Equal(t, http.StatusOK, rec.Code)
	var envelope struct {
		Data models.AdminDashboardStats `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.Equal(t, 42, envelope.Data.StudentCount)
	assert.Equal(t, int64(900000), envelope.Data.TotalCollected)
}
