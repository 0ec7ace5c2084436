package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/fms-portal-api/internal/models"
	"github.com/noah-isme/fms-portal-api/internal/service"
)

type stubPaymentLister struct {
	payments   []models.Payment
	lastFilter models.PaymentFilter
}

func (s *stubPaymentLister) List(_ context.Context, filter models.PaymentFilter) ([]models.Payment, int, error) {
	s.lastFilter = filter
	return s.payments, len(s.payments), nil
}

type stubStudentLister struct {
	students   []models.User
	lastFilter models.UserFilter
}

func (s *stubStudentLister) List(_ context.Context, filter models.UserFilter) ([]models.User, int, error) {
	s.lastFilter = filter
	return s.students, len(s.students), nil
}

func TestExportPaymentsServesCSVAttachment(t *testing.T) {
	gin.SetMode(gin.TestMode)
	payments := &stubPaymentLister{payments: []models.Payment{{
		ID:               "pay-1",
		PaymentReference: "FMS-1",
		Amount:           250000,
		Status:           "settled",
		CreatedAt:        time.Now(),
	}}}
	handler := NewExportHandler(service.NewExportService(payments, &stubStudentLister{}, nil))

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/payments/export?status=settled", nil)

	handler.Payments(c)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "settled", payments.lastFilter.Status)
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "attachment")
	assert.Contains(t, rec.Header().Get("Content-Disposition"), ".csv")
	assert.Contains(t, rec.Body.String(), "FMS-1")
}

func TestExportStudentsScopesFilterToStudents(t *testing.T) {
	gin.SetMode(gin.TestMode)
	students := &stubStudentLister{}
	handler := NewExportHandler(service.NewExportService(&stubPaymentLister{}, students, nil))

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/students/export?search=ama", nil)

	handler.Students(c)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ama", students.lastFilter.Search)
	require.NotNil(t, students.lastFilter.Role)
	assert.Equal(t, models.RoleStudent, *students.lastFilter.Role)
}
