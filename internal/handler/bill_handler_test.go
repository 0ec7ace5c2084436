package handler

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/fms-portal-api/internal/models"
	"github.com/noah-isme/fms-portal-api/internal/service"
)

type stubBillStore struct {
	bills map[string]*models.Bill
	seq   int
}

func newStubBillStore() *stubBillStore {
	return &stubBillStore{bills: make(map[string]*models.Bill)}
}

func (s *stubBillStore) FindByID(_ context.Context, id string) (*models.Bill, error) {
	bill, ok := s.bills[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	copied := *bill
	return &copied, nil
}

func (s *stubBillStore) List(_ context.Context, _ models.BillFilter) ([]models.Bill, int, error) {
	out := make([]models.Bill, 0, len(s.bills))
	for _, bill := range s.bills {
		out = append(out, *bill)
	}
	return out, len(out), nil
}

func (s *stubBillStore) Create(_ context.Context, bill *models.Bill) error {
	s.seq++
	bill.ID = fmt.Sprintf("bill-%d", s.seq)
	copied := *bill
	s.bills[bill.ID] = &copied
	return nil
}

func (s *stubBillStore) Update(_ context.Context, bill *models.Bill) error {
	if _, ok := s.bills[bill.ID]; !ok {
		return sql.ErrNoRows
	}
	copied := *bill
	s.bills[bill.ID] = &copied
	return nil
}

func (s *stubBillStore) Delete(_ context.Context, id string) error {
	delete(s.bills, id)
	return nil
}

type stubBillTypeStore struct {
	types map[string]*models.BillType
}

func (s *stubBillTypeStore) FindByID(_ context.Context, id string) (*models.BillType, error) {
	billType, ok := s.types[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return billType, nil
}

func (s *stubBillTypeStore) List(context.Context, string, int, int) ([]models.BillType, int, error) {
	return nil, 0, nil
}

func (s *stubBillTypeStore) Create(context.Context, *models.BillType) error { return nil }
func (s *stubBillTypeStore) Update(context.Context, *models.BillType) error { return nil }
func (s *stubBillTypeStore) Delete(context.Context, string) error           { return nil }

func newBillHandler(store *stubBillStore) *BillHandler {
	types := &stubBillTypeStore{types: map[string]*models.BillType{
		"type-1": {ID: "type-1", Name: "Tuition"},
	}}
	return NewBillHandler(service.NewBillService(store, types, nil, nil, nil))
}

func billPayload(billTypeID string) string {
	due := time.Now().AddDate(0, 1, 0).Format(time.RFC3339)
	return fmt.Sprintf(`{"name":"Tuition 2026","amount_due":250000,"due_date":%q,"bill_type_id":%q}`, due, billTypeID)
}

func TestBillCreatePersistsBill(t *testing.T) {
	gin.SetMode(gin.TestMode)
	store := newStubBillStore()
	handler := newBillHandler(store)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodPost, "/bills", strings.NewReader(billPayload("type-1")))
	c.Request.Header.Set("Content-Type", "application/json")

	handler.Create(c)

	require.Equal(t, http.StatusCreated, rec.Code)
	var envelope struct {
		Data models.Bill `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.Equal(t, "Tuition 2026", envelope.Data.Name)
	assert.Len(t, store.bills, 1)
}

func TestBillCreateRejectsMalformedPayload(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := newBillHandler(newStubBillStore())

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodPost, "/bills", strings.NewReader("{not json"))
	c.Request.Header.Set("Content-Type", "application/json")

	handler.Create(c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestBillCreateRejectsUnknownBillType(t *testing.T) {
	gin.SetMode(gin.TestMode)
	store := newStubBillStore()
	handler := newBillHandler(store)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodPost, "/bills", strings.NewReader(billPayload("type-missing")))
	c.Request.Header.Set("Content-Type", "application/json")

	handler.Create(c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, store.bills)
}

func TestBillGetReturnsNotFound(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := newBillHandler(newStubBillStore())

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/bills/missing", nil)
	c.Params = gin.Params{{Key: "id", Value: "missing"}}

	handler.Get(c)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestBillListReturnsPage(t *testing.T) {
	gin.SetMode(gin.TestMode)
	store := newStubBillStore()
	store.bills["bill-1"] = &models.Bill{ID: "bill-1", Name: "Tuition", AmountDue: 250000, BillTypeID: "type-1"}
	handler := newBillHandler(store)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/bills?page=1&pageSize=10", nil)

	handler.List(c)

	require.Equal(t, http.StatusOK, rec.Code)
	var page struct {
		Page  int           `json:"page"`
		Count int           `json:"count"`
		Total int           `json:"total"`
		Data  []models.Bill `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &page))
	assert.Equal(t, 1, page.Page)
	assert.Equal(t, 1, page.Total)
	require.Len(t, page.Data, 1)
	assert.Equal(t, "Tuition", page.Data[0].Name)
}
