package service

import (
	"context"
	"database/sql"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/fms-portal-api/internal/models"
)

type fakeBillRepo struct {
	bills map[string]*models.Bill
	seq   int
}

func newFakeBillRepo() *fakeBillRepo {
	return &fakeBillRepo{bills: make(map[string]*models.Bill)}
}

func (f *fakeBillRepo) FindByID(_ context.Context, id string) (*models.Bill, error) {
	bill, ok := f.bills[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	copied := *bill
	return &copied, nil
}

func (f *fakeBillRepo) List(_ context.Context, _ models.BillFilter) ([]models.Bill, int, error) {
	out := make([]models.Bill, 0, len(f.bills))
	for _, bill := range f.bills {
		out = append(out, *bill)
	}
	return out, len(out), nil
}

func (f *fakeBillRepo) Create(_ context.Context, bill *models.Bill) error {
	f.seq++
	bill.ID = fmt.Sprintf("bill-%d", f.seq)
	copied := *bill
	f.bills[bill.ID] = &copied
	return nil
}

func (f *fakeBillRepo) Update(_ context.Context, bill *models.Bill) error {
	if _, ok := f.bills[bill.ID]; !ok {
		return sql.ErrNoRows
	}
	copied := *bill
	f.bills[bill.ID] = &copied
	return nil
}

func (f *fakeBillRepo) Delete(_ context.Context, id string) error {
	delete(f.bills, id)
	return nil
}

type billFixture struct {
	svc        *BillService
	repo       *fakeBillRepo
	dashboards *fakeInvalidator
}

func newBillFixture(t *testing.T) *billFixture {
	t.Helper()
	repo := newFakeBillRepo()
	types := &fakeBillTypeRepo{types: map[string]*models.BillType{
		"type-1": {ID: "type-1", Name: "Tuition"},
	}}
	dashboards := &fakeInvalidator{}
	return &billFixture{
		svc:        NewBillService(repo, types, dashboards, nil, nil),
		repo:       repo,
		dashboards: dashboards,
	}
}

func tuitionBillRequest() BillRequest {
	return BillRequest{
		Name:       "Tuition 2026",
		AmountDue:  250000,
		DueDate:    time.Now().AddDate(0, 1, 0),
		BillTypeID: "type-1",
	}
}

func TestBillCreateSweepsCachedDashboards(t *testing.T) {
	fx := newBillFixture(t)

	bill, err := fx.svc.Create(context.Background(), tuitionBillRequest())
	require.NoError(t, err)
	require.NotEmpty(t, bill.ID)

	// Amounts feed every student's remaining balance, so the whole
	// student namespace and the admin aggregate go stale together.
	assert.Equal(t, 1, fx.dashboards.sweepCalls)
	assert.Equal(t, 1, fx.dashboards.adminCalls)
}

func TestBillUpdateSweepsCachedDashboards(t *testing.T) {
	fx := newBillFixture(t)

	bill, err := fx.svc.Create(context.Background(), tuitionBillRequest())
	require.NoError(t, err)

	req := tuitionBillRequest()
	req.AmountDue = 300000
	_, err = fx.svc.Update(context.Background(), bill.ID, req)
	require.NoError(t, err)

	assert.Equal(t, 2, fx.dashboards.sweepCalls)
	assert.Equal(t, 2, fx.dashboards.adminCalls)
}

func TestBillDeleteSweepsCachedDashboards(t *testing.T) {
	fx := newBillFixture(t)

	bill, err := fx.svc.Create(context.Background(), tuitionBillRequest())
	require.NoError(t, err)

	require.NoError(t, fx.svc.Delete(context.Background(), bill.ID))

	assert.Equal(t, 2, fx.dashboards.sweepCalls)
	assert.Equal(t, 2, fx.dashboards.adminCalls)
}

func TestBillValidationFailureLeavesDashboardsAlone(t *testing.T) {
	fx := newBillFixture(t)

	req := tuitionBillRequest()
	req.BillTypeID = "type-missing"
	_, err := fx.svc.Create(context.Background(), req)
	require.Error(t, err)

	assert.Zero(t, fx.dashboards.sweepCalls)
	assert.Zero(t, fx.dashboards.adminCalls)
}
