package repository

import (
	"context"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/fms-portal-api/internal/models"
)

func billRows(now time.Time) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "name", "amount_due", "due_date", "installment_supported", "max_installments", "bill_type_id", "bill_type", "created_at", "updated_at"}).
		AddRow("b1", "Tuition 2026", int64(250000), now.Add(30*24*time.Hour), true, 3, "bt1", "Tuition", now, now)
}

func TestBillFindByID(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewBillRepository(db)

	mock.ExpectQuery("SELECT b.id, .+ FROM bills b JOIN bill_types bt ON bt.id = b.bill_type_id WHERE b.id = \\$1").
		WithArgs("b1").
		WillReturnRows(billRows(time.Now()))

	bill, err := repo.FindByID(context.Background(), "b1")
	require.NoError(t, err)
	assert.Equal(t, "Tuition 2026", bill.Name)
	assert.Equal(t, "Tuition", bill.BillType)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListBillsDefaultsSort(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewBillRepository(db)

	mock.ExpectQuery("SELECT b.id, .+ ORDER BY b.created_at DESC LIMIT 20 OFFSET 0").
		WillReturnRows(billRows(time.Now()))
	mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM bills b").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	bills, total, err := repo.List(context.Background(), models.BillFilter{SortBy: "nonsense"})
	require.NoError(t, err)
	assert.Len(t, bills, 1)
	assert.Equal(t, 1, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListForUserComputesRemainingBalance(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewBillRepository(db)

	now := time.Now()
	mock.ExpectQuery("SELECT b.id, .+ FROM user_bills ub JOIN bills b").
		WithArgs("u1").
		WillReturnRows(billRows(now))
	mock.ExpectQuery("SELECT fad.name, fad.amount").
		WithArgs("u1", "b1").
		WillReturnRows(sqlmock.NewRows([]string{"name", "amount"}).AddRow("Merit scholarship", int64(50000)))
	mock.ExpectQuery("SELECT p.amount, pc.name AS type, p.status").
		WithArgs("u1", "b1").
		WillReturnRows(sqlmock.NewRows([]string{"amount", "type", "status"}).
			AddRow(int64(100000), "Installment", models.PaymentStatusPaid).
			AddRow(int64(100000), "Installment", models.PaymentStatusPending))

	bills, err := repo.ListForUser(context.Background(), "u1")
	require.NoError(t, err)
	require.Len(t, bills, 1)

	// 250000 due, 50000 discounted, 100000 settled. Pending payments do
	// not reduce the balance.
	assert.Equal(t, int64(100000), bills[0].RemainingBalance)
	assert.Len(t, bills[0].Discounts, 1)
	assert.Len(t, bills[0].Payments, 2)
	assert.NoError(t, mock.ExpectationsWereMet())
}
