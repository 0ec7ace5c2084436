package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/fms-portal-api/internal/models"
)

const billColumns = `b.id, b.name, b.amount_due, b.due_date, b.installment_supported, b.max_installments, b.bill_type_id, bt.name AS bill_type, b.created_at, b.updated_at`

// BillRepository provides database access for bill types and bills.
type BillRepository struct {
	db *sqlx.DB
}

// NewBillRepository creates a new instance of BillRepository.
func NewBillRepository(db *sqlx.DB) *BillRepository {
	return &BillRepository{db: db}
}

// FindByID returns a bill with its type name.
func (r *BillRepository) FindByID(ctx context.Context, id string) (*models.Bill, error) {
	query := fmt.Sprintf(`SELECT %s FROM bills b JOIN bill_types bt ON bt.id = b.bill_type_id WHERE b.id = $1 LIMIT 1`, billColumns)
	var bill models.Bill
	if err := r.db.GetContext(ctx, &bill, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find bill by id: %w", err)
	}
	return &bill, nil
}

// List returns bills based on filters with total count.
func (r *BillRepository) List(ctx context.Context, filter models.BillFilter) ([]models.Bill, int, error) {
	baseQuery := `FROM bills b JOIN bill_types bt ON bt.id = b.bill_type_id WHERE 1=1`
	var conditions []string
	var args []interface{}

	if filter.BillTypeID != "" {
		conditions = append(conditions, fmt.Sprintf("b.bill_type_id = $%d", len(args)+1))
		args = append(args, filter.BillTypeID)
	}
	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(LOWER(b.name) LIKE $%d OR LOWER(bt.name) LIKE $%d)", len(args)+1, len(args)+1))
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
	}

	if len(conditions) > 0 {
		baseQuery += " AND " + strings.Join(conditions, " AND ")
	}

	sortBy := filter.SortBy
	allowedSorts := map[string]string{
		"name":       "b.name",
		"amount_due": "b.amount_due",
		"due_date":   "b.due_date",
		"created_at": "b.created_at",
	}
	column, ok := allowedSorts[sortBy]
	if !ok {
		column = "b.created_at"
	}

	sortOrder := strings.ToUpper(filter.SortOrder)
	if sortOrder != "ASC" && sortOrder != "DESC" {
		sortOrder = "DESC"
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 20
	}
	offset := (page - 1) * pageSize

	listQuery := fmt.Sprintf("SELECT %s %s ORDER BY %s %s LIMIT %d OFFSET %d", billColumns, baseQuery, column, sortOrder, pageSize, offset)

	var bills []models.Bill
	if err := r.db.SelectContext(ctx, &bills, listQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("list bills: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", baseQuery)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count bills: %w", err)
	}

	return bills, total, nil
}

// Create inserts a new bill.
func (r *BillRepository) Create(ctx context.Context, bill *models.Bill) error {
	if bill.ID == "" {
		bill.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	bill.CreatedAt = now
	bill.UpdatedAt = now

	const query = `INSERT INTO bills (id, name, amount_due, due_date, installment_supported, max_installments, bill_type_id, created_at, updated_at) VALUES (:id, :name, :amount_due, :due_date, :installment_supported, :max_installments, :bill_type_id, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, bill); err != nil {
		return fmt.Errorf("create bill: %w", err)
	}
	return nil
}

// Update updates mutable fields of a bill.
func (r *BillRepository) Update(ctx context.Context, bill *models.Bill) error {
	bill.UpdatedAt = time.Now().UTC()
	const query = `UPDATE bills SET name = :name, amount_due = :amount_due, due_date = :due_date, installment_supported = :installment_supported, max_installments = :max_installments, bill_type_id = :bill_type_id, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, bill); err != nil {
		return fmt.Errorf("update bill: %w", err)
	}
	return nil
}

// Delete removes a bill.
func (r *BillRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM bills WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("delete bill: %w", err)
	}
	return nil
}

// ListForUser returns bills assigned to a student together with their
// discounts, payments and remaining balance.
func (r *BillRepository) ListForUser(ctx context.Context, userID string) ([]models.UserBill, error) {
	query := fmt.Sprintf(`SELECT %s FROM user_bills ub JOIN bills b ON b.id = ub.bill_id JOIN bill_types bt ON bt.id = b.bill_type_id WHERE ub.user_id = $1 ORDER BY b.due_date ASC`, billColumns)

	var bills []models.Bill
	if err := r.db.SelectContext(ctx, &bills, query, userID); err != nil {
		return nil, fmt.Errorf("list user bills: %w", err)
	}

	userBills := make([]models.UserBill, 0, len(bills))
	for _, bill := range bills {
		discounts, err := r.billDiscounts(ctx, userID, bill.ID)
		if err != nil {
			return nil, err
		}
		payments, err := r.billPayments(ctx, userID, bill.ID)
		if err != nil {
			return nil, err
		}

		remaining := bill.AmountDue
		for _, d := range discounts {
			remaining -= d.Amount
		}
		for _, p := range payments {
			if p.Status == models.PaymentStatusPaid {
				remaining -= p.Amount
			}
		}
		if remaining < 0 {
			remaining = 0
		}

		userBills = append(userBills, models.UserBill{
			Bill:             bill,
			Discounts:        discounts,
			Payments:         payments,
			RemainingBalance: remaining,
		})
	}

	return userBills, nil
}

// AssignToUser links a bill to a student's ledger.
func (r *BillRepository) AssignToUser(ctx context.Context, userID, billID string) error {
	const query = `INSERT INTO user_bills (id, user_id, bill_id, created_at) VALUES ($1, $2, $3, $4) ON CONFLICT (user_id, bill_id) DO NOTHING`
	if _, err := r.db.ExecContext(ctx, query, uuid.NewString(), userID, billID, time.Now().UTC()); err != nil {
		return fmt.Errorf("assign bill to user: %w", err)
	}
	return nil
}

func (r *BillRepository) billDiscounts(ctx context.Context, userID, billID string) ([]models.Discount, error) {
	const query = `SELECT fad.name, fad.amount
		FROM financial_aid_applications faa
		JOIN financial_aid_discounts fad ON fad.aid_type_id = faa.aid_type_id
		JOIN bills b ON b.bill_type_id = fad.bill_type_id
		WHERE faa.applicant_id = $1 AND b.id = $2 AND faa.status = 'approved'
		AND (faa.start_date IS NULL OR faa.start_date <= NOW())
		AND (faa.end_date IS NULL OR faa.end_date >= NOW())`

	var discounts []models.Discount
	if err := r.db.SelectContext(ctx, &discounts, query, userID, billID); err != nil {
		return nil, fmt.Errorf("list bill discounts: %w", err)
	}
	return discounts, nil
}

func (r *BillRepository) billPayments(ctx context.Context, userID, billID string) ([]models.BillPayment, error) {
	const query = `SELECT p.amount, pc.name AS type, p.status
		FROM payments p
		JOIN payment_categories pc ON pc.id = p.payment_category_id
		WHERE p.payer_id = $1 AND p.bill_id = $2
		ORDER BY p.created_at ASC`

	var payments []models.BillPayment
	if err := r.db.SelectContext(ctx, &payments, query, userID, billID); err != nil {
		return nil, fmt.Errorf("list bill payments: %w", err)
	}
	return payments, nil
}
