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

const paymentColumns = `p.id, p.bill_id, b.name AS bill_name, p.payer_id,
	TRIM(CONCAT(u.details->>'first_name', ' ', u.details->>'last_name')) AS payer,
	pc.name AS payment_type, p.payment_reference, p.status, p.payment_note, p.amount, p.created_at, p.updated_at`

const paymentJoins = `FROM payments p
	JOIN bills b ON b.id = p.bill_id
	JOIN users u ON u.id = p.payer_id
	JOIN payment_categories pc ON pc.id = p.payment_category_id`

// PaymentRepository provides database access for payments and categories.
type PaymentRepository struct {
	db *sqlx.DB
}

// NewPaymentRepository creates a new instance of PaymentRepository.
func NewPaymentRepository(db *sqlx.DB) *PaymentRepository {
	return &PaymentRepository{db: db}
}

// FindByID returns a payment by identifier.
func (r *PaymentRepository) FindByID(ctx context.Context, id string) (*models.Payment, error) {
	query := fmt.Sprintf(`SELECT %s %s WHERE p.id = $1 LIMIT 1`, paymentColumns, paymentJoins)
	var payment models.Payment
	if err := r.db.GetContext(ctx, &payment, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find payment by id: %w", err)
	}
	return &payment, nil
}

// FindByReference returns a payment by its gateway reference.
func (r *PaymentRepository) FindByReference(ctx context.Context, reference string) (*models.Payment, error) {
	query := fmt.Sprintf(`SELECT %s %s WHERE p.payment_reference = $1 LIMIT 1`, paymentColumns, paymentJoins)
	var payment models.Payment
	if err := r.db.GetContext(ctx, &payment, query, reference); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find payment by reference: %w", err)
	}
	return &payment, nil
}

// List returns payments based on filters with total count.
func (r *PaymentRepository) List(ctx context.Context, filter models.PaymentFilter) ([]models.Payment, int, error) {
	baseQuery := paymentJoins + ` WHERE 1=1`
	var conditions []string
	var args []interface{}

	if filter.Status != "" {
		conditions = append(conditions, fmt.Sprintf("p.status = $%d", len(args)+1))
		args = append(args, filter.Status)
	}
	if filter.PayerID != "" {
		conditions = append(conditions, fmt.Sprintf("p.payer_id = $%d", len(args)+1))
		args = append(args, filter.PayerID)
	}
	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(LOWER(b.name) LIKE $%d OR LOWER(p.payment_reference) LIKE $%d OR LOWER(u.email) LIKE $%d)", len(args)+1, len(args)+1, len(args)+1))
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
	}

	if len(conditions) > 0 {
		baseQuery += " AND " + strings.Join(conditions, " AND ")
	}

	allowedSorts := map[string]string{
		"amount":     "p.amount",
		"status":     "p.status",
		"created_at": "p.created_at",
	}
	column, ok := allowedSorts[filter.SortBy]
	if !ok {
		column = "p.created_at"
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

	listQuery := fmt.Sprintf("SELECT %s %s ORDER BY %s %s LIMIT %d OFFSET %d", paymentColumns, baseQuery, column, sortOrder, pageSize, offset)

	var payments []models.Payment
	if err := r.db.SelectContext(ctx, &payments, listQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("list payments: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", baseQuery)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count payments: %w", err)
	}

	return payments, total, nil
}

// Create inserts a pending payment awaiting gateway confirmation.
func (r *PaymentRepository) Create(ctx context.Context, payment *models.Payment, categoryID string) error {
	if payment.ID == "" {
		payment.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	payment.CreatedAt = now
	payment.UpdatedAt = now
	if payment.Status == "" {
		payment.Status = models.PaymentStatusPending
	}

	const query = `INSERT INTO payments (id, bill_id, payer_id, payment_category_id, payment_reference, status, payment_note, amount, created_at, updated_at) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
	if _, err := r.db.ExecContext(ctx, query,
		payment.ID, payment.BillID, payment.PayerID, categoryID,
		payment.PaymentReference, payment.Status, payment.PaymentNote,
		payment.Amount, payment.CreatedAt, payment.UpdatedAt,
	); err != nil {
		return fmt.Errorf("create payment: %w", err)
	}
	return nil
}

// UpdateStatusByReference moves a payment to the given status.
func (r *PaymentRepository) UpdateStatusByReference(ctx context.Context, reference, status string) error {
	const query = `UPDATE payments SET status = $2, updated_at = $3 WHERE payment_reference = $1`
	if _, err := r.db.ExecContext(ctx, query, reference, status, time.Now().UTC()); err != nil {
		return fmt.Errorf("update payment status: %w", err)
	}
	return nil
}

// FindCategoryByID returns a payment category by identifier.
func (r *PaymentRepository) FindCategoryByID(ctx context.Context, id string) (*models.PaymentCategory, error) {
	const query = `SELECT id, name, description, created_at, updated_at FROM payment_categories WHERE id = $1 LIMIT 1`
	var category models.PaymentCategory
	if err := r.db.GetContext(ctx, &category, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find payment category by id: %w", err)
	}
	return &category, nil
}

// ListCategories returns payment categories with total count.
func (r *PaymentRepository) ListCategories(ctx context.Context, page, pageSize int) ([]models.PaymentCategory, int, error) {
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 20
	}
	offset := (page - 1) * pageSize

	listQuery := fmt.Sprintf("SELECT id, name, description, created_at, updated_at FROM payment_categories ORDER BY name ASC LIMIT %d OFFSET %d", pageSize, offset)

	var categories []models.PaymentCategory
	if err := r.db.SelectContext(ctx, &categories, listQuery); err != nil {
		return nil, 0, fmt.Errorf("list payment categories: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM payment_categories"); err != nil {
		return nil, 0, fmt.Errorf("count payment categories: %w", err)
	}

	return categories, total, nil
}

// CreateCategory inserts a new payment category.
func (r *PaymentRepository) CreateCategory(ctx context.Context, category *models.PaymentCategory) error {
	if category.ID == "" {
		category.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	category.CreatedAt = now
	category.UpdatedAt = now

	const query = `INSERT INTO payment_categories (id, name, description, created_at, updated_at) VALUES (:id, :name, :description, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, category); err != nil {
		return fmt.Errorf("create payment category: %w", err)
	}
	return nil
}

// UpdateCategory updates mutable fields of a payment category.
func (r *PaymentRepository) UpdateCategory(ctx context.Context, category *models.PaymentCategory) error {
	category.UpdatedAt = time.Now().UTC()
	const query = `UPDATE payment_categories SET name = :name, description = :description, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, category); err != nil {
		return fmt.Errorf("update payment category: %w", err)
	}
	return nil
}

// DeleteCategory removes a payment category.
func (r *PaymentRepository) DeleteCategory(ctx context.Context, id string) error {
	const query = `DELETE FROM payment_categories WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("delete payment category: %w", err)
	}
	return nil
}
