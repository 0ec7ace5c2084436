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

const aidApplicationColumns = `faa.id, faa.applicant_id,
	TRIM(CONCAT(u.details->>'first_name', ' ', u.details->>'last_name')) AS applicant,
	faa.household_income, faa.received_previous_aid,
	faa.bank_statement_url, faa.cover_letter_url, faa.recommendation_letter_url,
	faa.status, faa.aid_type_id, fat.name AS aid_type,
	faa.start_date, faa.end_date, faa.created_at, faa.updated_at`

const aidApplicationJoins = `FROM financial_aid_applications faa
	JOIN users u ON u.id = faa.applicant_id
	JOIN financial_aid_types fat ON fat.id = faa.aid_type_id`

// FinancialAidRepository provides database access for aid types,
// discounts and applications.
type FinancialAidRepository struct {
	db *sqlx.DB
}

// NewFinancialAidRepository creates a new instance of FinancialAidRepository.
func NewFinancialAidRepository(db *sqlx.DB) *FinancialAidRepository {
	return &FinancialAidRepository{db: db}
}

// FindTypeByID returns an aid type by identifier.
func (r *FinancialAidRepository) FindTypeByID(ctx context.Context, id string) (*models.FinancialAidType, error) {
	const query = `SELECT id, name, description, created_at, updated_at FROM financial_aid_types WHERE id = $1 LIMIT 1`
	var aidType models.FinancialAidType
	if err := r.db.GetContext(ctx, &aidType, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find aid type by id: %w", err)
	}
	return &aidType, nil
}

// ListTypes returns aid types with total count.
func (r *FinancialAidRepository) ListTypes(ctx context.Context, page, pageSize int) ([]models.FinancialAidType, int, error) {
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 20
	}
	offset := (page - 1) * pageSize

	listQuery := fmt.Sprintf("SELECT id, name, description, created_at, updated_at FROM financial_aid_types ORDER BY name ASC LIMIT %d OFFSET %d", pageSize, offset)

	var aidTypes []models.FinancialAidType
	if err := r.db.SelectContext(ctx, &aidTypes, listQuery); err != nil {
		return nil, 0, fmt.Errorf("list aid types: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM financial_aid_types"); err != nil {
		return nil, 0, fmt.Errorf("count aid types: %w", err)
	}

	return aidTypes, total, nil
}

// CreateType inserts a new aid type.
func (r *FinancialAidRepository) CreateType(ctx context.Context, aidType *models.FinancialAidType) error {
	if aidType.ID == "" {
		aidType.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	aidType.CreatedAt = now
	aidType.UpdatedAt = now

	const query = `INSERT INTO financial_aid_types (id, name, description, created_at, updated_at) VALUES (:id, :name, :description, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, aidType); err != nil {
		return fmt.Errorf("create aid type: %w", err)
	}
	return nil
}

// UpdateType updates mutable fields of an aid type.
func (r *FinancialAidRepository) UpdateType(ctx context.Context, aidType *models.FinancialAidType) error {
	aidType.UpdatedAt = time.Now().UTC()
	const query = `UPDATE financial_aid_types SET name = :name, description = :description, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, aidType); err != nil {
		return fmt.Errorf("update aid type: %w", err)
	}
	return nil
}

// DeleteType removes an aid type.
func (r *FinancialAidRepository) DeleteType(ctx context.Context, id string) error {
	const query = `DELETE FROM financial_aid_types WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("delete aid type: %w", err)
	}
	return nil
}

// ListDiscounts returns aid discounts with total count.
func (r *FinancialAidRepository) ListDiscounts(ctx context.Context, page, pageSize int) ([]models.FinancialAidDiscount, int, error) {
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 20
	}
	offset := (page - 1) * pageSize

	listQuery := fmt.Sprintf(`SELECT fad.id, fad.name, fad.amount, fad.aid_type_id, fat.name AS aid_type, fad.bill_type_id, bt.name AS bill_type, fad.created_at, fad.updated_at
		FROM financial_aid_discounts fad
		JOIN financial_aid_types fat ON fat.id = fad.aid_type_id
		JOIN bill_types bt ON bt.id = fad.bill_type_id
		ORDER BY fad.name ASC LIMIT %d OFFSET %d`, pageSize, offset)

	var discounts []models.FinancialAidDiscount
	if err := r.db.SelectContext(ctx, &discounts, listQuery); err != nil {
		return nil, 0, fmt.Errorf("list aid discounts: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM financial_aid_discounts"); err != nil {
		return nil, 0, fmt.Errorf("count aid discounts: %w", err)
	}

	return discounts, total, nil
}

// FindDiscountByID returns an aid discount by identifier.
func (r *FinancialAidRepository) FindDiscountByID(ctx context.Context, id string) (*models.FinancialAidDiscount, error) {
	const query = `SELECT fad.id, fad.name, fad.amount, fad.aid_type_id, fat.name AS aid_type, fad.bill_type_id, bt.name AS bill_type, fad.created_at, fad.updated_at
		FROM financial_aid_discounts fad
		JOIN financial_aid_types fat ON fat.id = fad.aid_type_id
		JOIN bill_types bt ON bt.id = fad.bill_type_id
		WHERE fad.id = $1 LIMIT 1`

	var discount models.FinancialAidDiscount
	if err := r.db.GetContext(ctx, &discount, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find aid discount by id: %w", err)
	}
	return &discount, nil
}

// ListDiscountsForAidType returns the discounts granted by one aid type.
func (r *FinancialAidRepository) ListDiscountsForAidType(ctx context.Context, aidTypeID string) ([]models.FinancialAidDiscount, error) {
	const query = `SELECT fad.id, fad.name, fad.amount, fad.aid_type_id, fat.name AS aid_type, fad.bill_type_id, bt.name AS bill_type, fad.created_at, fad.updated_at
		FROM financial_aid_discounts fad
		JOIN financial_aid_types fat ON fat.id = fad.aid_type_id
		JOIN bill_types bt ON bt.id = fad.bill_type_id
		WHERE fad.aid_type_id = $1 ORDER BY fad.name ASC`

	var discounts []models.FinancialAidDiscount
	if err := r.db.SelectContext(ctx, &discounts, query, aidTypeID); err != nil {
		return nil, fmt.Errorf("list discounts for aid type: %w", err)
	}
	return discounts, nil
}

// CreateDiscount inserts a new aid discount.
func (r *FinancialAidRepository) CreateDiscount(ctx context.Context, discount *models.FinancialAidDiscount) error {
	if discount.ID == "" {
		discount.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	discount.CreatedAt = now
	discount.UpdatedAt = now

	const query = `INSERT INTO financial_aid_discounts (id, name, amount, aid_type_id, bill_type_id, created_at, updated_at) VALUES (:id, :name, :amount, :aid_type_id, :bill_type_id, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, discount); err != nil {
		return fmt.Errorf("create aid discount: %w", err)
	}
	return nil
}

// UpdateDiscount updates mutable fields of an aid discount.
func (r *FinancialAidRepository) UpdateDiscount(ctx context.Context, discount *models.FinancialAidDiscount) error {
	discount.UpdatedAt = time.Now().UTC()
	const query = `UPDATE financial_aid_discounts SET name = :name, amount = :amount, aid_type_id = :aid_type_id, bill_type_id = :bill_type_id, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, discount); err != nil {
		return fmt.Errorf("update aid discount: %w", err)
	}
	return nil
}

// DeleteDiscount removes an aid discount.
func (r *FinancialAidRepository) DeleteDiscount(ctx context.Context, id string) error {
	const query = `DELETE FROM financial_aid_discounts WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("delete aid discount: %w", err)
	}
	return nil
}

// FindApplicationByID returns an application by identifier.
func (r *FinancialAidRepository) FindApplicationByID(ctx context.Context, id string) (*models.FinancialAidApplication, error) {
	query := fmt.Sprintf(`SELECT %s %s WHERE faa.id = $1 LIMIT 1`, aidApplicationColumns, aidApplicationJoins)
	var application models.FinancialAidApplication
	if err := r.db.GetContext(ctx, &application, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find aid application by id: %w", err)
	}
	return &application, nil
}

// ListApplications returns applications based on filters with total count.
func (r *FinancialAidRepository) ListApplications(ctx context.Context, filter models.AidApplicationFilter) ([]models.FinancialAidApplication, int, error) {
	baseQuery := aidApplicationJoins + ` WHERE 1=1`
	var conditions []string
	var args []interface{}

	if filter.Status != "" {
		conditions = append(conditions, fmt.Sprintf("faa.status = $%d", len(args)+1))
		args = append(args, filter.Status)
	}
	if filter.ApplicantID != "" {
		conditions = append(conditions, fmt.Sprintf("faa.applicant_id = $%d", len(args)+1))
		args = append(args, filter.ApplicantID)
	}

	if len(conditions) > 0 {
		baseQuery += " AND " + strings.Join(conditions, " AND ")
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

	listQuery := fmt.Sprintf("SELECT %s %s ORDER BY faa.created_at DESC LIMIT %d OFFSET %d", aidApplicationColumns, baseQuery, pageSize, offset)

	var applications []models.FinancialAidApplication
	if err := r.db.SelectContext(ctx, &applications, listQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("list aid applications: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", baseQuery)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count aid applications: %w", err)
	}

	return applications, total, nil
}

// FindOpenApplication returns the applicant's pending or approved
// application for an aid type, if any.
func (r *FinancialAidRepository) FindOpenApplication(ctx context.Context, applicantID, aidTypeID string) (*models.FinancialAidApplication, error) {
	query := fmt.Sprintf(`SELECT %s %s WHERE faa.applicant_id = $1 AND faa.aid_type_id = $2 AND faa.status IN ('pending', 'approved') LIMIT 1`, aidApplicationColumns, aidApplicationJoins)
	var application models.FinancialAidApplication
	if err := r.db.GetContext(ctx, &application, query, applicantID, aidTypeID); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find open aid application: %w", err)
	}
	return &application, nil
}

// CreateApplication inserts a pending application.
func (r *FinancialAidRepository) CreateApplication(ctx context.Context, application *models.FinancialAidApplication) error {
	if application.ID == "" {
		application.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	application.CreatedAt = now
	application.UpdatedAt = now
	if application.Status == "" {
		application.Status = models.AidStatusPending
	}

	const query = `INSERT INTO financial_aid_applications (id, applicant_id, household_income, received_previous_aid, bank_statement_url, cover_letter_url, recommendation_letter_url, status, aid_type_id, start_date, end_date, created_at, updated_at) VALUES (:id, :applicant_id, :household_income, :received_previous_aid, :bank_statement_url, :cover_letter_url, :recommendation_letter_url, :status, :aid_type_id, :start_date, :end_date, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, application); err != nil {
		return fmt.Errorf("create aid application: %w", err)
	}
	return nil
}

// UpdateApplicationStatus records an approval or rejection decision.
func (r *FinancialAidRepository) UpdateApplicationStatus(ctx context.Context, id, status string, startDate, endDate *time.Time) error {
	const query = `UPDATE financial_aid_applications SET status = $2, start_date = $3, end_date = $4, updated_at = $5 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, status, startDate, endDate, time.Now().UTC()); err != nil {
		return fmt.Errorf("update aid application status: %w", err)
	}
	return nil
}
