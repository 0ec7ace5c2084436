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

// BillTypeRepository provides database access for bill categories.
type BillTypeRepository struct {
	db *sqlx.DB
}

// NewBillTypeRepository creates a new instance of BillTypeRepository.
func NewBillTypeRepository(db *sqlx.DB) *BillTypeRepository {
	return &BillTypeRepository{db: db}
}

// FindByID returns a bill type by identifier.
func (r *BillTypeRepository) FindByID(ctx context.Context, id string) (*models.BillType, error) {
	const query = `SELECT id, name, description, created_at, updated_at FROM bill_types WHERE id = $1 LIMIT 1`
	var billType models.BillType
	if err := r.db.GetContext(ctx, &billType, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find bill type by id: %w", err)
	}
	return &billType, nil
}

// List returns bill types matching the search with total count.
func (r *BillTypeRepository) List(ctx context.Context, search string, page, pageSize int) ([]models.BillType, int, error) {
	baseQuery := `FROM bill_types WHERE 1=1`
	var args []interface{}

	if search != "" {
		baseQuery += fmt.Sprintf(" AND LOWER(name) LIKE $%d", len(args)+1)
		args = append(args, "%"+strings.ToLower(search)+"%")
	}

	if page < 1 {
		page = 1
	}
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 20
	}
	offset := (page - 1) * pageSize

	listQuery := fmt.Sprintf("SELECT id, name, description, created_at, updated_at %s ORDER BY name ASC LIMIT %d OFFSET %d", baseQuery, pageSize, offset)

	var billTypes []models.BillType
	if err := r.db.SelectContext(ctx, &billTypes, listQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("list bill types: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", baseQuery)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count bill types: %w", err)
	}

	return billTypes, total, nil
}

// Create inserts a new bill type.
func (r *BillTypeRepository) Create(ctx context.Context, billType *models.BillType) error {
	if billType.ID == "" {
		billType.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	billType.CreatedAt = now
	billType.UpdatedAt = now

	const query = `INSERT INTO bill_types (id, name, description, created_at, updated_at) VALUES (:id, :name, :description, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, billType); err != nil {
		return fmt.Errorf("create bill type: %w", err)
	}
	return nil
}

// Update updates mutable fields of a bill type.
func (r *BillTypeRepository) Update(ctx context.Context, billType *models.BillType) error {
	billType.UpdatedAt = time.Now().UTC()
	const query = `UPDATE bill_types SET name = :name, description = :description, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, billType); err != nil {
		return fmt.Errorf("update bill type: %w", err)
	}
	return nil
}

// Delete removes a bill type.
func (r *BillTypeRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM bill_types WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("delete bill type: %w", err)
	}
	return nil
}
