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

// ProgrammeRepository provides database access for academic programmes.
type ProgrammeRepository struct {
	db *sqlx.DB
}

// NewProgrammeRepository creates a new instance of ProgrammeRepository.
func NewProgrammeRepository(db *sqlx.DB) *ProgrammeRepository {
	return &ProgrammeRepository{db: db}
}

// FindByID returns a programme by identifier.
func (r *ProgrammeRepository) FindByID(ctx context.Context, id string) (*models.Programme, error) {
	const query = `SELECT id, name, description, created_at, updated_at FROM programmes WHERE id = $1 LIMIT 1`
	var programme models.Programme
	if err := r.db.GetContext(ctx, &programme, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find programme by id: %w", err)
	}
	return &programme, nil
}

// List returns programmes matching the search with total count.
func (r *ProgrammeRepository) List(ctx context.Context, search string, page, pageSize int) ([]models.Programme, int, error) {
	baseQuery := `FROM programmes WHERE 1=1`
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

	var programmes []models.Programme
	if err := r.db.SelectContext(ctx, &programmes, listQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("list programmes: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", baseQuery)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count programmes: %w", err)
	}

	return programmes, total, nil
}

// Create inserts a new programme.
func (r *ProgrammeRepository) Create(ctx context.Context, programme *models.Programme) error {
	if programme.ID == "" {
		programme.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	programme.CreatedAt = now
	programme.UpdatedAt = now

	const query = `INSERT INTO programmes (id, name, description, created_at, updated_at) VALUES (:id, :name, :description, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, programme); err != nil {
		return fmt.Errorf("create programme: %w", err)
	}
	return nil
}

// Update updates mutable fields of a programme.
func (r *ProgrammeRepository) Update(ctx context.Context, programme *models.Programme) error {
	programme.UpdatedAt = time.Now().UTC()
	const query = `UPDATE programmes SET name = :name, description = :description, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, programme); err != nil {
		return fmt.Errorf("update programme: %w", err)
	}
	return nil
}

// Delete removes a programme.
func (r *ProgrammeRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM programmes WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("delete programme: %w", err)
	}
	return nil
}
