package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/fms-portal-api/internal/models"
)

// StatsRepository computes dashboard aggregates.
type StatsRepository struct {
	db *sqlx.DB
}

// NewStatsRepository creates a new instance of StatsRepository.
func NewStatsRepository(db *sqlx.DB) *StatsRepository {
	return &StatsRepository{db: db}
}

// StudentBillStats aggregates the billing position of one student.
// A bill counts as paid once its settled payments plus active discounts
// cover the amount due, and overdue when unpaid past its due date.
func (r *StatsRepository) StudentBillStats(ctx context.Context, userID string) (*models.StudentBillStats, error) {
	const query = `
		WITH ledger AS (
			SELECT b.id,
			       b.amount_due,
			       b.due_date,
			       COALESCE((
			           SELECT SUM(p.amount) FROM payments p
			           WHERE p.bill_id = b.id AND p.payer_id = ub.user_id AND p.status = 'paid'
			       ), 0) AS paid,
			       COALESCE((
			           SELECT SUM(fad.amount)
			           FROM financial_aid_applications faa
			           JOIN financial_aid_discounts fad ON fad.aid_type_id = faa.aid_type_id
			           WHERE faa.applicant_id = ub.user_id
			             AND fad.bill_type_id = b.bill_type_id
			             AND faa.status = 'approved'
			             AND (faa.start_date IS NULL OR faa.start_date <= NOW())
			             AND (faa.end_date IS NULL OR faa.end_date >= NOW())
			       ), 0) AS discounted
			FROM user_bills ub
			JOIN bills b ON b.id = ub.bill_id
			WHERE ub.user_id = $1
		)
		SELECT COUNT(*) AS bill_count,
		       COUNT(*) FILTER (WHERE paid + discounted >= amount_due) AS paid_bill_count,
		       COUNT(*) FILTER (WHERE paid + discounted < amount_due) AS unpaid_bill_count,
		       COUNT(*) FILTER (WHERE paid + discounted < amount_due AND due_date < NOW()) AS overdue_bill_count,
		       COALESCE(SUM(amount_due), 0) AS total_bills,
		       COALESCE(SUM(paid), 0) AS total_paid,
		       COALESCE(SUM(GREATEST(amount_due - paid - discounted, 0)) FILTER (WHERE due_date < NOW()), 0) AS total_overdue,
		       COALESCE(SUM(GREATEST(amount_due - paid - discounted, 0)), 0) AS total_unpaid,
		       COALESCE(SUM(LEAST(discounted, amount_due)), 0) AS total_discounted
		FROM ledger`

	var stats models.StudentBillStats
	if err := r.db.GetContext(ctx, &stats, query, userID); err != nil {
		return nil, fmt.Errorf("student bill stats: %w", err)
	}
	return &stats, nil
}

// StudentPaymentStats aggregates the payment history of one student.
func (r *StatsRepository) StudentPaymentStats(ctx context.Context, userID string) (*models.StudentPaymentStats, error) {
	const query = `
		SELECT COUNT(*) AS payment_count,
		       COUNT(*) FILTER (WHERE status = 'pending') AS pending_count,
		       COUNT(*) FILTER (WHERE status = 'failed') AS failed_count,
		       COALESCE(SUM(amount) FILTER (WHERE status = 'paid'), 0) AS total_settled,
		       EXTRACT(EPOCH FROM MAX(created_at) FILTER (WHERE status = 'paid'))::BIGINT AS last_payment_at
		FROM payments WHERE payer_id = $1`

	var stats models.StudentPaymentStats
	if err := r.db.GetContext(ctx, &stats, query, userID); err != nil {
		return nil, fmt.Errorf("student payment stats: %w", err)
	}
	return &stats, nil
}

// AdminDashboardStats aggregates portal-wide billing figures.
func (r *StatsRepository) AdminDashboardStats(ctx context.Context) (*models.AdminDashboardStats, error) {
	const query = `
		SELECT (SELECT COUNT(*) FROM users WHERE role = 'student' AND active) AS student_count,
		       (SELECT COUNT(*) FROM bills) AS bill_count,
		       (SELECT COUNT(*) FROM payments) AS payment_count,
		       (SELECT COUNT(*) FROM financial_aid_applications WHERE status = 'pending') AS pending_applications,
		       (SELECT COALESCE(SUM(b.amount_due), 0) FROM user_bills ub JOIN bills b ON b.id = ub.bill_id) AS total_billed,
		       (SELECT COALESCE(SUM(amount), 0) FROM payments WHERE status = 'paid') AS total_collected,
		       (SELECT COALESCE(SUM(b.amount_due), 0) FROM user_bills ub JOIN bills b ON b.id = ub.bill_id)
		           - (SELECT COALESCE(SUM(amount), 0) FROM payments WHERE status = 'paid') AS total_outstanding,
		       (SELECT COALESCE(SUM(fad.amount), 0)
		        FROM financial_aid_applications faa
		        JOIN financial_aid_discounts fad ON fad.aid_type_id = faa.aid_type_id
		        WHERE faa.status = 'approved') AS total_discounted`

	var stats models.AdminDashboardStats
	if err := r.db.GetContext(ctx, &stats, query); err != nil {
		return nil, fmt.Errorf("admin dashboard stats: %w", err)
	}
	return &stats, nil
}
