package models

// StudentBillStats aggregates one student's billing position.
type StudentBillStats struct {
	BillCount        int   `db:"bill_count" json:"billCount"`
	PaidBillCount    int   `db:"paid_bill_count" json:"paidBillCount"`
	UnpaidBillCount  int   `db:"unpaid_bill_count" json:"unpaidBillCount"`
	OverdueBillCount int   `db:"overdue_bill_count" json:"overdueBillCount"`
	TotalBills       int64 `db:"total_bills" json:"totalBills"`
	TotalPaid        int64 `db:"total_paid" json:"totalPaid"`
	TotalOverdue     int64 `db:"total_overdue" json:"totalOverDue"`
	TotalUnpaid      int64 `db:"total_unpaid" json:"totalUnpaid"`
	TotalDiscounted  int64 `db:"total_discounted" json:"totalDiscounted"`
}

// StudentPaymentStats aggregates one student's payment history.
type StudentPaymentStats struct {
	PaymentCount  int    `db:"payment_count" json:"paymentCount"`
	PendingCount  int    `db:"pending_count" json:"pendingCount"`
	FailedCount   int    `db:"failed_count" json:"failedCount"`
	TotalSettled  int64  `db:"total_settled" json:"totalSettled"`
	LastPaymentAt *int64 `db:"last_payment_at" json:"lastPaymentAt,omitempty"`
}

// StudentDashboardStats is the student dashboard payload.
type StudentDashboardStats struct {
	BillStats    StudentBillStats    `json:"billStats"`
	PaymentStats StudentPaymentStats `json:"paymentStats"`
}

// AdminDashboardStats aggregates portal-wide billing figures.
type AdminDashboardStats struct {
	StudentCount        int   `db:"student_count" json:"studentCount"`
	BillCount           int   `db:"bill_count" json:"billCount"`
	PaymentCount        int   `db:"payment_count" json:"paymentCount"`
	PendingApplications int   `db:"pending_applications" json:"pendingApplications"`
	TotalBilled         int64 `db:"total_billed" json:"totalBilled"`
	TotalCollected      int64 `db:"total_collected" json:"totalCollected"`
	TotalOutstanding    int64 `db:"total_outstanding" json:"totalOutstanding"`
	TotalDiscounted     int64 `db:"total_discounted" json:"totalDiscounted"`
}
