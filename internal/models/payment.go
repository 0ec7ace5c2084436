package models

import "time"

// Payment statuses as reported by the gateway.
const (
	PaymentStatusPending  = "pending"
	PaymentStatusPaid     = "paid"
	PaymentStatusFailed   = "failed"
	PaymentStatusRefunded = "refunded"
)

// PaymentCategory groups payment types (full payment, installment, ...).
type PaymentCategory struct {
	ID          string    `db:"id" json:"id"`
	Name        string    `db:"name" json:"name"`
	Description string    `db:"description" json:"description"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// Payment is one transaction against a bill.
type Payment struct {
	ID               string    `db:"id" json:"id"`
	BillID           string    `db:"bill_id" json:"bill_id"`
	BillName         string    `db:"bill_name" json:"bill"`
	PayerID          string    `db:"payer_id" json:"payer_id"`
	Payer            string    `db:"payer" json:"payer"`
	PaymentType      string    `db:"payment_type" json:"payment_type"`
	PaymentReference string    `db:"payment_reference" json:"payment_reference"`
	Status           string    `db:"status" json:"status"`
	PaymentNote      string    `db:"payment_note" json:"payment_note"`
	Amount           int64     `db:"amount" json:"amount"`
	CreatedAt        time.Time `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time `db:"updated_at" json:"updated_at"`
}

// PaymentFilter captures list criteria for payments.
type PaymentFilter struct {
	Status    string
	PayerID   string
	Search    string
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}

// InitiatePaymentRequest starts a gateway checkout for a bill.
type InitiatePaymentRequest struct {
	BillID      string `json:"bill_id" validate:"required"`
	Amount      int64  `json:"amount" validate:"required,gt=0"`
	CategoryID  string `json:"category_id" validate:"required"`
	PaymentNote string `json:"payment_note"`
}

// InitiatePaymentResponse carries the gateway session handed to the popup.
type InitiatePaymentResponse struct {
	AuthorizationURL string `json:"authorization_url"`
	AccessCode       string `json:"access_code"`
	Reference        string `json:"reference"`
}
