package models

import "time"

// BillType categorises bills (tuition, accommodation, dues, ...).
type BillType struct {
	ID          string    `db:"id" json:"id"`
	Name        string    `db:"name" json:"name"`
	Description string    `db:"description" json:"description"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// Bill is a charge levied against students.
type Bill struct {
	ID                   string    `db:"id" json:"id"`
	Name                 string    `db:"name" json:"name"`
	AmountDue            int64     `db:"amount_due" json:"amount_due"`
	DueDate              time.Time `db:"due_date" json:"due_date"`
	InstallmentSupported bool      `db:"installment_supported" json:"installment_supported"`
	MaxInstallments      int       `db:"max_installments" json:"max_installments"`
	BillTypeID           string    `db:"bill_type_id" json:"bill_type_id"`
	BillType             string    `db:"bill_type" json:"bill_type"`
	CreatedAt            time.Time `db:"created_at" json:"created_at"`
	UpdatedAt            time.Time `db:"updated_at" json:"updated_at"`
}

// BillFilter captures list criteria for bills.
type BillFilter struct {
	BillTypeID string
	Search     string
	Page       int
	PageSize   int
	SortBy     string
	SortOrder  string
}

// Discount is a named reduction applied to a student's bill.
type Discount struct {
	Name   string `db:"name" json:"name"`
	Amount int64  `db:"amount" json:"amount"`
}

// BillPayment is one settled or pending payment against a user's bill.
type BillPayment struct {
	Amount int64  `db:"amount" json:"amount"`
	Type   string `db:"type" json:"type"`
	Status string `db:"status" json:"status"`
}

// UserBill is a bill viewed through one student's ledger: the base charge
// plus their discounts, their payments and what remains.
type UserBill struct {
	Bill
	Discounts        []Discount    `json:"discounts"`
	Payments         []BillPayment `json:"payments"`
	RemainingBalance int64         `json:"remaining_balance"`
}
