package models

import "time"

// Financial-aid application statuses.
const (
	AidStatusPending  = "pending"
	AidStatusApproved = "approved"
	AidStatusRejected = "rejected"
)

// FinancialAidType is a category of aid a student may apply for.
type FinancialAidType struct {
	ID          string    `db:"id" json:"id"`
	Name        string    `db:"name" json:"name"`
	Description string    `db:"description" json:"description"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// FinancialAidDiscount maps an aid type to a reduction on a bill type.
type FinancialAidDiscount struct {
	ID         string    `db:"id" json:"id"`
	Name       string    `db:"name" json:"name"`
	Amount     int64     `db:"amount" json:"amount"`
	AidTypeID  string    `db:"aid_type_id" json:"aid_type_id"`
	AidType    string    `db:"aid_type" json:"aid_type"`
	BillTypeID string    `db:"bill_type_id" json:"bill_type_id"`
	BillType   string    `db:"bill_type" json:"bill_type"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time `db:"updated_at" json:"updated_at"`
}

// FinancialAidApplication is one student's request for aid.
type FinancialAidApplication struct {
	ID                      string     `db:"id" json:"id"`
	ApplicantID             string     `db:"applicant_id" json:"applicant_id"`
	Applicant               string     `db:"applicant" json:"applicant"`
	HouseholdIncome         int64      `db:"household_income" json:"household_income"`
	ReceivedPreviousAid     bool       `db:"received_previous_aid" json:"has_received_previous_financial_aid"`
	BankStatementURL        string     `db:"bank_statement_url" json:"bank_statement_url"`
	CoverLetterURL          string     `db:"cover_letter_url" json:"cover_letter_url"`
	RecommendationLetterURL string     `db:"recommendation_letter_url" json:"letter_of_recommendation_url"`
	Status                  string     `db:"status" json:"status"`
	AidTypeID               string     `db:"aid_type_id" json:"aid_type_id"`
	AidType                 string     `db:"aid_type" json:"type"`
	StartDate               *time.Time `db:"start_date" json:"start_date,omitempty"`
	EndDate                 *time.Time `db:"end_date" json:"end_date,omitempty"`
	CreatedAt               time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt               time.Time  `db:"updated_at" json:"updated_at"`
}

// AidApplicationFilter captures list criteria for applications.
type AidApplicationFilter struct {
	Status      string
	ApplicantID string
	Page        int
	PageSize    int
}

// MyFinancialAidInfo is an approved application with its active discounts,
// shown on the student profile.
type MyFinancialAidInfo struct {
	FinancialAidApplication
	Discounts []FinancialAidDiscount `json:"discounts"`
}
