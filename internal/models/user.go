package models

import (
	"encoding/json"
	"time"
)

// UserRole is the coarse-grained access category of a portal account.
type UserRole string

const (
	RoleStudent    UserRole = "student"
	RoleAdmin      UserRole = "admin"
	RoleSuperAdmin UserRole = "super-admin"
)

// Permission tags grant fine-grained admin capabilities. Super-admins
// bypass the permission set entirely.
const (
	PermStudentManagement       = "STUDENT_MANAGEMENT"
	PermUserManagement          = "USER_MANAGEMENT"
	PermProgrammeManagement     = "PROGRAMME_MANAGEMENT"
	PermFeeAndDuesManagement    = "FEE_AND_DUES_MANAGEMENT"
	PermTransactionManagement   = "TRANSACTION_MANAGEMENT"
	PermPaymentManagement       = "PAYMENT_MANAGEMENT"
	PermFinancialAidGrades      = "FINANCIAL_AID_GRADES_MANAGEMENT"
	PermBillDiscountsManagement = "BILL_DISCOUNTS_MANAGEMENT"
	PermFinancialAidManagement  = "FINANCIAL_AID_MANAGEMENT"
	PermSupportAndHelpCenter    = "SUPPORT_AND_HELP_CENTER"
)

// AllPermissions enumerates every known permission tag.
var AllPermissions = []string{
	PermStudentManagement,
	PermUserManagement,
	PermProgrammeManagement,
	PermFeeAndDuesManagement,
	PermTransactionManagement,
	PermPaymentManagement,
	PermFinancialAidGrades,
	PermBillDiscountsManagement,
	PermFinancialAidManagement,
	PermSupportAndHelpCenter,
}

// StudentDetails is the profile attached to student accounts.
type StudentDetails struct {
	FirstName   string     `json:"first_name"`
	LastName    string     `json:"last_name"`
	MiddleName  string     `json:"middle_name,omitempty"`
	Gender      string     `json:"gender"`
	PhoneNumber string     `json:"phone_number"`
	Nationality string     `json:"nationality"`
	DateOfBirth *time.Time `json:"date_of_birth,omitempty"`
	Address     string     `json:"address"`
	ZipCode     string     `json:"zip_code"`
	City        string     `json:"city"`
	State       string     `json:"state"`
	Country     string     `json:"country"`
	StudentID   string     `json:"student_id"`
	ProgrammeID *string    `json:"programme_id,omitempty"`
	Programme   string     `json:"programme,omitempty"`
}

// AdminDetails is the profile attached to admin and super-admin accounts.
type AdminDetails struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

// User is a portal account. Exactly one of StudentDetails/AdminDetails is
// populated, matching Role.
type User struct {
	ID           string          `db:"id" json:"id"`
	Email        string          `db:"email" json:"email"`
	PasswordHash string          `db:"password_hash" json:"-"`
	Role         UserRole        `db:"role" json:"role"`
	Permissions  PermissionSet   `db:"permissions" json:"permissions"`
	Details      json.RawMessage `db:"details" json:"details"`
	Active       bool            `db:"active" json:"active"`
	LastLogin    *time.Time      `db:"last_login" json:"last_login,omitempty"`
	CreatedAt    time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time       `db:"updated_at" json:"updated_at"`
}

// StudentDetails decodes the details union for student accounts.
func (u *User) StudentDetails() (*StudentDetails, error) {
	if u.Role != RoleStudent {
		return nil, nil
	}
	var d StudentDetails
	if err := json.Unmarshal(u.Details, &d); err != nil {
		return nil, err
	}
	return &d, nil
}

// AdminDetails decodes the details union for admin accounts.
func (u *User) AdminDetails() (*AdminDetails, error) {
	if u.Role == RoleStudent {
		return nil, nil
	}
	var d AdminDetails
	if err := json.Unmarshal(u.Details, &d); err != nil {
		return nil, err
	}
	return &d, nil
}

// UserFilter captures filtering criteria for listing accounts.
type UserFilter struct {
	Role      *UserRole
	Active    *bool
	Search    string
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}

// Pagination contains pagination metadata returned in list responses.
type Pagination struct {
	Page  int `json:"page"`
	Count int `json:"count"`
	Total int `json:"total"`
}
