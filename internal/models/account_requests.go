package models

// CreateAdminRequest provisions an admin account.
type CreateAdminRequest struct {
	Email       string   `json:"email" validate:"required,email"`
	Password    string   `json:"password" validate:"required,min=6"`
	FirstName   string   `json:"first_name" validate:"required"`
	LastName    string   `json:"last_name" validate:"required"`
	Permissions []string `json:"permissions" validate:"dive,oneof=STUDENT_MANAGEMENT USER_MANAGEMENT PROGRAMME_MANAGEMENT FEE_AND_DUES_MANAGEMENT TRANSACTION_MANAGEMENT PAYMENT_MANAGEMENT FINANCIAL_AID_GRADES_MANAGEMENT BILL_DISCOUNTS_MANAGEMENT FINANCIAL_AID_MANAGEMENT SUPPORT_AND_HELP_CENTER"`
}

// UpdateAdminRequest updates an admin account.
type UpdateAdminRequest struct {
	FirstName   *string  `json:"first_name,omitempty"`
	LastName    *string  `json:"last_name,omitempty"`
	Permissions []string `json:"permissions,omitempty" validate:"omitempty,dive,oneof=STUDENT_MANAGEMENT USER_MANAGEMENT PROGRAMME_MANAGEMENT FEE_AND_DUES_MANAGEMENT TRANSACTION_MANAGEMENT PAYMENT_MANAGEMENT FINANCIAL_AID_GRADES_MANAGEMENT BILL_DISCOUNTS_MANAGEMENT FINANCIAL_AID_MANAGEMENT SUPPORT_AND_HELP_CENTER"`
	Active      *bool    `json:"active,omitempty"`
}

// CreateStudentRequest provisions a student account.
type CreateStudentRequest struct {
	Email       string  `json:"email" validate:"required,email"`
	Password    string  `json:"password" validate:"required,min=6"`
	FirstName   string  `json:"first_name" validate:"required"`
	LastName    string  `json:"last_name" validate:"required"`
	MiddleName  string  `json:"middle_name"`
	Gender      string  `json:"gender" validate:"omitempty,oneof=male female other"`
	PhoneNumber string  `json:"phone_number"`
	Nationality string  `json:"nationality"`
	Address     string  `json:"address"`
	ZipCode     string  `json:"zip_code"`
	City        string  `json:"city"`
	State       string  `json:"state"`
	Country     string  `json:"country"`
	StudentID   string  `json:"student_id" validate:"required"`
	ProgrammeID *string `json:"programme_id,omitempty"`
}

// UpdateStudentRequest updates a student account profile.
type UpdateStudentRequest struct {
	FirstName   *string `json:"first_name,omitempty"`
	LastName    *string `json:"last_name,omitempty"`
	MiddleName  *string `json:"middle_name,omitempty"`
	Gender      *string `json:"gender,omitempty" validate:"omitempty,oneof=male female other"`
	PhoneNumber *string `json:"phone_number,omitempty"`
	Nationality *string `json:"nationality,omitempty"`
	Address     *string `json:"address,omitempty"`
	ZipCode     *string `json:"zip_code,omitempty"`
	City        *string `json:"city,omitempty"`
	State       *string `json:"state,omitempty"`
	Country     *string `json:"country,omitempty"`
	ProgrammeID *string `json:"programme_id,omitempty"`
	Active      *bool   `json:"active,omitempty"`
}
