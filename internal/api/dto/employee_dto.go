package dto

import (
	"time"

	"github.com/spec-kit/ppa-crm/internal/domain"
)

// CreateEmployeeRequest payload.
type CreateEmployeeRequest struct {
	Email     string      `json:"email" validate:"required,email"`
	Password  string      `json:"password" validate:"required,min=8"`
	FirstName string      `json:"firstName" validate:"required"`
	LastName  string      `json:"lastName"`
	Phone     *string     `json:"phone"`
	Role      domain.Role `json:"role" validate:"required,oneof=agent manager super_admin"`
	ManagerID *string     `json:"managerId"`
}

// UpdateEmployeeRequest payload. Absent fields are left unchanged; an empty
// managerId detaches the employee from their manager.
type UpdateEmployeeRequest struct {
	FirstName *string      `json:"firstName" validate:"omitempty,min=1"`
	LastName  *string      `json:"lastName"`
	Phone     *string      `json:"phone"`
	Role      *domain.Role `json:"role" validate:"omitempty,oneof=agent manager super_admin"`
	ManagerID *string      `json:"managerId"`
	IsActive  *bool        `json:"isActive"`
	Password  *string      `json:"password" validate:"omitempty,min=8"`
}

// EmployeeResponse is an employee without credentials.
type EmployeeResponse struct {
	ID        string      `json:"id"`
	Email     string      `json:"email"`
	FirstName string      `json:"firstName"`
	LastName  string      `json:"lastName"`
	Phone     *string     `json:"phone"`
	Role      domain.Role `json:"role"`
	ManagerID *string     `json:"managerId"`
	IsActive  bool        `json:"isActive"`
	CreatedAt time.Time   `json:"createdAt"`
	UpdatedAt time.Time   `json:"updatedAt"`
}

// EmployeeProfileResponse is the signed-in employee with their reporting line.
type EmployeeProfileResponse struct {
	EmployeeResponse
	Manager     *EmployeeResponse  `json:"manager"`
	TeamMembers []EmployeeResponse `json:"teamMembers"`
}
