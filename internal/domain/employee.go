package domain

import "time"

// Role enumerates employee roles, narrowest first.
type Role string

const (
	RoleAgent      Role = "agent"
	RoleManager    Role = "manager"
	RoleSuperAdmin Role = "super_admin"
)

// Roles lists every valid role.
var Roles = []Role{RoleAgent, RoleManager, RoleSuperAdmin}

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	switch r {
	case RoleAgent, RoleManager, RoleSuperAdmin:
		return true
	}
	return false
}

// Supervises reports whether the role may act on other employees' work.
func (r Role) Supervises() bool {
	return r == RoleManager || r == RoleSuperAdmin
}

// rank orders roles for demotion checks.
func (r Role) rank() int {
	switch r {
	case RoleAgent:
		return 1
	case RoleManager:
		return 2
	case RoleSuperAdmin:
		return 3
	}
	return 0
}

// Below reports whether r is a strictly lower role than other.
func (r Role) Below(other Role) bool {
	return r.rank() < other.rank()
}

// Employee is an internal CRM user. Only agents carry a ManagerID.
type Employee struct {
	ID           string
	Email        string
	PasswordHash string
	FirstName    string
	LastName     string
	Phone        *string
	Role         Role
	ManagerID    *string
	Active       bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// FullName joins first and last name.
func (e *Employee) FullName() string {
	if e.LastName == "" {
		return e.FirstName
	}
	return e.FirstName + " " + e.LastName
}

// ReportsTo reports whether e is a direct report of managerID.
func (e *Employee) ReportsTo(managerID string) bool {
	return e != nil && e.ManagerID != nil && *e.ManagerID == managerID
}
