package auth

import (
	"context"
	"errors"

	"github.com/spec-kit/ppa-crm/internal/config"
	"github.com/spec-kit/ppa-crm/internal/domain"
	apperrors "github.com/spec-kit/ppa-crm/pkg/util"
)

// ErrEmployeeInactive is returned when an employee token belongs to a missing or deactivated account.
var ErrEmployeeInactive = apperrors.NewUnauthorized("employee account not found or inactive")

// EmployeeLookup reads the current employee record.
type EmployeeLookup interface {
	GetByID(ctx context.Context, id string) (*domain.Employee, error)
}

// Resolver turns a raw session token into an Identity.
type Resolver struct {
	tokens    *TokenManager
	employees EmployeeLookup
	admin     config.AdminConfig
}

// NewResolver constructs a resolver.
func NewResolver(tokens *TokenManager, employees EmployeeLookup, admin config.AdminConfig) *Resolver {
	return &Resolver{tokens: tokens, employees: employees, admin: admin}
}

// Resolve decodes the token and validates it against current state.
// Undecodable, expired or foreign tokens resolve to Anonymous with a nil error.
// An employee token for a missing or inactive account resolves to Anonymous
// with ErrEmployeeInactive. Storage failures are returned as internal errors.
func (r *Resolver) Resolve(ctx context.Context, token string) (Identity, error) {
	if token == "" {
		return Anonymous(), nil
	}
	claims, err := r.tokens.ParseToken(token)
	if err != nil {
		return Anonymous(), nil
	}

	switch claims.Kind {
	case domain.SubjectTypeBuyer:
		return BuyerIdentity(claims.Subject, claims.Email), nil
	case domain.SubjectTypeEmployee:
		employee, err := r.employees.GetByID(ctx, claims.Subject)
		if err != nil {
			if apperrors.IsNotFound(err) {
				return Anonymous(), ErrEmployeeInactive
			}
			return Anonymous(), apperrors.NewInternalError(err)
		}
		if !employee.Active || !employee.Role.Valid() {
			return Anonymous(), ErrEmployeeInactive
		}
		return EmployeeIdentity(employee), nil
	case domain.SubjectTypeAdmin:
		if r.admin.Email == "" || r.admin.PasswordHash == "" || claims.Email != r.admin.Email {
			return Anonymous(), nil
		}
		return AdminIdentity(claims.Email), nil
	}
	return Anonymous(), nil
}

// IsInactive reports whether err marks a deactivated employee credential.
func IsInactive(err error) bool {
	return errors.Is(err, ErrEmployeeInactive)
}
