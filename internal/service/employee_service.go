package service

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/ppa-crm/internal/access"
	"github.com/spec-kit/ppa-crm/internal/auth"
	"github.com/spec-kit/ppa-crm/internal/config"
	"github.com/spec-kit/ppa-crm/internal/domain"
	"github.com/spec-kit/ppa-crm/internal/repository"
	apperrors "github.com/spec-kit/ppa-crm/pkg/util"
)

// EmployeeListFilter narrows the employee directory.
type EmployeeListFilter struct {
	Role   *domain.Role
	Active *bool
	Page
}

// CreateEmployeeInput holds the fields of a new employee.
type CreateEmployeeInput struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
	Phone     *string
	Role      domain.Role
	ManagerID *string
}

// UpdateEmployeeInput holds optional employee changes. Nil fields are left alone.
type UpdateEmployeeInput struct {
	FirstName    *string
	LastName     *string
	Phone        *string
	Role         *domain.Role
	ManagerID    *string
	ClearManager bool
	Active       *bool
	Password     *string
}

// EmployeeProfile is an employee with their reporting line.
type EmployeeProfile struct {
	Employee *domain.Employee
	Manager  *domain.Employee
	Reports  []domain.Employee
}

// EmployeeService administers CRM employee accounts.
type EmployeeService struct {
	employees  repository.EmployeeRepository
	bcryptCost int
	logger     *zap.Logger
}

// EmployeeDependencies encapsulates requirements for the employee service.
type EmployeeDependencies struct {
	EmployeeRepo repository.EmployeeRepository
	Logger       *zap.Logger
}

// NewEmployeeService builds the service.
func NewEmployeeService(cfg config.Config, deps EmployeeDependencies) *EmployeeService {
	return &EmployeeService{
		employees:  deps.EmployeeRepo,
		bcryptCost: cfg.Auth.BcryptCost,
		logger:     nopIfNil(deps.Logger),
	}
}

// List returns the directory. Managers see themselves and their direct reports.
func (s *EmployeeService) List(ctx context.Context, actor auth.Identity, filter EmployeeListFilter) ([]domain.Employee, error) {
	if err := access.Check(actor, access.ActionListEmployees, access.Target{}); err != nil {
		return nil, err
	}
	repoFilter := repository.EmployeeFilter{
		Role:   filter.Role,
		Active: filter.Active,
		Limit:  filter.Limit,
		Offset: filter.Offset,
	}
	if actor.Role == domain.RoleManager {
		id := actor.ID
		repoFilter.SelfOrReportsOf = &id
	}
	return s.employees.List(ctx, repoFilter)
}

// Me returns the caller with their manager and direct reports.
func (s *EmployeeService) Me(ctx context.Context, actor auth.Identity) (*EmployeeProfile, error) {
	if err := requireEmployee(actor); err != nil {
		return nil, err
	}
	employee, err := s.employees.GetByID(ctx, actor.ID)
	if err != nil {
		return nil, notFound(err, "employee")
	}
	profile := &EmployeeProfile{Employee: employee}
	if employee.ManagerID != nil {
		manager, err := s.employees.GetByID(ctx, *employee.ManagerID)
		if err != nil && !apperrors.IsNotFound(err) {
			return nil, err
		}
		profile.Manager = manager
	}
	if employee.Role == domain.RoleManager {
		id := employee.ID
		reports, err := s.employees.List(ctx, repository.EmployeeFilter{ManagerID: &id})
		if err != nil {
			return nil, err
		}
		profile.Reports = reports
	}
	return profile, nil
}

// Team lists the direct reports of managerID.
func (s *EmployeeService) Team(ctx context.Context, actor auth.Identity, managerID string) ([]domain.Employee, error) {
	if err := access.Check(actor, access.ActionViewTeam, access.Target{EmployeeID: managerID}); err != nil {
		return nil, err
	}
	manager, err := s.employees.GetByID(ctx, managerID)
	if err != nil {
		return nil, notFound(err, "employee")
	}
	if manager.Role != domain.RoleManager {
		return []domain.Employee{}, nil
	}
	return s.employees.List(ctx, repository.EmployeeFilter{ManagerID: &manager.ID})
}

// Create adds an employee.
func (s *EmployeeService) Create(ctx context.Context, actor auth.Identity, input CreateEmployeeInput) (*domain.Employee, error) {
	if err := access.Check(actor, access.ActionCreateEmployee, access.Target{}); err != nil {
		return nil, err
	}
	if !input.Role.Valid() {
		return nil, apperrors.NewValidationError("invalid role", map[string]any{"role": input.Role})
	}
	managerID := trimmed(input.ManagerID)
	if err := s.checkManager(ctx, "", input.Role, managerID); err != nil {
		return nil, err
	}

	hash, err := auth.HashPassword(input.Password, s.bcryptCost)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	employee := &domain.Employee{
		Email:        normalizeEmail(input.Email),
		PasswordHash: hash,
		FirstName:    strings.TrimSpace(input.FirstName),
		LastName:     strings.TrimSpace(input.LastName),
		Phone:        trimmed(input.Phone),
		Role:         input.Role,
		ManagerID:    managerID,
		Active:       true,
	}
	if err := s.employees.Create(ctx, employee); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, apperrors.NewConflict("email already in use", nil)
		}
		return nil, err
	}
	s.logger.Info("employee created", zap.String("employee_id", employee.ID), zap.String("role", string(employee.Role)))
	return employee, nil
}

// Update changes an employee. Self-protection is evaluated before anything is loaded.
func (s *EmployeeService) Update(ctx context.Context, actor auth.Identity, id string, input UpdateEmployeeInput) (*domain.Employee, error) {
	target := access.Target{EmployeeID: id, Deactivate: input.Active != nil && !*input.Active}
	if input.Role != nil {
		target.NewRole = *input.Role
	}
	if err := access.Check(actor, access.ActionUpdateEmployee, target); err != nil {
		return nil, err
	}
	if input.Role != nil && !input.Role.Valid() {
		return nil, apperrors.NewValidationError("invalid role", map[string]any{"role": *input.Role})
	}

	employee, err := s.employees.GetByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "employee")
	}
	leavingManagement := employee.Role == domain.RoleManager && employee.Active &&
		((input.Role != nil && *input.Role != domain.RoleManager) || (input.Active != nil && !*input.Active))
	if leavingManagement {
		if err := s.requireNoReports(ctx, id); err != nil {
			return nil, err
		}
	}
	if input.FirstName != nil {
		employee.FirstName = strings.TrimSpace(*input.FirstName)
	}
	if input.LastName != nil {
		employee.LastName = strings.TrimSpace(*input.LastName)
	}
	if input.Phone != nil {
		employee.Phone = trimmed(input.Phone)
	}
	if input.Role != nil {
		employee.Role = *input.Role
	}
	if input.Active != nil {
		employee.Active = *input.Active
	}
	switch {
	case input.ClearManager:
		employee.ManagerID = nil
	case input.ManagerID != nil:
		employee.ManagerID = trimmed(input.ManagerID)
	}
	if employee.Role != domain.RoleAgent {
		employee.ManagerID = nil
	}
	if input.ManagerID != nil || input.Role != nil {
		if err := s.checkManager(ctx, employee.ID, employee.Role, employee.ManagerID); err != nil {
			return nil, err
		}
	}
	if input.Password != nil && *input.Password != "" {
		hash, err := auth.HashPassword(*input.Password, s.bcryptCost)
		if err != nil {
			return nil, apperrors.NewInternalError(err)
		}
		employee.PasswordHash = hash
	}

	if err := s.employees.Update(ctx, employee); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, apperrors.NewConflict("email already in use", nil)
		}
		return nil, notFound(err, "employee")
	}
	return employee, nil
}

// Deactivate soft-deletes an employee. Their credentials stop resolving on the next request.
func (s *EmployeeService) Deactivate(ctx context.Context, actor auth.Identity, id string) error {
	if err := access.Check(actor, access.ActionDeactivateEmployee, access.Target{EmployeeID: id, Deactivate: true}); err != nil {
		return err
	}
	employee, err := s.employees.GetByID(ctx, id)
	if err != nil {
		return notFound(err, "employee")
	}
	if !employee.Active {
		return nil
	}
	if employee.Role == domain.RoleManager {
		if err := s.requireNoReports(ctx, id); err != nil {
			return err
		}
	}
	employee.Active = false
	if err := s.employees.Update(ctx, employee); err != nil {
		return notFound(err, "employee")
	}
	s.logger.Info("employee deactivated", zap.String("employee_id", id), zap.String("by", actor.ID))
	return nil
}

// requireNoReports refuses to take a manager out of management while agents
// still point at them; their manager_id would dangle.
func (s *EmployeeService) requireNoReports(ctx context.Context, managerID string) error {
	reports, err := s.employees.ListReportIDs(ctx, managerID)
	if err != nil {
		return err
	}
	if len(reports) > 0 {
		return apperrors.NewConflict("reassign this manager's reports first", map[string]any{"reports": len(reports)})
	}
	return nil
}

// checkManager enforces that only agents carry a manager and that it is an active manager.
func (s *EmployeeService) checkManager(ctx context.Context, selfID string, role domain.Role, managerID *string) error {
	if managerID == nil {
		return nil
	}
	if role != domain.RoleAgent {
		return apperrors.NewValidationError("only agents can have a manager", nil)
	}
	if *managerID == selfID {
		return apperrors.NewValidationError("an employee cannot manage themselves", nil)
	}
	manager, err := s.employees.GetByID(ctx, *managerID)
	if err != nil {
		if apperrors.IsNotFound(err) {
			return apperrors.NewValidationError("managerId must reference a manager", nil)
		}
		return err
	}
	if manager.Role != domain.RoleManager || !manager.Active {
		return apperrors.NewValidationError("managerId must reference a manager", nil)
	}
	return nil
}
