package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/ppa-crm/internal/domain"
)

// EmployeeRepository handles persistence for CRM employees.
type EmployeeRepository interface {
	Create(ctx context.Context, employee *domain.Employee) error
	Update(ctx context.Context, employee *domain.Employee) error
	GetByID(ctx context.Context, id string) (*domain.Employee, error)
	GetByEmail(ctx context.Context, email string) (*domain.Employee, error)
	List(ctx context.Context, filter EmployeeFilter) ([]domain.Employee, error)
	ListReportIDs(ctx context.Context, managerID string) ([]string, error)
}

// EmployeeFilter defines query params for employee listing.
type EmployeeFilter struct {
	Role      *domain.Role
	ManagerID *string
	// SelfOrReportsOf restricts the list to the manager and their direct reports.
	SelfOrReportsOf *string
	Active          *bool
	Limit           int
	Offset          int
}

const employeeColumns = `id, email, password_hash, first_name, last_name, phone, role, manager_id, active_flag, created_at, updated_at`

type employeeRepository struct {
	pool *pgxpool.Pool
}

// NewEmployeeRepository instantiates the repository.
func NewEmployeeRepository(pool *pgxpool.Pool) EmployeeRepository {
	return &employeeRepository{pool: pool}
}

func (r *employeeRepository) Create(ctx context.Context, employee *domain.Employee) error {
	const query = `
        INSERT INTO employees (email, password_hash, first_name, last_name, phone, role, manager_id, active_flag)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
        RETURNING id, created_at, updated_at`

	err := getDB(ctx, r.pool).QueryRow(ctx, query,
		employee.Email,
		employee.PasswordHash,
		employee.FirstName,
		employee.LastName,
		employee.Phone,
		employee.Role,
		employee.ManagerID,
		employee.Active,
	).Scan(&employee.ID, &employee.CreatedAt, &employee.UpdatedAt)
	if isUniqueViolation(err, "") {
		return ErrDuplicate
	}
	return err
}

func (r *employeeRepository) Update(ctx context.Context, employee *domain.Employee) error {
	const query = `
        UPDATE employees
        SET email=$1, password_hash=$2, first_name=$3, last_name=$4, phone=$5, role=$6, manager_id=$7, active_flag=$8, updated_at=NOW()
        WHERE id=$9
        RETURNING updated_at`

	err := getDB(ctx, r.pool).QueryRow(ctx, query,
		employee.Email,
		employee.PasswordHash,
		employee.FirstName,
		employee.LastName,
		employee.Phone,
		employee.Role,
		employee.ManagerID,
		employee.Active,
		employee.ID,
	).Scan(&employee.UpdatedAt)
	if isUniqueViolation(err, "") {
		return ErrDuplicate
	}
	return err
}

func (r *employeeRepository) GetByID(ctx context.Context, id string) (*domain.Employee, error) {
	query := `SELECT ` + employeeColumns + ` FROM employees WHERE id=$1`
	return scanEmployee(getDB(ctx, r.pool).QueryRow(ctx, query, id))
}

func (r *employeeRepository) GetByEmail(ctx context.Context, email string) (*domain.Employee, error) {
	query := `SELECT ` + employeeColumns + ` FROM employees WHERE LOWER(email)=LOWER($1)`
	return scanEmployee(getDB(ctx, r.pool).QueryRow(ctx, query, email))
}

func (r *employeeRepository) List(ctx context.Context, filter EmployeeFilter) ([]domain.Employee, error) {
	query := `SELECT ` + employeeColumns + ` FROM employees`
	args := []any{}
	clauses := []string{}

	if filter.Role != nil {
		args = append(args, *filter.Role)
		clauses = append(clauses, fmt.Sprintf("role=$%d", len(args)))
	}
	if filter.ManagerID != nil {
		args = append(args, *filter.ManagerID)
		clauses = append(clauses, fmt.Sprintf("manager_id=$%d", len(args)))
	}
	if filter.SelfOrReportsOf != nil {
		args = append(args, *filter.SelfOrReportsOf)
		clauses = append(clauses, fmt.Sprintf("(id=$%d OR manager_id=$%d)", len(args), len(args)))
	}
	if filter.Active != nil {
		args = append(args, *filter.Active)
		clauses = append(clauses, fmt.Sprintf("active_flag=$%d", len(args)))
	}
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}

	limit, offset := normalizePage(filter.Limit, filter.Offset, 100)
	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT %d OFFSET %d", limit, offset)

	rows, err := getDB(ctx, r.pool).Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Employee
	for rows.Next() {
		employee, err := scanEmployee(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *employee)
	}
	return result, rows.Err()
}

// ListReportIDs returns the current direct reports of managerID.
func (r *employeeRepository) ListReportIDs(ctx context.Context, managerID string) ([]string, error) {
	rows, err := getDB(ctx, r.pool).Query(ctx, `SELECT id FROM employees WHERE manager_id=$1`, managerID)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowTo[string])
}

func scanEmployee(row pgx.Row) (*domain.Employee, error) {
	var employee domain.Employee
	if err := row.Scan(
		&employee.ID,
		&employee.Email,
		&employee.PasswordHash,
		&employee.FirstName,
		&employee.LastName,
		&employee.Phone,
		&employee.Role,
		&employee.ManagerID,
		&employee.Active,
		&employee.CreatedAt,
		&employee.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &employee, nil
}
