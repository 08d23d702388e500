package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/ppa-crm/internal/access"
	"github.com/spec-kit/ppa-crm/internal/domain"
)

// ActivityFilter lists activities. Scope applies to the parent lead.
type ActivityFilter struct {
	Scope  access.Scope
	LeadID *string
	Type   *domain.ActivityType
	Limit  int
	Offset int
}

// ActivityRepository persists the lead interaction log.
type ActivityRepository interface {
	Create(ctx context.Context, activity *domain.Activity) error
	Update(ctx context.Context, activity *domain.Activity) error
	GetByID(ctx context.Context, id string) (*domain.Activity, error)
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, filter ActivityFilter) ([]domain.Activity, error)
}

const activityColumns = `id, lead_id, employee_id, type, subject, description, outcome, duration, created_at, updated_at`

type activityRepository struct {
	pool *pgxpool.Pool
}

// NewActivityRepository constructs the repository.
func NewActivityRepository(pool *pgxpool.Pool) ActivityRepository {
	return &activityRepository{pool: pool}
}

func (r *activityRepository) Create(ctx context.Context, activity *domain.Activity) error {
	const query = `
        INSERT INTO activities (lead_id, employee_id, type, subject, description, outcome, duration)
        VALUES ($1,$2,$3,$4,$5,$6,$7)
        RETURNING id, created_at, updated_at`
	return getDB(ctx, r.pool).QueryRow(ctx, query,
		activity.LeadID,
		activity.EmployeeID,
		activity.Type,
		activity.Subject,
		activity.Description,
		activity.Outcome,
		activity.Duration,
	).Scan(&activity.ID, &activity.CreatedAt, &activity.UpdatedAt)
}

// Update rewrites the mutable fields. The type is fixed at creation.
func (r *activityRepository) Update(ctx context.Context, activity *domain.Activity) error {
	const query = `
        UPDATE activities SET subject=$1, description=$2, outcome=$3, duration=$4, updated_at=NOW()
        WHERE id=$5
        RETURNING updated_at`
	return getDB(ctx, r.pool).QueryRow(ctx, query,
		activity.Subject,
		activity.Description,
		activity.Outcome,
		activity.Duration,
		activity.ID,
	).Scan(&activity.UpdatedAt)
}

func (r *activityRepository) GetByID(ctx context.Context, id string) (*domain.Activity, error) {
	query := `SELECT ` + activityColumns + ` FROM activities WHERE id=$1`
	return scanActivity(getDB(ctx, r.pool).QueryRow(ctx, query, id))
}

func (r *activityRepository) Delete(ctx context.Context, id string) error {
	cmd, err := getDB(ctx, r.pool).Exec(ctx, `DELETE FROM activities WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *activityRepository) List(ctx context.Context, filter ActivityFilter) ([]domain.Activity, error) {
	args := []any{}
	leadScope := scopeClause(filter.Scope, "l.assigned_to_id", &args)
	clauses := []string{fmt.Sprintf("lead_id IN (SELECT l.id FROM leads l WHERE %s)", leadScope)}

	if filter.LeadID != nil {
		args = append(args, *filter.LeadID)
		clauses = append(clauses, fmt.Sprintf("lead_id=$%d", len(args)))
	}
	if filter.Type != nil {
		args = append(args, *filter.Type)
		clauses = append(clauses, fmt.Sprintf("type=$%d", len(args)))
	}

	limit, offset := normalizePage(filter.Limit, filter.Offset, 100)
	query := fmt.Sprintf(`SELECT %s FROM activities WHERE %s ORDER BY created_at DESC LIMIT %d OFFSET %d`,
		activityColumns, strings.Join(clauses, " AND "), limit, offset)

	rows, err := getDB(ctx, r.pool).Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Activity
	for rows.Next() {
		activity, err := scanActivity(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *activity)
	}
	return result, rows.Err()
}

func scanActivity(row pgx.Row) (*domain.Activity, error) {
	var activity domain.Activity
	if err := row.Scan(
		&activity.ID,
		&activity.LeadID,
		&activity.EmployeeID,
		&activity.Type,
		&activity.Subject,
		&activity.Description,
		&activity.Outcome,
		&activity.Duration,
		&activity.CreatedAt,
		&activity.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &activity, nil
}
