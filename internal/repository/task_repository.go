package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/ppa-crm/internal/access"
	"github.com/spec-kit/ppa-crm/internal/domain"
)

// TaskFilter captures task list parameters.
type TaskFilter struct {
	Scope     access.Scope
	LeadID    *string
	Status    *domain.TaskStatus
	Priority  *domain.Priority
	DueBefore *time.Time
	Limit     int
	Offset    int
}

// TaskRepository persists lead follow-up tasks.
type TaskRepository interface {
	Create(ctx context.Context, task *domain.Task) error
	Update(ctx context.Context, task *domain.Task) error
	GetByID(ctx context.Context, id string) (*domain.Task, error)
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, filter TaskFilter) ([]domain.Task, error)
}

const taskColumns = `id, lead_id, assigned_to_id, title, description, priority, status, due_date, completed_at, created_at, updated_at`

type taskRepository struct {
	pool *pgxpool.Pool
}

// NewTaskRepository constructs repository.
func NewTaskRepository(pool *pgxpool.Pool) TaskRepository {
	return &taskRepository{pool: pool}
}

func (r *taskRepository) Create(ctx context.Context, task *domain.Task) error {
	const query = `
        INSERT INTO tasks (lead_id, assigned_to_id, title, description, priority, status, due_date)
        VALUES ($1,$2,$3,$4,$5,$6,$7)
        RETURNING id, created_at, updated_at`
	return getDB(ctx, r.pool).QueryRow(ctx, query,
		task.LeadID,
		task.AssignedToID,
		task.Title,
		task.Description,
		task.Priority,
		task.Status,
		task.DueDate,
	).Scan(&task.ID, &task.CreatedAt, &task.UpdatedAt)
}

func (r *taskRepository) Update(ctx context.Context, task *domain.Task) error {
	const query = `
        UPDATE tasks SET assigned_to_id=$1, title=$2, description=$3, priority=$4, status=$5,
            due_date=$6, completed_at=$7, updated_at=NOW()
        WHERE id=$8
        RETURNING updated_at`
	return getDB(ctx, r.pool).QueryRow(ctx, query,
		task.AssignedToID,
		task.Title,
		task.Description,
		task.Priority,
		task.Status,
		task.DueDate,
		task.CompletedAt,
		task.ID,
	).Scan(&task.UpdatedAt)
}

func (r *taskRepository) GetByID(ctx context.Context, id string) (*domain.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE id=$1`
	return scanTask(getDB(ctx, r.pool).QueryRow(ctx, query, id))
}

func (r *taskRepository) Delete(ctx context.Context, id string) error {
	cmd, err := getDB(ctx, r.pool).Exec(ctx, `DELETE FROM tasks WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *taskRepository) List(ctx context.Context, filter TaskFilter) ([]domain.Task, error) {
	args := []any{}
	clauses := []string{scopeClause(filter.Scope, "assigned_to_id", &args)}

	if filter.LeadID != nil {
		args = append(args, *filter.LeadID)
		clauses = append(clauses, fmt.Sprintf("lead_id=$%d", len(args)))
	}
	if filter.Status != nil {
		args = append(args, *filter.Status)
		clauses = append(clauses, fmt.Sprintf("status=$%d", len(args)))
	}
	if filter.Priority != nil {
		args = append(args, *filter.Priority)
		clauses = append(clauses, fmt.Sprintf("priority=$%d", len(args)))
	}
	if filter.DueBefore != nil {
		args = append(args, *filter.DueBefore)
		clauses = append(clauses, fmt.Sprintf("due_date <= $%d", len(args)))
	}

	limit, offset := normalizePage(filter.Limit, filter.Offset, 100)
	query := fmt.Sprintf(`SELECT %s FROM tasks WHERE %s
        ORDER BY status ASC, due_date ASC NULLS LAST, created_at DESC LIMIT %d OFFSET %d`,
		taskColumns, strings.Join(clauses, " AND "), limit, offset)

	rows, err := getDB(ctx, r.pool).Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Task
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *task)
	}
	return result, rows.Err()
}

func scanTask(row pgx.Row) (*domain.Task, error) {
	var task domain.Task
	if err := row.Scan(
		&task.ID,
		&task.LeadID,
		&task.AssignedToID,
		&task.Title,
		&task.Description,
		&task.Priority,
		&task.Status,
		&task.DueDate,
		&task.CompletedAt,
		&task.CreatedAt,
		&task.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &task, nil
}
