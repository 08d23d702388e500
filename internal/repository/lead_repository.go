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

// LeadFilter captures CRM lead search parameters. Scope is always applied;
// the other fields narrow it further.
type LeadFilter struct {
	Scope    access.Scope
	Status   *domain.LeadStatus
	Priority *domain.Priority
	Source   *domain.LeadSource
	Search   *string
	Limit    int
	Offset   int
}

// LeadRepository encapsulates lead persistence.
type LeadRepository interface {
	Create(ctx context.Context, lead *domain.Lead) error
	Update(ctx context.Context, lead *domain.Lead) error
	GetByID(ctx context.Context, id string) (*domain.Lead, error)
	List(ctx context.Context, filter LeadFilter) ([]domain.Lead, int64, error)
	Stats(ctx context.Context, scope access.Scope, recentSince time.Time) (domain.LeadStats, error)
}

const leadColumns = `id, company_name, location, state, credit_rating, first_name, last_name, designation,
               mobile1, mobile2, landline, landline2, email1, email2, status, priority, source, remarks,
               estimated_value, assigned_to_id, created_by_id, last_contacted_at, created_at, updated_at`

type leadRepository struct {
	pool *pgxpool.Pool
}

// NewLeadRepository instantiates repository.
func NewLeadRepository(pool *pgxpool.Pool) LeadRepository {
	return &leadRepository{pool: pool}
}

func (r *leadRepository) Create(ctx context.Context, lead *domain.Lead) error {
	const query = `
        INSERT INTO leads (company_name, location, state, credit_rating, first_name, last_name, designation,
            mobile1, mobile2, landline, landline2, email1, email2, status, priority, source, remarks,
            estimated_value, assigned_to_id, created_by_id)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20)
        RETURNING id, created_at, updated_at`
	return getDB(ctx, r.pool).QueryRow(ctx, query,
		lead.CompanyName,
		lead.Location,
		lead.State,
		lead.CreditRating,
		lead.FirstName,
		lead.LastName,
		lead.Designation,
		lead.Mobile1,
		lead.Mobile2,
		lead.Landline,
		lead.Landline2,
		lead.Email1,
		lead.Email2,
		lead.Status,
		lead.Priority,
		lead.Source,
		lead.Remarks,
		lead.EstimatedValue,
		lead.AssignedToID,
		lead.CreatedByID,
	).Scan(&lead.ID, &lead.CreatedAt, &lead.UpdatedAt)
}

func (r *leadRepository) Update(ctx context.Context, lead *domain.Lead) error {
	const query = `
        UPDATE leads SET company_name=$1, location=$2, state=$3, credit_rating=$4, first_name=$5, last_name=$6,
            designation=$7, mobile1=$8, mobile2=$9, landline=$10, landline2=$11, email1=$12, email2=$13,
            status=$14, priority=$15, source=$16, remarks=$17, estimated_value=$18, assigned_to_id=$19,
            last_contacted_at=$20, updated_at=NOW()
        WHERE id=$21
        RETURNING updated_at`
	return getDB(ctx, r.pool).QueryRow(ctx, query,
		lead.CompanyName,
		lead.Location,
		lead.State,
		lead.CreditRating,
		lead.FirstName,
		lead.LastName,
		lead.Designation,
		lead.Mobile1,
		lead.Mobile2,
		lead.Landline,
		lead.Landline2,
		lead.Email1,
		lead.Email2,
		lead.Status,
		lead.Priority,
		lead.Source,
		lead.Remarks,
		lead.EstimatedValue,
		lead.AssignedToID,
		lead.LastContactedAt,
		lead.ID,
	).Scan(&lead.UpdatedAt)
}

func (r *leadRepository) GetByID(ctx context.Context, id string) (*domain.Lead, error) {
	query := `SELECT ` + leadColumns + ` FROM leads WHERE id=$1`
	return scanLead(getDB(ctx, r.pool).QueryRow(ctx, query, id))
}

func (r *leadRepository) List(ctx context.Context, filter LeadFilter) ([]domain.Lead, int64, error) {
	args := []any{}
	clauses := []string{scopeClause(filter.Scope, "assigned_to_id", &args)}

	if filter.Status != nil {
		args = append(args, *filter.Status)
		clauses = append(clauses, fmt.Sprintf("status=$%d", len(args)))
	}
	if filter.Priority != nil {
		args = append(args, *filter.Priority)
		clauses = append(clauses, fmt.Sprintf("priority=$%d", len(args)))
	}
	if filter.Source != nil {
		args = append(args, *filter.Source)
		clauses = append(clauses, fmt.Sprintf("source=$%d", len(args)))
	}
	if filter.Search != nil && strings.TrimSpace(*filter.Search) != "" {
		clauses = append(clauses, searchClause(*filter.Search, &args, "company_name", "first_name", "last_name", "email1", "mobile1"))
	}
	where := strings.Join(clauses, " AND ")

	var total int64
	if err := getDB(ctx, r.pool).QueryRow(ctx, `SELECT COUNT(*) FROM leads WHERE `+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	limit, offset := normalizePage(filter.Limit, filter.Offset, 50)
	query := fmt.Sprintf(`SELECT %s FROM leads WHERE %s ORDER BY updated_at DESC LIMIT %d OFFSET %d`,
		leadColumns, where, limit, offset)

	rows, err := getDB(ctx, r.pool).Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var result []domain.Lead
	for rows.Next() {
		lead, err := scanLead(rows)
		if err != nil {
			return nil, 0, err
		}
		result = append(result, *lead)
	}
	return result, total, rows.Err()
}

// Stats aggregates dashboard figures over the scoped lead set.
func (r *leadRepository) Stats(ctx context.Context, scope access.Scope, recentSince time.Time) (domain.LeadStats, error) {
	stats := domain.LeadStats{
		StatusCounts:   map[domain.LeadStatus]int64{},
		PriorityCounts: map[domain.Priority]int64{},
	}
	args := []any{}
	where := scopeClause(scope, "assigned_to_id", &args)
	db := getDB(ctx, r.pool)

	rows, err := db.Query(ctx, `SELECT status, COUNT(*) FROM leads WHERE `+where+` GROUP BY status`, args...)
	if err != nil {
		return stats, err
	}
	for rows.Next() {
		var status domain.LeadStatus
		var count int64
		if err := rows.Scan(&status, &count); err != nil {
			rows.Close()
			return stats, err
		}
		stats.StatusCounts[status] = count
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return stats, err
	}

	rows, err = db.Query(ctx, `SELECT priority, COUNT(*) FROM leads WHERE `+where+` GROUP BY priority`, args...)
	if err != nil {
		return stats, err
	}
	for rows.Next() {
		var priority domain.Priority
		var count int64
		if err := rows.Scan(&priority, &count); err != nil {
			rows.Close()
			return stats, err
		}
		stats.PriorityCounts[priority] = count
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return stats, err
	}

	totalsArgs := append(append([]any{}, args...), recentSince)
	totals := fmt.Sprintf(`
        SELECT COUNT(*),
               COUNT(*) FILTER (WHERE created_at >= $%d),
               COALESCE(SUM(estimated_value) FILTER (WHERE status NOT IN ('won','lost')), 0)
        FROM leads WHERE %s`, len(totalsArgs), where)
	if err := db.QueryRow(ctx, totals, totalsArgs...).Scan(&stats.TotalLeads, &stats.RecentLeads, &stats.PipelineValue); err != nil {
		return stats, err
	}

	stats.Won = stats.StatusCounts[domain.LeadStatusWon]
	stats.Lost = stats.StatusCounts[domain.LeadStatusLost]
	return stats, nil
}

func scanLead(row pgx.Row) (*domain.Lead, error) {
	var lead domain.Lead
	if err := row.Scan(
		&lead.ID,
		&lead.CompanyName,
		&lead.Location,
		&lead.State,
		&lead.CreditRating,
		&lead.FirstName,
		&lead.LastName,
		&lead.Designation,
		&lead.Mobile1,
		&lead.Mobile2,
		&lead.Landline,
		&lead.Landline2,
		&lead.Email1,
		&lead.Email2,
		&lead.Status,
		&lead.Priority,
		&lead.Source,
		&lead.Remarks,
		&lead.EstimatedValue,
		&lead.AssignedToID,
		&lead.CreatedByID,
		&lead.LastContactedAt,
		&lead.CreatedAt,
		&lead.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &lead, nil
}
