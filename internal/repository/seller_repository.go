package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/ppa-crm/internal/domain"
)

// SellerRepository persists marketplace sellers.
type SellerRepository interface {
	Create(ctx context.Context, seller *domain.Seller) error
	Update(ctx context.Context, seller *domain.Seller) error
	GetByID(ctx context.Context, id string) (*domain.Seller, error)
	List(ctx context.Context, status *domain.SellerStatus, limit, offset int) ([]domain.Seller, error)
	Delete(ctx context.Context, id string) error
}

const sellerColumns = `id, company_name, contact_person, contact_email, contact_phone, project_type, capacity,
               location, state, asking_price, status, created_at, updated_at`

type sellerRepository struct {
	pool *pgxpool.Pool
}

// NewSellerRepository constructs repository.
func NewSellerRepository(pool *pgxpool.Pool) SellerRepository {
	return &sellerRepository{pool: pool}
}

func (r *sellerRepository) Create(ctx context.Context, seller *domain.Seller) error {
	const query = `
        INSERT INTO sellers (company_name, contact_person, contact_email, contact_phone, project_type, capacity,
            location, state, asking_price, status)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
        RETURNING id, created_at, updated_at`
	return getDB(ctx, r.pool).QueryRow(ctx, query,
		seller.CompanyName,
		seller.ContactPerson,
		seller.ContactEmail,
		seller.ContactPhone,
		seller.ProjectType,
		seller.Capacity,
		seller.Location,
		seller.State,
		seller.AskingPrice,
		seller.Status,
	).Scan(&seller.ID, &seller.CreatedAt, &seller.UpdatedAt)
}

func (r *sellerRepository) Update(ctx context.Context, seller *domain.Seller) error {
	const query = `
        UPDATE sellers SET company_name=$1, contact_person=$2, contact_email=$3, contact_phone=$4,
            project_type=$5, capacity=$6, location=$7, state=$8, asking_price=$9, status=$10, updated_at=NOW()
        WHERE id=$11
        RETURNING updated_at`
	return getDB(ctx, r.pool).QueryRow(ctx, query,
		seller.CompanyName,
		seller.ContactPerson,
		seller.ContactEmail,
		seller.ContactPhone,
		seller.ProjectType,
		seller.Capacity,
		seller.Location,
		seller.State,
		seller.AskingPrice,
		seller.Status,
		seller.ID,
	).Scan(&seller.UpdatedAt)
}

func (r *sellerRepository) GetByID(ctx context.Context, id string) (*domain.Seller, error) {
	query := `SELECT ` + sellerColumns + ` FROM sellers WHERE id=$1`
	return scanSeller(getDB(ctx, r.pool).QueryRow(ctx, query, id))
}

func (r *sellerRepository) List(ctx context.Context, status *domain.SellerStatus, limit, offset int) ([]domain.Seller, error) {
	query := `SELECT ` + sellerColumns + ` FROM sellers`
	args := []any{}
	if status != nil {
		args = append(args, *status)
		query += " WHERE status=$1"
	}
	limit, offset = normalizePage(limit, offset, 50)
	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT %d OFFSET %d", limit, offset)

	rows, err := getDB(ctx, r.pool).Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Seller
	for rows.Next() {
		seller, err := scanSeller(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *seller)
	}
	return result, rows.Err()
}

func (r *sellerRepository) Delete(ctx context.Context, id string) error {
	cmd, err := getDB(ctx, r.pool).Exec(ctx, `DELETE FROM sellers WHERE id=$1`, id)
	if isForeignKeyViolation(err) {
		return ErrReferenced
	}
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func scanSeller(row pgx.Row) (*domain.Seller, error) {
	var seller domain.Seller
	if err := row.Scan(
		&seller.ID,
		&seller.CompanyName,
		&seller.ContactPerson,
		&seller.ContactEmail,
		&seller.ContactPhone,
		&seller.ProjectType,
		&seller.Capacity,
		&seller.Location,
		&seller.State,
		&seller.AskingPrice,
		&seller.Status,
		&seller.CreatedAt,
		&seller.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &seller, nil
}
