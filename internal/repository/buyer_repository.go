package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/ppa-crm/internal/domain"
)

// BuyerRepository defines persistence access for marketplace buyers.
type BuyerRepository interface {
	Create(ctx context.Context, buyer *domain.Buyer) error
	GetByID(ctx context.Context, id string) (*domain.Buyer, error)
	GetByEmail(ctx context.Context, email string) (*domain.Buyer, error)
	List(ctx context.Context, search string, limit, offset int) ([]domain.Buyer, error)
}

const buyerColumns = `id, email, password_hash, company_name, first_name, last_name, location, state, mobile, created_at, updated_at`

type buyerRepository struct {
	pool *pgxpool.Pool
}

// NewBuyerRepository returns a Postgres-backed implementation.
func NewBuyerRepository(pool *pgxpool.Pool) BuyerRepository {
	return &buyerRepository{pool: pool}
}

func (r *buyerRepository) Create(ctx context.Context, buyer *domain.Buyer) error {
	const query = `
        INSERT INTO users (email, password_hash, company_name, first_name, last_name, location, state, mobile)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
        RETURNING id, created_at, updated_at`

	err := getDB(ctx, r.pool).QueryRow(ctx, query,
		buyer.Email,
		buyer.PasswordHash,
		buyer.CompanyName,
		buyer.FirstName,
		buyer.LastName,
		buyer.Location,
		buyer.State,
		buyer.Mobile,
	).Scan(&buyer.ID, &buyer.CreatedAt, &buyer.UpdatedAt)
	if isUniqueViolation(err, "") {
		return ErrDuplicate
	}
	return err
}

func (r *buyerRepository) GetByID(ctx context.Context, id string) (*domain.Buyer, error) {
	query := `SELECT ` + buyerColumns + ` FROM users WHERE id=$1`
	return scanBuyer(getDB(ctx, r.pool).QueryRow(ctx, query, id))
}

func (r *buyerRepository) GetByEmail(ctx context.Context, email string) (*domain.Buyer, error) {
	query := `SELECT ` + buyerColumns + ` FROM users WHERE LOWER(email)=LOWER($1)`
	return scanBuyer(getDB(ctx, r.pool).QueryRow(ctx, query, email))
}

func (r *buyerRepository) List(ctx context.Context, search string, limit, offset int) ([]domain.Buyer, error) {
	query := `SELECT ` + buyerColumns + ` FROM users`
	args := []any{}
	if term := strings.TrimSpace(search); term != "" {
		query += " WHERE " + searchClause(term, &args, "email", "company_name", "first_name")
	}
	limit, offset = normalizePage(limit, offset, 50)
	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT %d OFFSET %d", limit, offset)

	rows, err := getDB(ctx, r.pool).Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Buyer
	for rows.Next() {
		buyer, err := scanBuyer(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *buyer)
	}
	return result, rows.Err()
}

func scanBuyer(row pgx.Row) (*domain.Buyer, error) {
	var buyer domain.Buyer
	if err := row.Scan(
		&buyer.ID,
		&buyer.Email,
		&buyer.PasswordHash,
		&buyer.CompanyName,
		&buyer.FirstName,
		&buyer.LastName,
		&buyer.Location,
		&buyer.State,
		&buyer.Mobile,
		&buyer.CreatedAt,
		&buyer.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &buyer, nil
}
