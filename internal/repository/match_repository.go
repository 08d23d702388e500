package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/ppa-crm/internal/domain"
)

// MatchFilter captures admin match listing parameters.
type MatchFilter struct {
	UserID   *string
	SellerID *string
	Status   *domain.MatchStatus
	Limit    int
	Offset   int
}

// MatchRepository persists buyer/seller matches. Reads always load the seller,
// the buyer summary and the terms agreement if one exists.
type MatchRepository interface {
	Create(ctx context.Context, match *domain.Match) error
	GetByID(ctx context.Context, id string) (*domain.Match, error)
	List(ctx context.Context, filter MatchFilter) ([]domain.Match, error)
	UpdateStatus(ctx context.Context, id string, status domain.MatchStatus) error
	CountOpenBySeller(ctx context.Context, sellerID string) (int64, error)
	Delete(ctx context.Context, id string) error
}

const matchSelect = `
        SELECT m.id, m.user_id, m.seller_id, m.status, m.matched_at, m.updated_at,
               s.id, s.company_name, s.contact_person, s.contact_email, s.contact_phone, s.project_type, s.capacity,
               s.location, s.state, s.asking_price, s.status, s.created_at, s.updated_at,
               u.id, u.email, u.company_name, u.first_name, u.last_name,
               t.id, t.ip_address, t.agreed_at
        FROM matches m
        JOIN sellers s ON s.id = m.seller_id
        JOIN users u ON u.id = m.user_id
        LEFT JOIN terms_agreements t ON t.match_id = m.id`

type matchRepository struct {
	pool *pgxpool.Pool
}

// NewMatchRepository constructs repository.
func NewMatchRepository(pool *pgxpool.Pool) MatchRepository {
	return &matchRepository{pool: pool}
}

func (r *matchRepository) Create(ctx context.Context, match *domain.Match) error {
	const query = `
        INSERT INTO matches (user_id, seller_id, status)
        VALUES ($1,$2,$3)
        RETURNING id, matched_at, updated_at`
	err := getDB(ctx, r.pool).QueryRow(ctx, query, match.UserID, match.SellerID, match.Status).
		Scan(&match.ID, &match.MatchedAt, &match.UpdatedAt)
	if isUniqueViolation(err, "matches_user_seller_key") {
		return ErrDuplicate
	}
	return err
}

func (r *matchRepository) GetByID(ctx context.Context, id string) (*domain.Match, error) {
	return scanMatch(getDB(ctx, r.pool).QueryRow(ctx, matchSelect+` WHERE m.id=$1`, id))
}

func (r *matchRepository) List(ctx context.Context, filter MatchFilter) ([]domain.Match, error) {
	args := []any{}
	clauses := []string{"TRUE"}
	if filter.UserID != nil {
		args = append(args, *filter.UserID)
		clauses = append(clauses, fmt.Sprintf("m.user_id=$%d", len(args)))
	}
	if filter.SellerID != nil {
		args = append(args, *filter.SellerID)
		clauses = append(clauses, fmt.Sprintf("m.seller_id=$%d", len(args)))
	}
	if filter.Status != nil {
		args = append(args, *filter.Status)
		clauses = append(clauses, fmt.Sprintf("m.status=$%d", len(args)))
	}
	limit, offset := normalizePage(filter.Limit, filter.Offset, 100)
	query := fmt.Sprintf(`%s WHERE %s ORDER BY m.matched_at DESC LIMIT %d OFFSET %d`,
		matchSelect, strings.Join(clauses, " AND "), limit, offset)

	rows, err := getDB(ctx, r.pool).Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Match
	for rows.Next() {
		match, err := scanMatch(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *match)
	}
	return result, rows.Err()
}

func (r *matchRepository) UpdateStatus(ctx context.Context, id string, status domain.MatchStatus) error {
	cmd, err := getDB(ctx, r.pool).Exec(ctx,
		`UPDATE matches SET status=$1, updated_at=NOW() WHERE id=$2`, status, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// CountOpenBySeller counts matches for the seller that are not completed.
func (r *matchRepository) CountOpenBySeller(ctx context.Context, sellerID string) (int64, error) {
	var count int64
	err := getDB(ctx, r.pool).QueryRow(ctx,
		`SELECT COUNT(*) FROM matches WHERE seller_id=$1 AND status <> $2`,
		sellerID, domain.MatchStatusCompleted).Scan(&count)
	return count, err
}

func (r *matchRepository) Delete(ctx context.Context, id string) error {
	cmd, err := getDB(ctx, r.pool).Exec(ctx, `DELETE FROM matches WHERE id=$1`, id)
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

func scanMatch(row pgx.Row) (*domain.Match, error) {
	var (
		match    domain.Match
		seller   domain.Seller
		buyer    domain.Buyer
		termsID  *string
		termsIP  *string
		agreedAt *time.Time
	)
	if err := row.Scan(
		&match.ID,
		&match.UserID,
		&match.SellerID,
		&match.Status,
		&match.MatchedAt,
		&match.UpdatedAt,
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
		&buyer.ID,
		&buyer.Email,
		&buyer.CompanyName,
		&buyer.FirstName,
		&buyer.LastName,
		&termsID,
		&termsIP,
		&agreedAt,
	); err != nil {
		return nil, err
	}
	match.Seller = &seller
	match.Buyer = &buyer
	if termsID != nil && agreedAt != nil {
		agreement := &domain.TermsAgreement{ID: *termsID, MatchID: match.ID, UserID: match.UserID, AgreedAt: *agreedAt}
		if termsIP != nil {
			agreement.IPAddress = *termsIP
		}
		match.TermsAgreement = agreement
	}
	return &match, nil
}
