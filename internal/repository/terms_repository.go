package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/ppa-crm/internal/domain"
)

// TermsRepository is insert-only; uniqueness on match_id makes agreements write-once.
type TermsRepository interface {
	Create(ctx context.Context, agreement *domain.TermsAgreement) error
}

type termsRepository struct {
	pool *pgxpool.Pool
}

// NewTermsRepository constructs repository.
func NewTermsRepository(pool *pgxpool.Pool) TermsRepository {
	return &termsRepository{pool: pool}
}

// Create inserts the agreement, returning ErrAlreadyAgreed when the match already has one.
func (r *termsRepository) Create(ctx context.Context, agreement *domain.TermsAgreement) error {
	const query = `
        INSERT INTO terms_agreements (match_id, user_id, ip_address)
        VALUES ($1,$2,$3)
        RETURNING id, agreed_at`
	err := getDB(ctx, r.pool).QueryRow(ctx, query,
		agreement.MatchID,
		agreement.UserID,
		agreement.IPAddress,
	).Scan(&agreement.ID, &agreement.AgreedAt)
	if isUniqueViolation(err, "terms_agreements_match_key") {
		return ErrAlreadyAgreed
	}
	return err
}
