package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/ppa-crm/internal/domain"
)

// DocumentRepository persists lead document metadata.
type DocumentRepository interface {
	Create(ctx context.Context, document *domain.Document) error
	GetByID(ctx context.Context, id string) (*domain.Document, error)
	ListByLead(ctx context.Context, leadID string) ([]domain.Document, error)
	Delete(ctx context.Context, id string) error
}

const documentColumns = `id, lead_id, name, type, file_url, file_size, mime_type, uploaded_by_id, created_at`

type documentRepository struct {
	pool *pgxpool.Pool
}

// NewDocumentRepository constructs repository.
func NewDocumentRepository(pool *pgxpool.Pool) DocumentRepository {
	return &documentRepository{pool: pool}
}

func (r *documentRepository) Create(ctx context.Context, document *domain.Document) error {
	const query = `
        INSERT INTO documents (lead_id, name, type, file_url, file_size, mime_type, uploaded_by_id)
        VALUES ($1,$2,$3,$4,$5,$6,$7)
        RETURNING id, created_at`
	return getDB(ctx, r.pool).QueryRow(ctx, query,
		document.LeadID,
		document.Name,
		document.Type,
		document.FileURL,
		document.FileSize,
		document.MimeType,
		document.UploadedByID,
	).Scan(&document.ID, &document.CreatedAt)
}

func (r *documentRepository) GetByID(ctx context.Context, id string) (*domain.Document, error) {
	query := `SELECT ` + documentColumns + ` FROM documents WHERE id=$1`
	return scanDocument(getDB(ctx, r.pool).QueryRow(ctx, query, id))
}

func (r *documentRepository) ListByLead(ctx context.Context, leadID string) ([]domain.Document, error) {
	query := `SELECT ` + documentColumns + ` FROM documents WHERE lead_id=$1 ORDER BY created_at DESC`
	rows, err := getDB(ctx, r.pool).Query(ctx, query, leadID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Document
	for rows.Next() {
		document, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *document)
	}
	return result, rows.Err()
}

func (r *documentRepository) Delete(ctx context.Context, id string) error {
	cmd, err := getDB(ctx, r.pool).Exec(ctx, `DELETE FROM documents WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func scanDocument(row pgx.Row) (*domain.Document, error) {
	var document domain.Document
	if err := row.Scan(
		&document.ID,
		&document.LeadID,
		&document.Name,
		&document.Type,
		&document.FileURL,
		&document.FileSize,
		&document.MimeType,
		&document.UploadedByID,
		&document.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &document, nil
}
