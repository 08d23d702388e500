package service

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/ppa-crm/internal/access"
	"github.com/spec-kit/ppa-crm/internal/auth"
	"github.com/spec-kit/ppa-crm/internal/config"
	"github.com/spec-kit/ppa-crm/internal/domain"
	"github.com/spec-kit/ppa-crm/internal/repository"
	apperrors "github.com/spec-kit/ppa-crm/pkg/util"
)

// UploadURLPrefix is the public path documents are served from.
const UploadURLPrefix = "/uploads/"

// AllowedDocumentTypes lists the accepted content types, checked against the sniffed content.
var AllowedDocumentTypes = []string{
	"application/pdf",
	"application/msword",
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	"application/vnd.ms-excel",
	"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
	"application/vnd.ms-powerpoint",
	"application/vnd.openxmlformats-officedocument.presentationml.presentation",
	"image/png",
	"image/jpeg",
	"image/gif",
	"text/plain",
}

// UploadInput is a received file.
type UploadInput struct {
	FileName string
	Type     string
	Data     []byte
}

// DocumentService stores lead documents on local disk.
type DocumentService struct {
	documents repository.DocumentRepository
	leads     repository.LeadRepository
	dir       string
	maxSize   int64
	logger    *zap.Logger
}

// DocumentDependencies encapsulates requirements for the document service.
type DocumentDependencies struct {
	DocumentRepo repository.DocumentRepository
	LeadRepo     repository.LeadRepository
	Logger       *zap.Logger
}

// NewDocumentService builds the service.
func NewDocumentService(cfg config.UploadConfig, deps DocumentDependencies) *DocumentService {
	return &DocumentService{
		documents: deps.DocumentRepo,
		leads:     deps.LeadRepo,
		dir:       cfg.Dir,
		maxSize:   cfg.MaxSizeBytes,
		logger:    nopIfNil(deps.Logger),
	}
}

// ListForLead returns the documents of a lead the actor can see.
func (s *DocumentService) ListForLead(ctx context.Context, actor auth.Identity, leadID string) ([]domain.Document, error) {
	if _, err := s.lead(ctx, actor, leadID); err != nil {
		return nil, err
	}
	return s.documents.ListByLead(ctx, leadID)
}

// Get loads a document. Agents must own the parent lead.
func (s *DocumentService) Get(ctx context.Context, actor auth.Identity, id string) (*domain.Document, error) {
	if err := requireEmployee(actor); err != nil {
		return nil, err
	}
	document, err := s.documents.GetByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "document")
	}
	lead, err := s.leads.GetByID(ctx, document.LeadID)
	if err != nil {
		return nil, notFound(err, "document")
	}
	if err := access.Check(actor, access.ActionViewLead, access.Target{Resource: "document", OwnerID: lead.AssignedToID}); err != nil {
		return nil, err
	}
	return document, nil
}

// Upload stores a file against a lead.
func (s *DocumentService) Upload(ctx context.Context, actor auth.Identity, leadID string, input UploadInput) (*domain.Document, error) {
	lead, err := s.lead(ctx, actor, leadID)
	if err != nil {
		return nil, err
	}
	if len(input.Data) == 0 {
		return nil, apperrors.NewValidationError("no file uploaded", nil)
	}
	if s.maxSize > 0 && int64(len(input.Data)) > s.maxSize {
		return nil, apperrors.NewValidationError("file too large", map[string]any{"maxSizeBytes": s.maxSize})
	}
	detected := mimetype.Detect(input.Data)
	mimeType, ok := allowedType(detected)
	if !ok {
		return nil, apperrors.NewValidationError("invalid file type. Allowed types: PDF, Word, Excel, Images, PowerPoint, Text",
			map[string]any{"mimeType": detected.String()})
	}

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	ext := strings.ToLower(filepath.Ext(input.FileName))
	if ext == "" {
		ext = detected.Extension()
	}
	storedName := uuid.NewString() + ext
	path := filepath.Join(s.dir, storedName)
	if err := os.WriteFile(path, input.Data, 0o644); err != nil {
		return nil, apperrors.NewInternalError(err)
	}

	name := filepath.Base(strings.TrimSpace(input.FileName))
	if name == "." || name == string(filepath.Separator) || name == "" {
		name = storedName
	}
	docType := strings.TrimSpace(input.Type)
	if docType == "" {
		docType = "other"
	}
	document := &domain.Document{
		LeadID:       lead.ID,
		Name:         name,
		Type:         docType,
		FileURL:      UploadURLPrefix + storedName,
		FileSize:     int64(len(input.Data)),
		MimeType:     mimeType,
		UploadedByID: actor.ID,
	}
	if err := s.documents.Create(ctx, document); err != nil {
		s.removeFile(storedName)
		return nil, err
	}
	return document, nil
}

// Delete removes a document and its file. Only the uploader or a supervisor
// may do so; callers who cannot see the lead get NOT_FOUND.
func (s *DocumentService) Delete(ctx context.Context, actor auth.Identity, id string) error {
	if err := requireEmployee(actor); err != nil {
		return err
	}
	document, err := s.documents.GetByID(ctx, id)
	if err != nil {
		return notFound(err, "document")
	}
	if err := authorizeContent(ctx, s.leads, actor, "document", document.LeadID, document.UploadedByID); err != nil {
		return err
	}
	if err := s.documents.Delete(ctx, document.ID); err != nil {
		return notFound(err, "document")
	}
	s.removeFile(strings.TrimPrefix(document.FileURL, UploadURLPrefix))
	return nil
}

// Path resolves a stored file name inside the upload directory.
func (s *DocumentService) Path(storedName string) string {
	return filepath.Join(s.dir, filepath.Base(storedName))
}

func (s *DocumentService) lead(ctx context.Context, actor auth.Identity, leadID string) (*domain.Lead, error) {
	if err := requireEmployee(actor); err != nil {
		return nil, err
	}
	lead, err := s.leads.GetByID(ctx, leadID)
	if err != nil {
		return nil, notFound(err, "lead")
	}
	if err := access.Check(actor, access.ActionViewLead, access.Target{Resource: "lead", OwnerID: lead.AssignedToID}); err != nil {
		return nil, err
	}
	return lead, nil
}

func (s *DocumentService) removeFile(storedName string) {
	if storedName == "" {
		return
	}
	if err := os.Remove(s.Path(storedName)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		s.logger.Warn("document file removal failed", zap.String("file", storedName), zap.Error(err))
	}
}

func allowedType(detected *mimetype.MIME) (string, bool) {
	for _, allowed := range AllowedDocumentTypes {
		if detected.Is(allowed) {
			return allowed, true
		}
	}
	return "", false
}
