package handlers

import (
	"io"
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/ppa-crm/internal/api/dto"
	"github.com/spec-kit/ppa-crm/internal/auth"
	"github.com/spec-kit/ppa-crm/internal/service"
	apperrors "github.com/spec-kit/ppa-crm/pkg/util"
)

// DocumentsHandler serves lead attachments.
type DocumentsHandler struct {
	service *service.DocumentService
}

// NewDocumentsHandler constructs handler.
func NewDocumentsHandler(documentService *service.DocumentService) *DocumentsHandler {
	return &DocumentsHandler{service: documentService}
}

// ListForLead handles GET /api/crm/leads/:id/documents.
func (h *DocumentsHandler) ListForLead(c *fiber.Ctx) error {
	documents, err := h.service.ListForLead(c.UserContext(), auth.IdentityFromContext(c), c.Params("id"))
	if err != nil {
		return err
	}
	resp := make([]dto.DocumentResponse, 0, len(documents))
	for i := range documents {
		resp = append(resp, documentResponse(&documents[i]))
	}
	return c.JSON(fiber.Map{"data": resp})
}

// Upload handles POST /api/crm/leads/:id/documents as multipart form data.
func (h *DocumentsHandler) Upload(c *fiber.Ctx) error {
	header, err := c.FormFile("file")
	if err != nil {
		return apperrors.NewValidationError("no file uploaded", map[string]any{"file": "required"})
	}
	file, err := header.Open()
	if err != nil {
		return apperrors.NewInternalError(err)
	}
	defer file.Close()
	data, err := io.ReadAll(file)
	if err != nil {
		return apperrors.NewInternalError(err)
	}

	docType := c.FormValue("type")
	if docType == "" {
		docType = c.FormValue("documentType")
	}
	document, err := h.service.Upload(c.UserContext(), auth.IdentityFromContext(c), c.Params("id"), service.UploadInput{
		FileName: header.Filename,
		Type:     docType,
		Data:     data,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": documentResponse(document)})
}

// Download handles GET /api/crm/documents/:id/file.
func (h *DocumentsHandler) Download(c *fiber.Ctx) error {
	document, err := h.service.Get(c.UserContext(), auth.IdentityFromContext(c), c.Params("id"))
	if err != nil {
		return err
	}
	c.Set(fiber.HeaderContentType, document.MimeType)
	return c.Download(h.service.Path(strings.TrimPrefix(document.FileURL, service.UploadURLPrefix)), document.Name)
}

// Delete handles DELETE /api/crm/documents/:id.
func (h *DocumentsHandler) Delete(c *fiber.Ctx) error {
	if err := h.service.Delete(c.UserContext(), auth.IdentityFromContext(c), c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}
