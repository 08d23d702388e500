package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/ppa-crm/internal/api/dto"
	"github.com/spec-kit/ppa-crm/internal/auth"
	"github.com/spec-kit/ppa-crm/internal/domain"
	"github.com/spec-kit/ppa-crm/internal/service"
	apperrors "github.com/spec-kit/ppa-crm/pkg/util"
)

// LeadsHandler serves the CRM lead pipeline.
type LeadsHandler struct {
	service *service.LeadService
}

// NewLeadsHandler constructs handler.
func NewLeadsHandler(leadService *service.LeadService) *LeadsHandler {
	return &LeadsHandler{service: leadService}
}

// List handles GET /api/crm/leads.
func (h *LeadsHandler) List(c *fiber.Ctx) error {
	page := parsePage(c)
	filter := service.LeadListFilter{
		Status:       enumQuery[domain.LeadStatus](c, "status"),
		Priority:     enumQuery[domain.Priority](c, "priority"),
		Source:       enumQuery[domain.LeadSource](c, "source"),
		AssignedToID: queryPtr(c, "assignedToId"),
		Search:       queryPtr(c, "search"),
		Page:         page,
	}
	leads, total, err := h.service.List(c.UserContext(), auth.IdentityFromContext(c), filter)
	if err != nil {
		return err
	}
	resp := make([]dto.LeadResponse, 0, len(leads))
	for i := range leads {
		resp = append(resp, leadResponse(&leads[i]))
	}
	return c.JSON(fiber.Map{"data": resp, "meta": pagination(total, page)})
}

// Get handles GET /api/crm/leads/:id.
func (h *LeadsHandler) Get(c *fiber.Ctx) error {
	lead, err := h.service.Get(c.UserContext(), auth.IdentityFromContext(c), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": leadResponse(lead)})
}

// Create handles POST /api/crm/leads.
func (h *LeadsHandler) Create(c *fiber.Ctx) error {
	var req dto.CreateLeadRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	lead, err := h.service.Create(c.UserContext(), auth.IdentityFromContext(c), service.LeadInput{
		CompanyName:    req.CompanyName,
		Location:       req.Location,
		State:          req.State,
		CreditRating:   req.CreditRating,
		FirstName:      req.FirstName,
		LastName:       req.LastName,
		Designation:    req.Designation,
		Mobile1:        req.Mobile1,
		Mobile2:        req.Mobile2,
		Landline:       req.Landline,
		Landline2:      req.Landline2,
		Email1:         req.Email1,
		Email2:         req.Email2,
		Status:         domain.LeadStatus(req.Status),
		Priority:       domain.Priority(req.Priority),
		Remarks:        req.Remarks,
		EstimatedValue: req.EstimatedValue,
		AssignedToID:   req.AssignedToID,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": leadResponse(lead)})
}

// Update handles PUT /api/crm/leads/:id.
func (h *LeadsHandler) Update(c *fiber.Ctx) error {
	var req dto.UpdateLeadRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	if req.AssignedToID != nil {
		return apperrors.NewValidationError("use the assign endpoint to change the assignee", map[string]any{"assignedToId": "not allowed"})
	}
	if req.Status != nil {
		return apperrors.NewValidationError("use the status endpoint to change the status", map[string]any{"status": "not allowed"})
	}
	lead, err := h.service.Update(c.UserContext(), auth.IdentityFromContext(c), c.Params("id"), service.LeadUpdateInput{
		CompanyName:    req.CompanyName,
		Location:       req.Location,
		State:          req.State,
		CreditRating:   req.CreditRating,
		FirstName:      req.FirstName,
		LastName:       req.LastName,
		Designation:    req.Designation,
		Mobile1:        req.Mobile1,
		Mobile2:        req.Mobile2,
		Landline:       req.Landline,
		Landline2:      req.Landline2,
		Email1:         req.Email1,
		Email2:         req.Email2,
		Priority:       enumPtr[domain.Priority](req.Priority),
		Remarks:        req.Remarks,
		EstimatedValue: req.EstimatedValue,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": leadResponse(lead)})
}

// Assign handles PATCH /api/crm/leads/:id/assign.
func (h *LeadsHandler) Assign(c *fiber.Ctx) error {
	var req dto.AssignRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	lead, err := h.service.Assign(c.UserContext(), auth.IdentityFromContext(c), c.Params("id"), req.AssignedToID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": leadResponse(lead)})
}

// ChangeStatus handles PATCH /api/crm/leads/:id/status.
func (h *LeadsHandler) ChangeStatus(c *fiber.Ctx) error {
	var req dto.StatusRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	lead, err := h.service.ChangeStatus(c.UserContext(), auth.IdentityFromContext(c), c.Params("id"), domain.LeadStatus(req.Status))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": leadResponse(lead)})
}

// Stats handles GET /api/crm/leads/stats.
func (h *LeadsHandler) Stats(c *fiber.Ctx) error {
	stats, err := h.service.Stats(c.UserContext(), auth.IdentityFromContext(c))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": statsResponse(stats)})
}
