package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/ppa-crm/internal/api/dto"
	"github.com/spec-kit/ppa-crm/internal/auth"
	"github.com/spec-kit/ppa-crm/internal/domain"
	"github.com/spec-kit/ppa-crm/internal/service"
)

// ActivitiesHandler serves the lead interaction log.
type ActivitiesHandler struct {
	service *service.ActivityService
}

// NewActivitiesHandler constructs handler.
func NewActivitiesHandler(activityService *service.ActivityService) *ActivitiesHandler {
	return &ActivitiesHandler{service: activityService}
}

// List handles GET /api/crm/activities.
func (h *ActivitiesHandler) List(c *fiber.Ctx) error {
	activities, err := h.service.List(c.UserContext(), auth.IdentityFromContext(c), enumQuery[domain.ActivityType](c, "type"), parsePage(c))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": activityResponses(activities)})
}

// ListForLead handles GET /api/crm/leads/:id/activities.
func (h *ActivitiesHandler) ListForLead(c *fiber.Ctx) error {
	activities, err := h.service.ListForLead(c.UserContext(), auth.IdentityFromContext(c), c.Params("id"),
		enumQuery[domain.ActivityType](c, "type"), parsePage(c))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": activityResponses(activities)})
}

// Create handles POST /api/crm/leads/:id/activities.
func (h *ActivitiesHandler) Create(c *fiber.Ctx) error {
	var req dto.CreateActivityRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	activity, err := h.service.Create(c.UserContext(), auth.IdentityFromContext(c), c.Params("id"), service.ActivityInput{
		Type:        domain.ActivityType(req.Type),
		Subject:     req.Subject,
		Description: req.Description,
		Outcome:     req.Outcome,
		Duration:    req.Duration,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": activityResponse(activity)})
}

// Update handles PUT /api/crm/activities/:id.
func (h *ActivitiesHandler) Update(c *fiber.Ctx) error {
	var req dto.UpdateActivityRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	activity, err := h.service.Update(c.UserContext(), auth.IdentityFromContext(c), c.Params("id"), service.ActivityUpdateInput{
		Subject:     req.Subject,
		Description: req.Description,
		Outcome:     req.Outcome,
		Duration:    req.Duration,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": activityResponse(activity)})
}

// Delete handles DELETE /api/crm/activities/:id.
func (h *ActivitiesHandler) Delete(c *fiber.Ctx) error {
	if err := h.service.Delete(c.UserContext(), auth.IdentityFromContext(c), c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

func activityResponses(activities []domain.Activity) []dto.ActivityResponse {
	resp := make([]dto.ActivityResponse, 0, len(activities))
	for i := range activities {
		resp = append(resp, activityResponse(&activities[i]))
	}
	return resp
}
