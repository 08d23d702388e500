package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/ppa-crm/internal/api/dto"
	"github.com/spec-kit/ppa-crm/internal/service"
)

// PublicHandler accepts submissions from the marketing site.
type PublicHandler struct {
	service *service.PublicService
}

// NewPublicHandler constructs handler.
func NewPublicHandler(publicService *service.PublicService) *PublicHandler {
	return &PublicHandler{service: publicService}
}

// SubmitLead handles POST /api/leads.
func (h *PublicHandler) SubmitLead(c *fiber.Ctx) error {
	var req dto.PublicLeadRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	lead, err := h.service.SubmitLead(c.UserContext(), service.PublicLeadInput{
		CompanyName:  req.CompanyName,
		Location:     req.Location,
		State:        req.State,
		CreditRating: req.CreditRating,
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Designation:  req.Designation,
		Mobile1:      req.Mobile1,
		Mobile2:      req.Mobile2,
		Landline:     req.Landline,
		Landline2:    req.Landline2,
		Email1:       req.Email1,
		Email2:       req.Email2,
		Remarks:      req.Remarks,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": fiber.Map{
		"message": "thank you, we will be in touch shortly",
		"id":      lead.ID,
	}})
}

// RegisterSeller handles POST /api/sellers/register.
func (h *PublicHandler) RegisterSeller(c *fiber.Ctx) error {
	var req dto.SellerRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	seller, err := h.service.RegisterSeller(c.UserContext(), sellerInput(req))
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": fiber.Map{
		"message": "seller registered",
		"id":      seller.ID,
	}})
}
