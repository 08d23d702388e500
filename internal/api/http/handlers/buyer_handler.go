package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/ppa-crm/internal/auth"
	"github.com/spec-kit/ppa-crm/internal/service"
)

// BuyerHandler serves the buyer marketplace. Sellers leave here only through the disclosure gate.
type BuyerHandler struct {
	service *service.MarketplaceService
}

// NewBuyerHandler constructs handler.
func NewBuyerHandler(marketplace *service.MarketplaceService) *BuyerHandler {
	return &BuyerHandler{service: marketplace}
}

// Matches handles GET /api/buyer/matches.
func (h *BuyerHandler) Matches(c *fiber.Ctx) error {
	matches, err := h.service.Matches(c.UserContext(), auth.IdentityFromContext(c), parsePage(c))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": matches})
}

// AgreeTerms handles POST /api/buyer/terms/:matchId.
func (h *BuyerHandler) AgreeTerms(c *fiber.Ctx) error {
	match, err := h.service.AgreeTerms(c.UserContext(), auth.IdentityFromContext(c), c.Params("matchId"), c.IP())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"message": "terms agreed", "match": match}})
}

// Seller handles GET /api/buyer/seller/:matchId.
func (h *BuyerHandler) Seller(c *fiber.Ctx) error {
	seller, err := h.service.Seller(c.UserContext(), auth.IdentityFromContext(c), c.Params("matchId"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": seller})
}
