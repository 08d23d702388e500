package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/ppa-crm/internal/api/dto"
	"github.com/spec-kit/ppa-crm/internal/auth"
	"github.com/spec-kit/ppa-crm/internal/domain"
	"github.com/spec-kit/ppa-crm/internal/service"
)

// AdminHandler serves the marketplace console.
type AdminHandler struct {
	service *service.AdminService
}

// NewAdminHandler constructs handler.
func NewAdminHandler(adminService *service.AdminService) *AdminHandler {
	return &AdminHandler{service: adminService}
}

// ListBuyers handles GET /api/admin/users.
func (h *AdminHandler) ListBuyers(c *fiber.Ctx) error {
	buyers, err := h.service.ListBuyers(c.UserContext(), auth.IdentityFromContext(c), c.Query("search"), parsePage(c))
	if err != nil {
		return err
	}
	resp := make([]*dto.BuyerResponse, 0, len(buyers))
	for i := range buyers {
		resp = append(resp, buyerResponse(&buyers[i]))
	}
	return c.JSON(fiber.Map{"data": resp})
}

// GetBuyer handles GET /api/admin/users/:id.
func (h *AdminHandler) GetBuyer(c *fiber.Ctx) error {
	detail, err := h.service.GetBuyer(c.UserContext(), auth.IdentityFromContext(c), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.BuyerDetailResponse{
		BuyerResponse: *buyerResponse(detail.Buyer),
		Matches:       adminMatchResponses(detail.Matches),
	}})
}

// ListSellers handles GET /api/admin/sellers.
func (h *AdminHandler) ListSellers(c *fiber.Ctx) error {
	sellers, err := h.service.ListSellers(c.UserContext(), auth.IdentityFromContext(c), enumQuery[domain.SellerStatus](c, "status"), parsePage(c))
	if err != nil {
		return err
	}
	resp := make([]*dto.SellerResponse, 0, len(sellers))
	for i := range sellers {
		resp = append(resp, sellerResponse(&sellers[i]))
	}
	return c.JSON(fiber.Map{"data": resp})
}

// CreateSeller handles POST /api/admin/sellers.
func (h *AdminHandler) CreateSeller(c *fiber.Ctx) error {
	var req dto.SellerRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	seller, err := h.service.CreateSeller(c.UserContext(), auth.IdentityFromContext(c), sellerInput(req))
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": sellerResponse(seller)})
}

// UpdateSeller handles PUT /api/admin/sellers/:id.
func (h *AdminHandler) UpdateSeller(c *fiber.Ctx) error {
	var req dto.UpdateSellerRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	seller, err := h.service.UpdateSeller(c.UserContext(), auth.IdentityFromContext(c), c.Params("id"), service.SellerUpdateInput{
		CompanyName:   req.CompanyName,
		ContactPerson: req.ContactPerson,
		ContactEmail:  req.ContactEmail,
		ContactPhone:  req.ContactPhone,
		ProjectType:   req.ProjectType,
		Capacity:      req.Capacity,
		Location:      req.Location,
		State:         req.State,
		AskingPrice:   req.AskingPrice,
		Status:        enumPtr[domain.SellerStatus](req.Status),
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": sellerResponse(seller)})
}

// DeleteSeller handles DELETE /api/admin/sellers/:id.
func (h *AdminHandler) DeleteSeller(c *fiber.Ctx) error {
	if err := h.service.DeleteSeller(c.UserContext(), auth.IdentityFromContext(c), c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

// ListMatches handles GET /api/admin/matches.
func (h *AdminHandler) ListMatches(c *fiber.Ctx) error {
	matches, err := h.service.ListMatches(c.UserContext(), auth.IdentityFromContext(c), service.MatchListFilter{
		UserID:   queryPtr(c, "userId"),
		SellerID: queryPtr(c, "sellerId"),
		Status:   enumQuery[domain.MatchStatus](c, "status"),
		Page:     parsePage(c),
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": adminMatchResponses(matches)})
}

// CreateMatch handles POST /api/admin/matches.
func (h *AdminHandler) CreateMatch(c *fiber.Ctx) error {
	var req dto.CreateMatchRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	match, err := h.service.CreateMatch(c.UserContext(), auth.IdentityFromContext(c), req.UserID, req.SellerID)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": adminMatchResponse(match)})
}

// DeleteMatch handles DELETE /api/admin/matches/:id.
func (h *AdminHandler) DeleteMatch(c *fiber.Ctx) error {
	if err := h.service.DeleteMatch(c.UserContext(), auth.IdentityFromContext(c), c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

func sellerInput(req dto.SellerRequest) service.SellerInput {
	return service.SellerInput{
		CompanyName:   req.CompanyName,
		ContactPerson: req.ContactPerson,
		ContactEmail:  req.ContactEmail,
		ContactPhone:  req.ContactPhone,
		ProjectType:   req.ProjectType,
		Capacity:      req.Capacity,
		Location:      req.Location,
		State:         req.State,
		AskingPrice:   req.AskingPrice,
		Status:        domain.SellerStatus(req.Status),
	}
}
