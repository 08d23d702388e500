package handlers

import (
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/ppa-crm/internal/api/dto"
	"github.com/spec-kit/ppa-crm/internal/auth"
	"github.com/spec-kit/ppa-crm/internal/config"
	"github.com/spec-kit/ppa-crm/internal/domain"
	"github.com/spec-kit/ppa-crm/internal/service"
)

// AuthHandler exposes login endpoints for buyers, employees and the admin.
type AuthHandler struct {
	authService *service.AuthService
	cfg         config.AuthConfig
}

// NewAuthHandler constructs handler.
func NewAuthHandler(authService *service.AuthService, cfg config.AuthConfig) *AuthHandler {
	return &AuthHandler{authService: authService, cfg: cfg}
}

// Register handles POST /api/auth/register.
func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req dto.RegisterRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	buyer, session, err := h.authService.RegisterBuyer(c.UserContext(), service.RegisterBuyerInput{
		Email:       req.Email,
		Password:    req.Password,
		CompanyName: req.CompanyName,
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		Location:    req.Location,
		State:       req.State,
		Mobile:      req.Mobile,
	})
	if err != nil {
		return err
	}
	h.setCookie(c, domain.SubjectTypeBuyer, session)
	return c.Status(http.StatusCreated).JSON(fiber.Map{
		"data": fiber.Map{
			"user": buyerResponse(buyer),
			"auth": dto.AuthResponse{Token: session.Token, ExpiresAt: session.ExpiresAt},
		},
	})
}

// Login handles POST /api/auth/login.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	buyer, session, err := h.authService.LoginBuyer(c.UserContext(), req.Email, req.Password, c.IP())
	if err != nil {
		return err
	}
	h.setCookie(c, domain.SubjectTypeBuyer, session)
	return c.JSON(fiber.Map{
		"data": fiber.Map{
			"user": buyerResponse(buyer),
			"auth": dto.AuthResponse{Token: session.Token, ExpiresAt: session.ExpiresAt},
		},
	})
}

// Logout handles POST /api/auth/logout.
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	h.clearCookie(c, domain.SubjectTypeBuyer)
	return c.JSON(fiber.Map{"data": fiber.Map{"message": "logged out"}})
}

// Me handles GET /api/auth/me.
func (h *AuthHandler) Me(c *fiber.Ctx) error {
	buyer, err := h.authService.CurrentBuyer(c.UserContext(), auth.IdentityFromContext(c))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"user": buyerResponse(buyer)}})
}

// EmployeeLogin handles POST /api/employees/login.
func (h *AuthHandler) EmployeeLogin(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	employee, session, err := h.authService.LoginEmployee(c.UserContext(), req.Email, req.Password, c.IP())
	if err != nil {
		return err
	}
	h.setCookie(c, domain.SubjectTypeEmployee, session)
	return c.JSON(fiber.Map{
		"data": fiber.Map{
			"employee": employeeResponse(employee),
			"auth":     dto.AuthResponse{Token: session.Token, ExpiresAt: session.ExpiresAt},
		},
	})
}

// EmployeeLogout handles POST /api/employees/logout.
func (h *AuthHandler) EmployeeLogout(c *fiber.Ctx) error {
	h.clearCookie(c, domain.SubjectTypeEmployee)
	return c.JSON(fiber.Map{"data": fiber.Map{"message": "logged out"}})
}

// AdminLogin handles POST /api/admin/login.
func (h *AuthHandler) AdminLogin(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	session, err := h.authService.LoginAdmin(c.UserContext(), req.Email, req.Password, c.IP())
	if err != nil {
		return err
	}
	h.setCookie(c, domain.SubjectTypeAdmin, session)
	return c.JSON(fiber.Map{
		"data": fiber.Map{
			"admin": dto.AdminResponse{Email: req.Email, Role: string(domain.SubjectTypeAdmin)},
			"auth":  dto.AuthResponse{Token: session.Token, ExpiresAt: session.ExpiresAt},
		},
	})
}

// AdminMe handles GET /api/admin/me.
func (h *AuthHandler) AdminMe(c *fiber.Ctx) error {
	identity := auth.IdentityFromContext(c)
	return c.JSON(fiber.Map{"data": fiber.Map{
		"admin": dto.AdminResponse{Email: identity.Email, Role: string(domain.SubjectTypeAdmin)},
	}})
}

// AdminLogout handles POST /api/admin/logout.
func (h *AuthHandler) AdminLogout(c *fiber.Ctx) error {
	h.clearCookie(c, domain.SubjectTypeAdmin)
	return c.JSON(fiber.Map{"data": fiber.Map{"message": "logged out"}})
}

func (h *AuthHandler) cookieName(kind domain.SubjectType) string {
	switch kind {
	case domain.SubjectTypeEmployee:
		return h.cfg.EmployeeCookie
	case domain.SubjectTypeAdmin:
		return h.cfg.AdminCookie
	}
	return h.cfg.BuyerCookie
}

func (h *AuthHandler) setCookie(c *fiber.Ctx, kind domain.SubjectType, session service.Session) {
	c.Cookie(&fiber.Cookie{
		Name:     h.cookieName(kind),
		Value:    session.Token,
		Path:     "/",
		Expires:  session.ExpiresAt,
		HTTPOnly: true,
		Secure:   h.cfg.SecureCookies,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
}

func (h *AuthHandler) clearCookie(c *fiber.Ctx, kind domain.SubjectType) {
	c.Cookie(&fiber.Cookie{
		Name:     h.cookieName(kind),
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		HTTPOnly: true,
		Secure:   h.cfg.SecureCookies,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
}
