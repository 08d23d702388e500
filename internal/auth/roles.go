package auth

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/ppa-crm/internal/domain"
)

// RequireBuyer guards marketplace buyer routes.
func (m *Middleware) RequireBuyer() fiber.Handler {
	return m.Require(domain.SubjectTypeBuyer)
}

// RequireEmployee guards CRM routes.
func (m *Middleware) RequireEmployee() fiber.Handler {
	return m.Require(domain.SubjectTypeEmployee)
}

// RequireAdmin guards marketplace admin routes.
func (m *Middleware) RequireAdmin() fiber.Handler {
	return m.Require(domain.SubjectTypeAdmin)
}
