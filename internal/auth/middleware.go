package auth

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/ppa-crm/internal/config"
	"github.com/spec-kit/ppa-crm/internal/domain"
	apperrors "github.com/spec-kit/ppa-crm/pkg/util"
)

const identityKey = "auth_identity"

// Middleware resolves the caller for a route group.
type Middleware struct {
	resolver *Resolver
	cookies  map[domain.SubjectType]string
}

// NewMiddleware constructs middleware using the configured cookie names.
func NewMiddleware(resolver *Resolver, cfg config.AuthConfig) *Middleware {
	return &Middleware{
		resolver: resolver,
		cookies: map[domain.SubjectType]string{
			domain.SubjectTypeBuyer:    cfg.BuyerCookie,
			domain.SubjectTypeEmployee: cfg.EmployeeCookie,
			domain.SubjectTypeAdmin:    cfg.AdminCookie,
		},
	}
}

// Require resolves the credential for subject and rejects every other identity.
func (m *Middleware) Require(subject domain.SubjectType) fiber.Handler {
	want := kindForSubject(subject)
	return func(c *fiber.Ctx) error {
		token := m.extractToken(c, subject)
		if token == "" {
			return apperrors.NewUnauthorized("authentication required")
		}
		identity, err := m.resolver.Resolve(c.UserContext(), token)
		if err != nil {
			return err
		}
		if identity.IsAnonymous() {
			return apperrors.NewUnauthorized("invalid or expired token")
		}
		if identity.Kind != want {
			return apperrors.NewForbidden(want.String() + " credentials required")
		}
		c.Locals(identityKey, identity)
		return c.Next()
	}
}

func (m *Middleware) extractToken(c *fiber.Ctx, subject domain.SubjectType) string {
	if name := m.cookies[subject]; name != "" {
		if token := c.Cookies(name); token != "" {
			return token
		}
	}
	authHeader := c.Get(fiber.HeaderAuthorization)
	if authHeader == "" {
		return ""
	}
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

// IdentityFromContext retrieves the resolved caller.
func IdentityFromContext(c *fiber.Ctx) Identity {
	identity, ok := c.Locals(identityKey).(Identity)
	if !ok {
		return Anonymous()
	}
	return identity
}
