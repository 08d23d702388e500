package access

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/ppa-crm/internal/auth"
)

// Guard rejects requests whose caller may not perform a resource-free action.
func Guard(action Action) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if err := Check(auth.IdentityFromContext(c), action, Target{}); err != nil {
			return err
		}
		return c.Next()
	}
}
