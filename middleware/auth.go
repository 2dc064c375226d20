// middleware/auth.go
package middleware

import (
	"log"
	"strings"

	"github.com/gofiber/fiber/v2"
)

// UserContextMiddleware extracts the authenticated identity and roles the
// Gateway forwards as headers. Routes wrapped with it always require a user;
// anonymous routes simply don't apply it.
func UserContextMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		uid := c.Get("X-User-ID")
		if uid == "" {
			log.Printf("❌ [USER_CTX] X-User-ID missing on secured route: %s", c.Path())
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "missing X-User-ID — request must come through gateway with auth context",
			})
		}

		var roles []string
		for _, r := range strings.Split(c.Get("X-User-Roles"), ",") {
			r = strings.TrimSpace(r)
			if r != "" {
				roles = append(roles, r)
			}
		}

		c.Locals("user_id", uid)
		c.Locals("user_roles", roles)
		c.Locals("user_email", c.Get("X-User-Email"))

		return c.Next()
	}
}

// RequireRoles rejects the request unless the gateway forwarded at least one
// of the given roles. Must run after UserContextMiddleware.
func RequireRoles(allowed ...string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		roles, _ := c.Locals("user_roles").([]string)
		for _, r := range roles {
			for _, a := range allowed {
				if r == a {
					return c.Next()
				}
			}
		}
		log.Printf("🚫 [USER_CTX] Insufficient role for %s (has: %v)", c.Path(), roles)
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "insufficient role"})
	}
}
