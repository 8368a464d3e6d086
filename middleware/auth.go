// middleware/auth.go
package middleware

import (
	"log"
	"strings"

	"github.com/gofiber/fiber/v2"

	"game-competition-system/utils"
)

// Role names resolved by the Gateway. Role membership is owned upstream;
// this service only reads what the Gateway already enforced.
const (
	RoleAdmin    = "admin"
	RoleOperator = "operator"
	RolePlayer   = "player"
)

// UserContextMiddleware extracts the effective caller identity and roles set
// by the Gateway. Secured routes fail closed when the identity is missing.
func UserContextMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		callerID := c.Get("X-User-ID")
		rolesStr := c.Get("X-User-Roles")

		if callerID == "" {
			log.Printf("[USER_CTX] X-User-ID required but missing on secured route: %s", c.Path())
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "missing X-User-ID — request must come through gateway with auth context",
			})
		}

		normalized, err := utils.NormalizeIdentity(callerID)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "X-User-ID is not a valid identity",
			})
		}

		var roles []string
		for _, r := range strings.Split(rolesStr, ",") {
			r = strings.TrimSpace(r)
			if r != "" {
				roles = append(roles, r)
			}
		}

		c.Locals("user_id", normalized)
		c.Locals("user_roles", roles)

		return c.Next()
	}
}

// RequireRole guards a route group on one of the Gateway-resolved roles.
func RequireRole(role string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !HasRole(c, role) {
			log.Printf("[USER_CTX] caller %v lacks role %q for %s", c.Locals("user_id"), role, c.Path())
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"error": "not authorised role",
			})
		}
		return c.Next()
	}
}

// HasRole reports whether the caller carries the given role.
func HasRole(c *fiber.Ctx, role string) bool {
	roles, _ := c.Locals("user_roles").([]string)
	for _, r := range roles {
		if r == role {
			return true
		}
	}
	return false
}

// CallerID returns the normalized caller identity set by UserContextMiddleware.
func CallerID(c *fiber.Ctx) string {
	id, _ := c.Locals("user_id").(string)
	return id
}
