package middleware

import (
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/retention-api/internal/utils"
)

// Staff identity headers. Authentication happens upstream; this service only reads who is acting.
const (
	StaffIDHeader   = "X-Staff-ID"
	StaffRoleHeader = "X-Staff-Role"

	localsStaffID   = "staff_id"
	localsStaffRole = "staff_role"
)

// StaffIdentity copies the acting staff member from request headers into the request locals.
// Malformed identifiers are ignored so that RequireStaff can reject them.
func StaffIdentity() fiber.Handler {
	return func(c *fiber.Ctx) error {
		raw := strings.TrimSpace(c.Get(StaffIDHeader))
		if raw != "" {
			if id, err := strconv.ParseUint(raw, 10, 64); err == nil && id > 0 {
				c.Locals(localsStaffID, uint(id))
			}
		}

		role := strings.ToLower(strings.TrimSpace(c.Get(StaffRoleHeader)))
		if role == "" {
			role = "staff"
		}
		c.Locals(localsStaffRole, role)

		return c.Next()
	}
}

// RequireStaff rejects requests that do not identify the acting staff member.
func RequireStaff() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if _, ok := StaffID(c); !ok {
			return utils.Fail(c, fiber.StatusUnauthorized, "staff identification required", fiber.Map{"header": StaffIDHeader})
		}
		return c.Next()
	}
}

// StaffID returns the acting staff member identifier.
func StaffID(c *fiber.Ctx) (uint, bool) {
	switch value := c.Locals(localsStaffID).(type) {
	case uint:
		return value, value > 0
	default:
		return 0, false
	}
}

// StaffRole returns the acting staff member's declared role.
func StaffRole(c *fiber.Ctx) string {
	if value, ok := c.Locals(localsStaffRole).(string); ok && value != "" {
		return value
	}
	return "staff"
}
