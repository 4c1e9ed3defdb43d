package auth

import (
	"github.com/gofiber/fiber/v2"

	"github.com/shiftdesk/staff-scheduler/internal/domain"
	apperrors "github.com/shiftdesk/staff-scheduler/pkg/util/errorutil"
)

// RequireRole ensures the authenticated staff member has one of the allowed roles.
func RequireRole(allowed ...domain.StaffRole) fiber.Handler {
	allowedSet := make(map[domain.StaffRole]struct{}, len(allowed))
	for _, role := range allowed {
		allowedSet[role] = struct{}{}
	}

	return func(c *fiber.Ctx) error {
		principal, ok := PrincipalFromContext(c)
		if !ok || principal.Staff == nil {
			return apperrors.NewUnauthorized("authentication required")
		}
		if len(allowedSet) == 0 {
			return c.Next()
		}
		if _, exists := allowedSet[principal.Staff.Role]; !exists {
			return apperrors.NewForbidden("insufficient role")
		}
		return c.Next()
	}
}

// RequireSupervisor is RequireRole(ADMIN, MANAGER).
func RequireSupervisor() fiber.Handler {
	return RequireRole(domain.StaffRoleAdmin, domain.StaffRoleManager)
}

// RequireAdmin is RequireRole(ADMIN).
func RequireAdmin() fiber.Handler {
	return RequireRole(domain.StaffRoleAdmin)
}
