package auth

import (
	"github.com/gofiber/fiber/v2"

	"github.com/societyresolver/complaint-service/internal/domain"
	apperrors "github.com/societyresolver/complaint-service/pkg/util/errorutil"
)

// RequireRole ensures the principal has one of the allowed roles.
func RequireRole(allowed ...domain.Role) fiber.Handler {
	allowedSet := make(map[domain.Role]struct{}, len(allowed))
	for _, role := range allowed {
		allowedSet[role] = struct{}{}
	}

	return func(c *fiber.Ctx) error {
		principal, ok := PrincipalFromContext(c)
		if !ok {
			return apperrors.NewUnauthorized("authentication required")
		}
		if _, exists := allowedSet[principal.Role]; !exists {
			return apperrors.NewForbidden("insufficient role")
		}
		return c.Next()
	}
}

// IsAdmin reports whether the principal may act on any complaint.
func IsAdmin(user *domain.User) bool {
	return user != nil && user.Role == domain.RoleAdmin
}
