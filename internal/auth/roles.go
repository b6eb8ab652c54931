package auth

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/aidtrace/internal/domain"
	apperrors "github.com/spec-kit/aidtrace/pkg/util"
)

func errPermissionDenied() error {
	return apperrors.NewDetailError(http.StatusForbidden, "permission_denied", "You do not have permission to perform this action.")
}

// RequireRole ensures the principal has one of the allowed roles.
func RequireRole(allowed ...domain.Role) fiber.Handler {
	allowedSet := make(map[domain.Role]struct{}, len(allowed))
	for _, role := range allowed {
		allowedSet[role] = struct{}{}
	}

	return func(c *fiber.Ctx) error {
		principal, ok := PrincipalFromContext(c)
		if !ok {
			return errNoCredentials()
		}
		if _, exists := allowedSet[principal.User.Role]; !exists {
			return errPermissionDenied()
		}
		return c.Next()
	}
}

// RequireAdminForWrites lets any authenticated caller read but only admins
// change the resource.
func RequireAdminForWrites() fiber.Handler {
	return func(c *fiber.Ctx) error {
		switch c.Method() {
		case fiber.MethodGet, fiber.MethodHead, fiber.MethodOptions:
			return c.Next()
		}
		principal, ok := PrincipalFromContext(c)
		if !ok {
			return errNoCredentials()
		}
		if principal.User.Role != domain.RoleAdmin {
			return errPermissionDenied()
		}
		return c.Next()
	}
}
