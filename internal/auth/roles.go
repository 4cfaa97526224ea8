package auth

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/buyforme-service/internal/domain"
	apperrors "github.com/spec-kit/buyforme-service/pkg/util/errorutil"
)

// Route guards. They run after AuthMiddleware and only look at the resolved principal;
// ownership and per-transition rules stay in CanPerform.

// RequireUser admits customers only.
func RequireUser() fiber.Handler {
	return func(c *fiber.Ctx) error {
		principal, ok := PrincipalFromContext(c)
		if !ok {
			return apperrors.NewUnauthorized("authentication required")
		}
		if principal.SubjectType != domain.SubjectTypeUser || principal.User == nil {
			return apperrors.NewForbidden("customer required")
		}
		return c.Next()
	}
}

// RequireStaff admits staff holding at least one of anyOf. With no permissions listed any
// active staff member passes.
func RequireStaff(anyOf ...domain.Permission) fiber.Handler {
	return func(c *fiber.Ctx) error {
		principal, ok := PrincipalFromContext(c)
		if !ok {
			return apperrors.NewUnauthorized("authentication required")
		}
		if principal.SubjectType != domain.SubjectTypeStaff || principal.Staff == nil {
			return apperrors.NewForbidden("staff required")
		}
		if len(anyOf) == 0 || principal.Actor.HasAny(anyOf...) {
			return c.Next()
		}
		return apperrors.NewDomainError(apperrors.CodeForbidden, "insufficient permissions", fiber.StatusForbidden,
			map[string]any{"required_any": anyOf})
	}
}

// RequireAnyRole admits any authenticated principal.
func RequireAnyRole() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if _, ok := PrincipalFromContext(c); !ok {
			return apperrors.NewUnauthorized("authentication required")
		}
		return c.Next()
	}
}
