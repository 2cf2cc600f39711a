package middleware

import (
	"errors"

	"github.com/gofiber/fiber/v3"

	"github.com/pawcare/vetclinic_backend/pkg/authorize"
	pasetotoken "github.com/pawcare/vetclinic_backend/pkg/paseto"
)

// RequirePermission checks that the caller's role may perform action on
// resource. It must run after AuthRequired.
func RequirePermission(auth authorize.IAuthorization, resource authorize.Resource, action authorize.Action) fiber.Handler {
	return func(c fiber.Ctx) error {
		claims, ok := pasetotoken.ClaimsFromFiber(c)
		if !ok {
			return fiber.ErrUnauthorized
		}

		role, err := authorize.RoleFor(claims.Role)
		if err != nil {
			return fiber.ErrForbidden
		}

		if err := auth.MustEnforce(c.Context(), role, resource, action); err != nil {
			if errors.Is(err, authorize.ErrForbidden) {
				return fiber.ErrForbidden
			}
			return err
		}

		return c.Next()
	}
}
