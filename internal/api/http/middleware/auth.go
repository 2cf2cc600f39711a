package middleware

import (
	"context"
	"strings"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"

	pasetotoken "github.com/pawcare/vetclinic_backend/pkg/paseto"
	"github.com/pawcare/vetclinic_backend/pkg/reqctx"
)

// SessionChecker is satisfied by auth.Service.
type SessionChecker interface {
	CheckSession(ctx context.Context, sessionID uuid.UUID) error
}

// AuthRequired validates a Bearer PASETO access token and checks its session.
// On success the claims are stored in c.Locals(pasetotoken.CtxKeyClaims) and
// in the request context.
func AuthRequired(mgr *pasetotoken.Manager, sessions SessionChecker) fiber.Handler {
	return authenticate(mgr, sessions, bearerToken)
}

// AuthRequiredQuery also accepts the token as ?token=, for EventSource
// clients that cannot set headers.
func AuthRequiredQuery(mgr *pasetotoken.Manager, sessions SessionChecker) fiber.Handler {
	return authenticate(mgr, sessions, func(c fiber.Ctx) string {
		if t := bearerToken(c); t != "" {
			return t
		}
		return c.Query("token")
	})
}

func authenticate(mgr *pasetotoken.Manager, sessions SessionChecker, token func(fiber.Ctx) string) fiber.Handler {
	return func(c fiber.Ctx) error {
		raw := token(c)
		if raw == "" {
			return fiber.ErrUnauthorized
		}

		claims, err := mgr.Verify(raw)
		if err != nil {
			return fiber.ErrUnauthorized
		}
		if claims.Type != pasetotoken.TokenTypeAccess {
			return fiber.ErrUnauthorized
		}

		// A logged-out session invalidates its token before expiry.
		if claims.SessionID != nil {
			if err := sessions.CheckSession(c.Context(), *claims.SessionID); err != nil {
				return fiber.ErrUnauthorized
			}
		}

		c.Locals(pasetotoken.CtxKeyClaims, claims)
		c.SetContext(reqctx.WithClaims(c.Context(), claims))
		return c.Next()
	}
}

func bearerToken(c fiber.Ctx) string {
	h := c.Get("Authorization")
	parts := strings.SplitN(h, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
