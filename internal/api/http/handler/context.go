package handler

import (
	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"

	"github.com/pawcare/vetclinic_backend/internal/repo"
	"github.com/pawcare/vetclinic_backend/internal/service/appointment"
	pasetotoken "github.com/pawcare/vetclinic_backend/pkg/paseto"
)

// actorFrom builds the service-level caller from the verified token.
func actorFrom(c fiber.Ctx) (appointment.Actor, bool) {
	claims, ok := pasetotoken.ClaimsFromFiber(c)
	if !ok {
		return appointment.Actor{}, false
	}
	role := repo.Role(claims.Role)
	if !role.Valid() {
		return appointment.Actor{}, false
	}
	return appointment.Actor{UserID: claims.UserID, Role: role}, true
}

func uuidParam(c fiber.Ctx, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Params(name))
	return id, err == nil
}
