package router

import (
	"github.com/gofiber/fiber/v3"

	"github.com/pawcare/vetclinic_backend/internal/api/http/handler"
	"github.com/pawcare/vetclinic_backend/pkg/authorize"
)

func (r *Router) registerAppointmentRoutes(
	api fiber.Router,
	ah *handler.AppointmentHandler,
	authRequired fiber.Handler,
	requirePerm func(authorize.Resource, authorize.Action) fiber.Handler,
) {
	api.Get("/pets", authRequired, requirePerm(authorize.ResourcePet, authorize.ActionList), ah.ListPets)

	appts := api.Group("/appointments", authRequired)

	appts.Get("/", requirePerm(authorize.ResourceAppointment, authorize.ActionList), ah.ListOwn)
	appts.Post("/", requirePerm(authorize.ResourceAppointment, authorize.ActionCreate), ah.Create)

	a := appts.Group("/:id")
	a.Get("/", requirePerm(authorize.ResourceAppointment, authorize.ActionRead), ah.Get)
	a.Put("/", requirePerm(authorize.ResourceAppointment, authorize.ActionUpdate), ah.RescheduleOwn)
	a.Put("/cancel", requirePerm(authorize.ResourceAppointment, authorize.ActionUpdate), ah.CancelOwn)
}
