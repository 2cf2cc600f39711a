package router

import (
	"github.com/gofiber/fiber/v3"

	"github.com/pawcare/vetclinic_backend/internal/api/http/handler"
	"github.com/pawcare/vetclinic_backend/pkg/authorize"
)

func (r *Router) registerMedicalRoutes(
	api fiber.Router,
	mh *handler.MedicalHandler,
	authRequired fiber.Handler,
	requirePerm func(authorize.Resource, authorize.Action) fiber.Handler,
) {
	read := requirePerm(authorize.ResourceMedicalRecord, authorize.ActionRead)

	records := api.Group("/medical-records", authRequired)
	records.Post("/", requirePerm(authorize.ResourceMedicalRecord, authorize.ActionCreate), mh.Submit)
	records.Get("/", read, mh.ByAppointment)

	// ownership is checked by the service
	pets := api.Group("/pets/:id", authRequired, requirePerm(authorize.ResourcePet, authorize.ActionRead))
	pets.Get("/medical-records", read, mh.ByPet)
	pets.Get("/vaccinations", read, mh.Vaccinations)
}
