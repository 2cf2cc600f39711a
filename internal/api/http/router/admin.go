package router

import (
	"github.com/gofiber/fiber/v3"

	"github.com/pawcare/vetclinic_backend/internal/api/http/handler"
	"github.com/pawcare/vetclinic_backend/pkg/authorize"
)

func (r *Router) registerAdminRoutes(
	api fiber.Router,
	ah *handler.AppointmentHandler,
	adm *handler.AdminHandler,
	authRequired fiber.Handler,
	requirePerm func(authorize.Resource, authorize.Action) fiber.Handler,
) {
	manage := requirePerm(authorize.ResourceAppointmentAdmin, authorize.ActionManage)

	appts := api.Group("/admin/appointments", authRequired)

	appts.Get("/", manage, ah.ListAll)
	appts.Get("/export", requirePerm(authorize.ResourceExport, authorize.ActionExecute), adm.Export)
	appts.Post("/walk-in", manage, ah.WalkIn)

	a := appts.Group("/:id")
	a.Put("/status", manage, ah.SetStatus)
	a.Put("/reschedule", manage, ah.Reschedule)
	a.Delete("/", manage, ah.Delete)
	a.Post("/remind", requirePerm(authorize.ResourceReminder, authorize.ActionExecute), adm.Remind)
	a.Get("/bill", manage, adm.Bill)
}
