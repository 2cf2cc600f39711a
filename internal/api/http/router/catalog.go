package router

import (
	"github.com/gofiber/fiber/v3"

	"github.com/pawcare/vetclinic_backend/internal/api/http/handler"
	"github.com/pawcare/vetclinic_backend/pkg/authorize"
)

func (r *Router) registerCatalogRoutes(
	api fiber.Router,
	ch *handler.CatalogHandler,
	authRequired fiber.Handler,
	requirePerm func(authorize.Resource, authorize.Action) fiber.Handler,
) {
	// public
	api.Get("/services", ch.Services)
	api.Get("/slots", ch.Slots)

	// staff inventory views
	api.Get("/lab-tests", authRequired, requirePerm(authorize.ResourceInventory, authorize.ActionRead), ch.LabTests)
	api.Get("/products", authRequired, requirePerm(authorize.ResourceInventory, authorize.ActionRead), ch.Products)
}
