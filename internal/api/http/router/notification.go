package router

import (
	"github.com/gofiber/fiber/v3"

	"github.com/pawcare/vetclinic_backend/internal/api/http/handler"
	"github.com/pawcare/vetclinic_backend/pkg/authorize"
)

func (r *Router) registerNotificationRoutes(
	api fiber.Router,
	nh *handler.NotificationHandler,
	authRequired fiber.Handler,
	streamAuth fiber.Handler,
	requirePerm func(authorize.Resource, authorize.Action) fiber.Handler,
) {
	read := requirePerm(authorize.ResourceNotification, authorize.ActionRead)

	api.Get("/notifications", authRequired, read, nh.Poll)
	api.Get("/notifications/stream", streamAuth, read, nh.Stream)
}
