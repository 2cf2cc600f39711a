package router

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/adaptor"
	"github.com/gofiber/fiber/v3/middleware/healthcheck"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"

	"github.com/pawcare/vetclinic_backend/config"
	"github.com/pawcare/vetclinic_backend/internal/api/http/handler"
	"github.com/pawcare/vetclinic_backend/internal/api/http/middleware"
	"github.com/pawcare/vetclinic_backend/internal/repo"
	"github.com/pawcare/vetclinic_backend/internal/service/appointment"
	"github.com/pawcare/vetclinic_backend/internal/service/auth"
	"github.com/pawcare/vetclinic_backend/internal/service/catalog"
	"github.com/pawcare/vetclinic_backend/internal/service/export"
	"github.com/pawcare/vetclinic_backend/internal/service/medical"
	"github.com/pawcare/vetclinic_backend/internal/service/notification"
	"github.com/pawcare/vetclinic_backend/internal/service/reminder"
	"github.com/pawcare/vetclinic_backend/pkg/authorize"
	pasetotoken "github.com/pawcare/vetclinic_backend/pkg/paseto"
)

const readinessTimeout = 2 * time.Second

// Module provides the Router to the fx graph.
var Module = fx.Module("router", fx.Provide(NewRouter))

type Params struct {
	fx.In

	Cfg             *config.Config
	Redis           *redis.Client
	Store           repo.Store
	Auth            authorize.IAuthorization
	PasetoMgr       *pasetotoken.Manager
	AuthSvc         auth.Service
	AppointmentSvc  appointment.Service
	CatalogSvc      catalog.Service
	MedicalSvc      medical.Service
	NotificationSvc notification.Service
	ReminderSvc     reminder.Service
	ExportSvc       export.Service
}

type Router struct {
	p             Params
	notifications *handler.NotificationHandler
}

func NewRouter(p Params) *Router {
	n := p.Cfg.Notifications
	return &Router{
		p: p,
		notifications: handler.NewNotificationHandler(p.NotificationSvc, handler.StreamConfig{
			Keepalive:   time.Duration(n.KeepaliveSeconds) * time.Second,
			MaxDuration: time.Duration(n.StreamMaxMinutes) * time.Minute,
		}),
	}
}

// Shutdown closes open notification streams so the server can drain.
func (r *Router) Shutdown() {
	r.notifications.Close()
}

func (r *Router) Register(app *fiber.App) {
	// 1. Health & Metrics
	r.registerSystemRoutes(app)

	// 2. Initialize Middlewares
	authRequired := middleware.AuthRequired(r.p.PasetoMgr, r.p.AuthSvc)
	streamAuth := middleware.AuthRequiredQuery(r.p.PasetoMgr, r.p.AuthSvc)

	// Permission helper
	requirePerm := func(res authorize.Resource, act authorize.Action) fiber.Handler {
		return middleware.RequirePermission(r.p.Auth, res, act)
	}

	// 3. Initialize Handlers
	authH := handler.NewAuthHandler(r.p.AuthSvc)
	catalogH := handler.NewCatalogHandler(r.p.CatalogSvc, r.p.AppointmentSvc)
	appointmentH := handler.NewAppointmentHandler(r.p.AppointmentSvc)
	adminH := handler.NewAdminHandler(r.p.ExportSvc, r.p.ReminderSvc, r.p.MedicalSvc)
	medicalH := handler.NewMedicalHandler(r.p.MedicalSvc)

	api := app.Group("/api/v1")

	// 4. Delegate to sub-files
	r.registerAuthRoutes(api, authH, authRequired)
	r.registerCatalogRoutes(api, catalogH, authRequired, requirePerm)
	r.registerAppointmentRoutes(api, appointmentH, authRequired, requirePerm)
	r.registerAdminRoutes(api, appointmentH, adminH, authRequired, requirePerm)
	r.registerMedicalRoutes(api, medicalH, authRequired, requirePerm)
	r.registerNotificationRoutes(api, r.notifications, authRequired, streamAuth, requirePerm)
}

func (r *Router) registerSystemRoutes(app *fiber.App) {
	app.Get(healthcheck.LivenessEndpoint, healthcheck.New())
	app.Get(healthcheck.ReadinessEndpoint, healthcheck.New(healthcheck.Config{
		Probe: func(c fiber.Ctx) bool {
			ctx, cancel := context.WithTimeout(c.Context(), readinessTimeout)
			defer cancel()
			return r.p.Store.Ping(ctx) == nil && r.p.Redis.Ping(ctx).Err() == nil
		},
	}))
	app.Get(healthcheck.StartupEndpoint, healthcheck.New())

	if r.p.Cfg.Observability.Enabled && r.p.Cfg.Observability.Metrics.Enabled {
		path := r.p.Cfg.Observability.Metrics.Path
		if path == "" {
			path = "/metrics"
		}
		app.Get(path, adaptor.HTTPHandler(promhttp.Handler()))
	}
}
