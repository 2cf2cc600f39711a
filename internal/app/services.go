package app

import (
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"

	"github.com/pawcare/vetclinic_backend/config"
	"github.com/pawcare/vetclinic_backend/internal/repo"
	"github.com/pawcare/vetclinic_backend/internal/service/appointment"
	"github.com/pawcare/vetclinic_backend/internal/service/auth"
	"github.com/pawcare/vetclinic_backend/internal/service/catalog"
	"github.com/pawcare/vetclinic_backend/internal/service/export"
	"github.com/pawcare/vetclinic_backend/internal/service/medical"
	"github.com/pawcare/vetclinic_backend/internal/service/notification"
	"github.com/pawcare/vetclinic_backend/internal/service/reminder"
	"github.com/pawcare/vetclinic_backend/internal/service/scheduling"
	"github.com/pawcare/vetclinic_backend/pkg/email"
	pasetotoken "github.com/pawcare/vetclinic_backend/pkg/paseto"
	"github.com/pawcare/vetclinic_backend/pkg/sms"
	"github.com/pawcare/vetclinic_backend/pkg/util/password"
)

// ServiceModule provides all application service dependencies.
var ServiceModule = fx.Module("services",
	fx.Provide(
		ProvidePasetoManager,
		ProvidePasswordHasher,
		ProvideAuthService,
		ProvideSchedulingService,
		ProvideNotificationService,
		ProvideAppointmentService,
		ProvideMedicalService,
		ProvideCatalogService,
		ProvideReminderService,
		ProvideExportService,
	),
)

func ProvidePasetoManager(cfg *config.Config) (*pasetotoken.Manager, error) {
	return pasetotoken.NewPasetoManager(cfg)
}

func ProvidePasswordHasher(cfg *config.Config) *password.Hasher {
	return password.NewHasher(password.FromCentralConfig(cfg.Password))
}

func ProvideAuthService(
	store repo.Store,
	rdb *redis.Client,
	paseto *pasetotoken.Manager,
	hasher *password.Hasher,
	cfg *config.Config,
) auth.Service {
	return auth.New(store, rdb, paseto, hasher, cfg)
}

func ProvideSchedulingService(store repo.Store, cfg *config.Config) (scheduling.Service, error) {
	return scheduling.New(scheduling.ConfigFromClinic(cfg.Clinic), store)
}

func ProvideNotificationService(rdb *redis.Client, cfg *config.Config) notification.Service {
	return notification.New(rdb, notification.Config{
		BufferSize: cfg.Notifications.BufferSize,
		TTL:        time.Duration(cfg.Notifications.TTLMinutes) * time.Minute,
	})
}

func ProvideAppointmentService(
	store repo.Store,
	schedule scheduling.Service,
	notifier notification.Service,
	cfg *config.Config,
) appointment.Service {
	return appointment.New(store, schedule, notifier, cfg.Clinic.DefaultRegion)
}

func ProvideMedicalService(store repo.Store, notifier notification.Service) medical.Service {
	return medical.New(store, notifier)
}

func ProvideCatalogService(store repo.Store) catalog.Service {
	return catalog.New(store)
}

func ProvideReminderService(store repo.Store, smsCli *sms.Client, mail *email.Client) reminder.Service {
	return reminder.New(store, smsCli, mail)
}

func ProvideExportService(store repo.Store) export.Service {
	return export.New(store)
}
