package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	ConfigName   = "config"
	ConfigFormat = "yaml"
	EnvPrefix    = "VETCLINIC"
)

var GlobalConf *Config

func ReadConfig(configPath string) (*Config, error) {
	// .env is optional; real environment variables win over it.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.Warn("failed to load .env file", "error", err)
	}

	viper.SetConfigName(ConfigName)
	viper.SetConfigType(ConfigFormat)
	viper.AddConfigPath(configPath)

	// e.g. VETCLINIC_DATABASE_HOST overrides database.host
	viper.SetEnvPrefix(EnvPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	setDefaults(viper.GetViper())

	if err := viper.ReadInConfig(); err != nil {
		// Docker deployments may run on env vars alone.
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			if os.Getenv(EnvPrefix+"_DATABASE_HOST") == "" {
				return nil, fmt.Errorf("error reading config file: %v", err)
			}
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode into struct: %v", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &config, nil
}

func MustReadConfig(path string) *Config {
	config, err := ReadConfig(path)
	if err != nil {
		panic(err)
	}

	GlobalConf = config

	return config
}

// setDefaults registers every key so AutomaticEnv can override keys that are
// absent from the file.
func setDefaults(v *viper.Viper) {
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "")
	v.SetDefault("database.dbname", "vetclinic")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.pool.max_conns", 10)
	v.SetDefault("database.pool.min_conns", 1)
	v.SetDefault("database.pool.conn_max_lifetime_minutes", 30)
	v.SetDefault("database.migrations.auto_migrate", false)

	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.username", "")
	v.SetDefault("redis.password", "")

	v.SetDefault("server.port", 8080)
	v.SetDefault("server.timeout_seconds", 30)
	v.SetDefault("server.environment", "development")
	v.SetDefault("server.rate_limit.max", 60)
	v.SetDefault("server.rate_limit.window_seconds", 60)

	v.SetDefault("clinic.name", "PawCare Veterinary Clinic")
	v.SetDefault("clinic.timezone", "UTC")
	v.SetDefault("clinic.opening", "08:00")
	v.SetDefault("clinic.last_booking", "16:30")
	v.SetDefault("clinic.slot_minutes", 30)
	v.SetDefault("clinic.slot_capacity", 3)
	v.SetDefault("clinic.default_region", "PH")

	v.SetDefault("notifications.buffer_size", 50)
	v.SetDefault("notifications.ttl_minutes", 1440)
	v.SetDefault("notifications.keepalive_seconds", 15)
	v.SetDefault("notifications.stream_max_minutes", 0)

	v.SetDefault("authentication.paseto.mode", "local")
	v.SetDefault("authentication.paseto.local_key_hex", "")
	v.SetDefault("authentication.paseto.issuer", "vetclinic")
	v.SetDefault("authentication.paseto.audience", "vetclinic-api")
	v.SetDefault("authentication.paseto.access_ttl_minutes", 60)
	v.SetDefault("authentication.session_ttl_minutes", 7*24*60)
	v.SetDefault("authentication.min_password_length", 8)

	v.SetDefault("authorization.casbin_model_path", "")
	v.SetDefault("authorization.enable_audit", true)

	v.SetDefault("email.enabled", false)
	v.SetDefault("email.smtp.port", 587)
	v.SetDefault("email.smtp.timeout_seconds", 30)

	v.SetDefault("sms.enabled", false)
	v.SetDefault("sms.smsir.api_key", "")
	v.SetDefault("sms.smsir.reminder_template_id", "")

	v.SetDefault("observability.enabled", false)
	v.SetDefault("observability.service_name", "vetclinic_backend")
	v.SetDefault("observability.metrics.path", "/metrics")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.output.stdout", true)
}
