package authorize

import (
	"context"

	"github.com/pawcare/vetclinic_backend/config"
)

// Config holds configuration for the authorization system
type Config struct {
	// CasbinModelPath overrides DefaultModel when set
	CasbinModelPath string

	// EnableAudit enables audit logging for all authorization decisions
	EnableAudit bool
}

// DefaultConfig returns sensible defaults for authorization configuration
func DefaultConfig() Config {
	return Config{
		CasbinModelPath: "",
		EnableAudit:     true,
	}
}

// FromCentralConfig converts central config.AuthorizationConfig to package Config
func FromCentralConfig(c config.AuthorizationConfig) Config {
	return Config{
		CasbinModelPath: c.CasbinModelPath,
		EnableAudit:     c.EnableAudit,
	}
}

// New builds the authorizer described by cfg and loads DefaultPolicies.
func New(ctx context.Context, cfg Config) (IAuthorization, error) {
	e, err := NewEnforcer(cfg.CasbinModelPath)
	if err != nil {
		return nil, err
	}
	var auth IAuthorization
	auth, err = NewAuthorization(e)
	if err != nil {
		return nil, err
	}
	if cfg.EnableAudit {
		auth = NewAuditedAuthorization(auth, nil)
	}
	if err := SeedDefaultPolicies(ctx, auth); err != nil {
		return nil, err
	}
	return auth, nil
}
