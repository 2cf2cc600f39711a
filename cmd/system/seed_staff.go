package system

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"

	"github.com/pawcare/vetclinic_backend/config"
	"github.com/pawcare/vetclinic_backend/internal/app"
	"github.com/pawcare/vetclinic_backend/internal/repo"
	"github.com/pawcare/vetclinic_backend/internal/service/auth"
	"github.com/pawcare/vetclinic_backend/pkg/logs"
	"github.com/pawcare/vetclinic_backend/pkg/validate"
)

func NewSeedStaffCommand() *cobra.Command {
	var req auth.StaffRequest
	var role, email string

	cmd := &cobra.Command{
		Use:   "seed-staff",
		Short: "Create a staff or admin account",
		Example: `  vetclinic system seed-staff --phone "+639171234567" --password "s3cret-pass" \
    --first-name Maria --last-name Santos --role admin`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfgPath, err := cmd.Root().PersistentFlags().GetString("config")
			if err != nil {
				return fmt.Errorf("failed to get config flag: %w", err)
			}
			cfg, err := config.ReadConfig(filepath.Dir(cfgPath))
			if err != nil {
				return fmt.Errorf("failed to read config: %w", err)
			}
			slog.SetDefault(logs.New(cfg))

			req.Role = repo.Role(strings.ToLower(role))
			if email != "" {
				req.Email = &email
			}

			var svc auth.Service
			fxApp := fx.New(
				fx.Supply(cfg),
				app.InfraModule,
				app.ServiceModule,
				fx.Populate(&svc),
				fx.WithLogger(func() fxevent.Logger { return fxevent.NopLogger }),
			)

			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()

			if err := fxApp.Start(ctx); err != nil {
				return fmt.Errorf("failed to start: %w", err)
			}
			defer fxApp.Stop(context.Background())

			u, err := svc.CreateStaff(ctx, req)
			if err != nil {
				if ve, ok := validate.As(err); ok {
					return fmt.Errorf("invalid account: %w", ve)
				}
				if errors.Is(err, auth.ErrPhoneAlreadyExists) {
					return fmt.Errorf("%s: %w", req.Phone, err)
				}
				return fmt.Errorf("failed to create account: %w", err)
			}

			fmt.Printf("Created %s account %s (%s)\n", u.Role, u.ID, u.Phone)
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&req.Phone, "phone", "", "phone number (normalized to E.164)")
	f.StringVar(&req.Password, "password", "", "login password")
	f.StringVar(&req.FirstName, "first-name", "", "first name")
	f.StringVar(&req.LastName, "last-name", "", "last name")
	f.StringVar(&email, "email", "", "optional e-mail address")
	f.StringVar(&role, "role", string(repo.RoleStaff), "staff or admin")
	_ = cmd.MarkFlagRequired("phone")
	_ = cmd.MarkFlagRequired("password")

	return cmd
}
