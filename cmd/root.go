package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	httpcmd "github.com/pawcare/vetclinic_backend/cmd/http"
	systemcmd "github.com/pawcare/vetclinic_backend/cmd/system"
)

var (
	cfgFile string
)

var rootCmd = &cobra.Command{
	Use:   "vetclinic",
	Short: "Appointment and medical records backend for a veterinary clinic.",
	Long: `vetclinic serves the clinic's booking API: customers book and manage
appointments for their pets, and staff run the front desk, record visits and
follow new bookings live.`,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	// Global config flag, available for all commands.
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "config.yaml", "config file path")

	// Attach top-level command trees.
	rootCmd.AddCommand(systemcmd.NewSystemCommand())
	rootCmd.AddCommand(httpcmd.NewHTTPCommand())
}
