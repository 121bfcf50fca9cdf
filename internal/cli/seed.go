package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aungthurhahein/GaruduaEye/internal/app"
)

var (
	seedDays   int
	seedDryRun bool
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Generate and store a synthetic rate history",
	RunE: func(cmd *cobra.Command, args []string) error {
		if seedDays <= 0 {
			return fmt.Errorf("--days must be greater than zero")
		}

		opts := app.SeedOptions{
			Days:   seedDays,
			DryRun: seedDryRun,
		}

		return getApp().Seed(cmd.Context(), opts)
	},
}

func init() {
	seedCmd.Flags().IntVar(&seedDays, "days", 30, "Number of daily points to generate")
	seedCmd.Flags().BoolVar(&seedDryRun, "dry-run", false, "Generate without writing to storage")
}
