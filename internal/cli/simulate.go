package cli

import (
	"errors"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

var simulateRate float64

var simulateCmd = &cobra.Command{
	Use:   "simulate-alert",
	Short: "Run one evaluation cycle with a supplied rate",
	RunE: func(cmd *cobra.Command, args []string) error {
		if simulateRate <= 0 {
			return errors.New("--rate must be greater than 0")
		}

		rate := decimal.NewFromFloat(simulateRate)
		return getApp().SimulateAlert(cmd.Context(), rate)
	},
}

func init() {
	simulateCmd.Flags().Float64Var(&simulateRate, "rate", 0, "Observed exchange rate to evaluate")
}
