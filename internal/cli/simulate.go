package cli

import (
	"errors"

	"github.com/spf13/cobra"

	"signal-watcher/internal/app"
)

var (
	simulateSymbol string
	simulateSignal string
)

var simulateCmd = &cobra.Command{
	Use:   "simulate-alert",
	Short: "Send a synthetic signal alert to verify bot wiring",
	RunE: func(cmd *cobra.Command, args []string) error {
		if simulateSymbol == "" {
			return errors.New("--symbol is required")
		}

		opts := app.SimulateOptions{
			Symbol:     simulateSymbol,
			SignalType: simulateSignal,
		}
		return getApp().Simulate(cmd.Context(), opts)
	},
}

func init() {
	simulateCmd.Flags().StringVar(&simulateSymbol, "symbol", "BTCUSDT", "Trading pair for the synthetic alert")
	simulateCmd.Flags().StringVar(&simulateSignal, "signal", "super_signal", "Signal type (super_signal, strong_buy, strong_sell, golden_cross)")
}
