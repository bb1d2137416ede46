/*
Copyright © 2026 Michael Putera Wardana <michaelputeraw@gmail.com>
*/
package cmd

import (
	"github.com/krobus00/tick-follower/internal/bootstrap"
	"github.com/spf13/cobra"
)

// traderCmd represents the trader command
var traderCmd = &cobra.Command{
	Use:   "trader",
	Short: "Run the level following trader",
	Long: `Run the level following trader using the market data stream.

The trader consumes quote and trade events from the market data gateway,
tracks per-symbol quote levels, and submits one order per confirmed level
change while enforcing session and exposure limits.`,
	Run: bootstrap.StartTrader,
}

func init() {
	rootCmd.AddCommand(traderCmd)
}
