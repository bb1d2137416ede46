/*
Copyright © 2026 Michael Putera Wardana <michaelputeraw@gmail.com>
*/
package cmd

import (
	"github.com/krobus00/tick-follower/internal/bootstrap"
	"github.com/spf13/cobra"
)

// marketDataGatewayCmd represents the marketDataGateway command
var marketDataGatewayCmd = &cobra.Command{
	Use:   "market-data-gateway",
	Short: "Market data gateway service",
	Long: `Market Data Gateway subscribes to broker market data feeds, receives
real-time quotes, trades, and order updates, and distributes them to the
trader over jetstream.

This service acts as a central hub that:
- Subscribes to the broker websocket streams
- Receives and normalizes market updates
- Distributes market data to the trader in real-time`,
	Run: bootstrap.StartMarketDataGateway,
}

func init() {
	rootCmd.AddCommand(marketDataGatewayCmd)
}
