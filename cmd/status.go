/*
Copyright © 2026 Michael Putera Wardana <michaelputeraw@gmail.com>
*/
package cmd

import (
	"github.com/krobus00/tick-follower/internal/bootstrap"
	"github.com/spf13/cobra"
)

// statusCmd represents the status command
var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Print position snapshots for configured symbols",
	Long:  `Print the last persisted position snapshot for every configured symbol.`,
	Run:   bootstrap.StartStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
