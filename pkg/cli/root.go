// Package cli wires the salesagg commands: `run` executes one
// aggregation pass over the input tree, `serve` exposes the resulting
// summaries to the dashboard.
package cli

import "github.com/spf13/cobra"

// NewRootCommand returns the top-level salesagg command.
func NewRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "salesagg",
		Short:         "aggregate hourly sales-event logs into per-hour revenue summaries",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(NewRunCommand())
	root.AddCommand(NewServeCommand())
	return root
}
