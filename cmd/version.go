package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

// Build information, set by main.
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildTime = "unknown"
)

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintf(cmd.OutOrStdout(), "todoscan %s (commit %s, built %s)\n", Version, GitCommit, BuildTime)
			return nil
		},
	}
}
