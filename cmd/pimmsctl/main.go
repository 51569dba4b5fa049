// Package main is the pimms operator cli
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "pimmsctl",
		Short:         "Operate the pimms webhook pipeline",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.AddCommand(
		signCmd(),
		resolveAppCmd(),
		scoreCmd(),
		migrateCmd(),
		webhookErrorsCmd(),
		pingCmd(),
		versionCmd(),
	)
	return cmd
}
