// Package commands implements the redstone CLI.
package commands

import (
	"github.com/spf13/cobra"
)

var rootCmd *cobra.Command

// Execute runs the redstone CLI.
func Execute(version string) error {
	rootCmd = &cobra.Command{
		Use:   "redstone",
		Short: "Redstone - request-dispatch core for Go web handlers",
		Long: `Redstone is a request-dispatch core: routes, interceptor chains, typed
parameter resolution and response processing for web handlers.

This CLI runs a configured server and manages its configuration.`,
		Version: version,
	}

	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newConfigCmd())

	return rootCmd.Execute()
}
