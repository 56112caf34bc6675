// Package cli wires the command-line interface.
package cli

import (
	"github.com/spf13/cobra"
)

// Build information, injected via ldflags.
var (
	Version   = "dev"
	GitCommit = "unknown"
)

var cfgPath string

var rootCmd = &cobra.Command{
	Use:     "hualpen",
	Short:   "Hualpén driver roster engine",
	Version: Version,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "configuration file (yaml/json)")
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(solveCmd)
}

// Execute runs the CLI.
func Execute() error { return rootCmd.Execute() }
