package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

var (
	configDir string
	cacheDir  string
	logLevel  string
	offline   bool
)

// RootCmd is the main entry point for all pdfish subcommands.
var RootCmd = &cobra.Command{
	Use:          "pdfish",
	Short:        "pdfish – materialize PDF resources into a local cache",
	SilenceUsage: true,
}

func init() {
	RootCmd.PersistentFlags().StringVar(&configDir, "config-dir", "", "Directory holding pdfish.yaml (default: current directory)")
	RootCmd.PersistentFlags().StringVar(&cacheDir, "cache-dir", "", "Override cache directory")
	RootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (debug, info, warn, error)")
	RootCmd.PersistentFlags().BoolVar(&offline, "offline", false, "Use only cached git repositories")
}

// Execute executes the root command and exits on failure.
func Execute() {
	if err := RootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
