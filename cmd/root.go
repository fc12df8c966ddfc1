package cmd

import (
	"fmt"
	"os"

	"locafix/core/logger"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// configDir is where the .env file is looked up.
var configDir string

// RootCmd represents the base command when called without any subcommands
var RootCmd = &cobra.Command{
	Use:   "locafix",
	Short: "Localization catalog reconciler",
	Long: `locafix compares an original and a modified localization catalog, removes
entries whose version changed while their text did not, and restores the original
version in every file of a mod tree that references them.

It can also batch-convert lsx resources to lsj (and back) through an external tool,
and serve the same operations over an HTTP API.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func Execute() {
	if err := RootCmd.Execute(); err != nil {
		// CLI failures always go to the console with ISO8601 timestamps
		cfg := &logger.Config{
			Level:  "debug",
			Format: "console",
		}

		l, logErr := logger.New(cfg)
		if logErr == nil {
			l.Error("command failed", zap.Error(err))
			_ = l.Sync()
		} else {
			fmt.Println(err)
		}
		os.Exit(1)
	}
}

func init() {
	RootCmd.PersistentFlags().StringVar(&configDir, "config-dir", ".", "Directory containing the .env file")
}
