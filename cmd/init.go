package cmd

import (
	"log"
	"path/filepath"

	"github.com/josephlewis42/evalsh/core/config"
	"github.com/spf13/cobra"
)

// initCmd writes the default configuration and reports where sessions will
// keep their state.
var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write the default configuration into the --config directory.",
	Args:  cobra.ExactArgs(0),
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true

		logger := log.New(cmd.ErrOrStderr(), "", 0)

		cfg, err := config.Initialize(cfgPath, logger)
		if err != nil {
			return err
		}

		if cfg.Logging.EventLog {
			logger.Printf("Events will be logged to %s", filepath.Join(cfg.Dir(), config.EventLogName))
		}
		if history := cfg.HistoryPath(); history != "" {
			logger.Printf("Playground history will be kept in %s", history)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
