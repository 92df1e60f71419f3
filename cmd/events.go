package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/josephlewis42/evalsh/core/logger"
	"github.com/spf13/cobra"
	"sigs.k8s.io/yaml"
)

const formatJSON = "json"

var (
	eventsFormat  string
	eventsSession string
)

var eventsCmd = &cobra.Command{
	Use:   "events",
	Short: "Explore the evaluator event log.",
}

// reportCommand summarizes the event log written by run, exec and
// playground sessions.
var reportCommand = &cobra.Command{
	Use:   "report",
	Short: "Summarize evaluated commands, statuses and jobs.",
	Args:  cobra.ExactArgs(0),
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true

		marshal, err := reportMarshaler(eventsFormat)
		if err != nil {
			return err
		}

		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		fd, err := cfg.ReadEventLog()
		if err != nil {
			return fmt.Errorf("reading event log in %q: %w", cfg.Dir(), err)
		}
		defer fd.Close()

		report := logger.NewReport()
		err = logger.ReadJSONLinesLog(fd, func(le *logger.LogEntry) {
			if eventsSession != "" && le.SessionID != eventsSession {
				return
			}
			report.Update(le)
		})
		if err != nil {
			return err
		}

		out, err := marshal(report)
		if err != nil {
			return err
		}

		fmt.Fprintln(cmd.OutOrStdout(), string(out))
		return nil
	},
}

func reportMarshaler(format string) (func(interface{}) ([]byte, error), error) {
	switch format {
	case formatYAML:
		return yaml.Marshal, nil
	case formatJSON:
		return func(v interface{}) ([]byte, error) {
			return json.MarshalIndent(v, "", "  ")
		}, nil
	default:
		return nil, fmt.Errorf("unknown --format %q, must be %s or %s", format, formatYAML, formatJSON)
	}
}

func init() {
	rootCmd.AddCommand(eventsCmd)
	eventsCmd.AddCommand(reportCommand)
	reportCommand.Flags().StringVar(&eventsFormat, "format", formatYAML, "output format (yaml|json)")
	reportCommand.Flags().StringVar(&eventsSession, "session", "", "only count events from this session id")
}
