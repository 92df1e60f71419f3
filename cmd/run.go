package cmd

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"
)

var (
	runScript       string
	runDrainTimeout time.Duration
)

// readSource returns the script given with -c, the named file or standard
// input, in that order of preference.
func readSource(cmd *cobra.Command, script string, args []string) (string, error) {
	switch {
	case cmd.Flags().Changed("command"):
		return script, nil
	case len(args) == 1 && args[0] != "-":
		src, err := os.ReadFile(args[0])
		return string(src), err
	default:
		src, err := io.ReadAll(cmd.InOrStdin())
		return string(src), err
	}
}

// runCmd evaluates a whole script.
var runCmd = &cobra.Command{
	Use:   "run [FILE]",
	Short: "Parse and evaluate a script.",
	Long: `Parse and evaluate a script from -c, FILE or standard input, then exit
with the last status once background jobs have finished.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true

		src, err := readSource(cmd, runScript, args)
		if err != nil {
			return err
		}

		sess, err := openSession(cmd, nil)
		if err != nil {
			return err
		}
		defer sess.Close()

		tree, err := sess.parser.Parse(src)
		if err != nil {
			return fmt.Errorf("syntax error: %w", err)
		}

		sess.shell.Eval(tree)
		sess.finish(runDrainTimeout)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().StringVarP(&runScript, "command", "c", "", "script to run instead of FILE")
	runCmd.Flags().DurationVar(&runDrainTimeout, "drain-timeout", 30*time.Second, "how long to wait for background jobs before exiting")
}
