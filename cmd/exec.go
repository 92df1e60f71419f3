package cmd

import (
	"errors"
	"strings"

	"github.com/josephlewis42/evalsh/core/expr"
	"github.com/josephlewis42/evalsh/core/parse"
	"github.com/spf13/cobra"
)

// execCmd runs one simple command without going through the shell grammar.
var execCmd = &cobra.Command{
	Use:   "exec -- COMMAND [ARG...]",
	Short: "Run a single command line as one simple command.",
	Long: `Split the arguments into words with shell quoting rules and run them as
a single program. Operators such as | and > are passed through as plain
arguments.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true

		words, err := parse.Words(strings.Join(args, " "))
		if err != nil {
			return err
		}
		if len(words) == 0 {
			return errors.New("empty command")
		}

		sess, err := openSession(cmd, nil)
		if err != nil {
			return err
		}
		defer sess.Close()

		sess.shell.Eval(expr.Simple(words...))
		sess.finish(0)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(execCmd)
}
