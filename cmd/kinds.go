package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/josephlewis42/evalsh/core/expr"
	"github.com/spf13/cobra"
)

// kindsCmd lists what the evaluator understands.
var kindsCmd = &cobra.Command{
	Use:   "kinds",
	Short: "Show the expression kinds and redirections the evaluator supports.",
	Args:  cobra.ExactArgs(0),
	RunE: func(cmd *cobra.Command, args []string) error {
		example := map[expr.Kind]*expr.Expression{
			expr.Empty:         expr.Nothing(),
			expr.SimpleCommand: expr.Simple("echo", "hi"),
			expr.Redirect:      expr.RedirectTo(expr.Stdout, "out", expr.Simple("ls")),
			expr.Sequence:      expr.Seq(expr.Simple("a"), expr.Simple("b")),
			expr.SequenceAnd:   expr.And(expr.Simple("a"), expr.Simple("b")),
			expr.SequenceOr:    expr.Or(expr.Simple("a"), expr.Simple("b")),
			expr.Pipe:          expr.PipeTo(expr.Simple("a"), expr.Simple("b")),
			expr.Background:    expr.Bg(expr.Simple("a")),
		}

		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		for _, k := range expr.Kinds() {
			fmt.Fprintf(tw, "%d\t%s\t%s\n", int(k), k, example[k])
		}
		tw.Flush()

		fmt.Fprintln(cmd.OutOrStdout())

		redirects := []*expr.Expression{
			expr.RedirectTo(expr.Stdout, "file", expr.Simple("cmd")),
			expr.RedirectTo(expr.Stderr, "file", expr.Simple("cmd")),
			expr.RedirectFrom(expr.Stdin, "file", expr.Simple("cmd")),
			expr.AppendTo(expr.Stdout, "file", expr.Simple("cmd")),
			expr.AppendTo(expr.Stderr, "file", expr.Simple("cmd")),
			expr.RedirectBoth("file", expr.Simple("cmd")),
			expr.AppendTo(expr.BothOutputs, "file", expr.Simple("cmd")),
		}
		for _, r := range redirects {
			fmt.Fprintf(tw, "%s\t%s\n", r.Redirection.Type, r)
		}
		return tw.Flush()
	},
}

func init() {
	rootCmd.AddCommand(kindsCmd)
}
