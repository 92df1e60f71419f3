package cmd

import (
	"fmt"

	"github.com/josephlewis42/evalsh/core/env"
	"github.com/josephlewis42/evalsh/core/expr"
	"github.com/josephlewis42/evalsh/core/parse"
	"github.com/spf13/cobra"
	"sigs.k8s.io/yaml"
)

const (
	formatTree  = "tree"
	formatYAML  = "yaml"
	formatText  = "text"
	formatDebug = "debug"
)

var (
	parseScript string
	parseFormat string
	parseExpand bool
)

// parseCmd shows the tree a script turns into without running it.
var parseCmd = &cobra.Command{
	Use:   "parse [FILE]",
	Short: "Print the expression tree of a script.",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true

		src, err := readSource(cmd, parseScript, args)
		if err != nil {
			return err
		}

		if parseFormat == formatDebug {
			out, err := parse.Debug(src)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), out)
			return nil
		}

		parser := &parse.Parser{}
		if parseExpand {
			parser.Env = env.NewProcessEnv()
		}
		tree, err := parser.Parse(src)
		if err != nil {
			return err
		}

		switch parseFormat {
		case formatTree:
			return expr.Dump(cmd.OutOrStdout(), tree)
		case formatYAML:
			out, err := yaml.Marshal(tree)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), string(out))
		case formatText:
			fmt.Fprintln(cmd.OutOrStdout(), tree.String())
		default:
			return fmt.Errorf("unknown format %q, expected one of: %s, %s, %s, %s", parseFormat, formatTree, formatYAML, formatText, formatDebug)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(parseCmd)
	parseCmd.Flags().StringVarP(&parseScript, "command", "c", "", "script to parse instead of FILE")
	parseCmd.Flags().StringVar(&parseFormat, "format", formatTree, "output format (tree|yaml|text|debug)")
	parseCmd.Flags().BoolVar(&parseExpand, "expand", false, "expand $NAME from the environment")
}
