package cmd

import (
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"github.com/abiosoft/readline"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

const (
	colorAlways = "always"
	colorAuto   = "auto"
	colorNever  = "never"
)

var (
	ColorBoldGreen = []color.Attribute{color.FgGreen, color.Bold}
	ColorBoldRed   = []color.Attribute{color.FgRed, color.Bold}
)

var playgroundColor string

// ColorPrinter decides whether output to a file gets colored.
type ColorPrinter struct {
	value string
	out   *os.File
}

func (c *ColorPrinter) ShouldColor() bool {
	switch c.value {
	case colorNever:
		return false
	case colorAlways:
		return true
	default:
		return term.IsTerminal(int(c.out.Fd()))
	}
}

func (c *ColorPrinter) Sprintf(attrs []color.Attribute, format string, a ...interface{}) string {
	if !c.ShouldColor() {
		return fmt.Sprintf(format, a...)
	}

	// EnableColor overrides fatih/color's own terminal detection.
	clr := color.New(attrs...)
	clr.EnableColor()
	return clr.Sprintf(format, a...)
}

// prompt shows the last status ahead of the configured prompt.
func prompt(cp *ColorPrinter, base string, status int) string {
	statusColor := ColorBoldGreen
	if status != 0 {
		statusColor = ColorBoldRed
	}
	return cp.Sprintf(statusColor, "[%d] ", status) + base
}

// playgroundCmd runs an interactive loop over the local OS.
var playgroundCmd = &cobra.Command{
	Use:   "playground",
	Short: "Evaluate lines interactively.",
	Long: `Read lines with history and editing, evaluating each one as it is
entered. Launched programs read standard input from /dev/null because the
line editor owns the terminal.`,
	Args: cobra.ExactArgs(0),
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true

		switch playgroundColor {
		case colorAlways, colorAuto, colorNever:
		default:
			return fmt.Errorf("--color must be one of %s, %s or %s", colorAlways, colorAuto, colorNever)
		}

		devNull, err := os.Open(os.DevNull)
		if err != nil {
			return err
		}
		defer devNull.Close()

		sess, err := openSession(cmd, devNull)
		if err != nil {
			return err
		}
		defer sess.Close()

		rlConfig := &readline.Config{
			Prompt:          sess.cfg.Shell.Prompt,
			HistoryFile:     sess.cfg.HistoryPath(),
			InterruptPrompt: "^C",
			EOFPrompt:       "exit",
		}
		if err := rlConfig.Init(); err != nil {
			return err
		}

		rl, err := readline.NewEx(rlConfig)
		if err != nil {
			return err
		}
		defer rl.Close()

		playgroundLogger := log.New(cmd.ErrOrStderr(), "[playground] ", 0)
		if sess.cfg.Logging.EventLog {
			playgroundLogger.Printf("Logging events to: %s\n", sess.cfg.Dir())
		}
		playgroundLogger.Println(strings.Repeat("=", 80))

		cp := &ColorPrinter{value: playgroundColor, out: os.Stdout}
		for {
			rl.SetPrompt(prompt(cp, sess.cfg.Shell.Prompt, sess.shell.Status()))
			line, err := rl.Readline()

			switch {
			case err == io.EOF:
				sess.finish(0)
				return nil

			case err == readline.ErrInterrupt:
				// Interrupt clears line.
				continue
			case err != nil:
				playgroundLogger.Printf("Error readline: %v", err)
				continue

			case strings.TrimSpace(line) == "":
				continue // empty line
			case strings.TrimSpace(line) == "exit":
				sess.finish(0)
				return nil
			}

			tree, err := sess.parser.Parse(line)
			if err != nil {
				fmt.Fprintf(rl, "evalsh: syntax error: %v\n", err)
				sess.shell.SetStatus(2)
				continue
			}
			sess.shell.Eval(tree)
		}
	},
}

func init() {
	rootCmd.AddCommand(playgroundCmd)
	playgroundCmd.Flags().StringVar(&playgroundColor, "color", colorAuto, "colorize the prompt (always|auto|never)")
}
