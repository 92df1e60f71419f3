package cmd

import (
	"errors"
	"io/fs"
	"log"
	"os"

	"github.com/josephlewis42/evalsh/core/config"
	"github.com/spf13/cobra"
)

var (
	cfgPath string
	verbose bool

	// exitStatus is the process exit code once the command finishes.
	exitStatus int
)

// loadConfig loads the configuration, falling back to the built-in defaults
// if none was initialized.
func loadConfig() (*config.Configuration, error) {
	configuration, err := config.Load(cfgPath)

	if errors.Is(err, fs.ErrNotExist) {
		log.Println("Couldn't load config, using defaults: did you run init?")
		return config.Default(), nil
	}

	return configuration, err
}

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "evalsh",
	Short: "Evaluate shell expression trees",
	Long: `A shell evaluator that runs parsed command trees against real
processes: simple commands, redirections, sequences, pipelines and
background jobs.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	cobra.CheckErr(rootCmd.Execute())
	os.Exit(exitStatus)
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", ".", "config path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log evaluator events to stderr")
}
