package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ppiankov/aontas/internal/model"
)

// Version is the release version, overridden at build time with -ldflags
var Version = "v0.2.0"

var (
	cfgFile string
	verbose bool

	// cfg is the effective configuration, loaded before every command
	cfg *model.Config
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "aontas",
	Short: "Aontas - Leveled reading worksheets from any text or web page",
	Long: `Aontas turns a pasted text or a web page into a classroom worksheet:
a CEFR-leveled student text, exercises with an answer key, and a teacher
panel with readability notes, sensitive-content flags and vocabulary.

Without a model credential Aontas still answers, using its own heuristics.
URL sources get a heuristic trust score; it is a hint, not a fact check.`,
	SilenceErrors: true,
	SilenceUsage:  true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := LoadConfig(cfgFile)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		if verbose {
			c.Log.Level = "debug"
			c.Log.Format = "console"
		}
		cfg = c

		if err := InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

// versionCmd represents the version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Long:  `Display the version number of Aontas.`,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "aontas %s\n", Version)
	},
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: $HOME/.aontas/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output (debug console logging)")

	// Add subcommands
	rootCmd.AddCommand(versionCmd)
}
