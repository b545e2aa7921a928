package main

import (
	"fmt"
	"os"

	"github.com/rohankatakam/reqtrack/internal/config"
	"github.com/rohankatakam/reqtrack/internal/logging"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var (
	// Version information (set by build flags)
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"

	cfgFile string
	verbose bool
	logger  *logging.Logger
	cfg     *config.Config
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "reqtrack",
	Short: "reqtrack - incremental request tracker and invalidation graph",
	Long: `reqtrack memoizes a graph of interdependent requests and
invalidates exactly the ones whose declared filesystem, environment,
or option dependencies have changed.`,
	Version: Version,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(cfgFile)
		if err != nil {
			cfg = config.Default()
		}

		level := logrus.InfoLevel
		if verbose {
			level = logrus.DebugLevel
		} else if parsed, err := logrus.ParseLevel(cfg.Logging.Level); err == nil {
			level = parsed
		}

		logger, err = logging.NewLogger(logging.Config{
			Level:      level,
			OutputFile: cfg.Logging.OutputFile,
			JSONFormat: cfg.Logging.JSONFormat,
		})
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: initialize logger: %v\n", err)
			os.Exit(1)
		}

		// Colorized text output only makes sense on an interactive
		// terminal; piped/redirected output (CI logs, `reqtrack run >
		// out.log`) gets plain, uncolored text instead.
		if !cfg.Logging.JSONFormat && !term.IsTerminal(int(os.Stdout.Fd())) {
			logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true, DisableColors: true})
		}

		mode := config.DetectMode()
		result := cfg.ValidateWithMode(validationContextFor(cmd.Name()), mode)
		if len(result.Warnings) > 0 {
			for _, warn := range result.Warnings {
				logger.Warn(warn)
			}
		}
		if result.HasErrors() {
			return fmt.Errorf("configuration validation failed (mode: %s):\n%s", mode, result.Error())
		}
		return nil
	},
}

// validationContextFor maps a subcommand name to the configuration
// sections it actually touches, so e.g. `inspect` never demands watch
// settings it will never read.
func validationContextFor(cmdName string) config.ValidationContext {
	switch cmdName {
	case "run":
		return config.ValidationContextRun
	case "watch":
		return config.ValidationContextWatch
	case "inspect":
		return config.ValidationContextInspect
	default:
		return config.ValidationContextAll
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: .reqtrack/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	rootCmd.SetVersionTemplate(`reqtrack {{.Version}}
Build time: ` + BuildTime + `
Git commit: ` + GitCommit + `
`)

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(inspectCmd)
	rootCmd.AddCommand(serveCmd)
}
