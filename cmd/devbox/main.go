package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/dorcha-inc/devbox/internal/config"
	"github.com/dorcha-inc/devbox/internal/core"
	"github.com/dorcha-inc/devbox/internal/magento"
	"github.com/dorcha-inc/devbox/internal/setup"
)

var (
	version = "dev"
	// build time date
	buildDate = "unknown"
)

// globalOptions are the flags shared by every subcommand
type globalOptions struct {
	configPath string
	prettyLog  bool
	logLevel   string
}

// dependencies are the pieces a test swaps out
type dependencies struct {
	open       setup.Opener
	newMagento func(cfg *config.SetupConfig) setup.Magento
}

func defaultDependencies() dependencies {
	return dependencies{
		open: setup.OpenMySQL,
		newMagento: func(cfg *config.SetupConfig) setup.Magento {
			return magento.NewCLI(cfg.MagentoPath, cfg.PHPBinary, core.NewExecutor(cfg.CommandTimeout))
		},
	}
}

func newRootCmd(deps dependencies) *cobra.Command {
	opts := &globalOptions{}

	rootCmd := &cobra.Command{
		Use:   "devbox",
		Short: "Magento development environment tooling",
		Long: `devbox prepares a Magento development environment: it writes the application
settings the environment relies on and generates configuration for the services
around it.`,
		Version:       fmt.Sprintf("%s (built: %s)", version, buildDate),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return core.Init(opts.prettyLog, opts.logLevel)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			zap.L().Sync() //nolint:errcheck // Ignore sync errors on stdout/stderr, they're not critical and common in test environments
		},
	}

	rootCmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "Path to a devbox.yaml config file (overrides ~/.devbox/config.yaml and ./devbox.yaml)")
	rootCmd.PersistentFlags().BoolVar(&opts.prettyLog, "pretty", core.IsTerminal(os.Stderr), "Use pretty-printed logs instead of JSON")
	rootCmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "info", "Log level (debug, info, warn, error)")

	rootCmd.AddCommand(newVarnishSetupCmd(opts, deps))
	rootCmd.AddCommand(newConfigCmd(opts))

	return rootCmd
}

func main() {
	if err := newRootCmd(defaultDependencies()).Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
