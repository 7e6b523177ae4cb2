package main

import (
	"github.com/spf13/cobra"

	"github.com/dorcha-inc/devbox/internal/config"
	"github.com/dorcha-inc/devbox/internal/core"
)

// newConfigCmd creates the config command
func newConfigCmd(opts *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect devbox configuration",
	}

	cmd.AddCommand(newConfigShowCmd(opts))

	return cmd
}

// newConfigShowCmd creates the config show command
func newConfigShowCmd(opts *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show the resolved magento:setup:varnish configuration",
		Long: `Show the configuration magento:setup:varnish would run with, after applying
flags, DEVBOX_ environment variables, config files and defaults. The database
password is masked.`,
		Args: cobra.NoArgs,
	}

	v := mustAddSetupFlags(cmd)

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(v, opts.configPath)
		if err != nil {
			return err
		}

		data, err := cfg.YAML()
		if err != nil {
			return err
		}

		core.MustFprintf(cmd.OutOrStdout(), "%s", data)
		return nil
	}

	return cmd
}
