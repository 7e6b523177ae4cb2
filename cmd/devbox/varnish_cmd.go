package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/dorcha-inc/devbox/internal/config"
	"github.com/dorcha-inc/devbox/internal/core"
	"github.com/dorcha-inc/devbox/internal/setup"
)

// newVarnishSetupCmd creates the magento:setup:varnish command
func newVarnishSetupCmd(opts *globalOptions, deps dependencies) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "magento:setup:varnish",
		Short: "Configure Magento to use Varnish and generate the VCL",
		Long: `Configure Magento's full page cache to use Varnish.

The command replaces the Varnish settings in core_config_data, cleans the config
cache so they take effect, asks bin/magento to render the VCL for the configured
backend and writes it to varnish-config-path.

Every option can also be set with a DEVBOX_ environment variable (for example
DEVBOX_WEBSERVER_HOST) or in a devbox.yaml config file.`,
		Args: cobra.NoArgs,
	}

	v := mustAddSetupFlags(cmd)

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(v, opts.configPath)
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		zap.L().Info("Setting up varnish",
			zap.String("magento_path", cfg.MagentoPath),
			zap.String("backend_host", cfg.WebserverHost),
			zap.Int("backend_port", cfg.WebserverPort),
			zap.String("vcl_profile", cfg.VCLProfile))

		result, err := setup.Run(ctx, cfg, deps.open, deps.newMagento(cfg))
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		core.MustFprintf(out, "Varnish configuration saved (%d rows replaced, %d rows written)\n", result.DeletedRows, result.InsertedRows)
		core.MustFprintf(out, "Varnish VCL written to %s (%d bytes)\n", result.VCLPath, result.VCLBytes)
		return nil
	}

	return cmd
}
