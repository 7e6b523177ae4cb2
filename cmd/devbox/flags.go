package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/dorcha-inc/devbox/internal/config"
)

// addSetupFlags registers one flag per setup option and binds them to a fresh viper
// instance, so a flag given on the command line beats env and config files
func addSetupFlags(cmd *cobra.Command) (*viper.Viper, error) {
	v := config.NewViper()

	for _, opt := range config.Options() {
		switch def := opt.Default.(type) {
		case string:
			cmd.Flags().String(opt.Name, def, opt.Description)
		case int:
			cmd.Flags().Int(opt.Name, def, opt.Description)
		case time.Duration:
			cmd.Flags().Duration(opt.Name, def, opt.Description)
		default:
			return nil, fmt.Errorf("option %s has unsupported default type %T", opt.Name, opt.Default)
		}
	}

	if err := v.BindPFlags(cmd.Flags()); err != nil {
		return nil, fmt.Errorf("failed to bind flags: %w", err)
	}

	return v, nil
}

// mustAddSetupFlags panics if the option table cannot be turned into flags,
// which only happens when a new option uses an unhandled type
func mustAddSetupFlags(cmd *cobra.Command) *viper.Viper {
	v, err := addSetupFlags(cmd)
	if err != nil {
		panic(err)
	}
	return v
}
