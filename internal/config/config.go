// Package config provides configuration management for devbox commands,
// including option metadata, loading with precedence (flags, environment
// variables, config files, defaults) and validation.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/dorcha-inc/devbox/internal/core"
	"github.com/dorcha-inc/devbox/internal/magento"
)

// Option names, shared by flags, environment variables and config files
const (
	OptMagentoPath       = "magento-path"
	OptWebserverHost     = "webserver-host"
	OptWebserverPort     = "webserver-port"
	OptDBHost            = "db-host"
	OptDBPort            = "db-port"
	OptDBUser            = "db-user"
	OptDBPassword        = "db-password"
	OptDBName            = "db-name"
	OptVarnishConfigPath = "varnish-config-path"
	OptVCLProfile        = "vcl-profile"
	OptPHPBinary         = "php-binary"
	OptCommandTimeout    = "command-timeout"
)

// DefaultDBPort is the MySQL port the driver connects to when none is given
const DefaultDBPort = "3306"

// ProjectConfigFileName is looked up in the current directory
const ProjectConfigFileName = "devbox.yaml"

const redactedPassword = "********"

// SetupConfig is the configuration of magento:setup:varnish.
// It is immutable once loaded.
type SetupConfig struct {
	MagentoPath       string        `yaml:"magento-path" mapstructure:"magento-path" validate:"required"`
	WebserverHost     string        `yaml:"webserver-host" mapstructure:"webserver-host" validate:"required"`
	WebserverPort     int           `yaml:"webserver-port" mapstructure:"webserver-port" validate:"min=1,max=65535"`
	DBHost            string        `yaml:"db-host" mapstructure:"db-host" validate:"required"`
	DBPort            string        `yaml:"db-port" mapstructure:"db-port" validate:"omitempty,numeric"`
	DBUser            string        `yaml:"db-user" mapstructure:"db-user" validate:"required"`
	DBPassword        string        `yaml:"db-password" mapstructure:"db-password"`
	DBName            string        `yaml:"db-name" mapstructure:"db-name" validate:"required"`
	VarnishConfigPath string        `yaml:"varnish-config-path" mapstructure:"varnish-config-path" validate:"required"`
	VCLProfile        string        `yaml:"vcl-profile" mapstructure:"vcl-profile" validate:"required"`
	PHPBinary         string        `yaml:"php-binary" mapstructure:"php-binary" validate:"required"`
	CommandTimeout    time.Duration `yaml:"command-timeout" mapstructure:"command-timeout" validate:"min=0s"`
}

// Backend returns the web server Varnish should forward to
func (cfg *SetupConfig) Backend() magento.Backend {
	return magento.Backend{Host: cfg.WebserverHost, Port: cfg.WebserverPort}
}

// Profile returns the configured VCL profile
func (cfg *SetupConfig) Profile() magento.Profile {
	return magento.Profile(cfg.VCLProfile)
}

// Redacted returns a copy with the database password masked
func (cfg *SetupConfig) Redacted() *SetupConfig {
	out := *cfg
	if out.DBPassword != "" {
		out.DBPassword = redactedPassword
	}
	return &out
}

// YAML renders the configuration with the password masked
func (cfg *SetupConfig) YAML() ([]byte, error) {
	data, err := yaml.Marshal(cfg.Redacted())
	if err != nil {
		return nil, fmt.Errorf("failed to marshal config: %w", err)
	}
	return data, nil
}

// NewViper returns a viper instance with defaults from Options() and
// DEVBOX_-prefixed environment variables bound
func NewViper() *viper.Viper {
	v := viper.New()
	for _, opt := range Options() {
		v.SetDefault(opt.Name, opt.Default)
	}
	v.SetEnvPrefix(core.EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	return v
}

// GetUserConfigPath returns the path to the user-specific config file (~/.devbox/config.yaml)
func GetUserConfigPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(homeDir, ".devbox", "config.yaml"), nil
}

// GetProjectConfigPath returns the path to the project-specific config file (./devbox.yaml)
// relative to the current working directory
func GetProjectConfigPath() (string, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("failed to get current working directory: %w", err)
	}
	return filepath.Join(cwd, ProjectConfigFileName), nil
}

// readConfigFiles merges config files into v.
// If configPath is provided (non-empty), loads from that specific path instead of using precedence
func readConfigFiles(v *viper.Viper, configPath string) error {
	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("failed to read config file: %w", err)
		}
		return nil
	}

	// Otherwise use precedence: user config first, then project config
	userPath, userErr := GetUserConfigPath()
	if userErr == nil {
		if _, userStatErr := os.Stat(userPath); userStatErr == nil {
			v.SetConfigFile(userPath)
			if userReadErr := v.MergeInConfig(); userReadErr != nil {
				zap.L().Debug("Failed to read user config file", zap.String("path", userPath), zap.Error(userReadErr))
			}
		}
	}

	projectPath, projectErr := GetProjectConfigPath()
	if projectErr == nil {
		if _, projectStatErr := os.Stat(projectPath); projectStatErr == nil {
			v.SetConfigFile(projectPath)
			if projectReadErr := v.MergeInConfig(); projectReadErr != nil {
				zap.L().Debug("Failed to merge project config file", zap.String("path", projectPath), zap.Error(projectReadErr))
			}
		}
	}

	return nil
}

// Load reads config files into v, unmarshals and validates the result.
// Flags must already be bound to v; they take precedence over everything else.
func Load(v *viper.Viper, configPath string) (*SetupConfig, error) {
	if err := readConfigFiles(v, configPath); err != nil {
		return nil, err
	}

	cfg := &SetupConfig{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := Validate(cfg); err != nil {
		return nil, err
	}

	if cfg.DBPort != DefaultDBPort {
		// TODO: pass db-port to the DSN once existing devbox setups that rely on the driver default are migrated
		zap.L().Warn("db-port is accepted but not used; the connection goes to db-host on the driver default port",
			zap.String("db_port", cfg.DBPort),
			zap.String("db_host", cfg.DBHost))
	}

	return cfg, nil
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// Report option names rather than Go field names
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("mapstructure"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Validate checks cfg against its struct tags and the known VCL profiles
func Validate(cfg *SetupConfig) error {
	if err := validate.Struct(cfg); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) {
			msgs := make([]string, 0, len(fieldErrs))
			for _, fe := range fieldErrs {
				msgs = append(msgs, fmt.Sprintf("%s: failed '%s' check (got '%v')", fe.Field(), fe.Tag(), redactValue(fe)))
			}
			return fmt.Errorf("invalid configuration: %s", strings.Join(msgs, "; "))
		}
		return fmt.Errorf("invalid configuration: %w", err)
	}

	if !magento.IsValidProfile(cfg.VCLProfile) {
		if suggestion := magento.SuggestProfile(cfg.VCLProfile); suggestion != "" {
			return fmt.Errorf("vcl-profile must be one of: %s, got '%s'. Did you mean: %s?", magento.ValidProfiles(), cfg.VCLProfile, suggestion)
		}
		return fmt.Errorf("vcl-profile must be one of: %s, got '%s'", magento.ValidProfiles(), cfg.VCLProfile)
	}

	return nil
}

func redactValue(fe validator.FieldError) any {
	if fe.Field() == OptDBPassword {
		return redactedPassword
	}
	return fe.Value()
}
