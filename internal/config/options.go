package config

import (
	"time"

	"github.com/dorcha-inc/devbox/internal/magento"
)

// Option describes one setting of magento:setup:varnish: its default, the help
// text shown for its flag, and the question an interactive front end would ask.
// Initial options are the ones collected up front when running interactively.
type Option struct {
	Name        string
	Default     any
	Description string
	Question    string
	Initial     bool
}

// Defaults
const (
	DefaultMagentoPath       = "/var/www/magento2"
	DefaultWebserverHost     = "web"
	DefaultWebserverPort     = 80
	DefaultDBHost            = "db"
	DefaultDBUser            = "root"
	DefaultDBPassword        = "root"
	DefaultDBName            = "magento2"
	DefaultVarnishConfigPath = "/home/magento2/configs/varnish/default.vcl"
	DefaultPHPBinary         = "php"
	DefaultCommandTimeout    = 5 * time.Minute
)

// Options returns the option table, in the order options are presented
func Options() []Option {
	return []Option{
		{
			Name:        OptMagentoPath,
			Default:     DefaultMagentoPath,
			Description: "Magento root directory",
			Question:    "Please enter magento root directory %default%",
			Initial:     true,
		},
		{
			Name:        OptWebserverHost,
			Default:     DefaultWebserverHost,
			Description: "Varnish Backend Host",
			Question:    "Please enter Varnish Backend Host %default%",
			Initial:     true,
		},
		{
			Name:        OptWebserverPort,
			Default:     DefaultWebserverPort,
			Description: "Varnish Backend Port",
			Question:    "Please enter Varnish Backend Port %default%",
			Initial:     true,
		},
		{
			Name:        OptDBHost,
			Default:     DefaultDBHost,
			Description: "Magento Mysql host",
			Question:    "Please enter magento Mysql host %default%",
			Initial:     true,
		},
		{
			Name:        OptDBPort,
			Default:     DefaultDBPort,
			Description: "Magento Mysql port (accepted but not used for the connection)",
			Question:    "Please enter magento Mysql port %default%",
			Initial:     true,
		},
		{
			Name:        OptDBUser,
			Default:     DefaultDBUser,
			Description: "Magento Mysql user",
			Question:    "Please enter magento Mysql user %default%",
			Initial:     true,
		},
		{
			Name:        OptDBPassword,
			Default:     DefaultDBPassword,
			Description: "Magento Mysql password",
			Question:    "Please enter magento Mysql password %default%",
			Initial:     true,
		},
		{
			Name:        OptDBName,
			Default:     DefaultDBName,
			Description: "Magento Mysql database",
			Question:    "Please enter magento Mysql database %default%",
			Initial:     true,
		},
		{
			Name:        OptVarnishConfigPath,
			Default:     DefaultVarnishConfigPath,
			Description: "Output path of the generated Varnish configuration file",
			Question:    "Please enter output configuration file path %default%",
			Initial:     true,
		},
		{
			Name:        OptVCLProfile,
			Default:     string(magento.DefaultProfile),
			Description: "VCL profile to export (" + magento.ValidProfiles() + "; varnish6 needs Magento 2.3.2 or later)",
		},
		{
			Name:        OptPHPBinary,
			Default:     DefaultPHPBinary,
			Description: "PHP interpreter used to run bin/magento",
		},
		{
			Name:        OptCommandTimeout,
			Default:     DefaultCommandTimeout,
			Description: "Timeout for each bin/magento invocation (0 disables it)",
		},
	}
}
