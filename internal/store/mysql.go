package store

import (
	"github.com/go-sql-driver/mysql"
	gormmysql "gorm.io/driver/mysql"
)

// MySQLOptions holds the connection parameters for Magento's database
type MySQLOptions struct {
	Host     string
	User     string
	Password string
	Name     string
}

// DSN renders the connection string for opts.
// Only the host is used for the address, so the driver's default port applies.
func (opts MySQLOptions) DSN() string {
	cfg := mysql.NewConfig()
	cfg.User = opts.User
	cfg.Passwd = opts.Password
	cfg.Net = "tcp"
	cfg.Addr = opts.Host
	cfg.DBName = opts.Name
	cfg.ParseTime = true
	return cfg.FormatDSN()
}

// OpenMySQL opens one connection to Magento's MySQL database
func OpenMySQL(opts MySQLOptions) (*Store, error) {
	return Open(gormmysql.Open(opts.DSN()))
}
