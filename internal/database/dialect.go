package database

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// dialect describes how to build a DSN and a gorm dialector for a networked driver.
type dialect struct {
	name        string
	defaultHost string
	defaultPort int
	defaults    map[string]string
	format      func(cfg Config, host string, port int, opts []string) string
	open        func(dsn string) gorm.Dialector
}

var postgresDialect = dialect{
	name:        "postgres",
	defaultHost: "localhost",
	defaultPort: 5432,
	defaults:    map[string]string{"sslmode": "disable"},
	format: func(cfg Config, host string, port int, opts []string) string {
		parts := []string{
			fmt.Sprintf("host=%s", host),
			fmt.Sprintf("port=%d", port),
			fmt.Sprintf("user=%s", cfg.User),
			fmt.Sprintf("dbname=%s", cfg.Name),
		}
		if cfg.Password != "" {
			parts = append(parts, fmt.Sprintf("password=%s", cfg.Password))
		}
		return strings.Join(append(parts, opts...), " ")
	},
	open: postgres.Open,
}

var mysqlDialect = dialect{
	name:        "mysql",
	defaultHost: "127.0.0.1",
	defaultPort: 3306,
	defaults: map[string]string{
		"charset":   "utf8mb4",
		"parseTime": "True",
		"loc":       "UTC",
	},
	format: func(cfg Config, host string, port int, opts []string) string {
		user := cfg.User
		if cfg.Password != "" {
			user = cfg.User + ":" + cfg.Password
		}
		return fmt.Sprintf("%s@tcp(%s:%d)/%s?%s", user, host, port, cfg.Name, strings.Join(opts, "&"))
	},
	open: mysql.Open,
}

func openDialect(cfg Config, d dialect) (*gorm.DB, error) {
	dsn, err := d.dsn(cfg)
	if err != nil {
		return nil, err
	}
	return gorm.Open(d.open(dsn), gormConfig())
}

func (d dialect) dsn(cfg Config) (string, error) {
	if cfg.DSN != "" {
		return cfg.DSN, nil
	}
	if cfg.User == "" || cfg.Name == "" {
		return "", errors.New(d.name + " configuration requires user and database name")
	}

	host := cfg.Host
	if host == "" {
		host = d.defaultHost
	}
	port := cfg.Port
	if port == 0 {
		port = d.defaultPort
	}

	merged := make(map[string]string, len(d.defaults)+len(cfg.Options))
	for k, v := range d.defaults {
		merged[k] = v
	}
	for k, v := range cfg.Options {
		merged[k] = v
	}

	keys := make([]string, 0, len(merged))
	for k := range merged {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	opts := make([]string, 0, len(keys))
	for _, k := range keys {
		opts = append(opts, k+"="+merged[k])
	}

	return d.format(cfg, host, port, opts), nil
}
