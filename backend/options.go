package backend

import (
	"errors"
	"net"
	"strconv"
	"time"

	"github.com/go-sql-driver/mysql"
)

// Default connection settings, matching the stock mysql client.
const (
	DefaultHost     = "localhost"
	DefaultPort     = 3306
	DefaultSocket   = "/var/run/mysqld/mysqld.sock"
	DefaultUsername = "root"
)

// Options configures a MySQL connection.
//
// Zero fields take the Default* values, except Password which may be empty
// and Database which is required. As with the mysql client, a host of
// "localhost" connects through Socket; any other host uses TCP on Port.
type Options struct {
	Host     string
	Port     int
	Socket   string
	Username string
	Password string
	Database string

	// Timeout bounds dialing. Zero means the driver default.
	Timeout time.Duration
}

// ErrNoDatabase is returned by Options.Config when Database is empty.
var ErrNoDatabase = errors.New("backend: database name is required")

func (o Options) withDefaults() Options {
	if o.Host == "" {
		o.Host = DefaultHost
	}
	if o.Port == 0 {
		o.Port = DefaultPort
	}
	if o.Socket == "" {
		o.Socket = DefaultSocket
	}
	if o.Username == "" {
		o.Username = DefaultUsername
	}
	return o
}

// Config converts the options to a driver configuration.
func (o Options) Config() (*mysql.Config, error) {
	if o.Database == "" {
		return nil, ErrNoDatabase
	}
	o = o.withDefaults()

	cfg := mysql.NewConfig()
	cfg.User = o.Username
	cfg.Passwd = o.Password
	cfg.DBName = o.Database
	cfg.Timeout = o.Timeout
	cfg.ParseTime = true

	if o.Host == DefaultHost {
		cfg.Net = "unix"
		cfg.Addr = o.Socket
	} else {
		cfg.Net = "tcp"
		cfg.Addr = net.JoinHostPort(o.Host, strconv.Itoa(o.Port))
	}
	return cfg, nil
}

// DSN returns the options as a go-sql-driver data source name.
func (o Options) DSN() (string, error) {
	cfg, err := o.Config()
	if err != nil {
		return "", err
	}
	return cfg.FormatDSN(), nil
}
