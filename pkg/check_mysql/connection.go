package check_mysql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/consol-monitoring/checkplugins/pkg/check"
	"github.com/go-sql-driver/mysql"
)

// ConnectionOpts contains the flags shared by all mysql plugins.
type ConnectionOpts struct {
	Hostname string `short:"H" long:"hostname" default:"localhost" description:"Host name or address of the database server"`
	Socket   string `short:"s" long:"socket" description:"Use the given unix socket instead of tcp"`
	Database string `short:"d" long:"database" description:"Database to use"`
	Username string `short:"u" long:"username" description:"Connect using the indicated username"`
	Password string `short:"p" long:"password" description:"Use the indicated password to authenticate the connection"`
	Port     int    `short:"P" long:"port" default:"3306" description:"Port number"`
}

// Config returns the driver configuration.
func (c *ConnectionOpts) Config(timeout time.Duration) *mysql.Config {
	cfg := mysql.NewConfig()
	cfg.User = c.Username
	cfg.Passwd = c.Password
	cfg.DBName = c.Database
	cfg.Net = "tcp"
	cfg.Addr = net.JoinHostPort(c.Hostname, strconv.Itoa(c.Port))
	if c.Socket != "" {
		cfg.Net = "unix"
		cfg.Addr = c.Socket
	}
	cfg.Timeout = timeout
	cfg.ReadTimeout = timeout
	cfg.WriteTimeout = timeout

	return cfg
}

// Open connects to the database server.
func (c *ConnectionOpts) Open(ctx context.Context, timeout time.Duration) (*sql.DB, error) {
	connector, err := mysql.NewConnector(c.Config(timeout))
	if err != nil {
		return nil, fmt.Errorf("mysql config: %s", err.Error())
	}

	db := sql.OpenDB(connector)
	db.SetMaxOpenConns(1)
	if err := db.PingContext(ctx); err != nil {
		db.Close()

		return nil, fmt.Errorf("%w", err)
	}

	return db, nil
}

// ConnectState returns the state for a failed connection attempt.
// Unresolvable hosts result in a warning, everything else is critical.
func ConnectState(err error) check.State {
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return check.Warning
	}

	return check.Critical
}
