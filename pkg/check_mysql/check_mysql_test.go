package check_mysql

import (
	"context"
	"database/sql/driver"
	"errors"
	"fmt"
	"net"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/consol-monitoring/checkplugins/pkg/check"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const expectedStatus = "Uptime: 1000  Threads: 2  Questions: 500  Slow queries: 1  Opens: 40  Flush tables: 1  Open tables: 30  Queries per second avg: 0.500"

func statusRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"Variable_name", "Value"}).
		AddRow("Aborted_clients", "0").
		AddRow("Flush_commands", "1").
		AddRow("Open_tables", "30").
		AddRow("Opened_tables", "40").
		AddRow("Questions", "500").
		AddRow("Slow_queries", "1").
		AddRow("Threads_connected", "2").
		AddRow("Uptime", "1000")
}

func slaveRows(ioRunning, sqlRunning string, behind driver.Value) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"Slave_IO_State", "Master_Host", "Slave_IO_Running", "Slave_SQL_Running", "Seconds_Behind_Master"}).
		AddRow("Waiting for master to send event", "db1", ioRunning, sqlRunning, behind)
}

func TestMySQLStatus(t *testing.T) {
	t.Parallel()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("SHOW GLOBAL STATUS").WillReturnRows(statusRows())

	opts, err := parseArgs([]string{"-H", "db1"})
	require.NoError(t, err)

	res := opts.evaluate(context.Background(), db)
	assert.Equal(t, check.OK, res.State)
	assert.Equal(t, expectedStatus, string(res.BuildPluginOutput()))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestMySQLSlave(t *testing.T) {
	t.Parallel()

	tests := []struct {
		rows   *sqlmock.Rows
		args   []string
		state  check.State
		output string
	}{
		{
			slaveRows("Yes", "Yes", "0"), nil, check.OK,
			expectedStatus + " Slave IO: Yes Slave SQL: Yes Seconds Behind Master: 0",
		},
		{
			slaveRows("Yes", "Yes", nil), []string{"-c", "10"}, check.OK,
			expectedStatus + " Slave IO: Yes Slave SQL: Yes Seconds Behind Master: NULL",
		},
		{
			slaveRows("Yes", "No", "0"), nil, check.Critical,
			"Slave IO: Yes Slave SQL: No Seconds Behind Master: 0",
		},
		{
			slaveRows("Yes", "Yes", "60"), []string{"-w", "30", "-c", "120"}, check.Warning,
			"SLOW_SLAVE WARNING: Slave IO: Yes Slave SQL: Yes Seconds Behind Master: 60",
		},
		{
			slaveRows("Yes", "Yes", "600"), []string{"-w", "30", "-c", "120"}, check.Critical,
			"SLOW_SLAVE CRITICAL: Slave IO: Yes Slave SQL: Yes Seconds Behind Master: 600",
		},
		{
			sqlmock.NewRows([]string{"Slave_IO_Running"}), nil, check.Warning,
			"No slaves defined",
		},
		{
			sqlmock.NewRows([]string{"Slave_IO_Running"}).AddRow("Yes"), nil, check.Critical,
			"Slave status unavailable",
		},
	}

	for _, tst := range tests {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)

		mock.ExpectQuery("SHOW GLOBAL STATUS").WillReturnRows(statusRows())
		mock.ExpectQuery("SHOW SLAVE STATUS").WillReturnRows(tst.rows)

		opts, err := parseArgs(append([]string{"-S"}, tst.args...))
		require.NoError(t, err)

		res := opts.evaluate(context.Background(), db)
		assert.Equalf(t, tst.state, res.State, "state for %s", tst.output)
		assert.Equal(t, tst.output, string(res.BuildPluginOutput()))
		require.NoError(t, mock.ExpectationsWereMet())
		db.Close()
	}
}

func TestMySQLQueryErrors(t *testing.T) {
	t.Parallel()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("SHOW GLOBAL STATUS").WillReturnError(fmt.Errorf("server has gone away"))

	opts, err := parseArgs(nil)
	require.NoError(t, err)

	res := opts.evaluate(context.Background(), db)
	assert.Equal(t, check.Critical, res.State)
	assert.Equal(t, "status query error: server has gone away", res.Output)
}

func TestConnectState(t *testing.T) {
	t.Parallel()

	dnsErr := &net.OpError{Op: "dial", Net: "tcp", Err: &net.DNSError{Err: "no such host", Name: "nonexisting"}}
	assert.Equal(t, check.Warning, ConnectState(fmt.Errorf("%w", dnsErr)))
	assert.Equal(t, check.Critical, ConnectState(errors.New("Access denied for user 'nagios'@'localhost'")))
}

func TestConnectionConfig(t *testing.T) {
	t.Parallel()

	opts, err := parseArgs([]string{"-H", "db1", "-P", "3307", "-u", "nagios", "-p", "secret", "-d", "test"})
	require.NoError(t, err)

	cfg := opts.Config(opts.TimeoutDuration())
	assert.Equal(t, "tcp", cfg.Net)
	assert.Equal(t, "db1:3307", cfg.Addr)
	assert.Equal(t, "nagios", cfg.User)
	assert.Equal(t, "secret", cfg.Passwd)
	assert.Equal(t, "test", cfg.DBName)

	opts, err = parseArgs([]string{"-s", "/run/mysqld/mysqld.sock"})
	require.NoError(t, err)

	cfg = opts.Config(opts.TimeoutDuration())
	assert.Equal(t, "unix", cfg.Net)
	assert.Equal(t, "/run/mysqld/mysqld.sock", cfg.Addr)
}
