package check_mysql

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"strings"

	"github.com/consol-monitoring/checkplugins/pkg/check"
	"github.com/consol-monitoring/checkplugins/pkg/convert"
	"github.com/consol-monitoring/checkplugins/pkg/logger"
	"github.com/consol-monitoring/checkplugins/pkg/threshold"
	"github.com/jessevdk/go-flags"
)

var log = logger.Log

type mysqlOpts struct {
	check.CommonOpts
	ConnectionOpts
	CheckSlave bool   `short:"S" long:"check-slave" description:"Check if the slave thread is running properly"`
	Warning    string `short:"w" long:"warning" description:"Exit with WARNING status if slave server is more than INTEGER seconds behind master"`
	Critical   string `short:"c" long:"critical" description:"Exit with CRITICAL status if slave server is more then INTEGER seconds behind master"`

	thresholds *threshold.Thresholds[float64]
}

// serverStatus lists the status line fields and the global status variables they are read from.
var serverStatus = []struct {
	name     string
	variable string
}{
	{"Uptime", "Uptime"},
	{"Threads", "Threads_connected"},
	{"Questions", "Questions"},
	{"Slow queries", "Slow_queries"},
	{"Opens", "Opened_tables"},
	{"Flush tables", "Flush_commands"},
	{"Open tables", "Open_tables"},
}

func Check(ctx context.Context, output io.Writer, args []string) int {
	opts, err := parseArgs(args)
	if err != nil {
		return check.UsageError(output, err)
	}
	opts.Setup()

	res := check.RunWithTimeout(ctx, opts.TimeoutDuration(), "MYSQL", opts.run)

	return res.Write(output)
}

func parseArgs(args []string) (*mysqlOpts, error) {
	opts := &mysqlOpts{}
	err := check.ParseArgs("check_mysql", opts, args, flags.HelpFlag|flags.PassDoubleDash)
	if err != nil {
		return nil, err
	}

	opts.thresholds, err = threshold.NewThresholds(opts.Warning, opts.Critical, threshold.DefaultLower(0.0))
	if err != nil {
		return nil, err
	}

	return opts, nil
}

func (opts *mysqlOpts) run(ctx context.Context) *check.Result {
	db, err := opts.Open(ctx, opts.TimeoutDuration())
	if err != nil {
		res := check.NewResult("")
		res.Set(ConnectState(err), "%s", err.Error())

		return res
	}
	defer db.Close()

	return opts.evaluate(ctx, db)
}

// evaluate builds the result from an established connection.
func (opts *mysqlOpts) evaluate(ctx context.Context, db *sql.DB) *check.Result {
	res := check.NewResult("")

	status, err := fetchServerStatus(ctx, db)
	if err != nil {
		res.Set(check.Critical, "%s", err.Error())

		return res
	}

	if !opts.CheckSlave {
		res.Set(check.OK, "%s", status)

		return res
	}

	slave := checkSlave(ctx, db, opts.thresholds)
	if slave.State != check.OK {
		return slave
	}
	res.Set(check.OK, "%s %s", status, slave.Output)

	return res
}

// fetchServerStatus returns the server statistics line.
func fetchServerStatus(ctx context.Context, db *sql.DB) (string, error) {
	rows, err := db.QueryContext(ctx, "SHOW GLOBAL STATUS")
	if err != nil {
		return "", fmt.Errorf("status query error: %s", err.Error())
	}
	defer rows.Close()

	variables := map[string]string{}
	for rows.Next() {
		var name, value string
		if err := rows.Scan(&name, &value); err != nil {
			return "", fmt.Errorf("status fetch row error: %s", err.Error())
		}
		variables[name] = value
	}
	if err := rows.Err(); err != nil {
		return "", fmt.Errorf("status fetch row error: %s", err.Error())
	}

	fields := make([]string, 0, len(serverStatus)+1)
	for _, stat := range serverStatus {
		fields = append(fields, fmt.Sprintf("%s: %d", stat.name, convert.Int64(variables[stat.variable])))
	}

	qps := 0.0
	if uptime := convert.Float64(variables["Uptime"]); uptime > 0 {
		qps = convert.Float64(variables["Questions"]) / uptime
	}
	fields = append(fields, fmt.Sprintf("Queries per second avg: %.3f", qps))

	return strings.Join(fields, "  "), nil
}

// checkSlave evaluates the replication status. The result output contains the slave summary.
func checkSlave(ctx context.Context, db *sql.DB, thresholds *threshold.Thresholds[float64]) *check.Result {
	res := check.NewResult("")

	rows, err := db.QueryContext(ctx, "SHOW SLAVE STATUS")
	if err != nil {
		res.Set(check.Critical, "slave query error: %s", err.Error())

		return res
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		res.Set(check.Critical, "slave store_result error: %s", err.Error())

		return res
	}

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			res.Set(check.Critical, "slave fetch row error: %s", err.Error())

			return res
		}
		res.Set(check.Warning, "No slaves defined")

		return res
	}

	values := make([]sql.NullString, len(columns))
	pointers := make([]interface{}, len(columns))
	for i := range values {
		pointers[i] = &values[i]
	}
	if err := rows.Scan(pointers...); err != nil {
		res.Set(check.Critical, "slave fetch row error: %s", err.Error())

		return res
	}

	row := map[string]sql.NullString{}
	for i, col := range columns {
		row[col] = values[i]
	}

	ioRunning, hasIO := row["Slave_IO_Running"]
	sqlRunning, hasSQL := row["Slave_SQL_Running"]
	if !hasIO || !hasSQL {
		res.Set(check.Critical, "Slave status unavailable")

		return res
	}

	behind, hasBehind := row["Seconds_Behind_Master"]
	summary := fmt.Sprintf("Slave IO: %s Slave SQL: %s Seconds Behind Master: %s",
		nullString(ioRunning), nullString(sqlRunning), nullString(behind))
	if ioRunning.String != "Yes" || sqlRunning.String != "Yes" {
		res.Set(check.Critical, "%s", summary)

		return res
	}

	if !hasBehind || !behind.Valid {
		log.Debugf("Seconds_Behind_Master not available, skipping threshold")
		res.Set(check.OK, "%s", summary)

		return res
	}

	seconds, err := convert.Float64E(behind.String)
	if err != nil {
		res.Set(check.Critical, "Seconds Behind Master is not a number: %s", behind.String)

		return res
	}
	log.Tracef("seconds behind master: %f", seconds)

	state := thresholds.Get(seconds)
	res.Set(state, "%s", summary)
	if state != check.OK {
		res.Label = "SLOW_SLAVE"
		res.Delimiter = ": "
	}

	return res
}

func nullString(val sql.NullString) string {
	if !val.Valid {
		return "NULL"
	}

	return val.String
}
