package check_mysql_query

import (
	"context"
	"database/sql"
	"io"
	"strconv"
	"strings"

	"github.com/consol-monitoring/checkplugins/pkg/check"
	"github.com/consol-monitoring/checkplugins/pkg/check_mysql"
	"github.com/consol-monitoring/checkplugins/pkg/logger"
	"github.com/consol-monitoring/checkplugins/pkg/threshold"
	"github.com/jessevdk/go-flags"
)

const label = "QUERY"

var log = logger.Log

type queryOpts struct {
	check.CommonOpts
	check_mysql.ConnectionOpts
	Query    string `short:"q" long:"query" required:"true" description:"SQL query to run. Only first column in first row will be read"`
	Warning  string `short:"w" long:"warning" description:"Warning range (format: start:end). Alert if outside this range"`
	Critical string `short:"c" long:"critical" description:"Critical range"`

	thresholds *threshold.Thresholds[float64]
}

func Check(ctx context.Context, output io.Writer, args []string) int {
	opts, err := parseArgs(args)
	if err != nil {
		return check.UsageError(output, err)
	}
	opts.Setup()

	res := check.RunWithTimeout(ctx, opts.TimeoutDuration(), label, opts.run)

	return res.Write(output)
}

func parseArgs(args []string) (*queryOpts, error) {
	opts := &queryOpts{}
	err := check.ParseArgs("check_mysql_query", opts, args, flags.HelpFlag|flags.PassDoubleDash)
	if err != nil {
		return nil, err
	}

	opts.thresholds, err = threshold.NewThresholds(opts.Warning, opts.Critical, threshold.DefaultLower(0.0))
	if err != nil {
		return nil, err
	}

	return opts, nil
}

func newResult() *check.Result {
	res := check.NewResult(label)
	res.Delimiter = ": "

	return res
}

func (opts *queryOpts) run(ctx context.Context) *check.Result {
	db, err := opts.Open(ctx, opts.TimeoutDuration())
	if err != nil {
		res := newResult()
		res.Set(check_mysql.ConnectState(err), "%s", err.Error())

		return res
	}
	defer db.Close()

	return opts.evaluate(ctx, db)
}

// evaluate runs the query and checks the first column of the first row.
func (opts *queryOpts) evaluate(ctx context.Context, db *sql.DB) *check.Result {
	res := newResult()

	rows, err := db.QueryContext(ctx, opts.Query)
	if err != nil {
		res.Set(check.Critical, "Error with query - %s", err.Error())

		return res
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			res.Set(check.Critical, "Fetch row error - %s", err.Error())

			return res
		}
		res.Set(check.Warning, "No rows returned")

		return res
	}

	columns, err := rows.Columns()
	if err != nil || len(columns) == 0 {
		res.Set(check.Critical, "Error with store_result - %v", err)

		return res
	}

	values := make([]sql.RawBytes, len(columns))
	pointers := make([]interface{}, len(columns))
	for i := range values {
		pointers[i] = &values[i]
	}
	if err := rows.Scan(pointers...); err != nil {
		res.Set(check.Critical, "Fetch row error - %s", err.Error())

		return res
	}

	raw := string(values[0])
	value, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		res.Set(check.Critical, "Is not a numeric - '%s'", raw)

		return res
	}
	log.Tracef("mysql result: %f", value)

	res.Set(opts.thresholds.Get(value), "'%s' returned %f", opts.Query, value)
	res.Metrics = append(res.Metrics, &check.Metric{
		Name:     "result",
		Value:    value,
		Warning:  opts.thresholds.Warning,
		Critical: opts.thresholds.Critical,
	})

	return res
}
