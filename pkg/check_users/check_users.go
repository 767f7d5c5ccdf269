package check_users

import (
	"context"
	"io"

	"github.com/consol-monitoring/checkplugins/pkg/check"
	"github.com/consol-monitoring/checkplugins/pkg/logger"
	"github.com/consol-monitoring/checkplugins/pkg/threshold"
	"github.com/jessevdk/go-flags"
	"github.com/shirou/gopsutil/v3/host"
)

const label = "USERS"

var log = logger.Log

// SessionLister returns the current login sessions.
type SessionLister func(ctx context.Context) ([]host.UserStat, error)

type usersOpts struct {
	check.CommonOpts
	Warning  string `short:"w" long:"warning" description:"Set WARNING status if more than INTEGER users are logged in"`
	Critical string `short:"c" long:"critical" description:"Set CRITICAL status if more than INTEGER users are logged in"`

	thresholds *threshold.Thresholds[int64]
	lister     SessionLister
}

func Check(ctx context.Context, output io.Writer, args []string) int {
	return run(ctx, output, args, host.UsersWithContext)
}

func run(ctx context.Context, output io.Writer, args []string, lister SessionLister) int {
	opts, err := parseArgs(args)
	if err != nil {
		return check.UsageError(output, err)
	}
	opts.Setup()
	opts.lister = lister

	res := check.RunWithTimeout(ctx, opts.TimeoutDuration(), label, opts.run)

	return res.Write(output)
}

func parseArgs(args []string) (*usersOpts, error) {
	opts := &usersOpts{}
	err := check.ParseArgs("check_users", opts, args, flags.HelpFlag|flags.PassDoubleDash)
	if err != nil {
		return nil, err
	}

	opts.thresholds, err = threshold.NewThresholds(opts.Warning, opts.Critical, threshold.DefaultLower[int64](0))
	if err != nil {
		return nil, err
	}

	return opts, nil
}

func (opts *usersOpts) run(ctx context.Context) *check.Result {
	sessions, err := opts.lister(ctx)
	if err != nil {
		logger.LogDebug(err)

		return check.Unknownf(label, "Unable to read output: %s", err.Error())
	}

	for _, session := range sessions {
		log.Debugf("session: %s on %s from %s", session.User, session.Terminal, session.Host)
	}

	users := int64(len(sessions))
	res := check.NewResult(label)
	res.Set(opts.thresholds.Get(users), "%d users currently logged in", users)
	res.Metrics = append(res.Metrics, &check.Metric{
		Name:     "users",
		Value:    users,
		Warning:  opts.thresholds.Warning,
		Critical: opts.thresholds.Critical,
		Min:      0,
	})

	return res
}
