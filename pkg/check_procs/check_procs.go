package check_procs

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/user"
	"strconv"
	"strings"

	"github.com/consol-monitoring/checkplugins/pkg/check"
	"github.com/consol-monitoring/checkplugins/pkg/logger"
	"github.com/consol-monitoring/checkplugins/pkg/threshold"
	"github.com/consol-monitoring/checkplugins/pkg/utils"
	"github.com/dustin/go-humanize"
	"github.com/jessevdk/go-flags"
	"golang.org/x/exp/slices"
)

const metricProcs = "PROCS"

var log = logger.Log

var validMetrics = []string{metricProcs, "VSZ", "RSS", "CPU", "ELAPSED"}

type procsOpts struct {
	check.CommonOpts
	Warning  string   `short:"w" long:"warning" description:"Generate warning state if metric is outside this range"`
	Critical string   `short:"c" long:"critical" description:"Generate critical state if metric is outside this range"`
	Metric   string   `short:"m" long:"metric" default:"PROCS" description:"Check thresholds against metric: PROCS, VSZ, RSS, CPU or ELAPSED"`
	State    string   `short:"s" long:"state" description:"Only scan for processes that have, in the output of ps, one or more of the status flags you specify"`
	PPID     *int32   `short:"p" long:"ppid" description:"Only scan for children of the parent process ID indicated"`
	User     string   `short:"u" long:"user" description:"Only scan for processes with user name or ID indicated"`
	Command  string   `short:"C" long:"command" description:"Only scan for exact matches of COMMAND (without path)"`
	Args     string   `short:"a" long:"argument-array" description:"Only scan for processes with args that contain STRING"`
	VSZ      string   `short:"z" long:"vsz" description:"Only scan for processes with vsz higher than indicated (KB, units like 512MB are accepted)"`
	RSS      string   `short:"r" long:"rss" description:"Only scan for processes with rss higher than indicated (KB, units like 512MB are accepted)"`
	PCPU     *float64 `short:"P" long:"pcpu" description:"Only scan for processes with pcpu higher than indicated"`

	countThresholds *threshold.Thresholds[int64]
	valueThresholds *threshold.Thresholds[float64]
	filters         []procFilter
}

// procFilter is a single process selection criteria.
type procFilter struct {
	desc  string
	match func(proc *ProcInfo) bool
}

func Check(ctx context.Context, output io.Writer, args []string) int {
	return run(ctx, output, args, listProcesses)
}

func run(ctx context.Context, output io.Writer, args []string, lister ProcessLister) int {
	opts, err := parseArgs(args)
	if err != nil {
		return check.UsageError(output, err)
	}
	opts.Setup()

	res := check.RunWithTimeout(ctx, opts.TimeoutDuration(), opts.Metric, func(ctx context.Context) *check.Result {
		procs, err := lister(ctx)
		if err != nil {
			return check.Unknownf(opts.Metric, "%s", err.Error())
		}

		return opts.evaluate(procs, int32(os.Getpid()))
	})
	res.Delimiter = ": "

	return res.Write(output)
}

func parseArgs(args []string) (*procsOpts, error) {
	opts := &procsOpts{}
	err := check.ParseArgs("check_procs", opts, args, flags.HelpFlag|flags.PassDoubleDash)
	if err != nil {
		return nil, err
	}

	opts.Metric = strings.ToUpper(opts.Metric)
	if !slices.Contains(validMetrics, opts.Metric) {
		return nil, fmt.Errorf("metric must be one of %s", strings.Join(validMetrics, ", "))
	}

	if opts.Metric == metricProcs {
		opts.countThresholds, err = threshold.NewThresholds(opts.Warning, opts.Critical, threshold.DefaultLower[int64](0))
		if err != nil {
			return nil, err
		}
		err = validateNested(opts.countThresholds)
	} else {
		opts.valueThresholds, err = threshold.NewThresholds(opts.Warning, opts.Critical, threshold.DefaultLower(0.0))
		if err != nil {
			return nil, err
		}
		err = validateNested(opts.valueThresholds)
	}
	if err != nil {
		return nil, err
	}

	if err := opts.buildFilters(); err != nil {
		return nil, err
	}

	return opts, nil
}

// validateNested checks that the warning range lies within the critical range.
func validateNested[T threshold.Number](thresholds *threshold.Thresholds[T]) error {
	warn, crit := thresholds.Warning, thresholds.Critical
	if warn == nil || crit == nil || warn.Inverted() || crit.Inverted() {
		return nil
	}

	wmax, hasWmax := warn.Upper()
	cmax, hasCmax := crit.Upper()
	if hasWmax && hasCmax && wmax > cmax {
		return fmt.Errorf("wmax (%v) cannot be greater than cmax (%v)", wmax, cmax)
	}

	wmin, hasWmin := warn.Lower()
	cmin, hasCmin := crit.Lower()
	if hasWmin && hasCmin && cmin > wmin {
		return fmt.Errorf("wmin (%v) cannot be less than cmin (%v)", wmin, cmin)
	}

	return nil
}

func (opts *procsOpts) buildFilters() error {
	if opts.State != "" {
		states := opts.State
		opts.addFilter("STATE = "+states, func(proc *ProcInfo) bool {
			return proc.State != "" && strings.ContainsAny(proc.State, states)
		})
	}

	if opts.PPID != nil {
		ppid := *opts.PPID
		opts.addFilter(fmt.Sprintf("PPID = %d", ppid), func(proc *ProcInfo) bool {
			return proc.PPID == ppid
		})
	}

	if opts.User != "" {
		uid, name, err := lookupUser(opts.User)
		if err != nil {
			return err
		}
		opts.addFilter(fmt.Sprintf("UID = %d (%s)", uid, name), func(proc *ProcInfo) bool {
			return proc.UID == uid
		})
	}

	if opts.Command != "" {
		command := opts.Command
		opts.addFilter(fmt.Sprintf("command name '%s'", command), func(proc *ProcInfo) bool {
			return proc.Command == command
		})
	}

	if opts.Args != "" {
		args := opts.Args
		opts.addFilter(fmt.Sprintf("args '%s'", args), func(proc *ProcInfo) bool {
			return strings.Contains(proc.Args, args)
		})
	}

	if opts.RSS != "" {
		rss, err := parseKB(opts.RSS)
		if err != nil {
			return fmt.Errorf("RSS must be an integer: %s", err.Error())
		}
		opts.addFilter(fmt.Sprintf("RSS >= %d", rss), func(proc *ProcInfo) bool {
			return proc.RSS >= rss
		})
	}

	if opts.VSZ != "" {
		vsz, err := parseKB(opts.VSZ)
		if err != nil {
			return fmt.Errorf("VSZ must be an integer: %s", err.Error())
		}
		opts.addFilter(fmt.Sprintf("VSZ >= %d", vsz), func(proc *ProcInfo) bool {
			return proc.VSZ >= vsz
		})
	}

	if opts.PCPU != nil {
		pcpu := *opts.PCPU
		opts.addFilter(fmt.Sprintf("PCPU >= %.2f", pcpu), func(proc *ProcInfo) bool {
			return proc.PCPU >= pcpu
		})
	}

	return nil
}

func (opts *procsOpts) addFilter(desc string, match func(proc *ProcInfo) bool) {
	opts.filters = append(opts.filters, procFilter{desc: desc, match: match})
}

// lookupUser resolves a user name or uid.
func lookupUser(name string) (uid int32, username string, err error) {
	var usr *user.User
	if utils.IsDigitsOnly(name) {
		usr, err = user.LookupId(name)
		if err != nil {
			return 0, "", fmt.Errorf("UID %s was not found", name)
		}
	} else {
		usr, err = user.Lookup(name)
		if err != nil {
			return 0, "", fmt.Errorf("user name %s was not found", name)
		}
	}

	num, err := strconv.ParseInt(usr.Uid, 10, 32)
	if err != nil {
		return 0, "", fmt.Errorf("invalid uid %s: %s", usr.Uid, err.Error())
	}

	return int32(num), usr.Username, nil
}

// parseKB parses memory sizes, plain numbers are KB.
func parseKB(str string) (int64, error) {
	if utils.IsDigitsOnly(str) {
		num, err := strconv.ParseInt(str, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("%w", err)
		}

		return num, nil
	}

	bytes, err := humanize.ParseBytes(str)
	if err != nil {
		return 0, fmt.Errorf("%w", err)
	}

	return int64(bytes / 1024), nil
}

func (opts *procsOpts) matches(proc *ProcInfo) bool {
	for _, filter := range opts.filters {
		if !filter.match(proc) {
			return false
		}
	}

	return true
}

func (opts *procsOpts) metricValue(proc *ProcInfo) float64 {
	switch opts.Metric {
	case "VSZ":
		return float64(proc.VSZ)
	case "RSS":
		return float64(proc.RSS)
	case "CPU":
		return proc.PCPU
	case "ELAPSED":
		return proc.Elapsed.Seconds()
	}

	return 0
}

// evaluate counts all matching processes except self and checks the thresholds.
func (opts *procsOpts) evaluate(procs []ProcInfo, self int32) *check.Result {
	found, matched, warn, crit := 0, 0, 0, 0
	fails := []string{}
	state := check.OK

	for i := range procs {
		proc := &procs[i]
		if proc.PID == self {
			continue
		}
		found++

		log.Tracef("pid=%d ppid=%d uid=%d vsz=%d rss=%d pcpu=%.2f stat=%s etime=%s prog=%s args=%s",
			proc.PID, proc.PPID, proc.UID, proc.VSZ, proc.RSS, proc.PCPU, proc.State,
			utils.ElapsedString(proc.Elapsed), proc.Command, proc.Args)

		if !opts.matches(proc) {
			continue
		}
		matched++

		if opts.Metric == metricProcs {
			continue
		}

		switch opts.valueThresholds.Get(opts.metricValue(proc)) {
		case check.Warning:
			warn++
			fails = append(fails, proc.Command)
			state = check.MaxState(state, check.Warning)
		case check.Critical:
			crit++
			fails = append(fails, proc.Command)
			state = check.MaxState(state, check.Critical)
		}
	}

	res := check.NewResult(opts.Metric)
	res.Delimiter = ": "

	if found == 0 {
		res.Set(check.Unknown, "Unable to read output")

		return res
	}

	if opts.Metric == metricProcs {
		state = check.MaxState(state, opts.countThresholds.Get(int64(matched)))
	}

	var text strings.Builder
	if opts.Metric != metricProcs {
		switch state {
		case check.Warning:
			fmt.Fprintf(&text, "%d warn out of ", warn)
		case check.Critical:
			fmt.Fprintf(&text, "%d crit, %d warn out of ", crit, warn)
		}
	}

	if matched == 1 {
		text.WriteString("1 process")
	} else {
		fmt.Fprintf(&text, "%d processes", matched)
	}

	if len(opts.filters) > 0 {
		desc := make([]string, 0, len(opts.filters))
		for _, filter := range opts.filters {
			desc = append(desc, filter.desc)
		}
		text.WriteString(" with " + strings.Join(desc, ", "))
	}

	if len(opts.Verbose) >= 1 && len(fails) > 0 {
		fmt.Fprintf(&text, " [%s]", strings.Join(fails, ", "))
	}

	res.Set(state, "%s", text.String())

	if opts.Metric == metricProcs {
		res.Metrics = append(res.Metrics, &check.Metric{
			Name:     "procs",
			Value:    matched,
			Warning:  opts.countThresholds.Warning,
			Critical: opts.countThresholds.Critical,
			Min:      0,
		})
	} else {
		res.Metrics = append(res.Metrics,
			&check.Metric{Name: "procs", Value: matched, Min: 0},
			&check.Metric{Name: "procs_warn", Value: warn, Min: 0},
			&check.Metric{Name: "procs_crit", Value: crit, Min: 0},
		)
	}

	return res
}
