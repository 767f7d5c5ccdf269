package check_cluster

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/consol-monitoring/checkplugins/pkg/check"
	"github.com/consol-monitoring/checkplugins/pkg/logger"
	"github.com/consol-monitoring/checkplugins/pkg/threshold"
	"github.com/jessevdk/go-flags"
)

const label = "CLUSTER"

var log = logger.Log

type clusterOpts struct {
	check.CommonOpts
	Service  bool   `short:"s" long:"service" description:"Check service cluster status (default)"`
	Host     bool   `short:"h" long:"host" description:"Check host cluster status"`
	Label    string `short:"l" long:"label" description:"Optional prepended text output (i.e. \"Host cluster\")"`
	Warning  string `short:"w" long:"warning" description:"Range of hosts or services in a non-OK state to return a WARNING status"`
	Critical string `short:"c" long:"critical" description:"Range of hosts or services in a non-OK state to return a CRITICAL status"`
	Data     string `short:"d" long:"data" required:"true" description:"The status codes of the hosts or services in the cluster, separated by commas"`
	Help     bool   `short:"H" long:"help" description:"Show this help message"`

	thresholds *threshold.Thresholds[int64]
	states     []int
}

// Check aggregates the states of a host or service cluster.
func Check(ctx context.Context, output io.Writer, args []string) int {
	opts := &clusterOpts{}
	// -h selects host mode, so the help flag is -H
	psr := flags.NewParser(opts, flags.PassDoubleDash)
	psr.Name = "check_cluster"
	rest, err := psr.ParseArgs(args)
	if opts.Help {
		psr.WriteHelp(output)

		return int(check.Unknown)
	}
	if err == nil && len(rest) > 0 {
		err = fmt.Errorf("unexpected arguments: %v", rest)
	}
	if err == nil {
		err = opts.parse()
	}
	if err != nil {
		return check.UsageError(output, err)
	}
	opts.Setup()

	res := check.RunWithTimeout(ctx, opts.TimeoutDuration(), label, func(_ context.Context) *check.Result {
		return opts.evaluate()
	})
	res.Delimiter = ": "

	return res.Write(output)
}

func (opts *clusterOpts) parse() error {
	if opts.Host && opts.Service {
		return fmt.Errorf("--host and --service cannot be combined")
	}

	var err error
	opts.thresholds, err = threshold.NewThresholds(opts.Warning, opts.Critical, threshold.DefaultLower[int64](0))
	if err != nil {
		return err
	}

	for _, val := range strings.Split(opts.Data, ",") {
		val = strings.TrimSpace(val)
		if val == "" {
			continue
		}
		num, err := strconv.Atoi(val)
		if err != nil {
			return fmt.Errorf("invalid state '%s' in data", val)
		}
		opts.states = append(opts.states, num)
	}

	return nil
}

func (opts *clusterOpts) evaluate() *check.Result {
	res := check.NewResult(label)
	res.Delimiter = ": "

	if opts.Host {
		up, down, unreachable := 0, 0, 0
		for _, state := range opts.states {
			switch state {
			case 0:
				up++
			case 1:
				down++
			case 2:
				unreachable++
			default:
				log.Debugf("ignoring unknown host state %d", state)
			}
		}
		name := opts.Label
		if name == "" {
			name = "Host cluster"
		}
		res.Set(opts.thresholds.Get(int64(down+unreachable)), "%s: %d up, %d down, %d unreachable", name, up, down, unreachable)

		return res
	}

	counts := map[check.State]int{}
	for _, state := range opts.states {
		parsed, ok := check.ParseState(strconv.Itoa(state))
		if !ok {
			log.Debugf("ignoring unknown service state %d", state)

			continue
		}
		counts[parsed]++
	}
	name := opts.Label
	if name == "" {
		name = "Service cluster"
	}
	problems := counts[check.Warning] + counts[check.Unknown] + counts[check.Critical]
	res.Set(opts.thresholds.Get(int64(problems)), "%s: %d ok, %d warning, %d unknown, %d critical",
		name, counts[check.OK], counts[check.Warning], counts[check.Unknown], counts[check.Critical])

	return res
}
