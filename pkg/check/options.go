package check

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/consol-monitoring/checkplugins/pkg/logger"
	"github.com/consol-monitoring/checkplugins/pkg/utils"
	"github.com/jessevdk/go-flags"
)

// CommonOpts contains the options every plugin supports.
type CommonOpts struct {
	Timeout   Seconds `short:"t" long:"timeout" default:"10" description:"Seconds before the plugin times out, units like 500ms or 1m are accepted"`
	Verbose   []bool  `short:"v" long:"verbose" description:"Show details for command-line debugging (can be repeated)"`
	ExtraOpts string  `long:"extra-opts" optional:"true" optional-value:"" description:"Read options from an ini file, see [section][@file]"`
	LogLevel  string  `long:"loglevel" description:"Set loglevel to one of: off, error, info, debug, trace (overrides -v)"`
}

// Seconds is a duration flag, plain numbers are seconds.
type Seconds float64

// UnmarshalFlag implements flags.Unmarshaler.
func (s *Seconds) UnmarshalFlag(value string) error {
	num, err := utils.ExpandDuration(value)
	if err != nil {
		return fmt.Errorf("invalid duration %s: %w", value, err)
	}
	*s = Seconds(num)

	return nil
}

// TimeoutDuration returns the timeout as duration.
func (o *CommonOpts) TimeoutDuration() time.Duration {
	return time.Duration(float64(o.Timeout) * float64(time.Second))
}

// Setup applies the verbosity or the explicit log level to the logger.
func (o *CommonOpts) Setup() {
	if o.LogLevel != "" {
		logger.SetLogLevel(o.LogLevel)

		return
	}
	logger.SetVerbosity(len(o.Verbose))
}

// ParseArgs parses args into opts with go-flags.
func ParseArgs(name string, opts interface{}, args []string, options flags.Options) error {
	psr := flags.NewParser(opts, options) // default flags without flags.PrintErrors
	psr.Name = name
	rest, err := psr.ParseArgs(args)
	if err != nil {
		return fmt.Errorf("%w", err)
	}
	if len(rest) > 0 {
		return fmt.Errorf("unexpected arguments: %v", rest)
	}

	return nil
}

// UsageError prints argument errors (or the help) and returns UNKNOWN.
func UsageError(output io.Writer, err error) int {
	var flagErr *flags.Error
	if errors.As(err, &flagErr) && flagErr.Type == flags.ErrHelp {
		fmt.Fprintf(output, "%s\n", flagErr.Message)

		return int(Unknown)
	}
	fmt.Fprintf(output, "UNKNOWN - %s\n", err.Error())

	return int(Unknown)
}
