package logger

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/kdar/factorlog"
)

// define all available log level.
const (
	// LogVerbosityNone disables logging.
	LogVerbosityNone = 0

	// LogVerbosityDefault sets the default log level.
	LogVerbosityDefault = 1

	// LogVerbosityDebug sets the debug log level.
	LogVerbosityDebug = 2

	// LogVerbosityTrace sets trace log level.
	LogVerbosityTrace = 3
)

var (
	DateTimeLogFormat = `[%{Date} %{Time "15:04:05.000"}]`
	LogFormat         = `[%{Severity}][pid:%{Pid}][%{ShortFile}:%{Line}] %{Message}`

	// Log is shared by all plugins. Plugin output goes to stdout, so logs must stay on stderr.
	Log = factorlog.New(os.Stderr, BuildFormatter(DateTimeLogFormat+LogFormat))

	targetWriter io.Writer = os.Stderr
)

func init() {
	SetLogLevel("error")
}

// SetLogLevel sets one of: off, error, info, debug, trace
func SetLogLevel(level string) {
	switch strings.ToLower(level) {
	case "off":
		Log.SetMinMaxSeverity(factorlog.StringToSeverity("PANIC"), factorlog.StringToSeverity("PANIC"))
		Log.SetVerbosity(LogVerbosityNone)
	case "error", "info":
		Log.SetMinMaxSeverity(factorlog.StringToSeverity(strings.ToUpper(level)), factorlog.StringToSeverity("PANIC"))
		Log.SetVerbosity(LogVerbosityDefault)
	case "debug":
		Log.SetMinMaxSeverity(factorlog.StringToSeverity(strings.ToUpper(level)), factorlog.StringToSeverity("PANIC"))
		Log.SetVerbosity(LogVerbosityDebug)
	case "trace":
		Log.SetMinMaxSeverity(factorlog.StringToSeverity(strings.ToUpper(level)), factorlog.StringToSeverity("PANIC"))
		Log.SetVerbosity(LogVerbosityTrace)
	case "":
	default:
		Log.Errorf("unknown log level: %s", level)
	}
}

// SetVerbosity maps the number of -v flags to a log level.
func SetVerbosity(verbose int) {
	switch {
	case verbose <= 0:
		SetLogLevel("error")
	case verbose == 1:
		SetLogLevel("info")
	case verbose == 2:
		SetLogLevel("debug")
	default:
		SetLogLevel("trace")
	}
}

// SetOutput redirects all log messages into given writer.
func SetOutput(writer io.Writer) {
	targetWriter = writer
	Log.SetOutput(writer)
}

func BuildFormatter(format string) *factorlog.StdFormatter {
	format = strings.ReplaceAll(format, "%{Pid}", fmt.Sprintf("%d", os.Getpid()))

	return (factorlog.NewStdFormatter(format))
}

func LogError(err error) {
	if err != nil {
		logErr := Log.Output(factorlog.ERROR, 2, err.Error())
		if logErr != nil {
			fmt.Fprintf(os.Stderr, "failed to log: %s (%s)\n", err.Error(), logErr.Error())
		}
	}
}

func LogDebug(err error) {
	if err != nil {
		logErr := Log.Output(factorlog.DEBUG, 2, err.Error())
		if logErr != nil {
			fmt.Fprintf(os.Stderr, "failed to log: %s (%s)\n", err.Error(), logErr.Error())
		}
	}
}

// LogStderrf always writes to stderr, even if the log target has been changed.
func LogStderrf(format string, args ...interface{}) {
	Log.SetOutput(os.Stderr)
	logErr := Log.Output(factorlog.ERROR, 2, fmt.Sprintf(format, args...))
	if logErr != nil {
		fmt.Fprintf(os.Stderr, "failed to log: %s\n", logErr.Error())
	}
	Log.SetOutput(targetWriter)
}
