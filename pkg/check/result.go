package check

import (
	"fmt"
	"io"
	"strings"
)

// DefaultDelimiter separates state and output in the status line.
const DefaultDelimiter = " - "

// Result is the result of a single plugin run.
type Result struct {
	Label     string // ex.: DNS, empty label prints the output only
	State     State
	Output    string
	Delimiter string
	Metrics   []*Metric
}

// NewResult returns an OK result with given label.
func NewResult(label string) *Result {
	return &Result{
		Label:     label,
		State:     OK,
		Delimiter: DefaultDelimiter,
	}
}

// Unknownf returns an UNKNOWN result with formatted output.
func Unknownf(label, format string, args ...interface{}) *Result {
	res := NewResult(label)
	res.State = Unknown
	res.Output = fmt.Sprintf(format, args...)

	return res
}

// Criticalf returns a CRITICAL result with formatted output.
func Criticalf(label, format string, args ...interface{}) *Result {
	res := NewResult(label)
	res.State = Critical
	res.Output = fmt.Sprintf(format, args...)

	return res
}

func (r *Result) StateString() string {
	return StateString(r.State)
}

// EscalateStatus raises the state if the given state is worse.
func (r *Result) EscalateStatus(state State) {
	r.State = MaxState(r.State, state)
}

// Set replaces state and output.
func (r *Result) Set(state State, format string, args ...interface{}) {
	r.State = state
	r.Output = fmt.Sprintf(format, args...)
}

// BuildPluginOutput returns the status line: LABEL STATE - output|perfdata
func (r *Result) BuildPluginOutput() []byte {
	output := []byte{}
	if r.Label != "" {
		delim := r.Delimiter
		if delim == "" {
			delim = DefaultDelimiter
		}
		output = append(output, []byte(r.Label+" "+r.StateString()+delim)...)
	}
	output = append(output, []byte(r.Output)...)
	if len(r.Metrics) > 0 {
		perf := make([]string, 0, len(r.Metrics))
		for _, m := range r.Metrics {
			perf = append(perf, m.String())
		}
		output = append(output, '|')
		output = append(output, []byte(strings.Join(perf, " "))...)
	}

	return output
}

// Write prints the status line and returns the exit code.
func (r *Result) Write(output io.Writer) int {
	fmt.Fprintf(output, "%s\n", r.BuildPluginOutput())

	return int(r.State)
}
