package check

import (
	"errors"

	"github.com/mackerelio/checkers"
)

// State is the outcome of an evaluation. The numeric value is the plugin exit code.
type State = checkers.Status

const (
	// OK is used for normal exits.
	OK = checkers.OK

	// Warning is used for warnings.
	Warning = checkers.WARNING

	// Critical is used for critical errors.
	Critical = checkers.CRITICAL

	// Unknown is used for when the check runs into a problem itself.
	Unknown = checkers.UNKNOWN
)

// ErrNoData is returned when there is nothing to evaluate.
var ErrNoData = errors.New("no data to evaluate")

// rank orders states for worst-of aggregation: CRITICAL > WARNING > OK > UNKNOWN.
func rank(state State) int {
	switch state {
	case Critical:
		return 3
	case Warning:
		return 2
	case OK:
		return 1
	default:
		return 0
	}
}

// MaxState returns the more severe of both states.
// UNKNOWN ranks below OK, so it only wins against other UNKNOWN states.
func MaxState(a, b State) State {
	if rank(b) > rank(a) {
		return b
	}

	return a
}

// Aggregate returns the worst state of all given states.
// An empty list results in UNKNOWN and ErrNoData.
// UNKNOWN values are dropped unless nothing else is left, plugins which cannot
// evaluate a value have to report that themselves (ex.: check_snmp agent errors).
func Aggregate(states ...State) (State, error) {
	if len(states) == 0 {
		return Unknown, ErrNoData
	}

	res := states[0]
	for _, s := range states[1:] {
		res = MaxState(res, s)
	}

	return res, nil
}

// StateString returns the upper case name of a state, ex.: CRITICAL
func StateString(state State) string {
	switch state {
	case OK:
		return "OK"
	case Warning:
		return "WARNING"
	case Critical:
		return "CRITICAL"
	}

	return "UNKNOWN"
}

// ParseState converts a state name like "warn", "crit" or "ok" into a State.
func ParseState(name string) (State, bool) {
	switch name {
	case "ok", "OK", "0":
		return OK, true
	case "warn", "warning", "WARNING", "1":
		return Warning, true
	case "crit", "critical", "CRITICAL", "2":
		return Critical, true
	case "unknown", "UNKNOWN", "3":
		return Unknown, true
	}

	return Unknown, false
}
